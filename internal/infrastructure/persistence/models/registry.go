package models

// All returns every persistence model, in dependency order, for AutoMigrate
// in tests and local development. Production schemas come from migrations/.
func All() []any {
	return []any{
		&ShopModel{},
		&ProductModel{},
		&ProductMappingModel{},
		&OrderModel{},
		&OrderLineItemModel{},
		&OrderStatusHistoryModel{},
		&FulfillmentModel{},
		&OrderTombstoneModel{},
		&InventoryMovementModel{},
		&WebhookEventModel{},
		&OutboxEntryModel{},
	}
}
