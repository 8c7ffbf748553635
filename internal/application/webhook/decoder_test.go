package webhook

import (
	"testing"

	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOrder(t *testing.T) {
	d := MustNewPayloadDecoder()
	order, err := d.DecodeOrder([]byte(`{
		"id": 450789469,
		"order_number": 1001,
		"name": "#1001",
		"updated_at": "2026-03-01T10:00:00-05:00",
		"currency": "USD",
		"total_price": "19.98",
		"customer": {"id": "207119551", "email": "bob@example.com"},
		"line_items": [
			{"id": 466157049, "product_id": 632910392, "variant_id": 39072856, "sku": "IPOD-1", "quantity": 2, "price": "9.99"},
			{"sku": "GIFT", "quantity": 1, "price": 0}
		]
	}`))
	require.NoError(t, err)

	assert.Equal(t, webhook.PlatformID("450789469"), order.ID)
	assert.Equal(t, "1001", order.OrderNumber.String())
	assert.Equal(t, "2026-03-01T15:00:00Z", order.Version().Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, "19.98", order.TotalPrice.String())
	assert.Equal(t, webhook.PlatformID("207119551"), order.Customer.ID)
	require.Len(t, order.LineItems, 2)
	assert.Equal(t, "id:466157049", order.LineItems[0].Key())
	assert.Equal(t, "sku:gift|", order.LineItems[1].Key())
	assert.False(t, order.IsCancelled())
}

func TestDecodeOrder_SchemaMismatch(t *testing.T) {
	d := MustNewPayloadDecoder()
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `{"order_number":`},
		{name: "not an object", payload: `[1,2,3]`},
		{name: "missing order number", payload: `{"id": 1}`},
		{name: "empty order number", payload: `{"order_number": ""}`},
		{name: "negative quantity", payload: `{"order_number": 1, "line_items": [{"quantity": -1}]}`},
		{name: "fractional quantity", payload: `{"order_number": 1, "line_items": [{"quantity": 1.5}]}`},
		{name: "line items not a list", payload: `{"order_number": 1, "line_items": {"quantity": 1}}`},
		{name: "bad timestamp", payload: `{"order_number": 1, "updated_at": "yesterday"}`},
		{name: "bad currency", payload: `{"order_number": 1, "currency": "DOLLARS"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.DecodeOrder([]byte(tt.payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, webhook.ErrSchemaMismatch)
			assert.Equal(t, webhook.ErrorKindPermanent, webhook.ClassifyError(err))
		})
	}
}

func TestDecodeFulfillment(t *testing.T) {
	d := MustNewPayloadDecoder()
	f, err := d.DecodeFulfillment([]byte(`{
		"id": 255858046,
		"order_id": "450789469",
		"status": "success",
		"tracking_company": "UPS",
		"tracking_number": "1Z1234",
		"updated_at": "2026-03-02T08:00:00Z",
		"line_items": [{"id": 466157049, "quantity": 1}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "255858046", f.ID.String())
	assert.Equal(t, "450789469", f.OrderID.String())
	assert.Equal(t, "success", f.Status)
	assert.False(t, f.Version().IsZero())

	_, err = d.DecodeFulfillment([]byte(`{"id": 1, "status": "success"}`))
	assert.ErrorIs(t, err, webhook.ErrSchemaMismatch, "order_id is required")
}
