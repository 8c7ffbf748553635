package order

import (
	"testing"
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder("s1.myshopify.com", "1001")
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	o := createTestOrder(t)
	assert.Equal(t, StateActive, o.State())
	assert.Equal(t, 1, o.GetVersion())
	assert.Equal(t, "#1001", o.Reference())

	_, err := NewOrder("", "1001")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewOrder("s1", "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestOrder_IsStale(t *testing.T) {
	o := createTestOrder(t)
	v1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	v2 := v1.Add(time.Minute)

	assert.False(t, o.IsStale(v1), "nothing applied yet")
	o.ApplySnapshot(Snapshot{Version: v2})

	assert.True(t, o.IsStale(v1))
	assert.False(t, o.IsStale(v2), "equal versions re-apply")
	assert.False(t, o.IsStale(time.Time{}), "unknown version is never stale")

	o.ApplySnapshot(Snapshot{Version: v1})
	assert.Equal(t, v2, *o.PlatformUpdatedAt, "version never moves backwards")
}

func TestOrder_ApplySnapshot_KeepsLocalMarkers(t *testing.T) {
	o := createTestOrder(t)
	now := shared.Now()
	require.NoError(t, o.SoftDelete("u1", now))
	o.MarkTest("u1", now)

	o.ApplySnapshot(Snapshot{FinancialStatus: "paid", TotalPrice: decimal.NewFromInt(30)})

	assert.True(t, o.IsSoftDeleted())
	assert.True(t, o.IsTest)
	assert.Equal(t, "paid", o.FinancialStatus)
	assert.True(t, decimal.NewFromInt(30).Equal(o.TotalPrice))
}

func TestOrder_Lifecycle(t *testing.T) {
	now := shared.Now()

	t.Run("soft delete and restore", func(t *testing.T) {
		o := createTestOrder(t)
		require.NoError(t, o.SoftDelete("u1", now))
		assert.Equal(t, StateSoftDeleted, o.State())
		assert.Equal(t, DeletionTypeSoft, o.DeletionType)
		assert.Equal(t, "u1", o.DeletedBy)

		assert.ErrorIs(t, o.SoftDelete("u1", now), shared.ErrInvalidStateTransition)

		require.NoError(t, o.Restore())
		assert.Equal(t, StateActive, o.State())
		assert.Nil(t, o.DeletedAt)
		assert.Empty(t, o.DeletedBy)
		assert.Empty(t, o.DeletionType)
	})

	t.Run("restore requires soft delete", func(t *testing.T) {
		o := createTestOrder(t)
		err := o.Restore()
		assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
	})

	t.Run("cancel once", func(t *testing.T) {
		o := createTestOrder(t)
		require.NoError(t, o.Cancel("customer", now))
		assert.Equal(t, StateCancelled, o.State())
		assert.ErrorIs(t, o.Cancel("customer", now), shared.ErrInvalidStateTransition)
	})

	t.Run("mark test is orthogonal", func(t *testing.T) {
		o := createTestOrder(t)
		require.NoError(t, o.SoftDelete("u1", now))
		assert.True(t, o.MarkTest("u2", now))
		assert.False(t, o.MarkTest("u2", now))
		assert.Equal(t, StateSoftDeleted, o.State())
		assert.Equal(t, "u2", o.MarkedTestBy)
	})
}

func TestOrder_ReconcileItems(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()
	o := createTestOrder(t)

	diff := o.ReconcileItems([]LineItemInput{
		{Key: "id:1", SKU: "A", Quantity: 2, UnitPrice: decimal.NewFromInt(10), ProductID: &productA},
		{Key: "id:2", SKU: "B", Quantity: 1, UnitPrice: decimal.NewFromInt(5), ProductID: &productB},
		{Key: "id:3", SKU: "X", Quantity: 4, UnitPrice: decimal.NewFromInt(1)},
	})
	require.Len(t, diff.Added, 3)
	assert.Len(t, o.Items, 3)
	assert.Len(t, o.UnmappedItems(), 1)
	firstID := o.Items[0].ID

	t.Run("diff against current platform set", func(t *testing.T) {
		diff := o.ReconcileItems([]LineItemInput{
			{Key: "id:1", SKU: "A", Quantity: 5, UnitPrice: decimal.NewFromInt(10), ProductID: &productA},
			{Key: "id:3", SKU: "X", Quantity: 4, UnitPrice: decimal.NewFromInt(1)},
			{Key: "id:4", SKU: "C", Quantity: 1, UnitPrice: decimal.NewFromInt(7)},
		})

		assert.Len(t, diff.Added, 1)
		assert.Len(t, diff.Updated, 1)
		require.Len(t, diff.Removed, 1)
		assert.Equal(t, "id:2", diff.Removed[0].LineKey)
		assert.Equal(t, firstID, o.Items[0].ID, "matched lines keep their id")
		assert.Equal(t, int64(5), o.Items[0].Quantity)
	})

	t.Run("unchanged set yields empty diff", func(t *testing.T) {
		diff := o.ReconcileItems([]LineItemInput{
			{Key: "id:1", SKU: "A", Quantity: 5, UnitPrice: decimal.NewFromInt(10), ProductID: &productA},
			{Key: "id:3", SKU: "X", Quantity: 4, UnitPrice: decimal.NewFromInt(1)},
			{Key: "id:4", SKU: "C", Quantity: 1, UnitPrice: decimal.NewFromInt(7)},
		})
		assert.True(t, diff.IsEmpty())
	})

	t.Run("duplicate keys merge quantities", func(t *testing.T) {
		o := createTestOrder(t)
		o.ReconcileItems([]LineItemInput{
			{Key: "sku:a|", SKU: "A", Quantity: 1, ProductID: &productA},
			{Key: "sku:a|", SKU: "A", Quantity: 2, ProductID: &productA},
		})
		require.Len(t, o.Items, 1)
		assert.Equal(t, int64(3), o.Items[0].Quantity)
	})
}

func TestOrder_DesiredReservation(t *testing.T) {
	productA := uuid.New()
	o := createTestOrder(t)
	o.ReconcileItems([]LineItemInput{
		{Key: "id:1", Quantity: 2, ProductID: &productA},
		{Key: "id:2", Quantity: 1, ProductID: &productA},
		{Key: "id:3", Quantity: 9},
	})

	assert.Equal(t, map[uuid.UUID]int64{productA: 3}, o.DesiredReservation())

	require.NoError(t, o.Cancel("", shared.Now()))
	assert.Empty(t, o.DesiredReservation())
}

func TestActor(t *testing.T) {
	assert.True(t, Actor{ID: "u1", Role: RoleOwner}.CanHardDelete())
	assert.False(t, Actor{ID: "u1", Role: RoleAdmin}.CanHardDelete())
	assert.ErrorIs(t, Actor{}.Validate(), shared.ErrUnauthorized)
}
