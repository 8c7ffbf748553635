package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanReservation(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	t.Run("first reservation", func(t *testing.T) {
		changes := PlanReservation(map[uuid.UUID]int64{a: 2}, nil, MovementTypeRelease)
		require.Len(t, changes, 1)
		assert.Equal(t, ReservationChange{ProductID: a, Delta: -2, Type: MovementTypeReserve}, changes[0])
	})

	t.Run("already applied plan is a no-op", func(t *testing.T) {
		changes := PlanReservation(map[uuid.UUID]int64{a: 2}, map[uuid.UUID]int64{a: -2}, MovementTypeRelease)
		assert.Empty(t, changes)
	})

	t.Run("quantity edits adjust by the difference", func(t *testing.T) {
		changes := PlanReservation(map[uuid.UUID]int64{a: 5}, map[uuid.UUID]int64{a: -2}, MovementTypeRelease)
		require.Len(t, changes, 1)
		assert.Equal(t, int64(-3), changes[0].Delta)
		assert.Equal(t, MovementTypeAdjust, changes[0].Type)

		changes = PlanReservation(map[uuid.UUID]int64{a: 1}, map[uuid.UUID]int64{a: -2}, MovementTypeRelease)
		require.Len(t, changes, 1)
		assert.Equal(t, int64(1), changes[0].Delta)
		assert.Equal(t, MovementTypeAdjust, changes[0].Type)
	})

	t.Run("cancel releases everything held", func(t *testing.T) {
		changes := PlanReservation(map[uuid.UUID]int64{}, map[uuid.UUID]int64{a: -3, b: -1}, MovementTypeRelease)
		require.Len(t, changes, 2)
		total := int64(0)
		for _, c := range changes {
			assert.Equal(t, MovementTypeRelease, c.Type)
			total += c.Delta
		}
		assert.Equal(t, int64(4), total)
	})

	t.Run("released products stay released", func(t *testing.T) {
		changes := PlanReservation(map[uuid.UUID]int64{}, map[uuid.UUID]int64{a: 0}, MovementTypeRelease)
		assert.Empty(t, changes)
	})
}

func TestOutstanding(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	assert.Equal(t, map[uuid.UUID]int64{a: 3}, Outstanding(map[uuid.UUID]int64{a: -3, b: 0}))
}

func TestNewMovement(t *testing.T) {
	_, err := NewMovement("s1", uuid.Nil, nil, MovementTypeReserve, -1, "", "")
	assert.Error(t, err)
	_, err = NewMovement("s1", uuid.New(), nil, MovementType("BOGUS"), -1, "", "")
	assert.Error(t, err)
	_, err = NewMovement("s1", uuid.New(), nil, MovementTypeReserve, 0, "", "")
	assert.Error(t, err)

	m, err := NewMovement("s1", uuid.New(), nil, MovementTypeAdjust, 10, "opening", "")
	require.NoError(t, err)
	assert.Equal(t, int64(10), m.Delta)
}

func TestNewProduct(t *testing.T) {
	p, err := NewProduct("S1.myshopify.com", " sku-a ", "Widget")
	require.NoError(t, err)
	assert.Equal(t, "SKU-A", p.SKU)
	assert.Equal(t, "s1.myshopify.com", p.ShopDomain)
	assert.Equal(t, int64(0), p.Stock)

	_, err = NewProduct("s1", "  ", "x")
	assert.Error(t, err)
}
