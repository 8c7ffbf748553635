package integration

import (
	"testing"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShop(t *testing.T) {
	t.Run("app shop", func(t *testing.T) {
		shop, err := NewShop(" Store.MyShopify.com", IntegrationTypeApp, "")
		require.NoError(t, err)
		assert.Equal(t, "store.myshopify.com", shop.Domain)
		assert.True(t, shop.IsActive)
	})

	t.Run("custom shop requires secret", func(t *testing.T) {
		_, err := NewShop("store", IntegrationTypeCustom, "")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		shop, err := NewShop("store", IntegrationTypeCustom, "shpss_123")
		require.NoError(t, err)
		assert.Equal(t, "shpss_123", shop.WebhookSecret)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := NewShop("store", IntegrationType("PARTNER"), "")
		assert.Error(t, err)
	})
}

func TestNewProductMapping(t *testing.T) {
	local := uuid.New()

	m, err := NewProductMapping("Store", "632910392", "", local)
	require.NoError(t, err)
	assert.Equal(t, "store", m.ShopDomain)
	assert.True(t, m.IsActive)

	m.Deactivate()
	assert.False(t, m.IsActive)

	_, err = NewProductMapping("store", "", "", local)
	assert.Error(t, err)
	_, err = NewProductMapping("store", "1", "", uuid.Nil)
	assert.Error(t, err)
}
