package webhook

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/orderhook/internal/domain/integration"
	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockShopRepository is a mock implementation of integration.ShopRepository
type MockShopRepository struct {
	mock.Mock
}

func (m *MockShopRepository) FindByDomain(ctx context.Context, domain string) (*integration.Shop, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Shop), args.Error(1)
}

func (m *MockShopRepository) Save(ctx context.Context, shop *integration.Shop) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

var testBody = []byte(`{"id":820982911946154508,"order_number":1001}`)

func customShop(t *testing.T, secret string) *integration.Shop {
	t.Helper()
	shop, err := integration.NewShop("custom.myshopify.com", integration.IntegrationTypeCustom, secret)
	require.NoError(t, err)
	return shop
}

func TestSign(t *testing.T) {
	// Reference value computed with: printf '%s' body | openssl dgst -sha256 -hmac secret -binary | base64
	assert.Equal(t, "3EaYNVf+oSe0OvchRn65s/3iM4/j4U9RlSqoR4wT01U=", Sign("secret", []byte("body")))
	assert.NotEqual(t, Sign("secret", testBody), Sign("other", testBody))
}

func TestVerify_AppSecret(t *testing.T) {
	shops := new(MockShopRepository)
	v := NewSignatureVerifier([]string{"app-old", "app-new"}, shops, nil)

	res, err := v.Verify(context.Background(), "any.myshopify.com", testBody, Sign("app-new", testBody))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, SecretSourceApp, res.Source)
	shops.AssertNotCalled(t, "FindByDomain", mock.Anything, mock.Anything)
}

func TestVerify_CustomSecret(t *testing.T) {
	shops := new(MockShopRepository)
	shops.On("FindByDomain", mock.Anything, "custom.myshopify.com").Return(customShop(t, "shop-secret"), nil)
	v := NewSignatureVerifier([]string{"app-secret"}, shops, nil)

	res, err := v.Verify(context.Background(), "Custom.MyShopify.com", testBody, Sign("shop-secret", testBody))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, SecretSourceCustom, res.Source)
}

func TestVerify_AppShopSignedWithCustomSecret(t *testing.T) {
	shop := customShop(t, "migrated-secret")
	shop.IntegrationType = integration.IntegrationTypeApp
	shops := new(MockShopRepository)
	shops.On("FindByDomain", mock.Anything, "custom.myshopify.com").Return(shop, nil)
	v := NewSignatureVerifier([]string{"app-secret"}, shops, nil)

	res, err := v.Verify(context.Background(), "custom.myshopify.com", testBody, Sign("migrated-secret", testBody))
	require.NoError(t, err)
	assert.True(t, res.Valid, "the stored integration type does not restrict which secret verifies")
}

func TestVerify_Invalid(t *testing.T) {
	inactive := customShop(t, "shop-secret")
	inactive.IsActive = false

	tests := []struct {
		name      string
		shop      *integration.Shop
		findErr   error
		signature string
	}{
		{name: "empty signature", signature: ""},
		{name: "not base64", signature: "%%%"},
		{name: "wrong length", signature: "c2hvcnQ="},
		{name: "wrong secret", shop: customShop(t, "shop-secret"), signature: Sign("guess", testBody)},
		{name: "unknown shop", findErr: shared.ErrNotFound, signature: Sign("guess", testBody)},
		{name: "inactive shop", shop: inactive, signature: Sign("shop-secret", testBody)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shops := new(MockShopRepository)
			if tt.shop != nil {
				shops.On("FindByDomain", mock.Anything, mock.Anything).Return(tt.shop, nil)
			} else {
				shops.On("FindByDomain", mock.Anything, mock.Anything).Return(nil, tt.findErr)
			}
			v := NewSignatureVerifier([]string{"app-secret"}, shops, nil)

			res, err := v.Verify(context.Background(), "custom.myshopify.com", testBody, tt.signature)
			require.NoError(t, err)
			assert.False(t, res.Valid)
			assert.Equal(t, SecretSourceNone, res.Source)
		})
	}
}

func TestVerify_TamperedBody(t *testing.T) {
	v := NewSignatureVerifier([]string{"app-secret"}, nil, nil)
	sig := Sign("app-secret", testBody)

	tampered := append([]byte{}, testBody...)
	tampered[len(tampered)-2] = '2'
	res, err := v.Verify(context.Background(), "any.myshopify.com", tampered, sig)
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestVerify_ShopLookupError(t *testing.T) {
	shops := new(MockShopRepository)
	shops.On("FindByDomain", mock.Anything, "custom.myshopify.com").Return(nil, errors.New("connection refused"))
	v := NewSignatureVerifier(nil, shops, nil)

	_, err := v.Verify(context.Background(), "custom.myshopify.com", testBody, Sign("x", testBody))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
