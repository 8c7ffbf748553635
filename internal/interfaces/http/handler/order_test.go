package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	orderapp "github.com/erp/orderhook/internal/application/order"
	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/infrastructure/auth"
	"github.com/erp/orderhook/internal/interfaces/http/dto"
	"github.com/erp/orderhook/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderLifecycle struct {
	mock.Mock
}

func (m *MockOrderLifecycle) Get(ctx context.Context, id uuid.UUID) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.OrderResponse), args.Error(1)
}

func (m *MockOrderLifecycle) List(ctx context.Context, shopDomain string, filter shared.Filter) ([]orderapp.OrderListItem, int64, error) {
	args := m.Called(ctx, shopDomain, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]orderapp.OrderListItem), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderLifecycle) lifecycle(method string, ctx context.Context, id uuid.UUID, actor order.Actor) (*orderapp.OrderResponse, error) {
	args := m.MethodCalled(method, ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.OrderResponse), args.Error(1)
}

func (m *MockOrderLifecycle) SoftDelete(ctx context.Context, id uuid.UUID, actor order.Actor) (*orderapp.OrderResponse, error) {
	return m.lifecycle("SoftDelete", ctx, id, actor)
}

func (m *MockOrderLifecycle) Restore(ctx context.Context, id uuid.UUID, actor order.Actor) (*orderapp.OrderResponse, error) {
	return m.lifecycle("Restore", ctx, id, actor)
}

func (m *MockOrderLifecycle) MarkTest(ctx context.Context, id uuid.UUID, actor order.Actor) (*orderapp.OrderResponse, error) {
	return m.lifecycle("MarkTest", ctx, id, actor)
}

func (m *MockOrderLifecycle) HardDelete(ctx context.Context, id uuid.UUID, actor order.Actor) (*orderapp.HardDeleteResult, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.HardDeleteResult), args.Error(1)
}

// withActor stands in for the JWT middleware
func withActor(actor order.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: actor.ID},
			Role:             actor.Role,
		})
		c.Next()
	}
}

var (
	testOwner    = order.Actor{ID: "user-owner", Role: order.RoleOwner}
	testOperator = order.Actor{ID: "user-operator", Role: order.RoleOperator}
)

func newOrderRouter(lifecycle OrderLifecycle, actor *order.Actor) *gin.Engine {
	h := NewOrderHandler(lifecycle)
	router := gin.New()
	group := router.Group("/api/v1/orders")
	if actor != nil {
		group.Use(withActor(*actor))
	}
	group.GET("", h.ListOrders)
	group.GET("/:id", h.GetOrder)
	group.POST("/:id/soft-delete", h.SoftDeleteOrder)
	group.POST("/:id/restore", h.RestoreOrder)
	group.POST("/:id/mark-test", h.MarkTestOrder)
	group.DELETE("/:id", h.HardDeleteOrder)
	return router
}

func serve(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestOrderHandler_ListOrders(t *testing.T) {
	lifecycle := new(MockOrderLifecycle)
	items := []orderapp.OrderListItem{
		{ID: uuid.New(), OrderNumber: "1001", State: "active", TotalPrice: decimal.RequireFromString("19.90"), ItemCount: 2},
	}
	lifecycle.On("List", mock.Anything, "acme.myshopify.com", mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 2 && f.PageSize == 10 &&
			f.Filters["status"] == "CANCELLED" &&
			f.Filters["include_deleted"] == true &&
			f.Filters["is_test"] == false
	})).Return(items, int64(11), nil)

	router := newOrderRouter(lifecycle, &testOperator)
	w := serve(router, http.MethodGet,
		"/api/v1/orders?shop_domain=acme.myshopify.com&status=CANCELLED&include_deleted=true&is_test=false&page=2&page_size=10")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(11), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)
	assert.Len(t, resp.Data, 1)
	lifecycle.AssertExpectations(t)
}

func TestOrderHandler_ListOrdersOmitsUnsetFlags(t *testing.T) {
	lifecycle := new(MockOrderLifecycle)
	lifecycle.On("List", mock.Anything, "acme.myshopify.com", mock.MatchedBy(func(f shared.Filter) bool {
		_, hasDeleted := f.Filters["include_deleted"]
		_, hasTest := f.Filters["is_test"]
		return !hasDeleted && !hasTest && f.Page == 1 && f.PageSize == dto.DefaultPageSize
	})).Return([]orderapp.OrderListItem{}, int64(0), nil)

	w := serve(newOrderRouter(lifecycle, &testOperator), http.MethodGet, "/api/v1/orders?shop_domain=acme.myshopify.com")

	assert.Equal(t, http.StatusOK, w.Code)
	lifecycle.AssertExpectations(t)
}

func TestOrderHandler_ListOrdersRejectsBadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing shop", "status=ACTIVE"},
		{"malformed shop", "shop_domain=acme"},
		{"unknown status", "shop_domain=acme.myshopify.com&status=deleted"},
		{"page size too large", "shop_domain=acme.myshopify.com&page_size=500"},
		{"bad boolean", "shop_domain=acme.myshopify.com&include_deleted=maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lifecycle := new(MockOrderLifecycle)
			w := serve(newOrderRouter(lifecycle, &testOperator), http.MethodGet, "/api/v1/orders?"+tt.query)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			lifecycle.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestOrderHandler_GetOrder(t *testing.T) {
	id := uuid.New()
	lifecycle := new(MockOrderLifecycle)
	lifecycle.On("Get", mock.Anything, id).Return(&orderapp.OrderResponse{ID: id, OrderNumber: "1001", State: "active"}, nil)
	router := newOrderRouter(lifecycle, &testOperator)

	w := serve(router, http.MethodGet, "/api/v1/orders/"+id.String())
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "1001", data["order_number"])

	missing := uuid.New()
	lifecycle.On("Get", mock.Anything, missing).Return(nil, shared.ErrNotFound)
	w = serve(router, http.MethodGet, "/api/v1/orders/"+missing.String())
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/orders/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_LifecycleOperations(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		method string
		path   string
		call   string
	}{
		{"soft delete", http.MethodPost, "/soft-delete", "SoftDelete"},
		{"restore", http.MethodPost, "/restore", "Restore"},
		{"mark test", http.MethodPost, "/mark-test", "MarkTest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uuid.New()
			lifecycle := new(MockOrderLifecycle)
			lifecycle.On(tt.call, mock.Anything, id, testOperator).
				Return(&orderapp.OrderResponse{ID: id, State: "soft_deleted", DeletedAt: &now}, nil)

			w := serve(newOrderRouter(lifecycle, &testOperator), tt.method, "/api/v1/orders/"+id.String()+tt.path)

			assert.Equal(t, http.StatusOK, w.Code)
			lifecycle.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_SoftDeleteInvalidTransition(t *testing.T) {
	id := uuid.New()
	lifecycle := new(MockOrderLifecycle)
	lifecycle.On("SoftDelete", mock.Anything, id, testOperator).
		Return(nil, shared.NewDomainError("INVALID_STATE_TRANSITION", "Order is already soft-deleted"))

	w := serve(newOrderRouter(lifecycle, &testOperator), http.MethodPost, "/api/v1/orders/"+id.String()+"/soft-delete")

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInvalidStateTransition, resp.Error.Code)
	assert.Equal(t, "Order is already soft-deleted", resp.Error.Message)
}

func TestOrderHandler_LifecycleRequiresActor(t *testing.T) {
	lifecycle := new(MockOrderLifecycle)
	router := newOrderRouter(lifecycle, nil)

	w := serve(router, http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/restore")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(router, http.MethodDelete, "/api/v1/orders/"+uuid.NewString())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(router, http.MethodPost, "/api/v1/orders/bad-id/restore")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	lifecycle.AssertExpectations(t)
}

func TestOrderHandler_HardDelete(t *testing.T) {
	id := uuid.New()
	lifecycle := new(MockOrderLifecycle)
	lifecycle.On("HardDelete", mock.Anything, id, testOwner).Return(&orderapp.HardDeleteResult{
		OrderID:     id,
		ShopDomain:  "acme.myshopify.com",
		OrderNumber: "1001",
		DeletedBy:   testOwner.ID,
		DeletedAt:   time.Now(),
	}, nil)
	lifecycle.On("HardDelete", mock.Anything, id, testOperator).Return(nil, orderapp.ErrHardDeleteForbidden)

	w := serve(newOrderRouter(lifecycle, &testOwner), http.MethodDelete, "/api/v1/orders/"+id.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testOwner.ID, decodeResponse(t, w).Data.(map[string]any)["deleted_by"])

	w = serve(newOrderRouter(lifecycle, &testOperator), http.MethodDelete, "/api/v1/orders/"+id.String())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, decodeResponse(t, w).Error.Code)
	lifecycle.AssertExpectations(t)
}
