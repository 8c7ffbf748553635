package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	webhookapp "github.com/erp/orderhook/internal/application/webhook"
	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWebhookReceiver struct {
	mock.Mock
}

func (m *MockWebhookReceiver) Receive(ctx context.Context, req webhookapp.ReceiveRequest) (*webhookapp.ReceiveResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhookapp.ReceiveResult), args.Error(1)
}

const testWebhookBody = `{"id":820982911946154508,"order_number":1001,"line_items":[]}`

func newWebhookRouter(receiver WebhookReceiver, limit int64) *gin.Engine {
	h := NewWebhookHandler(receiver, limit)
	router := gin.New()
	router.POST("/api/v1/webhooks/orders", h.ReceiveOrderWebhook)
	return router
}

func webhookRequest(body string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func deliveryHeaders() map[string]string {
	return map[string]string{
		HeaderHMAC:      "c2lnbmF0dXJl",
		HeaderTopic:     "orders/create",
		HeaderShop:      "acme.myshopify.com",
		HeaderWebhookID: "evt-1",
	}
}

func TestWebhookHandler_Accepted(t *testing.T) {
	receiver := new(MockWebhookReceiver)
	eventID := uuid.New()
	receiver.On("Receive", mock.Anything, mock.MatchedBy(func(r webhookapp.ReceiveRequest) bool {
		return r.ShopDomain == "acme.myshopify.com" &&
			r.Topic == "orders/create" &&
			r.PlatformEventID == "evt-1" &&
			r.Signature == "c2lnbmF0dXJl" &&
			string(r.Body) == testWebhookBody
	})).Return(&webhookapp.ReceiveResult{
		Status:  webhookapp.ReceiveStatusAccepted,
		EventID: &eventID,
		Topic:   "orders/create",
	}, nil)

	w := httptest.NewRecorder()
	newWebhookRouter(receiver, 0).ServeHTTP(w, webhookRequest(testWebhookBody, deliveryHeaders()))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "accepted", data["status"])
	assert.Equal(t, eventID.String(), data["event_id"])
	receiver.AssertExpectations(t)
}

func TestWebhookHandler_DuplicateIsOK(t *testing.T) {
	receiver := new(MockWebhookReceiver)
	receiver.On("Receive", mock.Anything, mock.Anything).Return(&webhookapp.ReceiveResult{
		Status: webhookapp.ReceiveStatusDuplicate,
		Topic:  "orders/create",
	}, nil)

	w := httptest.NewRecorder()
	newWebhookRouter(receiver, 0).ServeHTTP(w, webhookRequest(testWebhookBody, deliveryHeaders()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "duplicate", decodeResponse(t, w).Data.(map[string]any)["status"])
}

func TestWebhookHandler_SignatureFailure(t *testing.T) {
	receiver := new(MockWebhookReceiver)
	receiver.On("Receive", mock.Anything, mock.Anything).Return(nil, shared.ErrAuthenticationFailure)

	w := httptest.NewRecorder()
	newWebhookRouter(receiver, 0).ServeHTTP(w, webhookRequest(testWebhookBody, deliveryHeaders()))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeSignatureInvalid, decodeResponse(t, w).Error.Code)
}

func TestWebhookHandler_MissingSignatureReachesVerifier(t *testing.T) {
	receiver := new(MockWebhookReceiver)
	receiver.On("Receive", mock.Anything, mock.MatchedBy(func(r webhookapp.ReceiveRequest) bool {
		return r.Signature == ""
	})).Return(nil, shared.ErrAuthenticationFailure)

	headers := deliveryHeaders()
	delete(headers, HeaderHMAC)
	w := httptest.NewRecorder()
	newWebhookRouter(receiver, 0).ServeHTTP(w, webhookRequest(testWebhookBody, headers))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	receiver.AssertExpectations(t)
}

func TestWebhookHandler_MissingHeaders(t *testing.T) {
	receiver := new(MockWebhookReceiver)

	w := httptest.NewRecorder()
	newWebhookRouter(receiver, 0).ServeHTTP(w, webhookRequest(testWebhookBody, map[string]string{
		HeaderHMAC: "c2lnbmF0dXJl",
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Len(t, resp.Error.Details, 3)
	receiver.AssertNotCalled(t, "Receive", mock.Anything, mock.Anything)
}

func TestWebhookHandler_PayloadTooLarge(t *testing.T) {
	receiver := new(MockWebhookReceiver)

	w := httptest.NewRecorder()
	newWebhookRouter(receiver, 16).ServeHTTP(w, webhookRequest(testWebhookBody, deliveryHeaders()))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, dto.ErrCodePayloadTooLarge, decodeResponse(t, w).Error.Code)
	receiver.AssertNotCalled(t, "Receive", mock.Anything, mock.Anything)
}

func TestWebhookHandler_StoreFailure(t *testing.T) {
	receiver := new(MockWebhookReceiver)
	receiver.On("Receive", mock.Anything, mock.Anything).
		Return(nil, errors.New("failed to record webhook event: connection reset"))

	w := httptest.NewRecorder()
	newWebhookRouter(receiver, 0).ServeHTTP(w, webhookRequest(testWebhookBody, deliveryHeaders()))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeInternal, decodeResponse(t, w).Error.Code)
}
