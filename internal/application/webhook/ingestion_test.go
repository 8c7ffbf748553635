package webhook

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/erp/orderhook/internal/infrastructure/cache"
	"github.com/erp/orderhook/internal/infrastructure/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const appSecret = "app-secret"

type ingestionFixture struct {
	*testLedger
	service *IngestionService
	cache   *cache.InMemoryDeliveryCache
	metrics *telemetry.Metrics
}

func setupIngestion(t *testing.T, syncApply bool) *ingestionFixture {
	t.Helper()
	l := setupLedger(t)
	c := cache.NewInMemoryDeliveryCache()
	t.Cleanup(func() { _ = c.Close() })
	metrics := telemetry.NewMetrics()

	processor := newTestProcessor(l, l.applier, metrics)
	svc := NewIngestionService(IngestionServiceConfig{
		Verifier:       NewSignatureVerifier([]string{appSecret}, nil, zap.NewNop()),
		Events:         l.events,
		Cache:          c,
		Processor:      processor,
		MaxPayloadSize: 4096,
		SyncApply:      syncApply,
		Metrics:        metrics,
		Logger:         zap.NewNop(),
	})
	return &ingestionFixture{testLedger: l, service: svc, cache: c, metrics: metrics}
}

func signedRequest(topic, eventID, body string) ReceiveRequest {
	return ReceiveRequest{
		ShopDomain:      testShop,
		Topic:           topic,
		PlatformEventID: eventID,
		Signature:       Sign(appSecret, []byte(body)),
		Body:            []byte(body),
	}
}

func (f *ingestionFixture) eventCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Table("webhook_events").Count(&n).Error)
	return n
}

func TestReceive_RecordsPendingEvent(t *testing.T) {
	f := setupIngestion(t, false)
	body := orderJSON(1001, t0, "")

	res, err := f.service.Receive(context.Background(), signedRequest("orders/create", "evt-1", body))
	require.NoError(t, err)
	assert.Equal(t, ReceiveStatusAccepted, res.Status)
	assert.Equal(t, "order/create", res.Topic)
	require.NotNil(t, res.EventID)
	assert.Empty(t, res.Processing)

	stored := f.reload(t, *res.EventID)
	assert.Equal(t, webhook.StatusPending, stored.Status)
	assert.Equal(t, "evt-1", stored.PlatformEventID)
	assert.JSONEq(t, body, string(stored.Payload))
}

func TestReceive_DuplicateLeavesStoredEventAlone(t *testing.T) {
	f := setupIngestion(t, true)
	ctx := context.Background()
	req := signedRequest("orders/create", "evt-1", orderJSON(1001, t0, ""))

	first, err := f.service.Receive(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ProcessResultProcessed, first.Processing)

	second, err := f.service.Receive(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ReceiveStatusDuplicate, second.Status)
	assert.Nil(t, second.EventID)

	assert.Equal(t, int64(1), f.eventCount(t))
	assert.Equal(t, webhook.StatusProcessed, f.reload(t, *first.EventID).Status)

	expected := `
# HELP orderhook_webhook_received_total Webhook deliveries received, by topic and result.
# TYPE orderhook_webhook_received_total counter
orderhook_webhook_received_total{result="accepted",topic="order/create"} 1
orderhook_webhook_received_total{result="duplicate",topic="order/create"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected),
		"orderhook_webhook_received_total"))
}

func TestReceive_DuplicateDetectedByStoreWhenCacheMisses(t *testing.T) {
	f := setupIngestion(t, false)
	ctx := context.Background()
	req := signedRequest("orders/create", "evt-1", orderJSON(1001, t0, ""))

	_, err := f.service.Receive(ctx, req)
	require.NoError(t, err)

	// a second replica with a cold cache
	cold := NewIngestionService(IngestionServiceConfig{
		Verifier: NewSignatureVerifier([]string{appSecret}, nil, nil),
		Events:   f.events,
	})
	res, err := cold.Receive(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ReceiveStatusDuplicate, res.Status)
	assert.Equal(t, int64(1), f.eventCount(t))
}

func TestReceive_InvalidSignatureNotStored(t *testing.T) {
	f := setupIngestion(t, false)
	req := signedRequest("orders/create", "evt-1", orderJSON(1001, t0, ""))
	req.Signature = Sign("wrong", req.Body)

	_, err := f.service.Receive(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrAuthenticationFailure)
	assert.Zero(t, f.eventCount(t))
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(`
# HELP orderhook_webhook_signature_failures_total Deliveries rejected because no secret verified the signature.
# TYPE orderhook_webhook_signature_failures_total counter
orderhook_webhook_signature_failures_total 1
`), "orderhook_webhook_signature_failures_total"))
}

func TestReceive_Rejections(t *testing.T) {
	f := setupIngestion(t, false)
	ctx := context.Background()

	big := signedRequest("orders/create", "evt-big", `{"order_number": 1, "note": "`+string(make([]byte, 5000))+`"}`)
	_, err := f.service.Receive(ctx, big)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	missingID := signedRequest("orders/create", "", orderJSON(1001, t0, ""))
	_, err = f.service.Receive(ctx, missingID)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	missingTopic := signedRequest("", "evt-2", orderJSON(1001, t0, ""))
	_, err = f.service.Receive(ctx, missingTopic)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	assert.Zero(t, f.eventCount(t))
}

func TestReceive_SyncApplyFailureStillAcknowledged(t *testing.T) {
	f := setupIngestion(t, true)

	res, err := f.service.Receive(context.Background(), signedRequest("orders/create", "evt-1", `{"id": 1}`))
	require.NoError(t, err)
	assert.Equal(t, ReceiveStatusAccepted, res.Status)
	assert.Equal(t, ProcessResultExhausted, res.Processing)

	stored := f.reload(t, *res.EventID)
	assert.Equal(t, webhook.StatusExhausted, stored.Status)
	assert.Equal(t, webhook.ErrorKindPermanent, stored.LastErrorKind)
}

func TestReceive_UnknownTopicRecorded(t *testing.T) {
	f := setupIngestion(t, false)

	res, err := f.service.Receive(context.Background(), signedRequest("customers/create", "evt-1", `{"id": 1}`))
	require.NoError(t, err)
	assert.Equal(t, ReceiveStatusAccepted, res.Status)
	assert.Equal(t, "customers/create", res.Topic)
}

func TestReceive_SyncApplyCreatesOrder(t *testing.T) {
	f := setupIngestion(t, true)
	widget := f.addProduct(t, "WIDGET", 3)
	f.addMapping(t, "P1", widget.ID)

	res, err := f.service.Receive(context.Background(),
		signedRequest("orders/create", "evt-1", orderJSON(1001, t0, "", lineSpec{"P1", "W-1", 1})))
	require.NoError(t, err)
	assert.Equal(t, ProcessResultProcessed, res.Processing)
	assert.Equal(t, int64(2), f.stock(t, widget.ID))
}

func TestReceive_CacheHitShortCircuits(t *testing.T) {
	f := setupIngestion(t, false)
	ctx := context.Background()
	require.NoError(t, f.cache.Remember(ctx, testShop+"/evt-1", time.Hour))

	res, err := f.service.Receive(ctx, signedRequest("orders/create", "evt-1", orderJSON(1001, t0, "")))
	require.NoError(t, err)
	assert.Equal(t, ReceiveStatusDuplicate, res.Status)
	assert.Zero(t, f.eventCount(t), "a cached delivery is not written again")
}
