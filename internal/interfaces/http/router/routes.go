package router

import (
	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/interfaces/http/handler"
	"github.com/erp/orderhook/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers are the HTTP handlers the versioned API is built from
type Handlers struct {
	Webhook *handler.WebhookHandler
	Queue   *handler.WebhookQueueHandler
	Orders  *handler.OrderHandler
	Auth    *handler.AuthHandler
}

// APIConfig holds what the route table needs besides handlers
type APIConfig struct {
	JWT  middleware.JWTMiddlewareConfig
	Role middleware.RoleConfig
	// MaxWebhookBody caps delivery bodies before they reach the handler
	MaxWebhookBody int64
	// OnOversizedWebhook is told about deliveries refused by MaxWebhookBody
	OnOversizedWebhook func(c *gin.Context, declared int64)
}

// NewAPI registers the webhook, queue, order and auth routes on engine.
// Webhook deliveries are authenticated by signature and skip the JWT check
// through cfg.JWT's skip prefixes; everything else requires an operator token.
func NewAPI(engine *gin.Engine, h Handlers, cfg APIConfig) *Router {
	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(cfg.JWT))
	r.Use(middleware.TracingAttributeInjector())

	elevated := middleware.RequireRoleWithConfig(cfg.Role, order.RoleOwner, order.RoleAdmin)

	webhookRoutes := NewDomainGroup("webhooks", "/webhooks")
	if cfg.MaxWebhookBody > 0 {
		webhookRoutes.Use(middleware.BodyLimit(cfg.MaxWebhookBody,
			middleware.WithLimitMessage("Webhook payload exceeds the size limit"),
			middleware.OnRejected(cfg.OnOversizedWebhook),
		))
	}
	webhookRoutes.POST("/orders", h.Webhook.ReceiveOrderWebhook)

	systemRoutes := NewDomainGroup("system", "/system")
	queueRoutes := systemRoutes.Group("webhook-queue", "/webhooks")
	queueRoutes.POST("/retry", elevated, h.Queue.RunRetry)
	queueRoutes.GET("/stats", h.Queue.GetStats)
	queueRoutes.GET("/events", h.Queue.ListEvents)
	queueRoutes.GET("/events/:id", h.Queue.GetEvent)
	queueRoutes.POST("/events/:id/requeue", elevated, h.Queue.RequeueEvent)

	orderRoutes := NewDomainGroup("orders", "/orders")
	orderRoutes.GET("", h.Orders.ListOrders)
	orderRoutes.GET("/:id", h.Orders.GetOrder)
	orderRoutes.POST("/:id/soft-delete", h.Orders.SoftDeleteOrder)
	orderRoutes.POST("/:id/restore", h.Orders.RestoreOrder)
	orderRoutes.POST("/:id/mark-test", h.Orders.MarkTestOrder)
	// Owner-only; the lifecycle service enforces the role
	orderRoutes.DELETE("/:id", h.Orders.HardDeleteOrder)

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/revoke", h.Auth.Revoke)

	r.Register(webhookRoutes, systemRoutes, orderRoutes, authRoutes)
	r.Setup()
	return r
}
