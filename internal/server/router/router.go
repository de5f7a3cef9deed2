package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lavilla/almacen/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by the router.
type Handlers struct {
	Inventory *handlers.InventoryHandler
	Auth      *handlers.AuthHandler
	Admin     *handlers.AdminHandler
	Sessions  handlers.SessionResolver

	// Webhook is optional; the WhatsApp routes are mounted only when set.
	Webhook *handlers.WebhookHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
	}

	api := r.Group("/api", handlers.SessionMiddleware(h.Sessions))

	api.GET("/products", h.Inventory.List)
	api.GET("/suppliers", h.Inventory.Suppliers)
	api.GET("/summary", h.Inventory.Summary)

	api.POST("/login", h.Auth.Login)
	api.POST("/logout", h.Auth.Logout)

	api.POST("/products", h.Inventory.Add)
	api.PATCH("/products/at/:index", h.Inventory.EditAt)
	api.DELETE("/products/at/:index", h.Inventory.DeleteAt)
	api.PATCH("/products/:id", h.Inventory.Edit)
	api.DELETE("/products/:id", h.Inventory.Delete)

	admin := api.Group("/admin")
	admin.POST("/import", h.Admin.Import)
	admin.GET("/alerts", h.Admin.AlertHistory)
	admin.POST("/alerts/publish", h.Admin.PublishAlerts)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
