package router

import (
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/erp/posbridge/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers of the bridge
type Handlers struct {
	System      *handler.SystemHandler
	CatalogSync *handler.CatalogSyncHandler
	POSWebhook  *handler.POSWebhookHandler
}

// Mount registers every bridge route on engine. webhookGuards run in front of
// the POS webhook receiver only (rate limit, body limit).
//
//	GET  /health
//	GET  /system/info
//	POST /api/v1/catalog/sync?secret=
//	GET  /api/v1/catalog/sync?secret=
//	POST /api/v1/webhooks/pos
//	GET  /api/v1/webhooks/pos/recent?secret=
func Mount(engine *gin.Engine, h Handlers, webhookGuards ...gin.HandlerFunc) *Router {
	engine.GET("/health", h.System.Health)
	engine.GET("/system/info", h.System.GetSystemInfo)

	catalog := NewGroup("/catalog").
		POST("/sync", h.CatalogSync.Sync).
		GET("/sync", h.CatalogSync.Sync)

	receive := append(slices.Clone(webhookGuards), h.POSWebhook.Receive)
	webhooks := NewGroup("/webhooks")
	webhooks.Child("/pos").
		POST("", receive...).
		GET("/recent", h.POSWebhook.Recent)

	return NewRouter(engine).Mount(catalog, webhooks)
}
