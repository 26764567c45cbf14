package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/domain/catalogsync"
	"github.com/erp/posbridge/internal/interfaces/http/dto"
	"github.com/erp/posbridge/internal/interfaces/http/middleware"
)

// CatalogRunner runs one catalog reconciliation
type CatalogRunner interface {
	Run(ctx context.Context) (*catalogsync.RunSummary, error)
}

// CatalogSyncHandler exposes the manual catalog sync trigger
type CatalogSyncHandler struct {
	BaseHandler
	runner  CatalogRunner
	secret  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCatalogSyncHandler creates the handler. timeout bounds one run; zero means
// the run is bounded only by the request.
func NewCatalogSyncHandler(runner CatalogRunner, secret string, timeout time.Duration, logger *zap.Logger) *CatalogSyncHandler {
	return &CatalogSyncHandler{
		runner:  runner,
		secret:  secret,
		timeout: timeout,
		logger:  logger,
	}
}

// Sync godoc
// @ID           runCatalogSync
// @Summary      Reconcile the CRM catalog into the POS
// @Description  Runs one reconciliation and returns its summary. Per-unit failures are listed in errors; a fatal abort answers 500 with the partial summary.
// @Tags         catalog
// @Produce      json
// @Param        secret query string true "Shared sync secret"
// @Success      200 {object} APIResponse[catalogsync.RunSummary]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} APIResponse[catalogsync.RunSummary]
// @Router       /catalog/sync [post]
func (h *CatalogSyncHandler) Sync(c *gin.Context) {
	if !h.checkSecret(c, h.secret) {
		h.logger.Warn("Catalog sync rejected", zap.String("client_ip", c.ClientIP()))
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	summary, err := h.runner.Run(ctx)
	if err == nil {
		h.Success(c, summary)
		return
	}

	h.logger.Error("Catalog sync aborted", zap.Error(err))
	resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeSyncAborted, err.Error(), middleware.GetRequestID(c))
	resp.Data = summary
	c.JSON(http.StatusInternalServerError, resp)
}
