package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsalesync "github.com/erp/posbridge/internal/application/salesync"
	"github.com/erp/posbridge/internal/domain/salesync"
	"github.com/erp/posbridge/internal/interfaces/http/dto"
)

// MaxWebhookBodySize caps the POS notification payload
const MaxWebhookBodySize int64 = 64 * 1024

// ReceiptAcceptor verifies, filters and enqueues a raw webhook body
type ReceiptAcceptor interface {
	Accept(ctx context.Context, body []byte, signature string) (appsalesync.AcceptResult, error)
}

// WebhookHistory lists recent webhook outcomes, newest first
type WebhookHistory interface {
	List() []salesync.WebhookOutcome
}

// POSWebhookHandler receives POS sale notifications
type POSWebhookHandler struct {
	BaseHandler
	acceptor ReceiptAcceptor
	history  WebhookHistory
	secret   string
	logger   *zap.Logger
}

// NewPOSWebhookHandler creates the handler. secret guards the diagnostics
// endpoint; it is the catalog sync secret, not the webhook signing secret.
func NewPOSWebhookHandler(acceptor ReceiptAcceptor, history WebhookHistory, secret string, logger *zap.Logger) *POSWebhookHandler {
	return &POSWebhookHandler{
		acceptor: acceptor,
		history:  history,
		secret:   secret,
		logger:   logger,
	}
}

// Receive godoc
// @ID           receivePOSWebhook
// @Summary      Receive a POS sale notification
// @Description  Verifies the X-Signature HMAC, filters the event and hands accepted receipts to the background executor. Ignored events still answer 200.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Signature header string false "hex HMAC-SHA256 of the raw body"
// @Success      200 {object} APIResponse[dto.AcceptedData]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /webhooks/pos [post]
func (h *POSWebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxWebhookBodySize+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.ErrorWithCode(c, dto.ErrCodeRequestTooLarge, "webhook payload too large")
			return
		}
		h.BadRequest(c, dto.ErrCodeBadRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > MaxWebhookBodySize {
		h.ErrorWithCode(c, dto.ErrCodeRequestTooLarge, "webhook payload too large")
		return
	}

	result, err := h.acceptor.Accept(c.Request.Context(), body, c.GetHeader(salesync.SignatureHeader))
	switch {
	case err == nil:
	case errors.Is(err, salesync.ErrMissingSignature), errors.Is(err, salesync.ErrInvalidSignature):
		h.logger.Warn("POS webhook signature rejected", zap.Error(err), zap.String("client_ip", c.ClientIP()))
		h.BadRequest(c, dto.ErrCodeSignatureInvalid, err.Error())
		return
	case errors.Is(err, salesync.ErrMalformedPayload):
		h.BadRequest(c, dto.ErrCodeInvalidJSON, err.Error())
		return
	case errors.Is(err, appsalesync.ErrTaskRejected):
		h.logger.Error("POS webhook could not be queued", zap.String("receipt_id", result.ReceiptID), zap.Error(err))
		h.ServiceUnavailable(c, "receipt could not be queued, retry later")
		return
	default:
		h.logger.Error("POS webhook failed", zap.Error(err))
		h.InternalError(c, "unexpected error")
		return
	}

	if result.State == salesync.StateIgnored {
		h.Success(c, dto.IgnoredData{Ignored: true, ReceiptID: result.ReceiptID, Reason: result.Reason})
		return
	}
	h.Success(c, dto.AcceptedData{Accepted: true, ReceiptID: result.ReceiptID})
}

// Recent godoc
// @ID           listRecentPOSWebhooks
// @Summary      List recent POS webhook outcomes
// @Tags         webhooks
// @Produce      json
// @Param        secret query string true "Shared sync secret"
// @Success      200 {object} APIResponse[[]salesync.WebhookOutcome]
// @Failure      401 {object} ErrorResponse
// @Router       /webhooks/pos/recent [get]
func (h *POSWebhookHandler) Recent(c *gin.Context) {
	if !h.checkSecret(c, h.secret) {
		return
	}
	h.Success(c, h.history.List())
}
