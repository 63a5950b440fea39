package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/custodia-wallet-engine/internal/domain/transaction"
	"github.com/custodia-wallet-engine/internal/gateway"
	"github.com/custodia-wallet-engine/internal/service"
	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the processor's HMAC signature over the raw body
const SignatureHeader = "x-paystack-signature"

// WebhookHandler receives payment processor webhook deliveries
type WebhookHandler struct {
	settlementService service.SettlementService
	gateway           gateway.Client
	logger            *slog.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(logger *slog.Logger, settlementService service.SettlementService, gatewayClient gateway.Client) *WebhookHandler {
	return &WebhookHandler{
		settlementService: settlementService,
		gateway:           gatewayClient,
		logger:            logger,
	}
}

// Receive validates and applies a webhook delivery. The signature is checked
// over the exact raw body bytes before any parsing. A mismatched settlement
// returns 200: the failure is permanent and a processor retry cannot fix it.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("Failed to read webhook body", "error", err)
		RespondBadRequest(c, "Could not read request body")
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if !h.gateway.VerifySignature(body, signature) {
		h.logger.Error("Webhook signature verification failed", "client_ip", c.ClientIP())
		RespondUnauthorized(c, "Invalid webhook signature")
		return
	}

	var event service.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("Failed to parse webhook payload", "error", err)
		RespondBadRequest(c, "Invalid webhook payload")
		return
	}

	err = h.settlementService.SettleByEvent(c.Request.Context(), &event)
	if err != nil {
		var mismatch *service.ErrAmountMismatch
		switch {
		case errors.Is(err, transaction.ErrTransactionNotFound{}):
			RespondNotFound(c, "Unknown payment reference")
		case errors.As(err, &mismatch):
			RespondOK(c, gin.H{"status": "rejected", "reason": "amount mismatch"})
		default:
			h.logger.Error("Webhook settlement failed", "reference", event.Data.Reference, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, gin.H{"status": "processed"})
}
