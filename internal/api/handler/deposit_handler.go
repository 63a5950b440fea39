package handler

import (
	"errors"
	"log/slog"

	"github.com/custodia-wallet-engine/internal/api/middleware"
	"github.com/custodia-wallet-engine/internal/domain/transaction"
	"github.com/custodia-wallet-engine/internal/domain/user"
	"github.com/custodia-wallet-engine/internal/domain/wallet"
	"github.com/custodia-wallet-engine/internal/gateway"
	"github.com/custodia-wallet-engine/internal/service"
	"github.com/gin-gonic/gin"
)

// DepositHandler handles HTTP requests for deposit lifecycle operations
type DepositHandler struct {
	settlementService service.SettlementService
	logger            *slog.Logger
}

// NewDepositHandler creates a new deposit handler
func NewDepositHandler(logger *slog.Logger, settlementService service.SettlementService) *DepositHandler {
	return &DepositHandler{
		settlementService: settlementService,
		logger:            logger,
	}
}

// Open creates a pending deposit and returns the payment link
func (h *DepositHandler) Open(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var req OpenDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	intent, err := h.settlementService.OpenDeposit(c.Request.Context(), userID, req.Amount)
	if err != nil {
		var belowMin *service.ErrAmountBelowMinimum
		var gatewayErr *gateway.Error
		switch {
		case errors.Is(err, transaction.ErrInvalidAmount):
			RespondBadRequest(c, "Deposit amount must be positive")
		case errors.As(err, &belowMin):
			RespondBadRequest(c, belowMin.Error())
		case errors.Is(err, user.ErrUserNotFound{}), errors.Is(err, wallet.ErrWalletNotFound{}):
			RespondNotFound(c, "Wallet not found")
		case errors.As(err, &gatewayErr):
			h.logger.Error("Payment initialization failed", "user_id", userID, "error", err)
			RespondBadGateway(c, "")
		default:
			h.logger.Error("Failed to open deposit", "user_id", userID, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, &DepositIntentResponse{
		Reference:   intent.Reference,
		PaymentLink: intent.PaymentLink,
	})
}

// Verify settles a deposit by querying the payment processor directly.
// Used when the webhook was missed or delayed.
func (h *DepositHandler) Verify(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	reference := c.Param("reference")
	result, err := h.settlementService.SettleByVerification(c.Request.Context(), userID, reference)
	if err != nil {
		var notSuccessful *service.ErrPaymentNotSuccessful
		var mismatch *service.ErrAmountMismatch
		var gatewayErr *gateway.Error
		switch {
		case errors.Is(err, transaction.ErrTransactionNotFound{}):
			RespondNotFound(c, "Deposit not found")
		case errors.Is(err, service.ErrForbidden):
			RespondForbidden(c, "Deposit belongs to another user")
		case errors.As(err, &notSuccessful):
			RespondUnprocessable(c, "PAYMENT_NOT_SUCCESSFUL", notSuccessful.Error())
		case errors.As(err, &mismatch):
			RespondUnprocessable(c, "AMOUNT_MISMATCH", mismatch.Error())
		case errors.As(err, &gatewayErr):
			h.logger.Error("Payment verification failed", "reference", reference, "error", err)
			RespondBadGateway(c, "")
		default:
			h.logger.Error("Failed to verify deposit", "reference", reference, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, &SettlementResultResponse{
		Reference:        result.Reference,
		Amount:           result.Amount.StringFixed(2),
		AlreadyProcessed: result.AlreadyProcessed,
	})
}

// GetAuditTrail returns the audit events recorded for one of the caller's
// deposits, newest first
func (h *DepositHandler) GetAuditTrail(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	reference := c.Param("reference")
	events, err := h.settlementService.GetAuditTrail(c.Request.Context(), userID, reference)
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrTransactionNotFound{}):
			RespondNotFound(c, "Deposit not found")
		case errors.Is(err, service.ErrForbidden):
			RespondForbidden(c, "Deposit belongs to another user")
		default:
			h.logger.Error("Failed to get deposit audit trail", "reference", reference, "error", err)
			RespondInternalError(c)
		}
		return
	}

	responses := make([]AuditEventResponse, 0, len(events))
	for _, ev := range events {
		responses = append(responses, mapAuditEventToResponse(ev))
	}
	RespondOK(c, responses)
}

// GetStatus returns a deposit's current settlement state without side effects
func (h *DepositHandler) GetStatus(c *gin.Context) {
	reference := c.Param("reference")

	status, err := h.settlementService.GetStatus(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound{}) {
			RespondNotFound(c, "Deposit not found")
			return
		}
		h.logger.Error("Failed to get deposit status", "reference", reference, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, &DepositStatusResponse{
		Reference: status.Reference,
		Status:    string(status.Status),
		Amount:    status.Amount.StringFixed(2),
	})
}
