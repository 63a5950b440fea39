package handler

import (
	"errors"
	"log/slog"

	"github.com/custodia-wallet-engine/internal/api/middleware"
	"github.com/custodia-wallet-engine/internal/domain/user"
	"github.com/custodia-wallet-engine/internal/domain/wallet"
	"github.com/custodia-wallet-engine/internal/service"
	"github.com/gin-gonic/gin"
)

// WalletHandler handles HTTP requests for user, wallet and transfer operations
type WalletHandler struct {
	walletService   service.WalletService
	transferService service.TransferService
	logger          *slog.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(logger *slog.Logger, walletService service.WalletService, transferService service.TransferService) *WalletHandler {
	return &WalletHandler{
		walletService:   walletService,
		transferService: transferService,
		logger:          logger,
	}
}

// CreateUser registers a user and provisions their wallet in one step
func (h *WalletHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	usr, w, err := h.walletService.CreateUserWithWallet(c.Request.Context(), req.Email)
	if err != nil {
		if errors.As(err, &user.ErrDuplicateEmail{}) {
			RespondConflict(c, "A user with this email already exists")
			return
		}
		h.logger.Error("Failed to create user", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapUserWalletToResponse(usr, w))
}

// GetWallet returns the caller's wallet with its current balance
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	w, err := h.walletService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound{}) {
			RespondNotFound(c, "Wallet not found")
			return
		}
		h.logger.Error("Failed to get wallet", "user_id", userID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapWalletToResponse(w))
}

// ListTransactions returns the caller's paginated transaction history, newest first
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	entries, total, err := h.walletService.ListTransactions(c.Request.Context(), userID, params.Page, params.PerPage)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound{}) {
			RespondNotFound(c, "Wallet not found")
			return
		}
		h.logger.Error("Failed to list transactions", "user_id", userID, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TransactionResponse, 0, len(entries))
	for _, t := range entries {
		responses = append(responses, mapTransactionToResponse(t))
	}

	RespondWithPaginatedData(c, 200, responses, params.Page, params.PerPage, int(total))
}

// ListAuditEvents returns the caller's audit trail, newest first
func (h *WalletHandler) ListAuditEvents(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	events, err := h.walletService.ListAuditEvents(c.Request.Context(), userID, params.Page, params.PerPage)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound{}) {
			RespondNotFound(c, "Wallet not found")
			return
		}
		h.logger.Error("Failed to list audit events", "user_id", userID, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]AuditEventResponse, 0, len(events))
	for _, ev := range events {
		responses = append(responses, mapAuditEventToResponse(ev))
	}
	RespondOK(c, responses)
}

// Transfer moves funds from the caller's wallet to another wallet
func (h *WalletHandler) Transfer(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	err := h.transferService.Transfer(c.Request.Context(), userID, req.RecipientWalletNumber, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrInvalidAmount):
			RespondBadRequest(c, "Transfer amount must be positive")
		case errors.Is(err, wallet.ErrSelfTransfer):
			RespondBadRequest(c, "Cannot transfer to your own wallet")
		case errors.Is(err, wallet.ErrInsufficientFunds):
			RespondUnprocessable(c, "INSUFFICIENT_FUNDS", "Insufficient funds for transfer")
		case errors.Is(err, wallet.ErrWalletNotFound{}):
			RespondNotFound(c, "Wallet not found")
		default:
			h.logger.Error("Transfer failed", "user_id", userID, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, gin.H{
		"recipient_wallet_number": req.RecipientWalletNumber,
		"amount":                  req.Amount.StringFixed(2),
		"status":                  "completed",
	})
}
