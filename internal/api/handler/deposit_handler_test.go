package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-wallet-engine/internal/domain/audit"
	"github.com/custodia-wallet-engine/internal/domain/transaction"
	"github.com/custodia-wallet-engine/internal/domain/user"
	"github.com/custodia-wallet-engine/internal/gateway"
	"github.com/custodia-wallet-engine/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDepositHandler_Open(t *testing.T) {
	logger := testHandlerLogger()
	userID := uuid.New()

	postDeposit := func(handler *DepositHandler, body []byte) *httptest.ResponseRecorder {
		router := authedRouter(userID)
		router.POST("/deposits", handler.Open)

		req, _ := http.NewRequest(http.MethodPost, "/deposits", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("Success", func(t *testing.T) {
		mockSettlement := new(MockSettlementService)
		handler := NewDepositHandler(logger, mockSettlement)

		mockSettlement.On("OpenDeposit", mock.Anything, userID,
			mock.MatchedBy(func(amount decimal.Decimal) bool {
				return amount.Equal(decimal.RequireFromString("2500.00"))
			})).
			Return(&service.DepositIntent{
				Reference:   "ref_open",
				PaymentLink: "https://checkout.example/ref_open",
			}, nil).Once()

		rr := postDeposit(handler, []byte(`{"amount":"2500.00"}`))

		require.Equal(t, http.StatusCreated, rr.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, "ref_open", data["reference"])
		assert.Equal(t, "https://checkout.example/ref_open", data["payment_link"])
	})

	t.Run("BelowMinimum", func(t *testing.T) {
		mockSettlement := new(MockSettlementService)
		handler := NewDepositHandler(logger, mockSettlement)

		mockSettlement.On("OpenDeposit", mock.Anything, userID, mock.Anything).
			Return(nil, &service.ErrAmountBelowMinimum{Minimum: decimal.NewFromInt(100)}).Once()

		rr := postDeposit(handler, []byte(`{"amount":"5.00"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		mockSettlement := new(MockSettlementService)
		handler := NewDepositHandler(logger, mockSettlement)

		mockSettlement.On("OpenDeposit", mock.Anything, userID, mock.Anything).
			Return(nil, user.ErrUserNotFound{UserID: userID}).Once()

		rr := postDeposit(handler, []byte(`{"amount":"500.00"}`))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("GatewayDown", func(t *testing.T) {
		mockSettlement := new(MockSettlementService)
		handler := NewDepositHandler(logger, mockSettlement)

		mockSettlement.On("OpenDeposit", mock.Anything, userID, mock.Anything).
			Return(nil, &gateway.Error{Operation: "initialize", Message: "request failed"}).Once()

		rr := postDeposit(handler, []byte(`{"amount":"500.00"}`))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})

	t.Run("MissingAmount", func(t *testing.T) {
		handler := NewDepositHandler(logger, new(MockSettlementService))

		rr := postDeposit(handler, []byte(`{}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDepositHandler_Verify(t *testing.T) {
	logger := testHandlerLogger()
	userID := uuid.New()

	postVerify := func(handler *DepositHandler, reference string) *httptest.ResponseRecorder {
		router := authedRouter(userID)
		router.POST("/deposits/:reference/verify", handler.Verify)

		req, _ := http.NewRequest(http.MethodPost, "/deposits/"+reference+"/verify", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("Success", func(t *testing.T) {
		mockSettlement := new(MockSettlementService)
		handler := NewDepositHandler(logger, mockSettlement)

		mockSettlement.On("SettleByVerification", mock.Anything, userID, "ref_v").
			Return(&service.SettlementResult{
				Reference: "ref_v",
				Amount:    decimal.RequireFromString("300.00"),
			}, nil).Once()

		rr := postVerify(handler, "ref_v")

		require.Equal(t, http.StatusOK, rr.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, "300.00", data["amount"])
		assert.Equal(t, false, data["already_processed"])
	})

	t.Run("Forbidden", func(t *testing.T) {
		mockSettlement := new(MockSettlementService)
		handler := NewDepositHandler(logger, mockSettlement)

		mockSettlement.On("SettleByVerification", mock.Anything, userID, "ref_v").
			Return(nil, service.ErrForbidden).Once()

		rr := postVerify(handler, "ref_v")

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("NotSuccessfulYet", func(t *testing.T) {
		mockSettlement := new(MockSettlementService)
		handler := NewDepositHandler(logger, mockSettlement)

		mockSettlement.On("SettleByVerification", mock.Anything, userID, "ref_v").
			Return(nil, &service.ErrPaymentNotSuccessful{Reference: "ref_v", Status: "pending"}).Once()

		rr := postVerify(handler, "ref_v")

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockSettlement := new(MockSettlementService)
		handler := NewDepositHandler(logger, mockSettlement)

		mockSettlement.On("SettleByVerification", mock.Anything, userID, "ref_v").
			Return(nil, transaction.ErrTransactionNotFound{Reference: "ref_v"}).Once()

		rr := postVerify(handler, "ref_v")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDepositHandler_GetAuditTrail(t *testing.T) {
	logger := testHandlerLogger()
	userID := uuid.New()

	getTrail := func(handler *DepositHandler, reference string) *httptest.ResponseRecorder {
		router := authedRouter(userID)
		router.GET("/deposits/:reference/audit", handler.GetAuditTrail)

		req, _ := http.NewRequest(http.MethodGet, "/deposits/"+reference+"/audit", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("Success", func(t *testing.T) {
		mockSettlement := new(MockSettlementService)
		handler := NewDepositHandler(logger, mockSettlement)

		walletID := uuid.New()
		txID := uuid.New()
		events := []*audit.Event{
			audit.NewEvent(audit.ActionDepositSettled, txID, walletID, "ref_t", decimal.RequireFromString("75.50"), nil),
			audit.NewEvent(audit.ActionDepositOpened, txID, walletID, "ref_t", decimal.RequireFromString("75.50"), nil),
		}
		mockSettlement.On("GetAuditTrail", mock.Anything, userID, "ref_t").
			Return(events, nil).Once()

		rr := getTrail(handler, "ref_t")

		require.Equal(t, http.StatusOK, rr.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		data := resp.Data.([]any)
		require.Len(t, data, 2)
		first := data[0].(map[string]any)
		assert.Equal(t, string(audit.ActionDepositSettled), first["action"])
		assert.Equal(t, "75.50", first["amount"])
		assert.Equal(t, "ref_t", first["reference"])
	})

	t.Run("Forbidden", func(t *testing.T) {
		mockSettlement := new(MockSettlementService)
		handler := NewDepositHandler(logger, mockSettlement)

		mockSettlement.On("GetAuditTrail", mock.Anything, userID, "ref_t").
			Return(nil, service.ErrForbidden).Once()

		rr := getTrail(handler, "ref_t")

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("UnknownReference", func(t *testing.T) {
		mockSettlement := new(MockSettlementService)
		handler := NewDepositHandler(logger, mockSettlement)

		mockSettlement.On("GetAuditTrail", mock.Anything, userID, "ref_t").
			Return(nil, transaction.ErrTransactionNotFound{Reference: "ref_t"}).Once()

		rr := getTrail(handler, "ref_t")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDepositHandler_GetStatus(t *testing.T) {
	logger := testHandlerLogger()
	userID := uuid.New()

	t.Run("Found", func(t *testing.T) {
		mockSettlement := new(MockSettlementService)
		handler := NewDepositHandler(logger, mockSettlement)

		mockSettlement.On("GetStatus", mock.Anything, "ref_s").
			Return(&service.DepositStatus{
				Reference: "ref_s",
				Status:    transaction.StatusPending,
				Amount:    decimal.RequireFromString("150.00"),
			}, nil).Once()

		router := authedRouter(userID)
		router.GET("/deposits/:reference", handler.GetStatus)

		req, _ := http.NewRequest(http.MethodGet, "/deposits/ref_s", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, "pending", data["status"])
		assert.Equal(t, "150.00", data["amount"])
	})
}
