// Package paystack implements the payment gateway port against the Paystack
// HTTP API. Amounts cross this boundary in minor units (kobo); everything
// above it works in major-unit decimals.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/custodia-wallet-engine/internal/config"
	"github.com/custodia-wallet-engine/internal/gateway"
	"github.com/shopspring/decimal"
)

// minorUnitFactor converts between major units and the processor's minor units
var minorUnitFactor = decimal.NewFromInt(100)

// Client talks to the Paystack API. All calls are bounded by the configured
// HTTP client timeout.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ gateway.Client = (*Client)(nil)

// NewClient creates a Paystack API client
func NewClient(logger *slog.Logger, cfg *config.PaystackConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type initializeRequest struct {
	Email    string         `json:"email"`
	Amount   int64          `json:"amount"` // Minor units
	Metadata map[string]any `json:"metadata"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string         `json:"status"`
		Reference string         `json:"reference"`
		Amount    int64          `json:"amount"` // Minor units
		Currency  string         `json:"currency"`
		Metadata  map[string]any `json:"metadata"`
	} `json:"data"`
}

// Initialize creates a payment intent with Paystack and returns the
// processor reference plus the payer's redirect link
func (c *Client) Initialize(ctx context.Context, email string, amount decimal.Decimal, metadata map[string]any) (*gateway.PaymentInit, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	payload := initializeRequest{
		Email:    email,
		Amount:   amount.Mul(minorUnitFactor).IntPart(),
		Metadata: metadata,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &gateway.Error{Operation: "initialize", Message: "failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, &gateway.Error{Operation: "initialize", Message: "failed to build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Paystack initialize call failed", "error", err)
		return nil, &gateway.Error{Operation: "initialize", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	var decoded initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &gateway.Error{Operation: "initialize", Message: "failed to decode response", Err: err}
	}

	if !decoded.Status {
		c.logger.Error("Paystack rejected initialize call", "message", decoded.Message, "http_status", resp.StatusCode)
		return nil, &gateway.Error{Operation: "initialize", Message: messageOrDefault(decoded.Message, "processor rejected the request")}
	}

	return &gateway.PaymentInit{
		Reference:   decoded.Data.Reference,
		PaymentLink: decoded.Data.AuthorizationURL,
	}, nil
}

// Verify fetches the settlement state for a reference. An unsuccessful
// payment is reported through PaymentVerification.Status, not as an error.
func (c *Client) Verify(ctx context.Context, reference string) (*gateway.PaymentVerification, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, &gateway.Error{Operation: "verify", Message: "failed to build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Paystack verify call failed", "reference", reference, "error", err)
		return nil, &gateway.Error{Operation: "verify", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	var decoded verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &gateway.Error{Operation: "verify", Message: "failed to decode response", Err: err}
	}

	if !decoded.Status {
		c.logger.Error("Paystack rejected verify call", "reference", reference, "message", decoded.Message, "http_status", resp.StatusCode)
		return nil, &gateway.Error{Operation: "verify", Message: messageOrDefault(decoded.Message, "processor rejected the request")}
	}

	return &gateway.PaymentVerification{
		Reference: decoded.Data.Reference,
		Status:    decoded.Data.Status,
		Amount:    decimal.NewFromInt(decoded.Data.Amount).Div(minorUnitFactor),
		Currency:  decoded.Data.Currency,
		Raw: map[string]any{
			"status":    decoded.Data.Status,
			"reference": decoded.Data.Reference,
			"amount":    decoded.Data.Amount,
			"currency":  decoded.Data.Currency,
			"metadata":  decoded.Data.Metadata,
		},
	}, nil
}

// VerifySignature checks the x-paystack-signature HMAC over the exact raw
// webhook body. The hash must be computed over the untransformed bytes;
// re-serialized JSON would not match.
func (c *Client) VerifySignature(payload []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func messageOrDefault(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}
