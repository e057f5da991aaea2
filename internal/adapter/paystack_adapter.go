package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// TransactionStatus is the gateway's authoritative view of a transaction.
type TransactionStatus string

const (
	TransactionSuccess TransactionStatus = "success"
	TransactionFailed  TransactionStatus = "failed"
	TransactionPending TransactionStatus = "pending"
)

// InitializeResult is returned by a successful transaction initialization.
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult is the gateway's answer to a verification query. Metadata
// carries back what was attached at initialization, including the booking id.
type VerifyResult struct {
	Status      TransactionStatus
	Reference   string
	AmountMinor int64
	Metadata    map[string]string
}

// RefundResult is returned by a refund request.
type RefundResult struct {
	RefundReference string
	Status          string
}

// PaymentGateway is the Anti-Corruption Layer interface for the payment
// provider. The provider is treated as untrusted and fallible: every answer
// that matters is fetched from it directly, never taken from a client.
type PaymentGateway interface {
	// InitializeTransaction creates a charge for the amount in minor units and
	// returns the authorization URL the guest completes payment on.
	InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference, callbackURL string, metadata map[string]string) (*InitializeResult, error)

	// VerifyTransaction queries the provider's authoritative status for a reference.
	VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error)

	// RefundTransaction refunds part or all of a captured transaction.
	RefundTransaction(ctx context.Context, originalReference string, amountMinor int64) (*RefundResult, error)
}

// PaystackGateway talks to the Paystack REST API.
type PaystackGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
	logger    *zap.Logger
}

// NewPaystackGateway creates a gateway client. Timeouts on the HTTP client are
// the only retry/cancellation mechanism; a timed-out call surfaces as a plain
// error for the caller to classify.
func NewPaystackGateway(baseURL, secretKey string, timeout time.Duration, logger *zap.Logger) *PaystackGateway {
	return &PaystackGateway{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (g *PaystackGateway) do(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if !env.Status {
		return fmt.Errorf("gateway rejected request: %s", env.Message)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode gateway data: %w", err)
		}
	}
	return nil
}

// InitializeTransaction implements PaymentGateway.
func (g *PaystackGateway) InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference, callbackURL string, metadata map[string]string) (*InitializeResult, error) {
	payload := map[string]any{
		"email":        email,
		"amount":       amountMinor,
		"currency":     "NGN",
		"reference":    reference,
		"callback_url": callbackURL,
		"metadata":     metadata,
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := g.do(ctx, http.MethodPost, "/transaction/initialize", payload, &data); err != nil {
		return nil, err
	}

	return &InitializeResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// VerifyTransaction implements PaymentGateway.
func (g *PaystackGateway) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	var data struct {
		Status    string            `json:"status"`
		Reference string            `json:"reference"`
		Amount    int64             `json:"amount"`
		Metadata  map[string]string `json:"metadata"`
	}
	if err := g.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &data); err != nil {
		return nil, err
	}

	status := TransactionPending
	switch data.Status {
	case "success":
		status = TransactionSuccess
	case "failed", "abandoned", "reversed":
		status = TransactionFailed
	}

	return &VerifyResult{
		Status:      status,
		Reference:   data.Reference,
		AmountMinor: data.Amount,
		Metadata:    data.Metadata,
	}, nil
}

// RefundTransaction implements PaymentGateway.
func (g *PaystackGateway) RefundTransaction(ctx context.Context, originalReference string, amountMinor int64) (*RefundResult, error) {
	payload := map[string]any{
		"transaction": originalReference,
		"amount":      amountMinor,
		"currency":    "NGN",
	}

	var data struct {
		Transaction struct {
			Reference string `json:"reference"`
		} `json:"transaction"`
		Status string `json:"status"`
	}
	if err := g.do(ctx, http.MethodPost, "/refund", payload, &data); err != nil {
		return nil, err
	}

	g.logger.Info("refund accepted by gateway",
		zap.String("original_reference", originalReference),
		zap.Int64("amount_minor", amountMinor),
		zap.String("refund_reference", data.Transaction.Reference),
	)

	return &RefundResult{
		RefundReference: data.Transaction.Reference,
		Status:          data.Status,
	}, nil
}
