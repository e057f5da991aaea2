package adapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockGateway is a development/testing implementation of PaymentGateway.
// It remembers initialized transactions so verification behaves like the real
// provider: unknown references fail, known ones succeed with the initialized
// amount and metadata.
type MockGateway struct {
	logger *zap.Logger

	mu           sync.Mutex
	transactions map[string]mockTransaction
}

type mockTransaction struct {
	amountMinor int64
	metadata    map[string]string
}

// NewMockGateway creates a mock gateway for development.
func NewMockGateway(logger *zap.Logger) *MockGateway {
	return &MockGateway{
		logger:       logger,
		transactions: make(map[string]mockTransaction),
	}
}

// InitializeTransaction records the transaction and returns a fake checkout URL.
func (m *MockGateway) InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference, callbackURL string, metadata map[string]string) (*InitializeResult, error) {
	m.mu.Lock()
	m.transactions[reference] = mockTransaction{amountMinor: amountMinor, metadata: metadata}
	m.mu.Unlock()

	m.logger.Info("[MOCK GATEWAY] transaction initialized",
		zap.String("reference", reference),
		zap.Int64("amount_minor", amountMinor),
		zap.String("email", email),
	)

	return &InitializeResult{
		AuthorizationURL: fmt.Sprintf("https://checkout.mock.local/%s", reference),
		AccessCode:       fmt.Sprintf("ac_mock_%s", uuid.New().String()[:8]),
		Reference:        reference,
	}, nil
}

// VerifyTransaction succeeds for references seen by InitializeTransaction.
func (m *MockGateway) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	m.mu.Lock()
	tx, ok := m.transactions[reference]
	m.mu.Unlock()

	if !ok {
		return &VerifyResult{Status: TransactionFailed, Reference: reference}, nil
	}

	m.logger.Info("[MOCK GATEWAY] transaction verified", zap.String("reference", reference))
	return &VerifyResult{
		Status:      TransactionSuccess,
		Reference:   reference,
		AmountMinor: tx.amountMinor,
		Metadata:    tx.metadata,
	}, nil
}

// RefundTransaction always succeeds for known references.
func (m *MockGateway) RefundTransaction(ctx context.Context, originalReference string, amountMinor int64) (*RefundResult, error) {
	m.mu.Lock()
	_, ok := m.transactions[originalReference]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", originalReference)
	}

	m.logger.Info("[MOCK GATEWAY] refund created",
		zap.String("reference", originalReference),
		zap.Int64("amount_minor", amountMinor),
	)
	return &RefundResult{
		RefundReference: fmt.Sprintf("rf_mock_%s", uuid.New().String()[:8]),
		Status:          "processed",
	}, nil
}
