// internal/domain/payment/gateway.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/your-org/bookstore-backend/internal/config"
)

// Transaction statuses reported by the gateway
const (
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusPending   = "PENDING"
	TransactionStatusFailed    = "FAILED"
	TransactionStatusCanceled  = "CANCELED"
)

// ErrTransactionNotFound indicates the gateway has no record of the
// transaction id
var ErrTransactionNotFound = errors.New("transaction not found")

// Transaction is the gateway's view of a single charge
type Transaction struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	AmountMinorUnits int64  `json:"amount"` // Captured amount in minor units
	Currency         string `json:"currency"`
	ReceiptURL       string `json:"receipt_url"`
	CreatedAt        int64  `json:"created_at"`
}

// Gateway fetches transactions from the external payment provider
type Gateway interface {
	GetTransaction(ctx context.Context, transactionID string) (*Transaction, error)
}

// HTTPGateway implements Gateway against the provider's REST API
type HTTPGateway struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// NewHTTPGateway creates a gateway client with a bounded request timeout.
// The timeout deliberately maps to a verification failure rather than a
// retry, to avoid double-charging ambiguity.
func NewHTTPGateway(cfg *config.Config) *HTTPGateway {
	return &HTTPGateway{
		baseURL:   cfg.Payment.BaseURL,
		keyID:     cfg.Payment.KeyID,
		keySecret: cfg.Payment.KeySecret,
		httpClient: &http.Client{
			Timeout: cfg.Payment.Timeout,
		},
	}
}

// GetTransaction retrieves a transaction by id
func (g *HTTPGateway) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/transactions/%s", g.baseURL, transactionID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTransactionNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var tx Transaction
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return &tx, nil
}
