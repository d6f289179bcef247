package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/bookstore-backend/internal/config"
)

func gatewayFor(t *testing.T, handler http.HandlerFunc) *HTTPGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewHTTPGateway(&config.Config{
		Payment: config.PaymentConfig{
			BaseURL:   server.URL,
			KeyID:     "key_id",
			KeySecret: "key_secret",
			Timeout:   2 * time.Second,
		},
	})
}

func TestGetTransaction(t *testing.T) {
	gateway := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/txn_123", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "txn_123",
			"status": "COMPLETED",
			"amount": 2750,
			"currency": "AUD",
			"receipt_url": "https://pay.example.com/receipts/txn_123"
		}`))
	})

	tx, err := gateway.GetTransaction(context.Background(), "txn_123")
	require.NoError(t, err)

	assert.Equal(t, "txn_123", tx.ID)
	assert.Equal(t, TransactionStatusCompleted, tx.Status)
	assert.Equal(t, int64(2750), tx.AmountMinorUnits)
	assert.Equal(t, "AUD", tx.Currency)
	assert.Equal(t, "https://pay.example.com/receipts/txn_123", tx.ReceiptURL)
}

func TestGetTransactionNotFound(t *testing.T) {
	gateway := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := gateway.GetTransaction(context.Background(), "txn_missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestGetTransactionServerError(t *testing.T) {
	gateway := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := gateway.GetTransaction(context.Background(), "txn_123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTransactionNotFound)
}

func TestGetTransactionMalformedBody(t *testing.T) {
	gateway := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	_, err := gateway.GetTransaction(context.Background(), "txn_123")
	assert.Error(t, err)
}
