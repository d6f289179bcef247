package payment

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	tx    *Transaction
	err   error
	calls int
}

func (g *fakeGateway) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.tx, nil
}

type fakeSaleFinder struct {
	used bool
	err  error
}

func (f *fakeSaleFinder) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	return f.used, f.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func completedTx(amount int64, currency string) *Transaction {
	return &Transaction{
		ID:               "txn_123",
		Status:           TransactionStatusCompleted,
		AmountMinorUnits: amount,
		Currency:         currency,
		ReceiptURL:       "https://pay.example.com/receipts/txn_123",
	}
}

func TestVerifySuccess(t *testing.T) {
	gateway := &fakeGateway{tx: completedTx(2750, "AUD")}
	v := NewVerifier(gateway, &fakeSaleFinder{}, quietLogger())

	result, err := v.Verify(context.Background(), "txn_123", 2750, "AUD")
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Equal(t, TransactionStatusCompleted, result.Status)
	assert.Equal(t, "https://pay.example.com/receipts/txn_123", result.ReceiptURL)
	assert.Empty(t, result.Reason)
}

func TestVerifyRejectsReusedTransactionWithoutGatewayCall(t *testing.T) {
	gateway := &fakeGateway{tx: completedTx(2750, "AUD")}
	v := NewVerifier(gateway, &fakeSaleFinder{used: true}, quietLogger())

	result, err := v.Verify(context.Background(), "txn_123", 2750, "AUD")
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, ReasonAlreadyUsed, result.Reason)
	// Replay defense short-circuits before the gateway is consulted.
	assert.Zero(t, gateway.calls)
}

func TestVerifyMissingTransaction(t *testing.T) {
	t.Run("empty transaction ID", func(t *testing.T) {
		v := NewVerifier(&fakeGateway{}, &fakeSaleFinder{}, quietLogger())

		result, err := v.Verify(context.Background(), "", 2750, "AUD")
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, ReasonNotFound, result.Reason)
	})

	t.Run("gateway reports not found", func(t *testing.T) {
		gateway := &fakeGateway{err: ErrTransactionNotFound}
		v := NewVerifier(gateway, &fakeSaleFinder{}, quietLogger())

		result, err := v.Verify(context.Background(), "txn_missing", 2750, "AUD")
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, ReasonNotFound, result.Reason)
	})
}

func TestVerifyRejectsNonTerminalStatus(t *testing.T) {
	tx := completedTx(2750, "AUD")
	tx.Status = TransactionStatusPending

	v := NewVerifier(&fakeGateway{tx: tx}, &fakeSaleFinder{}, quietLogger())

	result, err := v.Verify(context.Background(), "txn_123", 2750, "AUD")
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, TransactionStatusPending, result.Status)
	assert.Contains(t, result.Reason, ReasonStatusInvalid)
	assert.Contains(t, result.Reason, TransactionStatusPending)
}

func TestVerifyRejectsAmountMismatch(t *testing.T) {
	// Gateway captured the pre-tax subtotal, checkout expects the
	// tax-inclusive total.
	v := NewVerifier(&fakeGateway{tx: completedTx(2500, "AUD")}, &fakeSaleFinder{}, quietLogger())

	result, err := v.Verify(context.Background(), "txn_123", 2750, "AUD")
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, ReasonAmountMismatch, result.Reason)
}

func TestVerifyRejectsOvercapture(t *testing.T) {
	// Any deviation invalidates, over as well as under.
	v := NewVerifier(&fakeGateway{tx: completedTx(3000, "AUD")}, &fakeSaleFinder{}, quietLogger())

	result, err := v.Verify(context.Background(), "txn_123", 2750, "AUD")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonAmountMismatch, result.Reason)
}

func TestVerifyRejectsCurrencyMismatch(t *testing.T) {
	v := NewVerifier(&fakeGateway{tx: completedTx(2750, "USD")}, &fakeSaleFinder{}, quietLogger())

	result, err := v.Verify(context.Background(), "txn_123", 2750, "AUD")
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, ReasonCurrencyMismatch, result.Reason)
}

func TestVerifyGatewayFailureIsOpaque(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("upstream 503: instance overloaded")}
	v := NewVerifier(gateway, &fakeSaleFinder{}, quietLogger())

	result, err := v.Verify(context.Background(), "txn_123", 2750, "AUD")
	require.NoError(t, err)

	assert.False(t, result.Valid)
	// The caller sees the generic reason, never the upstream detail.
	assert.Equal(t, ReasonGatewayError, result.Reason)
	assert.NotContains(t, result.Reason, "503")
}

func TestVerifyReuseCheckFailurePropagates(t *testing.T) {
	v := NewVerifier(&fakeGateway{}, &fakeSaleFinder{err: errors.New("db down")}, quietLogger())

	_, err := v.Verify(context.Background(), "txn_123", 2750, "AUD")
	assert.Error(t, err)
}
