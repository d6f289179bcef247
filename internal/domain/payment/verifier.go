// internal/domain/payment/verifier.go
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Invalid-verification reasons surfaced to callers. Gateway internals are
// never leaked; network and API failures collapse into ReasonGatewayError.
const (
	ReasonAlreadyUsed      = "This payment has already been used"
	ReasonNotFound         = "Payment transaction not found"
	ReasonStatusInvalid    = "Payment is not completed"
	ReasonAmountMismatch   = "Payment amount mismatch"
	ReasonCurrencyMismatch = "Payment currency mismatch"
	ReasonGatewayError     = "Failed to verify payment"
)

// SaleFinder answers whether any recorded order already references a payment
// transaction. Implemented by the order store.
type SaleFinder interface {
	ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error)
}

// Verification is the outcome of verifying a payment transaction
type Verification struct {
	Valid      bool   `json:"valid"`
	Status     string `json:"status,omitempty"`
	ReceiptURL string `json:"receipt_url,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Verifier confirms a charge's authenticity before an order is committed
type Verifier struct {
	gateway Gateway
	sales   SaleFinder
	logger  *logrus.Logger
}

// NewVerifier creates a new payment verifier
func NewVerifier(gateway Gateway, sales SaleFinder, logger *logrus.Logger) *Verifier {
	return &Verifier{
		gateway: gateway,
		sales:   sales,
		logger:  logger,
	}
}

// Verify checks, in order: transaction reuse (against local order history,
// without touching the gateway), existence, terminal-success status, exact
// captured amount, exact currency. The reuse check doubles as a replay
// defense: one successful charge can never back two orders. expectedAmount
// is in minor units; any deviation, over or under, invalidates.
func (v *Verifier) Verify(ctx context.Context, transactionID string, expectedAmount int64, expectedCurrency string) (*Verification, error) {
	if transactionID == "" {
		return &Verification{Valid: false, Reason: ReasonNotFound}, nil
	}

	used, err := v.sales.ExistsByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check transaction reuse: %w", err)
	}
	if used {
		return &Verification{Valid: false, Reason: ReasonAlreadyUsed}, nil
	}

	tx, err := v.gateway.GetTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return &Verification{Valid: false, Reason: ReasonNotFound}, nil
		}
		// Opaque to the caller; the detail goes to the log only.
		v.logger.WithError(err).WithField("transaction_id", transactionID).
			Error("Payment gateway verification failed")
		return &Verification{Valid: false, Reason: ReasonGatewayError}, nil
	}

	if tx.Status != TransactionStatusCompleted {
		return &Verification{
			Valid:  false,
			Status: tx.Status,
			Reason: fmt.Sprintf("%s (status: %s)", ReasonStatusInvalid, tx.Status),
		}, nil
	}

	if tx.AmountMinorUnits != expectedAmount {
		v.logger.WithFields(logrus.Fields{
			"transaction_id": transactionID,
			"expected":       expectedAmount,
			"captured":       tx.AmountMinorUnits,
		}).Warn("Payment amount mismatch")
		return &Verification{Valid: false, Status: tx.Status, Reason: ReasonAmountMismatch}, nil
	}

	if tx.Currency != expectedCurrency {
		return &Verification{Valid: false, Status: tx.Status, Reason: ReasonCurrencyMismatch}, nil
	}

	return &Verification{
		Valid:      true,
		Status:     tx.Status,
		ReceiptURL: tx.ReceiptURL,
	}, nil
}
