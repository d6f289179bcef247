// internal/domain/catalog/ledger.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Stock ledger errors
var (
	ErrBookNotFound           = errors.New("book not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrConcurrentModification = errors.New("stock changed concurrently, retries exhausted")
)

// stockRetryAttempts bounds the read-then-conditional-write loop so heavy
// contention surfaces as a retryable failure instead of livelock.
const stockRetryAttempts = 3

// Ledger is the only mutation path for book stock quantities. All writes go
// through a compare-and-swap on the row's updated_at version token.
type Ledger struct {
	store  Store
	logger *logrus.Logger
}

// NewLedger creates a new stock ledger over the given catalog store
func NewLedger(store Store, logger *logrus.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger,
	}
}

// DecrementStock atomically subtracts quantity from a book's stock. The
// insufficiency check runs before any write, so a losing racer re-reads and
// re-evaluates honestly against the new quantity. Exhausting the retry
// budget returns ErrConcurrentModification; no partial write has happened
// for this book in that case.
func (l *Ledger) DecrementStock(ctx context.Context, bookID uint, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("decrement quantity must be positive, got %d", quantity)
	}

	for attempt := 1; attempt <= stockRetryAttempts; attempt++ {
		book, err := l.store.FindBookByID(ctx, bookID)
		if err != nil {
			return err
		}

		if book.StockQuantity < quantity {
			return fmt.Errorf("%w: book %d has %d, requested %d",
				ErrInsufficientStock, bookID, book.StockQuantity, quantity)
		}

		matched, err := l.store.ConditionalUpdateStock(ctx, bookID, book.StockQuantity-quantity, book.UpdatedAt)
		if err != nil {
			return err
		}
		if matched > 0 {
			return nil
		}

		l.logger.WithFields(logrus.Fields{
			"book_id": bookID,
			"attempt": attempt,
		}).Debug("Stock version conflict, retrying decrement")
	}

	return fmt.Errorf("%w: book %d", ErrConcurrentModification, bookID)
}

// RestoreStock adds quantity back to a book's stock, used by order
// cancellation. There is no insufficiency check, but the same optimistic
// retry discipline applies so concurrent cancellations do not lose
// increments.
func (l *Ledger) RestoreStock(ctx context.Context, bookID uint, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("restore quantity must be positive, got %d", quantity)
	}

	for attempt := 1; attempt <= stockRetryAttempts; attempt++ {
		book, err := l.store.FindBookByID(ctx, bookID)
		if err != nil {
			return err
		}

		matched, err := l.store.ConditionalUpdateStock(ctx, bookID, book.StockQuantity+quantity, book.UpdatedAt)
		if err != nil {
			return err
		}
		if matched > 0 {
			return nil
		}

		l.logger.WithFields(logrus.Fields{
			"book_id": bookID,
			"attempt": attempt,
		}).Debug("Stock version conflict, retrying restore")
	}

	return fmt.Errorf("%w: book %d", ErrConcurrentModification, bookID)
}
