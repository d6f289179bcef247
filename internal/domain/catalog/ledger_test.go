package catalog

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store with the same conditional-write semantics as
// the Postgres implementation: the write lands only when the version token
// still matches, and a landed write bumps the token.
type memStore struct {
	mu        sync.Mutex
	books     map[uint]*Book
	findCalls int
	casCalls  int
}

func newMemStore(books ...*Book) *memStore {
	s := &memStore{books: make(map[uint]*Book)}
	for _, b := range books {
		s.books[b.ID] = b
	}
	return s
}

func (s *memStore) FindBookByID(ctx context.Context, id uint) (*Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++

	b, ok := s.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *memStore) FindBooksByIDs(ctx context.Context, ids []uint) ([]Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Book
	for _, id := range ids {
		if b, ok := s.books[id]; ok {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (s *memStore) ConditionalUpdateStock(ctx context.Context, id uint, newQuantity int, expectedVersion time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.casCalls++

	b, ok := s.books[id]
	if !ok {
		return 0, nil
	}
	if !b.UpdatedAt.Equal(expectedVersion) {
		return 0, nil
	}
	b.StockQuantity = newQuantity
	b.UpdatedAt = b.UpdatedAt.Add(time.Microsecond)
	return 1, nil
}

// contendedStore wraps memStore and sabotages the first n conditional writes
// by bumping the version underneath the caller, simulating a concurrent
// winner.
type contendedStore struct {
	*memStore
	conflicts int
}

func (s *contendedStore) ConditionalUpdateStock(ctx context.Context, id uint, newQuantity int, expectedVersion time.Time) (int64, error) {
	s.mu.Lock()
	if s.conflicts > 0 {
		s.conflicts--
		s.books[id].UpdatedAt = s.books[id].UpdatedAt.Add(time.Microsecond)
	}
	s.mu.Unlock()
	return s.memStore.ConditionalUpdateStock(ctx, id, newQuantity, expectedVersion)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testBook(id uint, stock int) *Book {
	return &Book{
		ID:            id,
		ISBN:          "9780000000001",
		Title:         "Test Book",
		SellPrice:     1500,
		Currency:      "AUD",
		StockQuantity: stock,
		IsActive:      true,
		UpdatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDecrementStock(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements available stock", func(t *testing.T) {
		store := newMemStore(testBook(1, 10))
		ledger := NewLedger(store, testLogger())

		err := ledger.DecrementStock(ctx, 1, 3)
		require.NoError(t, err)

		b, _ := store.FindBookByID(ctx, 1)
		assert.Equal(t, 7, b.StockQuantity)
	})

	t.Run("fails fast on insufficient stock without writing", func(t *testing.T) {
		store := newMemStore(testBook(1, 2))
		ledger := NewLedger(store, testLogger())

		err := ledger.DecrementStock(ctx, 1, 3)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Zero(t, store.casCalls)

		b, _ := store.FindBookByID(ctx, 1)
		assert.Equal(t, 2, b.StockQuantity)
	})

	t.Run("unknown book", func(t *testing.T) {
		ledger := NewLedger(newMemStore(), testLogger())

		err := ledger.DecrementStock(ctx, 42, 1)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		ledger := NewLedger(newMemStore(testBook(1, 10)), testLogger())

		assert.Error(t, ledger.DecrementStock(ctx, 1, 0))
		assert.Error(t, ledger.DecrementStock(ctx, 1, -5))
	})

	t.Run("retries through a version conflict", func(t *testing.T) {
		store := &contendedStore{memStore: newMemStore(testBook(1, 10)), conflicts: 1}
		ledger := NewLedger(store, testLogger())

		err := ledger.DecrementStock(ctx, 1, 4)
		require.NoError(t, err)

		b, _ := store.FindBookByID(ctx, 1)
		assert.Equal(t, 6, b.StockQuantity)
		// First attempt lost the race, second landed.
		assert.Equal(t, 2, store.casCalls)
	})

	t.Run("exhausted retries surface concurrent modification", func(t *testing.T) {
		store := &contendedStore{memStore: newMemStore(testBook(1, 10)), conflicts: 100}
		ledger := NewLedger(store, testLogger())

		err := ledger.DecrementStock(ctx, 1, 1)
		assert.ErrorIs(t, err, ErrConcurrentModification)
		assert.Equal(t, 3, store.casCalls)

		b, _ := store.FindBookByID(ctx, 1)
		assert.Equal(t, 10, b.StockQuantity)
	})

	t.Run("last unit goes to exactly one of two buyers", func(t *testing.T) {
		store := newMemStore(testBook(1, 1))
		ledger := NewLedger(store, testLogger())

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = ledger.DecrementStock(ctx, 1, 1)
			}(i)
		}
		wg.Wait()

		b, _ := store.FindBookByID(ctx, 1)
		assert.Equal(t, 0, b.StockQuantity)

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				// The loser either saw zero stock or ran out of retries.
				assert.True(t,
					errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrConcurrentModification),
					"unexpected loser error: %v", err)
			}
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("stock never goes negative under contention", func(t *testing.T) {
		const initial = 5
		const buyers = 20

		store := newMemStore(testBook(1, initial))
		ledger := NewLedger(store, testLogger())

		var wg sync.WaitGroup
		var succeeded int64
		var mu sync.Mutex

		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := ledger.DecrementStock(ctx, 1, 1); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		b, _ := store.FindBookByID(ctx, 1)
		assert.GreaterOrEqual(t, b.StockQuantity, 0)
		assert.LessOrEqual(t, succeeded, int64(initial))
		assert.Equal(t, initial-int(succeeded), b.StockQuantity)
	})
}

func TestRestoreStock(t *testing.T) {
	ctx := context.Background()

	t.Run("adds stock back", func(t *testing.T) {
		store := newMemStore(testBook(1, 3))
		ledger := NewLedger(store, testLogger())

		require.NoError(t, ledger.RestoreStock(ctx, 1, 4))

		b, _ := store.FindBookByID(ctx, 1)
		assert.Equal(t, 7, b.StockQuantity)
	})

	t.Run("concurrent restores are all preserved", func(t *testing.T) {
		store := newMemStore(testBook(1, 0))
		ledger := NewLedger(store, testLogger())

		var wg sync.WaitGroup
		var succeeded int64
		var mu sync.Mutex
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := ledger.RestoreStock(ctx, 1, 1); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		// Every restore that reported success must be reflected exactly once.
		b, _ := store.FindBookByID(ctx, 1)
		assert.Equal(t, int(succeeded), b.StockQuantity)
	})

	t.Run("unknown book", func(t *testing.T) {
		ledger := NewLedger(newMemStore(), testLogger())
		assert.ErrorIs(t, ledger.RestoreStock(ctx, 9, 1), ErrBookNotFound)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		ledger := NewLedger(newMemStore(testBook(1, 1)), testLogger())
		assert.Error(t, ledger.RestoreStock(ctx, 1, 0))
	})
}
