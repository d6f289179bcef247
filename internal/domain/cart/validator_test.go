package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/bookstore-backend/internal/domain/catalog"
)

type fakeBookFinder struct {
	books []catalog.Book
	err   error
}

func (f *fakeBookFinder) FindBooksByIDs(ctx context.Context, ids []uint) ([]catalog.Book, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.books, nil
}

func liveBook(id uint, price int64, stock int) catalog.Book {
	return catalog.Book{
		ID:            id,
		ISBN:          "9780000000001",
		Title:         "Live Book",
		SellPrice:     price,
		MemberPrice:   price,
		Currency:      "AUD",
		StockQuantity: stock,
		IsActive:      true,
	}
}

func freshCart(items ...Item) *Cart {
	now := time.Now().UTC()
	return &Cart{
		SessionID: "session-1",
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

func TestValidateRejectsEmptyCart(t *testing.T) {
	v := NewValidator(&fakeBookFinder{})

	_, err := v.Validate(context.Background(), freshCart())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestValidateRejectsExpiredCart(t *testing.T) {
	v := NewValidator(&fakeBookFinder{books: []catalog.Book{liveBook(1, 1000, 5)}})

	c := freshCart(Item{BookID: 1, Quantity: 1, PriceAtAdd: 1000, Currency: "AUD"})
	c.ExpiresAt = time.Now().UTC().Add(-time.Hour)

	_, err := v.Validate(context.Background(), c)
	assert.ErrorIs(t, err, ErrCartExpired)
}

func TestValidateDropsVanishedBookWithWarning(t *testing.T) {
	v := NewValidator(&fakeBookFinder{books: []catalog.Book{liveBook(1, 1000, 5)}})

	c := freshCart(
		Item{BookID: 1, Quantity: 2, PriceAtAdd: 1000, Currency: "AUD"},
		Item{BookID: 2, Quantity: 1, PriceAtAdd: 500, Currency: "AUD"}, // vanished
	)

	result, err := v.Validate(context.Background(), c)
	require.NoError(t, err)

	assert.Len(t, result.ValidItems, 1)
	assert.Equal(t, uint(1), result.ValidItems[0].BookID)
	require.Len(t, result.RemovedItems, 1)
	assert.Equal(t, uint(2), result.RemovedItems[0].BookID)
	assert.Len(t, result.Warnings, 1)
	assert.Equal(t, int64(2000), result.Subtotal())
}

func TestValidateDropsInactiveBook(t *testing.T) {
	inactive := liveBook(2, 500, 5)
	inactive.IsActive = false

	v := NewValidator(&fakeBookFinder{books: []catalog.Book{liveBook(1, 1000, 5), inactive}})

	c := freshCart(
		Item{BookID: 1, Quantity: 1, PriceAtAdd: 1000, Currency: "AUD"},
		Item{BookID: 2, Quantity: 1, PriceAtAdd: 500, Currency: "AUD"},
	)

	result, err := v.Validate(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, result.ValidItems, 1)
	assert.Len(t, result.RemovedItems, 1)
}

func TestValidateFailsWhenAllItemsGone(t *testing.T) {
	v := NewValidator(&fakeBookFinder{})

	c := freshCart(Item{BookID: 1, Quantity: 1, PriceAtAdd: 1000, Currency: "AUD"})

	_, err := v.Validate(context.Background(), c)
	assert.ErrorIs(t, err, ErrAllItemsGone)
}

func TestValidateFailsHardOnInsufficientStock(t *testing.T) {
	// Partial line fulfillment is not supported; a shortfall fails the whole
	// validation rather than trimming the quantity.
	v := NewValidator(&fakeBookFinder{books: []catalog.Book{liveBook(1, 1000, 1)}})

	c := freshCart(Item{BookID: 1, Quantity: 3, PriceAtAdd: 1000, Currency: "AUD"})

	_, err := v.Validate(context.Background(), c)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
}

func TestValidatePriceDrift(t *testing.T) {
	t.Run("drift over threshold warns but charges snapshot", func(t *testing.T) {
		// Added at 10.00, now 12.00: 20% drift.
		v := NewValidator(&fakeBookFinder{books: []catalog.Book{liveBook(1, 1200, 5)}})

		c := freshCart(Item{BookID: 1, Quantity: 1, PriceAtAdd: 1000, Currency: "AUD"})

		result, err := v.Validate(context.Background(), c)
		require.NoError(t, err)
		require.Len(t, result.ValidItems, 1)

		assert.Len(t, result.Warnings, 1)
		assert.Equal(t, int64(1000), result.ValidItems[0].UnitPrice)
		assert.Equal(t, int64(1000), result.Subtotal())
	})

	t.Run("drift within threshold stays quiet", func(t *testing.T) {
		// Added at 10.00, now 10.50: 5% drift.
		v := NewValidator(&fakeBookFinder{books: []catalog.Book{liveBook(1, 1050, 5)}})

		c := freshCart(Item{BookID: 1, Quantity: 1, PriceAtAdd: 1000, Currency: "AUD"})

		result, err := v.Validate(context.Background(), c)
		require.NoError(t, err)
		assert.Empty(t, result.Warnings)
	})

	t.Run("downward drift also warns", func(t *testing.T) {
		v := NewValidator(&fakeBookFinder{books: []catalog.Book{liveBook(1, 700, 5)}})

		c := freshCart(Item{BookID: 1, Quantity: 1, PriceAtAdd: 1000, Currency: "AUD"})

		result, err := v.Validate(context.Background(), c)
		require.NoError(t, err)
		assert.Len(t, result.Warnings, 1)
		assert.Equal(t, int64(1000), result.ValidItems[0].UnitPrice)
	})
}

func TestValidatePropagatesLookupFailure(t *testing.T) {
	v := NewValidator(&fakeBookFinder{err: errors.New("connection refused")})

	c := freshCart(Item{BookID: 1, Quantity: 1, PriceAtAdd: 1000, Currency: "AUD"})

	_, err := v.Validate(context.Background(), c)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAllItemsGone)
}
