// internal/domain/cart/validator.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/bookstore-backend/internal/domain/catalog"
)

// Validation errors
var (
	ErrCartExpired  = errors.New("cart has expired")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrAllItemsGone = errors.New("no cart items are still available")
)

// priceDriftThreshold is the relative difference between the snapshotted and
// live price beyond which a warning is emitted. The snapshotted price is
// charged either way.
const priceDriftThreshold = 0.10

// BookFinder is the slice of the catalog the validator needs
type BookFinder interface {
	FindBooksByIDs(ctx context.Context, ids []uint) ([]catalog.Book, error)
}

// ValidatedItem is a cart line reconciled against the live catalog, carrying
// the price snapshot that checkout will charge
type ValidatedItem struct {
	BookID        uint   `json:"book_id"`
	Title         string `json:"title"`
	ISBN          string `json:"isbn"`
	Quantity      int    `json:"quantity"`
	UnitPrice     int64  `json:"unit_price"` // Snapshotted, minor units
	LineTotal     int64  `json:"line_total"`
	Currency      string `json:"currency"`
	IsMemberPrice bool   `json:"is_member_price"`
}

// RemovedItem records a cart line dropped during validation
type RemovedItem struct {
	BookID uint   `json:"book_id"`
	Reason string `json:"reason"`
}

// Validation is the outcome of reconciling a cart against live catalog state
type Validation struct {
	ValidItems   []ValidatedItem `json:"valid_items"`
	RemovedItems []RemovedItem   `json:"removed_items"`
	Warnings     []string        `json:"warnings"`
}

// Subtotal returns the sum of validated line totals
func (v *Validation) Subtotal() int64 {
	var subtotal int64
	for _, item := range v.ValidItems {
		subtotal += item.LineTotal
	}
	return subtotal
}

// Validator re-validates a client-held cart against live catalog state at
// commit time
type Validator struct {
	books BookFinder
}

// NewValidator creates a new cart snapshot validator
func NewValidator(books BookFinder) *Validator {
	return &Validator{books: books}
}

// Validate reconciles the cart against the catalog. A vanished or inactive
// book drops its line with a warning; insufficient live stock fails the
// whole call because partial fulfillment of a line is not supported.
func (v *Validator) Validate(ctx context.Context, c *Cart) (*Validation, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if c.IsExpired(time.Now().UTC()) {
		return nil, ErrCartExpired
	}

	ids := make([]uint, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.BookID)
	}

	// Single batched lookup, never one query per line.
	books, err := v.books.FindBooksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart books: %w", err)
	}

	byID := make(map[uint]catalog.Book, len(books))
	for _, book := range books {
		byID[book.ID] = book
	}

	result := &Validation{}

	for _, item := range c.Items {
		book, ok := byID[item.BookID]
		if !ok || !book.IsActive {
			result.RemovedItems = append(result.RemovedItems, RemovedItem{
				BookID: item.BookID,
				Reason: "no longer available",
			})
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("An item in your cart is no longer available and was removed (book %d)", item.BookID))
			continue
		}

		if book.StockQuantity < item.Quantity {
			return nil, fmt.Errorf("%w: '%s' has %d in stock, requested %d",
				catalog.ErrInsufficientStock, book.Title, book.StockQuantity, item.Quantity)
		}

		livePrice := book.PriceFor(item.IsMemberPrice)
		if driftExceeded(item.PriceAtAdd, livePrice) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("The price of '%s' has changed since you added it; you will be charged the price you saw (%.2f)",
					book.Title, float64(item.PriceAtAdd)/100))
		}

		result.ValidItems = append(result.ValidItems, ValidatedItem{
			BookID:        book.ID,
			Title:         book.Title,
			ISBN:          book.ISBN,
			Quantity:      item.Quantity,
			UnitPrice:     item.PriceAtAdd,
			LineTotal:     item.PriceAtAdd * int64(item.Quantity),
			Currency:      item.Currency,
			IsMemberPrice: item.IsMemberPrice,
		})
	}

	if len(result.ValidItems) == 0 {
		return nil, ErrAllItemsGone
	}

	return result, nil
}

func driftExceeded(snapshotted, live int64) bool {
	if snapshotted <= 0 {
		return false
	}
	diff := live - snapshotted
	if diff < 0 {
		diff = -diff
	}
	return float64(diff)/float64(snapshotted) > priceDriftThreshold
}
