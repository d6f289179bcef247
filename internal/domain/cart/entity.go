// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// Cart invariants
const (
	MaxDistinctItems = 50
	MinItemQuantity  = 1
	MaxItemQuantity  = 99
)

// Cart represents an ephemeral session cart (stored in Redis). Expiry is
// passive: reads after ExpiresAt are rejected at checkout, the key's TTL
// eventually reaps the data.
type Cart struct {
	SessionID string    `json:"session_id"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Item represents a single book line in a cart. PriceAtAdd is the unit price
// the customer saw when adding; checkout charges this snapshot, not the live
// catalog price.
type Item struct {
	BookID        uint      `json:"book_id"`
	Quantity      int       `json:"quantity"`
	PriceAtAdd    int64     `json:"price_at_add"` // Minor units
	Currency      string    `json:"currency"`
	IsMemberPrice bool      `json:"is_member_price"`
	AddedAt       time.Time `json:"added_at"`
}

// IsExpired reports whether the cart is past its expiry at the given instant
func (c *Cart) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// IsEmpty reports whether the cart has no items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal returns the sum of snapshotted line totals in minor units
func (c *Cart) Subtotal() int64 {
	var subtotal int64
	for _, item := range c.Items {
		subtotal += item.PriceAtAdd * int64(item.Quantity)
	}
	return subtotal
}

// Totals represents calculated cart totals
type Totals struct {
	ItemCount     int   `json:"item_count"`     // Number of unique items
	TotalQuantity int   `json:"total_quantity"` // Sum of all quantities
	SubTotal      int64 `json:"sub_total"`      // Total before tax
}

// CalculateTotals computes the cart's totals
func (c *Cart) CalculateTotals() Totals {
	totals := Totals{ItemCount: len(c.Items)}
	for _, item := range c.Items {
		totals.TotalQuantity += item.Quantity
		totals.SubTotal += item.PriceAtAdd * int64(item.Quantity)
	}
	return totals
}
