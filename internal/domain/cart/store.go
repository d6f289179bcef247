// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/bookstore-backend/internal/config"
	"github.com/your-org/bookstore-backend/internal/domain/catalog"
)

// Store is the cart persistence contract consumed by the checkout flow
type Store interface {
	ReadCart(ctx context.Context, sessionID string) (*Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
}

// RedisStore holds session carts as JSON values with the configured TTL
type RedisStore struct {
	redisClient *redis.Client
	config      *config.Config
}

// NewRedisStore creates a new Redis-backed cart store
func NewRedisStore(redisClient *redis.Client, cfg *config.Config) *RedisStore {
	return &RedisStore{
		redisClient: redisClient,
		config:      cfg,
	}
}

// AddItemRequest represents add to cart request
type AddItemRequest struct {
	BookID   uint `json:"book_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1,max=99"`
}

// UpdateItemRequest represents update cart item request
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0,max=99"`
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

// ReadCart retrieves the cart for a session, returning an empty cart when
// none exists yet
func (s *RedisStore) ReadCart(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID required")
	}

	data, err := s.redisClient.Get(ctx, cartKey(sessionID)).Result()
	if err == redis.Nil {
		now := time.Now().UTC()
		return &Cart{
			SessionID: sessionID,
			Items:     []Item{},
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.Add(s.config.Store.CartTTL),
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}

	return &c, nil
}

// AddItem adds a book to the cart, snapshotting the price the customer saw.
// Adding the same book again accumulates quantity under the original
// snapshot.
func (s *RedisStore) AddItem(ctx context.Context, sessionID string, book *catalog.Book, quantity int, memberPrice bool) (*Cart, error) {
	if quantity < MinItemQuantity || quantity > MaxItemQuantity {
		return nil, fmt.Errorf("quantity must be between %d and %d", MinItemQuantity, MaxItemQuantity)
	}

	c, err := s.ReadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range c.Items {
		if c.Items[i].BookID == book.ID {
			newQuantity := c.Items[i].Quantity + quantity
			if newQuantity > MaxItemQuantity {
				return nil, fmt.Errorf("quantity for '%s' cannot exceed %d", book.Title, MaxItemQuantity)
			}
			c.Items[i].Quantity = newQuantity
			found = true
			break
		}
	}

	if !found {
		if len(c.Items) >= MaxDistinctItems {
			return nil, fmt.Errorf("cart cannot hold more than %d distinct items", MaxDistinctItems)
		}
		c.Items = append(c.Items, Item{
			BookID:        book.ID,
			Quantity:      quantity,
			PriceAtAdd:    book.PriceFor(memberPrice),
			Currency:      book.Currency,
			IsMemberPrice: memberPrice,
			AddedAt:       time.Now().UTC(),
		})
	}

	if err := s.saveCart(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateItem sets the quantity of a cart line; zero removes the line
func (s *RedisStore) UpdateItem(ctx context.Context, sessionID string, bookID uint, quantity int) (*Cart, error) {
	if quantity < 0 || quantity > MaxItemQuantity {
		return nil, fmt.Errorf("quantity must be between 0 and %d", MaxItemQuantity)
	}

	c, err := s.ReadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range c.Items {
		if c.Items[i].BookID == bookID {
			if quantity == 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			} else {
				c.Items[i].Quantity = quantity
			}
			found = true
			break
		}
	}

	if !found {
		return nil, fmt.Errorf("item not found in cart")
	}

	if err := s.saveCart(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveItem removes a book from the cart
func (s *RedisStore) RemoveItem(ctx context.Context, sessionID string, bookID uint) (*Cart, error) {
	return s.UpdateItem(ctx, sessionID, bookID, 0)
}

// ClearCart removes the cart entirely, called after a successful order
// commit or an explicit clear
func (s *RedisStore) ClearCart(ctx context.Context, sessionID string) error {
	return s.redisClient.Del(ctx, cartKey(sessionID)).Err()
}

func (s *RedisStore) saveCart(ctx context.Context, c *Cart) error {
	c.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	// The key's TTL tracks the cart's logical expiry so abandoned carts reap
	// themselves.
	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.redisClient.Set(ctx, cartKey(c.SessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
