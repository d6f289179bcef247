// internal/domain/catalog/store.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store is the catalog persistence contract consumed by the ledger and the
// cart validator. The conditional stock update is the only write path for
// stock quantities.
type Store interface {
	FindBookByID(ctx context.Context, id uint) (*Book, error)
	FindBooksByIDs(ctx context.Context, ids []uint) ([]Book, error)
	ConditionalUpdateStock(ctx context.Context, id uint, newQuantity int, expectedVersion time.Time) (int64, error)
}

// GormStore implements Store on top of Postgres
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new catalog store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FindBookByID retrieves a single book, nil result maps to ErrBookNotFound
func (s *GormStore) FindBookByID(ctx context.Context, id uint) (*Book, error) {
	var book Book
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to retrieve book %d: %w", id, err)
	}
	return &book, nil
}

// FindBooksByIDs retrieves books in a single batched lookup. Missing IDs are
// simply absent from the result; callers decide how to treat them.
func (s *GormStore) FindBooksByIDs(ctx context.Context, ids []uint) ([]Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var books []Book
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve books: %w", err)
	}
	return books, nil
}

// ConditionalUpdateStock writes the new stock quantity only if the row's
// updated_at still matches the version the caller read. Returns the number of
// rows matched; zero means a concurrent writer got there first. GORM bumps
// updated_at on the write, which becomes the next version token.
func (s *GormStore) ConditionalUpdateStock(ctx context.Context, id uint, newQuantity int, expectedVersion time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&Book{}).
		Where("id = ? AND updated_at = ?", id, expectedVersion).
		Update("stock_quantity", newQuantity)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update stock for book %d: %w", id, result.Error)
	}
	return result.RowsAffected, nil
}

// ListBooksRequest represents catalog list query parameters
type ListBooksRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Search string `form:"search"`
}

// ListBooks retrieves active books with basic pagination
func (s *GormStore) ListBooks(ctx context.Context, req *ListBooksRequest) ([]Book, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Book{}).Where("is_active = ?", true)
	if req.Search != "" {
		like := "%" + req.Search + "%"
		query = query.Where("title ILIKE ? OR author ILIKE ? OR isbn = ?", like, like, req.Search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	var books []Book
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("title asc").Offset(offset).Limit(req.Limit).Find(&books).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve books: %w", err)
	}

	return books, total, nil
}
