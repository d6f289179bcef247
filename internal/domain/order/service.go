// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-backend/internal/config"
	"github.com/your-org/bookstore-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// ErrSaleNotFound indicates the sale does not exist
var ErrSaleNotFound = errors.New("sale not found")

// Service handles sale persistence and order management
type Service struct {
	db     *gorm.DB
	config *config.Config
	ledger *catalog.Ledger
	logger *logrus.Logger
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, ledger *catalog.Ledger, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		ledger: ledger,
		logger: logger,
	}
}

// ListSalesRequest represents sale list query parameters
type ListSalesRequest struct {
	Page     int        `form:"page,default=1"`
	Limit    int        `form:"limit,default=20"`
	Status   SaleStatus `form:"status"`
	MemberID uint       `form:"member_id"`
	DateFrom string     `form:"date_from"`
	DateTo   string     `form:"date_to"`
}

// ListSalesResponse represents sales with pagination
type ListSalesResponse struct {
	Sales      []Sale     `json:"sales"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// UpdateStatusRequest represents a status change request
type UpdateStatusRequest struct {
	Status SaleStatus `json:"status" binding:"required"`
	Note   string     `json:"note,omitempty"`
}

// CancelSaleRequest represents a cancellation request
type CancelSaleRequest struct {
	Reason       string `json:"reason,omitempty"`
	RestoreStock bool   `json:"restore_stock"`
}

// CreateSale persists a sale, its line items, and the initial status history
// entry in a single database transaction. The caller has already resolved
// stock decrements; nothing here touches the stock ledger.
func (s *Service) CreateSale(ctx context.Context, sale *Sale) error {
	if sale.OrderNumber == "" {
		sale.OrderNumber = NewOrderNumber(sale.SaleDate)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Items are created through the association in the same transaction.
		if err := tx.Create(sale).Error; err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		history := SaleStatusHistory{
			SaleID:    sale.ID,
			Status:    sale.Status,
			Note:      "Order created",
			Actor:     "checkout",
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}

		return nil
	})
}

// ExistsByTransactionID reports whether any sale already references the
// given external payment transaction. Backs the verifier's reuse check.
func (s *Service) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Sale{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check transaction reuse: %w", err)
	}
	return count > 0, nil
}

// GetSale retrieves a single sale by ID
func (s *Service) GetSale(ctx context.Context, id uint) (*Sale, error) {
	var sale Sale
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to retrieve sale: %w", err)
	}
	return &sale, nil
}

// GetSaleByNumber retrieves a single sale by order number
func (s *Service) GetSaleByNumber(ctx context.Context, orderNumber string) (*Sale, error) {
	var sale Sale
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("order_number = ?", orderNumber).
		First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to retrieve sale: %w", err)
	}
	return &sale, nil
}

// ListSales retrieves sales with filtering and pagination
func (s *Service) ListSales(ctx context.Context, req *ListSalesRequest) (*ListSalesResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Sale{}).Preload("Items")

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.MemberID > 0 {
		query = query.Where("member_id = ?", req.MemberID)
	}
	if req.DateFrom != "" {
		query = query.Where("sale_date >= ?", req.DateFrom)
	}
	if req.DateTo != "" {
		query = query.Where("sale_date <= ?", req.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}

	var sales []Sale
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("sale_date DESC").Offset(offset).Limit(req.Limit).Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve sales: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListSalesResponse{
		Sales: sales,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// UpdateStatus appends a status change, enforcing the monotonic status
// machine. Terminal states reject everything except themselves.
func (s *Service) UpdateStatus(ctx context.Context, saleID uint, status SaleStatus, note, actor string) error {
	var sale Sale
	if err := s.db.WithContext(ctx).First(&sale, saleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSaleNotFound
		}
		return fmt.Errorf("failed to retrieve sale: %w", err)
	}

	if !sale.Status.CanTransitionTo(status) {
		return fmt.Errorf("invalid status transition from %s to %s", sale.Status, status)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&sale).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update sale status: %w", err)
		}

		history := SaleStatusHistory{
			SaleID:    saleID,
			Status:    status,
			Note:      note,
			Actor:     actor,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}

		return nil
	})
}

// CancelSale cancels a sale and optionally restores the decremented stock
// through the ledger. Restoration failures do not undo the cancellation;
// they are logged for manual reconciliation.
func (s *Service) CancelSale(ctx context.Context, saleID uint, req *CancelSaleRequest, actor string) error {
	sale, err := s.GetSale(ctx, saleID)
	if err != nil {
		return err
	}

	if !sale.CanBeCancelled() {
		return fmt.Errorf("sale cannot be cancelled in status %s", sale.Status)
	}

	note := "Order cancelled"
	if req.Reason != "" {
		note = fmt.Sprintf("Order cancelled: %s", req.Reason)
	}
	if err := s.UpdateStatus(ctx, saleID, SaleStatusCancelled, note, actor); err != nil {
		return err
	}

	if req.RestoreStock {
		for _, item := range sale.Items {
			if err := s.ledger.RestoreStock(ctx, item.BookID, item.Quantity); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"sale_id":  saleID,
					"book_id":  item.BookID,
					"quantity": item.Quantity,
				}).Error("Failed to restore stock for cancelled sale")
			}
		}
	}

	return nil
}
