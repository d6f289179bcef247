// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-backend/internal/config"
	"github.com/your-org/bookstore-backend/internal/domain/cart"
	"github.com/your-org/bookstore-backend/internal/domain/catalog"
	"github.com/your-org/bookstore-backend/internal/domain/order"
	"github.com/your-org/bookstore-backend/internal/domain/payment"
)

// StockLedger is the stock mutation contract the orchestrator drives
type StockLedger interface {
	DecrementStock(ctx context.Context, bookID uint, quantity int) error
	RestoreStock(ctx context.Context, bookID uint, quantity int) error
}

// SaleStore records committed orders
type SaleStore interface {
	CreateSale(ctx context.Context, sale *order.Sale) error
}

// PaymentVerifier confirms external charges
type PaymentVerifier interface {
	Verify(ctx context.Context, transactionID string, expectedAmount int64, expectedCurrency string) (*payment.Verification, error)
}

// FlagSource exposes the store-wide ordering switch
type FlagSource interface {
	OrderingEnabled(ctx context.Context) bool
}

// Request represents a checkout request
type Request struct {
	SessionID     string
	PaymentMethod string `json:"payment_method" binding:"required,oneof=card cash"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// Result is the structured checkout outcome. Failures are encoded here, not
// raised: no partial success is ever reported as success, and warnings only
// ever accompany a successful commit.
type Result struct {
	Success     bool     `json:"success"`
	OrderID     uint     `json:"order_id,omitempty"`
	OrderNumber string   `json:"order_number,omitempty"`
	Total       int64    `json:"total,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Service orchestrates the order commit sequence: feature flag, cart
// validation, tax, payment verification, stock decrement, sale record, cart
// clear
type Service struct {
	flags     FlagSource
	carts     cart.Store
	validator *cart.Validator
	verifier  PaymentVerifier
	ledger    StockLedger
	sales     SaleStore
	config    *config.Config
	logger    *logrus.Logger
}

// NewService creates a new checkout orchestrator
func NewService(flags FlagSource, carts cart.Store, validator *cart.Validator, verifier PaymentVerifier,
	ledger StockLedger, sales SaleStore, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		flags:     flags,
		carts:     carts,
		validator: validator,
		verifier:  verifier,
		ledger:    ledger,
		sales:     sales,
		config:    cfg,
		logger:    logger,
	}
}

func failure(message string) *Result {
	return &Result{Success: false, Error: message}
}

// PlaceOrder runs the commit state machine. Card payments are verified
// against the computed tax-inclusive total before any stock moves; cash
// sales skip gateway verification but follow the same path otherwise. All
// stock decrements resolve before the sale record is written, and the sale,
// its line items, and the first status history entry commit in one database
// transaction, so a failure never leaves orphaned line items. Decrement or
// record failures compensate by restoring the already-decremented lines.
func (s *Service) PlaceOrder(ctx context.Context, memberID *uint, req *Request) *Result {
	if !s.flags.OrderingEnabled(ctx) {
		return failure("Ordering is currently unavailable")
	}

	c, err := s.carts.ReadCart(ctx, req.SessionID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read cart at checkout")
		return failure("Failed to read your cart, please try again")
	}

	validation, err := s.validator.Validate(ctx, c)
	if err != nil {
		return failure(validationMessage(err))
	}

	// The same tax function runs here and nowhere else, so the amount the
	// verifier checks and the amount the sale records cannot drift.
	currency := validation.ValidItems[0].Currency
	if currency == "" {
		currency = s.config.Store.Currency
	}
	taxCalc := CalculateTax(validation.Subtotal(), currency)

	if req.PaymentMethod == order.PaymentMethodCard {
		verification, err := s.verifier.Verify(ctx, req.TransactionID, taxCalc.TotalWithTax, currency)
		if err != nil {
			s.logger.WithError(err).Error("Payment verification errored")
			return failure(payment.ReasonGatewayError)
		}
		if !verification.Valid {
			return failure(verification.Reason)
		}

		return s.commit(ctx, memberID, req, validation, taxCalc, currency, verification.ReceiptURL)
	}

	return s.commit(ctx, memberID, req, validation, taxCalc, currency, "")
}

// commit performs the stock decrement loop and the transactional sale write
func (s *Service) commit(ctx context.Context, memberID *uint, req *Request,
	validation *cart.Validation, taxCalc TaxCalculation, currency, receiptURL string) *Result {

	decremented := make([]cart.ValidatedItem, 0, len(validation.ValidItems))
	for _, item := range validation.ValidItems {
		if err := s.ledger.DecrementStock(ctx, item.BookID, item.Quantity); err != nil {
			s.rollbackDecrements(ctx, decremented)
			s.alertIfPaymentCaptured(req, err)
			return failure(decrementMessage(err, item.Title))
		}
		decremented = append(decremented, item)
	}

	sale := s.buildSale(memberID, req, validation, taxCalc, currency, receiptURL)
	if err := s.sales.CreateSale(ctx, sale); err != nil {
		s.rollbackDecrements(ctx, decremented)
		s.alertIfPaymentCaptured(req, err)
		s.logger.WithError(err).Error("Failed to record sale")
		return failure("Failed to record your order, please contact the store")
	}

	warnings := validation.Warnings
	if err := s.carts.ClearCart(ctx, req.SessionID); err != nil {
		// The order is committed; a stale cart is an annoyance, not a failure.
		s.logger.WithError(err).WithField("order_number", sale.OrderNumber).
			Warn("Failed to clear cart after order commit")
		warnings = append(warnings, "Your order was placed but the cart could not be cleared")
	}

	return &Result{
		Success:     true,
		OrderID:     sale.ID,
		OrderNumber: sale.OrderNumber,
		Total:       sale.TotalAmount,
		Warnings:    warnings,
	}
}

func (s *Service) buildSale(memberID *uint, req *Request, validation *cart.Validation,
	taxCalc TaxCalculation, currency, receiptURL string) *order.Sale {

	now := time.Now().UTC()
	status := order.SaleStatusPending
	if s.config.Store.AutoCompleteOrders {
		status = order.SaleStatusCompleted
	}

	items := make([]order.SaleItem, 0, len(validation.ValidItems))
	for _, item := range validation.ValidItems {
		priceType := order.PriceTypeRetail
		if item.IsMemberPrice {
			priceType = order.PriceTypeMember
		}
		items = append(items, order.SaleItem{
			BookID:    item.BookID,
			Title:     item.Title,
			ISBN:      item.ISBN,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
			PriceType: priceType,
		})
	}

	return &order.Sale{
		OrderNumber:    order.NewOrderNumber(now),
		MemberID:       memberID,
		SaleDate:       now,
		Status:         status,
		SubtotalAmount: validation.Subtotal(),
		TaxAmount:      taxCalc.TaxAmount,
		TotalAmount:    taxCalc.TotalWithTax,
		Currency:       currency,
		PaymentMethod:  req.PaymentMethod,
		TransactionID:  req.TransactionID,
		ReceiptURL:     receiptURL,
		Items:          items,
	}
}

// rollbackDecrements compensates a failed commit by restoring every line
// already taken from stock
func (s *Service) rollbackDecrements(ctx context.Context, decremented []cart.ValidatedItem) {
	for _, item := range decremented {
		if err := s.ledger.RestoreStock(ctx, item.BookID, item.Quantity); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"book_id":  item.BookID,
				"quantity": item.Quantity,
			}).Error("Failed to restore stock during checkout rollback")
		}
	}
}

// alertIfPaymentCaptured flags the money-moved-but-no-order gap for card
// payments. There is no automatic refund; operations must reconcile.
func (s *Service) alertIfPaymentCaptured(req *Request, cause error) {
	if req.PaymentMethod != order.PaymentMethodCard {
		return
	}
	s.logger.WithError(cause).WithField("transaction_id", req.TransactionID).
		Error("OPERATIONAL ALERT: payment verified but order commit failed, manual reconciliation required")
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, cart.ErrCartExpired):
		return "Your cart has expired, please start again"
	case errors.Is(err, cart.ErrEmptyCart):
		return "Your cart is empty"
	case errors.Is(err, cart.ErrAllItemsGone):
		return "None of the items in your cart are still available"
	case errors.Is(err, catalog.ErrInsufficientStock):
		return "Some items in your cart no longer have enough stock"
	default:
		return "Failed to validate your cart, please try again"
	}
}

func decrementMessage(err error, title string) string {
	switch {
	case errors.Is(err, catalog.ErrInsufficientStock):
		return "'" + title + "' sold out while you were checking out"
	case errors.Is(err, catalog.ErrConcurrentModification):
		return "The store is busy, please try again"
	case errors.Is(err, catalog.ErrBookNotFound):
		return "'" + title + "' is no longer available"
	default:
		return "Failed to reserve stock, please try again"
	}
}
