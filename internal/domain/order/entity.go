// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleStatus represents the sale status
type SaleStatus string

const (
	SaleStatusPending    SaleStatus = "pending"
	SaleStatusProcessing SaleStatus = "processing"
	SaleStatusCompleted  SaleStatus = "completed"
	SaleStatusCancelled  SaleStatus = "cancelled"
	SaleStatusRefunded   SaleStatus = "refunded"
)

// PriceType records which pricing tier a line item was sold at
type PriceType string

const (
	PriceTypeRetail PriceType = "retail"
	PriceTypeMember PriceType = "member"
)

// Payment methods accepted at checkout. Only card payments go through
// gateway verification; cash is recorded as-is for in-person sales.
const (
	PaymentMethodCard = "card"
	PaymentMethodCash = "cash"
)

// Sale represents a durable order record, created exactly once per
// successful checkout
type Sale struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	OrderNumber string     `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	MemberID    *uint      `gorm:"index" json:"member_id,omitempty"` // Nullable for guest/in-person sales
	SaleDate    time.Time  `gorm:"not null" json:"sale_date"`
	Status      SaleStatus `gorm:"not null;default:'pending'" json:"status"`

	// Financial information, minor units, tax-inclusive total
	SubtotalAmount int64  `gorm:"not null" json:"subtotal_amount"`
	TaxAmount      int64  `gorm:"default:0" json:"tax_amount"`
	TotalAmount    int64  `gorm:"not null" json:"total_amount"`
	Currency       string `gorm:"size:3;not null" json:"currency"`

	// Payment
	PaymentMethod string `gorm:"not null;size:20" json:"payment_method"`
	TransactionID string `gorm:"index;size:255" json:"transaction_id,omitempty"` // External gateway id
	ReceiptURL    string `gorm:"size:500" json:"receipt_url,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items         []SaleItem          `gorm:"foreignKey:SaleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []SaleStatusHistory `gorm:"foreignKey:SaleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// SaleItem is an immutable price/quantity snapshot within a sale. Snapshots
// exist so historical orders are unaffected by later catalog price changes.
type SaleItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SaleID    uint      `gorm:"not null;index" json:"sale_id"`
	BookID    uint      `gorm:"not null;index" json:"book_id"`
	Title     string    `gorm:"not null;size:255" json:"title"`
	ISBN      string    `gorm:"size:20" json:"isbn"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"` // Snapshot at commit time
	LineTotal int64     `gorm:"not null" json:"line_total"`
	PriceType PriceType `gorm:"not null;size:10" json:"price_type"`
	CreatedAt time.Time `json:"created_at"`
}

// SaleStatusHistory is the append-only log of status changes
type SaleStatusHistory struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	SaleID    uint       `gorm:"not null;index" json:"sale_id"`
	Status    SaleStatus `gorm:"not null" json:"status"`
	Note      string     `gorm:"type:text" json:"note"`
	Actor     string     `gorm:"size:100" json:"actor"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName overrides
func (Sale) TableName() string              { return "sales" }
func (SaleItem) TableName() string          { return "sale_items" }
func (SaleStatusHistory) TableName() string { return "sale_status_history" }

// IsTerminal reports whether a status admits no further transitions
func (s SaleStatus) IsTerminal() bool {
	return s == SaleStatusCancelled || s == SaleStatusRefunded
}

// CanTransitionTo enforces the monotonic status machine: once cancelled or
// refunded, only the same terminal status is accepted.
func (s SaleStatus) CanTransitionTo(to SaleStatus) bool {
	if s.IsTerminal() {
		return s == to
	}

	switch s {
	case SaleStatusPending:
		return to == SaleStatusProcessing || to == SaleStatusCompleted || to == SaleStatusCancelled
	case SaleStatusProcessing:
		return to == SaleStatusCompleted || to == SaleStatusCancelled
	case SaleStatusCompleted:
		return to == SaleStatusRefunded
	default:
		return false
	}
}

// CanBeCancelled reports whether the sale may still be cancelled
func (s *Sale) CanBeCancelled() bool {
	return s.Status.CanTransitionTo(SaleStatusCancelled)
}

// GetFormattedTotal returns the total amount as a float
func (s *Sale) GetFormattedTotal() float64 {
	return float64(s.TotalAmount) / 100
}

// NewOrderNumber generates a unique, human-scannable order number
func NewOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("SALE-%s-%s", at.Format("20060102"), suffix)
}
