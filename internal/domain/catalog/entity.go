// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// Book represents a catalog entry
type Book struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ISBN          string `gorm:"uniqueIndex;not null;size:20" json:"isbn"`
	Title         string `gorm:"not null;size:255" json:"title"`
	Author        string `gorm:"not null;size:255" json:"author"`
	Description   string `gorm:"type:text" json:"description"`
	SellPrice     int64  `gorm:"not null" json:"sell_price"` // Price in minor units (cents)
	MemberPrice   int64  `gorm:"not null" json:"member_price"`
	Currency      string `gorm:"size:3;not null" json:"currency"`
	StockQuantity int    `gorm:"not null;default:0" json:"stock_quantity"`
	IsActive      bool   `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	// UpdatedAt doubles as the optimistic-lock version token for stock writes.
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Book) TableName() string {
	return "books"
}

// PriceFor returns the unit price for the given pricing tier
func (b *Book) PriceFor(member bool) int64 {
	if member && b.MemberPrice > 0 {
		return b.MemberPrice
	}
	return b.SellPrice
}

// IsInStock checks whether any purchasable units remain
func (b *Book) IsInStock() bool {
	return b.StockQuantity > 0
}

// GetFormattedPrice returns the retail price as a float
func (b *Book) GetFormattedPrice() float64 {
	return float64(b.SellPrice) / 100
}
