// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/bookstore-backend/internal/domain/catalog"
	"github.com/your-org/bookstore-backend/internal/domain/member"
	"github.com/your-org/bookstore-backend/internal/domain/order"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Dependency order: base tables first.
	models := []interface{}{
		&member.Member{},
		&catalog.Book{},
		&order.Sale{},
		&order.SaleItem{},
		&order.SaleStatusHistory{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Catalog indexes
		"CREATE INDEX IF NOT EXISTS idx_books_active_title ON books(is_active, title)",
		"CREATE INDEX IF NOT EXISTS idx_books_isbn ON books(isbn)",

		// Sale indexes
		"CREATE INDEX IF NOT EXISTS idx_sales_sale_date ON sales(sale_date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_sales_status ON sales(status)",
		"CREATE INDEX IF NOT EXISTS idx_sales_transaction_id ON sales(transaction_id)",
		"CREATE INDEX IF NOT EXISTS idx_sale_items_book ON sale_items(book_id)",
		"CREATE INDEX IF NOT EXISTS idx_sale_status_history_sale ON sale_status_history(sale_id, created_at)",

		// Member indexes
		"CREATE INDEX IF NOT EXISTS idx_members_email_active ON members(email, is_active)",
	}

	for _, index := range indexes {
		if err := m.db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Println("✅ Database indexes created successfully")
	return nil
}

// SeedInitialData seeds a handful of books for development
func (m *Migration) SeedInitialData() error {
	var count int64
	if err := m.db.Model(&catalog.Book{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count books: %w", err)
	}
	if count > 0 {
		return nil
	}

	log.Println("🔄 Seeding initial catalog data...")

	books := []catalog.Book{
		{ISBN: "9780141439518", Title: "Pride and Prejudice", Author: "Jane Austen", SellPrice: 1499, MemberPrice: 1349, Currency: "AUD", StockQuantity: 12, IsActive: true},
		{ISBN: "9780571258093", Title: "The Remains of the Day", Author: "Kazuo Ishiguro", SellPrice: 2299, MemberPrice: 2069, Currency: "AUD", StockQuantity: 5, IsActive: true},
		{ISBN: "9780732286286", Title: "The Book Thief", Author: "Markus Zusak", SellPrice: 1999, MemberPrice: 1799, Currency: "AUD", StockQuantity: 8, IsActive: true},
	}

	for _, book := range books {
		if err := m.db.Create(&book).Error; err != nil {
			return fmt.Errorf("failed to seed book %s: %w", book.ISBN, err)
		}
	}

	log.Println("✅ Initial catalog data seeded")
	return nil
}
