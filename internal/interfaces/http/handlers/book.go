// internal/interfaces/http/handlers/book.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-backend/internal/config"
	"github.com/your-org/bookstore-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// BookHandler handles catalog endpoints
type BookHandler struct {
	store  *catalog.GormStore
	ledger *catalog.Ledger
	config *config.Config
}

// NewBookHandler creates a new book handler
func NewBookHandler(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *BookHandler {
	store := catalog.NewGormStore(db)
	return &BookHandler{
		store:  store,
		ledger: catalog.NewLedger(store, logger),
		config: cfg,
	}
}

// ListBooks handles GET /books
func (h *BookHandler) ListBooks(c *gin.Context) {
	var req catalog.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	books, total, err := h.store.ListBooks(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve books",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Books retrieved successfully",
		"data": gin.H{
			"books": books,
			"total": total,
			"page":  req.Page,
			"limit": req.Limit,
		},
	})
}

// GetBook handles GET /books/:id
func (h *BookHandler) GetBook(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid book ID",
		})
		return
	}

	book, err := h.store.FindBookByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, catalog.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Book not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve book",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Book retrieved successfully",
		"data":    book,
	})
}

// RestockRequest represents a staff stock adjustment
type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// AdminRestock handles PUT /admin/books/:id/stock. Restocking goes through
// the same conditional-write ledger as checkout so concurrent sales cannot
// clobber the adjustment.
func (h *BookHandler) AdminRestock(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid book ID",
		})
		return
	}

	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := h.ledger.RestoreStock(c.Request.Context(), uint(id), req.Quantity); err != nil {
		if errors.Is(err, catalog.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Book not found",
			})
			return
		}
		c.JSON(http.StatusConflict, gin.H{
			"error": "Failed to adjust stock, please retry",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock adjusted successfully",
	})
}
