// internal/interfaces/http/handlers/order.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-backend/internal/config"
	"github.com/your-org/bookstore-backend/internal/domain/catalog"
	"github.com/your-org/bookstore-backend/internal/domain/order"
	"github.com/your-org/bookstore-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// OrderHandler handles sale endpoints
type OrderHandler struct {
	orderService *order.Service
	config       *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *OrderHandler {
	ledger := catalog.NewLedger(catalog.NewGormStore(db), logger)
	return &OrderHandler{
		orderService: order.NewService(db, cfg, ledger, logger),
		config:       cfg,
	}
}

// ListOrders handles GET /orders, scoped to the authenticated member
func (h *OrderHandler) ListOrders(c *gin.Context) {
	memberID, ok := middleware.GetMemberIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	var req order.ListSalesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}
	req.MemberID = memberID

	response, err := h.orderService.ListSales(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	sale, ok := h.loadSale(c)
	if !ok {
		return
	}

	// Members can only see their own orders; staff can see everything.
	if !middleware.IsStaffFromContext(c) {
		memberID, authed := middleware.GetMemberIDFromContext(c)
		if !authed || sale.MemberID == nil || *sale.MemberID != memberID {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    sale,
	})
}

// AdminListOrders handles GET /admin/orders with full filtering
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	var req order.ListSalesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.orderService.ListSales(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// AdminUpdateStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	var req order.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	actor, _ := middleware.GetMemberEmailFromContext(c)
	if err := h.orderService.UpdateStatus(c.Request.Context(), uint(id), req.Status, req.Note, actor); err != nil {
		if errors.Is(err, order.ErrSaleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
	})
}

// AdminCancelOrder handles PUT /admin/orders/:id/cancel
func (h *OrderHandler) AdminCancelOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	var req order.CancelSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	actor, _ := middleware.GetMemberEmailFromContext(c)
	if err := h.orderService.CancelSale(c.Request.Context(), uint(id), &req, actor); err != nil {
		if errors.Is(err, order.ErrSaleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
	})
}

// loadSale resolves the :id path parameter, accepting a numeric ID or an
// order number
func (h *OrderHandler) loadSale(c *gin.Context) (*order.Sale, bool) {
	param := c.Param("id")

	var sale *order.Sale
	var err error
	if id, parseErr := strconv.ParseUint(param, 10, 32); parseErr == nil {
		sale, err = h.orderService.GetSale(c.Request.Context(), uint(id))
	} else {
		sale, err = h.orderService.GetSaleByNumber(c.Request.Context(), param)
	}

	if err != nil {
		if errors.Is(err, order.ErrSaleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve order",
		})
		return nil, false
	}

	return sale, true
}
