// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-backend/internal/config"
	"github.com/your-org/bookstore-backend/internal/domain/cart"
	"github.com/your-org/bookstore-backend/internal/domain/catalog"
	"github.com/your-org/bookstore-backend/internal/domain/checkout"
	"github.com/your-org/bookstore-backend/internal/domain/order"
	"github.com/your-org/bookstore-backend/internal/domain/payment"
	"github.com/your-org/bookstore-backend/internal/domain/settings"
	"github.com/your-org/bookstore-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// CheckoutHandler handles the order commit endpoint
type CheckoutHandler struct {
	service *checkout.Service
	config  *config.Config
}

// NewCheckoutHandler wires the full checkout collaborator graph
func NewCheckoutHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *CheckoutHandler {
	bookStore := catalog.NewGormStore(db)
	ledger := catalog.NewLedger(bookStore, logger)
	orderService := order.NewService(db, cfg, ledger, logger)

	gateway := payment.NewHTTPGateway(cfg)
	verifier := payment.NewVerifier(gateway, orderService, logger)

	service := checkout.NewService(
		settings.NewService(redisClient, cfg, logger),
		cart.NewRedisStore(redisClient, cfg),
		cart.NewValidator(bookStore),
		verifier,
		ledger,
		orderService,
		cfg,
		logger,
	)

	return &CheckoutHandler{
		service: service,
		config:  cfg,
	}
}

// PlaceOrder handles POST /checkout. The response body is always the
// structured checkout result; commit failures map to 422 with the failure
// reason inside.
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sessionID, err := c.Cookie("session_id")
	if err != nil || sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No cart session found",
		})
		return
	}
	req.SessionID = sessionID

	if req.PaymentMethod == order.PaymentMethodCard && req.TransactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Card payments require a transaction ID",
		})
		return
	}

	var memberID *uint
	if id, ok := middleware.GetMemberIDFromContext(c); ok {
		memberID = &id
	}

	result := h.service.PlaceOrder(c.Request.Context(), memberID, &req)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	c.JSON(http.StatusCreated, result)
}
