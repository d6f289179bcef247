// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-backend/internal/config"
	"github.com/your-org/bookstore-backend/internal/interfaces/http/handlers"
	"github.com/your-org/bookstore-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires all API routes
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	setupAuthRoutes(rg, db, cfg)
	setupBookRoutes(rg, db, cfg, logger)
	setupCartRoutes(rg, db, redisClient, cfg)
	setupCheckoutRoutes(rg, db, redisClient, cfg, logger)
	setupOrderRoutes(rg, db, cfg, logger)
	setupAdminRoutes(rg, db, redisClient, cfg, logger)
}

// setupAuthRoutes sets up authentication related routes
func setupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.GET("/profile", authHandler.GetProfile)
		}
	}
}

// setupBookRoutes sets up public catalog routes
func setupBookRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, logger *logrus.Logger) {
	bookHandler := handlers.NewBookHandler(db, cfg, logger)

	books := rg.Group("/books")
	{
		books.GET("", bookHandler.ListBooks)
		books.GET("/:id", bookHandler.GetBook)
	}
}

// setupCartRoutes sets up cart routes, usable by guests and members alike
func setupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(db, redisClient, cfg)

	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddItem)
		cart.PUT("/items/:id", cartHandler.UpdateItem)
		cart.DELETE("/items/:id", cartHandler.RemoveItem)
		cart.DELETE("", cartHandler.ClearCart)
	}
}

// setupCheckoutRoutes sets up the order commit route
func setupCheckoutRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	checkoutHandler := handlers.NewCheckoutHandler(db, redisClient, cfg, logger)

	checkout := rg.Group("/checkout")
	checkout.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		checkout.POST("", checkoutHandler.PlaceOrder)
	}
}

// setupOrderRoutes sets up member-facing order routes
func setupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, logger *logrus.Logger) {
	orderHandler := handlers.NewOrderHandler(db, cfg, logger)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
	}
}

// setupAdminRoutes sets up staff-only routes
func setupAdminRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	bookHandler := handlers.NewBookHandler(db, cfg, logger)
	orderHandler := handlers.NewOrderHandler(db, cfg, logger)
	settingsHandler := handlers.NewSettingsHandler(redisClient, cfg, logger)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.StaffMiddleware())
	{
		books := admin.Group("/books")
		{
			books.PUT("/:id/stock", bookHandler.AdminRestock)
		}

		orders := admin.Group("/orders")
		{
			orders.GET("", orderHandler.AdminListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PUT("/:id/status", orderHandler.AdminUpdateStatus)
			orders.PUT("/:id/cancel", orderHandler.AdminCancelOrder)
		}

		settings := admin.Group("/settings")
		{
			settings.GET("/ordering", settingsHandler.GetOrderingEnabled)
			settings.PUT("/ordering", settingsHandler.SetOrderingEnabled)
		}
	}
}
