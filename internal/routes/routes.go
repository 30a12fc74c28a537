package routes

import (
	"net/http"
	"slices"
	"time"

	"github.com/01moynul/greens-storefront/internal/config"
	"github.com/01moynul/greens-storefront/internal/handlers"
	"github.com/01moynul/greens-storefront/internal/logger"
	"github.com/01moynul/greens-storefront/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// corsConfig lets the storefront front end call the API and read the
// session and request ID headers.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.SessionHeader, logger.RequestIDHeader},
		ExposeHeaders: []string{middleware.SessionHeader, logger.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// SetupRouter wires every route. limiter guards the endpoints that are
// expensive or worth brute forcing.
func SetupRouter(h *handlers.Handlers, cfg *config.Config, limiter *middleware.RateLimiter, log *zap.Logger) *gin.Engine {
	router := gin.New()

	// The request logger wraps Recovery so recovered panics are logged as 500s.
	router.Use(logger.RequestLogger(log))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))

	// Locally stored product images.
	if !cfg.S3Enabled() {
		router.Static("/uploads", cfg.UploadDir)
	}

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})
		v1.GET("/health", h.Health)

		// --- Catalog Routes (Public) ---
		v1.GET("/categories", h.ListCategories)
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)

		// --- Receipt (Public, the order ID is the key) ---
		v1.GET("/orders/:id", h.GetOrder)

		// --- Shopper Routes (cart session) ---
		shop := v1.Group("")
		shop.Use(middleware.CartSession())
		{
			shop.GET("/cart", h.GetCart)
			shop.POST("/cart/items", h.AddToCart)
			shop.PUT("/cart/items/:id", h.UpdateCartItem)
			shop.DELETE("/cart/items/:id", h.DeleteCartItem)
			shop.DELETE("/cart", h.ClearCart)

			shop.POST("/checkout", limiter.Middleware(), h.Checkout)
			shop.POST("/assistant/chat", limiter.Middleware(), h.ChatAssistant)
		}

		// --- Admin Routes ---
		v1.POST("/admin/login", limiter.Middleware(), h.AdminLogin)

		admin := v1.Group("/admin")
		admin.Use(middleware.AdminMiddleware(h.Tokens))
		{
			admin.GET("/dashboard-stats", h.GetDashboardStats)

			admin.POST("/categories", h.CreateCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)

			admin.POST("/products", h.CreateProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)
			admin.POST("/products/:id/image", h.UploadProductImage)

			admin.GET("/orders", h.ListOrders)
			admin.GET("/orders/:id", h.GetOrderDetails)
			admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
		}
	}

	return router
}
