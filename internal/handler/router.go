package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/marketplace-api/internal/auth"
	"github.com/flicky/marketplace-api/internal/metrics"
	"github.com/flicky/marketplace-api/internal/middleware"
	"github.com/flicky/marketplace-api/internal/model"
)

type Handlers struct {
	Auth    *AuthHandler
	Product *ProductHandler
	Cart    *CartHandler
	Order   *OrderHandler
	Profile *ProfileHandler
	Stats   *StatsHandler
	Health  *HealthHandler
}

type RouterConfig struct {
	Tokens  *auth.TokenManager
	Log     *slog.Logger
	Metrics *metrics.ServerMetrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(h Handlers, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Log != nil {
		router.Use(middleware.RequestLogger(cfg.Log))
	}
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}

	router.GET("/", Root)
	router.GET("/healthz", h.Health.Healthz)
	router.GET("/readyz", h.Health.Readyz)
	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	router.POST("/signup", h.Auth.Signup)
	router.POST("/login", h.Auth.Login)

	router.GET("/products", h.Product.List)
	router.GET("/products/:id", h.Product.GetByID)

	router.POST("/add-to-cart", h.Cart.AddItem)
	router.GET("/cart/:id", h.Cart.GetCart)
	router.DELETE("/cart/:cart_id", h.Cart.RemoveItem)

	router.POST("/place-order", h.Order.PlaceOrder)

	router.GET("/profile/:id", h.Profile.Get)

	authed := router.Group("", middleware.RequireAuth(cfg.Tokens))
	authed.PUT("/profile/:id", h.Profile.Update)

	seller := authed.Group("", middleware.RequireRole(model.RoleShopkeeper))
	seller.POST("/add-product", h.Product.Create)
	seller.PUT("/update-product/:id", h.Product.Update)
	seller.DELETE("/delete-product/:id", h.Product.Delete)
	seller.GET("/orders", h.Order.ListSellerOrders)
	seller.PUT("/update-order/:id", h.Order.UpdateStatus)
	seller.GET("/order/:id", h.Order.GetOrder)
	seller.GET("/seller/stats", h.Stats.SellerStats)

	return router
}
