// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jradiance/jradiance-backend/internal/config"
	"github.com/jradiance/jradiance-backend/internal/handlers"
	"github.com/jradiance/jradiance-backend/internal/middleware"
	"github.com/jradiance/jradiance-backend/internal/services"
	"github.com/jradiance/jradiance-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	storageService, _ := services.NewStorageService(cfg)
	revalidateService := services.NewRevalidateService(cfg)
	permissionService := services.NewPermissionService(db)
	auditService := services.NewAuditService(db, permissionService)

	authService := services.NewAuthService(db, cfg)
	productService := services.NewProductService(db, permissionService, auditService, revalidateService)
	orderService := services.NewOrderService(db, cfg, permissionService, auditService, revalidateService)
	paymentService := services.NewPaymentService(cfg, orderService)
	adminService := services.NewAdminService(db, permissionService, auditService)
	reportService := services.NewReportService(db, permissionService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, storageService)
	orderHandler := handlers.NewOrderHandler(orderService, paymentService)
	adminHandler := handlers.NewAdminHandler(adminService, auditService, reportService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limits := middleware.NewRateLimiters(cfg.RateLimit)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(limits.General)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(limits.Auth)
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Public catalog
		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/:id", productHandler.GetProduct)
		}

		// Customer order routes. The guard redirects unauthenticated
		// browsers to the storefront login page.
		orders := v1.Group("/orders")
		orders.Use(middleware.CustomerGuard(db))
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("", orderHandler.GetMyOrders)
			orders.GET("/:id", orderHandler.GetMyOrder)
			orders.POST("/:id/checkout-session", orderHandler.CreateCheckoutSession)
		}

		// Payment gateway callback. Secret-authenticated, no session.
		v1.POST("/payments/callback", orderHandler.GatewayCallback)

		// Staff login lives outside the guard so staff can reach it while
		// logged out.
		v1.POST("/admin/login", limits.Auth, authHandler.AdminLogin)

		// Admin back office. Every request passes through the page guard:
		// fresh role check, redirect semantics, page-access audit trail.
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminGuard(db, auditService))
		{
			admin.GET("/products", productHandler.AdminGetProducts)
			admin.POST("/products", productHandler.CreateProduct)
			admin.PUT("/products/:id", productHandler.UpdateProduct)
			admin.PUT("/products/:id/active", productHandler.SetProductActive)
			admin.DELETE("/products/:id", productHandler.DeleteProduct)
			admin.POST("/products/upload-images", limits.Upload, productHandler.UploadProductImages)

			admin.GET("/orders", orderHandler.AdminGetOrders)
			admin.GET("/orders/:id", orderHandler.AdminGetOrder)
			admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
			admin.PUT("/orders/:id/payment-status", orderHandler.UpdatePaymentStatus)
			admin.POST("/orders/:id/cancel", orderHandler.CancelOrder)
			admin.POST("/orders/:id/refund", orderHandler.ProcessRefund)

			admin.GET("/users", adminHandler.GetUsers)
			admin.PUT("/users/:id/role", adminHandler.UpdateUserRole)
			admin.PUT("/users/:id/active", adminHandler.SetUserActive)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)

			admin.GET("/audit-logs", adminHandler.GetAuditLogs)

			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)
			admin.GET("/reports/sales", adminHandler.GetSalesReport)
		}
	}

	return r
}
