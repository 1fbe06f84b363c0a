package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "reviewhub/docs"
	"reviewhub/internal/handler"
	"reviewhub/internal/middleware"
	"reviewhub/internal/service"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Review       *handler.ReviewHandler
	ReviewUpload *handler.ReviewUploadHandler
	Health       *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(authSvc service.AuthService, h Handlers, allowedOrigins []string) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	// API docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.RefreshToken)
	auth.GET("/me", middleware.AuthMiddleware(authSvc), h.Auth.Me)

	// Progress streams accept the token as a query parameter too.
	v1.GET("/products/:id/reviews/upload/progress/:taskId",
		middleware.StreamAuthMiddleware(authSvc), h.ReviewUpload.Progress)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	protected.GET("/categories", h.Product.ListCategories)

	products := protected.Group("/products")
	products.POST("", h.Product.Create)
	products.GET("", h.Product.List)
	products.GET("/:id", h.Product.GetByID)
	products.PUT("/:id", h.Product.Update)
	products.DELETE("/:id", h.Product.Delete)

	// Review routes
	products.POST("/:id/reviews/upload", h.ReviewUpload.Upload)
	products.GET("/:id/reviews", h.Review.List)
	products.GET("/:id/reviews/files", h.Review.ListFiles)

	return r
}
