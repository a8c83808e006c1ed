package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/smartcooking/backend/internal/api"
	"github.com/pageza/smartcooking/backend/internal/metrics"
	"github.com/pageza/smartcooking/backend/internal/middleware"
)

// Handlers groups the HTTP handlers mounted under /api
type Handlers struct {
	Auth     *api.AuthHandler
	Recipes  *api.RecipeHandler
	Payments *api.PaymentHandler
	Health   *api.HealthHandler
}

// Options carries the cross-cutting pieces of the router. Nil limiters are skipped.
type Options struct {
	Logger            zerolog.Logger
	CORSOrigins       []string
	Authenticator     middleware.Authenticator
	AuthLimiter       *middleware.IPRateLimiter
	GenerationLimiter *middleware.RateLimiter
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestLogger(opts.Logger),
		middleware.Recovery(),
		metrics.Middleware(),
		middleware.CORS(opts.CORSOrigins),
	)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiGroup := router.Group("/api")
	apiGroup.GET("/", h.Health.Root)
	apiGroup.GET("/health", h.Health.Health)
	apiGroup.GET("/ready", h.Health.Ready)

	requireAuth := middleware.AuthMiddleware(opts.Authenticator)

	// Auth routes
	auth := apiGroup.Group("/auth")
	{
		if opts.AuthLimiter != nil {
			auth.POST("/register", opts.AuthLimiter.Middleware(), h.Auth.Register)
			auth.POST("/login", opts.AuthLimiter.Middleware(), h.Auth.Login)
		} else {
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}
		auth.GET("/me", requireAuth, h.Auth.Me)
	}

	// Recipe routes
	recipes := apiGroup.Group("/recipes")
	{
		generate := []gin.HandlerFunc{requireAuth}
		if opts.GenerationLimiter != nil {
			generate = append(generate, opts.GenerationLimiter.RateLimitMiddleware())
		}
		recipes.POST("/generate", append(generate, h.Recipes.Generate)...)
		recipes.POST("/:id/save", requireAuth, h.Recipes.Save)
		recipes.GET("/saved", requireAuth, h.Recipes.ListSaved)
		recipes.DELETE("/saved/:id", requireAuth, h.Recipes.Unsave)
		recipes.GET("/history", requireAuth, h.Recipes.ListHistory)
		recipes.GET("/shared/:id", middleware.OptionalAuth(opts.Authenticator), h.Recipes.GetShared)
	}

	// Payment routes
	payments := apiGroup.Group("/payments")
	{
		payments.POST("/checkout", requireAuth, h.Payments.Checkout)
		payments.GET("/status/:sessionId", requireAuth, h.Payments.Status)
	}
	apiGroup.POST("/webhook/stripe", h.Payments.Webhook)

	return router
}
