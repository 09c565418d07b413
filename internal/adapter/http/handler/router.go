package handler

import (
	"time"

	"rwa-signing-gateway/internal/adapter/http/middleware"
	redisStore "rwa-signing-gateway/internal/adapter/storage/redis"
	"rwa-signing-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Gateway         ports.SigningGateway
	WalletSvc       ports.WalletService
	PolicySvc       ports.PolicyService
	Resolver        ports.PolicyResolver
	SigningAuditSvc ports.SigningAuditService
	TokenSvc        ports.TokenService
	AdminRoles      []string
	RateLimitStore  *redisStore.RateLimitStore // nil = rate limiting disabled
	RateLimit       int64
	RateLimitWindow time.Duration
	MaxBodyBytes    int64
	HealthCheckers  []ports.HealthChecker
	AuditSvc        ports.AuditService // nil = admin audit logging disabled
	OpenAPISpec     []byte
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = 1 << 20
	}
	if deps.RateLimitWindow <= 0 {
		deps.RateLimitWindow = time.Minute
	}

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(deps.MaxBodyBytes))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	docs := NewDocsHandler(deps.OpenAPISpec)
	r.GET("/swagger", docs.UI)
	r.GET("/swagger/spec", docs.Spec)

	rules := middleware.DefaultRateLimitRules(deps.RateLimit, deps.RateLimitWindow)

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// --- Signing RPC (token checked by the gateway) ---
	signingHandler := NewSigningHandler(deps.Gateway, deps.WalletSvc, deps.Resolver, deps.Logger)
	v1.POST("/sign-transaction", rl("signing"), signingHandler.SignTransaction)

	// --- Bearer-authenticated routes ---
	auth := middleware.BearerAuth(deps.TokenSvc, deps.Logger)
	admin := middleware.RequireRole(deps.AdminRoles...)

	v1.POST("/batches/sign", auth, rl("batches"), signingHandler.SignBatch)

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets", auth)
	{
		wallets.GET("", rl("read"), walletHandler.List)
		wallets.GET("/:id", rl("read"), walletHandler.Get)
		wallets.POST("/:id/suspend", admin, rl("admin"), walletHandler.Suspend)
		wallets.POST("/:id/archive", admin, rl("admin"), walletHandler.Archive)
		wallets.POST("/:id/reactivate", admin, rl("admin"), walletHandler.Reactivate)
	}

	policyHandler := NewPolicyHandler(deps.PolicySvc, deps.Resolver)
	policies := v1.Group("/policies", auth)
	{
		policies.GET("", rl("read"), policyHandler.List)
		policies.GET("/resolve", rl("read"), policyHandler.Resolve)
		policies.GET("/:id", rl("read"), policyHandler.Get)
		policies.POST("", admin, rl("admin"), policyHandler.Create)
		policies.PUT("/:id", admin, rl("admin"), policyHandler.Update)
		policies.DELETE("/:id", admin, rl("admin"), policyHandler.Deactivate)
	}

	auditHandler := NewAuditHandler(deps.SigningAuditSvc)
	v1.GET("/audit/signing", auth, admin, rl("read"), auditHandler.ListSigning)

	return r
}
