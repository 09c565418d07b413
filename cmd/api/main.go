package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rwa-signing-gateway/config"
	httpHandler "rwa-signing-gateway/internal/adapter/http/handler"
	"rwa-signing-gateway/internal/adapter/signer"
	"rwa-signing-gateway/internal/adapter/storage/memory"
	pgStorage "rwa-signing-gateway/internal/adapter/storage/postgres"
	redisStorage "rwa-signing-gateway/internal/adapter/storage/redis"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/internal/service"
	"rwa-signing-gateway/pkg/logger"

	"github.com/rs/zerolog"
)

// repositories groups the storage the services run on.
type repositories struct {
	wallets      ports.WalletRepository
	policies     ports.PolicyRepository
	signingAudit ports.SigningAuditRepository
	adminAudit   ports.AdminAuditRepository
	health       []ports.HealthChecker
	close        func()
}

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("SGW_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Str("storage", cfg.Database.Driver).
		Int("port", cfg.Server.Port).
		Msg("Starting RWA Signing Gateway")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret is required")
	}

	ctx := context.Background()

	// Legacy seeds are protected by a key derived from the shared secret
	encSvc, err := service.NewSeedCipher(cfg.Legacy.SeedSecret, cfg.Legacy.KDFSalt)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize seed encryption")
	}

	repos, err := openRepositories(ctx, cfg, encSvc, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer repos.close()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Signing adapters
	vault := signer.NewVaultAdapter(cfg.Vault, nil, log)
	registry := signer.NewRegistry(signer.NewLegacyAdapter(encSvc), vault)

	health := append(repos.health, redisStorage.NewHealthCheck(rdb))
	health = append(health, vault.HealthCheckers()...)

	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	resolver := service.NewPolicyResolver(repos.policies, log)

	gateway := service.NewSigningGateway(
		tokenSvc,
		repos.wallets,
		resolver,
		registry,
		redisStorage.NewSigningRateCounter(rdb),
		redisStorage.NewSigningLock(rdb),
		redisStorage.NewSignedResultCache(rdb),
		repos.signingAudit,
		service.GatewayConfig{
			PermittedRoles: cfg.Signing.PermittedRoles,
			RateWindow:     cfg.Signing.RateWindow,
			LockTTL:        cfg.Signing.LockTTL,
			ReplayTTL:      cfg.Signing.ReplayTTL,
		},
		log,
	)

	openAPISpec, err := os.ReadFile("docs/api/openapi.yaml")
	if err != nil {
		log.Warn().Err(err).Msg("OpenAPI document not found, /swagger disabled")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Gateway:         gateway,
		WalletSvc:       service.NewWalletService(repos.wallets, log),
		PolicySvc:       service.NewPolicyService(repos.policies),
		Resolver:        resolver,
		SigningAuditSvc: service.NewSigningAuditService(repos.signingAudit),
		TokenSvc:        tokenSvc,
		AdminRoles:      cfg.Signing.AdminRoles,
		RateLimitStore:  redisStorage.NewRateLimitStore(rdb),
		RateLimit:       int64(cfg.Server.RateLimit),
		RateLimitWindow: cfg.Server.RateLimitWindow,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		HealthCheckers:  health,
		AuditSvc:        service.NewAuditService(repos.adminAudit, log),
		OpenAPISpec:     openAPISpec,
		Logger:          log,
	})

	if cfg.Server.Mode == "debug" && cfg.Database.InMemory() {
		logDevToken(tokenSvc, cfg.Signing.AdminRoles, log)
	}

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func openRepositories(ctx context.Context, cfg *config.Config, enc ports.EncryptionService, log zerolog.Logger) (*repositories, error) {
	if cfg.Database.InMemory() {
		wallets := memory.NewWalletStore()
		policies := memory.NewPolicyStore()
		if cfg.Database.SeedFile != "" {
			f, err := os.Open(cfg.Database.SeedFile)
			if err != nil {
				return nil, fmt.Errorf("opening seed file: %w", err)
			}
			defer f.Close()
			if err := memory.LoadSeed(f, enc, wallets, policies); err != nil {
				return nil, fmt.Errorf("loading seed file %s: %w", cfg.Database.SeedFile, err)
			}
			log.Info().Str("file", cfg.Database.SeedFile).Msg("Memory storage seeded")
		}
		log.Warn().Msg("Using in-memory storage; audit entries are lost on restart")
		return &repositories{
			wallets:      wallets,
			policies:     policies,
			signingAudit: memory.NewSigningAuditStore(),
			adminAudit:   memory.NewAdminAuditStore(),
			close:        func() {},
		}, nil
	}

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	log.Info().Msg("PostgreSQL connected")

	if err := pgStorage.Migrate(ctx, pool, log); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}

	return &repositories{
		wallets:      pgStorage.NewWalletRepo(pool),
		policies:     pgStorage.NewPolicyRepo(pool),
		signingAudit: pgStorage.NewSigningAuditRepo(pool),
		adminAudit:   pgStorage.NewAdminAuditRepo(pool),
		health:       []ports.HealthChecker{pgStorage.NewHealthCheck(pool)},
		close:        pool.Close,
	}, nil
}

// logDevToken prints an admin bearer token so a local instance can be driven with curl.
func logDevToken(tokens ports.TokenService, adminRoles []string, log zerolog.Logger) {
	role := "admin"
	if len(adminRoles) > 0 {
		role = adminRoles[0]
	}
	token, expiresAt, err := tokens.Generate(ports.Identity{UserID: "dev-admin", Name: "Local Developer", Role: role})
	if err != nil {
		log.Warn().Err(err).Msg("could not issue development token")
		return
	}
	log.Info().Str("token", token).Time("expires_at", expiresAt).Msg("Development token (debug mode only)")
}
