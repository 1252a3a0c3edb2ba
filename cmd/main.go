package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ipede/oauth2-server/internal/application"
	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/ipede/oauth2-server/internal/infrastructure/assertion"
	"github.com/ipede/oauth2-server/internal/infrastructure/config"
	"github.com/ipede/oauth2-server/internal/infrastructure/database"
	"github.com/ipede/oauth2-server/internal/infrastructure/keys"
	"github.com/ipede/oauth2-server/internal/infrastructure/memory"
	"github.com/ipede/oauth2-server/internal/infrastructure/repository"
	"github.com/ipede/oauth2-server/internal/infrastructure/risc"
	"github.com/ipede/oauth2-server/internal/infrastructure/seed"
	"github.com/ipede/oauth2-server/internal/infrastructure/token"
	httprouter "github.com/ipede/oauth2-server/internal/interfaces/http"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Storage backends for client/user records and authorization codes
	var (
		clientRepo domain.ClientRepository
		userRepo   domain.UserRepository
		codeStore  domain.CodeStore
		ping       func() error
	)
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		db, err := database.NewPostgres(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if cfg.DBAutoMigrate {
			if err := db.RunMigrations(ctx); err != nil {
				logger.Fatal("Failed to run migrations", zap.Error(err))
			}
		}
		clientRepo = repository.NewClientRepository(db, logger)
		userRepo = repository.NewUserRepository(db, logger)
		codeStore = repository.NewCodeStore(db, cfg.AccessTokenValidity, logger)
		ping = db.Ping
	case config.BackendMemory:
		clientRepo = memory.NewClientRepository()
		userRepo = memory.NewUserRepository()
		codeStore = memory.NewCodeStore(cfg.AccessTokenValidity)
	default:
		logger.Fatal("Unknown storage backend", zap.String("backend", cfg.StorageBackend))
	}

	if cfg.SeedFile != "" {
		doc, err := seed.Load(cfg.SeedFile)
		if err != nil {
			logger.Fatal("Failed to load seed file", zap.String("path", cfg.SeedFile), zap.Error(err))
		}
		if err := seed.Apply(ctx, doc, clientRepo, userRepo, logger); err != nil {
			logger.Fatal("Failed to apply seed file", zap.Error(err))
		}
	}

	// Signing keys for RISC secevent tokens
	keySet, err := keys.NewSet(cfg.SigningKeyCount, cfg.RSAKeySize, logger)
	if err != nil {
		logger.Fatal("Failed to generate signing keys", zap.Error(err))
	}

	notifier := risc.NewNotifier(keySet, risc.Options{
		Issuer:      cfg.RISCIssuer,
		Workers:     cfg.RISCWorkers,
		Backoff:     cfg.RISCBackoff,
		MaxAttempts: cfg.RISCMaxAttempts,
		Timeout:     cfg.RISCTimeout,
	}, logger)

	codec, err := token.NewCodec([]byte(cfg.TokenCipherKey))
	if err != nil {
		logger.Fatal("Failed to initialize token codec", zap.Error(err))
	}

	tokenService := application.NewTokenService(
		token.NewStore(),
		codec,
		clientRepo,
		notifier,
		cfg.AccessTokenValidity,
		cfg.SweepInterval,
		logger,
	)
	tokenService.StartSweeper()

	codeService := application.NewCodeService(codeStore, cfg.CodeLength, logger)

	verifier, err := assertion.NewVerifier(ctx, cfg.AssertionIssuer, cfg.AssertionAudience, cfg.AssertionJWKSURL, logger)
	if err != nil {
		logger.Fatal("Failed to initialize assertion verifier", zap.Error(err))
	}

	// Grant handlers behind the dispatcher
	dispatcher := application.NewDispatcher(logger)
	authCodeGrant := application.NewAuthorizationCodeGrant(codeService, tokenService, logger)
	dispatcher.Register(domain.GrantTypeAuthorizationCode, authCodeGrant)
	dispatcher.Register(domain.GrantTypeImplicit, application.NewImplicitGrant(tokenService, logger))
	dispatcher.Register(domain.GrantTypeRefreshToken, application.NewRefreshTokenGrant(tokenService, logger))
	dispatcher.Register(domain.GrantTypeJWTBearer, application.NewJWTBearerGrant(verifier, userRepo, tokenService, logger))

	authenticator := application.NewClientAuthenticator(clientRepo, cfg.LinkingClientID, logger)

	router := httprouter.NewRouter(httprouter.Deps{
		Authenticator: authenticator,
		Dispatcher:    dispatcher,
		ClientRepo:    clientRepo,
		TokenService:  tokenService,
		KeySet:        keySet,
		Ping:          ping,
	}, logger)

	// Start server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.Int("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	tokenService.StopSweeper()
	if err := notifier.Close(shutdownCtx); err != nil {
		logger.Warn("Pending revocation notifications abandoned", zap.Error(err))
	}

	logger.Info("Server exited properly")
}
