package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	gitlabadapter "github.com/avolkov/labchat/internal/adapter/driven/gitlab"
	"github.com/avolkov/labchat/internal/adapter/driven/ollama"
	sqliteadapter "github.com/avolkov/labchat/internal/adapter/driven/sqlite"
	httphandler "github.com/avolkov/labchat/internal/adapter/driving/http"
	"github.com/avolkov/labchat/internal/application"
	"github.com/avolkov/labchat/internal/config"
	"github.com/avolkov/labchat/internal/crypto"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"ollama_url", cfg.OllamaURL,
		"ollama_model", cfg.OllamaModel,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Token cipher for credentials at rest.
	cipher, err := crypto.NewTokenCipher(cfg.SecretKey)
	if err != nil {
		return err
	}

	// 6. Wire driven adapters.
	userStore := sqliteadapter.NewUserRepo(db)
	configStore := sqliteadapter.NewConfigRepo(db)
	chatStore := sqliteadapter.NewChatRepo(db)
	validator := gitlabadapter.NewValidator(cfg.ValidateTimeout, slog.Default())
	gitlabClient := gitlabadapter.NewClient()
	llm := ollama.NewClient(cfg.OllamaURL, cfg.OllamaModel)

	// 7. Application services.
	authSvc := application.NewAuthService(userStore, cfg.JWTSecret, cfg.JWTTTL, slog.Default())
	configSvc := application.NewConfigService(configStore, validator, cipher, slog.Default())
	chatSvc := application.NewChatService(chatStore, configStore, llm, gitlabClient, cipher, slog.Default())

	// 8. HTTP handler with routes and middleware.
	apiHandler := httphandler.NewHandler(authSvc, configSvc, chatSvc, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Chat responses wait on the model backend, which can take minutes.
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("labchat started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
