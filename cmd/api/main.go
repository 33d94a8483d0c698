// Package main はCMSサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/file-cms/internal/auth"
	"github.com/yourusername/file-cms/internal/config"
	"github.com/yourusername/file-cms/internal/document"
	"github.com/yourusername/file-cms/internal/logger"
	"github.com/yourusername/file-cms/internal/storage"
	"github.com/yourusername/file-cms/internal/web"
)

const readHeaderTimeout = 10 * time.Second

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	if cfg.SessionSecretDerived {
		log.Warn("SESSION_SECRET is not set; using a per-process key (sessions will not survive restarts)")
	}

	creds, err := auth.LoadCredentials(cfg.UsersFile)
	if err != nil {
		return err
	}
	log.Info("credentials loaded", zap.String("file", cfg.UsersFile), zap.Int("users", creds.Len()))

	locker, closeLocker, err := setupLocker(cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	docs, err := storage.NewLocal(cfg.DataDir, locker)
	if err != nil {
		return err
	}

	sessionStore, err := setupSessions(cfg)
	if err != nil {
		return err
	}

	router, err := web.NewRouter(web.Options{
		Documents:      docs,
		Auth:           auth.NewManager(creds, auth.BcryptVerifier{}, log),
		Sessions:       sessionStore,
		Renderer:       document.NewRenderer(),
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins(),
		TrustedProxies: cfg.TrustedProxyList(),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.String("mode", cfg.GinMode),
			zap.String("data_dir", docs.Root()),
			zap.String("session_store", cfg.SessionStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
