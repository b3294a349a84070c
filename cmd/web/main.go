package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lingonote/lingonote/internal/api"
	"github.com/lingonote/lingonote/internal/auth"
	"github.com/lingonote/lingonote/internal/config"
	"github.com/lingonote/lingonote/internal/core"
	"github.com/lingonote/lingonote/internal/db"
	"github.com/lingonote/lingonote/internal/logging"
	"github.com/lingonote/lingonote/internal/translate"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	// The database is opened lazily on first request
	conn := db.NewConnector(db.URLOpener(cfg.Database.URL))
	defer func() {
		if err := conn.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close database")
		}
	}()

	engineType, err := translate.ParseEngineType(cfg.Translator.Engine)
	if err != nil {
		return err
	}
	engine, err := translate.NewEngine(ctx, engineConfig(engineType, cfg.Translator, logger))
	if err != nil {
		return err
	}

	processor := core.NewProcessor(conn, translate.NewService(engine, logger), logger)

	handler := &api.Handler{
		Processor: processor,
		Auth: auth.NewManager(auth.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
		}, conn, logger),
		Logger:        logger,
		SecureCookies: cfg.OAuth.SecureCookies,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"addr":       srv.Addr,
			"translator": engine.Name(),
			"database":   string(db.DetectBackend(cfg.Database.URL)),
		}).Info("Starting Lingonote web server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func engineConfig(engine translate.EngineType, cfg config.TranslatorConfig, logger *logrus.Logger) translate.Config {
	tc := translate.Config{
		Engine:  engine,
		Model:   cfg.Model,
		BaseURL: cfg.LibreTranslateURL,
		Logger:  logger,
	}
	switch engine {
	case translate.EngineClaude:
		tc.APIKey = cfg.AnthropicAPIKey
	case translate.EngineGemini:
		tc.APIKey = cfg.GeminiAPIKey
	}
	return tc
}
