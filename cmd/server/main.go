package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/config"
	httpadapter "github.com/asshaltech/bapp-review/internal/interfaces/http"
	"github.com/asshaltech/bapp-review/internal/portal"
	"github.com/asshaltech/bapp-review/internal/queue"
	"github.com/asshaltech/bapp-review/internal/report"
	"github.com/asshaltech/bapp-review/internal/repository"
	"github.com/asshaltech/bapp-review/internal/review"
	"github.com/asshaltech/bapp-review/internal/session"
	"github.com/asshaltech/bapp-review/pkg/database"
	"github.com/asshaltech/bapp-review/pkg/utils"
)

func main() {
	// Portal URLs and credentials usually live in .env during development.
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting BAPP review server",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	sessionRepo := repository.NewSessionRepository(db.DB, logger)
	decisionRepo := repository.NewDecisionRepository(db.DB, logger)

	dacClient := portal.NewDACClient(portal.Config{
		BaseURL: cfg.DAC.BaseURL,
		Timeout: cfg.DAC.Timeout,
	}, logger)
	datasourceClient := portal.NewDatasourceClient(portal.DatasourceConfig{
		Config: portal.Config{
			BaseURL: cfg.Datasource.BaseURL,
			Timeout: cfg.Datasource.Timeout,
		},
		ProbeFormID: cfg.Datasource.ProbeFormID,
	}, logger)

	sessions := session.NewManager(dacClient, datasourceClient, sessionRepo, logger)
	sessions.Restore(context.Background())

	queueCtrl := queue.NewController(queue.Config{
		WorklistType:    cfg.Worklist.Type,
		InProcessStatus: cfg.Worklist.InProcessStatus,
		PrefetchTTL:     cfg.Worklist.PrefetchTTL,
	}, dacClient, datasourceClient, sessions, logger)

	pipeline := review.NewPipeline(sessions, datasourceClient, dacClient, queueCtrl, decisionRepo, logger)
	exporter := report.NewExporter(decisionRepo, logger)

	handlers := httpadapter.NewHandlers(sessions, queueCtrl, pipeline, exporter, logger)
	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
