package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phonedeck/phonedeck/internal/server"
	"github.com/phonedeck/phonedeck/modules/directory/infrastructure/persistence"
	"github.com/phonedeck/phonedeck/modules/directory/presentation/controllers"
	"github.com/phonedeck/phonedeck/modules/directory/services"
	"github.com/phonedeck/phonedeck/pkg/configuration"
	"github.com/phonedeck/phonedeck/pkg/metrics"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		logger.WithError(err).Fatal("failed to create database pool")
	}
	defer pool.Close()

	contactRepo := persistence.NewContactRepository()
	documentRepo := persistence.NewDocumentRepository()
	visitRepo := persistence.NewVisitRepository()

	ingestOpts := services.IngestOptions{
		ChunkSize:    conf.Upload.ChunkSize,
		ChunkTimeout: conf.Upload.ChunkTimeout,
		MaxBatchRows: conf.Upload.MaxBatchRows,
	}

	contactService := services.NewContactService(contactRepo)
	contactIngest := services.NewContactIngestService(contactRepo, persistence.Classify, ingestOpts, logger)
	documentService := services.NewDocumentService(documentRepo)
	documentIngest := services.NewDocumentIngestService(documentRepo, persistence.Classify, ingestOpts, logger)
	analyticsService := services.NewAnalyticsService(visitRepo, contactRepo, documentRepo)

	serverControllers := []server.Controller{
		controllers.NewContactController(contactService, contactIngest, conf.Upload.MaxFileBytes),
		controllers.NewDocumentController(documentService, documentIngest, conf.Upload.MaxFileBytes),
		controllers.NewAnalyticsController(analyticsService),
	}
	if conf.Prometheus.Enabled {
		serverControllers = append(serverControllers, metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	srv := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Pool:          pool,
		Controllers:   serverControllers,
	})

	go func() {
		logger.Infof("listening on %s", conf.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
