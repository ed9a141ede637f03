package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/airbusgeo/geomosaic/cmd"
	"github.com/airbusgeo/geomosaic/interface/messaging"
	"github.com/airbusgeo/geomosaic/interface/messaging/pgqueue"
	"github.com/airbusgeo/geomosaic/interface/messaging/pubsub"
	"github.com/airbusgeo/geomosaic/internal/catalog"
	"github.com/airbusgeo/geomosaic/internal/composite"
	"github.com/airbusgeo/geomosaic/internal/engine"
	"github.com/airbusgeo/geomosaic/internal/image"
	"github.com/airbusgeo/geomosaic/internal/log"
	"github.com/airbusgeo/geomosaic/internal/metrics"
	"github.com/airbusgeo/geomosaic/internal/svc"
	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

type workerConfig struct {
	Project                string        `env:"PS_PROJECT"`
	PsRequestsSubscription string        `env:"PS_REQUESTS_SUBSCRIPTION"`
	PsEventsTopic          string        `env:"PS_EVENTS_TOPIC"`
	PsExtensionPeriod      time.Duration `env:"PS_EXTENSION_PERIOD" envDefault:"8m"`
	PgqConnection          string        `env:"PGQ_CONNECTION"`
	PgqRequestsQueue       string        `env:"PGQ_REQUESTS_QUEUE"`
	PgqEventsQueue         string        `env:"PGQ_EVENTS_QUEUE"`
	WorkDir                string        `env:"WORKDIR,required"`
	Catalog                string        `env:"CATALOG,required"`
	CacheDir               string        `env:"CACHEDIR"`
	CancelledRequests      string        `env:"CANCELLED_REQUESTS"`
	Workers                int           `env:"WORKERS" envDefault:"1"`
	TileSize               int           `env:"TILE_SIZE" envDefault:"1024"`
	MetricsPort            int           `env:"METRICS_PORT" envDefault:"9000"`
	RetryCount             int           `env:"RETRY_COUNT" envDefault:"1"`
	GDALConfig             cmd.GDALConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Logger(ctx).Error("exit on error", zap.Error(err))
		os.Exit(1)
	}
	log.Logger(ctx).Info("exiting")
}

func run(ctx context.Context) error {
	config := workerConfig{}
	if err := env.Parse(&config); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if config.CacheDir == "" {
		config.CacheDir = filepath.Join(config.WorkDir, "cache")
	}

	if err := cmd.InitGDAL(ctx, &config.GDALConfig); err != nil {
		return fmt.Errorf("init gdal: %w", err)
	}

	reg := metrics.NewRegistry()
	pipeline := metrics.NewPipeline(reg)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		srv := &http.Server{Addr: fmt.Sprintf(":%d", config.MetricsPort), Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		if err := srv.ListenAndServe(); err != nil {
			log.Logger(ctx).Error("metrics server", zap.Error(err))
		}
	}()

	// Create Messaging Service
	var requestConsumer messaging.Consumer
	var eventPublisher messaging.Publisher
	var logMessaging string
	switch {
	case config.PsRequestsSubscription != "":
		logMessaging = fmt.Sprintf("pulling on %s/%s", config.Project, config.PsRequestsSubscription)
		consumer, err := pubsub.NewConsumer(config.Project, config.PsRequestsSubscription)
		if err != nil {
			return fmt.Errorf("pubsub.new: %w", err)
		}
		if config.PsExtensionPeriod <= 0 || config.PsExtensionPeriod > 10*time.Minute {
			return fmt.Errorf("PS_EXTENSION_PERIOD must be in ]0, 10m]: %v", config.PsExtensionPeriod)
		}
		// gdal calls cannot be interrupted: exit as soon as the message cannot be kept
		consumer.SetProcessOption(
			pubsub.ExtensionPeriod(config.PsExtensionPeriod),
			pubsub.OnErrorRetryDelay(60*time.Second),
			pubsub.ExitOnExtensionError())
		requestConsumer = consumer

		p, err := pubsub.NewPublisher(ctx, config.Project, config.PsEventsTopic, pubsub.WithMaxRetries(3))
		if err != nil {
			return fmt.Errorf("pubsub.newpublisher: %w", err)
		}
		defer p.Stop()
		eventPublisher = p
	case config.PgqConnection != "":
		logMessaging = fmt.Sprintf("pulling on pgqueue %s", config.PgqRequestsQueue)
		db, w, err := pgqueue.SqlConnect(ctx, config.PgqConnection)
		if err != nil {
			return fmt.Errorf("pgqueue: %w", err)
		}
		defer db.Close()
		consumer := pgqueue.NewConsumer(db, config.PgqRequestsQueue)
		defer consumer.Stop()
		requestConsumer = consumer
		eventPublisher = pgqueue.NewPublisher(w, config.PgqEventsQueue, pgqueue.WithMaxRetries(3))
	default:
		return fmt.Errorf("missing configuration for the messaging service (PS_REQUESTS_SUBSCRIPTION or PGQ_CONNECTION)")
	}

	cat, err := catalog.Load(ctx, config.Catalog, config.CacheDir)
	if err != nil {
		return err
	}
	tileIO, err := image.NewGdalTileIO(0)
	if err != nil {
		return err
	}
	e := engine.New(cat, cat, composite.DefaultRegistry(composite.DefaultQAFilter()), tileIO, svc.NewRegistrar(eventPublisher), engine.Options{
		WorkDir:  config.WorkDir,
		TileSize: config.TileSize,
		Workers:  config.Workers,
		Metrics:  pipeline,
	})
	var cancelled *svc.CancelledRequests
	if config.CancelledRequests != "" {
		if cancelled, err = svc.NewCancelledRequests(ctx, config.CancelledRequests); err != nil {
			return err
		}
	}
	worker := svc.NewWorker(e, eventPublisher, cancelled, config.RetryCount)

	log.Logger(ctx).Sugar().Infof("mosaicworker starts %s with %d worker(s)", logMessaging, config.Workers)
	for {
		if err := requestConsumer.Pull(ctx, worker.Handle); err != nil {
			return fmt.Errorf("consumer.pull: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
