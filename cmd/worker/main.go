package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/toksz/rep0st/internal/domain/entity"
	"github.com/toksz/rep0st/internal/domain/port"
	"github.com/toksz/rep0st/internal/infra/config"
	"github.com/toksz/rep0st/internal/infra/email"
	"github.com/toksz/rep0st/internal/infra/ffmpeg"
	"github.com/toksz/rep0st/internal/infra/imaging"
	"github.com/toksz/rep0st/internal/infra/media"
	"github.com/toksz/rep0st/internal/infra/metrics"
	miniostorage "github.com/toksz/rep0st/internal/infra/minio"
	"github.com/toksz/rep0st/internal/infra/postgres"
	"github.com/toksz/rep0st/internal/infra/rabbitmq"
	"github.com/toksz/rep0st/internal/infra/tracing"
	"github.com/toksz/rep0st/internal/usecase"
	"github.com/toksz/rep0st/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	limits, err := cfg.Limits()
	fatalOnErr(err, "validate decode limits")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting rep0st media worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, tracing.Config{
		Endpoint:    cfg.JaegerEndpoint,
		ServiceName: "rep0st-media-worker",
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	// Migrations
	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO media mirror
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:    cfg.MinIOEndpoint,
		AccessKey:   cfg.MinIOAccessKey,
		SecretKey:   cfg.MinIOSecretKey,
		UseSSL:      cfg.MinIOUseSSL,
		MediaBucket: cfg.MinIOMediaBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBucket(ctx), "ensure minio bucket")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub, cfg.RabbitMQStatusQueue)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Infra adapters
	jobRepo := postgres.NewJobRepository(pool)
	frameRepo := postgres.NewFrameRepository(pool)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	// Decoders and resolver
	videoDecoder := ffmpeg.NewDecoder(ffmpeg.DecoderConfig{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
	}, log)
	resolver := media.NewResolver(cfg.MediaDir, limits, map[entity.MediaType]port.MediaDecoder{
		entity.MediaTypeImage: imaging.NewDecoder(),
		entity.MediaTypeVideo: videoDecoder,
	}, log)

	// Use case
	uc := usecase.NewIndexPostUseCase(
		jobRepo, frameRepo, storage, resolver,
		statusPub, dlqPub, notifier,
		log, limits,
		usecase.IndexPostConfig{
			MediaDir:   cfg.MediaDir,
			MaxRetries: cfg.MaxRetries,
		},
	)

	// Metrics server with dependency readiness
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log, map[string]metrics.HealthCheck{
		"postgres": pool.Ping,
		"rabbitmq": func(context.Context) error {
			if rmqConn.IsClosed() {
				return errors.New("publisher connection closed")
			}
			return nil
		},
	})

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQIndexingQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("rep0st media worker started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("rep0st media worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
