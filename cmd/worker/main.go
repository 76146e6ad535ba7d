package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/fiapx/frameflow/internal/infra/config"
	"github.com/fiapx/frameflow/internal/infra/ffmpeg"
	"github.com/fiapx/frameflow/internal/infra/metrics"
	miniostorage "github.com/fiapx/frameflow/internal/infra/minio"
	"github.com/fiapx/frameflow/internal/infra/postgres"
	"github.com/fiapx/frameflow/internal/infra/rabbitmq"
	"github.com/fiapx/frameflow/internal/infra/tracing"
	"github.com/fiapx/frameflow/internal/preview"
	"github.com/fiapx/frameflow/internal/usecase"
	"github.com/fiapx/frameflow/internal/worker"
	"github.com/fiapx/frameflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting frameflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	// Codec toolkit
	tk, err := ffmpeg.Init(cfg.FFmpegPath, cfg.FFprobePath)
	fatalOnErr(err, "init ffmpeg")
	log.Info("ffmpeg toolkit ready", zap.String("ffmpeg", tk.FFmpeg), zap.String("ffprobe", tk.FFprobe))

	format, err := preview.ParseFormat(cfg.PreviewFormat)
	fatalOnErr(err, "parse preview format")
	keys, err := usecase.ParseKeyStrategy(cfg.PreviewKeys)
	fatalOnErr(err, "parse preview key strategy")

	// Database (job ledger)
	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer dbPool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:           cfg.MinIOEndpoint,
		AccessKey:          cfg.MinIOAccessKey,
		SecretKey:          cfg.MinIOSecretKey,
		UseSSL:             cfg.MinIOUseSSL,
		VideosBucket:       cfg.MinIOVideosBucket,
		PreviewsBucket:     cfg.MinIOPreviewsBucket,
		PreviewContentType: format.ContentType(),
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn)
	fatalOnErr(err, "create rabbitmq publisher")
	defer pub.Close()

	// CPU pool shared by every in-flight extraction
	cpuPool := worker.NewPool(cfg.CPUWorkers)
	defer cpuPool.Close()
	log.Info("cpu pool started", zap.Int("workers", cpuPool.Size()))

	encoder, err := preview.NewEncoder(format)
	fatalOnErr(err, "create preview encoder")
	extractor := preview.NewExtractor(ffmpeg.NewDemuxer(log), encoder, log)

	uc := usecase.NewProcessPreviewsUseCase(
		postgres.NewJobRepository(dbPool),
		storage,
		extractor,
		rabbitmq.NewMetadataPublisher(pub, cfg.RabbitMQMetadataQueue),
		cpuPool,
		log,
		usecase.ProcessPreviewsConfig{
			TempDir:           cfg.TempDir,
			CadenceSeconds:    cfg.PreviewCadenceSeconds,
			UploadConcurrency: cfg.UploadConcurrency,
			Keys:              keys,
		},
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:           cfg.RabbitMQURL,
		Queue:         cfg.RabbitMQProcessQueue,
		MetadataQueue: cfg.RabbitMQMetadataQueue,
		ConsumerTag:   cfg.RabbitMQConsumerTag,
		Prefetch:      cfg.RabbitMQPrefetch,
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

	log.Info("frameflow started, consuming messages",
		zap.String("queue", cfg.RabbitMQProcessQueue),
		zap.Int("cadence_seconds", cfg.PreviewCadenceSeconds),
		zap.String("format", string(format)),
	)

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("frameflow stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
