package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fiapx/frameflow/internal/domain/entity"
	"github.com/fiapx/frameflow/internal/domain/port"
	"github.com/fiapx/frameflow/internal/infra/metrics"
	"github.com/fiapx/frameflow/internal/worker"
)

type ProcessPreviewsUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	extractor port.PreviewExtractor
	publisher port.MetadataPublisher
	pool      *worker.Pool
	logger    *zap.Logger
	cfg       ProcessPreviewsConfig
}

type ProcessPreviewsConfig struct {
	TempDir           string
	CadenceSeconds    int
	UploadConcurrency int
	Keys              KeyStrategy
}

func NewProcessPreviewsUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	extractor port.PreviewExtractor,
	publisher port.MetadataPublisher,
	pool *worker.Pool,
	logger *zap.Logger,
	cfg ProcessPreviewsConfig,
) *ProcessPreviewsUseCase {
	if cfg.CadenceSeconds < 1 {
		cfg.CadenceSeconds = 5
	}
	if cfg.UploadConcurrency < 1 {
		cfg.UploadConcurrency = 1
	}
	if cfg.Keys == "" {
		cfg.Keys = KeysDeterministic
	}
	return &ProcessPreviewsUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		publisher: publisher,
		pool:      pool,
		logger:    logger,
		cfg:       cfg,
	}
}

// Execute handles one video-process event. The delivery is acknowledged only
// after every preview is stored and the metadata event is confirmed. On
// failure the delivery is left unacknowledged and the scratch file is kept.
func (uc *ProcessPreviewsUseCase) Execute(ctx context.Context, d port.Delivery) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessPreviewsUseCase.Execute")
	defer span.End()

	start := time.Now()

	event, err := parseEvent(d.Body())
	if err != nil {
		metrics.EventsTotal.WithLabelValues("malformed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed event")
		return err
	}

	span.SetAttributes(
		attribute.String("event.reference", event.Reference),
		attribute.String("event.mimetype", event.Mimetype),
	)
	log := uc.logger.With(zap.String("reference", event.Reference))

	job := uc.loadJob(ctx, event, log)
	job.Begin()
	uc.saveJob(ctx, job, log)

	if err := uc.run(ctx, d, event, job, log); err != nil {
		job.MarkFailed(err.Error())
		uc.saveJob(ctx, job, log)
		metrics.EventsTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "processing failed")
		return err
	}

	metrics.EventsTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	return nil
}

func parseEvent(body []byte) (entity.ProcessEvent, error) {
	var event entity.ProcessEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("%w: %w", entity.ErrMalformedEvent, err)
	}
	if err := event.Validate(); err != nil {
		return event, fmt.Errorf("%w: %w", entity.ErrMalformedEvent, err)
	}
	return event, nil
}

func (uc *ProcessPreviewsUseCase) run(
	ctx context.Context,
	d port.Delivery,
	event entity.ProcessEvent,
	job *entity.PreviewJob,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	// Fetch the source video
	job.Transition(entity.JobStateFetching)
	uc.saveJob(ctx, job, log)

	if err := os.MkdirAll(uc.cfg.TempDir, 0o755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	scratch := filepath.Join(uc.cfg.TempDir, scratchName(event.Reference, event.Extension()))

	dlStart := time.Now()
	dlCtx, spanDl := tracer.Start(ctx, "download_video")
	err := uc.storage.DownloadVideo(dlCtx, event.Reference, scratch)
	spanDl.End()
	if err != nil {
		return fmt.Errorf("download video: %w: %w", entity.ErrTransport, err)
	}
	metrics.StageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Extract previews on the CPU pool
	job.Transition(entity.JobStateExtracting)
	uc.saveJob(ctx, job, log)

	exStart := time.Now()
	exCtx, spanEx := tracer.Start(ctx, "extract_previews")
	batch, err := worker.Run(exCtx, uc.pool, func() (*entity.PreviewBatch, error) {
		metrics.ExtractionsRunning.Inc()
		defer metrics.ExtractionsRunning.Dec()
		return uc.extractor.GeneratePreviews(exCtx, scratch, uc.cfg.CadenceSeconds)
	})
	spanEx.End()
	if err != nil {
		return fmt.Errorf("extract previews: %w", err)
	}
	metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())
	metrics.FramesDecodedTotal.Add(float64(batch.DecodedFrames))

	log.Info("previews extracted",
		zap.Int("step", batch.Step),
		zap.Float64("frame_rate", batch.FrameRate),
		zap.Float64("duration_secs", batch.DurationSeconds),
		zap.Int("decoded_frames", batch.DecodedFrames),
		zap.Int("previews", len(batch.Previews)),
	)

	// Store previews and announce them
	job.Transition(entity.JobStatePublishing)
	uc.saveJob(ctx, job, log)

	upStart := time.Now()
	upCtx, spanUp := tracer.Start(ctx, "upload_previews")
	keys, err := uc.uploadPreviews(upCtx, event.Reference, batch.Previews)
	spanUp.End()
	if err != nil {
		return err
	}
	metrics.StageDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())
	metrics.PreviewsGeneratedTotal.Add(float64(len(keys)))

	msg, err := json.Marshal(entity.PreviewMetadata{
		Reference: event.Reference,
		Duration:  batch.DurationSeconds,
		Step:      batch.Step,
		Previews:  keys,
	})
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	pubCtx, spanPub := tracer.Start(ctx, "publish_metadata")
	err = uc.publisher.PublishMetadata(pubCtx, msg)
	spanPub.End()
	if err != nil {
		return fmt.Errorf("publish metadata: %w: %w", entity.ErrTransport, err)
	}
	job.MarkPublished(batch.Step, batch.DurationSeconds, keys)

	if err := d.Ack(); err != nil {
		return fmt.Errorf("ack event: %w: %w", entity.ErrTransport, err)
	}
	job.Transition(entity.JobStateAcknowledged)
	uc.saveJob(ctx, job, log)

	if err := os.Remove(scratch); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to remove scratch file", zap.String("path", scratch), zap.Error(err))
	} else {
		job.Transition(entity.JobStateCleanedUp)
		uc.saveJob(ctx, job, log)
	}

	log.Info("event completed",
		zap.Int("step", batch.Step),
		zap.Int("previews", len(keys)),
	)
	return nil
}

// uploadPreviews stores previews concurrently. The returned keys follow the
// order of previews regardless of upload completion order.
func (uc *ProcessPreviewsUseCase) uploadPreviews(ctx context.Context, reference string, previews []entity.EncodedPreview) ([]string, error) {
	keys := uc.cfg.Keys.PreviewKeys(reference, len(previews))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.UploadConcurrency)
	for i, data := range previews {
		g.Go(func() error {
			if err := uc.storage.UploadPreview(gctx, keys[i], data); err != nil {
				return fmt.Errorf("upload preview %d: %w: %w", i, entity.ErrTransport, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (uc *ProcessPreviewsUseCase) loadJob(ctx context.Context, event entity.ProcessEvent, log *zap.Logger) *entity.PreviewJob {
	if uc.repo == nil {
		return entity.NewPreviewJob(event.Reference, event.Mimetype)
	}
	job, err := uc.repo.FindByReference(ctx, event.Reference)
	if err != nil {
		if !errors.Is(err, entity.ErrJobNotFound) {
			log.Warn("failed to load preview job", zap.Error(err))
		}
		return entity.NewPreviewJob(event.Reference, event.Mimetype)
	}
	job.Mimetype = event.Mimetype
	return job
}

// saveJob records progress in the ledger. Ledger errors never fail an event.
func (uc *ProcessPreviewsUseCase) saveJob(ctx context.Context, job *entity.PreviewJob, log *zap.Logger) {
	if uc.repo == nil {
		return
	}
	if err := uc.repo.Save(ctx, job); err != nil {
		log.Warn("failed to save preview job", zap.String("state", string(job.State)), zap.Error(err))
	}
}
