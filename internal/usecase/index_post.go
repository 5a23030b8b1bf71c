package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/toksz/rep0st/internal/domain/entity"
	"github.com/toksz/rep0st/internal/domain/port"
	"github.com/toksz/rep0st/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// IndexPostUseCase drives one post through the indexing pipeline: mirror its
// media into the local media root, decode the frames, and record per-frame
// metadata. Feature extraction happens downstream from the frame_info
// records; this worker never computes features.
type IndexPostUseCase struct {
	jobs      port.JobRepository
	frames    port.FrameRepository
	storage   port.MediaStorage
	source    port.MediaSource
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	limits    entity.Limits
	mediaDir  string
	maxRetry  int
}

type IndexPostConfig struct {
	MediaDir   string
	MaxRetries int
}

func NewIndexPostUseCase(
	jobs port.JobRepository,
	frames port.FrameRepository,
	storage port.MediaStorage,
	source port.MediaSource,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	limits entity.Limits,
	cfg IndexPostConfig,
) *IndexPostUseCase {
	return &IndexPostUseCase{
		jobs:      jobs,
		frames:    frames,
		storage:   storage,
		source:    source,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		limits:    limits,
		mediaDir:  cfg.MediaDir,
		maxRetry:  cfg.MaxRetries,
	}
}

func (uc *IndexPostUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "IndexPostUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.PostIndexMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.Int64("post.id", msg.PostID),
		attribute.String("post.media_type", string(msg.MediaType)),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.Int64("post_id", msg.PostID))

	job, err := uc.jobs.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewIndexJob(msg.PostID, msg.MediaType, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.jobs.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.jobs.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.indexPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	if job.Status == entity.JobStatusCompleted {
		metrics.PostsIndexedTotal.WithLabelValues("completed").Inc()
		metrics.IndexDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())
	}

	return nil
}

func (uc *IndexPostUseCase) indexPipeline(
	ctx context.Context,
	job *entity.IndexJob,
	msg entity.PostIndexMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	post := &entity.Post{
		ID:       msg.PostID,
		Type:     msg.MediaType,
		Image:    msg.Image,
		Fullsize: msg.Fullsize,
	}

	// Mirror media from object storage
	fetchStart := time.Now()
	ctxFetch, spanFetch := tracer.Start(ctx, "fetch_media")
	if err := uc.ensureLocalMedia(ctxFetch, post, log); err != nil {
		spanFetch.End()
		log.Error("failed to fetch media", zap.Error(err))
		return uc.handleFailure(ctx, job, msg, rawMsg, fmt.Errorf("fetch_media: %w", err), log)
	}
	spanFetch.End()
	metrics.IndexDuration.WithLabelValues("fetch").Observe(time.Since(fetchStart).Seconds())

	// Decode frames and record them
	decodeStart := time.Now()
	ctxDecode, spanDecode := tracer.Start(ctx, "decode_frames")
	frameCount, err := uc.decodeAndRecord(ctxDecode, post, log)
	spanDecode.End()
	if err != nil {
		log.Error("frame decoding failed", zap.Error(err))
		metrics.DecodeFailuresTotal.WithLabelValues(failureKind(err)).Inc()
		return uc.handleFailure(ctx, job, msg, rawMsg, fmt.Errorf("decode_frames: %w", err), log)
	}
	metrics.IndexDuration.WithLabelValues("decode").Observe(time.Since(decodeStart).Seconds())
	metrics.FramesDecodedTotal.WithLabelValues(string(post.Type)).Add(float64(frameCount))

	job.MarkCompleted(frameCount)
	if err := uc.jobs.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("post indexed successfully",
		zap.Int("frame_count", frameCount),
		zap.String("media_type", string(post.Type)),
	)

	return nil
}

// ensureLocalMedia downloads missing files from the media bucket. The
// fullsize variant is fetched best-effort; the resolver falls back to the
// resized file when it stays absent.
func (uc *IndexPostUseCase) ensureLocalMedia(ctx context.Context, post *entity.Post, log *zap.Logger) error {
	if uc.storage == nil {
		return nil
	}

	primary := filepath.Join(uc.mediaDir, post.Image)
	if _, err := os.Stat(primary); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(primary), 0o755); err != nil {
			return fmt.Errorf("create media dir: %w", err)
		}
		if err := uc.storage.FetchMedia(ctx, post.Image, primary); err != nil {
			return err
		}
	}

	if post.Fullsize != "" {
		fullsizeKey := "full/" + post.Fullsize
		fullsizePath := filepath.Join(uc.mediaDir, "full", post.Fullsize)
		if _, err := os.Stat(fullsizePath); os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(fullsizePath), 0o755); err != nil {
				return fmt.Errorf("create fullsize media dir: %w", err)
			}
			if err := uc.storage.FetchMedia(ctx, fullsizeKey, fullsizePath); err != nil {
				log.Warn("failed to fetch fullsize media, will fall back to resized",
					zap.String("object_key", fullsizeKey),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}

// decodeAndRecord pulls frames from the post's media up to the keyframe cap
// and replaces the post's frame records with them. The previous index stays
// intact until the whole decode has succeeded, so a failed attempt never
// leaves the post with zero indexed frames.
func (uc *IndexPostUseCase) decodeAndRecord(ctx context.Context, post *entity.Post, log *zap.Logger) (int, error) {
	stream, err := uc.source.GetFrames(ctx, post)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	var records []*entity.FrameInfo
	for len(records) < uc.limits.MaxKeyframes {
		frame, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}

		records = append(records, &entity.FrameInfo{
			PostID:      post.ID,
			FrameNumber: len(records),
			Timestamp:   frame.Timestamp,
			IsKeyframe:  frame.Keyframe,
		})
	}
	if len(records) == uc.limits.MaxKeyframes {
		log.Debug("keyframe cap reached, stopping extraction", zap.Int("max_keyframes", uc.limits.MaxKeyframes))
	}

	if err := uc.frames.DeleteByPost(ctx, post.ID); err != nil {
		return 0, err
	}
	for start := 0; start < len(records); start += uc.limits.FrameBatchSize {
		end := start + uc.limits.FrameBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := uc.frames.SaveBatch(ctx, records[start:end]); err != nil {
			return len(records), err
		}
	}

	return len(records), nil
}

// handleFailure routes a failed attempt. Decode and unsupported-type
// failures are deterministic, so retrying cannot help; they go straight to
// the DLQ. Everything else (storage, database, transient I/O) is retried up
// to the attempt cap.
func (uc *IndexPostUseCase) handleFailure(
	ctx context.Context,
	job *entity.IndexJob,
	msg entity.PostIndexMessage,
	rawMsg []byte,
	cause error,
	log *zap.Logger,
) error {
	errMsg := cause.Error()
	job.MarkFailed(errMsg)
	_ = uc.jobs.Update(ctx, job)

	if isPermanent(cause) || !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return &entity.RetryableError{Attempt: job.Attempt, MaxAttempts: job.MaxAttempts, Err: cause}
}

func (uc *IndexPostUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.IndexJob,
	msg entity.PostIndexMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.jobs.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.PostsIndexedTotal.WithLabelValues("dlq").Inc()

	if msg.NotifyEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.NotifyEmail, job.ID.String(), job.PostID, errMsg)
	}

	return nil
}

func (uc *IndexPostUseCase) publishStatus(ctx context.Context, job *entity.IndexJob, log *zap.Logger) {
	statusMsg := entity.PostIndexStatusMessage{
		JobID:        job.ID,
		PostID:       job.PostID,
		Status:       job.Status,
		FrameCount:   job.FrameCount,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	if err := uc.publisher.PublishStatus(ctx, statusMsg); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

// isPermanent reports whether retrying the job could possibly succeed.
// Decode failures and unsupported types are deterministic; storage and
// database failures may be transient.
func isPermanent(err error) bool {
	var decodeErr *entity.DecodeError
	var unsupportedErr *entity.UnsupportedTypeError
	return errors.As(err, &decodeErr) || errors.As(err, &unsupportedErr)
}

func failureKind(err error) string {
	var decodeErr *entity.DecodeError
	var notFoundErr *entity.MediaNotFoundError
	var unsupportedErr *entity.UnsupportedTypeError
	switch {
	case errors.As(err, &decodeErr):
		if decodeErr.Limit != "" {
			return decodeErr.Limit
		}
		return "decode"
	case errors.As(err, &notFoundErr):
		return "media_not_found"
	case errors.As(err, &unsupportedErr):
		return "unsupported_type"
	default:
		return "other"
	}
}
