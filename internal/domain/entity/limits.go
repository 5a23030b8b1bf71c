package entity

import "fmt"

// Limits are the immutable decoding limits for one decode operation. They are
// built once from configuration and passed explicitly to every decode call.
// MinMatches and SimilarityThreshold belong to the downstream matcher and are
// only carried through here.
type Limits struct {
	// KeyframeInterval is the spacing in seconds at which keyframes are
	// expected in the source material.
	KeyframeInterval int
	// MaxKeyframes caps the number of frames extracted per video. Enforced
	// by the caller pulling the frame stream, not by the decoder.
	MaxKeyframes int
	// MaxDuration rejects videos longer than this many seconds pre-flight.
	MaxDuration int
	// MaxUploadSizeBytes rejects inputs larger than this before any
	// external process is spawned.
	MaxUploadSizeBytes int64
	// FrameBatchSize is the persistence batch size for frame records.
	FrameBatchSize int

	MinMatches          int
	SimilarityThreshold float64
}

// NewLimits validates the configured values and returns an immutable Limits.
func NewLimits(keyframeInterval, maxKeyframes, maxDuration int, maxUploadSizeBytes int64, frameBatchSize, minMatches int, similarityThreshold float64) (Limits, error) {
	if keyframeInterval <= 0 {
		return Limits{}, fmt.Errorf("keyframe interval must be positive, got %d", keyframeInterval)
	}
	if maxKeyframes < 1 {
		return Limits{}, fmt.Errorf("max keyframes must be at least 1, got %d", maxKeyframes)
	}
	if maxDuration <= 0 {
		return Limits{}, fmt.Errorf("max duration must be positive, got %d", maxDuration)
	}
	if maxUploadSizeBytes <= 0 {
		return Limits{}, fmt.Errorf("max upload size must be positive, got %d", maxUploadSizeBytes)
	}
	if frameBatchSize < 1 {
		return Limits{}, fmt.Errorf("frame batch size must be at least 1, got %d", frameBatchSize)
	}
	return Limits{
		KeyframeInterval:    keyframeInterval,
		MaxKeyframes:        maxKeyframes,
		MaxDuration:         maxDuration,
		MaxUploadSizeBytes:  maxUploadSizeBytes,
		FrameBatchSize:      frameBatchSize,
		MinMatches:          minMatches,
		SimilarityThreshold: similarityThreshold,
	}, nil
}
