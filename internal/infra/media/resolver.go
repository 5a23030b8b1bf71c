package media

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/toksz/rep0st/internal/domain/entity"
	"github.com/toksz/rep0st/internal/domain/port"
	"go.uber.org/zap"
)

// Resolver locates the best available media file for a post and routes it to
// the decoder registered for the post's media type. The fullsize variant
// under full/ is preferred when it exists on disk; otherwise the resolver
// falls back to the resized default with a warning.
type Resolver struct {
	mediaDir string
	limits   entity.Limits
	decoders map[entity.MediaType]port.MediaDecoder
	logger   *zap.Logger
}

func NewResolver(mediaDir string, limits entity.Limits, decoders map[entity.MediaType]port.MediaDecoder, logger *zap.Logger) *Resolver {
	return &Resolver{
		mediaDir: mediaDir,
		limits:   limits,
		decoders: decoders,
		logger:   logger,
	}
}

// GetFrames opens the post's media and returns its lazy frame stream. The
// returned stream owns the opened file; closing it releases both the file
// and the decode session. Failures to open or read the file surface as
// MediaNotFoundError; every other decoder failure propagates unchanged.
func (r *Resolver) GetFrames(ctx context.Context, post *entity.Post) (port.FrameStream, error) {
	decoder, ok := r.decoders[post.Type]
	if !ok {
		return nil, &entity.UnsupportedTypeError{Type: post.Type}
	}

	path := filepath.Join(r.mediaDir, post.Image)
	if post.Fullsize != "" {
		fullsizePath := filepath.Join(r.mediaDir, "full", post.Fullsize)
		if isFile(fullsizePath) {
			r.logger.Debug("using fullsize media", zap.Int64("post_id", post.ID), zap.String("path", fullsizePath))
			path = fullsizePath
		} else {
			r.logger.Warn("fullsize media not found, falling back to resized media",
				zap.Int64("post_id", post.ID),
				zap.String("path", fullsizePath),
			)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &entity.MediaNotFoundError{PostID: post.ID, Path: path, Err: err}
	}

	stream, err := decoder.Decode(ctx, f, r.limits)
	if err != nil {
		_ = f.Close()
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, &entity.MediaNotFoundError{PostID: post.ID, Path: path, Err: err}
		}
		return nil, err
	}

	return &fileStream{FrameStream: stream, f: f}, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// fileStream couples the opened media file to the decode session so a single
// Close releases both.
type fileStream struct {
	port.FrameStream
	f      *os.File
	closed bool
}

func (s *fileStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.FrameStream.Close()
	if cerr := s.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
