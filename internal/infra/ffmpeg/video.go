package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/toksz/rep0st/internal/domain/entity"
	"github.com/toksz/rep0st/internal/domain/port"
	"go.uber.org/zap"
)

const defaultWaitTimeout = time.Second

// Decoder extracts keyframes from a video by piping it through an external
// ffmpeg process that drops every non-keyframe and writes the survivors as
// PPM records on its stdout.
type Decoder struct {
	ffmpegPath  string
	ffprobePath string
	waitTimeout time.Duration
	logger      *zap.Logger
}

type DecoderConfig struct {
	FFmpegPath  string
	FFprobePath string
	// WaitTimeout bounds the wait for ffmpeg to exit after its output has
	// been fully consumed.
	WaitTimeout time.Duration
}

func NewDecoder(cfg DecoderConfig, logger *zap.Logger) *Decoder {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = defaultWaitTimeout
	}
	return &Decoder{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		waitTimeout: cfg.WaitTimeout,
		logger:      logger,
	}
}

// Decode checks the duration and size limits, then starts ffmpeg with the
// file bound to its stdin and returns the lazy keyframe stream. The duration
// check is best-effort: a failed probe is logged and decoding proceeds. The
// size check is mandatory and runs before any process is spawned.
func (d *Decoder) Decode(ctx context.Context, f *os.File, limits entity.Limits) (port.FrameStream, error) {
	duration, err := d.probeDuration(ctx, f.Name())
	if err != nil {
		d.logger.Warn("failed to get video duration",
			zap.String("path", f.Name()),
			zap.Error(err),
		)
	} else if duration > float64(limits.MaxDuration) {
		return nil, &entity.DecodeError{
			Reason: fmt.Sprintf("video duration %.2fs exceeds maximum allowed duration %ds", duration, limits.MaxDuration),
			Limit:  "max_duration",
		}
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat video file: %w", err)
	}
	if info.Size() > limits.MaxUploadSizeBytes {
		return nil, &entity.DecodeError{
			Reason: fmt.Sprintf("video size %d exceeds maximum allowed size %d", info.Size(), limits.MaxUploadSizeBytes),
			Limit:  "max_upload_size",
		}
	}

	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-threads", "1",
		"-vsync", "0",
		"-skip_frame", "nokey",
		"-i", "pipe:0",
		"-vcodec", "ppm",
		"-f", "rawvideo",
		"pipe:1",
	)
	cmd.Stdin = f
	// bound pipe teardown so an inherited fd can never stall Wait
	cmd.WaitDelay = d.waitTimeout

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	return &frameStream{
		cmd:         cmd,
		out:         bufio.NewReader(stdout),
		stderr:      &stderr,
		waitTimeout: d.waitTimeout,
		interval:    limits.KeyframeInterval,
	}, nil
}

func (d *Decoder) probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, d.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}

// frameStream is one decode session: the running ffmpeg process, its output
// cursor and, once finished, its exit status. Frames are pulled one at a
// time; backpressure works through the kernel pipe buffer stalling ffmpeg's
// writes.
type frameStream struct {
	cmd         *exec.Cmd
	out         *bufio.Reader
	stderr      *bytes.Buffer
	waitTimeout time.Duration
	interval    int

	frameNum int
	err      error
	waited   bool
	closed   bool
}

// Next blocks until the next keyframe is parsed. It returns io.EOF after the
// stream ends cleanly and ffmpeg exits zero; every other failure is terminal
// and sticky. Frames are emitted in strictly increasing temporal order.
func (s *frameStream) Next() (*entity.Frame, error) {
	if s.err != nil {
		return nil, s.err
	}

	frame, err := readFrameRecord(s.out)
	if err == io.EOF {
		if werr := s.finish(); werr != nil {
			s.err = werr
			return nil, werr
		}
		s.err = io.EOF
		return nil, io.EOF
	}
	if err != nil {
		s.err = err
		s.terminate()
		return nil, err
	}

	// only keyframes survive -skip_frame nokey, so the timestamp is the
	// frame's position on the keyframe grid
	frame.Timestamp = float64(s.frameNum * s.interval)
	frame.Keyframe = true
	s.frameNum++
	return frame, nil
}

// finish waits for ffmpeg to exit after its output was fully consumed. The
// wait is bounded: a process that lingers past the timeout is a protocol
// violation and fails the decode.
func (s *frameStream) finish() error {
	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()

	select {
	case err := <-done:
		s.waited = true
		if err != nil {
			return &entity.DecodeError{
				Reason: "ffmpeg exited with failure",
				Stderr: strings.TrimSpace(s.stderr.String()),
			}
		}
		return nil
	case <-time.After(s.waitTimeout):
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		<-done
		s.waited = true
		return &entity.DecodeError{
			Reason: fmt.Sprintf("ffmpeg did not exit within %s after its output was consumed", s.waitTimeout),
			Stderr: strings.TrimSpace(s.stderr.String()),
		}
	}
}

func (s *frameStream) terminate() {
	if s.waited {
		return
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	s.waited = true
}

// Close reclaims the decode session. Safe to call at any point of iteration
// and idempotent; an abandoned stream's ffmpeg process is killed here.
func (s *frameStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.err == nil {
		s.err = fmt.Errorf("frame stream closed")
	}
	s.terminate()
	return nil
}
