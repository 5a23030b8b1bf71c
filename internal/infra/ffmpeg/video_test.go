package ffmpeg

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toksz/rep0st/internal/domain/entity"
	"go.uber.org/zap"
)

func testLimits() entity.Limits {
	return entity.Limits{
		KeyframeInterval:   1,
		MaxKeyframes:       100,
		MaxDuration:        300,
		MaxUploadSizeBytes: 1 << 20,
		FrameBatchSize:     10,
	}
}

// writeScript drops an executable shell script standing in for ffmpeg or
// ffprobe.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func writeInput(t *testing.T, dir string, size int) *os.File {
	t.Helper()
	path := filepath.Join(dir, "input.mp4")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// emits one 1x1 frame with RGB payload "abc" and exits clean
const oneFrameScript = "printf 'P6\\n1 1\\n255\\n'\nprintf 'abc'\nexit 0\n"

func TestDecodeRejectsOversizedInputBeforeSpawning(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "spawned")
	ffmpeg := writeScript(t, dir, "ffmpeg", "touch "+marker+"\n"+oneFrameScript)
	ffprobe := writeScript(t, dir, "ffprobe", "echo 1.0\n")

	d := NewDecoder(DecoderConfig{FFmpegPath: ffmpeg, FFprobePath: ffprobe}, zap.NewNop())

	limits := testLimits()
	limits.MaxUploadSizeBytes = 16
	f := writeInput(t, dir, 64)

	_, err := d.Decode(context.Background(), f, limits)

	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "max_upload_size", decodeErr.Limit)
	assert.NoFileExists(t, marker, "ffmpeg must not be spawned for oversized input")
}

func TestDecodeRejectsTooLongVideo(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "spawned")
	ffmpeg := writeScript(t, dir, "ffmpeg", "touch "+marker+"\n"+oneFrameScript)
	ffprobe := writeScript(t, dir, "ffprobe", "echo 600.5\n")

	d := NewDecoder(DecoderConfig{FFmpegPath: ffmpeg, FFprobePath: ffprobe}, zap.NewNop())

	f := writeInput(t, dir, 64)

	_, err := d.Decode(context.Background(), f, testLimits())

	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "max_duration", decodeErr.Limit)
	assert.NoFileExists(t, marker)
}

func TestDecodeProbeFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeScript(t, dir, "ffmpeg", oneFrameScript)

	d := NewDecoder(DecoderConfig{
		FFmpegPath:  ffmpeg,
		FFprobePath: filepath.Join(dir, "does-not-exist"),
	}, zap.NewNop())

	f := writeInput(t, dir, 64)

	stream, err := d.Decode(context.Background(), f, testLimits())
	require.NoError(t, err)
	defer stream.Close()

	frame, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte{'c', 'b', 'a'}, frame.Pix)

	_, err = stream.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecodeStreamsFramesInOrder(t *testing.T) {
	dir := t.TempDir()
	body := ""
	for i := 0; i < 3; i++ {
		body += "printf 'P6\\n1 1\\n255\\n'\nprintf 'abc'\n"
	}
	ffmpeg := writeScript(t, dir, "ffmpeg", body+"exit 0\n")
	ffprobe := writeScript(t, dir, "ffprobe", "echo 3.0\n")

	d := NewDecoder(DecoderConfig{FFmpegPath: ffmpeg, FFprobePath: ffprobe}, zap.NewNop())

	f := writeInput(t, dir, 64)

	stream, err := d.Decode(context.Background(), f, testLimits())
	require.NoError(t, err)
	defer stream.Close()

	for i := 0; i < 3; i++ {
		frame, err := stream.Next()
		require.NoError(t, err)
		assert.Equal(t, 1, frame.Width)
		assert.Equal(t, 1, frame.Height)
		assert.Equal(t, float64(i), frame.Timestamp)
		assert.True(t, frame.Keyframe)
	}

	_, err = stream.Next()
	assert.Equal(t, io.EOF, err)

	// exhausted streams stay exhausted
	_, err = stream.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecodeNonzeroExitCarriesStderr(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeScript(t, dir, "ffmpeg",
		"printf 'P6\\n1 1\\n255\\n'\nprintf 'abc'\necho 'moov atom not found' >&2\nexit 1\n")
	ffprobe := writeScript(t, dir, "ffprobe", "echo 1.0\n")

	d := NewDecoder(DecoderConfig{FFmpegPath: ffmpeg, FFprobePath: ffprobe}, zap.NewNop())

	f := writeInput(t, dir, 64)

	stream, err := d.Decode(context.Background(), f, testLimits())
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Next()
	require.NoError(t, err)

	_, err = stream.Next()
	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Contains(t, err.Error(), "moov atom not found")
}

func TestDecodeBadMaxValueFromProcess(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeScript(t, dir, "ffmpeg",
		"printf 'P6\\n1 1\\n128\\n'\nprintf 'abc'\nexit 0\n")
	ffprobe := writeScript(t, dir, "ffprobe", "echo 1.0\n")

	d := NewDecoder(DecoderConfig{FFmpegPath: ffmpeg, FFprobePath: ffprobe}, zap.NewNop())

	f := writeInput(t, dir, 64)

	stream, err := d.Decode(context.Background(), f, testLimits())
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Next()
	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))

	// failures are sticky, no frame follows the malformed record
	_, err = stream.Next()
	require.True(t, errors.As(err, &decodeErr))
}

func TestDecodeFailsWhenProcessOutlivesItsOutput(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeScript(t, dir, "ffmpeg",
		oneFrameScript[:len(oneFrameScript)-len("exit 0\n")]+"exec 1>&-\nsleep 30\n")
	ffprobe := writeScript(t, dir, "ffprobe", "echo 1.0\n")

	d := NewDecoder(DecoderConfig{
		FFmpegPath:  ffmpeg,
		FFprobePath: ffprobe,
		WaitTimeout: 300 * time.Millisecond,
	}, zap.NewNop())

	f := writeInput(t, dir, 64)

	stream, err := d.Decode(context.Background(), f, testLimits())
	require.NoError(t, err)
	defer stream.Close()

	frame, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte{'c', 'b', 'a'}, frame.Pix)

	// the process closed its stdout but refuses to exit
	start := time.Now()
	_, err = stream.Next()
	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Contains(t, decodeErr.Reason, "did not exit")
	assert.Less(t, time.Since(start), 5*time.Second, "wait for a lingering process must be bounded")

	// sticky
	_, err = stream.Next()
	require.True(t, errors.As(err, &decodeErr))
}

func TestCloseKillsLingeringProcess(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeScript(t, dir, "ffmpeg", oneFrameScript[:len(oneFrameScript)-len("exit 0\n")]+"sleep 60\n")
	ffprobe := writeScript(t, dir, "ffprobe", "echo 1.0\n")

	d := NewDecoder(DecoderConfig{FFmpegPath: ffmpeg, FFprobePath: ffprobe}, zap.NewNop())

	f := writeInput(t, dir, 64)

	stream, err := d.Decode(context.Background(), f, testLimits())
	require.NoError(t, err)

	_, err = stream.Next()
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, stream.Close())
	assert.Less(t, time.Since(start), 5*time.Second, "close must not wait for the process to finish sleeping")

	// idempotent
	require.NoError(t, stream.Close())
}
