package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toksz/rep0st/internal/domain/entity"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeBytesDimensionsAndColorOrder(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	frame, err := NewDecoder().DecodeBytes(encodePNG(t, img))
	require.NoError(t, err)

	assert.Equal(t, 3, frame.Width)
	assert.Equal(t, 2, frame.Height)
	require.Len(t, frame.Pix, 3*2*entity.FrameChannels)

	// the red top-left pixel lands in BGR order
	assert.Equal(t, []byte{0, 0, 255}, frame.Pix[:3])
}

func TestDecodeBytesInvalidInput(t *testing.T) {
	for name, data := range map[string][]byte{
		"garbage": []byte("definitely not an image"),
		"empty":   nil,
		"header-only": {
			0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewDecoder().DecodeBytes(data)

			var decodeErr *entity.DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, "could not decode image", decodeErr.Reason)
		})
	}
}

func TestDecodeFileYieldsSingleFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	path := filepath.Join(t.TempDir(), "post.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, img), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	stream, err := NewDecoder().Decode(context.Background(), f, entity.Limits{})
	require.NoError(t, err)
	defer stream.Close()

	frame, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, 4, frame.Width)
	assert.Equal(t, 4, frame.Height)

	_, err = stream.Next()
	assert.Equal(t, io.EOF, err)
}
