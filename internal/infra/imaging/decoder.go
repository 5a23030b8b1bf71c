package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"

	"github.com/toksz/rep0st/internal/domain/entity"
	"github.com/toksz/rep0st/internal/domain/port"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder decodes a single still image into one normalized BGR frame.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode reads the whole file and decodes it as a one-frame stream.
func (d *Decoder) Decode(_ context.Context, f *os.File, _ entity.Limits) (port.FrameStream, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read media file: %w", err)
	}
	frame, err := d.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	return &singleFrameStream{frame: frame}, nil
}

// DecodeBytes decodes raw encoded image bytes into one frame. Any decode
// failure, including malformed input, an unsupported codec or an empty
// result, yields a DecodeError.
func (d *Decoder) DecodeBytes(data []byte) (*entity.Frame, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil || img == nil {
		return nil, &entity.DecodeError{Reason: "could not decode image"}
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, &entity.DecodeError{Reason: "could not decode image"}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	pix := make([]byte, w*h*entity.FrameChannels)
	for i, j := 0, 0; i < len(rgba.Pix); i, j = i+4, j+3 {
		pix[j] = rgba.Pix[i+2]
		pix[j+1] = rgba.Pix[i+1]
		pix[j+2] = rgba.Pix[i]
	}

	return &entity.Frame{Pix: pix, Width: w, Height: h}, nil
}

type singleFrameStream struct {
	frame *entity.Frame
	done  bool
}

func (s *singleFrameStream) Next() (*entity.Frame, error) {
	if s.done || s.frame == nil {
		return nil, io.EOF
	}
	s.done = true
	return s.frame, nil
}

func (s *singleFrameStream) Close() error {
	s.done = true
	s.frame = nil
	return nil
}
