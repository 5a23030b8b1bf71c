package ffmpeg

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/toksz/rep0st/internal/domain/entity"
)

// ffmpeg emits each keyframe as a PPM record: three text header lines
// ("P6", "<width> <height>", "255") followed by width*height*3 raw RGB
// bytes. Header lines are read byte-by-byte up to the terminating newline
// because the binary payload follows the header without any delimiter.

// readFrameRecord parses the next PPM record. A clean end of stream before
// any header byte returns io.EOF; every other malformation is a DecodeError.
// The returned frame's payload is already converted to BGR.
func readFrameRecord(r *bufio.Reader) (*entity.Frame, error) {
	format, err := readHeaderLine(r)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	if format != "P6" {
		return nil, &entity.DecodeError{Reason: fmt.Sprintf("unsupported frame format %q", format)}
	}

	dims, err := readHeaderLine(r)
	if err != nil {
		return nil, truncatedHeader(err)
	}
	width, height, err := parseDimensions(dims)
	if err != nil {
		return nil, err
	}

	maxval, err := readHeaderLine(r)
	if err != nil {
		return nil, truncatedHeader(err)
	}
	if maxval != "255" {
		return nil, &entity.DecodeError{Reason: fmt.Sprintf("max sample value has to be 255, it is %s", maxval)}
	}

	pix := make([]byte, width*height*entity.FrameChannels)
	if _, err := io.ReadFull(r, pix); err != nil {
		return nil, &entity.DecodeError{Reason: "could not read the full frame payload"}
	}

	// wire order is RGB, the pipeline works in BGR
	for i := 0; i < len(pix); i += entity.FrameChannels {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}

	return &entity.Frame{Pix: pix, Width: width, Height: height}, nil
}

// readHeaderLine reads bytes up to and including a newline and returns the
// trimmed line. io.EOF is returned only when the stream ends before the
// first byte; an end of stream mid-line is an error.
func readHeaderLine(r *bufio.Reader) (string, error) {
	var line []byte
	for {
		c, err := r.ReadByte()
		if err == io.EOF {
			if len(line) == 0 {
				return "", io.EOF
			}
			return "", io.ErrUnexpectedEOF
		}
		if err != nil {
			return "", err
		}
		if c == '\n' {
			return strings.TrimSpace(string(line)), nil
		}
		line = append(line, c)
	}
}

func parseDimensions(line string) (int, int, error) {
	parts := strings.Split(line, " ")
	if len(parts) != 2 {
		return 0, 0, &entity.DecodeError{Reason: fmt.Sprintf("malformed frame dimensions %q", line)}
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil || width <= 0 {
		return 0, 0, &entity.DecodeError{Reason: fmt.Sprintf("malformed frame dimensions %q", line)}
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil || height <= 0 {
		return 0, 0, &entity.DecodeError{Reason: fmt.Sprintf("malformed frame dimensions %q", line)}
	}
	return width, height, nil
}

func truncatedHeader(err error) error {
	return &entity.DecodeError{Reason: fmt.Sprintf("unexpected end of stream in frame header: %v", err)}
}
