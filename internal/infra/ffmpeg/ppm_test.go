package ffmpeg

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toksz/rep0st/internal/domain/entity"
)

func ppmRecord(width, height int, payload []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "P6\n%d %d\n255\n", width, height)
	buf.Write(payload)
	return buf.Bytes()
}

func TestReadFrameRecordConvertsRGBToBGR(t *testing.T) {
	// one red pixel on the wire
	r := bufio.NewReader(bytes.NewReader(ppmRecord(1, 1, []byte{255, 0, 0})))

	frame, err := readFrameRecord(r)
	require.NoError(t, err)

	assert.Equal(t, 1, frame.Width)
	assert.Equal(t, 1, frame.Height)
	assert.Equal(t, []byte{0, 0, 255}, frame.Pix)
}

func TestReadFrameRecordSequence(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		buf.Write(ppmRecord(2, 2, bytes.Repeat([]byte{byte(i), byte(i), byte(i)}, 4)))
	}
	r := bufio.NewReader(&buf)

	for i := 0; i < 3; i++ {
		frame, err := readFrameRecord(r)
		require.NoError(t, err)
		assert.Equal(t, 2, frame.Width)
		assert.Equal(t, 2, frame.Height)
		assert.Len(t, frame.Pix, 2*2*entity.FrameChannels)
		assert.Equal(t, byte(i), frame.Pix[0], "frames must arrive in order")
	}

	_, err := readFrameRecord(r)
	assert.Equal(t, io.EOF, err)
}

func TestReadFrameRecordEmptyStream(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader(nil))

	_, err := readFrameRecord(r)
	assert.Equal(t, io.EOF, err)
}

func TestReadFrameRecordBadFormatToken(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte("P5\n1 1\n255\n\x00")))

	_, err := readFrameRecord(r)
	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Contains(t, decodeErr.Reason, "unsupported frame format")
}

func TestReadFrameRecordBadMaxValue(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte("P6\n1 1\n254\n\x00\x00\x00")))

	_, err := readFrameRecord(r)
	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Contains(t, decodeErr.Reason, "255")
}

func TestReadFrameRecordTruncatedPayload(t *testing.T) {
	full := ppmRecord(2, 2, bytes.Repeat([]byte{7}, 2*2*entity.FrameChannels))
	r := bufio.NewReader(bytes.NewReader(full[:len(full)-5]))

	_, err := readFrameRecord(r)
	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Contains(t, decodeErr.Reason, "full frame payload")
}

func TestReadFrameRecordTruncatedHeader(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte("P6\n1 1\n")))

	_, err := readFrameRecord(r)
	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Contains(t, decodeErr.Reason, "end of stream")
}

func TestReadFrameRecordMalformedDimensions(t *testing.T) {
	for _, dims := range []string{"1", "0 1", "1 -2", "a b", "1 2 3"} {
		r := bufio.NewReader(bytes.NewReader([]byte("P6\n" + dims + "\n255\n")))

		_, err := readFrameRecord(r)
		var decodeErr *entity.DecodeError
		require.True(t, errors.As(err, &decodeErr), "dims %q", dims)
		assert.Contains(t, decodeErr.Reason, "dimensions")
	}
}
