package entity

import "time"

// FrameChannels is the channel count of every decoded frame. Frames are
// normalized to interleaved BGR, one byte per sample, matching what the
// feature extraction stage expects.
const FrameChannels = 3

// Frame is a single decoded pixel frame. Pix holds Width*Height*FrameChannels
// bytes in row-major order, channels interleaved blue-green-red.
type Frame struct {
	Pix       []byte
	Width     int
	Height    int
	Timestamp float64
	Keyframe  bool
}

// FrameInfo is the persisted record of one extracted frame. The pixel data
// itself is not stored; downstream feature extraction re-reads it through
// the resolver.
type FrameInfo struct {
	ID          int64
	PostID      int64
	FrameNumber int
	Timestamp   float64
	IsKeyframe  bool
	CreatedAt   time.Time
}
