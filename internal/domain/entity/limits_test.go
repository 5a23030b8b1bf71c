package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimits(t *testing.T) {
	limits, err := NewLimits(1, 100, 300, 200*1024*1024, 10, 3, 0.8)
	require.NoError(t, err)

	assert.Equal(t, 1, limits.KeyframeInterval)
	assert.Equal(t, 100, limits.MaxKeyframes)
	assert.Equal(t, 300, limits.MaxDuration)
	assert.Equal(t, int64(200*1024*1024), limits.MaxUploadSizeBytes)
	assert.Equal(t, 10, limits.FrameBatchSize)
}

func TestNewLimitsRejectsInvalidValues(t *testing.T) {
	cases := map[string]func() (Limits, error){
		"zero keyframe interval": func() (Limits, error) { return NewLimits(0, 100, 300, 1, 10, 3, 0.8) },
		"zero max keyframes":     func() (Limits, error) { return NewLimits(1, 0, 300, 1, 10, 3, 0.8) },
		"zero max duration":      func() (Limits, error) { return NewLimits(1, 100, 0, 1, 10, 3, 0.8) },
		"zero upload size":       func() (Limits, error) { return NewLimits(1, 100, 300, 0, 10, 3, 0.8) },
		"zero batch size":        func() (Limits, error) { return NewLimits(1, 100, 300, 1, 0, 3, 0.8) },
	}

	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := build()
			assert.Error(t, err)
		})
	}
}
