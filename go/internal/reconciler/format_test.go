package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatHHMMSS(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{61, "00:01:01"},
		{3600, "01:00:00"},
		{43200, "12:00:00"},
		{100 * 3600, "100:00:00"},
		{-3, "00:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatHHMMSS(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0.0, Progress(43200))
	assert.Equal(t, 0.5, Progress(21600))
	assert.Equal(t, 1.0, Progress(0))
	assert.Equal(t, 0.0, Progress(100000), "windows longer than the default clamp to zero")
}
