package reconciler

import (
	"fmt"

	"github.com/mcdev12/countdown/go/internal/models"
)

// FormatHHMMSS renders seconds as HH:MM:SS. Hours are not wrapped at 24.
func FormatHHMMSS(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// Progress returns how much of the default window has elapsed, in [0, 1].
func Progress(remaining int64) float64 {
	total := models.DefaultDurationMs / 1000
	p := float64(total-remaining) / float64(total)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
