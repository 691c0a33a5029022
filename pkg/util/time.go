package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/keagan/reelcut/pkg/mediatime"
)

// FormatTimestamp renders t as an ffmpeg timestamp (HH:MM:SS.mmm).
func FormatTimestamp(t mediatime.Time) string {
	sign := ""
	if t.Sign() < 0 {
		sign = "-"
		t = t.Abs()
	}
	ms := t.Round(1000)
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, hours, minutes, ms/1000, ms%1000)
}

// FormatSeconds renders t as decimal seconds for ffmpeg filter options.
func FormatSeconds(t mediatime.Time) string {
	return strconv.FormatFloat(t.Seconds(), 'f', 6, 64)
}

// ParseTimestamp parses HH:MM:SS.mmm, MM:SS, plain seconds or a num/den rational.
func ParseTimestamp(s string) (mediatime.Time, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return mediatime.Zero, fmt.Errorf("invalid timestamp format: %s", s)
	}

	total := mediatime.Zero
	for i, part := range parts {
		v, err := mediatime.Parse(part)
		if err != nil || (v.Sign() < 0 && len(parts) > 1) {
			return mediatime.Zero, fmt.Errorf("invalid timestamp format: %s", s)
		}
		// each field to the left is worth 60x the one to its right
		exp := len(parts) - 1 - i
		for ; exp > 0; exp-- {
			if v, err = v.CheckedMul(60, 1); err != nil {
				return mediatime.Zero, fmt.Errorf("invalid timestamp format: %s", s)
			}
		}
		if total, err = total.CheckedAdd(v); err != nil {
			return mediatime.Zero, fmt.Errorf("invalid timestamp format: %s", s)
		}
	}
	return total, nil
}

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30000/1001")
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
