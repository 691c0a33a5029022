// Package interchange serializes projects for other editors: an FCPXML
// timeline, a CMX3600 edit decision list and SRT caption sidecars. All
// writers are one-way and stateless.
package interchange

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/keagan/reelcut/pkg/mediatime"
)

// ntscRates are nominal rates whose real rate is n*1000/1001.
var ntscRates = []int64{24, 30, 60}

// FrameDuration returns the exact duration of one frame at fps. NTSC rates
// such as 29.97 map to 1001/30000.
func FrameDuration(fps float64) mediatime.Time {
	if fps <= 0 {
		fps = 30
	}
	for _, n := range ntscRates {
		if math.Abs(fps-float64(n)*1000/1001) < 0.01 {
			return mediatime.New(1001, n*1000)
		}
	}
	return mediatime.New(1, int64(math.Round(fps)))
}

// frames converts t to a whole frame count at the given frame duration.
func frames(t, frameDuration mediatime.Time) int64 {
	return t.Mul(frameDuration.Scale, frameDuration.Value).Round(1)
}

// clipName is the base name of a source without its extension.
func clipName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
