package editor

import (
	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/pkg/mediatime"
)

// Snap returns the candidate nearest to t when it lies within threshold,
// otherwise t. On equal distance the earlier candidate wins.
func Snap(t mediatime.Time, candidates []mediatime.Time, threshold mediatime.Time) mediatime.Time {
	best := t
	var bestDist mediatime.Time
	found := false
	for _, c := range candidates {
		d := c.Sub(t).Abs()
		if d.After(threshold) {
			continue
		}
		if !found || d.Before(bestDist) {
			best, bestDist, found = c, d, true
		}
	}
	return best
}

// SnapCandidates lists every clip boundary on the timeline, including the
// end of the last clip, followed by the playhead.
func SnapCandidates(p *project.Project, playhead mediatime.Time) []mediatime.Time {
	return append(p.Offsets(), p.TotalDuration(), playhead)
}
