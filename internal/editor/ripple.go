package editor

import (
	"github.com/keagan/reelcut/internal/clips"
	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/pkg/mediatime"
)

// RippleDelete removes the timeline range cut and closes the gap.
//
// Each clip is classified against cut on its own:
//   - ends at or before cut.Start: kept as is
//   - starts at or after cut.End: kept as is (it moves left implicitly)
//   - overlaps: yields the part before cut.Start and the part after
//     cut.End, zero, one or two fragments. When both survive the right one
//     gets a new id.
//
// A cut reaching past the end of the timeline is truncated to it.
// Fragments of zero duration are dropped.
func (e *Editor) RippleDelete(p *project.Project, cut mediatime.Range) (*project.Project, error) {
	const op = "ripple delete"
	total := p.TotalDuration()
	if cut.IsEmpty() || cut.Start.Sign() < 0 || !cut.Start.Before(total) {
		return nil, failf(op, "", ErrInvalidRange, "%s outside timeline [0, %s)", cut, total)
	}
	cut = cut.Truncate(total)

	out := p.Clone()
	out.Clips = make([]*clips.Clip, 0, len(p.Clips)+1)
	cursor := mediatime.Zero
	for _, c := range p.Clips {
		placed := mediatime.Range{Start: cursor, Duration: c.Duration()}
		cursor = placed.End()
		out.Clips = append(out.Clips, e.rippleClip(c, placed, cut)...)
	}

	if out.Selection != "" && out.IndexOf(out.Selection) < 0 {
		out.Selection = ""
	}
	return out, nil
}

func (e *Editor) rippleClip(c *clips.Clip, placed, cut mediatime.Range) []*clips.Clip {
	if !placed.End().After(cut.Start) || !placed.Start.Before(cut.End()) {
		return []*clips.Clip{c.Clone()}
	}

	var frags []*clips.Clip
	if placed.Start.Before(cut.Start) {
		left := c.Clone()
		left.End = c.Start.Add(cut.Start.Sub(placed.Start))
		frags = append(frags, left)
	}
	if placed.End().After(cut.End()) {
		right := c.Clone()
		right.Start = c.Start.Add(cut.End().Sub(placed.Start))
		if len(frags) > 0 {
			right.ID = e.newID()
		}
		frags = append(frags, right)
	}

	kept := frags[:0]
	for _, f := range frags {
		if f.End.After(f.Start) {
			kept = append(kept, f)
		}
	}
	return kept
}
