// Package composition turns a project's clip list into a render graph:
// disjoint video and audio placements at cumulative offsets, per-clip gain
// and the anchor geometry taken from the first clip.
package composition

import (
	"github.com/keagan/reelcut/pkg/mediatime"
)

// Placement is one source window placed on the timeline.
type Placement struct {
	Source      string          `json:"source"`
	SourceRange mediatime.Range `json:"source_range"`
	Offset      mediatime.Time  `json:"offset"`
}

// TimelineRange is where the placement plays.
func (p Placement) TimelineRange() mediatime.Range {
	return mediatime.Range{Start: p.Offset, Duration: p.SourceRange.Duration}
}

// Segment is the timeline slot of one clip. Video or Audio is nil when the
// clip's source has no usable channel; the renderer fills that slot with
// black or silence.
type Segment struct {
	ClipID   string         `json:"clip_id"`
	Offset   mediatime.Time `json:"offset"`
	Duration mediatime.Time `json:"duration"`
	Volume   float64        `json:"volume"`
	Video    *Placement     `json:"video,omitempty"`
	Audio    *Placement     `json:"audio,omitempty"`
}

// Range is the slot on the timeline.
func (s Segment) Range() mediatime.Range {
	return mediatime.Range{Start: s.Offset, Duration: s.Duration}
}

// Bed is a music bed mixed under the clip audio.
type Bed struct {
	TrackID string          `json:"track_id"`
	Source  string          `json:"source"`
	Range   mediatime.Range `json:"range"`
	Volume  float64         `json:"volume"`
}

// GainSegment is a flat gain over a timeline range.
type GainSegment struct {
	Range  mediatime.Range `json:"range"`
	Volume float64         `json:"volume"`
}

// Composition is the render graph for a project.
type Composition struct {
	Segments []Segment      `json:"segments"`
	Beds     []Bed          `json:"beds,omitempty"`
	Duration mediatime.Time `json:"duration"`

	// Anchor is the first clip's asset. It fixes the render geometry.
	Anchor *Asset `json:"anchor,omitempty"`

	// Warnings lists channels that were skipped.
	Warnings []*SourceError `json:"-"`
}

// RenderSize is the orientation-corrected natural size of the anchor.
func (c *Composition) RenderSize() Size {
	if c.Anchor == nil {
		return Size{}
	}
	return c.Anchor.OrientedSize()
}

// IsEmpty reports whether there is nothing to render.
func (c *Composition) IsEmpty() bool {
	return len(c.Segments) == 0 || c.Duration.Sign() <= 0
}

// VideoPlacements lists the video channel in timeline order.
func (c *Composition) VideoPlacements() []Placement {
	var out []Placement
	for _, s := range c.Segments {
		if s.Video != nil {
			out = append(out, *s.Video)
		}
	}
	return out
}

// AudioPlacements lists the audio channel in timeline order.
func (c *Composition) AudioPlacements() []Placement {
	var out []Placement
	for _, s := range c.Segments {
		if s.Audio != nil {
			out = append(out, *s.Audio)
		}
	}
	return out
}

// GainSegments returns one flat segment per clip at its volume. Together
// they cover [0, Duration) without gaps.
func (c *Composition) GainSegments() []GainSegment {
	out := make([]GainSegment, 0, len(c.Segments))
	for _, s := range c.Segments {
		out = append(out, GainSegment{Range: s.Range(), Volume: s.Volume})
	}
	return out
}

// SegmentAt returns the index of the segment playing at t and the
// corresponding video source time. ok is false outside the timeline or on
// a segment without video.
func (c *Composition) SegmentAt(t mediatime.Time) (index int, sourceTime mediatime.Time, ok bool) {
	for i, s := range c.Segments {
		if !s.Range().Contains(t) {
			continue
		}
		if s.Video == nil {
			return i, mediatime.Zero, false
		}
		return i, s.Video.SourceRange.Start.Add(t.Sub(s.Offset)), true
	}
	return -1, mediatime.Zero, false
}

// Truncate returns a copy limited to [0, limit). The receiver is unchanged.
func (c *Composition) Truncate(limit mediatime.Time) *Composition {
	if !c.Duration.After(limit) {
		return c
	}

	out := &Composition{
		Duration: limit,
		Anchor:   c.Anchor,
		Warnings: c.Warnings,
	}
	for _, s := range c.Segments {
		if !s.Offset.Before(limit) {
			break
		}
		s.Duration = s.Range().Truncate(limit).Duration
		s.Video = truncatePlacement(s.Video, limit)
		s.Audio = truncatePlacement(s.Audio, limit)
		out.Segments = append(out.Segments, s)
	}
	for _, b := range c.Beds {
		b.Range = b.Range.Truncate(limit)
		if !b.Range.IsEmpty() {
			out.Beds = append(out.Beds, b)
		}
	}
	return out
}

func truncatePlacement(p *Placement, limit mediatime.Time) *Placement {
	if p == nil {
		return nil
	}
	placed := p.TimelineRange().Truncate(limit)
	if placed.IsEmpty() {
		return nil
	}
	cp := *p
	cp.SourceRange.Duration = placed.Duration
	return &cp
}
