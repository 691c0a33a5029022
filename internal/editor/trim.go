package editor

import (
	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/pkg/mediatime"
)

// TrimStart moves the clip's source start to t. Negative t is clamped to
// zero. The edit is rejected when t is not before the clip's end.
func (e *Editor) TrimStart(p *project.Project, id string, t mediatime.Time) (*project.Project, error) {
	const op = "trim start"
	out, i, err := locate(p, op, id)
	if err != nil {
		return nil, err
	}

	c := out.Clips[i]
	t = mediatime.Max(t, mediatime.Zero)
	if !t.Before(c.End) {
		return nil, failf(op, id, ErrInvalidTrim, "start %s not before end %s", t, c.End)
	}
	c.Start = t
	return out, nil
}

// TrimEnd moves the clip's source end to t. The edit is rejected when t is
// not after the clip's start.
func (e *Editor) TrimEnd(p *project.Project, id string, t mediatime.Time) (*project.Project, error) {
	const op = "trim end"
	out, i, err := locate(p, op, id)
	if err != nil {
		return nil, err
	}

	c := out.Clips[i]
	if !t.After(c.Start) {
		return nil, failf(op, id, ErrInvalidTrim, "end %s not after start %s", t, c.Start)
	}
	c.End = t
	return out, nil
}

// TrimToRange keeps only the part of the clip that lies inside sel, a range
// in timeline time. The clip can only shrink.
func (e *Editor) TrimToRange(p *project.Project, id string, sel mediatime.Range) (*project.Project, error) {
	const op = "trim to range"
	if sel.IsEmpty() {
		return nil, failf(op, id, ErrInvalidRange, "empty selection %s", sel)
	}
	out, i, err := locate(p, op, id)
	if err != nil {
		return nil, err
	}

	placed := out.Placement(i)
	keep, ok := placed.Intersect(sel)
	if !ok {
		return nil, failf(op, id, ErrInvalidRange, "selection %s misses clip at %s", sel, placed)
	}

	c := out.Clips[i]
	start := c.Start.Add(keep.Start.Sub(placed.Start))
	c.End = start.Add(keep.Duration)
	c.Start = start
	return out, nil
}
