package editor

import (
	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/pkg/mediatime"
)

// Split cuts clip id at source time at. The left piece keeps the id, the
// right piece gets a new one and becomes the selection.
func (e *Editor) Split(p *project.Project, id string, at mediatime.Time) (*project.Project, error) {
	const op = "split"
	out, i, err := locate(p, op, id)
	if err != nil {
		return nil, err
	}

	c := out.Clips[i]
	if !at.After(c.Start) || !at.Before(c.End) {
		return nil, failf(op, id, ErrInvalidSplitPoint, "%s not in (%s, %s)", at, c.Start, c.End)
	}

	right := c.Clone()
	right.ID = e.newID()
	right.Start = at
	c.End = at

	out.Clips = insertAt(out.Clips, i+1, right)
	out.Selection = right.ID
	return out, nil
}

// SplitAtPlayhead splits whichever clip is playing at timeline time t.
func (e *Editor) SplitAtPlayhead(p *project.Project, t mediatime.Time) (*project.Project, error) {
	i := p.ClipAt(t)
	if i < 0 {
		return nil, failf("split", "", ErrInvalidSplitPoint, "no clip at %s", t)
	}
	placed := p.Placement(i)
	c := p.Clips[i]
	return e.Split(p, c.ID, c.Start.Add(t.Sub(placed.Start)))
}
