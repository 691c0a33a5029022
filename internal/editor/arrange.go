package editor

import (
	"fmt"

	"github.com/keagan/reelcut/internal/clips"
	"github.com/keagan/reelcut/internal/project"
)

// Append adds c at the end of the timeline.
func (e *Editor) Append(p *project.Project, c *clips.Clip) (*project.Project, error) {
	return e.Insert(p, len(p.Clips), c)
}

// Insert places a copy of c at index, shifting later clips right. An empty
// id is allocated.
func (e *Editor) Insert(p *project.Project, index int, c *clips.Clip) (*project.Project, error) {
	const op = "insert"
	if index < 0 || index > len(p.Clips) {
		return nil, failf(op, c.ID, ErrIndexOutOfRange, "%d not in [0, %d]", index, len(p.Clips))
	}

	nc := c.Clone()
	if nc.ID == "" {
		nc.ID = e.newID()
	}
	if p.IndexOf(nc.ID) >= 0 {
		return nil, fail(op, nc.ID, fmt.Errorf("%w: %w", ErrInvalidValue, project.ErrDuplicateID))
	}
	if err := nc.Validate(); err != nil {
		return nil, fail(op, nc.ID, fmt.Errorf("%w: %w", ErrInvalidValue, err))
	}

	out := p.Clone()
	out.Clips = insertAt(out.Clips, index, nc)
	return out, nil
}

// Remove deletes a clip without touching any other clip.
func (e *Editor) Remove(p *project.Project, id string) (*project.Project, error) {
	out, i, err := locate(p, "remove", id)
	if err != nil {
		return nil, err
	}
	out.Clips = append(out.Clips[:i], out.Clips[i+1:]...)
	if out.Selection == id {
		out.Selection = ""
	}
	return out, nil
}

// Duplicate inserts a copy of the clip, with a new id, right after it.
func (e *Editor) Duplicate(p *project.Project, id string) (*project.Project, error) {
	out, i, err := locate(p, "duplicate", id)
	if err != nil {
		return nil, err
	}
	dup := out.Clips[i].Clone()
	dup.ID = e.newID()
	out.Clips = insertAt(out.Clips, i+1, dup)
	return out, nil
}

// Reorder moves the clip to toIndex in the sequence.
func (e *Editor) Reorder(p *project.Project, id string, toIndex int) (*project.Project, error) {
	const op = "reorder"
	out, i, err := locate(p, op, id)
	if err != nil {
		return nil, err
	}
	if toIndex < 0 || toIndex >= len(out.Clips) {
		return nil, failf(op, id, ErrIndexOutOfRange, "%d not in [0, %d)", toIndex, len(out.Clips))
	}

	c := out.Clips[i]
	out.Clips = append(out.Clips[:i], out.Clips[i+1:]...)
	out.Clips = insertAt(out.Clips, toIndex, c)
	return out, nil
}

// Select marks a clip as selected. An empty id clears the selection.
func (e *Editor) Select(p *project.Project, id string) (*project.Project, error) {
	if id != "" && p.IndexOf(id) < 0 {
		return nil, fail("select", id, ErrClipNotFound)
	}
	out := p.Clone()
	out.Selection = id
	return out, nil
}

func insertAt(list []*clips.Clip, i int, c *clips.Clip) []*clips.Clip {
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = c
	return list
}
