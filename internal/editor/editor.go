// Package editor implements the structural edits on a project's clip list.
//
// Every operation is a pure function: it never mutates the project it is
// given and returns either a new project or an *Error describing why the
// edit was rejected. Callers commit the returned project themselves, which
// keeps undo/redo trivial (see package session).
//
// Timeline positions are never stored. A clip's placement is the sum of the
// durations of the clips before it, so reordering or deleting needs no
// position bookkeeping. Clip speed is carried as metadata only; timeline
// durations are source durations.
package editor

import (
	"errors"
	"fmt"

	"github.com/keagan/reelcut/internal/clips"
	"github.com/keagan/reelcut/internal/project"
)

var (
	ErrClipNotFound      = errors.New("clip not found")
	ErrTrackNotFound     = errors.New("audio track not found")
	ErrCaptionNotFound   = errors.New("caption not found")
	ErrInvalidRange      = errors.New("invalid time range")
	ErrInvalidSplitPoint = errors.New("split point must be strictly inside the clip")
	ErrInvalidTrim       = errors.New("trim would leave an empty or inverted clip")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrInvalidValue      = errors.New("invalid value")
)

// Error is a rejected edit. The project it was applied to is unchanged.
type Error struct {
	Op  string
	ID  string
	Err error
}

func (e *Error) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(op, id string, err error) error {
	return &Error{Op: op, ID: id, Err: err}
}

func failf(op, id string, sentinel error, format string, args ...any) error {
	return &Error{Op: op, ID: id, Err: fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)}
}

// Editor applies edits. It only holds the id allocator used for clips
// created by split, ripple delete and duplicate.
type Editor struct {
	newID func() string
}

// Option configures an Editor.
type Option func(*Editor)

// WithIDGenerator replaces the default uuid allocator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) { e.newID = fn }
}

// New creates an editor.
func New(opts ...Option) *Editor {
	e := &Editor{newID: clips.NewID}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// locate clones p and returns the index of clip id in the clone.
func locate(p *project.Project, op, id string) (*project.Project, int, error) {
	i := p.IndexOf(id)
	if i < 0 {
		return nil, -1, fail(op, id, ErrClipNotFound)
	}
	return p.Clone(), i, nil
}
