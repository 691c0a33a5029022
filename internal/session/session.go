// Package session owns a project and serializes edits against it.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keagan/reelcut/internal/project"
	"github.com/rs/zerolog"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultHistoryLimit bounds the undo stack.
const DefaultHistoryLimit = 100

// Edit is one editing operation, typically a closure over an editor.Editor method.
type Edit func(*project.Project) (*project.Project, error)

// Session is the single writer for one project. All methods are safe for
// concurrent use; edits are applied one at a time in call order.
type Session struct {
	mu      sync.Mutex
	logger  zerolog.Logger
	current *project.Project
	undo    []*project.Project
	redo    []*project.Project
	limit   int
	now     func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithHistoryLimit sets the undo depth. Values below 1 disable undo.
func WithHistoryLimit(n int) Option {
	return func(s *Session) { s.limit = n }
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New takes ownership of p.
func New(logger zerolog.Logger, p *project.Project, opts ...Option) *Session {
	s := &Session{
		logger:  logger.With().Str("component", "session").Str("project", p.ID).Logger(),
		current: p,
		limit:   DefaultHistoryLimit,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply runs edit against the current project and commits the result. A
// failed edit leaves the project and history untouched.
func (s *Session) Apply(name string, edit Edit) (*project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := edit(s.current)
	if err != nil {
		s.logger.Debug().Err(err).Str("edit", name).Msg("edit rejected")
		return nil, err
	}
	if next == nil || next == s.current {
		return nil, fmt.Errorf("edit %s returned no new project", name)
	}

	next.UpdatedAt = s.now().UTC()
	s.pushUndo(s.current)
	s.redo = s.redo[:0]
	s.current = next

	s.logger.Debug().
		Str("edit", name).
		Int("clips", len(next.Clips)).
		Str("duration", next.TotalDuration().String()).
		Msg("edit applied")

	return next.Clone(), nil
}

// Undo restores the project as it was before the last applied edit.
func (s *Session) Undo() (*project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return nil, ErrNothingToUndo
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.current)
	s.current = prev
	return prev.Clone(), nil
}

// Redo re-applies the last undone edit.
func (s *Session) Redo() (*project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return nil, ErrNothingToRedo
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.pushUndo(s.current)
	s.current = next
	return next.Clone(), nil
}

// Snapshot returns a copy of the current project.
func (s *Session) Snapshot() *project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// CanUndo reports whether Undo would succeed.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether Redo would succeed.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

func (s *Session) pushUndo(p *project.Project) {
	if s.limit < 1 {
		return
	}
	s.undo = append(s.undo, p)
	if over := len(s.undo) - s.limit; over > 0 {
		s.undo = append(s.undo[:0], s.undo[over:]...)
	}
}
