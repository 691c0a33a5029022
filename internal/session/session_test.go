package session

import (
	"sync"
	"testing"
	"time"

	"github.com/keagan/reelcut/internal/clips"
	"github.com/keagan/reelcut/internal/editor"
	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProject() *project.Project {
	p := project.New("session")
	p.Clips = []*clips.Clip{
		{ID: "a", Source: "a.mp4", Start: mediatime.Zero, End: mediatime.Seconds(4), Volume: 1, Speed: 1},
	}
	return p
}

func TestApplyUndoRedo(t *testing.T) {
	ed := editor.New()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(zerolog.Nop(), newProject(), WithClock(func() time.Time { return fixed }))

	p, err := s.Apply("split", func(p *project.Project) (*project.Project, error) {
		return ed.Split(p, "a", mediatime.Seconds(1))
	})
	require.NoError(t, err)
	assert.Len(t, p.Clips, 2)
	assert.Equal(t, fixed, p.UpdatedAt)
	assert.True(t, s.CanUndo())

	p, err = s.Undo()
	require.NoError(t, err)
	assert.Len(t, p.Clips, 1)
	assert.True(t, s.CanRedo())

	p, err = s.Redo()
	require.NoError(t, err)
	assert.Len(t, p.Clips, 2)

	_, err = s.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)
}

func TestRejectedEditKeepsState(t *testing.T) {
	ed := editor.New()
	s := New(zerolog.Nop(), newProject())

	_, err := s.Apply("trim", func(p *project.Project) (*project.Project, error) {
		return ed.TrimEnd(p, "a", mediatime.Zero)
	})
	assert.ErrorIs(t, err, editor.ErrInvalidTrim)
	assert.False(t, s.CanUndo())
	assert.True(t, s.Snapshot().TotalDuration().Equal(mediatime.Seconds(4)))

	_, err = s.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestNewEditClearsRedo(t *testing.T) {
	ed := editor.New()
	s := New(zerolog.Nop(), newProject())
	dup := func(p *project.Project) (*project.Project, error) { return ed.Duplicate(p, "a") }

	_, err := s.Apply("dup", dup)
	require.NoError(t, err)
	_, err = s.Undo()
	require.NoError(t, err)
	_, err = s.Apply("dup", dup)
	require.NoError(t, err)
	assert.False(t, s.CanRedo())
}

func TestHistoryLimit(t *testing.T) {
	ed := editor.New()
	s := New(zerolog.Nop(), newProject(), WithHistoryLimit(2))
	for i := 0; i < 5; i++ {
		_, err := s.Apply("dup", func(p *project.Project) (*project.Project, error) { return ed.Duplicate(p, "a") })
		require.NoError(t, err)
	}
	_, err := s.Undo()
	require.NoError(t, err)
	_, err = s.Undo()
	require.NoError(t, err)
	_, err = s.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.Len(t, s.Snapshot().Clips, 4)
}

func TestConcurrentEditsAreSerialized(t *testing.T) {
	ed := editor.New()
	s := New(zerolog.Nop(), newProject())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Apply("dup", func(p *project.Project) (*project.Project, error) { return ed.Duplicate(p, "a") })
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, s.Snapshot().Clips, 21)
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := New(zerolog.Nop(), newProject())
	snap := s.Snapshot()
	snap.Clips[0].Volume = 0
	assert.Equal(t, 1.0, s.Snapshot().Clips[0].Volume)
}
