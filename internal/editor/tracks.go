package editor

import (
	"fmt"

	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/pkg/mediatime"
)

// AddAudioTrack appends a music bed. An empty id is allocated.
func (e *Editor) AddAudioTrack(p *project.Project, tr project.AudioTrack) (*project.Project, error) {
	const op = "add audio track"
	if tr.ID == "" {
		tr.ID = e.newID()
	}
	if tr.Source == "" || tr.Range.IsEmpty() || tr.Range.Start.Sign() < 0 {
		return nil, failf(op, tr.ID, ErrInvalidValue, "source %q range %s", tr.Source, tr.Range)
	}
	if p.AudioTrackIndex(tr.ID) >= 0 {
		return nil, fail(op, tr.ID, fmt.Errorf("%w: %w", ErrInvalidValue, project.ErrDuplicateID))
	}
	tr.Volume = clampUnit(tr.Volume)

	out := p.Clone()
	out.AudioTracks = append(out.AudioTracks, &tr)
	return out, nil
}

// RemoveAudioTrack deletes a music bed.
func (e *Editor) RemoveAudioTrack(p *project.Project, id string) (*project.Project, error) {
	i := p.AudioTrackIndex(id)
	if i < 0 {
		return nil, fail("remove audio track", id, ErrTrackNotFound)
	}
	out := p.Clone()
	out.AudioTracks = append(out.AudioTracks[:i], out.AudioTracks[i+1:]...)
	return out, nil
}

// SetAudioTrackMuted mutes or unmutes a music bed.
func (e *Editor) SetAudioTrackMuted(p *project.Project, id string, muted bool) (*project.Project, error) {
	i := p.AudioTrackIndex(id)
	if i < 0 {
		return nil, fail("mute audio track", id, ErrTrackNotFound)
	}
	out := p.Clone()
	out.AudioTracks[i].Muted = muted
	return out, nil
}

// SetAudioTrackVolume sets a music bed's gain, clamped to [0, 1].
func (e *Editor) SetAudioTrackVolume(p *project.Project, id string, volume float64) (*project.Project, error) {
	i := p.AudioTrackIndex(id)
	if i < 0 {
		return nil, fail("set audio track volume", id, ErrTrackNotFound)
	}
	out := p.Clone()
	out.AudioTracks[i].Volume = clampUnit(volume)
	return out, nil
}

// AddCaption appends a caption line. An empty id is allocated.
func (e *Editor) AddCaption(p *project.Project, c project.Caption) (*project.Project, error) {
	const op = "add caption"
	if c.ID == "" {
		c.ID = e.newID()
	}
	if c.Language == "" {
		return nil, failf(op, c.ID, ErrInvalidValue, "language is required")
	}
	if err := c.Validate(); err != nil {
		return nil, failf(op, c.ID, ErrInvalidRange, "%v", err)
	}
	out := p.Clone()
	out.Captions = append(out.Captions, &c)
	return out, nil
}

// UpdateCaption replaces the timing and text of a caption line.
func (e *Editor) UpdateCaption(p *project.Project, id string, start, end mediatime.Time, text string) (*project.Project, error) {
	const op = "update caption"
	i := captionIndex(p, id)
	if i < 0 {
		return nil, fail(op, id, ErrCaptionNotFound)
	}
	out := p.Clone()
	c := out.Captions[i]
	c.Start, c.End, c.Text = start, end, text
	if err := c.Validate(); err != nil {
		return nil, failf(op, id, ErrInvalidRange, "%v", err)
	}
	return out, nil
}

// RemoveCaption deletes a caption line.
func (e *Editor) RemoveCaption(p *project.Project, id string) (*project.Project, error) {
	i := captionIndex(p, id)
	if i < 0 {
		return nil, fail("remove caption", id, ErrCaptionNotFound)
	}
	out := p.Clone()
	out.Captions = append(out.Captions[:i], out.Captions[i+1:]...)
	return out, nil
}

func captionIndex(p *project.Project, id string) int {
	for i, c := range p.Captions {
		if c.ID == id {
			return i
		}
	}
	return -1
}
