package project

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/keagan/reelcut/internal/clips"
	"github.com/keagan/reelcut/pkg/mediatime"
)

var (
	ErrDuplicateID    = errors.New("duplicate id")
	ErrInvalidCaption = errors.New("caption end must be after start")
	ErrInvalidTrack   = errors.New("invalid audio track")
)

// Project is the unit of editing work. Clip order is playback order.
type Project struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Clips       []*clips.Clip  `yaml:"clips" json:"clips"`
	AudioTracks []*AudioTrack  `yaml:"audio_tracks,omitempty" json:"audio_tracks,omitempty"`
	Captions    []*Caption     `yaml:"captions,omitempty" json:"captions,omitempty"`
	Export      ExportSettings `yaml:"export" json:"export"`

	// Selection is the id of the selected clip, if any.
	Selection string `yaml:"selection,omitempty" json:"selection,omitempty"`

	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}

// AudioTrack is a secondary audio bed placed on the timeline.
type AudioTrack struct {
	ID     string          `yaml:"id" json:"id"`
	Source string          `yaml:"source" json:"source"`
	Range  mediatime.Range `yaml:"range" json:"range"`
	Volume float64         `yaml:"volume" json:"volume"`
	Muted  bool            `yaml:"muted,omitempty" json:"muted,omitempty"`
}

// ExportSettings names the preset and quality used by default for this project.
type ExportSettings struct {
	Preset  string `yaml:"preset,omitempty" json:"preset,omitempty"`
	Quality string `yaml:"quality,omitempty" json:"quality,omitempty"`
}

// New creates an empty project.
func New(name string) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:        uuid.NewString(),
		Name:      name,
		Clips:     make([]*clips.Clip, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy. Edits work on clones so the input is never mutated.
func (p *Project) Clone() *Project {
	out := *p
	out.Clips = make([]*clips.Clip, len(p.Clips))
	for i, c := range p.Clips {
		out.Clips[i] = c.Clone()
	}
	if p.AudioTracks != nil {
		out.AudioTracks = make([]*AudioTrack, len(p.AudioTracks))
		for i, tr := range p.AudioTracks {
			cp := *tr
			out.AudioTracks[i] = &cp
		}
	}
	if p.Captions != nil {
		out.Captions = make([]*Caption, len(p.Captions))
		for i, c := range p.Captions {
			cp := *c
			out.Captions[i] = &cp
		}
	}
	return &out
}

// TotalDuration is the sum of all clip durations.
func (p *Project) TotalDuration() mediatime.Time {
	total := mediatime.Zero
	for _, c := range p.Clips {
		total = total.Add(c.Duration())
	}
	return total
}

// Offsets returns the placement offset of every clip: the cumulative
// duration of the clips before it.
func (p *Project) Offsets() []mediatime.Time {
	offsets := make([]mediatime.Time, len(p.Clips))
	cursor := mediatime.Zero
	for i, c := range p.Clips {
		offsets[i] = cursor
		cursor = cursor.Add(c.Duration())
	}
	return offsets
}

// Placement returns the timeline range occupied by the clip at index i.
func (p *Project) Placement(i int) mediatime.Range {
	cursor := mediatime.Zero
	for _, c := range p.Clips[:i] {
		cursor = cursor.Add(c.Duration())
	}
	return mediatime.Range{Start: cursor, Duration: p.Clips[i].Duration()}
}

// IndexOf returns the index of the clip with id, or -1.
func (p *Project) IndexOf(id string) int {
	for i, c := range p.Clips {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Clip returns the clip with id, or nil.
func (p *Project) Clip(id string) *clips.Clip {
	if i := p.IndexOf(id); i >= 0 {
		return p.Clips[i]
	}
	return nil
}

// ClipAt returns the index of the clip playing at timeline time t, or -1.
func (p *Project) ClipAt(t mediatime.Time) int {
	cursor := mediatime.Zero
	for i, c := range p.Clips {
		r := mediatime.Range{Start: cursor, Duration: c.Duration()}
		if r.Contains(t) {
			return i
		}
		cursor = r.End()
	}
	return -1
}

// AudioTrackIndex returns the index of the audio track with id, or -1.
func (p *Project) AudioTrackIndex(id string) int {
	for i, tr := range p.AudioTracks {
		if tr.ID == id {
			return i
		}
	}
	return -1
}

// Validate checks every clip, track and caption plus id uniqueness.
func (p *Project) Validate() error {
	seen := make(map[string]bool, len(p.Clips))
	total := mediatime.Zero
	for _, c := range p.Clips {
		if seen[c.ID] {
			return fmt.Errorf("clip %s: %w", c.ID, ErrDuplicateID)
		}
		seen[c.ID] = true
		if err := c.Validate(); err != nil {
			return err
		}
		// placements are running sums, so the whole timeline must stay representable
		d, err := c.End.CheckedSub(c.Start)
		if err == nil {
			total, err = total.CheckedAdd(d)
		}
		if err != nil {
			return fmt.Errorf("clip %s: timeline length: %w", c.ID, err)
		}
	}
	for _, tr := range p.AudioTracks {
		if tr.Source == "" || tr.Range.Duration.Sign() < 0 || tr.Range.Start.Sign() < 0 {
			return fmt.Errorf("audio track %s: %w", tr.ID, ErrInvalidTrack)
		}
		if _, err := tr.Range.Start.CheckedAdd(tr.Range.Duration); err != nil {
			return fmt.Errorf("audio track %s: %w: %w", tr.ID, ErrInvalidTrack, err)
		}
		if tr.Volume < 0 || tr.Volume > 1 {
			return fmt.Errorf("audio track %s: %w", tr.ID, clips.ErrInvalidVolume)
		}
	}
	for _, c := range p.Captions {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Languages lists the caption languages in use, sorted.
func (p *Project) Languages() []string {
	set := make(map[string]struct{})
	for _, c := range p.Captions {
		set[c.Language] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for lang := range set {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
