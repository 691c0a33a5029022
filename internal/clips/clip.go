package clips

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/keagan/reelcut/pkg/mediatime"
)

var (
	ErrInvalidWindow = errors.New("clip end must be after start")
	ErrInvalidVolume = errors.New("volume must be within [0, 1]")
	ErrInvalidSpeed  = errors.New("speed must be positive")
	ErrMissingSource = errors.New("clip source is required")
)

// Clip is a cut window into a source file. It does not store a timeline
// position; that is derived from the durations of the clips before it.
type Clip struct {
	ID     string         `yaml:"id" json:"id"`
	Source string         `yaml:"source" json:"source"`
	Start  mediatime.Time `yaml:"start" json:"start"`
	End    mediatime.Time `yaml:"end" json:"end"`

	// AudioOffset shifts the audio window against the video window.
	// Negative values lead (J-cut), positive values lag (L-cut).
	AudioOffset mediatime.Time `yaml:"audio_offset,omitempty" json:"audio_offset,omitempty"`

	Volume   float64           `yaml:"volume" json:"volume"`
	Speed    float64           `yaml:"speed" json:"speed"`
	Filters  []Filter          `yaml:"filters,omitempty" json:"filters,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Filter is a declarative post effect descriptor. Filters are stored and
// carried through edits but are not applied by the renderer.
type Filter struct {
	Type      string  `yaml:"type" json:"type"`
	Intensity float64 `yaml:"intensity" json:"intensity"`
}

// NewID allocates a clip identifier.
func NewID() string {
	return uuid.NewString()
}

// New creates a clip covering [start, end) of source with unity gain and speed.
func New(source string, start, end mediatime.Time) (*Clip, error) {
	c := &Clip{
		ID:     NewID(),
		Source: source,
		Start:  start,
		End:    end,
		Volume: 1,
		Speed:  1,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Duration returns End - Start.
func (c *Clip) Duration() mediatime.Time {
	return c.End.Sub(c.Start)
}

// SourceRange returns the cut window as a range in source time.
func (c *Clip) SourceRange() mediatime.Range {
	return mediatime.Range{Start: c.Start, Duration: c.Duration()}
}

// Validate checks the clip invariants.
func (c *Clip) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("clip %s: %w", c.ID, ErrMissingSource)
	}
	if c.Start.Sign() < 0 || !c.End.After(c.Start) {
		return fmt.Errorf("clip %s [%s, %s): %w", c.ID, c.Start, c.End, ErrInvalidWindow)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("clip %s volume %.3f: %w", c.ID, c.Volume, ErrInvalidVolume)
	}
	if c.Speed <= 0 {
		return fmt.Errorf("clip %s speed %.3f: %w", c.ID, c.Speed, ErrInvalidSpeed)
	}
	return nil
}

// Clone returns a deep copy with the same id.
func (c *Clip) Clone() *Clip {
	out := *c
	if c.Filters != nil {
		out.Filters = append([]Filter(nil), c.Filters...)
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
