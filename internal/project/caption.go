package project

import (
	"fmt"
	"sort"

	"github.com/keagan/reelcut/pkg/mediatime"
)

// Caption is one subtitle line in a language track.
type Caption struct {
	ID       string         `yaml:"id" json:"id"`
	Language string         `yaml:"language" json:"language"`
	Start    mediatime.Time `yaml:"start" json:"start"`
	End      mediatime.Time `yaml:"end" json:"end"`
	Text     string         `yaml:"text" json:"text"`
}

// Validate checks End > Start.
func (c *Caption) Validate() error {
	if !c.End.After(c.Start) || c.Start.Sign() < 0 {
		return fmt.Errorf("caption %s: %w", c.ID, ErrInvalidCaption)
	}
	return nil
}

// Range returns [Start, End).
func (c *Caption) Range() mediatime.Range {
	return mediatime.Range{Start: c.Start, Duration: c.End.Sub(c.Start)}
}

// ActiveCaption returns the caption in lang showing at t (Start <= t < End),
// or nil. When lines overlap the earliest starting one wins.
func (p *Project) ActiveCaption(t mediatime.Time, lang string) *Caption {
	var best *Caption
	for _, c := range p.Captions {
		if c.Language != lang || !c.Range().Contains(t) {
			continue
		}
		if best == nil || c.Start.Before(best.Start) {
			best = c
		}
	}
	return best
}

// CaptionsFor returns the lines of one language ordered by start time.
func (p *Project) CaptionsFor(lang string) []*Caption {
	var out []*Caption
	for _, c := range p.Captions {
		if c.Language == lang {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
