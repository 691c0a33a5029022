package editor

import (
	"github.com/keagan/reelcut/internal/clips"
	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/pkg/mediatime"
)

// SetVolume sets the clip's linear gain, clamped to [0, 1].
func (e *Editor) SetVolume(p *project.Project, id string, volume float64) (*project.Project, error) {
	out, i, err := locate(p, "set volume", id)
	if err != nil {
		return nil, err
	}
	out.Clips[i].Volume = clampUnit(volume)
	return out, nil
}

// SetSpeed sets the playback rate multiplier.
func (e *Editor) SetSpeed(p *project.Project, id string, speed float64) (*project.Project, error) {
	const op = "set speed"
	if speed <= 0 {
		return nil, failf(op, id, ErrInvalidValue, "speed %.3f", speed)
	}
	out, i, err := locate(p, op, id)
	if err != nil {
		return nil, err
	}
	out.Clips[i].Speed = speed
	return out, nil
}

// SetAudioOffset sets the L/J-cut offset of the clip's audio.
func (e *Editor) SetAudioOffset(p *project.Project, id string, offset mediatime.Time) (*project.Project, error) {
	out, i, err := locate(p, "set audio offset", id)
	if err != nil {
		return nil, err
	}
	out.Clips[i].AudioOffset = offset
	return out, nil
}

// SetFilters replaces the clip's filter list.
func (e *Editor) SetFilters(p *project.Project, id string, filters []clips.Filter) (*project.Project, error) {
	const op = "set filters"
	for _, f := range filters {
		if f.Type == "" || f.Intensity < 0 || f.Intensity > 1 {
			return nil, failf(op, id, ErrInvalidValue, "filter %q intensity %.3f", f.Type, f.Intensity)
		}
	}
	out, i, err := locate(p, op, id)
	if err != nil {
		return nil, err
	}
	out.Clips[i].Filters = append([]clips.Filter(nil), filters...)
	return out, nil
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
