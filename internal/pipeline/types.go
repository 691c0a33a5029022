package pipeline

import (
	"github.com/keagan/reelcut/internal/composition"
	"github.com/keagan/reelcut/internal/render"
	"github.com/keagan/reelcut/pkg/mediatime"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBackend replaces the ffmpeg prober and renderer.
func WithBackend(loader composition.Loader, renderer render.Renderer) Option {
	return func(p *Pipeline) {
		p.loader = loader
		p.renderer = renderer
	}
}

// ImportOptions controls how media files become clips.
type ImportOptions struct {
	// Window limits each clip to [Start, Start+Duration) of its source.
	// A zero Duration takes the rest of the source.
	Window mediatime.Range
}

// ExportOptions selects what to export. Empty fields fall back to the
// project's export settings and then to the configuration.
type ExportOptions struct {
	Preset  string
	Quality string
	Output  string
}

// Summary describes a project's timeline.
type Summary struct {
	Clips      int
	Duration   mediatime.Time
	RenderSize composition.Size
	Languages  []string
	Warnings   []string

	// VideoSegments and AudioSegments count the clips that contribute
	// each channel once unreadable channels are skipped.
	VideoSegments int
	AudioSegments int
	Beds          int
}

// Position is what plays at a timeline time.
type Position struct {
	Index      int
	ClipID     string
	Source     string
	SourceTime mediatime.Time
	HasVideo   bool
}
