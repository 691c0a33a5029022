package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/keagan/reelcut/internal/clips"
	"github.com/keagan/reelcut/internal/composition"
	"github.com/keagan/reelcut/internal/config"
	"github.com/keagan/reelcut/internal/editor"
	"github.com/keagan/reelcut/internal/export"
	"github.com/keagan/reelcut/internal/ffmpeg"
	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/internal/render"
	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Pipeline wires media probing, composition, editing and export together
type Pipeline struct {
	logger   zerolog.Logger
	config   *config.Config
	loader   composition.Loader
	renderer render.Renderer
	builder  *composition.Builder
	editor   *editor.Editor
	exports  *export.Manager
}

// New creates a new pipeline instance. Without WithBackend it requires
// ffmpeg and ffprobe.
func New(logger zerolog.Logger, cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	p := &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		config: cfg,
		editor: editor.New(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.loader == nil || p.renderer == nil {
		// Initialize ffmpeg executor
		ffmpegExec, err := ffmpeg.New(logger, ffmpeg.Config{
			FFmpegPath:  cfg.FFmpeg.BinaryPath,
			FFprobePath: cfg.FFmpeg.ProbePath,
			Threads:     cfg.FFmpeg.Threads,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
		}
		if p.loader == nil {
			p.loader = ffmpegExec
		}
		if p.renderer == nil {
			p.renderer = ffmpeg.NewRenderer(ffmpegExec)
		}
	}

	p.builder = composition.NewBuilder(logger, p.loader, cfg.Concurrency)
	p.exports = export.NewManager(logger, p.builder, p.renderer,
		export.WithProgressInterval(cfg.Export.ProgressInterval))
	return p, nil
}

// Close cancels exports still running
func (p *Pipeline) Close() error {
	for _, st := range p.exports.List() {
		if !st.State.IsTerminal() {
			if err := p.exports.Cancel(st.JobID); err != nil {
				p.logger.Warn().Err(err).Str("job_id", st.JobID).Msg("cancel on close failed")
			}
		}
	}
	return nil
}

// Exports exposes the export job manager.
func (p *Pipeline) Exports() *export.Manager { return p.exports }

// Import probes media files and appends one clip per file, in argument
// order. Files are probed concurrently.
func (p *Pipeline) Import(ctx context.Context, proj *project.Project, paths []string, opts ImportOptions) (*project.Project, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no media files given")
	}

	p.logger.Info().
		Int("files", len(paths)).
		Str("project", proj.Name).
		Msg("importing media")

	assets := make([]*composition.Asset, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.config.Concurrency, 1))
	for i, path := range paths {
		g.Go(func() error {
			a, err := p.loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to probe %s: %w", path, err)
			}
			if !a.HasVideo && !a.HasAudio {
				return fmt.Errorf("%s has no audio or video", path)
			}
			if a.Duration.Sign() <= 0 {
				return fmt.Errorf("%s has no known duration", path)
			}
			assets[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := proj
	for i, a := range assets {
		window, err := importWindow(a.Duration, opts.Window)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", paths[i], err)
		}
		c, err := clips.New(paths[i], window.Start, window.End())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", paths[i], err)
		}
		c.Metadata = map[string]string{
			"name":      strings.TrimSuffix(filepath.Base(paths[i]), filepath.Ext(paths[i])),
			"has_video": fmt.Sprint(a.HasVideo),
			"has_audio": fmt.Sprint(a.HasAudio),
		}
		if out, err = p.editor.Append(out, c); err != nil {
			return nil, err
		}

		p.logger.Debug().
			Str("source", paths[i]).
			Str("clip", c.ID).
			Str("duration", c.Duration().String()).
			Msg("clip imported")
	}
	return out, nil
}

// ImportAudio probes an audio file and adds it as a music bed starting at
// the given timeline position.
func (p *Pipeline) ImportAudio(ctx context.Context, proj *project.Project, path string, at mediatime.Time, volume float64) (*project.Project, error) {
	a, err := p.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", path, err)
	}
	if !a.HasAudio {
		return nil, fmt.Errorf("%s: %w", path, composition.ErrNoAudio)
	}
	return p.editor.AddAudioTrack(proj, project.AudioTrack{
		Source: path,
		Range:  mediatime.Range{Start: at, Duration: a.Duration},
		Volume: volume,
	})
}

// Compose builds the render graph without exporting.
func (p *Pipeline) Compose(ctx context.Context, proj *project.Project) (*composition.Composition, error) {
	return p.builder.Build(ctx, proj)
}

// Describe summarizes the timeline, probing sources for render geometry.
func (p *Pipeline) Describe(ctx context.Context, proj *project.Project) (*Summary, error) {
	s := &Summary{
		Clips:     len(proj.Clips),
		Duration:  proj.TotalDuration(),
		Languages: proj.Languages(),
	}
	if len(proj.Clips) == 0 {
		return s, nil
	}
	comp, err := p.builder.Build(ctx, proj)
	if err != nil {
		return nil, err
	}
	s.RenderSize = comp.RenderSize()
	s.VideoSegments = len(comp.VideoPlacements())
	s.AudioSegments = len(comp.AudioPlacements())
	s.Beds = len(comp.Beds)
	for _, w := range comp.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}
	return s, nil
}

// Locate reports which clip plays at timeline time t and the source frame
// shown there.
func (p *Pipeline) Locate(ctx context.Context, proj *project.Project, t mediatime.Time) (*Position, error) {
	comp, err := p.builder.Build(ctx, proj)
	if err != nil {
		return nil, err
	}
	i, src, ok := comp.SegmentAt(t)
	if i < 0 {
		return nil, fmt.Errorf("%s is outside the timeline [0, %s)", t, comp.Duration)
	}
	c := proj.Clips[i]
	pos := &Position{Index: i, ClipID: c.ID, Source: c.Source, SourceTime: src, HasVideo: ok}
	if !ok {
		// no video frame; report the clip's own source time
		pos.SourceTime = c.Start.Add(t.Sub(comp.Segments[i].Offset))
	}
	return pos, nil
}

// Export starts an asynchronous export job.
func (p *Pipeline) Export(ctx context.Context, proj *project.Project, opts ExportOptions) (*export.Job, error) {
	name := firstNonEmpty(opts.Preset, proj.Export.Preset, p.config.Export.Preset)
	preset, err := p.config.Preset(name)
	if err != nil {
		return nil, err
	}
	quality, err := export.ParseQuality(firstNonEmpty(opts.Quality, proj.Export.Quality, p.config.Export.Quality))
	if err != nil {
		return nil, err
	}

	output := opts.Output
	if output == "" {
		output = filepath.Join(p.config.Export.OutputDir, fmt.Sprintf("%s_%s.mp4", fileStem(proj.Name), preset.Name))
	}

	return p.exports.Start(ctx, proj, export.Options{
		Preset:  preset,
		Quality: quality,
		Output:  output,
	})
}

func importWindow(duration mediatime.Time, w mediatime.Range) (mediatime.Range, error) {
	full := mediatime.Range{Duration: duration}
	if w.Start.Sign() == 0 && w.Duration.Sign() == 0 {
		return full, nil
	}
	if w.Duration.Sign() == 0 {
		w.Duration = duration.Sub(w.Start)
	}
	r, ok := full.Intersect(w)
	if !ok || r.IsEmpty() {
		return mediatime.Range{}, fmt.Errorf("window %s outside media of length %s", w, duration)
	}
	return r, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// fileStem turns a project name into a safe file name stem.
func fileStem(name string) string {
	stem := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, name)
	if stem == "" {
		return "project"
	}
	return stem
}
