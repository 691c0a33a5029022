package composition

import (
	"context"
	"errors"
	"fmt"

	"github.com/keagan/reelcut/internal/clips"
	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel source loads.
const DefaultConcurrency = 4

// Builder derives compositions from projects.
type Builder struct {
	logger      zerolog.Logger
	loader      Loader
	concurrency int
}

// NewBuilder creates a builder. concurrency <= 0 uses DefaultConcurrency.
func NewBuilder(logger zerolog.Logger, loader Loader, concurrency int) *Builder {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Builder{
		logger:      logger.With().Str("component", "composition").Logger(),
		loader:      loader,
		concurrency: concurrency,
	}
}

type loadResult struct {
	asset *Asset
	err   error
}

// Build loads every distinct source concurrently, then lays the clips out
// at cumulative offsets. It fails only when the anchor clip's video cannot
// be read or the context is cancelled; other unreadable channels are
// skipped and reported in Warnings.
func (b *Builder) Build(ctx context.Context, p *project.Project) (*Composition, error) {
	comp := &Composition{}
	if len(p.Clips) == 0 {
		return comp, nil
	}

	assets, err := b.loadAll(ctx, p)
	if err != nil {
		return nil, err
	}

	offset := mediatime.Zero
	for i, c := range p.Clips {
		res := assets[c.Source]
		seg := Segment{
			ClipID:   c.ID,
			Offset:   offset,
			Duration: c.Duration(),
			Volume:   c.Volume,
		}

		if res.err != nil {
			serr := &SourceError{ClipID: c.ID, Source: c.Source, Channel: ChannelAll, Err: res.err}
			if i == 0 {
				return nil, serr
			}
			comp.Warnings = append(comp.Warnings, serr)
		} else {
			if i == 0 {
				if !res.asset.HasVideo || res.asset.NaturalSize.IsZero() {
					return nil, &SourceError{ClipID: c.ID, Source: c.Source, Channel: ChannelVideo, Err: ErrNoVideo}
				}
				comp.Anchor = res.asset
			}
			seg.Video = b.videoPlacement(comp, c, res.asset, offset)
			seg.Audio = b.audioPlacement(comp, c, res.asset, offset)
		}

		comp.Segments = append(comp.Segments, seg)
		offset = offset.Add(seg.Duration)
	}
	comp.Duration = offset

	for _, tr := range p.AudioTracks {
		if tr.Muted {
			continue
		}
		if res := assets[tr.Source]; res.err != nil || !res.asset.HasAudio {
			comp.Warnings = append(comp.Warnings, &SourceError{ClipID: tr.ID, Source: tr.Source, Channel: ChannelAudio, Err: ErrNoAudio})
			continue
		}
		r := tr.Range.Truncate(comp.Duration)
		if r.IsEmpty() {
			continue
		}
		comp.Beds = append(comp.Beds, Bed{TrackID: tr.ID, Source: tr.Source, Range: r, Volume: tr.Volume})
	}

	for _, w := range comp.Warnings {
		b.logger.Warn().Err(w).Msg("channel skipped")
	}
	b.logger.Debug().
		Int("segments", len(comp.Segments)).
		Int("beds", len(comp.Beds)).
		Str("duration", comp.Duration.String()).
		Str("render_size", comp.RenderSize().String()).
		Msg("composition built")

	return comp, nil
}

// loadAll loads each distinct source once. Load failures are recorded per
// source; only context cancellation aborts.
func (b *Builder) loadAll(ctx context.Context, p *project.Project) (map[string]loadResult, error) {
	sources := make([]string, 0, len(p.Clips)+len(p.AudioTracks))
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			sources = append(sources, s)
		}
	}
	for _, c := range p.Clips {
		add(c.Source)
	}
	for _, tr := range p.AudioTracks {
		if !tr.Muted {
			add(tr.Source)
		}
	}

	results := make([]loadResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			asset, err := b.loader.Load(gctx, src)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i] = loadResult{err: fmt.Errorf("%w: %w", ErrUnreadable, err)}
				return nil
			}
			results[i] = loadResult{asset: asset}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]loadResult, len(sources))
	for i, src := range sources {
		out[src] = results[i]
	}
	return out, nil
}

// videoPlacement returns nil when the source has no video.
func (b *Builder) videoPlacement(comp *Composition, c *clips.Clip, a *Asset, offset mediatime.Time) *Placement {
	if !a.HasVideo {
		comp.Warnings = append(comp.Warnings, &SourceError{ClipID: c.ID, Source: c.Source, Channel: ChannelVideo, Err: ErrNoVideo})
		return nil
	}
	r := clampToAsset(c.SourceRange(), a)
	if r.IsEmpty() {
		comp.Warnings = append(comp.Warnings, &SourceError{ClipID: c.ID, Source: c.Source, Channel: ChannelVideo,
			Err: fmt.Errorf("%w: window %s beyond source end %s", ErrNoVideo, c.SourceRange(), a.Duration)})
		return nil
	}
	return &Placement{Source: c.Source, SourceRange: r, Offset: offset}
}

// audioPlacement shifts the audio window by the clip's audio offset. The
// part of the window before source time zero becomes leading silence, so
// the placement starts later than the segment.
func (b *Builder) audioPlacement(comp *Composition, c *clips.Clip, a *Asset, offset mediatime.Time) *Placement {
	if !a.HasAudio {
		comp.Warnings = append(comp.Warnings, &SourceError{ClipID: c.ID, Source: c.Source, Channel: ChannelAudio, Err: ErrNoAudio})
		return nil
	}

	start := c.Start.Add(c.AudioOffset)
	dur := c.Duration()
	lead := mediatime.Zero
	if start.Sign() < 0 {
		lead = start.Neg()
		start = mediatime.Zero
		dur = dur.Sub(lead)
	}
	if dur.Sign() <= 0 {
		return nil
	}

	r := clampToAsset(mediatime.Range{Start: start, Duration: dur}, a)
	if r.IsEmpty() {
		return nil
	}
	return &Placement{Source: c.Source, SourceRange: r, Offset: offset.Add(lead)}
}

func clampToAsset(r mediatime.Range, a *Asset) mediatime.Range {
	if a.Duration.Sign() <= 0 {
		return r
	}
	return r.Truncate(a.Duration)
}

// IsSourceError reports whether err carries a SourceError.
func IsSourceError(err error) bool {
	var serr *SourceError
	return errors.As(err, &serr)
}
