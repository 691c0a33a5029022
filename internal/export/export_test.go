package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/keagan/reelcut/internal/clips"
	"github.com/keagan/reelcut/internal/composition"
	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/internal/render"
	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runFunc func(ctx context.Context, req render.Request, report render.ReportFunc) error

type fakeRenderer struct {
	mu   sync.Mutex
	reqs []render.Request
	run  runFunc
}

func (f *fakeRenderer) Start(ctx context.Context, req render.Request) (render.Job, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	return render.Go(ctx, func(ctx context.Context, report render.ReportFunc) error {
		return f.run(ctx, req, report)
	}), nil
}

func (f *fakeRenderer) lastRequest(t *testing.T) render.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.reqs)
	return f.reqs[len(f.reqs)-1]
}

// steadyRender writes the output then reports progress in ten steps.
func steadyRender(step time.Duration) runFunc {
	return func(ctx context.Context, req render.Request, report render.ReportFunc) error {
		if err := os.WriteFile(req.Output.Path, []byte("partial"), 0644); err != nil {
			return err
		}
		for i := 1; i <= 10; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(step):
			}
			report(float64(i) / 10)
		}
		return nil
	}
}

// blockingRender writes partial output and waits for cancellation.
func blockingRender(started chan<- string) runFunc {
	return func(ctx context.Context, req render.Request, report render.ReportFunc) error {
		if err := os.WriteFile(req.Output.Path, []byte("partial"), 0644); err != nil {
			return err
		}
		report(0.4)
		started <- req.Output.Path
		<-ctx.Done()
		return ctx.Err()
	}
}

func testLoader() composition.Loader {
	return composition.LoaderFunc(func(ctx context.Context, source string) (*composition.Asset, error) {
		if source == "missing.mp4" {
			return nil, errors.New("no such file")
		}
		return &composition.Asset{
			Source:      source,
			Duration:    mediatime.Seconds(600),
			NaturalSize: composition.Size{Width: 1920, Height: 1080},
			HasVideo:    true,
			HasAudio:    true,
		}, nil
	})
}

func newProject(durations ...int64) *project.Project {
	p := project.New("export")
	for i, d := range durations {
		p.Clips = append(p.Clips, &clips.Clip{
			ID: string(rune('a' + i)), Source: "src.mp4",
			Start: mediatime.Zero, End: mediatime.Seconds(d), Volume: 0.8, Speed: 1,
		})
	}
	return p
}

func newManager(r render.Renderer) *Manager {
	builder := composition.NewBuilder(zerolog.Nop(), testLoader(), 2)
	return NewManager(zerolog.Nop(), builder, r, WithProgressInterval(5*time.Millisecond))
}

func mustPreset(t *testing.T, name string) Preset {
	t.Helper()
	p, err := LookupPreset(name)
	require.NoError(t, err)
	return p
}

func collect(job *Job) []Status {
	var out []Status
	for s := range job.Updates() {
		out = append(out, s)
	}
	return out
}

func TestExportCompletes(t *testing.T) {
	r := &fakeRenderer{run: steadyRender(3 * time.Millisecond)}
	m := newManager(r)
	out := filepath.Join(t.TempDir(), "nested", "final.mp4")

	job, err := m.Start(context.Background(), newProject(2, 3), Options{Preset: mustPreset(t, PresetTikTok), Quality: QualityHigh, Output: out})
	require.NoError(t, err)

	updates := collect(job)
	status, err := job.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, status.State)
	assert.Equal(t, out, status.Output)
	assert.FileExists(t, out)

	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.Equal(t, StateCompleted, last.State)

	var rendering []float64
	for _, u := range updates {
		if u.State == StateRendering {
			rendering = append(rendering, u.Progress)
		}
	}
	require.NotEmpty(t, rendering)
	for i := 1; i < len(rendering); i++ {
		assert.GreaterOrEqual(t, rendering[i], rendering[i-1], "progress went backwards")
	}
	assert.Equal(t, 1.0, rendering[len(rendering)-1])
	assert.Equal(t, StatePreparing, updates[0].State)

	req := r.lastRequest(t)
	assert.NotEqual(t, out, req.Output.Path, "renders to a partial path")
	assert.NoFileExists(t, req.Output.Path)
	assert.Equal(t, 12_000_000, req.Output.VideoBitrate)
	assert.Equal(t, "slow", req.Output.EncoderPreset)
	assert.InDelta(t, 0.5625, req.Transform.Scale, 1e-9)
	assert.InDelta(t, 656.25, req.Transform.TranslateY, 1e-9)
	require.Len(t, req.Gain, 2)
	assert.Equal(t, 0.8, req.Gain[1].Volume)

	_, active := m.Active(job.ProjectID())
	assert.False(t, active)
}

func TestExportTruncatesToPresetLimit(t *testing.T) {
	r := &fakeRenderer{run: steadyRender(time.Millisecond)}
	m := newManager(r)
	p := newProject(30, 30, 30)

	job, err := m.Start(context.Background(), p, Options{Preset: mustPreset(t, PresetYouTubeShorts), Output: filepath.Join(t.TempDir(), "short.mp4")})
	require.NoError(t, err)
	_, err = job.Wait(context.Background())
	require.NoError(t, err)

	req := r.lastRequest(t)
	assert.True(t, req.Composition.Duration.Equal(mediatime.Seconds(60)))
	assert.Len(t, req.Composition.Segments, 2)
	assert.True(t, req.Gain[len(req.Gain)-1].Range.End().Equal(mediatime.Seconds(60)))

	assert.Len(t, p.Clips, 3, "project untouched")
	assert.True(t, p.TotalDuration().Equal(mediatime.Seconds(90)))
}

func TestExportCancelRemovesPartialOutput(t *testing.T) {
	started := make(chan string, 1)
	m := newManager(&fakeRenderer{run: blockingRender(started)})
	out := filepath.Join(t.TempDir(), "cancel.mp4")

	job, err := m.Start(context.Background(), newProject(5), Options{Preset: mustPreset(t, PresetYouTube), Output: out})
	require.NoError(t, err)

	partial := <-started
	assert.FileExists(t, partial)
	job.Cancel()

	status, err := job.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StateCancelled, status.State)
	assert.NoFileExists(t, out)
	assert.NoFileExists(t, partial)
	assert.Less(t, status.Progress, 1.0)
}

func TestExportCancelledByContext(t *testing.T) {
	started := make(chan string, 1)
	m := newManager(&fakeRenderer{run: blockingRender(started)})
	ctx, cancel := context.WithCancel(context.Background())

	job, err := m.Start(ctx, newProject(5), Options{Preset: mustPreset(t, PresetYouTube), Output: filepath.Join(t.TempDir(), "x.mp4")})
	require.NoError(t, err)
	<-started
	cancel()

	status, err := job.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StateCancelled, status.State)
}

func TestExportRenderFailure(t *testing.T) {
	boom := errors.New("encoder crashed")
	var partial string
	m := newManager(&fakeRenderer{run: func(ctx context.Context, req render.Request, report render.ReportFunc) error {
		partial = req.Output.Path
		_ = os.WriteFile(partial, []byte("junk"), 0644)
		report(0.5)
		return boom
	}})
	out := filepath.Join(t.TempDir(), "fail.mp4")

	job, err := m.Start(context.Background(), newProject(5), Options{Preset: mustPreset(t, PresetYouTube), Output: out})
	require.NoError(t, err)

	status, err := job.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	var rerr *RenderError
	assert.ErrorAs(t, err, &rerr)
	assert.Equal(t, StateFailed, status.State)
	assert.NoFileExists(t, out)
	assert.NoFileExists(t, partial)
	assert.NotErrorIs(t, err, ErrCancelled)
}

func TestExportAnchorSourceFailure(t *testing.T) {
	m := newManager(&fakeRenderer{run: steadyRender(time.Millisecond)})
	p := newProject(5, 5)
	p.Clips[0].Source = "missing.mp4"

	job, err := m.Start(context.Background(), p, Options{Preset: mustPreset(t, PresetYouTube), Output: filepath.Join(t.TempDir(), "x.mp4")})
	require.NoError(t, err)

	status, err := job.Wait(context.Background())
	assert.Equal(t, StateFailed, status.State)
	assert.True(t, composition.IsSourceError(err))
}

func TestExportRejectsEmptyProject(t *testing.T) {
	m := newManager(&fakeRenderer{run: steadyRender(time.Millisecond)})
	_, err := m.Start(context.Background(), project.New("empty"), Options{Preset: mustPreset(t, PresetYouTube), Output: filepath.Join(t.TempDir(), "x.mp4")})
	assert.ErrorIs(t, err, ErrEmptyTimeline)
	assert.Empty(t, m.List())
}

func TestSecondExportForSameProjectIsRejected(t *testing.T) {
	started := make(chan string, 1)
	m := newManager(&fakeRenderer{run: blockingRender(started)})
	p := newProject(5)
	dir := t.TempDir()
	opts := Options{Preset: mustPreset(t, PresetYouTube), Output: filepath.Join(dir, "one.mp4")}

	first, err := m.Start(context.Background(), p, opts)
	require.NoError(t, err)
	<-started

	_, err = m.Start(context.Background(), p, Options{Preset: opts.Preset, Output: filepath.Join(dir, "two.mp4")})
	assert.ErrorIs(t, err, ErrExportInProgress)

	other := newProject(5)
	second, err := m.Start(context.Background(), other, Options{Preset: opts.Preset, Output: filepath.Join(dir, "other.mp4")})
	require.NoError(t, err, "different projects export concurrently")

	require.NoError(t, m.Cancel(first.ID()))
	_, _ = first.Wait(context.Background())
	second.Cancel()
	_, _ = second.Wait(context.Background())

	// finished jobs release the project
	m.renderer = &fakeRenderer{run: steadyRender(time.Millisecond)}
	again, err := m.Start(context.Background(), p, opts)
	require.NoError(t, err)
	_, err = again.Wait(context.Background())
	assert.NoError(t, err)
	assert.Len(t, m.List(), 3)
}

func TestManagerGetAndCancelUnknown(t *testing.T) {
	m := newManager(&fakeRenderer{run: steadyRender(time.Millisecond)})
	_, err := m.Get("nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, m.Cancel("nope"), ErrJobNotFound)
}

func TestProgressIntervalIsCapped(t *testing.T) {
	m := NewManager(zerolog.Nop(), nil, nil, WithProgressInterval(time.Second))
	assert.Equal(t, MaxProgressInterval, m.interval)
}
