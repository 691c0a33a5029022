// Package export drives asynchronous renders of a project against a
// platform preset and reports their progress.
package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/keagan/reelcut/internal/composition"
	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/internal/render"
	"github.com/keagan/reelcut/pkg/util"
	"github.com/rs/zerolog"
)

const (
	// DefaultProgressInterval is how often progress is sampled while rendering.
	DefaultProgressInterval = 100 * time.Millisecond

	// MaxProgressInterval bounds the sampling interval.
	MaxProgressInterval = 200 * time.Millisecond
)

// Composer builds the render graph for a project.
type Composer interface {
	Build(ctx context.Context, p *project.Project) (*composition.Composition, error)
}

// Options selects what to export and where.
type Options struct {
	Preset  Preset
	Quality Quality
	Output  string
}

// Manager runs export jobs. At most one job per project is active; a second
// Start for the same project is rejected with ErrExportInProgress.
type Manager struct {
	logger   zerolog.Logger
	composer Composer
	renderer render.Renderer
	interval time.Duration

	mu     sync.Mutex
	active map[string]*Job
	jobs   map[string]*Job
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithProgressInterval sets the progress sampling interval, capped at
// MaxProgressInterval.
func WithProgressInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.interval = min(d, MaxProgressInterval)
		}
	}
}

// NewManager creates a manager.
func NewManager(logger zerolog.Logger, composer Composer, renderer render.Renderer, opts ...ManagerOption) *Manager {
	m := &Manager{
		logger:   logger.With().Str("component", "export").Logger(),
		composer: composer,
		renderer: renderer,
		interval: DefaultProgressInterval,
		active:   make(map[string]*Job),
		jobs:     make(map[string]*Job),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start validates the request and launches the export in the background.
// The project is copied; later edits do not affect a running export.
func (m *Manager) Start(ctx context.Context, p *project.Project, opts Options) (*Job, error) {
	if len(p.Clips) == 0 {
		return nil, ErrEmptyTimeline
	}
	if err := opts.Preset.Validate(); err != nil {
		return nil, err
	}
	if opts.Output == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if opts.Quality == "" {
		opts.Quality = QualityMedium
	}
	if err := util.EnsureDir(filepath.Dir(opts.Output)); err != nil {
		return nil, fmt.Errorf("failed to prepare output directory: %w", err)
	}

	m.mu.Lock()
	if running, ok := m.active[p.ID]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: job %s", ErrExportInProgress, running.ID())
	}

	id := uuid.NewString()
	jctx, cancel := context.WithCancel(ctx)
	logger := m.logger.With().Str("job_id", id).Str("project", p.ID).Logger()
	job := newJob(id, p.ID, logger, cancel)
	m.active[p.ID] = job
	m.jobs[id] = job
	m.mu.Unlock()

	snapshot := p.Clone()
	go m.run(jctx, job, snapshot, opts)

	logger.Info().
		Str("preset", opts.Preset.Name).
		Str("quality", string(opts.Quality)).
		Str("output", opts.Output).
		Msg("export started")
	return job, nil
}

// Get returns a job by id.
func (m *Manager) Get(jobID string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return j, nil
}

// Active returns the running job for a project, if any.
func (m *Manager) Active(projectID string) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.active[projectID]
	return j, ok
}

// Cancel cancels a job by id.
func (m *Manager) Cancel(jobID string) error {
	j, err := m.Get(jobID)
	if err != nil {
		return err
	}
	j.Cancel()
	return nil
}

// List returns the status of every job, most recently updated first.
func (m *Manager) List() []Status {
	m.mu.Lock()
	jobs := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	m.mu.Unlock()

	out := make([]Status, len(jobs))
	for i, j := range jobs {
		out[i] = j.Status()
	}
	sort.Slice(out, func(i, k int) bool { return out[i].UpdatedAt.After(out[k].UpdatedAt) })
	return out
}

func (m *Manager) release(j *Job) {
	m.mu.Lock()
	if m.active[j.projectID] == j {
		delete(m.active, j.projectID)
	}
	m.mu.Unlock()
}

func (m *Manager) run(ctx context.Context, job *Job, p *project.Project, opts Options) {
	defer job.finish()
	defer m.release(job)
	defer job.cancel()

	start := time.Now()
	job.transition(StatePreparing, nil)

	req, err := m.prepare(ctx, job, p, opts)
	if err != nil {
		m.terminate(ctx, job, err, "")
		return
	}

	rj, err := m.renderer.Start(ctx, req)
	if err != nil {
		m.terminate(ctx, job, &RenderError{JobID: job.id, Err: err}, req.Output.Path)
		return
	}
	job.transition(StateRendering, nil)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
wait:
	for {
		select {
		case <-ticker.C:
			job.setProgress(rj.Progress())
		case <-rj.Done():
			break wait
		case <-ctx.Done():
			rj.Cancel()
			<-rj.Done()
			break wait
		}
	}

	if err := rj.Err(); err != nil {
		if !errors.Is(err, context.Canceled) {
			err = &RenderError{JobID: job.id, Err: err}
		}
		m.terminate(ctx, job, err, req.Output.Path)
		return
	}
	if err := ctx.Err(); err != nil {
		m.terminate(ctx, job, err, req.Output.Path)
		return
	}

	if err := util.Commit(req.Output.Path, opts.Output); err != nil {
		m.terminate(ctx, job, err, req.Output.Path)
		return
	}

	job.setProgress(1)
	job.transition(StateCompleted, func(s *Status) {
		s.Progress = 1
		s.Output = opts.Output
	})
	job.logger.Info().
		Str("output", opts.Output).
		Dur("elapsed", time.Since(start)).
		Msg("export completed")
}

// prepare builds the composition and the render request.
func (m *Manager) prepare(ctx context.Context, job *Job, p *project.Project, opts Options) (render.Request, error) {
	comp, err := m.composer.Build(ctx, p)
	if err != nil {
		return render.Request{}, fmt.Errorf("failed to build composition: %w", err)
	}
	if comp.IsEmpty() {
		return render.Request{}, ErrEmptyTimeline
	}

	if opts.Preset.HasMaxDuration() && comp.Duration.After(opts.Preset.MaxDuration) {
		job.logger.Info().
			Str("duration", comp.Duration.String()).
			Str("max_duration", opts.Preset.MaxDuration.String()).
			Msg("truncating export to preset limit")
		comp = comp.Truncate(opts.Preset.MaxDuration)
	}

	target := composition.Size{Width: opts.Preset.Width, Height: opts.Preset.Height}
	transform := AspectFit(comp.RenderSize(), target)
	job.logger.Debug().
		Str("render_size", comp.RenderSize().String()).
		Str("target", target.String()).
		Float64("scale", transform.Scale).
		Msg("geometry fitted")

	return render.Request{
		Composition: comp,
		Transform:   transform,
		Gain:        comp.GainSegments(),
		Output:      opts.Preset.Output(util.PartialPath(opts.Output, job.id[:8]), opts.Quality),
	}, nil
}

// terminate ends the job as Cancelled or Failed and removes partial output.
func (m *Manager) terminate(ctx context.Context, job *Job, err error, partial string) {
	if partial != "" {
		util.CleanupFiles(partial)
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		job.transition(StateCancelled, nil)
		job.logger.Info().Msg("export cancelled")
		return
	}
	job.transition(StateFailed, func(s *Status) { s.Err = err })
	job.logger.Error().Err(err).Msg("export failed")
}
