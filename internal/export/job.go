package export

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status is a snapshot of an export job.
type Status struct {
	JobID     string    `json:"job_id"`
	ProjectID string    `json:"project_id"`
	State     State     `json:"state"`
	Progress  float64   `json:"progress"`
	Output    string    `json:"output,omitempty"`
	Err       error     `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

const updateBuffer = 64

// Job is one export. It is created by Manager.Start.
type Job struct {
	id        string
	projectID string
	logger    zerolog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
	updates   chan Status

	mu     sync.Mutex
	status Status
}

func newJob(id, projectID string, logger zerolog.Logger, cancel context.CancelFunc) *Job {
	j := &Job{
		id:        id,
		projectID: projectID,
		logger:    logger,
		cancel:    cancel,
		done:      make(chan struct{}),
		updates:   make(chan Status, updateBuffer),
	}
	j.status = Status{JobID: id, ProjectID: projectID, State: StateIdle, UpdatedAt: time.Now()}
	return j
}

// ID returns the job id.
func (j *Job) ID() string { return j.id }

// ProjectID returns the id of the exported project.
func (j *Job) ProjectID() string { return j.projectID }

// Status returns the current snapshot.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Updates delivers status changes: every state transition and progress
// samples at the manager's progress interval. Progress samples may be
// dropped when the reader falls behind; the terminal status is always
// delivered, after which the channel is closed.
func (j *Job) Updates() <-chan Status { return j.updates }

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

// Cancel requests cooperative cancellation. Partial output is removed.
func (j *Job) Cancel() { j.cancel() }

// Wait blocks until the job terminates or ctx is done. It returns the final
// status and nil on success, ErrCancelled when cancelled, or the failure.
func (j *Job) Wait(ctx context.Context) (Status, error) {
	select {
	case <-j.done:
	case <-ctx.Done():
		return j.Status(), ctx.Err()
	}
	s := j.Status()
	switch s.State {
	case StateCompleted:
		return s, nil
	case StateCancelled:
		return s, ErrCancelled
	default:
		return s, s.Err
	}
}

// transition moves to state and publishes the change.
func (j *Job) transition(to State, mutate func(*Status)) {
	j.mu.Lock()
	from := j.status.State
	if !CanTransition(from, to) {
		j.mu.Unlock()
		j.logger.Error().Str("from", from.String()).Str("to", to.String()).Msg("illegal export transition ignored")
		return
	}
	j.status.State = to
	if mutate != nil {
		mutate(&j.status)
	}
	j.status.UpdatedAt = time.Now()
	s := j.status
	j.mu.Unlock()

	j.logger.Debug().Str("state", to.String()).Float64("progress", s.Progress).Msg("export state changed")
	j.publish(s, to.IsTerminal())
}

// setProgress records a progress sample. Samples that would move progress
// backwards are ignored.
func (j *Job) setProgress(f float64) {
	j.mu.Lock()
	if j.status.State != StateRendering || f <= j.status.Progress {
		j.mu.Unlock()
		return
	}
	if f > 1 {
		f = 1
	}
	j.status.Progress = f
	j.status.UpdatedAt = time.Now()
	s := j.status
	j.mu.Unlock()

	j.publish(s, false)
}

func (j *Job) publish(s Status, terminal bool) {
	for {
		select {
		case j.updates <- s:
			return
		default:
		}
		if !terminal {
			return
		}
		// make room by dropping the oldest sample
		select {
		case <-j.updates:
		default:
		}
	}
}

func (j *Job) finish() {
	close(j.updates)
	close(j.done)
}

func (j *Job) String() string {
	s := j.Status()
	return fmt.Sprintf("export %s [%s %.0f%%]", j.id, s.State, s.Progress*100)
}
