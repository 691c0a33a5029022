package export

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTimeline    = errors.New("project has no clips to export")
	ErrExportInProgress = errors.New("an export is already running for this project")
	ErrUnknownPreset    = errors.New("unknown export preset")
	ErrUnknownQuality   = errors.New("unknown export quality")
	ErrJobNotFound      = errors.New("export job not found")
	ErrCancelled        = errors.New("export cancelled")
)

// RenderError is a failure reported by the render backend.
type RenderError struct {
	JobID string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render job %s failed: %v", e.JobID, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
