// Package render defines the contract between the export pipeline and an
// encoder backend.
package render

import (
	"context"
	"fmt"

	"github.com/keagan/reelcut/internal/composition"
)

// Transform is a uniform scale of the composed frame followed by a
// translation, both in output pixels.
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
}

// ScaledSize applies the scale to a frame size, rounding down to even
// dimensions as required by 4:2:0 encoders.
func (t Transform) ScaledSize(s composition.Size) composition.Size {
	return composition.Size{
		Width:  even(float64(s.Width) * t.Scale),
		Height: even(float64(s.Height) * t.Scale),
	}
}

func even(v float64) int {
	n := int(v)
	if n%2 != 0 {
		n--
	}
	if n < 2 {
		n = 2
	}
	return n
}

// OutputSpec describes the encoded artifact.
type OutputSpec struct {
	Path            string  `json:"path"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FrameRate       float64 `json:"frame_rate"`
	VideoCodec      string  `json:"video_codec"`
	VideoBitrate    int     `json:"video_bitrate"`
	EncoderPreset   string  `json:"encoder_preset"`
	AudioCodec      string  `json:"audio_codec"`
	AudioBitrate    int     `json:"audio_bitrate"`
	AudioSampleRate int     `json:"audio_sample_rate"`
	AudioChannels   int     `json:"audio_channels"`
}

// Validate checks the fields every backend relies on.
func (o OutputSpec) Validate() error {
	if o.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid output size %dx%d", o.Width, o.Height)
	}
	if o.FrameRate <= 0 {
		return fmt.Errorf("invalid frame rate %.3f", o.FrameRate)
	}
	if o.AudioSampleRate <= 0 || o.AudioChannels <= 0 {
		return fmt.Errorf("invalid audio format %dHz/%dch", o.AudioSampleRate, o.AudioChannels)
	}
	return nil
}

// Request is everything a backend needs to produce one artifact.
type Request struct {
	Composition *composition.Composition
	Transform   Transform
	Gain        []composition.GainSegment
	Output      OutputSpec
}

// Job is a render in flight.
type Job interface {
	// Progress is the completed fraction in [0, 1].
	Progress() float64

	// Done is closed when the job has terminated.
	Done() <-chan struct{}

	// Err is valid after Done is closed. It is nil on success and wraps
	// context.Canceled when the job was cancelled.
	Err() error

	// Cancel asks the job to stop. It does not wait.
	Cancel()
}

// Renderer starts render jobs.
type Renderer interface {
	Start(ctx context.Context, req Request) (Job, error)
}
