package ffmpeg

import (
	"fmt"
	"strings"

	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/keagan/reelcut/pkg/util"
)

// FilterBuilder helps construct complex ffmpeg filter chains
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// Trim cuts a video window and resets timestamps to zero.
func (fb *FilterBuilder) Trim(r mediatime.Range) *FilterBuilder {
	fb.filters = append(fb.filters,
		fmt.Sprintf("trim=start=%s:duration=%s", util.FormatSeconds(r.Start), util.FormatSeconds(r.Duration)),
		"setpts=PTS-STARTPTS")
	return fb
}

// ATrim is Trim for audio.
func (fb *FilterBuilder) ATrim(r mediatime.Range) *FilterBuilder {
	fb.filters = append(fb.filters,
		fmt.Sprintf("atrim=start=%s:duration=%s", util.FormatSeconds(r.Start), util.FormatSeconds(r.Duration)),
		"asetpts=PTS-STARTPTS")
	return fb
}

// Scale adds a scale filter
func (fb *FilterBuilder) Scale(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		// Return self without adding filter - allows chaining to continue
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("scale=%d:%d", width, height))
	return fb
}

// Fit scales to fit inside width x height and centres the result on a
// black canvas of that size.
func (fb *FilterBuilder) Fit(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters,
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", width, height),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black", width, height))
	return fb
}

// Pad places the frame at (x, y) on a black canvas.
func (fb *FilterBuilder) Pad(width, height, x, y int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("pad=%d:%d:%d:%d:color=black", width, height, x, y))
	return fb
}

// FPS adds an fps filter
func (fb *FilterBuilder) FPS(fps float64) *FilterBuilder {
	if fps <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("fps=%f", fps))
	return fb
}

// Normalize sets square pixels and a 4:2:0 pixel format so segments concat.
func (fb *FilterBuilder) Normalize() *FilterBuilder {
	fb.filters = append(fb.filters, "setsar=1", "format=yuv420p")
	return fb
}

// HoldLast freezes the last frame for d.
func (fb *FilterBuilder) HoldLast(d mediatime.Time) *FilterBuilder {
	if d.Sign() <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("tpad=stop_mode=clone:stop_duration=%s", util.FormatSeconds(d)))
	return fb
}

// AudioFormat resamples to a fixed rate and layout.
func (fb *FilterBuilder) AudioFormat(sampleRate, channels int) *FilterBuilder {
	fb.filters = append(fb.filters,
		fmt.Sprintf("aresample=%d", sampleRate),
		fmt.Sprintf("aformat=sample_fmts=fltp:channel_layouts=%s", channelLayout(channels)))
	return fb
}

// Volume adds a linear gain. Unity gain is skipped.
func (fb *FilterBuilder) Volume(gain float64) *FilterBuilder {
	if gain == 1 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("volume=%f", gain))
	return fb
}

// Delay shifts audio later by d on all channels.
func (fb *FilterBuilder) Delay(d mediatime.Time) *FilterBuilder {
	if d.Sign() <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("adelay=%d:all=1", d.Round(1000)))
	return fb
}

// PadTo pads audio with silence and cuts it to exactly d.
func (fb *FilterBuilder) PadTo(d mediatime.Time) *FilterBuilder {
	fb.filters = append(fb.filters,
		fmt.Sprintf("apad=whole_dur=%s", util.FormatSeconds(d)),
		fmt.Sprintf("atrim=duration=%s", util.FormatSeconds(d)))
	return fb
}

// Custom adds a custom filter string
func (fb *FilterBuilder) Custom(filter string) *FilterBuilder {
	fb.filters = append(fb.filters, filter)
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}

// Chain wraps the filters with input and output pads. A chain with no
// filters becomes a passthrough.
func (fb *FilterBuilder) Chain(in, out string) string {
	body := fb.Build()
	if body == "" {
		body = "null"
	}
	return fmt.Sprintf("%s%s[%s]", in, body, out)
}

func channelLayout(channels int) string {
	if channels == 1 {
		return "mono"
	}
	return "stereo"
}
