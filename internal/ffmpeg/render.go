package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/keagan/reelcut/internal/composition"
	"github.com/keagan/reelcut/internal/render"
	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/keagan/reelcut/pkg/util"
	"github.com/rs/zerolog"
)

// Renderer encodes compositions with a single ffmpeg filter_complex run.
type Renderer struct {
	exec   *Executor
	logger zerolog.Logger
}

// NewRenderer creates a renderer backed by e.
func NewRenderer(e *Executor) *Renderer {
	return &Renderer{
		exec:   e,
		logger: e.logger.With().Str("stage", "render").Logger(),
	}
}

// Start implements render.Renderer.
func (r *Renderer) Start(ctx context.Context, req render.Request) (render.Job, error) {
	args, err := BuildRenderArgs(req)
	if err != nil {
		return nil, fmt.Errorf("invalid render request: %w", err)
	}

	r.logger.Info().
		Str("output", req.Output.Path).
		Int("segments", len(req.Composition.Segments)).
		Int("beds", len(req.Composition.Beds)).
		Str("duration", req.Composition.Duration.String()).
		Msg("starting render")

	job := render.Go(ctx, func(ctx context.Context, report render.ReportFunc) error {
		err := r.exec.Run(ctx, RunOptions{
			Args:     args,
			Duration: req.Composition.Duration,
			ProgressHandler: func(p *Progress) {
				report(p.Percentage)
			},
			LogHandler: func(line string) {
				r.logger.Trace().Str("ffmpeg", line).Msg("render output")
			},
		})
		if err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		r.logger.Info().Str("output", req.Output.Path).Msg("render completed")
		return nil
	})
	return job, nil
}

// BuildRenderArgs turns a request into ffmpeg arguments. The executor adds
// its own global flags in front.
func BuildRenderArgs(req render.Request) ([]string, error) {
	comp := req.Composition
	if comp == nil || comp.IsEmpty() {
		return nil, fmt.Errorf("composition is empty")
	}
	if err := req.Output.Validate(); err != nil {
		return nil, err
	}
	canvas := comp.RenderSize()
	if canvas.IsZero() {
		return nil, fmt.Errorf("composition has no render size")
	}
	encoder, ok := videoEncoders[req.Output.VideoCodec]
	if !ok {
		return nil, fmt.Errorf("unsupported video codec %q", req.Output.VideoCodec)
	}

	inputs := newInputSet()
	graph := buildGraph(req, canvas, inputs)

	args := make([]string, 0, 2*len(inputs.paths)+32)
	for _, p := range inputs.paths {
		args = append(args, "-i", p)
	}

	out := req.Output
	preset := out.EncoderPreset
	if preset == "" {
		preset = DefaultPreset
	}
	audioCodec := out.AudioCodec
	if audioCodec == "" {
		audioCodec = DefaultAudioCodec
	}

	args = append(args,
		"-filter_complex", graph,
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:v", encoder,
		"-preset", preset,
		"-pix_fmt", "yuv420p",
		"-r", formatRate(out.FrameRate),
	)
	if out.VideoBitrate > 0 {
		args = append(args,
			"-b:v", strconv.Itoa(out.VideoBitrate),
			"-maxrate", strconv.Itoa(out.VideoBitrate*3/2),
			"-bufsize", strconv.Itoa(out.VideoBitrate*2),
		)
	}
	if encoder == "libx265" {
		args = append(args, "-tag:v", "hvc1")
	}
	args = append(args, "-c:a", audioCodec)
	if out.AudioBitrate > 0 {
		args = append(args, "-b:a", strconv.Itoa(out.AudioBitrate))
	}
	args = append(args,
		"-ar", strconv.Itoa(out.AudioSampleRate),
		"-ac", strconv.Itoa(out.AudioChannels),
		"-t", util.FormatSeconds(comp.Duration),
		"-movflags", "+faststart",
		out.Path,
	)
	return args, nil
}

// inputSet assigns one ffmpeg input index per distinct source.
type inputSet struct {
	paths []string
	index map[string]int
}

func newInputSet() *inputSet {
	return &inputSet{index: make(map[string]int)}
}

func (s *inputSet) add(path string) int {
	if i, ok := s.index[path]; ok {
		return i
	}
	s.index[path] = len(s.paths)
	s.paths = append(s.paths, path)
	return len(s.paths) - 1
}

func buildGraph(req render.Request, canvas composition.Size, inputs *inputSet) string {
	comp := req.Composition
	out := req.Output
	var chains []string
	var concatIn strings.Builder

	for i, seg := range comp.Segments {
		vLabel := fmt.Sprintf("v%d", i)
		aLabel := fmt.Sprintf("a%d", i)

		if seg.Video != nil {
			in := fmt.Sprintf("[%d:v]", inputs.add(seg.Video.Source))
			chains = append(chains, NewFilterBuilder().
				Trim(seg.Video.SourceRange).
				Fit(canvas.Width, canvas.Height).
				Normalize().
				FPS(out.FrameRate).
				HoldLast(seg.Duration.Sub(seg.Video.SourceRange.Duration)).
				Chain(in, vLabel))
		} else {
			chains = append(chains, NewFilterBuilder().
				Custom(fmt.Sprintf("color=c=black:s=%dx%d:r=%s:d=%s",
					canvas.Width, canvas.Height, formatRate(out.FrameRate), util.FormatSeconds(seg.Duration))).
				Normalize().
				Chain("", vLabel))
		}

		if seg.Audio != nil {
			in := fmt.Sprintf("[%d:a]", inputs.add(seg.Audio.Source))
			chains = append(chains, NewFilterBuilder().
				ATrim(seg.Audio.SourceRange).
				AudioFormat(out.AudioSampleRate, out.AudioChannels).
				Volume(gainAt(req.Gain, seg)).
				Delay(seg.Audio.Offset.Sub(seg.Offset)).
				PadTo(seg.Duration).
				Chain(in, aLabel))
		} else {
			chains = append(chains, NewFilterBuilder().
				Custom(fmt.Sprintf("anullsrc=r=%d:cl=%s", out.AudioSampleRate, channelLayout(out.AudioChannels))).
				Custom(fmt.Sprintf("atrim=duration=%s", util.FormatSeconds(seg.Duration))).
				Chain("", aLabel))
		}

		fmt.Fprintf(&concatIn, "[%s][%s]", vLabel, aLabel)
	}

	mixed := "aout"
	if len(comp.Beds) > 0 {
		mixed = "acat"
	}
	chains = append(chains, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[vcat][%s]", concatIn.String(), len(comp.Segments), mixed))

	scaled := req.Transform.ScaledSize(canvas)
	scaled.Width = min(scaled.Width, out.Width)
	scaled.Height = min(scaled.Height, out.Height)
	tx := clampInt(int(math.Round(req.Transform.TranslateX)), 0, out.Width-scaled.Width)
	ty := clampInt(int(math.Round(req.Transform.TranslateY)), 0, out.Height-scaled.Height)
	chains = append(chains, NewFilterBuilder().
		Scale(scaled.Width, scaled.Height).
		Pad(out.Width, out.Height, tx, ty).
		Normalize().
		Chain("[vcat]", "vout"))

	if len(comp.Beds) > 0 {
		mix := "[acat]"
		for j, bed := range comp.Beds {
			label := fmt.Sprintf("b%d", j)
			in := fmt.Sprintf("[%d:a]", inputs.add(bed.Source))
			chains = append(chains, NewFilterBuilder().
				ATrim(mediatime.Range{Duration: bed.Range.Duration}).
				AudioFormat(out.AudioSampleRate, out.AudioChannels).
				Volume(bed.Volume).
				Delay(bed.Range.Start).
				Chain(in, label))
			mix += "[" + label + "]"
		}
		chains = append(chains, fmt.Sprintf("%samix=inputs=%d:duration=first:dropout_transition=0:normalize=0[aout]",
			mix, len(comp.Beds)+1))
	}

	return strings.Join(chains, ";")
}

// gainAt returns the gain covering the segment start, falling back to the
// segment's own volume.
func gainAt(gain []composition.GainSegment, seg composition.Segment) float64 {
	for _, g := range gain {
		if g.Range.Contains(seg.Offset) {
			return g.Volume
		}
	}
	return seg.Volume
}

func formatRate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(v, hi))
}
