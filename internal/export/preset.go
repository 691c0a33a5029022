package export

import (
	"fmt"
	"strings"

	"github.com/keagan/reelcut/internal/render"
	"github.com/keagan/reelcut/pkg/mediatime"
)

// Codec families a preset can target.
const (
	CodecH264 = "h264"
	CodecHEVC = "hevc"
)

// Preset names.
const (
	PresetTikTok         = "tiktok"
	PresetInstagramReels = "instagram-reels"
	PresetYouTubeShorts  = "youtube-shorts"
	PresetInstagramFeed  = "instagram-feed"
	PresetYouTube        = "youtube"
	PresetCustom         = "custom"
)

// Preset fixes the output geometry and encoding targets for a platform.
type Preset struct {
	Name        string         `yaml:"name" json:"name"`
	Label       string         `yaml:"label" json:"label"`
	AspectRatio string         `yaml:"aspect_ratio" json:"aspect_ratio"`
	Width       int            `yaml:"width" json:"width"`
	Height      int            `yaml:"height" json:"height"`
	FrameRate   float64        `yaml:"frame_rate" json:"frame_rate"`
	MaxDuration mediatime.Time `yaml:"max_duration,omitempty" json:"max_duration,omitempty"`
	Codec       string         `yaml:"codec" json:"codec"`
	Bitrate     int            `yaml:"bitrate" json:"bitrate"`
	SampleRate  int            `yaml:"sample_rate" json:"sample_rate"`
	Channels    int            `yaml:"channels" json:"channels"`
}

var builtinPresets = []Preset{
	{Name: PresetTikTok, Label: "TikTok", AspectRatio: "9:16", Width: 1080, Height: 1920, FrameRate: 30,
		MaxDuration: mediatime.Seconds(180), Codec: CodecH264, Bitrate: 8_000_000, SampleRate: 44100, Channels: 2},
	{Name: PresetInstagramReels, Label: "Instagram Reels", AspectRatio: "9:16", Width: 1080, Height: 1920, FrameRate: 30,
		MaxDuration: mediatime.Seconds(90), Codec: CodecH264, Bitrate: 6_000_000, SampleRate: 44100, Channels: 2},
	{Name: PresetYouTubeShorts, Label: "YouTube Shorts", AspectRatio: "9:16", Width: 1080, Height: 1920, FrameRate: 60,
		MaxDuration: mediatime.Seconds(60), Codec: CodecH264, Bitrate: 10_000_000, SampleRate: 48000, Channels: 2},
	{Name: PresetInstagramFeed, Label: "Instagram Feed", AspectRatio: "1:1", Width: 1080, Height: 1080, FrameRate: 30,
		MaxDuration: mediatime.Seconds(60), Codec: CodecH264, Bitrate: 5_000_000, SampleRate: 44100, Channels: 2},
	{Name: PresetYouTube, Label: "YouTube", AspectRatio: "16:9", Width: 1920, Height: 1080, FrameRate: 30,
		Codec: CodecH264, Bitrate: 12_000_000, SampleRate: 48000, Channels: 2},
}

// Presets returns the built-in platform presets.
func Presets() []Preset {
	return append([]Preset(nil), builtinPresets...)
}

// LookupPreset finds a built-in preset by name.
func LookupPreset(name string) (Preset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range builtinPresets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// HasMaxDuration reports whether the preset caps the export length.
func (p Preset) HasMaxDuration() bool {
	return p.MaxDuration.Sign() > 0
}

// Validate checks a preset, typically a custom one.
func (p Preset) Validate() error {
	switch {
	case p.Width <= 0 || p.Height <= 0 || p.Width%2 != 0 || p.Height%2 != 0:
		return fmt.Errorf("preset %s: resolution %dx%d must be positive and even", p.Name, p.Width, p.Height)
	case p.FrameRate <= 0 || p.FrameRate > 240:
		return fmt.Errorf("preset %s: frame rate %.3f out of range", p.Name, p.FrameRate)
	case p.Codec != CodecH264 && p.Codec != CodecHEVC:
		return fmt.Errorf("preset %s: unsupported codec %q", p.Name, p.Codec)
	case p.Bitrate <= 0:
		return fmt.Errorf("preset %s: bitrate must be positive", p.Name)
	case p.SampleRate <= 0 || p.Channels <= 0:
		return fmt.Errorf("preset %s: invalid audio format", p.Name)
	case p.MaxDuration.Sign() < 0:
		return fmt.Errorf("preset %s: negative max duration", p.Name)
	}
	return nil
}

// Output derives the render output spec for the preset at a quality tier.
func (p Preset) Output(path string, q Quality) render.OutputSpec {
	tier := q.tier()
	return render.OutputSpec{
		Path:            path,
		Width:           p.Width,
		Height:          p.Height,
		FrameRate:       p.FrameRate,
		VideoCodec:      p.Codec,
		VideoBitrate:    int(float64(p.Bitrate) * tier.bitrateFactor),
		EncoderPreset:   tier.encoderPreset,
		AudioCodec:      "aac",
		AudioBitrate:    tier.audioBitrate,
		AudioSampleRate: p.SampleRate,
		AudioChannels:   p.Channels,
	}
}

// Quality is an encoder effort and bitrate tier.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
	QualityMax    Quality = "max"
)

type qualityTier struct {
	bitrateFactor float64
	encoderPreset string
	audioBitrate  int
}

var qualityTiers = map[Quality]qualityTier{
	QualityLow:    {0.5, "veryfast", 96_000},
	QualityMedium: {1.0, "medium", 128_000},
	QualityHigh:   {1.5, "slow", 192_000},
	QualityMax:    {2.0, "slower", 256_000},
}

// ParseQuality accepts the tier names case-insensitively. Empty means medium.
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if q == "" {
		return QualityMedium, nil
	}
	if _, ok := qualityTiers[q]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownQuality, s)
	}
	return q, nil
}

func (q Quality) tier() qualityTier {
	if t, ok := qualityTiers[q]; ok {
		return t
	}
	return qualityTiers[QualityMedium]
}
