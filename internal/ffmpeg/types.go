package ffmpeg

import (
	"github.com/keagan/reelcut/pkg/mediatime"
)

// MediaInfo contains metadata about a media file
type MediaInfo struct {
	FilePath     string
	Duration     mediatime.Time
	Width        int
	Height       int
	Rotation     int
	FPS          float64
	Bitrate      int64
	HasVideo     bool
	VideoCodec   string
	HasAudio     bool
	AudioCodec   string
	AudioBitrate int64
	SampleRate   int
	Channels     int
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame      int
	FPS        float64
	Bitrate    string
	OutTime    mediatime.Time
	Speed      string
	Percentage float64
	Done       bool
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args []string

	// Duration is the expected output length, used to compute Percentage.
	Duration mediatime.Time

	ProgressHandler ProgressFunc
	LogHandler      func(line string)
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called once per -progress block as the operation executes.
type ProgressFunc func(*Progress)

// Default encoding settings
const (
	DefaultPreset     = "medium"
	DefaultAudioCodec = "aac"
)

// Config locates the binaries.
type Config struct {
	FFmpegPath  string
	FFprobePath string
	Threads     int
}

// videoEncoders maps codec families to ffmpeg encoders.
var videoEncoders = map[string]string{
	"h264": "libx264",
	"hevc": "libx265",
}
