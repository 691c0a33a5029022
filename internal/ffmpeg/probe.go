package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/keagan/reelcut/internal/composition"
	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/keagan/reelcut/pkg/util"
)

// Probe extracts metadata from a media file
func (e *Executor) Probe(ctx context.Context, filePath string) (*MediaInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	info, err := parseProbe(filePath, output)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("file", filePath).
		Str("duration", info.Duration.String()).
		Int("width", info.Width).
		Int("height", info.Height).
		Int("rotation", info.Rotation).
		Bool("audio", info.HasAudio).
		Msg("probed media")

	return info, nil
}

// Load implements composition.Loader.
func (e *Executor) Load(ctx context.Context, source string) (*composition.Asset, error) {
	info, err := e.Probe(ctx, source)
	if err != nil {
		return nil, err
	}
	return info.Asset(), nil
}

// Asset converts probe output to what the composition builder needs.
func (m *MediaInfo) Asset() *composition.Asset {
	return &composition.Asset{
		Source:      m.FilePath,
		Duration:    m.Duration,
		NaturalSize: composition.Size{Width: m.Width, Height: m.Height},
		Rotation:    m.Rotation,
		FrameRate:   m.FPS,
		HasVideo:    m.HasVideo,
		HasAudio:    m.HasAudio,
	}
}

func parseProbe(filePath string, output []byte) (*MediaInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no media streams in %s", filePath)
	}

	info := &MediaInfo{
		FilePath: filePath,
	}

	// Parse duration exactly
	if dur, err := mediatime.Parse(probe.Format.Duration); err == nil && dur.Sign() > 0 {
		info.Duration = dur
	}

	// Parse bitrate
	if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
		info.Bitrate = br
	}

	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			// cover art in audio files is not a video channel
			if info.HasVideo || stream.Disposition.AttachedPic == 1 {
				continue
			}
			info.HasVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName
			info.Rotation = stream.rotation()

			// Calculate FPS from r_frame_rate (e.g., "30/1")
			if stream.RFrameRate != "" {
				info.FPS = util.ParseFrameRate(stream.RFrameRate)
			}
		case "audio":
			if info.HasAudio {
				continue
			}
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
			info.Channels = stream.Channels
			info.SampleRate, _ = strconv.Atoi(stream.SampleRate)
			if br, err := strconv.ParseInt(stream.BitRate, 10, 64); err == nil {
				info.AudioBitrate = br
			}
		}
	}

	return info, nil
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	CodecType   string `json:"codec_type"`
	CodecName   string `json:"codec_name"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	RFrameRate  string `json:"r_frame_rate"`
	BitRate     string `json:"bit_rate"`
	SampleRate  string `json:"sample_rate"`
	Channels    int    `json:"channels"`
	Disposition struct {
		AttachedPic int `json:"attached_pic"`
	} `json:"disposition"`
	Tags struct {
		Rotate string `json:"rotate"`
	} `json:"tags"`
	SideDataList []struct {
		SideDataType string  `json:"side_data_type"`
		Rotation     float64 `json:"rotation"`
	} `json:"side_data_list"`
}

// rotation returns the clockwise display rotation. Older containers use the
// rotate tag; newer ffprobe reports a display matrix whose rotation is
// counter-clockwise.
func (s probeStream) rotation() int {
	if s.Tags.Rotate != "" {
		if r, err := strconv.Atoi(s.Tags.Rotate); err == nil {
			return normalizeDegrees(r)
		}
	}
	for _, sd := range s.SideDataList {
		if sd.SideDataType == "Display Matrix" {
			return normalizeDegrees(-int(sd.Rotation))
		}
	}
	return 0
}

func normalizeDegrees(deg int) int {
	return ((deg % 360) + 360) % 360
}
