package interchange

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/pkg/mediatime"
)

// reelNameLength is the CMX3600 reel field width.
const reelNameLength = 8

// Timecode formats frame counts as SMPTE timecode.
type Timecode struct {
	frameDuration mediatime.Time
	nominal       int64
	dropFrame     bool
}

// NewTimecode returns a formatter for the rate implied by frameDuration.
// 29.97 and 59.94 use drop-frame counting.
func NewTimecode(frameDuration mediatime.Time) Timecode {
	nominal := mediatime.New(frameDuration.Scale, frameDuration.Value).Round(1)
	return Timecode{
		frameDuration: frameDuration,
		nominal:       nominal,
		dropFrame:     isDropFrame(frameDuration),
	}
}

// DropFrame reports whether drop-frame counting is in use.
func (tc Timecode) DropFrame() bool { return tc.dropFrame }

// Format renders t as HH:MM:SS:FF, or HH:MM:SS;FF for drop-frame.
func (tc Timecode) Format(t mediatime.Time) string {
	n := max(frames(t, tc.frameDuration), 0)
	sep := ":"
	if tc.dropFrame {
		n = dropFrameNumber(n, tc.nominal)
		sep = ";"
	}
	ff := n % tc.nominal
	totalSeconds := n / tc.nominal
	return fmt.Sprintf("%02d:%02d:%02d%s%02d",
		totalSeconds/3600, (totalSeconds/60)%60, totalSeconds%60, sep, ff)
}

// dropFrameNumber skips the frame labels dropped at the start of every
// minute except each tenth one.
func dropFrameNumber(n, nominal int64) int64 {
	drop := nominal / 15 // 2 at 30, 4 at 60
	perMinute := nominal*60 - drop
	perTenMinutes := perMinute*10 + drop

	tens := n / perTenMinutes
	rem := n % perTenMinutes
	if rem > drop {
		return n + drop*9*tens + drop*((rem-drop)/perMinute)
	}
	return n + drop*9*tens
}

func isDropFrame(frameDuration mediatime.Time) bool {
	return frameDuration.Value == 1001 && (frameDuration.Scale == 30000 || frameDuration.Scale == 60000)
}

// WriteEDL writes the project's clips as a CMX3600 edit decision list.
// Record times accumulate from clip durations.
func WriteEDL(w io.Writer, p *project.Project, fps float64) error {
	tc := NewTimecode(FrameDuration(fps))

	lines := []string{fmt.Sprintf("TITLE: %s", p.Name)}
	if tc.DropFrame() {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, c := range p.Clips {
		rec := p.Placement(i)
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, ReelName(c.Source), "AA/V",
				tc.Format(c.Start), tc.Format(c.End), tc.Format(rec.Start), tc.Format(rec.End())),
			fmt.Sprintf("* FROM CLIP NAME:  %s", clipName(c.Source)),
			fmt.Sprintf("* SOURCE FILE:  %s", c.Source),
		)
		if c.Volume != 1 {
			lines = append(lines, fmt.Sprintf("* AUDIO LEVEL:  %s", decibels(c.Volume)))
		}
	}

	lines = append(lines, "")
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

// ReelName derives an upper-case reel name of at most eight characters
// from a source path.
func ReelName(source string) string {
	name := strings.ToUpper(clipName(filepath.Base(source)))
	name = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, name)
	if len(name) > reelNameLength {
		name = name[:reelNameLength]
	}
	if name == "" {
		name = "AX"
	}
	return name
}
