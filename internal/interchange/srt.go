package interchange

import (
	"fmt"
	"io"
	"strings"

	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/pkg/mediatime"
)

// WriteSRT writes the captions of one language as SubRip, ordered by start.
func WriteSRT(w io.Writer, p *project.Project, lang string) error {
	var b strings.Builder
	for i, c := range p.CaptionsFor(lang) {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtTime(c.Start), srtTime(c.End), strings.TrimSpace(c.Text))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// srtTime renders t as HH:MM:SS,mmm.
func srtTime(t mediatime.Time) string {
	ms := max(t.Round(1000), 0)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3_600_000, (ms/60_000)%60, (ms/1000)%60, ms%1000)
}
