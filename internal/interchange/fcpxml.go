package interchange

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"net/url"
	"path/filepath"

	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/pkg/mediatime"
)

// FCPXMLVersion is the document version written.
const FCPXMLVersion = "1.9"

// Format is the sequence format of an FCPXML document.
type Format struct {
	Width         int
	Height        int
	FrameDuration mediatime.Time
}

// FCPXML is the root element.
type FCPXML struct {
	XMLName   xml.Name  `xml:"fcpxml"`
	Version   string    `xml:"version,attr"`
	Resources Resources `xml:"resources"`
	Library   Library   `xml:"library"`
}

// Resources lists formats and media assets referenced by the spine.
type Resources struct {
	Formats []FormatResource `xml:"format"`
	Assets  []Asset          `xml:"asset"`
}

type FormatResource struct {
	ID            string `xml:"id,attr"`
	Name          string `xml:"name,attr,omitempty"`
	FrameDuration string `xml:"frameDuration,attr"`
	Width         int    `xml:"width,attr"`
	Height        int    `xml:"height,attr"`
}

type Asset struct {
	ID       string   `xml:"id,attr"`
	Name     string   `xml:"name,attr"`
	Start    string   `xml:"start,attr"`
	Duration string   `xml:"duration,attr"`
	HasVideo string   `xml:"hasVideo,attr"`
	HasAudio string   `xml:"hasAudio,attr"`
	Format   string   `xml:"format,attr"`
	MediaRep MediaRep `xml:"media-rep"`
}

type MediaRep struct {
	Kind string `xml:"kind,attr"`
	Src  string `xml:"src,attr"`
}

type Library struct {
	Event Event `xml:"event"`
}

type Event struct {
	Name    string  `xml:"name,attr"`
	Project Project `xml:"project"`
}

type Project struct {
	Name     string   `xml:"name,attr"`
	Sequence Sequence `xml:"sequence"`
}

type Sequence struct {
	Format      string `xml:"format,attr"`
	Duration    string `xml:"duration,attr"`
	TCStart     string `xml:"tcStart,attr"`
	TCFormat    string `xml:"tcFormat,attr"`
	AudioLayout string `xml:"audioLayout,attr"`
	AudioRate   string `xml:"audioRate,attr"`
	Spine       Spine  `xml:"spine"`
}

type Spine struct {
	Clips []AssetClip `xml:"asset-clip"`
}

// AssetClip places a window of an asset on the spine.
type AssetClip struct {
	Ref      string        `xml:"ref,attr"`
	Name     string        `xml:"name,attr"`
	Offset   string        `xml:"offset,attr"`
	Start    string        `xml:"start,attr"`
	Duration string        `xml:"duration,attr"`
	Format   string        `xml:"format,attr"`
	Volume   *AdjustVolume `xml:"adjust-volume,omitempty"`
}

type AdjustVolume struct {
	Amount string `xml:"amount,attr"`
}

// BuildFCPXML lays the project's clips end to end on a single spine. Times
// are snapped to whole frames of f.FrameDuration.
func BuildFCPXML(p *project.Project, f Format) *FCPXML {
	fd := f.FrameDuration
	if fd.Sign() <= 0 {
		fd = FrameDuration(30)
	}
	ts := func(t mediatime.Time) string { return fcpTime(t, fd) }

	doc := &FCPXML{
		Version: FCPXMLVersion,
		Resources: Resources{
			Formats: []FormatResource{{
				ID:            "r1",
				Name:          fmt.Sprintf("FFVideoFormat%dx%d", f.Width, f.Height),
				FrameDuration: ts(fd),
				Width:         f.Width,
				Height:        f.Height,
			}},
		},
	}

	// one asset per source, long enough for every window taken from it
	assetIDs := make(map[string]string)
	var sources []string
	ends := make(map[string]mediatime.Time)
	for _, c := range p.Clips {
		if _, ok := assetIDs[c.Source]; !ok {
			assetIDs[c.Source] = fmt.Sprintf("r%d", len(assetIDs)+2)
			sources = append(sources, c.Source)
		}
		ends[c.Source] = mediatime.Max(ends[c.Source], c.SourceRange().End())
	}
	for _, src := range sources {
		doc.Resources.Assets = append(doc.Resources.Assets, Asset{
			ID:       assetIDs[src],
			Name:     filepath.Base(src),
			Start:    "0s",
			Duration: ts(ends[src]),
			HasVideo: "1",
			HasAudio: "1",
			Format:   "r1",
			MediaRep: MediaRep{Kind: "original-media", Src: fileURL(src)},
		})
	}

	seq := Sequence{
		Format:      "r1",
		Duration:    ts(p.TotalDuration()),
		TCStart:     "0s",
		TCFormat:    tcFormat(fd),
		AudioLayout: "stereo",
		AudioRate:   "48k",
	}
	for i, c := range p.Clips {
		placed := p.Placement(i)
		ac := AssetClip{
			Ref:      assetIDs[c.Source],
			Name:     clipName(c.Source),
			Offset:   ts(placed.Start),
			Start:    ts(c.Start),
			Duration: ts(placed.Duration),
			Format:   "r1",
		}
		if c.Volume != 1 {
			ac.Volume = &AdjustVolume{Amount: decibels(c.Volume)}
		}
		seq.Spine.Clips = append(seq.Spine.Clips, ac)
	}

	doc.Library.Event = Event{
		Name:    p.Name,
		Project: Project{Name: p.Name, Sequence: seq},
	}
	return doc
}

// WriteFCPXML encodes the project as an FCPXML document.
func WriteFCPXML(w io.Writer, p *project.Project, f Format) error {
	if _, err := io.WriteString(w, xml.Header+"<!DOCTYPE fcpxml>\n"); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(BuildFCPXML(p, f)); err != nil {
		return fmt.Errorf("failed to encode fcpxml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// fcpTime renders t as a whole number of frames in FCPXML rational seconds.
func fcpTime(t, frameDuration mediatime.Time) string {
	n := frames(t, frameDuration)
	if n == 0 {
		return "0s"
	}
	v := mediatime.New(n*frameDuration.Value, frameDuration.Scale)
	if v.Scale == 1 {
		return fmt.Sprintf("%ds", v.Value)
	}
	return fmt.Sprintf("%d/%ds", v.Value, v.Scale)
}

func tcFormat(frameDuration mediatime.Time) string {
	if isDropFrame(frameDuration) {
		return "DF"
	}
	return "NDF"
}

func decibels(gain float64) string {
	if gain <= 0 {
		return "-96dB"
	}
	return fmt.Sprintf("%.1fdB", 20*math.Log10(gain))
}

func fileURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
