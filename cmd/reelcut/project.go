package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/keagan/reelcut/internal/config"
	"github.com/keagan/reelcut/internal/pipeline"
	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/keagan/reelcut/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create an empty project file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if util.FileExists(projectFile) {
			return fmt.Errorf("%s already exists", projectFile)
		}
		cfg := config.FromContext(cmd.Context())
		p := project.New(args[0])
		p.Export.Preset = cfg.Export.Preset
		p.Export.Quality = cfg.Export.Quality
		if err := p.Save(projectFile); err != nil {
			return err
		}
		log.Info().Str("project", p.Name).Str("file", projectFile).Msg("project created")
		return nil
	},
}

var (
	importBed    bool
	importAt     string
	importVolume float64
	importFrom   string
	importLength string
)

var importCmd = &cobra.Command{
	Use:   "import [media files...]",
	Short: "Probe media files and append them as clips",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project.Load(projectFile)
		if err != nil {
			return err
		}
		pipe, err := pipeline.New(log.Logger, config.FromContext(cmd.Context()))
		if err != nil {
			return err
		}
		defer pipe.Close()

		if importBed {
			at, err := util.ParseTimestamp(importAt)
			if err != nil {
				return err
			}
			for _, path := range args {
				if p, err = pipe.ImportAudio(cmd.Context(), p, path, at, importVolume); err != nil {
					return err
				}
			}
		} else {
			var opts pipeline.ImportOptions
			if opts.Window.Start, err = util.ParseTimestamp(importFrom); err != nil {
				return err
			}
			if importLength != "" {
				if opts.Window.Duration, err = util.ParseTimestamp(importLength); err != nil {
					return err
				}
			}
			if p, err = pipe.Import(cmd.Context(), p, args, opts); err != nil {
				return err
			}
		}

		if err := p.Save(projectFile); err != nil {
			return err
		}
		log.Info().
			Int("clips", len(p.Clips)).
			Int("beds", len(p.AudioTracks)).
			Str("duration", util.FormatTimestamp(p.TotalDuration())).
			Msg("media imported")
		return nil
	},
}

var (
	infoProbe bool
	infoAt    string
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the project timeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project.Load(projectFile)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", p.Name, p.ID)
		fmt.Fprintf(out, "duration %s, %d clips, %d beds, %d captions\n\n",
			util.FormatTimestamp(p.TotalDuration()), len(p.Clips), len(p.AudioTracks), len(p.Captions))

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tID\tAT\tLENGTH\tSOURCE\tIN\tOUT\tVOL\t")
		for i, c := range p.Clips {
			sel := ""
			if c.ID == p.Selection {
				sel = " *"
			}
			fmt.Fprintf(w, "%d\t%s%s\t%s\t%s\t%s\t%s\t%s\t%.2f\t\n", i+1, shortID(c.ID), sel,
				util.FormatTimestamp(p.Placement(i).Start), util.FormatTimestamp(c.Duration()),
				c.Source, util.FormatTimestamp(c.Start), util.FormatTimestamp(c.End), c.Volume)
		}
		w.Flush()

		if len(p.AudioTracks) > 0 {
			fmt.Fprintln(out)
			w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BED\tAT\tLENGTH\tSOURCE\tVOL\t")
			for _, tr := range p.AudioTracks {
				vol := strconv.FormatFloat(tr.Volume, 'f', 2, 64)
				if tr.Muted {
					vol = "muted"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", shortID(tr.ID),
					util.FormatTimestamp(tr.Range.Start), util.FormatTimestamp(tr.Range.Duration), tr.Source, vol)
			}
			w.Flush()
		}

		if langs := p.Languages(); len(langs) > 0 {
			fmt.Fprintf(out, "\ncaptions: %s\n", strings.Join(langs, ", "))
		}

		if !infoProbe && infoAt == "" {
			return nil
		}
		pipe, err := pipeline.New(log.Logger, config.FromContext(cmd.Context()))
		if err != nil {
			return err
		}
		defer pipe.Close()

		if infoAt != "" {
			at, err := parseTime(infoAt)
			if err != nil {
				return err
			}
			pos, err := pipe.Locate(cmd.Context(), p, at)
			if err != nil {
				return err
			}
			channel := "video"
			if !pos.HasVideo {
				channel = "audio only"
			}
			fmt.Fprintf(out, "\nat %s: clip #%d %s, %s at %s (%s)\n", util.FormatTimestamp(at), pos.Index+1,
				shortID(pos.ClipID), pos.Source, util.FormatTimestamp(pos.SourceTime), channel)
		}

		if infoProbe {
			s, err := pipe.Describe(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nrender size %s, %d video / %d audio segments, %d beds\n",
				s.RenderSize, s.VideoSegments, s.AudioSegments, s.Beds)
			for _, warn := range s.Warnings {
				fmt.Fprintf(out, "warning: %s\n", warn)
			}
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importBed, "bed", false, "add the files as music beds instead of clips")
	importCmd.Flags().StringVar(&importAt, "at", "0", "timeline position of a music bed")
	importCmd.Flags().Float64Var(&importVolume, "volume", 1, "music bed volume (0-1)")
	importCmd.Flags().StringVar(&importFrom, "from", "0", "source time each clip starts at")
	importCmd.Flags().StringVar(&importLength, "length", "", "clip length (default: rest of the source)")

	infoCmd.Flags().BoolVar(&infoProbe, "probe", false, "probe sources and report render size and skipped channels")
	infoCmd.Flags().StringVar(&infoAt, "at", "", "show the clip and source time playing at this timeline time")
}

// resolveClip accepts a clip id, a unique id prefix or a 1-based #index.
func resolveClip(p *project.Project, ref string) (string, error) {
	if n, ok := strings.CutPrefix(ref, "#"); ok {
		i, err := strconv.Atoi(n)
		if err != nil || i < 1 || i > len(p.Clips) {
			return "", fmt.Errorf("no clip at position %s", ref)
		}
		return p.Clips[i-1].ID, nil
	}
	if p.IndexOf(ref) >= 0 {
		return ref, nil
	}
	var match string
	for _, c := range p.Clips {
		if strings.HasPrefix(c.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("clip reference %q is ambiguous", ref)
			}
			match = c.ID
		}
	}
	if match == "" {
		// let the editor report the missing clip
		return ref, nil
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func parseTime(s string) (mediatime.Time, error) {
	t, err := util.ParseTimestamp(s)
	if err != nil {
		return mediatime.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t, nil
}

func parseSpan(from, to string) (mediatime.Range, error) {
	start, err := parseTime(from)
	if err != nil {
		return mediatime.Range{}, err
	}
	end, err := parseTime(to)
	if err != nil {
		return mediatime.Range{}, err
	}
	return mediatime.Span(start, end)
}

func writeTable(rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r, "\t")+"\t")
	}
	w.Flush()
}
