package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/k0kubun/go-ansi"
	"github.com/keagan/reelcut/internal/config"
	"github.com/keagan/reelcut/internal/export"
	"github.com/keagan/reelcut/internal/interchange"
	"github.com/keagan/reelcut/internal/pipeline"
	"github.com/keagan/reelcut/internal/project"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	exportPreset  string
	exportQuality string
	exportOutput  string
	exportQuiet   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the project for a platform preset",
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

		// the command context is cancelled on interrupt, which cancels the job
		job, err := pipe.Export(cmd.Context(), p, pipeline.ExportOptions{
			Preset:  exportPreset,
			Quality: exportQuality,
			Output:  exportOutput,
		})
		if err != nil {
			return err
		}

		var bar *progressbar.ProgressBar
		if !exportQuiet {
			bar = progressbar.NewOptions(
				100,
				progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetTheme(progressbar.ThemeASCII),
				progressbar.OptionFullWidth(),
				progressbar.OptionSetDescription(fmt.Sprintf("[cyan]Exporting[reset] %s...", p.Name)),
			)
		}
		for s := range job.Updates() {
			if bar != nil && s.State == export.StateRendering {
				_ = bar.Set(int(s.Progress * 100))
			}
		}

		status, err := job.Wait(cmd.Context())
		if bar != nil {
			if err == nil {
				_ = bar.Finish()
			}
			fmt.Println()
		}
		if errors.Is(err, export.ErrCancelled) {
			log.Warn().Str("job", job.ID()).Msg("export cancelled, partial output removed")
			return err
		}
		if err != nil {
			return err
		}

		log.Info().
			Str("output", status.Output).
			Str("job", job.ID()).
			Msg("export completed")
		return nil
	},
}

var (
	interchangeFormat string
	interchangeLang   string
	interchangeFPS    float64
	interchangeOutput string
	interchangePreset string
)

var interchangeCmd = &cobra.Command{
	Use:   "interchange",
	Short: "Write the timeline as FCPXML, CMX 3600 EDL or SRT captions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		p, err := project.Load(projectFile)
		if err != nil {
			return err
		}
		preset, err := cfg.Preset(firstSet(interchangePreset, p.Export.Preset, cfg.Export.Preset))
		if err != nil {
			return err
		}
		fps := interchangeFPS
		if fps <= 0 {
			fps = preset.FrameRate
		}

		format := strings.ToLower(interchangeFormat)
		output := interchangeOutput
		if output == "" {
			ext := map[string]string{"fcpxml": ".fcpxml", "edl": ".edl", "srt": ".srt"}[format]
			if ext == "" {
				return fmt.Errorf("unknown interchange format %q", interchangeFormat)
			}
			output = strings.TrimSuffix(projectFile, filepath.Ext(projectFile)) + ext
		}

		var w io.Writer = os.Stdout
		if output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		switch format {
		case "fcpxml":
			err = interchange.WriteFCPXML(w, p, interchange.Format{
				Width:         preset.Width,
				Height:        preset.Height,
				FrameDuration: interchange.FrameDuration(fps),
			})
		case "edl":
			err = interchange.WriteEDL(w, p, fps)
		case "srt":
			err = interchange.WriteSRT(w, p, interchangeLang)
		default:
			err = fmt.Errorf("unknown interchange format %q", interchangeFormat)
		}
		if err != nil {
			return err
		}
		if output != "-" {
			log.Info().Str("format", format).Str("output", output).Msg("timeline written")
		}
		return nil
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List export presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		list := export.Presets()
		if custom, err := cfg.Preset(export.PresetCustom); err == nil {
			list = append(list, custom)
		}

		rows := [][]string{{"NAME", "LABEL", "ASPECT", "SIZE", "FPS", "MAX", "CODEC", "BITRATE"}}
		for _, pr := range list {
			limit := "-"
			if pr.HasMaxDuration() {
				limit = pr.MaxDuration.String() + "s"
			}
			rows = append(rows, []string{
				pr.Name, pr.Label, pr.AspectRatio,
				fmt.Sprintf("%dx%d", pr.Width, pr.Height),
				strconv.FormatFloat(pr.FrameRate, 'f', -1, 64),
				limit, pr.Codec,
				fmt.Sprintf("%.1fM", float64(pr.Bitrate)/1e6),
			})
		}
		writeTable(rows)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPreset, "preset", "", "export preset (see presets)")
	exportCmd.Flags().StringVar(&exportQuality, "quality", "", "low, medium, high or max")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file")
	exportCmd.Flags().BoolVarP(&exportQuiet, "quiet", "q", false, "no progress bar")

	interchangeCmd.Flags().StringVarP(&interchangeFormat, "format", "f", "fcpxml", "fcpxml, edl or srt")
	interchangeCmd.Flags().StringVar(&interchangeLang, "lang", "en", "caption language for srt")
	interchangeCmd.Flags().Float64Var(&interchangeFPS, "fps", 0, "timebase (default: the preset frame rate)")
	interchangeCmd.Flags().StringVarP(&interchangeOutput, "output", "o", "", "output file, - for stdout")
	interchangeCmd.Flags().StringVar(&interchangePreset, "preset", "", "preset supplying the format")
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
