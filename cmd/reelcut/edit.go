package main

import (
	"fmt"

	"github.com/keagan/reelcut/internal/config"
	"github.com/keagan/reelcut/internal/editor"
	"github.com/keagan/reelcut/internal/project"
	"github.com/keagan/reelcut/internal/session"
	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/keagan/reelcut/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// applyEdit loads the project file, applies one edit through a session and
// saves the result.
func applyEdit(cmd *cobra.Command, name string, edit func(e *editor.Editor, p *project.Project) (*project.Project, error)) error {
	cfg := config.FromContext(cmd.Context())
	p, err := project.Load(projectFile)
	if err != nil {
		return err
	}

	ed := editor.New()
	s := session.New(log.Logger, p, session.WithHistoryLimit(cfg.Editor.HistoryLimit))
	next, err := s.Apply(name, func(p *project.Project) (*project.Project, error) {
		return edit(ed, p)
	})
	if err != nil {
		return err
	}
	if err := next.Save(projectFile); err != nil {
		return err
	}

	log.Info().
		Str("edit", name).
		Int("clips", len(next.Clips)).
		Str("duration", util.FormatTimestamp(next.TotalDuration())).
		Msg("project updated")
	return nil
}

// snapRange pulls both ends of r onto nearby clip boundaries.
func snapRange(p *project.Project, r mediatime.Range, threshold mediatime.Time, playhead string) (mediatime.Range, error) {
	candidates := append(p.Offsets(), p.TotalDuration())
	if playhead != "" {
		t, err := parseTime(playhead)
		if err != nil {
			return r, err
		}
		candidates = append(candidates, t)
	}
	start := editor.Snap(r.Start, candidates, threshold)
	end := editor.Snap(r.End(), candidates, threshold)
	return mediatime.Span(start, end)
}

var (
	splitAt       string
	splitPlayhead string
)

var splitCmd = &cobra.Command{
	Use:   "split [clip]",
	Short: "Split a clip at a source time, or the timeline at --playhead",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			if splitPlayhead == "" {
				return fmt.Errorf("either a clip with --at or --playhead is required")
			}
			t, err := parseTime(splitPlayhead)
			if err != nil {
				return err
			}
			return applyEdit(cmd, "split", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
				return e.SplitAtPlayhead(p, t)
			})
		}

		at, err := parseTime(splitAt)
		if err != nil {
			return err
		}
		return applyEdit(cmd, "split", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
			id, err := resolveClip(p, args[0])
			if err != nil {
				return nil, err
			}
			return e.Split(p, id, at)
		})
	},
}

var (
	trimStart string
	trimEnd   string
)

var trimCmd = &cobra.Command{
	Use:   "trim [clip]",
	Short: "Move a clip's in and/or out point (source time)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if trimStart == "" && trimEnd == "" {
			return fmt.Errorf("--start or --end is required")
		}
		return applyEdit(cmd, "trim", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
			id, err := resolveClip(p, args[0])
			if err != nil {
				return nil, err
			}
			if trimStart != "" {
				t, err := parseTime(trimStart)
				if err != nil {
					return nil, err
				}
				if p, err = e.TrimStart(p, id, t); err != nil {
					return nil, err
				}
			}
			if trimEnd != "" {
				t, err := parseTime(trimEnd)
				if err != nil {
					return nil, err
				}
				if p, err = e.TrimEnd(p, id, t); err != nil {
					return nil, err
				}
			}
			return p, nil
		})
	},
}

var (
	rangeFrom     string
	rangeTo       string
	rangeSnap     bool
	rangePlayhead string
)

var trimRangeCmd = &cobra.Command{
	Use:   "trim-range [clip]",
	Short: "Keep only a timeline range of a clip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := parseSpan(rangeFrom, rangeTo)
		if err != nil {
			return err
		}
		threshold := config.FromContext(cmd.Context()).Editor.SnapThreshold
		return applyEdit(cmd, "trim range", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
			id, err := resolveClip(p, args[0])
			if err != nil {
				return nil, err
			}
			r := sel
			if rangeSnap {
				if r, err = snapRange(p, r, threshold, rangePlayhead); err != nil {
					return nil, err
				}
			}
			return e.TrimToRange(p, id, r)
		})
	},
}

var rippleDeleteCmd = &cobra.Command{
	Use:   "ripple-delete",
	Short: "Cut a timeline range and close the gap",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cut, err := parseSpan(rangeFrom, rangeTo)
		if err != nil {
			return err
		}
		threshold := config.FromContext(cmd.Context()).Editor.SnapThreshold
		return applyEdit(cmd, "ripple delete", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
			r := cut
			if rangeSnap {
				if r, err = snapRange(p, r, threshold, rangePlayhead); err != nil {
					return nil, err
				}
			}
			return e.RippleDelete(p, r)
		})
	},
}

var duplicateCmd = &cobra.Command{
	Use:   "duplicate [clip]",
	Short: "Insert a copy of a clip right after it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyEdit(cmd, "duplicate", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
			id, err := resolveClip(p, args[0])
			if err != nil {
				return nil, err
			}
			return e.Duplicate(p, id)
		})
	},
}

var moveTo int

var moveCmd = &cobra.Command{
	Use:   "move [clip]",
	Short: "Move a clip to a 1-based position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyEdit(cmd, "move", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
			id, err := resolveClip(p, args[0])
			if err != nil {
				return nil, err
			}
			return e.Reorder(p, id, moveTo-1)
		})
	},
}

var removeBed bool

var removeCmd = &cobra.Command{
	Use:   "remove [clip]",
	Short: "Remove a clip, or a music bed with --bed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if removeBed {
			return applyEdit(cmd, "remove bed", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
				return e.RemoveAudioTrack(p, args[0])
			})
		}
		return applyEdit(cmd, "remove", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
			id, err := resolveClip(p, args[0])
			if err != nil {
				return nil, err
			}
			return e.Remove(p, id)
		})
	},
}

var (
	volumeBed  bool
	volumeMute bool
)

var volumeCmd = &cobra.Command{
	Use:   "volume [clip] [level]",
	Short: "Set the volume (0-1) of a clip, or of a music bed with --bed",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if volumeBed && cmd.Flags().Changed("mute") {
			return applyEdit(cmd, "mute bed", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
				return e.SetAudioTrackMuted(p, args[0], volumeMute)
			})
		}
		if len(args) != 2 {
			return fmt.Errorf("volume level is required")
		}
		var level float64
		if _, err := fmt.Sscan(args[1], &level); err != nil {
			return fmt.Errorf("invalid volume %q", args[1])
		}
		if volumeBed {
			return applyEdit(cmd, "bed volume", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
				return e.SetAudioTrackVolume(p, args[0], level)
			})
		}
		return applyEdit(cmd, "volume", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
			id, err := resolveClip(p, args[0])
			if err != nil {
				return nil, err
			}
			return e.SetVolume(p, id, level)
		})
	},
}

var (
	captionLang  string
	captionStart string
	captionEnd   string
)

var captionCmd = &cobra.Command{
	Use:   "caption",
	Short: "Manage caption tracks",
}

var captionAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a caption line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := parseSpan(captionStart, captionEnd)
		if err != nil {
			return err
		}
		return applyEdit(cmd, "add caption", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
			return e.AddCaption(p, project.Caption{Language: captionLang, Start: r.Start, End: r.End(), Text: args[0]})
		})
	},
}

var captionRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a caption line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyEdit(cmd, "remove caption", func(e *editor.Editor, p *project.Project) (*project.Project, error) {
			return e.RemoveCaption(p, args[0])
		})
	},
}

func init() {
	splitCmd.Flags().StringVar(&splitAt, "at", "", "source time to split the clip at")
	splitCmd.Flags().StringVar(&splitPlayhead, "playhead", "", "timeline time to split at (no clip argument)")

	trimCmd.Flags().StringVar(&trimStart, "start", "", "new in point")
	trimCmd.Flags().StringVar(&trimEnd, "end", "", "new out point")

	for _, c := range []*cobra.Command{trimRangeCmd, rippleDeleteCmd} {
		c.Flags().StringVar(&rangeFrom, "from", "", "range start on the timeline")
		c.Flags().StringVar(&rangeTo, "to", "", "range end on the timeline")
		c.Flags().BoolVar(&rangeSnap, "snap", false, "snap range ends to nearby clip boundaries")
		c.Flags().StringVar(&rangePlayhead, "playhead", "", "extra snap candidate")
		_ = c.MarkFlagRequired("from")
		_ = c.MarkFlagRequired("to")
	}

	moveCmd.Flags().IntVar(&moveTo, "to", 1, "target position (1-based)")

	removeCmd.Flags().BoolVar(&removeBed, "bed", false, "remove a music bed by id")

	volumeCmd.Flags().BoolVar(&volumeBed, "bed", false, "target a music bed by id")
	volumeCmd.Flags().BoolVar(&volumeMute, "mute", false, "mute or unmute a music bed")

	captionAddCmd.Flags().StringVar(&captionLang, "lang", "en", "caption language")
	captionAddCmd.Flags().StringVar(&captionStart, "start", "", "timeline start")
	captionAddCmd.Flags().StringVar(&captionEnd, "end", "", "timeline end")
	_ = captionAddCmd.MarkFlagRequired("start")
	_ = captionAddCmd.MarkFlagRequired("end")
	captionCmd.AddCommand(captionAddCmd, captionRemoveCmd)
}
