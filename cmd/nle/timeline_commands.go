package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nle/internal/logging"
	"nle/internal/media/ffprobe"
	"nle/internal/project"
	"nle/internal/timeline"
)

// trackFlags are the --kind/--track pair shared by per-track commands.
type trackFlags struct {
	kind  string
	index int
}

func (f *trackFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.kind, "kind", "k", "video", "Track kind (video or audio)")
	cmd.Flags().IntVarP(&f.index, "track", "t", 0, "Track index")
}

func (f *trackFlags) resolve() (timeline.TrackKind, error) {
	return timeline.ParseTrackKind(f.kind)
}

func newTimelineCommand(ctx *commandContext) *cobra.Command {
	timelineCmd := &cobra.Command{
		Use:     "timeline",
		Aliases: []string{"tl"},
		Short:   "Create and edit project timelines",
	}

	timelineCmd.AddCommand(newTimelineNewCommand(ctx))
	timelineCmd.AddCommand(newTimelineAddTrackCommand(ctx))
	timelineCmd.AddCommand(newTimelineAddClipCommand(ctx))
	timelineCmd.AddCommand(newTimelineQueryCommand(ctx))
	timelineCmd.AddCommand(newTimelineRippleDeleteCommand(ctx))
	timelineCmd.AddCommand(newTimelineShowCommand(ctx))
	timelineCmd.AddCommand(newTimelineExportCommand(ctx))
	timelineCmd.AddCommand(newTimelineImportCommand(ctx))
	timelineCmd.AddCommand(newTimelineCompactCommand(ctx))

	return timelineCmd
}

func newTimelineNewCommand(ctx *commandContext) *cobra.Command {
	var videoTracks, audioTracks int

	cmd := &cobra.Command{
		Use:   "new <project>",
		Short: "Create an empty project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.projectPath(args[0])
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			name := projectName(args[0])
			p, err := project.Create(cmd.Context(), path, name, project.Options{
				Logger:      logging.WithContext(logging.WithProject(cmd.Context(), name), logger),
				VideoTracks: videoTracks,
				AudioTracks: audioTracks,
			})
			if err != nil {
				return err
			}
			defer p.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s at %s (%d video, %d audio tracks)\n",
				name, path, videoTracks, audioTracks)
			return nil
		},
	}

	cmd.Flags().IntVar(&videoTracks, "video", 1, "Number of video tracks")
	cmd.Flags().IntVar(&audioTracks, "audio", 1, "Number of audio tracks")
	return cmd
}

func newTimelineAddTrackCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "add-track <project>",
		Short: "Append a track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := timeline.ParseTrackKind(kindFlag)
			if err != nil {
				return err
			}
			return ctx.withProject(cmd, args[0], func(runCtx context.Context, p *project.Project) error {
				index, err := p.AddTrack(runCtx, kind)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", kindLabel(kind, index))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "video", "Track kind (video or audio)")
	return cmd
}

func newTimelineAddClipCommand(ctx *commandContext) *cobra.Command {
	var (
		track    trackFlags
		name     string
		asset    string
		inFlag   string
		outFlag  string
		atFlag   string
		duration string
		probe    string
	)

	cmd := &cobra.Command{
		Use:   "add-clip <project>",
		Short: "Place a clip on a track, overwriting whatever it covers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := track.resolve()
			if err != nil {
				return err
			}
			if track.index < 0 {
				return fmt.Errorf("track index must not be negative, got %d", track.index)
			}
			var probed *ffprobe.Asset
			if strings.TrimSpace(probe) != "" {
				info, err := probeAsset(cmd.Context(), ctx, probe)
				if err != nil {
					return err
				}
				probed = &info
			}
			assetID, minted, err := parseAsset(asset)
			if err != nil {
				return err
			}
			if probed != nil && strings.TrimSpace(asset) == "" {
				assetID, minted = assetIDForFile(probed.Path), false
			}
			sourceIn, err := parseInstant(inFlag)
			if err != nil {
				return fmt.Errorf("--in: %w", err)
			}
			at, err := parseInstant(atFlag)
			if err != nil {
				return fmt.Errorf("--at: %w", err)
			}
			var available uint64
			if probed != nil {
				available = probed.Duration
			}
			length, err := clipLength(sourceIn, outFlag, duration, available)
			if err != nil {
				return err
			}
			if probed != nil && (sourceIn >= available || length > available-sourceIn) {
				return fmt.Errorf("source range %s runs past the end of %s (%s)",
					formatRange(timeline.NewTimeRange(sourceIn, length)), probed.Path, formatMicros(available))
			}
			if strings.TrimSpace(name) == "" {
				name = "clip"
				if probed != nil {
					name = strings.TrimSuffix(filepath.Base(probed.Path), filepath.Ext(probed.Path))
				}
			}

			clip := timeline.NewClip(
				name,
				assetID,
				timeline.NewTimeRange(sourceIn, length),
				timeline.NewTimeRange(at, length),
				uint32(track.index),
			)
			if err := clip.Validate(); err != nil {
				return err
			}

			return ctx.withProject(cmd, args[0], func(runCtx context.Context, p *project.Project) error {
				if err := p.AddClip(runCtx, kind, track.index, clip); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Placed %q on %s at %s\n", clip.Name, kindLabel(kind, track.index), formatRange(clip.TimelineRange))
				if minted {
					fmt.Fprintf(out, "Asset id: %s\n", assetID)
				}
				return nil
			})
		},
	}

	track.register(cmd)
	cmd.Flags().StringVarP(&name, "name", "n", "", "Clip name")
	cmd.Flags().StringVar(&asset, "asset", "", "Asset UUID (generated when omitted)")
	cmd.Flags().StringVar(&inFlag, "in", "0", "Source in point")
	cmd.Flags().StringVar(&outFlag, "out", "", "Source out point (alternative to --duration)")
	cmd.Flags().StringVar(&atFlag, "at", "0", "Timeline position")
	cmd.Flags().StringVarP(&duration, "duration", "d", "", "Clip duration")
	cmd.Flags().StringVar(&probe, "probe", "", "Media file to probe for the asset id, name and length")
	return cmd
}

// clipLength takes --duration, or --out minus --in when only --out is set.
// With neither, a probed asset length runs the clip to the end of the asset.
func clipLength(sourceIn uint64, outFlag, durationFlag string, available uint64) (uint64, error) {
	switch {
	case strings.TrimSpace(durationFlag) != "":
		length, err := parseInstant(durationFlag)
		if err != nil {
			return 0, fmt.Errorf("--duration: %w", err)
		}
		return length, nil
	case strings.TrimSpace(outFlag) != "":
		out, err := parseInstant(outFlag)
		if err != nil {
			return 0, fmt.Errorf("--out: %w", err)
		}
		if out <= sourceIn {
			return 0, fmt.Errorf("--out (%d) must be after --in (%d)", out, sourceIn)
		}
		return out - sourceIn, nil
	case available > sourceIn:
		return available - sourceIn, nil
	default:
		return 0, errors.New("either --duration or --out is required")
	}
}

func newTimelineQueryCommand(ctx *commandContext) *cobra.Command {
	var (
		track  trackFlags
		atFlag string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "query <project>",
		Short: "Show the clip covering an instant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := track.resolve()
			if err != nil {
				return err
			}
			at, err := parseInstant(atFlag)
			if err != nil {
				return fmt.Errorf("--at: %w", err)
			}
			return ctx.withProject(cmd, args[0], func(_ context.Context, p *project.Project) error {
				tr, err := p.Timeline().Track(kind, track.index)
				if err != nil {
					return err
				}
				clip, ok := tr.Query(at)
				if asJSON {
					result := queryResult{Time: at, Found: ok}
					if ok {
						result.Clip = &clip
						result.SourceTime, _ = clip.SourceTimeAt(at)
					}
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				if !ok {
					fmt.Fprintf(out, "%s is empty at %s\n", kindLabel(kind, track.index), formatMicros(at))
					return nil
				}
				sourceAt, _ := clip.SourceTimeAt(at)
				fmt.Fprintf(out, "%s at %s: %q (asset %s, source %s)\n",
					kindLabel(kind, track.index), formatMicros(at), clip.Name, clip.AssetID, formatMicros(sourceAt))
				return nil
			})
		},
	}

	track.register(cmd)
	cmd.Flags().StringVar(&atFlag, "at", "0", "Timeline instant")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

type queryResult struct {
	Time       uint64         `json:"time_us"`
	Found      bool           `json:"found"`
	Clip       *timeline.Clip `json:"clip,omitempty"`
	SourceTime uint64         `json:"source_time_us,omitempty"`
}

func newTimelineRippleDeleteCommand(ctx *commandContext) *cobra.Command {
	var (
		track     trackFlags
		startFlag string
		duration  string
	)

	cmd := &cobra.Command{
		Use:   "ripple-delete <project>",
		Short: "Cut a span out of a track and close the gap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := track.resolve()
			if err != nil {
				return err
			}
			start, err := parseInstant(startFlag)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			length, err := parseInstant(duration)
			if err != nil {
				return fmt.Errorf("--duration: %w", err)
			}
			span := timeline.NewTimeRange(start, length)
			return ctx.withProject(cmd, args[0], func(runCtx context.Context, p *project.Project) error {
				if err := p.RippleDelete(runCtx, kind, track.index, span); err != nil {
					return err
				}
				if span.IsEmpty() {
					fmt.Fprintln(cmd.OutOrStdout(), "Empty span; nothing deleted")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", formatRange(span), kindLabel(kind, track.index))
				return nil
			})
		},
	}

	track.register(cmd)
	cmd.Flags().StringVar(&startFlag, "start", "0", "Start of the span to remove")
	cmd.Flags().StringVarP(&duration, "duration", "d", "", "Length of the span to remove")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

type trackView struct {
	Kind  string          `json:"kind"`
	Index int             `json:"index"`
	Clips []timeline.Clip `json:"clips"`
}

type timelineView struct {
	Project  string      `json:"project"`
	Duration uint64      `json:"duration_us"`
	Tracks   []trackView `json:"tracks"`
}

func buildTimelineView(name string, tl *timeline.Timeline) timelineView {
	view := timelineView{Project: name, Duration: tl.Duration()}
	for _, kind := range []timeline.TrackKind{timeline.KindVideo, timeline.KindAudio} {
		for i := 0; i < tl.TrackCount(kind); i++ {
			tr, _ := tl.Track(kind, i)
			clips := tr.Entries()
			if clips == nil {
				clips = []timeline.Clip{}
			}
			view.Tracks = append(view.Tracks, trackView{Kind: kind.String(), Index: i, Clips: clips})
		}
	}
	return view
}

func newTimelineShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <project>",
		Short: "List every clip on every track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, args[0], func(_ context.Context, p *project.Project) error {
				view := buildTimelineView(p.Name(), p.Timeline())
				if asJSON {
					return writeJSON(cmd, view)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Project %s, duration %s\n", view.Project, formatMicros(view.Duration))
				rows := make([][]string, 0)
				for _, tv := range view.Tracks {
					kind, _ := timeline.ParseTrackKind(tv.Kind)
					label := kindLabel(kind, tv.Index)
					if len(tv.Clips) == 0 {
						rows = append(rows, []string{label, "", "", "(empty)", "", ""})
						continue
					}
					for _, clip := range tv.Clips {
						rows = append(rows, []string{
							label,
							formatMicros(clip.TimelineRange.Start),
							formatMicros(clip.TimelineRange.End()),
							clip.Name,
							clip.AssetID.String(),
							formatRange(clip.SourceRange),
						})
					}
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Track", "Start", "End", "Clip", "Asset", "Source"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newTimelineExportCommand(ctx *commandContext) *cobra.Command {
	var (
		track  trackFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Write a track's clips as a TOML clip document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := track.resolve()
			if err != nil {
				return err
			}
			return ctx.withProject(cmd, args[0], func(_ context.Context, p *project.Project) error {
				tr, err := p.Timeline().Track(kind, track.index)
				if err != nil {
					return err
				}
				data, err := timeline.MarshalClipsTOML(tr.Entries())
				if err != nil {
					return err
				}
				if strings.TrimSpace(output) == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d clips from %s to %s\n", tr.Len(), kindLabel(kind, track.index), output)
				return nil
			})
		},
	}

	track.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (stdout when omitted)")
	return cmd
}

func newTimelineImportCommand(ctx *commandContext) *cobra.Command {
	var track trackFlags

	cmd := &cobra.Command{
		Use:   "import <project> <clips.toml>",
		Short: "Add the clips of a TOML clip document to a track in order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := track.resolve()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read clip document: %w", err)
			}
			clips, err := timeline.UnmarshalClipsTOML(data)
			if err != nil {
				return err
			}
			return ctx.withProject(cmd, args[0], func(runCtx context.Context, p *project.Project) error {
				if err := p.ImportClips(runCtx, kind, track.index, clips); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d clips into %s\n", len(clips), kindLabel(kind, track.index))
				return nil
			})
		},
	}

	track.register(cmd)
	return cmd
}

func newTimelineCompactCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "compact <project>",
		Short: "Rewrite the edit journal as one insertion per clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, args[0], func(runCtx context.Context, p *project.Project) error {
				before, err := p.Info(runCtx)
				if err != nil {
					return err
				}
				after, err := p.Compact(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Compacted journal from %d to %d edits\n", before.Edits, after)
				return nil
			})
		},
	}
}
