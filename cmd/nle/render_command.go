package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"nle/internal/playback"
	"nle/internal/project"
)

type renderReport struct {
	Project   string          `json:"project"`
	SessionID string          `json:"session_id"`
	Track     int             `json:"track"`
	Frames    int             `json:"frames"`
	Decoded   int             `json:"decoded"`
	Gaps      int             `json:"gaps"`
	Failed    int             `json:"failed"`
	ElapsedMS int64           `json:"elapsed_ms"`
	Decoders  []decoderReport `json:"decoders"`
	Timeline  []renderedFrame `json:"frames_detail,omitempty"`
}

type decoderReport struct {
	Asset      string `json:"asset_id"`
	Served     uint64 `json:"served"`
	Failed     uint64 `json:"failed"`
	Abandoned  uint64 `json:"abandoned"`
	Terminated uint64 `json:"terminated"`
}

type renderedFrame struct {
	Index      int    `json:"index"`
	Time       uint64 `json:"time_us"`
	Clip       string `json:"clip,omitempty"`
	SourceTime uint64 `json:"source_time_us,omitempty"`
	Payload    string `json:"payload,omitempty"`
	Error      string `json:"error,omitempty"`
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		trackIndex int
		frames     int
		startFlag  string
		realtime   bool
		verbose    bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "render <project>",
		Short: "Decode a run of frames from a video track without presenting them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			start, err := parseInstant(startFlag)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			if !cmd.Flags().Changed("frames") {
				frames = cfg.Playback.RenderFrames
			}

			return ctx.withProject(cmd, args[0], func(runCtx context.Context, p *project.Project) error {
				resolver, err := playback.NewResolver(runCtx, p.Timeline(), playback.ResolverOptions{
					Logger:      logger,
					Open:        playback.OpenerFromConfig(cfg.Decoder, logger),
					MailboxSize: cfg.Decoder.MailboxSize,
				})
				if err != nil {
					return err
				}
				defer func() {
					closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = resolver.Close(closeCtx)
				}()

				report := renderReport{Project: p.Name(), Track: trackIndex, Decoders: []decoderReport{}}
				summary, err := playback.Render(runCtx, resolver, playback.RenderOptions{
					Logger:    logger,
					Track:     trackIndex,
					Start:     start,
					Frames:    frames,
					FrameRate: cfg.Playback.FrameRate,
					Realtime:  realtime,
					OnFrame: func(fr playback.FrameReport) {
						if !verbose {
							return
						}
						frame := renderedFrame{Index: fr.Index, Time: fr.Time, Clip: fr.Clip, SourceTime: fr.SourceTime}
						if !fr.Gap && fr.Err == nil {
							frame.Payload = fr.Payload.String()
						}
						if fr.Err != nil {
							frame.Error = fr.Err.Error()
						}
						report.Timeline = append(report.Timeline, frame)
					},
				})
				if err != nil {
					return err
				}

				report.SessionID = summary.SessionID
				report.Frames = summary.Frames
				report.Decoded = summary.Decoded
				report.Gaps = summary.Gaps
				report.Failed = summary.Failed
				report.ElapsedMS = summary.Elapsed.Milliseconds()
				for asset, stats := range resolver.Stats() {
					report.Decoders = append(report.Decoders, decoderReport{
						Asset:      asset.String(),
						Served:     stats.Served,
						Failed:     stats.Failed,
						Abandoned:  stats.Abandoned,
						Terminated: stats.Terminated,
					})
				}
				sort.Slice(report.Decoders, func(i, j int) bool {
					return report.Decoders[i].Asset < report.Decoders[j].Asset
				})

				if asJSON {
					return writeJSON(cmd, report)
				}
				printRenderReport(cmd, report)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&trackIndex, "track", "t", 0, "Video track index")
	cmd.Flags().IntVarP(&frames, "frames", "f", 0, "Frames to render (defaults to playback.render_frames)")
	cmd.Flags().StringVar(&startFlag, "start", "0", "Timeline instant of the first frame")
	cmd.Flags().BoolVar(&realtime, "realtime", false, "Pace frames at playback.frame_rate")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every frame")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printRenderReport(cmd *cobra.Command, report renderReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rendered %d frames of %s video track %d (session %s)\n",
		report.Frames, report.Project, report.Track, report.SessionID)
	fmt.Fprintf(out, "Decoded %d, gaps %d, failed %d in %dms\n",
		report.Decoded, report.Gaps, report.Failed, report.ElapsedMS)

	if len(report.Timeline) > 0 {
		rows := make([][]string, 0, len(report.Timeline))
		for _, f := range report.Timeline {
			status := f.Payload
			switch {
			case f.Error != "":
				status = "error: " + f.Error
			case f.Clip == "":
				status = "gap"
			}
			rows = append(rows, []string{strconv.Itoa(f.Index), formatMicros(f.Time), f.Clip, status})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Frame", "Time", "Clip", "Result"}, rows,
			[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft}))
	}

	if len(report.Decoders) == 0 {
		return
	}
	rows := make([][]string, 0, len(report.Decoders))
	for _, d := range report.Decoders {
		rows = append(rows, []string{
			d.Asset,
			strconv.FormatUint(d.Served, 10),
			strconv.FormatUint(d.Failed, 10),
			strconv.FormatUint(d.Abandoned, 10),
		})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Asset", "Served", "Failed", "Abandoned"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight}))
}
