package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"nle/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Inspect a media file and print the values add-clip needs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := probeAsset(cmd.Context(), ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, probeView{Asset: asset, AssetID: assetIDForFile(asset.Path).String()})
			}
			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Path", asset.Path},
				{"Asset id", assetIDForFile(asset.Path).String()},
				{"Format", asset.Format},
				{"Duration", formatMicros(asset.Duration)},
				{"Streams", fmt.Sprintf("%d video, %d audio", asset.VideoStreams, asset.AudioStreams)},
			}
			if asset.Width > 0 {
				rows = append(rows, []string{"Frame", fmt.Sprintf("%dx%d @ %s fps", asset.Width, asset.Height,
					strconv.FormatFloat(asset.FrameRate, 'f', -1, 64))})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

type probeView struct {
	ffprobe.Asset
	AssetID string `json:"asset_id"`
}

func probeAsset(runCtx context.Context, ctx *commandContext, path string) (ffprobe.Asset, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return ffprobe.Asset{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ffprobe.Asset{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	return ffprobe.Probe(runCtx, cfg.FFprobeBinary(), abs)
}

// assetIDForFile derives a stable asset id from an absolute file path so
// repeated placements of one file share a decoder.
func assetIDForFile(path string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(path)))
}
