package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yokitheyo/avatarservice/internal/avatar"
)

type cropOptions struct {
	in            string
	aspect        float64
	displayWidth  float64
	displayHeight float64
	dpr           float64
}

type cropReport struct {
	Format      string            `json:"format"`
	Natural     avatar.Size       `json:"natural"`
	Display     avatar.Size       `json:"display"`
	Crop        avatar.CropRegion `json:"crop"`
	CropPercent avatar.CropRegion `json:"crop_percent"`
	Aspect      float64           `json:"aspect"`
	Output      avatar.Size       `json:"output"`
}

func newCropCmd() *cobra.Command {
	opts := cropOptions{}
	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Print the initial crop region of an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrop(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.in, "in", "", "source image file")
	f.Float64Var(&opts.aspect, "aspect", 1, "crop aspect ratio (width/height)")
	f.Float64Var(&opts.displayWidth, "display-width", 0, "display width the crop is expressed in")
	f.Float64Var(&opts.displayHeight, "display-height", 0, "display height the crop is expressed in")
	f.Float64Var(&opts.dpr, "dpr", 1, "device pixel ratio used for the output size")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func runCrop(ctx context.Context, w io.Writer, opts cropOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	session, err := openSession(ctx, opts.in, avatar.Config{Aspect: opts.aspect}, avatar.Viewport{
		DisplayWidth:  opts.displayWidth,
		DisplayHeight: opts.displayHeight,
	})
	if err != nil {
		return err
	}
	defer session.Cancel()

	src := session.Source()
	crop, _ := session.Crop()
	outW, outH := avatar.OutputSize(crop, src, opts.dpr)

	report := cropReport{
		Format:      src.Format,
		Natural:     avatar.Size{Width: float64(src.NaturalWidth), Height: float64(src.NaturalHeight)},
		Display:     src.Display(),
		Crop:        crop,
		CropPercent: crop.ToPercent(src.Display()),
		Aspect:      crop.Aspect(),
		Output:      avatar.Size{Width: float64(outW), Height: float64(outH)},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func openSession(ctx context.Context, path string, cfg avatar.Config, vp avatar.Viewport) (*avatar.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	p, err := avatar.New(cfg)
	if err != nil {
		return nil, err
	}
	return p.Initialize(ctx, f, vp)
}
