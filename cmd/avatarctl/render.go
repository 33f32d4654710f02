package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/avatar"
)

type renderOptions struct {
	in            string
	out           string
	unit          string
	x, y          float64
	width, height float64
	aspect        float64
	scale         float64
	rotate        float64
	dpr           float64
	quality       int
	displayWidth  float64
	displayHeight float64
	clamp         bool
}

func newRenderCmd() *cobra.Command {
	opts := renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render an avatar JPEG from an image and a crop",
		Long: `Renders the crop of the source image into a JPEG avatar.
Without --width and --height the initial centered crop is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.in, "in", "", "source image file")
	f.StringVar(&opts.out, "out", ".", "directory the avatar is written to")
	f.StringVar(&opts.unit, "unit", string(avatar.UnitPixel), "crop unit: px or %")
	f.Float64Var(&opts.x, "x", 0, "crop left edge")
	f.Float64Var(&opts.y, "y", 0, "crop top edge")
	f.Float64Var(&opts.width, "width", 0, "crop width")
	f.Float64Var(&opts.height, "height", 0, "crop height")
	f.Float64Var(&opts.aspect, "aspect", 1, "aspect ratio of the initial crop")
	f.Float64Var(&opts.scale, "scale", 1, "zoom factor around the image center")
	f.Float64Var(&opts.rotate, "rotate", 0, "rotation in degrees around the image center")
	f.Float64Var(&opts.dpr, "dpr", 1, "device pixel ratio")
	f.IntVar(&opts.quality, "quality", avatar.DefaultQuality, "JPEG quality 1-100")
	f.Float64Var(&opts.displayWidth, "display-width", 0, "display width the crop is expressed in")
	f.Float64Var(&opts.displayHeight, "display-height", 0, "display height the crop is expressed in")
	f.BoolVar(&opts.clamp, "clamp", false, "keep the crop above the minimum size and inside the image")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func runRender(ctx context.Context, w io.Writer, opts renderOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := avatar.Config{Aspect: opts.aspect, Quality: opts.quality, ClampCrop: opts.clamp}
	session, err := openSession(ctx, opts.in, cfg, avatar.Viewport{
		DisplayWidth:  opts.displayWidth,
		DisplayHeight: opts.displayHeight,
	})
	if err != nil {
		return err
	}
	defer session.Cancel()

	if opts.width > 0 || opts.height > 0 {
		region := avatar.CropRegion{
			Unit:   avatar.Unit(opts.unit),
			X:      opts.x,
			Y:      opts.y,
			Width:  opts.width,
			Height: opts.height,
		}
		if _, err := session.UpdateCrop(region); err != nil {
			return err
		}
	}
	if err := session.SetTransform(avatar.Transform{Scale: opts.scale, Rotation: opts.rotate}); err != nil {
		return err
	}

	artifact, err := session.Render(opts.dpr)
	if err != nil {
		return fmt.Errorf("render avatar: %w", err)
	}

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	target := filepath.Join(opts.out, artifact.Filename)
	if err := os.WriteFile(target, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("write avatar: %w", err)
	}

	zlog.Logger.Info().
		Str("path", target).
		Int("width", artifact.Width).
		Int("height", artifact.Height).
		Int("bytes", len(artifact.Data)).
		Msg("avatar written")

	_, err = fmt.Fprintln(w, target)
	return err
}
