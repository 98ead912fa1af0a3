package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/taigrr/scanline/internal/config"
	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/scene"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var (
		flags config.Flags
		out   string
		scale int
	)

	cmd := &cobra.Command{
		Use:   "render MODEL",
		Short: "Render a glTF model to a PNG or WebP image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(flags)
			if err != nil {
				return err
			}
			bg, err := config.ParseColor(cfg.Background)
			if err != nil {
				return err
			}

			model, err := loadModel(args[0], cfg)
			if err != nil {
				return err
			}
			st := newStage(model, cfg)
			r := st.newRenderer(cfg)

			cam := scene.NewCamera()
			st.placeCamera(cam, cfg, cfg.Width, cfg.Height, 1)

			fb, err := r.RenderScene(cmd.Context(), nil, cfg.Width, cfg.Height, bg, cam, st.scene)
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			stats := r.Stats()
			slog.Debug("render stats",
				"objects", stats.ObjectsGathered,
				"objects_culled", stats.ObjectsCulled,
				"faces", stats.FacesProjected,
				"backfaced", stats.FacesBackfaced,
				"rejected", stats.FacesRejected,
				"pixels", stats.PixelsWritten)

			if err := render.Save(out, fb.Scaled(scale)); err != nil {
				return fmt.Errorf("save %s: %w", out, err)
			}
			slog.Info("image written", "path", out,
				"width", cfg.Width*max(1, scale), "height", cfg.Height*max(1, scale),
				"faces", stats.FacesRasterized)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&out, "output", "o", "out.png", "output image (.png or .webp)")
	f.IntVarP(&flags.Width, "width", "W", 0, "image width in pixels (default 640)")
	f.IntVarP(&flags.Height, "height", "H", 0, "image height in pixels (default 480)")
	f.StringVar(&flags.Background, "bg", "", "background colour as R,G,B or #RRGGBB")
	f.Float64Var(&flags.Yaw, "yaw", 0, "camera yaw around the model in degrees")
	f.Float64Var(&flags.Pitch, "pitch", 0, "camera pitch above the model in degrees")
	f.StringVar(&flags.TextureDir, "texture-dir", "", "extra directory searched for textures by file name")
	f.BoolVar(&flags.NoCull, "no-cull", false, "draw back-facing faces")
	f.BoolVar(&flags.Flat, "flat", false, "use face normals instead of smoothed vertex normals")
	f.IntVar(&scale, "scale", 1, "integer upscale factor for the written image")
	return cmd
}
