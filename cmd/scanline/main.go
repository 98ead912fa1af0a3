// scanline - software scanline renderer for glTF models
//
// Render a model to an image, or view it in the terminal with half-block
// pixels.
//
// Usage:
//
//	scanline render model.glb -o out.png
//	scanline view model.glb --watch
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/taigrr/scanline/internal/config"
	"github.com/taigrr/scanline/pkg/render"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// config loads the config file, when one is given, and applies flags.
func (o *rootOptions) config(flags config.Flags) (config.Config, error) {
	var cfg config.Config
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}
	cfg.Resolve(flags)
	return cfg, nil
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	render.SetLogger(logger)
}

func main() {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "scanline",
		Short: "Software scanline renderer for glTF models",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(opts.verbose)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "JSON config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output")
	root.AddCommand(newRenderCmd(opts), newViewCmd(opts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, root); err != nil {
		os.Exit(1)
	}
}
