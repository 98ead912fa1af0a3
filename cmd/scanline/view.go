package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/taigrr/scanline/internal/config"
	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/scene"
)

const (
	torqueStrength = 3.0
	zoomStep       = 1.1
	reloadDelay    = 150 * time.Millisecond
)

func newViewCmd(opts *rootOptions) *cobra.Command {
	var (
		flags   config.Flags
		fps     int
		watch   bool
		logPath string
	)

	cmd := &cobra.Command{
		Use:   "view MODEL",
		Short: "View a glTF model in the terminal",
		Long: `View a glTF model in the terminal with half-block pixels.

Controls:
  W/S, up/down     pitch
  A/D, left/right  yaw
  space            random spin
  +/-              zoom
  r                reset
  q, esc           quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(flags)
			if err != nil {
				return err
			}
			bg, err := config.ParseColor(cfg.Background)
			if err != nil {
				return err
			}

			// The terminal belongs to the viewer, so logs go to a file or nowhere.
			if logPath != "" {
				f, err := os.Create(logPath)
				if err != nil {
					return fmt.Errorf("open log: %w", err)
				}
				defer f.Close()
				level := slog.LevelInfo
				if opts.verbose {
					level = slog.LevelDebug
				}
				logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
				slog.SetDefault(logger)
				render.SetLogger(logger)
			} else {
				slog.SetDefault(slog.New(slog.DiscardHandler))
				render.SetLogger(nil)
			}

			if fps <= 0 {
				fps = 30
			}
			v := &viewer{path: args[0], cfg: cfg, bg: bg, fps: fps, zoom: 1}
			return v.run(cmd.Context(), watch)
		},
	}

	f := cmd.Flags()
	f.IntVar(&fps, "fps", 30, "animation rate")
	f.BoolVar(&watch, "watch", false, "reload the model or its textures when their files change")
	f.StringVar(&logPath, "log", "", "write logs to this file")
	f.StringVar(&flags.Background, "bg", "", "background colour as R,G,B or #RRGGBB")
	f.Float64Var(&flags.Yaw, "yaw", 0, "camera yaw around the model in degrees")
	f.Float64Var(&flags.Pitch, "pitch", 0, "camera pitch above the model in degrees")
	f.StringVar(&flags.TextureDir, "texture-dir", "", "extra directory searched for textures by file name")
	f.BoolVar(&flags.NoCull, "no-cull", false, "draw back-facing faces")
	f.BoolVar(&flags.Flat, "flat", false, "use face normals instead of smoothed vertex normals")
	return cmd
}

// viewer owns the interactive session. The event loop mutates it; the
// render worker reads the camera and frame size through renderFrame.
type viewer struct {
	path string
	cfg  config.Config
	bg   color.RGBA
	fps  int

	spin  *spin
	stage *stage // replaced only while no worker runs

	mu            sync.Mutex
	cam           scene.Camera
	width, height int
	zoom          float64
}

func (v *viewer) renderFrame(ctx context.Context, r *render.ImageRenderer, dst *render.Framebuffer) (*render.Framebuffer, error) {
	v.mu.Lock()
	cam := v.cam
	w, h := v.width, v.height
	v.mu.Unlock()
	return r.RenderScene(ctx, dst, w, h, v.bg, &cam, v.stage.scene)
}

// resize fits the frame to a terminal of cols×rows cells.
func (v *viewer) resize(cols, rows int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.width, v.height = render.TerminalFramebufferSize(cols, rows)
	v.stage.placeCamera(&v.cam, v.cfg, v.width, v.height, v.zoom)
}

func (v *viewer) setZoom(zoom float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoom = max(0.2, min(10, zoom))
	v.stage.placeCamera(&v.cam, v.cfg, v.width, v.height, v.zoom)
}

func (v *viewer) applySpin() {
	v.stage.spin(v.spin.Pitch.Angle, v.spin.Yaw.Angle, v.spin.Roll.Angle)
}

func (v *viewer) run(ctx context.Context, watch bool) error {
	model, err := loadModel(v.path, v.cfg)
	if err != nil {
		return err
	}
	v.stage = newStage(model, v.cfg)
	v.spin = newSpin(v.fps)

	var (
		fileEvents <-chan fsnotify.Event
		fileErrors <-chan error
	)
	if watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		defer watcher.Close()
		// Editors often replace files, so watch directories.
		dirs := []string{filepath.Dir(v.path)}
		if v.cfg.TextureDir != "" && filepath.Clean(v.cfg.TextureDir) != dirs[0] {
			dirs = append(dirs, v.cfg.TextureDir)
		}
		for _, dir := range dirs {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
		}
		fileEvents, fileErrors = watcher.Events, watcher.Errors
	}

	term := uv.DefaultTerminal()
	cols, rows, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(cols, rows)
	defer func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()
	v.resize(cols, rows)

	frames := make(chan struct{}, 1)
	notify := func() {
		select {
		case frames <- struct{}{}:
		default:
		}
	}
	renderer := v.stage.newRenderer(v.cfg)
	worker := render.NewWorker(ctx, renderer, v.renderFrame, notify)
	defer func() { worker.Close() }()
	worker.RequestUpdate()

	reload := func() {
		model, err := loadModel(v.path, v.cfg)
		if err != nil {
			slog.Warn("reload failed", "path", v.path, "err", err)
			return
		}
		worker.Close()
		v.stage = newStage(model, v.cfg)
		v.applySpin()
		v.resize(cols, rows)
		renderer = v.stage.newRenderer(v.cfg)
		worker = render.NewWorker(ctx, renderer, v.renderFrame, notify)
		worker.RequestUpdate()
		slog.Info("model reloaded", "path", v.path, "faces", model.FaceCount())
	}

	ticker := time.NewTicker(time.Second / time.Duration(v.fps))
	defer ticker.Stop()
	dt := 1 / float64(v.fps)

	var (
		torque      struct{ pitch, yaw float64 }
		settled     <-chan time.Time
		modelDirty  bool
		changedSrcs []string
	)
	events := term.Events()
	target := filepath.Clean(v.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				cols, rows = ev.Width, ev.Height
				term.Erase()
				term.Resize(cols, rows)
				v.resize(cols, rows)
				worker.RequestUpdate()

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("q", "escape", "ctrl+c"):
					return nil
				case ev.MatchString("w", "up"):
					torque.pitch = -torqueStrength
				case ev.MatchString("s", "down"):
					torque.pitch = torqueStrength
				case ev.MatchString("a", "left"):
					torque.yaw = -torqueStrength
				case ev.MatchString("d", "right"):
					torque.yaw = torqueStrength
				case ev.MatchString("space"):
					v.spin.impulse(
						(rand.Float64()-0.5)*1.5,
						(rand.Float64()-0.5)*1.5,
						(rand.Float64()-0.5)*1.5,
					)
				case ev.MatchString("+", "="):
					v.setZoom(v.zoom / zoomStep)
					worker.RequestUpdate()
				case ev.MatchString("-", "_"):
					v.setZoom(v.zoom * zoomStep)
					worker.RequestUpdate()
				case ev.MatchString("r"):
					v.spin.reset()
					torque.pitch, torque.yaw = 0, 0
					v.applySpin()
					v.setZoom(1)
					worker.RequestUpdate()
				}

			case uv.KeyReleaseEvent:
				switch {
				case ev.MatchString("w", "up", "s", "down"):
					torque.pitch = 0
				case ev.MatchString("a", "left", "d", "right"):
					torque.yaw = 0
				}
			}

		case <-frames:
			area := uv.Rectangle(image.Rect(0, 0, cols, rows))
			worker.View(func(fb *render.Framebuffer) {
				if fb != nil {
					fb.Draw(term, area)
				}
			})
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}

		case ev := <-fileEvents:
			if ev.Has(fsnotify.Write | fsnotify.Create) {
				if name := filepath.Clean(ev.Name); name == target {
					modelDirty = true
				} else {
					changedSrcs = append(changedSrcs, name)
				}
				// Writers often touch a file several times; act once it settles.
				settled = time.After(reloadDelay)
			}

		case err := <-fileErrors:
			slog.Warn("watch error", "err", err)

		case <-settled:
			settled = nil
			switch {
			case modelDirty:
				reload()
			case refreshTextures(renderer.Textures(), changedSrcs, v.cfg.TextureDir):
				worker.RequestUpdate()
				slog.Info("textures reloaded", "files", len(changedSrcs))
			}
			modelDirty = false
			changedSrcs = changedSrcs[:0]

		case <-ticker.C:
			// Key release events are unreliable in many terminals, so
			// held torque fades on its own.
			v.spin.impulse(torque.pitch*dt, torque.yaw*dt, 0)
			torque.pitch *= 0.9
			torque.yaw *= 0.9

			if v.spin.moving() {
				v.spin.update()
				v.applySpin()
				worker.RequestUpdate()
			}
		}
	}
}
