package render

import (
	"context"
	"errors"
	"sync"
)

// RenderFunc draws one frame with r, reusing dst when possible. It is
// typically a closure over RenderScene that snapshots the camera.
type RenderFunc func(ctx context.Context, r *ImageRenderer, dst *Framebuffer) (*Framebuffer, error)

// Worker renders frames on a background goroutine. Each RequestUpdate
// abandons the frame in progress and starts a fresh one, so an interactive
// caller always converges on the latest state. Two frame buffers alternate:
// one holds the last completed frame while the other is drawn.
type Worker struct {
	renderer *ImageRenderer
	render   RenderFunc
	notify   func()

	requests chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}

	mu      sync.Mutex
	current *Framebuffer
	spare   *Framebuffer
}

// NewWorker starts a worker. notify, if non-nil, is called on the worker
// goroutine after each completed frame.
func NewWorker(ctx context.Context, r *ImageRenderer, render RenderFunc, notify func()) *Worker {
	ctx, cancel := context.WithCancel(ctx)
	w := &Worker{
		renderer: r,
		render:   render,
		notify:   notify,
		requests: make(chan struct{}, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.run(ctx)
	return w
}

// RequestUpdate asks for a new frame, abandoning the one in progress.
func (w *Worker) RequestUpdate() {
	// Abort before queueing so the request can't cancel its own frame.
	w.renderer.Abort()
	select {
	case w.requests <- struct{}{}:
	default:
	}
}

// View calls fn with the last completed frame, or nil before the first.
// The frame must not be retained after fn returns.
func (w *Worker) View(fn func(fb *Framebuffer)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w.current)
}

// Close stops the worker and waits for it to exit.
func (w *Worker) Close() {
	w.cancel()
	w.renderer.Abort()
	<-w.done
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.requests:
		}

		fb, err := w.render(ctx, w.renderer, w.spare)
		if err != nil {
			if fb != nil {
				w.spare = fb
			}
			if !errors.Is(err, ErrAborted) {
				Logger().Warn("render failed", "err", err)
			}
			continue
		}

		w.mu.Lock()
		w.spare, w.current = w.current, fb
		w.mu.Unlock()

		if w.notify != nil {
			w.notify()
		}
	}
}
