// Package worker serializes frame requests onto a single render
// goroutine. GL contexts are bound to one OS thread, and the processor
// is not safe for concurrent use, so the worker is the one place
// frames from any number of producers funnel through.
package worker

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/clipforge/framefx/effects"
)

// FrameProcessor applies a filter chain to one frame. Both the
// GPU-backed and the CPU fallback processor satisfy it.
type FrameProcessor interface {
	Process(pixels []byte, width, height int, params *effects.Params) ([]byte, error)
}

// Transitioner blends two frames. The worker uses it when the wrapped
// processor supports transitions.
type Transitioner interface {
	Transition(a, b []byte, width, height int, kind effects.Effect, progress float32) ([]byte, error)
}

type result struct {
	pixels []byte
	err    error
}

type job struct {
	run func() ([]byte, error)
	out chan result
}

// Worker owns one FrameProcessor on a locked OS thread and executes
// submitted frame jobs in order. Safe for concurrent submission.
type Worker struct {
	proc FrameProcessor
	jobs chan job
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

// New starts the render goroutine. The processor must not be used
// outside the worker afterwards; init, if non-nil, runs first on the
// locked thread (context creation belongs there).
func New(proc FrameProcessor, init func() error) (*Worker, error) {
	w := &Worker{
		proc: proc,
		jobs: make(chan job),
		done: make(chan struct{}),
	}

	initErr := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if init != nil {
			if err := init(); err != nil {
				initErr <- err
				close(w.done)
				return
			}
		}
		initErr <- nil

		for j := range w.jobs {
			pixels, err := j.run()
			j.out <- result{pixels: pixels, err: err}
		}
		close(w.done)
	}()

	if err := <-initErr; err != nil {
		return nil, fmt.Errorf("worker init failed: %w", err)
	}
	return w, nil
}

func (w *Worker) submit(run func() ([]byte, error)) ([]byte, error) {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return nil, fmt.Errorf("worker is closed")
	}
	j := job{run: run, out: make(chan result, 1)}
	w.jobs <- j
	w.mu.RUnlock()
	r := <-j.out
	return r.pixels, r.err
}

// Process runs the filter chain on the render thread and returns the
// transformed frame.
func (w *Worker) Process(pixels []byte, width, height int, params *effects.Params) ([]byte, error) {
	return w.submit(func() ([]byte, error) {
		return w.proc.Process(pixels, width, height, params)
	})
}

// Transition blends two frames on the render thread. Fails if the
// wrapped processor has no transition support.
func (w *Worker) Transition(a, b []byte, width, height int, kind effects.Effect, progress float32) ([]byte, error) {
	tr, ok := w.proc.(Transitioner)
	if !ok {
		return nil, fmt.Errorf("processor does not support transitions")
	}
	return w.submit(func() ([]byte, error) {
		return tr.Transition(a, b, width, height, kind, progress)
	})
}

// Do runs fn on the render thread and waits for it. Hosts use it for
// work that must share the processor's thread, resource teardown in
// particular.
func (w *Worker) Do(fn func() error) error {
	_, err := w.submit(func() ([]byte, error) {
		return nil, fn()
	})
	return err
}

// Close stops the render goroutine after draining in-flight jobs.
// Later submissions fail; Close is idempotent and blocks until the
// goroutine exits.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()
	<-w.done
}
