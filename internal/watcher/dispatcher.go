// Package watcher turns file-creation events in the watch directory into
// serialized memo processing.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// AudioExtensions are the accepted memo file extensions, lower-case.
var AudioExtensions = []string{".m4a", ".mp3", ".wav"}

// Handler processes one memo file.
type Handler interface {
	Handle(ctx context.Context, path string) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, path string) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, path string) error { return f(ctx, path) }

// Stabilizer waits for a file to stop changing.
type Stabilizer interface {
	WaitForStable(ctx context.Context, path string) error
}

// Dispatcher watches one directory, non-recursively, and feeds accepted
// files to a single worker so that memos are processed one at a time in
// arrival order.
type Dispatcher struct {
	dir     string
	handler Handler
	stab    Stabilizer
	queue   chan string
	logger  *slog.Logger
	ready   chan struct{}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStabilizer makes the worker wait for each file to finish writing.
func WithStabilizer(s Stabilizer) Option {
	return func(d *Dispatcher) { d.stab = s }
}

// WithQueueSize sets how many accepted events may wait for the worker.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan string, n)
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates a Dispatcher for dir.
func New(dir string, handler Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		dir:     dir,
		handler: handler,
		queue:   make(chan string, 64),
		logger:  slog.Default(),
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Ready is closed once the directory subscription is active.
func (d *Dispatcher) Ready() <-chan struct{} { return d.ready }

// IsAudio reports whether name has an accepted extension, ignoring case.
func IsAudio(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AudioExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Accepts reports whether ev is a newly created audio file.
func (d *Dispatcher) Accepts(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) {
		return false
	}
	if !IsAudio(ev.Name) {
		return false
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		d.logger.Debug("watcher: stat failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
		return false
	}
	return !info.IsDir()
}

// Dispatch queues ev for processing if it is accepted. It blocks while the
// queue is full and reports whether the event was queued.
func (d *Dispatcher) Dispatch(ctx context.Context, ev fsnotify.Event) bool {
	if !d.Accepts(ev) {
		return false
	}
	select {
	case d.queue <- ev.Name:
		d.logger.Info("watcher: detected new voice memo", slog.String("path", ev.Name))
		return true
	case <-ctx.Done():
		return false
	}
}

// Run subscribes to d.dir and processes events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: create: %w", err)
	}
	defer w.Close()

	if err := w.Add(d.dir); err != nil {
		return fmt.Errorf("watcher: add %s: %w", d.dir, err)
	}
	close(d.ready)
	d.logger.Info("watcher: started", slog.String("dir", d.dir))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.work(gCtx)
		return nil
	})
	g.Go(func() error {
		return d.loop(gCtx, w)
	})
	err = g.Wait()
	d.logger.Info("watcher: stopped")
	return err
}

func (d *Dispatcher) loop(ctx context.Context, w *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			d.Dispatch(ctx, ev)
		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// work is the single consumer of the queue.
func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-d.queue:
			d.handle(ctx, path)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, path string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("watcher: panic processing memo",
				slog.String("path", path),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()
	if d.stab != nil {
		if err := d.stab.WaitForStable(ctx, path); err != nil {
			d.logger.Error("watcher: file did not stabilize",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return
		}
	}
	if err := d.handler.Handle(ctx, path); err != nil {
		d.logger.Error("watcher: error processing memo",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}
