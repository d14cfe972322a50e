// Package watch re-parses KoiLang files whenever they change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	mdwerror "github.com/msto63/koi/foundation/core/error"
	mdwlog "github.com/msto63/koi/foundation/core/log"
	"github.com/msto63/koi/foundation/koi"
	"github.com/msto63/koi/foundation/koi/input"
	"github.com/msto63/koi/foundation/koi/parser"
)

// Handler receives the parse result of a changed file
type Handler func(path string, res koi.Result)

// ErrorHandler receives read and decode failures
type ErrorHandler func(path string, err error)

// Option configures a Watcher
type Option func(*Watcher)

// WithParserOptions sets the options used to parse changed files
func WithParserOptions(opts parser.Options) Option {
	return func(w *Watcher) { w.options = opts }
}

// WithEncoding sets the input encoding of the watched files
func WithEncoding(name string) Option {
	return func(w *Watcher) { w.encoding = name }
}

// WithInitialParse parses every file once when Run starts
func WithInitialParse() Option {
	return func(w *Watcher) { w.initial = true }
}

// WithErrorHandler sets a callback for files that could not be read
func WithErrorHandler(fn ErrorHandler) Option {
	return func(w *Watcher) { w.onError = fn }
}

// Watcher watches a set of files. Events are debounced per file: a file is
// parsed once it has been quiet for the debounce interval.
type Watcher struct {
	paths    map[string]bool
	dirs     []string
	debounce time.Duration
	handler  Handler
	onError  ErrorHandler
	options  parser.Options
	encoding string
	initial  bool
	logger   *mdwlog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer

	// pending counts timers that have not stopped or returned
	pending sync.WaitGroup
}

// New creates a watcher for paths. The directories containing them are
// watched, so files replaced by an editor's atomic save keep being seen.
func New(paths []string, debounce time.Duration, fn Handler, logger *mdwlog.Logger, opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, mdwerror.New("no files to watch").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("watch.New")
	}
	if fn == nil {
		return nil, mdwerror.New("watch handler is nil").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("watch.New")
	}
	if debounce < 0 {
		return nil, mdwerror.New("debounce must not be negative").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("watch.New").
			WithDetail("debounce", debounce.String())
	}
	if logger == nil {
		logger = mdwlog.GetDefault()
	}

	w := &Watcher{
		paths:    make(map[string]bool),
		debounce: debounce,
		handler:  fn,
		options:  parser.DefaultOptions(),
		encoding: "utf-8",
		logger:   logger.WithField("component", "koi-watch"),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.options.Validate(); err != nil {
		return nil, err
	}
	if !input.Valid(w.encoding) {
		return nil, mdwerror.New("unknown input encoding").
			WithCode(mdwerror.CodeEncoding).
			WithOperation("watch.New").
			WithDetail("encoding", w.encoding)
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, mdwerror.Wrap(err, "resolve watch path").
				WithCode(mdwerror.CodeIOError).
				WithDetail("path", p)
		}
		w.paths[abs] = true
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}

	return w, nil
}

// Run watches until ctx is done. Handlers are called from this goroutine,
// one file at a time.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return mdwerror.Wrap(err, "failed to create watcher").
			WithCode(mdwerror.CodeIOError).
			WithOperation("watch.Run")
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return mdwerror.Wrap(err, "failed to watch directory").
				WithCode(mdwerror.CodeIOError).
				WithOperation("watch.Run").
				WithDetail("dir", dir)
		}
	}
	w.logger.Info("watching files", mdwlog.Fields{"files": len(w.paths), "dirs": len(w.dirs)})

	if w.initial {
		for path := range w.paths {
			w.parse(path)
		}
	}

	fire := make(chan string)
	done := make(chan struct{})
	defer w.release(done)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping file watcher")
			return nil

		case path := <-fire:
			w.parse(path)

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.paths[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.schedule(event.Name, fire, done)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnWithErr("watcher error", err)
		}
	}
}

// schedule (re)starts the debounce timer of path. A fired timer hands path
// to fire, or gives up once done is closed.
func (w *Watcher) schedule(path string, fire chan<- string, done <-chan struct{}) {
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok && t.Stop() {
		w.pending.Done()
	}
	w.pending.Add(1)
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		defer w.pending.Done()
		select {
		case fire <- path:
		case <-done:
		}
	})
}

// release stops pending timers, unblocks fired ones and waits for them
func (w *Watcher) release(done chan struct{}) {
	w.stopTimers()
	close(done)
	w.pending.Wait()
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.timers {
		if t.Stop() {
			w.pending.Done()
		}
		delete(w.timers, path)
	}
}

func (w *Watcher) parse(path string) {
	text, err := input.ReadFile(path, w.encoding)
	if err != nil {
		w.logger.WarnWithErr("failed to read watched file", err, mdwlog.Field("file", path))
		if w.onError != nil {
			w.onError(path, err)
		}
		return
	}

	res, err := koi.Collect(text, koi.WithOptions(w.options))
	if err != nil {
		// options were validated in New
		w.logger.ErrorWithErr("failed to parse watched file", err, mdwlog.Field("file", path))
		return
	}

	w.logger.Info("file parsed", mdwlog.Fields{
		"file":     filepath.Base(path),
		"commands": len(res.Commands),
		"errors":   len(res.Errors),
	})
	w.handler(path, res)
}

// Paths returns the absolute paths being watched
func (w *Watcher) Paths() []string {
	paths := make([]string, 0, len(w.paths))
	for p := range w.paths {
		paths = append(paths, p)
	}
	return paths
}

// String implements fmt.Stringer
func (w *Watcher) String() string {
	return fmt.Sprintf("watch(%d files, debounce %s)", len(w.paths), w.debounce)
}
