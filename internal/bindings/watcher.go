package bindings

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/keyweave/keyweave/internal/registry"
)

// debounceWindow coalesces the burst of write events editors produce
// when saving a file.
const debounceWindow = 100 * time.Millisecond

// Watcher reloads a bindings file whenever it changes on disk, replacing
// the previous registrations through unregister+register.
type Watcher struct {
	mu sync.Mutex

	path    string
	reg     *registry.Registry
	resolve Resolver
	log     *logrus.Logger

	fsw     *fsnotify.Watcher
	ids     []registry.ID
	pending *time.Timer
	closeCh chan struct{}
	closed  bool
}

// NewWatcher starts watching path. ids are the registrations from the
// initial load; they are replaced on the first reload. log may be nil.
func NewWatcher(path string, reg *registry.Registry, resolve Resolver, ids []registry.ID, log *logrus.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors replace files on save
	// and a watch on the old inode goes stale.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	if log == nil {
		log = logrus.New()
	}

	w := &Watcher{
		path:    path,
		reg:     reg,
		resolve: resolve,
		log:     log,
		fsw:     fsw,
		ids:     ids,
		closeCh: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("bindings watcher error")
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(debounceWindow, w.reload)
}

// reload swaps the live registrations for the file's current contents.
// A file that fails to parse leaves the previous registrations in
// place; a file that parses but fails to apply leaves none (Apply rolls
// its partial work back).
func (w *Watcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	f, err := Load(w.path)
	if err != nil {
		w.log.WithError(err).WithField("path", w.path).Warn("bindings reload failed")
		return
	}

	for _, id := range w.ids {
		w.reg.Unregister(id)
	}

	ids, err := Apply(w.reg, f, w.resolve)
	if err != nil {
		w.log.WithError(err).WithField("path", w.path).Warn("bindings reload failed")
		w.ids = nil
		return
	}

	w.ids = ids
	w.log.WithFields(logrus.Fields{
		"path":     w.path,
		"bindings": len(ids),
	}).Info("bindings reloaded")

	for _, g := range w.reg.Conflicts() {
		w.log.WithField("key", g.Key).Warnf("%d handlers share one sequence", len(g.Handlers))
	}
}

// IDs returns the ids of the currently applied registrations.
func (w *Watcher) IDs() []registry.ID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]registry.ID(nil), w.ids...)
}

// Close stops watching. Registrations stay in place.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.pending != nil {
		w.pending.Stop()
	}
	w.mu.Unlock()

	close(w.closeCh)
	return w.fsw.Close()
}
