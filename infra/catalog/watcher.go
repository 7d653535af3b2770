package catalog

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	corecatalog "github.com/kilianp07/parkagent/core/catalog"
	"github.com/kilianp07/parkagent/infra/logger"
)

// Watcher reloads a catalog file into a MemoryRepository whenever it
// changes. A reload that fails keeps the previous providers.
type Watcher struct {
	path     string
	repo     *corecatalog.MemoryRepository
	debounce time.Duration
	log      logger.Logger
	watcher  *fsnotify.Watcher
	onReload func(count int, err error)
	done     chan struct{}
	stop     sync.Once
	wg       sync.WaitGroup
}

// NewWatcher loads path into repo and prepares to watch it. The parent
// directory is watched so editors that replace the file are handled.
func NewWatcher(path string, repo *corecatalog.MemoryRepository, debounce time.Duration, log logger.Logger) (*Watcher, error) {
	providers, err := Load(path)
	if err != nil {
		return nil, err
	}
	repo.Replace(providers)

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Watcher{
		path:     filepath.Clean(path),
		repo:     repo,
		debounce: debounce,
		log:      log,
		watcher:  fsWatcher,
		done:     make(chan struct{}),
	}, nil
}

// OnReload registers a callback invoked after each reload attempt. It must
// be set before Start.
func (w *Watcher) OnReload(fn func(count int, err error)) { w.onReload = fn }

// Start begins watching in a goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop terminates the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stop.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debugw("catalog change detected", map[string]any{"file": event.Name, "op": event.Op.String()})
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Errorf("catalog watcher error: %v", err)

		case <-timerC:
			timerC = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	providers, err := Load(w.path)
	if err != nil {
		w.log.Warnf("catalog reload failed, keeping %d providers: %v", w.repo.Len(), err)
	} else {
		w.repo.Replace(providers)
		w.log.Infow("catalog reloaded", map[string]any{"file": w.path, "providers": len(providers)})
	}
	if w.onReload != nil {
		w.onReload(len(providers), err)
	}
}
