// Package watch reports changes to client, commission and image files under
// the data root as they happen on disk.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/Drakz0n/CommFlow/internal/storage"
)

// Op is the kind of change observed.
type Op int

const (
	OpCreate Op = iota
	OpModify
	OpDelete
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Kind says which record type a changed file holds.
type Kind int

const (
	KindClient Kind = iota
	KindCommission
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindCommission:
		return "commission"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Event is one change to a file the data layout knows about.
type Event struct {
	Path string
	Kind Kind
	Op   Op
}

// Watcher follows clients/, pendings/ and history/ plus every client folder
// beneath them. Folders created while running are picked up automatically.
type Watcher struct {
	store   *storage.FileStore
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// New creates a Watcher over the store's data root. Call Start to begin.
func New(store *storage.FileStore, logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		store:   store,
		logger:  logger,
		watcher: w,
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start creates the data layout if needed and registers every existing
// folder with fsnotify. When Start fails the underlying fsnotify watcher is
// closed and the Watcher cannot be restarted.
func (w *Watcher) Start() (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("watcher already running")
	}
	defer func() {
		if err != nil {
			w.watcher.Close()
		}
	}()
	if err := w.store.EnsureLayout(); err != nil {
		return err
	}
	if err := w.add(w.store.Path(storage.ClientsDir)); err != nil {
		return err
	}
	for _, root := range []string{storage.PendingsDir, storage.HistoryDir} {
		if err := w.addTree(w.store.Path(root)); err != nil {
			return err
		}
	}
	w.running = true
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop closes the watcher and both channels. It blocks until the event loop
// has exited.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	if err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}
	return nil
}

// Events is closed by Stop.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors is closed by Stop.
func (w *Watcher) Errors() <-chan error { return w.errors }

func (w *Watcher) add(dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

// addTree watches a status root and every client folder beneath it.
func (w *Watcher) addTree(dir string) error {
	if err := w.add(dir); err != nil {
		return err
	}
	clients, err := w.store.ListDirs(dir)
	if err != nil {
		return err
	}
	for _, client := range clients {
		if err := w.addClient(client); err != nil {
			return err
		}
	}
	return nil
}

// addClient watches a client folder and its images folder when present.
func (w *Watcher) addClient(dir string) error {
	if err := w.add(dir); err != nil {
		return err
	}
	images := filepath.Join(dir, storage.ImagesDir)
	if info, err := os.Stat(images); err == nil && info.IsDir() {
		return w.add(images)
	}
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.trackNewDir(event) {
				continue
			}
			ev, ok := w.convert(event)
			if !ok {
				continue
			}
			select {
			case w.events <- ev:
			case <-w.done:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// trackNewDir adds freshly created client or images folders to the watch
// set. It reports whether the event was a directory creation.
func (w *Watcher) trackNewDir(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return false
	}
	parts := w.split(event.Name)
	switch {
	case len(parts) == 2 && isStatusRoot(parts[0]):
		err = w.addClient(event.Name)
	case len(parts) == 3 && parts[0] == storage.PendingsDir && parts[2] == storage.ImagesDir:
		err = w.add(event.Name)
	default:
		return true
	}
	if err != nil {
		w.logger.Warn("cannot watch new folder", "path", event.Name, "error", err)
	} else {
		w.logger.Debug("watching new folder", "path", event.Name)
	}
	return true
}

// convert maps an fsnotify event to an Event, dropping anything outside the
// known layout.
func (w *Watcher) convert(event fsnotify.Event) (Event, bool) {
	kind, ok := classify(w.split(event.Name))
	if !ok {
		return Event{}, false
	}
	var op Op
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// A rename surfaces as a delete here and a create under the new name.
		op = OpDelete
	default:
		return Event{}, false
	}
	return Event{Path: event.Name, Kind: kind, Op: op}, true
}

func (w *Watcher) split(path string) []string {
	rel, err := filepath.Rel(w.store.Root(), path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}
	return strings.Split(filepath.ToSlash(rel), "/")
}

func classify(parts []string) (Kind, bool) {
	switch {
	case len(parts) == 2 && parts[0] == storage.ClientsDir && isJSON(parts[1]):
		return KindClient, true
	case len(parts) == 3 && isStatusRoot(parts[0]) && isJSON(parts[2]):
		return KindCommission, true
	case len(parts) == 4 && parts[0] == storage.PendingsDir && parts[2] == storage.ImagesDir:
		return KindImage, true
	default:
		return 0, false
	}
}

func isStatusRoot(name string) bool {
	return name == storage.PendingsDir || name == storage.HistoryDir
}

func isJSON(name string) bool {
	return strings.HasSuffix(name, ".json")
}
