package file

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/pkg/errors"
)

// Watcher reports external edits to the profile store directory so cached
// profiles can be invalidated.  Users do hand-edit profile files; without
// invalidation a cached stale copy would silently win over their edit.
type Watcher struct {
	fsw      *fsnotify.Watcher
	logger   logging.Logger
	onChange func(profileName string)
	done     chan struct{}
}

// NewWatcher starts watching the store's directory tree.  onChange is
// called with the profile name owning the changed file; calls arrive on the
// watcher's own goroutine.
func NewWatcher(store *Store, logger logging.Logger, onChange func(profileName string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Internal("cannot create filesystem watcher").WithCause(err)
	}
	if err := fsw.Add(store.Dir()); err != nil {
		fsw.Close()
		return nil, errors.New(errors.ErrCodeStorageError, "cannot watch profile directory").
			WithDetail(store.Dir()).WithCause(err)
	}

	w := &Watcher{
		fsw:      fsw,
		logger:   logger.Named("profile-watcher"),
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.run(store.Dir())
	return w, nil
}

func (w *Watcher) run(baseDir string) {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(baseDir, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watcher error", logging.Err(err))
		}
	}
}

func (w *Watcher) handle(baseDir string, ev fsnotify.Event) {
	// New per-profile subdirectories must be watched as they appear.
	if ev.Op.Has(fsnotify.Create) {
		if filepath.Dir(ev.Name) == baseDir && filepath.Ext(ev.Name) == "" {
			if err := w.fsw.Add(ev.Name); err != nil {
				w.logger.Warn("cannot watch new profile directory",
					logging.String("dir", ev.Name), logging.Err(err))
			}
			return
		}
	}
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return
	}

	name := profileNameFromPath(baseDir, ev.Name)
	if name == "" || strings.HasPrefix(filepath.Base(ev.Name), ".") {
		// Temp files from our own atomic writes are dot-prefixed; their
		// rename target triggers a separate event.
		return
	}
	w.logger.Debug("profile store changed externally",
		logging.String("profile", name), logging.String("op", ev.Op.String()))
	if w.onChange != nil {
		w.onChange(name)
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func profileNameFromPath(baseDir, path string) string {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}
