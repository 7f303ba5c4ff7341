package platform

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
)

// ChangeEvent is emitted when the loaded platform file changes on disk.
type ChangeEvent struct {
	// Platform is the name of the platform whose file changed.
	Platform string

	// Err is set if the watcher could not re-read the file; the previously
	// loaded configuration stays current in that case.
	Err error
}

// Watch observes the currently loaded platform file and emits an event each
// time it is rewritten. On every change the file is re-loaded so that
// Current reflects the new content. The channel is closed when ctx is
// cancelled. Watch fails if no platform has been loaded yet.
func (l *Loader) Watch(ctx context.Context) (<-chan ChangeEvent, error) {
	name, err := l.PlatformName()
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors and atomic-rename writers
	// replace the inode and a file watch would go stale.
	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Join(l.dir, name+".yaml")
	events := make(chan ChangeEvent, 1)

	go func() {
		defer close(events)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				_, loadErr := l.Load(name)
				if loadErr != nil {
					glog.Warningf("platform %q changed but reload failed: %v", name, loadErr)
				}
				select {
				case events <- ChangeEvent{Platform: name, Err: loadErr}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				glog.Warningf("platform config watcher: %v", err)
			}
		}
	}()

	return events, nil
}
