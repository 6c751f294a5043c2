// Package watcher provides real-time file system watching with per-path
// debouncing.
//
// FSWatcher wraps fsnotify, recursively registering every directory under a
// collection's folder path. Create and modify events are coalesced per path:
// each event refreshes a last-event-time map, and a dispatch only fires once
// a quiet period (DefaultDebounceWindow) has elapsed with no further events
// on that path. Remove events skip debouncing and dispatch immediately.
//
// Usage:
//
//	w, err := watcher.NewFSWatcher([]string{"/path/to/collection"})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	w.Start(ctx)
//	for event := range w.Events() {
//	    switch event.Operation {
//	    case watcher.OpCreate, watcher.OpModify:
//	        // re-index event.Path
//	    case watcher.OpRemove:
//	        // drop event.Path from the index
//	    }
//	}
package watcher
