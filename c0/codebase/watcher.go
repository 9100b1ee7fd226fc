package codebase

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileWatcher polls the root directory for changed C0 sources and feeds
// them to the codebase.
type FileWatcher struct {
	codebase     *Codebase
	stopCh       chan struct{}
	pollInterval time.Duration
	modTimes     map[string]time.Time
	// onChange is called with the files whose analysis was dropped.
	onChange func(paths []string)
}

func NewFileWatcher(c *Codebase, onChange func(paths []string)) *FileWatcher {
	return &FileWatcher{
		codebase:     c,
		stopCh:       make(chan struct{}),
		pollInterval: 1 * time.Second,
		modTimes:     make(map[string]time.Time),
		onChange:     onChange,
	}
}

func (w *FileWatcher) Start() {
	go w.run()
}

func (w *FileWatcher) Stop() {
	close(w.stopCh)
}

func (w *FileWatcher) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// The first scan only records modification times.
	w.scan(false)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.scan(true)
		}
	}
}

func (w *FileWatcher) scan(notify bool) {
	currentFiles := make(map[string]bool)
	var changed []string

	filepath.Walk(w.codebase.RootDir(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != w.codebase.RootDir() && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsSource(path) {
			return nil
		}

		currentFiles[path] = true

		lastMod, known := w.modTimes[path]
		if !known || info.ModTime().After(lastMod) {
			w.modTimes[path] = info.ModTime()
			if known || notify {
				log().Debugf("changed on disk: %s", path)
				w.codebase.ScanFile(path)
				changed = append(changed, path)
			}
		}
		return nil
	})

	for path := range w.modTimes {
		if !currentFiles[path] {
			delete(w.modTimes, path)
			changed = append(changed, w.codebase.Dependants(path)...)
			w.codebase.RemoveFile(path)
		}
	}

	if len(changed) > 0 && w.onChange != nil {
		var affected []string
		seen := make(map[string]bool)
		for _, p := range changed {
			for _, q := range append([]string{p}, w.codebase.Dependants(p)...) {
				if !seen[q] {
					seen[q] = true
					affected = append(affected, q)
				}
			}
		}
		w.onChange(affected)
	}
}
