package cfgparser

import "os"

// LoadedFiles remembers every file path a CfgParser has pulled in
// (directly or via INCLUDE), along with the mtime observed when it
// was last read, so a caller can decide whether a reparse is needed
// without keeping its own bookkeeping.
type LoadedFiles struct {
	mtimes map[string]int64
	order  []string
}

// NewLoadedFiles returns an empty tracker.
func NewLoadedFiles() *LoadedFiles {
	return &LoadedFiles{mtimes: make(map[string]int64)}
}

// Track records path, capturing its current mtime if it can be
// stat'd. Paths are recorded in first-seen order and never
// duplicated.
func (l *LoadedFiles) Track(path string) {
	if path == "" {
		return
	}
	if _, seen := l.mtimes[path]; !seen {
		l.order = append(l.order, path)
	}
	var mtime int64
	if info, err := os.Stat(path); err == nil {
		mtime = info.ModTime().UnixNano()
	}
	l.mtimes[path] = mtime
}

// Paths returns every tracked path, in the order first encountered.
func (l *LoadedFiles) Paths() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// RequireReload reports whether any tracked file's mtime has changed
// since it was last recorded, which is the signal a watcher uses to
// decide a config tree needs reparsing.
func (l *LoadedFiles) RequireReload() bool {
	for _, path := range l.order {
		info, err := os.Stat(path)
		if err != nil {
			return true
		}
		if info.ModTime().UnixNano() != l.mtimes[path] {
			return true
		}
	}
	return false
}
