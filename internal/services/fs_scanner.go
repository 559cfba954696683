package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"nmsweep/internal/domain"
	"nmsweep/internal/logging"
)

// FSScanner finds node_modules directories that are at least a given age.
type FSScanner struct {
	mu       sync.RWMutex
	progress chan<- ScanProgress
	now      func() time.Time
	readDir  func(string) ([]os.DirEntry, error)
}

func NewFSScanner() *FSScanner {
	return &FSScanner{now: time.Now, readDir: os.ReadDir}
}

// WithClock replaces the time source used to age matches.
func (scanner *FSScanner) WithClock(now func() time.Time) *FSScanner {
	scanner.now = now
	return scanner
}

// WithReadDir replaces the directory listing used by the walk.
func (scanner *FSScanner) WithReadDir(readDir func(string) ([]os.DirEntry, error)) *FSScanner {
	scanner.readDir = readDir
	return scanner
}

func (scanner *FSScanner) Observe(progress chan<- ScanProgress) {
	scanner.mu.Lock()
	defer scanner.mu.Unlock()
	scanner.progress = progress
}

// ScanAll scans each root in order, one at a time, and concatenates the
// per-root results.
func (scanner *FSScanner) ScanAll(ctx context.Context, req ScanRequest) ScanResult {
	start := time.Now()
	matches := domain.MatchList{}
	for _, root := range req.Roots {
		if ctx.Err() != nil {
			break
		}
		matches = append(matches, scanner.Scan(ctx, root, req.AgeMonths)...)
	}
	return ScanResult{Matches: matches, Duration: time.Since(start)}
}

// Scan walks root depth-first. Unreadable directories and entries are
// skipped, so Scan never fails; a cancelled scan returns what it found.
func (scanner *FSScanner) Scan(ctx context.Context, root string, ageMonths float64) []domain.Match {
	scanner.mu.RLock()
	progress := scanner.progress
	scanner.mu.RUnlock()

	walk := &treeWalk{
		ctx:       ctx,
		root:      cleanPath(root),
		ageMonths: ageMonths,
		now:       scanner.now,
		readDir:   scanner.readDir,
		progress:  progress,
	}
	logging.Debug("scan started", logging.String("root", walk.root))
	matches := walk.dir(walk.root)
	logging.Debug("scan finished",
		logging.String("root", walk.root),
		logging.Int64("visited", walk.visited),
		logging.Int("matches", len(matches)))
	return matches
}

type treeWalk struct {
	ctx       context.Context
	root      string
	ageMonths float64
	now       func() time.Time
	readDir   func(string) ([]os.DirEntry, error)
	progress  chan<- ScanProgress
	visited   int64
	found     int
}

// dir returns the matches beneath path. Each call owns its slice; the caller
// frame appends it to its own.
func (walk *treeWalk) dir(path string) []domain.Match {
	entries, err := walk.readDir(path)
	if err != nil {
		logging.Debug("skipping unreadable directory", logging.String("path", path), logging.Err(err))
		return nil
	}

	var matches []domain.Match
	for _, entry := range entries {
		if walk.ctx.Err() != nil {
			return matches
		}
		child := filepath.Join(path, entry.Name())
		// Info is an lstat, so symlinked directories are never followed.
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.IsDir() {
			continue
		}
		abs := cleanPath(child)
		if hasHiddenSegment(abs) {
			continue
		}

		walk.visited++
		if walk.visited%200 == 0 {
			progressNonBlocking(walk.progress, ScanProgress{Root: walk.root, Current: abs, Visited: walk.visited, Matches: walk.found})
		}

		if entry.Name() == domain.TargetDirName {
			modTime := info.ModTime()
			if Qualifies(walk.now().Sub(modTime), walk.ageMonths) {
				matches = append(matches, domain.Match{Path: abs, ModTime: modTime})
				walk.found++
				progressNonBlocking(walk.progress, ScanProgress{Root: walk.root, Current: abs, Visited: walk.visited, Matches: walk.found})
			}
			continue
		}
		matches = append(matches, walk.dir(child)...)
	}
	return matches
}

func progressNonBlocking(ch chan<- ScanProgress, msg ScanProgress) {
	select {
	case ch <- msg:
	default:
	}
}

func hasHiddenSegment(path string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if isHidden(segment) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, domain.HiddenPrefix) && name != "." && name != ".."
}

func cleanPath(path string) string {
	if path == "" {
		return path
	}
	clean := filepath.Clean(path)
	abs, err := filepath.Abs(clean)
	if err != nil {
		return clean
	}
	return abs
}

func isWithin(root, path string) bool {
	if root == path {
		return true
	}
	rootWithSep := root + string(filepath.Separator)
	return strings.HasPrefix(path, rootWithSep)
}
