package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"nmsweep/internal/domain"
	"nmsweep/internal/logging"
)

// FSActions removes directory trees and accounts for the space they held.
type FSActions struct {
	mu       sync.RWMutex
	progress chan<- DeleteProgress
	sizeOf   func(string) int64
	remove   func(string) error
}

func NewFSActions() *FSActions {
	return &FSActions{
		sizeOf: SizeOf,
		remove: os.RemoveAll,
	}
}

// WithRemover replaces the function used to remove a tree.
func (actions *FSActions) WithRemover(remove func(string) error) *FSActions {
	actions.remove = remove
	return actions
}

func (actions *FSActions) Observe(progress chan<- DeleteProgress) {
	actions.mu.Lock()
	defer actions.mu.Unlock()
	actions.progress = progress
}

// Delete sizes then removes each path in order. A path that cannot be
// removed is recorded in Failed and does not stop the rest; only removed
// paths add to BytesReclaimed.
func (actions *FSActions) Delete(ctx context.Context, req DeleteRequest) DeleteResult {
	start := time.Now()
	actions.mu.RLock()
	progress := actions.progress
	actions.mu.RUnlock()

	paths := normalizePaths(req.Paths)
	result := DeleteResult{Deleted: []string{}, Failed: []string{}}
	for index, path := range paths {
		if ctx.Err() != nil {
			break
		}
		update := DeleteProgress{Path: path, Processed: index + 1, Total: len(paths)}

		if err := validatePath(path, req.SafeMode); err != nil {
			result.fail(path, err)
			update.ErrMessage = err.Error()
			actionProgressNonBlocking(progress, update)
			continue
		}

		size := actions.sizeOf(path)
		if err := actions.remove(path); err != nil {
			result.fail(path, err)
			update.ErrMessage = err.Error()
			actionProgressNonBlocking(progress, update)
			continue
		}
		result.BytesReclaimed += size
		result.Deleted = append(result.Deleted, path)
		update.Bytes = size
		actionProgressNonBlocking(progress, update)
		logging.Debug("deleted", logging.String("path", path), logging.Int64("bytes", size))
	}
	result.Duration = time.Since(start)
	return result
}

func (result *DeleteResult) fail(path string, err error) {
	result.Failed = append(result.Failed, path)
	result.Errors = append(result.Errors, err.Error())
	logging.Debug("delete failed", logging.String("path", path), logging.Err(err))
}

func validatePath(path string, safeMode bool) error {
	if !safeMode {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("blocked relative path: %s", path)
	}
	if filepath.Base(path) != domain.TargetDirName {
		return fmt.Errorf("blocked non-%s path: %s", domain.TargetDirName, path)
	}
	if isCriticalPath(path) {
		return fmt.Errorf("blocked critical path: %s", path)
	}
	return nil
}

// normalizePaths cleans paths and drops empties and duplicates, keeping the
// first occurrence's position. Relative paths are kept relative so safe mode
// can refuse them.
func normalizePaths(paths []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		clean := filepath.Clean(path)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		result = append(result, clean)
	}
	return result
}

// isCriticalPath reports system locations whose node_modules belong to
// globally installed tooling, plus the filesystem root and home directory.
func isCriticalPath(path string) bool {
	path = filepath.Clean(path)
	if path == string(filepath.Separator) {
		return true
	}
	if home, err := os.UserHomeDir(); err == nil && path == filepath.Clean(home) {
		return true
	}
	for _, root := range []string{"/etc", "/usr", "/bin", "/sbin", "/lib", "/System"} {
		if isWithin(root, path) {
			return true
		}
	}
	return false
}

func actionProgressNonBlocking(ch chan<- DeleteProgress, msg DeleteProgress) {
	select {
	case ch <- msg:
	default:
	}
}
