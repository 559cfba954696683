package services

import (
	"io/fs"
	"os"
	"path/filepath"
)

// SizeOf sums the sizes of regular files under path. Symlinks are not
// followed and entries that cannot be read count as zero.
func SizeOf(path string) int64 {
	info, err := os.Lstat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		if info.Mode().IsRegular() {
			return info.Size()
		}
		return 0
	}

	var total int64
	_ = filepath.WalkDir(path, func(child string, entry fs.DirEntry, err error) error {
		if err != nil {
			if entry != nil && entry.IsDir() && child != path {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		fileInfo, err := entry.Info()
		if err == nil {
			total += fileInfo.Size()
		}
		return nil
	})
	return total
}

// TotalSize sums SizeOf over paths.
func TotalSize(paths []string) int64 {
	var total int64
	for _, path := range paths {
		total += SizeOf(path)
	}
	return total
}
