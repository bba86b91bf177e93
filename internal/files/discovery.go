package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindFilesByPattern finds regular files in dir matching a glob pattern,
// sorted by name. Office lock files (~$*) are skipped.
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	if info, err := os.Stat(fullPath); err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", fullPath)
	}

	matches, err := filepath.Glob(filepath.Join(fullPath, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		name := filepath.Base(match)
		if strings.HasPrefix(name, "~$") {
			continue
		}

		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}

		files = append(files, FileInfo{
			Path:    match,
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// Paths returns the path of every file in order
func Paths(files []FileInfo) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}
