package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo describes a CSV file found in the input directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Scan returns the CSV files in the input directory. A missing
// directory or an empty one is not an error: the run is a no-op.
func Scan(inputDir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading input dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(inputDir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// Archive moves a processed source file into the archive directory.
// Called only after the batch has committed.
func Archive(archiveDir string, file FileInfo) error {
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}
	dst := filepath.Join(archiveDir, file.Name)
	if err := os.Rename(file.Path, dst); err != nil {
		return fmt.Errorf("archiving %s: %w", file.Name, err)
	}
	return nil
}
