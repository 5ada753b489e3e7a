package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FormatOf returns the import format implied by a file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".jsonl", ".ndjson":
		return FormatJSONL, true
	}
	return "", false
}

// ScanDir walks dir and returns every importable file, sorted by path.
// A missing directory yields no files.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		if f, ok := FormatOf(dir); ok {
			return []DiscoveredFile{{Path: dir, Format: f}}, nil
		}
		return nil, nil
	}

	var files []DiscoveredFile
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if f, ok := FormatOf(path); ok {
			files = append(files, DiscoveredFile{Path: path, Format: f})
		}
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}
