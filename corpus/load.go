// Package corpus replays saved fuzz inputs through harnesses.
//
// Inputs are plain files. Replay runs every (input, harness) pair on a
// bounded worker pool, skips pairs whose clean outcome is already in the
// replay cache, and aggregates per-harness statistics that can be written
// to disk for the stats command.
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one corpus input.
type Entry struct {
	Path string
	Data []byte
}

// Load reads the files named by paths. Directories are walked recursively;
// hidden files and directories are skipped. Entries are sorted by path and
// each file appears once.
func Load(paths ...string) ([]Entry, error) {
	seen := map[string]bool{}
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("corpus: %w", err)
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("corpus: %w", err)
		}
	}
	sort.Strings(files)

	out := make([]Entry, 0, len(files))
	for _, p := range files {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("corpus: %w", err)
		}
		out = append(out, Entry{Path: p, Data: b})
	}
	return out, nil
}
