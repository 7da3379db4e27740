package service

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/keepr/keepr/pkg/logger"
)

// PruneBackups deletes the oldest archives in dir matching pattern, keeping
// the newest keep files by modification time. Deletion is best-effort: a
// backup that just succeeded is not retroactively failed because an old copy
// could not be removed, so no error is returned.
func PruneBackups(dir, pattern string, keep int) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil || len(matches) <= keep {
		return
	}

	type candidate struct {
		path    string
		modTime int64
	}
	candidates := make([]candidate, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path: path, modTime: info.ModTime().UnixNano()})
	}

	// oldest first
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime < candidates[j].modTime
	})

	if len(candidates) <= keep {
		return
	}
	for _, c := range candidates[:len(candidates)-keep] {
		if err := os.Remove(c.path); err != nil {
			logger.Warn("Failed to remove old backup", map[string]interface{}{
				"path":  c.path,
				"error": err.Error(),
			})
		}
	}
}
