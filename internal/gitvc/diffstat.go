package gitvc

import (
	"fmt"
	"strings"

	shared "rewind/shared/types"

	"github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// ParseStats extracts per-file addition/deletion counts from a unified
// diff as produced by the adapter.
func ParseStats(diffText string) (*shared.DiffStats, error) {
	if strings.TrimSpace(diffText) == "" {
		return &shared.DiffStats{}, nil
	}

	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(diffText)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	stats := &shared.DiffStats{FilesChanged: len(fileDiffs)}
	for _, fd := range fileDiffs {
		file := shared.FileDiffStat{
			Path:    diffPath(fd.NewName, fd.OrigName),
			Added:   fd.OrigName == devNull,
			Deleted: fd.NewName == devNull,
		}
		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				switch {
				case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
					file.Additions++
				case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
					file.Deletions++
				}
			}
		}
		stats.Additions += file.Additions
		stats.Deletions += file.Deletions
		stats.Files = append(stats.Files, file)
	}
	return stats, nil
}

func diffPath(newName, origName string) string {
	name := newName
	if name == devNull {
		name = origName
	}
	name = strings.TrimPrefix(name, "b/")
	return strings.TrimPrefix(name, "a/")
}
