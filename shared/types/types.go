// Core types shared between the engine, backends and the HTTP surface.
package shared

import (
	"time"
)

// NoChangesSentinel is returned on the wire when a checkpoint found the
// synchronized tree byte-identical to the last commit. It is a normal
// outcome, not an error.
const NoChangesSentinel = "no-changes"

// Commit is an immutable, content-addressed snapshot reference.
// Hash is backend-defined and opaque; callers must not assume a length.
type Commit struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckpointOutcome is the result of a checkpoint. Exactly one of Commit
// or NoChanges is meaningful.
type CheckpointOutcome struct {
	Commit    *Commit `json:"commit,omitempty"`
	NoChanges bool    `json:"no_changes"`
}

// BackendType identifies a concrete backend implementation.
type BackendType string

const (
	BackendReal BackendType = "real"
	BackendMock BackendType = "mock"
	// BackendAuto lets the selector probe the environment.
	BackendAuto BackendType = "auto"
)

// DiffStats summarizes a textual diff.
type DiffStats struct {
	FilesChanged int            `json:"files_changed"`
	Additions    int            `json:"additions"`
	Deletions    int            `json:"deletions"`
	Files        []FileDiffStat `json:"files,omitempty"`
}

// FileDiffStat is the per-file portion of DiffStats.
type FileDiffStat struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Added     bool   `json:"added"`
	Deleted   bool   `json:"deleted"`
}

// JournalEntry records one checkpoint or hook run in the process journal.
type JournalEntry struct {
	ID        string    `json:"id"`
	Workspace string    `json:"workspace"`
	Hash      string    `json:"hash,omitempty"`
	Message   string    `json:"message"`
	Label     string    `json:"label,omitempty"`
	NoChanges bool      `json:"no_changes"`
	DiffSize  int64     `json:"diff_size,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
