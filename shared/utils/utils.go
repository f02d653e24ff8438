package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

func HashContent(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// WorkspaceKey derives a stable identifier for a workspace path. The
// path is normalized first so that "./ws" and "ws/" map to the same key.
func WorkspaceKey(path string) string {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		abs = filepath.Clean(path)
	}
	return HashContent([]byte(abs))
}
