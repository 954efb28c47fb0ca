package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// WriteOutput writes content to path through a temporary file in the same directory which is
// renamed over path, so a failure never leaves a partial file behind.
func WriteOutput(path string, content string) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, uuid.NewString()))
	f, err := os.Create(tmpPath)
	if err != nil {
		return makeError(OutputErrorKind, "", "couldn't open %s: %v", path, err)
	}
	_, err = f.WriteString(content)
	if err == nil {
		err = f.Sync()
	}
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		os.Remove(tmpPath)
		return makeError(OutputErrorKind, "", "couldn't write %s: %v", path, err)
	}
	return nil
}
