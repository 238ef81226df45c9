package store

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// writeAtomic writes data to a uniquely named temp file beside target
// and renames it into place, spec.md §4.4/§7: "all writes go via a temp
// file + rename." Temp names use uuid (the teacher's core/storage.go
// dependency) rather than a hand-rolled random suffix.
func writeAtomic(target string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(target)
	tmp := filepath.Join(dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// newTempFile creates a uniquely named temp file in dir for a streaming
// writer (PackWriter) to append to before it is renamed into place.
func newTempFile(dir string) (*os.File, string, error) {
	tmp := filepath.Join(dir, ".tmp-"+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, "", err
	}
	return f, tmp, nil
}
