package store

import (
	"encoding/hex"
	"errors"
	"os"
)

// WriteTag writes a named pointer (HEAD, GENESIS, OLDEST_BLOCK, ...)
// hex-encoded, spec.md §4.4/§6. Unlike content-addressed writes, a tag
// write must overwrite existing content under the same name — spec.md
// §4.4 Atomicity: "same name, different content must overwrite by
// rename" — which os.Rename already does for us.
func (s *Store) WriteTag(name string, value []byte) error {
	encoded := []byte(hex.EncodeToString(value))
	return writeAtomic(s.tagPath(name), encoded, 0o644)
}

// ReadTag reads a tag's value. Reads tolerate a raw-bytes fallback for
// forward compatibility (spec.md §4.4): if the stored content does not
// decode as hex, it is returned as-is.
func (s *Store) ReadTag(name string) ([]byte, error) {
	raw, err := os.ReadFile(s.tagPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{What: "tag " + name}
		}
		return nil, err
	}
	decoded, err := hex.DecodeString(string(raw))
	if err != nil {
		return raw, nil
	}
	return decoded, nil
}

// TagExists reports whether a named pointer is present.
func (s *Store) TagExists(name string) bool {
	_, err := os.Stat(s.tagPath(name))
	return err == nil
}

// Well-known tag names, spec.md §4.4.
const (
	TagHead        = "HEAD"
	TagGenesis     = "GENESIS"
	TagOldestBlock = "OLDEST_BLOCK"
)
