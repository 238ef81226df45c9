package store

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
)

// Leading flag byte on a persisted blob file, distinguishing a
// DEFLATE-compressed payload from a stored-as-is one so ReadBlob never
// has to guess from content alone.
const (
	blobFlagRaw        byte = 0x00
	blobFlagCompressed byte = 0x01
)

// WriteBlob writes a loose blob to blob/<hex(hash)>, DEFLATE-compressing
// it first unless compress is false, then atomically renaming it into
// place (spec.md §4.4). Writing two blobs with the same hash is
// idempotent-by-rename (spec.md §8): the second write simply replaces
// the first with byte-identical content.
func (s *Store) WriteBlob(h Hash, data []byte, compress bool) error {
	var buf bytes.Buffer
	if compress {
		buf.WriteByte(blobFlagCompressed)
		w, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
	} else {
		buf.WriteByte(blobFlagRaw)
		buf.Write(data)
	}
	return writeAtomic(s.blobPath(h), buf.Bytes(), 0o644)
}

// ReadBlob reads and, if compressed, inflates a loose blob.
func (s *Store) ReadBlob(h Hash) ([]byte, error) {
	raw, err := os.ReadFile(s.blobPath(h))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound("blob", h)
		}
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	flag, payload := raw[0], raw[1:]
	if flag == blobFlagRaw {
		return payload, nil
	}
	r := flate.NewReader(bytes.NewReader(payload))
	defer r.Close()
	return io.ReadAll(r)
}

// BlobExists reports whether a loose blob is present.
func (s *Store) BlobExists(h Hash) bool {
	_, err := os.Stat(s.blobPath(h))
	return err == nil
}

// RemoveBlob deletes a loose blob; removing an absent blob is a no-op.
func (s *Store) RemoveBlob(h Hash) error {
	err := os.Remove(s.blobPath(h))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
