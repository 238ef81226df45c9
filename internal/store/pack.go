package store

import (
	"encoding/binary"
	"hash"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// IndexEntry is one (hash, offset) pair recorded while a pack is being
// built, spec.md §4.4 PackWriter.append.
type IndexEntry struct {
	Hash   Hash
	Offset uint64 // byte offset of the entry's length header within the pack file
}

// Index is the in-memory bookkeeping a PackWriter accumulates, handed
// to BuildPackIndex once the pack is finalized.
type Index struct {
	Entries []IndexEntry
}

// PackWriter is the streaming append-only pack builder of spec.md §4.4.
// Entries are [4-byte big-endian length][payload][zero-pad to 4-byte
// alignment]; the pack's identity hash is computed over the
// concatenation of raw payloads only — no lengths, no padding
// (spec.md §3 Pack File).
type PackWriter struct {
	dir    string
	file   *os.File
	tmp    string
	offset uint64
	hasher hash.Hash
	index  Index
	closed bool
}

// NewPackWriter opens a fresh temp file under the store's pack/
// directory ready to receive entries.
func (s *Store) NewPackWriter() (*PackWriter, error) {
	dir := filepath.Join(s.root, "pack")
	f, tmp, err := newTempFile(dir)
	if err != nil {
		return nil, err
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	return &PackWriter{dir: dir, file: f, tmp: tmp, hasher: h}, nil
}

func roundUp4(n int) int { return (n + 3) &^ 3 }

// Append writes one entry and records its (hash, offset) in the
// in-memory Index. hash is the caller-supplied content address of
// payload (spec.md treats the hashing of payload content as an opaque,
// externally supplied function — see spec.md §1).
func (w *PackWriter) Append(h Hash, payload []byte) error {
	entryOffset := w.offset

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.file.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.file.Write(payload); err != nil {
			return err
		}
	}
	padded := roundUp4(len(payload))
	if pad := padded - len(payload); pad > 0 {
		if _, err := w.file.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	if _, err := w.hasher.Write(payload); err != nil {
		return err
	}

	w.offset += uint64(4 + padded)
	w.index.Entries = append(w.index.Entries, IndexEntry{Hash: h, Offset: entryOffset})
	return nil
}

// Finalize computes the pack's identity hash, renames the temp file
// into pack/<hex(pack_hash)> and returns the hash plus the accumulated
// Index for BuildPackIndex to consume.
func (w *PackWriter) Finalize(s *Store) (Hash, Index, error) {
	if w.closed {
		return Hash{}, Index{}, os.ErrClosed
	}
	w.closed = true
	sum := w.hasher.Sum(nil)
	var packHash Hash
	copy(packHash[:], sum)

	if err := w.file.Close(); err != nil {
		return Hash{}, Index{}, err
	}
	target := s.packPath(packHash)
	if err := os.Rename(w.tmp, target); err != nil {
		return Hash{}, Index{}, err
	}
	return packHash, w.index, nil
}

// Abort discards the temp file without finalizing, used when a
// pack-blobs operation is interrupted.
func (w *PackWriter) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.file.Close()
	return os.Remove(w.tmp)
}
