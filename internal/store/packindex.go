package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"
)

// packIndexMagic identifies the on-disk pack index format. spec.md §9
// design note: adopt the later 256×u32 cumulative-fanout format
// (HEADER_SIZE = 8 + 1024); the older 256×u64 format is out of scope.
const packIndexMagic = "ADAPACK1"

const (
	fanoutEntries  = 256
	fanoutByteSize = 4
	hashByteSize   = 32
	offsetByteSize = 8
	headerSize     = len(packIndexMagic) + fanoutEntries*fanoutByteSize // 8 + 1024
)

// packIndex is the parsed, in-memory form of a pack index file —
// spec.md §4.4's "index builder" output, kept fully resident so lookups
// avoid re-parsing the file; the Store caches these behind an LRU
// (SPEC_FULL.md §4.4).
type packIndex struct {
	fanout  [fanoutEntries]uint32
	hashes  [][32]byte // lexicographically sorted
	offsets []uint64   // offsets[i] corresponds to hashes[i]
}

// BuildPackIndex sorts idx's entries by hash, computes the 256-entry
// cumulative fanout and serializes the result per spec.md §4.4/§3.
func BuildPackIndex(idx Index) []byte {
	entries := append([]IndexEntry(nil), idx.Entries...)
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Hash[:], entries[j].Hash[:]) < 0
	})

	var fanout [fanoutEntries]uint32
	for _, e := range entries {
		fanout[e.Hash[0]]++
	}
	for b := 1; b < fanoutEntries; b++ {
		fanout[b] += fanout[b-1]
	}

	buf := make([]byte, 0, headerSize+len(entries)*(hashByteSize+offsetByteSize))
	buf = append(buf, packIndexMagic...)
	for _, f := range fanout {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], f)
		buf = append(buf, b[:]...)
	}
	for _, e := range entries {
		buf = append(buf, e.Hash[:]...)
	}
	for _, e := range entries {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], e.Offset)
		buf = append(buf, b[:]...)
	}
	return buf
}

// WriteIndex builds and persists the index for a just-finalized pack.
func (s *Store) WriteIndex(packHash Hash, idx Index) error {
	data := BuildPackIndex(idx)
	if err := writeAtomic(s.indexPath(packHash), data, 0o644); err != nil {
		return err
	}
	parsed, err := parsePackIndex(data)
	if err != nil {
		return err
	}
	s.indexCache.Add(packHash, parsed)
	return nil
}

func parsePackIndex(data []byte) (*packIndex, error) {
	if len(data) < headerSize {
		return nil, errors.New("store: pack index truncated")
	}
	if string(data[:len(packIndexMagic)]) != packIndexMagic {
		return nil, fmt.Errorf("store: bad pack index magic %q", data[:len(packIndexMagic)])
	}
	var pi packIndex
	off := len(packIndexMagic)
	for b := 0; b < fanoutEntries; b++ {
		pi.fanout[b] = binary.BigEndian.Uint32(data[off : off+4])
		off += 4
	}
	n := int(pi.fanout[fanoutEntries-1])
	wantLen := headerSize + n*(hashByteSize+offsetByteSize)
	if len(data) < wantLen {
		return nil, errors.New("store: pack index truncated")
	}
	pi.hashes = make([][32]byte, n)
	for i := 0; i < n; i++ {
		copy(pi.hashes[i][:], data[off:off+hashByteSize])
		off += hashByteSize
	}
	pi.offsets = make([]uint64, n)
	for i := 0; i < n; i++ {
		pi.offsets[i] = binary.BigEndian.Uint64(data[off : off+offsetByteSize])
		off += offsetByteSize
	}
	return &pi, nil
}

// loadPackIndex returns the parsed index for packHash, consulting the
// LRU cache before reading index/<hex(pack_hash)> from disk.
func (s *Store) loadPackIndex(packHash Hash) (*packIndex, error) {
	if pi, ok := s.indexCache.Get(packHash); ok {
		return pi, nil
	}
	data, err := os.ReadFile(s.indexPath(packHash))
	if err != nil {
		return nil, err
	}
	pi, err := parsePackIndex(data)
	if err != nil {
		return nil, err
	}
	s.indexCache.Add(packHash, pi)
	return pi, nil
}

// find returns the absolute element index of hash within pi's sorted
// hash array, spec.md §4.4 `find`: bound the scan to the fanout bucket
// for hash's first byte, then binary-search (preferred over a linear
// scan since nb is small but not necessarily 1).
func (pi *packIndex) find(h Hash) (int, bool) {
	b := h[0]
	start := 0
	if b > 0 {
		start = int(pi.fanout[b-1])
	}
	end := int(pi.fanout[b])
	if end <= start {
		return 0, false
	}
	bucket := pi.hashes[start:end]
	i := sort.Search(len(bucket), func(i int) bool {
		return bytes.Compare(bucket[i][:], h[:]) >= 0
	})
	if i < len(bucket) && bucket[i] == h {
		return start + i, true
	}
	return 0, false
}

// offsetAt resolves the absolute pack-file offset for the element at
// index i, spec.md §4.4 `offset`.
func (pi *packIndex) offsetAt(i int) uint64 { return pi.offsets[i] }

// Find looks up hash in the pack identified by packHash and returns the
// element index `find(hash)` names in spec.md §8 scenario 5.
func (s *Store) Find(packHash Hash, h Hash) (int, bool, error) {
	pi, err := s.loadPackIndex(packHash)
	if err != nil {
		return 0, false, err
	}
	i, ok := pi.find(h)
	return i, ok, nil
}

// ReadPackedAt reads the pack entry living at element index i of
// packHash's index, returning its payload exactly as stored (spec.md
// §4.4 "Read block at offset").
func (s *Store) ReadPackedAt(packHash Hash, i int) ([]byte, error) {
	pi, err := s.loadPackIndex(packHash)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(pi.offsets) {
		return nil, fmt.Errorf("store: index offset %d out of range", i)
	}
	f, err := os.Open(s.packPath(packHash))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	offset := pi.offsetAt(i)
	var lenBuf [4]byte
	if _, err := f.ReadAt(lenBuf[:], int64(offset)); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	payload := make([]byte, length)
	if length > 0 {
		if _, err := f.ReadAt(payload, int64(offset)+4); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// ReadPacked finds hash in packHash and returns its payload, or
// NotFoundError if absent.
func (s *Store) ReadPacked(packHash, h Hash) ([]byte, error) {
	i, ok, err := s.Find(packHash, h)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("packed blob", h)
	}
	return s.ReadPackedAt(packHash, i)
}
