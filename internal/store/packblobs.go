package store

import (
	"os"
)

// PackBlobsOptions configures the Pack-blobs operation, spec.md §4.4.
type PackBlobsOptions struct {
	LimitNbBlobs          *uint32
	LimitSize             *uint64 // soft cap on pack-file size, honored at entry boundaries
	DeleteBlobsAfterPack  bool
}

// PackBlobsResult reports what a Pack-blobs run actually did; a
// caller-visible accounting of anything the limits caused to be
// dropped for this pass (spec.md §9: "No silent caps").
type PackBlobsResult struct {
	PackHash Hash
	Packed   []Hash
	Skipped  int // loose blobs left unpacked because a limit was hit
}

// PackBlobs iterates loose blobs under blob/, appending each to a new
// pack until a configured limit is reached, then finalizes the pack and
// its index, optionally removing the source blobs, spec.md §4.4
// "Pack-blobs operation".
func (s *Store) PackBlobs(opts PackBlobsOptions) (PackBlobsResult, error) {
	blobDir := s.path("blob", "")
	entries, err := os.ReadDir(blobDir)
	if err != nil {
		return PackBlobsResult{}, err
	}

	w, err := s.NewPackWriter()
	if err != nil {
		return PackBlobsResult{}, err
	}

	var packed []Hash
	skipped := 0
	for _, e := range entries {
		if e.IsDir() || len(e.Name()) != 64 {
			continue
		}
		if opts.LimitNbBlobs != nil && uint32(len(packed)) >= *opts.LimitNbBlobs {
			skipped++
			continue
		}
		h, err := parseHash(e.Name())
		if err != nil {
			continue
		}
		data, err := s.ReadBlob(h)
		if err != nil {
			_ = w.Abort()
			return PackBlobsResult{}, err
		}
		entrySize := uint64(4 + roundUp4(len(data)))
		if opts.LimitSize != nil && w.offset+entrySize > *opts.LimitSize && len(packed) > 0 {
			skipped++
			continue
		}
		if err := w.Append(h, data); err != nil {
			_ = w.Abort()
			return PackBlobsResult{}, err
		}
		packed = append(packed, h)
	}

	if len(packed) == 0 {
		_ = w.Abort()
		return PackBlobsResult{Skipped: skipped}, nil
	}

	packHash, idx, err := w.Finalize(s)
	if err != nil {
		return PackBlobsResult{}, err
	}
	if err := s.WriteIndex(packHash, idx); err != nil {
		return PackBlobsResult{}, err
	}

	if opts.DeleteBlobsAfterPack {
		for _, h := range packed {
			if err := s.RemoveBlob(h); err != nil {
				return PackBlobsResult{}, err
			}
		}
	}

	s.metrics.AddBlobsPacked(len(packed))
	s.metrics.AddPackBytes(int(w.offset))

	return PackBlobsResult{PackHash: packHash, Packed: packed, Skipped: skipped}, nil
}
