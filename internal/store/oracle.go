package store

import (
	"os"
)

// Location is the sum type spec.md §3/§4.4 names: `Loose | Packed(pack_hash,
// index_offset) | None`.
type Location struct {
	Kind       LocationKind
	PackHash   Hash
	IndexOffset int
}

// LocationKind discriminates a Location's variant.
type LocationKind int

const (
	LocationNone LocationKind = iota
	LocationLoose
	LocationPacked
)

// ListPacks returns the hashes of every pack currently on disk, probed
// by filename (spec.md §6: "pack/<hex32>").
func (s *Store) ListPacks() ([]Hash, error) {
	entries, err := os.ReadDir(s.path("pack", ""))
	if err != nil {
		return nil, err
	}
	var packs []Hash
	for _, e := range entries {
		if e.IsDir() || len(e.Name()) != 64 {
			continue
		}
		h, err := parseHash(e.Name())
		if err != nil {
			continue
		}
		packs = append(packs, h)
	}
	return packs, nil
}

// Locate is the "Block location oracle" of spec.md §4.4: probe every
// known pack's fanout before falling back to a loose-blob existence
// check.
func (s *Store) Locate(h Hash) (Location, error) {
	packs, err := s.ListPacks()
	if err != nil {
		return Location{}, err
	}
	for _, packHash := range packs {
		i, ok, err := s.Find(packHash, h)
		if err != nil {
			return Location{}, err
		}
		if ok {
			return Location{Kind: LocationPacked, PackHash: packHash, IndexOffset: i}, nil
		}
	}
	if s.BlobExists(h) {
		return Location{Kind: LocationLoose}, nil
	}
	return Location{Kind: LocationNone}, nil
}

// Read resolves h via Locate and returns its payload regardless of
// whether it currently lives loose or packed.
func (s *Store) Read(h Hash) ([]byte, error) {
	loc, err := s.Locate(h)
	if err != nil {
		return nil, err
	}
	switch loc.Kind {
	case LocationLoose:
		return s.ReadBlob(h)
	case LocationPacked:
		return s.ReadPackedAt(loc.PackHash, loc.IndexOffset)
	default:
		return nil, notFound("block", h)
	}
}
