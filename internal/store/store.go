// Package store implements the content-addressed archive blocks are
// retrieved into: loose blob writes, append-only packs with a sorted
// fanout index, and a block-location oracle (spec.md §4.4).
package store

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/nttrelay/ntt/pkg/metrics"
)

// Hash is the 32-byte content address used throughout the store,
// spec.md §3 HeaderHash — named generically here since the store
// addresses any opaque payload, not only block headers.
type Hash [32]byte

// String renders the hash as lowercase hex, the canonical on-disk name
// (spec.md §6: "blob/<hex32>").
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

func parseHash(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, err
	}
	if len(b) != 32 {
		return Hash{}, fmt.Errorf("store: hash %q is not 32 bytes", s)
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// Store is the on-disk content-addressed archive rooted at
// <root_path>/<network_name>, spec.md §4.4/§6.
type Store struct {
	root string
	log  logrus.FieldLogger

	indexCache *lru.Cache[Hash, *packIndex]

	metrics *metrics.Metrics
}

// SetMetrics attaches an optional prometheus instrument set; pass nil to
// disable (the default). SPEC_FULL.md §6.
func (s *Store) SetMetrics(m *metrics.Metrics) { s.metrics = m }

const defaultIndexCacheSize = 64

// Config is the external configuration surface spec.md §6 names for the
// store: `{root_path, network_name}` (relay_host_port and
// protocol_magic belong to the transport/session, not the store).
type Config struct {
	RootPath    string
	NetworkName string
}

// Open roots a Store at root_path/network_name, creating the blob/,
// pack/, index/ and tag/ subdirectories if absent.
func Open(cfg Config, log logrus.FieldLogger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	root := filepath.Join(cfg.RootPath, cfg.NetworkName)
	for _, sub := range []string{"blob", "pack", "index", "tag"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("store: create %s: %w", sub, err)
		}
	}
	cache, err := lru.New[Hash, *packIndex](defaultIndexCacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{root: root, log: log, indexCache: cache}, nil
}

func (s *Store) path(sub, name string) string { return filepath.Join(s.root, sub, name) }

func (s *Store) blobPath(h Hash) string  { return s.path("blob", h.String()) }
func (s *Store) packPath(h Hash) string  { return s.path("pack", h.String()) }
func (s *Store) indexPath(h Hash) string { return s.path("index", h.String()) }
func (s *Store) tagPath(name string) string {
	return s.path("tag", name)
}
