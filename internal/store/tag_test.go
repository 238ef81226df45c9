package store

import "testing"

func TestTagWriteReadRoundTrip(t *testing.T) {
	s, err := Open(Config{RootPath: t.TempDir(), NetworkName: "testnet"}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	h := hashOf(0x11)
	if err := s.WriteTag(TagHead, h[:]); err != nil {
		t.Fatalf("WriteTag: %v", err)
	}
	if !s.TagExists(TagHead) {
		t.Fatal("TagExists false after write")
	}
	got, err := s.ReadTag(TagHead)
	if err != nil {
		t.Fatalf("ReadTag: %v", err)
	}
	if string(got) != string(h[:]) {
		t.Fatalf("ReadTag: got %x want %x", got, h)
	}
}

// TestTagOverwrite is spec.md §4.4 Atomicity: "same name, different
// content must overwrite by rename."
func TestTagOverwrite(t *testing.T) {
	s, err := Open(Config{RootPath: t.TempDir(), NetworkName: "testnet"}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	h1, h2 := hashOf(0x01), hashOf(0x02)
	if err := s.WriteTag(TagGenesis, h1[:]); err != nil {
		t.Fatalf("WriteTag 1: %v", err)
	}
	if err := s.WriteTag(TagGenesis, h2[:]); err != nil {
		t.Fatalf("WriteTag 2: %v", err)
	}
	got, err := s.ReadTag(TagGenesis)
	if err != nil {
		t.Fatalf("ReadTag: %v", err)
	}
	if string(got) != string(h2[:]) {
		t.Fatalf("expected overwritten value, got %x want %x", got, h2)
	}
}

// TestTagReadToleratesRawFallback is spec.md §4.4: "reads tolerate
// raw-bytes fallback for forward compatibility."
func TestTagReadToleratesRawFallback(t *testing.T) {
	s, err := Open(Config{RootPath: t.TempDir(), NetworkName: "testnet"}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := writeAtomic(s.tagPath(TagOldestBlock), []byte{0x01, 0x02, 0x03}, 0o644); err != nil {
		t.Fatalf("writeAtomic: %v", err)
	}
	got, err := s.ReadTag(TagOldestBlock)
	if err != nil {
		t.Fatalf("ReadTag: %v", err)
	}
	if len(got) != 3 || got[0] != 0x01 {
		t.Fatalf("expected raw fallback bytes, got %x", got)
	}
}

func TestTagNotFound(t *testing.T) {
	s, err := Open(Config{RootPath: t.TempDir(), NetworkName: "testnet"}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.TagExists(TagHead) {
		t.Fatal("TagExists true before any write")
	}
	_, err = s.ReadTag(TagHead)
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("expected *NotFoundError, got %v (%T)", err, err)
	}
}
