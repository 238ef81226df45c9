package store

import (
	"os"
	"testing"
)

func hashOf(b byte) Hash {
	var h Hash
	for i := range h {
		h[i] = b
	}
	return h
}

// TestPackRoundTrip is spec.md §8 scenario 5: append three entries with
// distinct first bytes, finalize, build the index, and confirm find +
// read reconstructs each payload at the expected sorted position.
func TestPackRoundTrip(t *testing.T) {
	s, err := Open(Config{RootPath: t.TempDir(), NetworkName: "testnet"}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	h1, h2, h3 := hashOf(0x00), hashOf(0xFF), hashOf(0x80)
	w, err := s.NewPackWriter()
	if err != nil {
		t.Fatalf("NewPackWriter: %v", err)
	}
	if err := w.Append(h1, []byte("abc")); err != nil {
		t.Fatalf("Append h1: %v", err)
	}
	if err := w.Append(h2, []byte("wxyz")); err != nil {
		t.Fatalf("Append h2: %v", err)
	}
	if err := w.Append(h3, nil); err != nil {
		t.Fatalf("Append h3: %v", err)
	}

	packHash, idx, err := w.Finalize(s)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := s.WriteIndex(packHash, idx); err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}

	cases := []struct {
		h       Hash
		wantIdx int
		payload string
	}{
		{h1, 0, "abc"},
		{h3, 1, ""},
		{h2, 2, "wxyz"},
	}
	for _, c := range cases {
		i, ok, err := s.Find(packHash, c.h)
		if err != nil {
			t.Fatalf("Find(%x): %v", c.h[:1], err)
		}
		if !ok || i != c.wantIdx {
			t.Fatalf("Find(%x): got (i=%d, ok=%v), want (i=%d, ok=true)", c.h[:1], i, ok, c.wantIdx)
		}
		payload, err := s.ReadPackedAt(packHash, i)
		if err != nil {
			t.Fatalf("ReadPackedAt(%d): %v", i, err)
		}
		if string(payload) != c.payload {
			t.Fatalf("payload at %d: got %q want %q", i, payload, c.payload)
		}
	}

	if _, ok, err := s.Find(packHash, hashOf(0x01)); err != nil || ok {
		t.Fatalf("Find(0x01...) should be absent, got ok=%v err=%v", ok, err)
	}
}

// TestPackFanoutMatchesSet is spec.md §8: "the index's fanout at byte b
// equals #{h in S : h[0] <= b}".
func TestPackFanoutMatchesSet(t *testing.T) {
	s, err := Open(Config{RootPath: t.TempDir(), NetworkName: "testnet"}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	firstBytes := []byte{0x00, 0x01, 0x01, 0x80, 0xFF}

	w, err := s.NewPackWriter()
	if err != nil {
		t.Fatalf("NewPackWriter: %v", err)
	}
	var hashes []Hash
	for i, fb := range firstBytes {
		h := hashOf(fb)
		h[31] = byte(i) // keep the 5 hashes distinct despite shared first bytes
		hashes = append(hashes, h)
		if err := w.Append(h, []byte{byte(i)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	packHash, idx, err := w.Finalize(s)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := s.WriteIndex(packHash, idx); err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}
	data := BuildPackIndex(idx)
	pi, err := parsePackIndex(data)
	if err != nil {
		t.Fatalf("parsePackIndex: %v", err)
	}

	for b := 0; b < 256; b++ {
		want := 0
		for _, fb := range firstBytes {
			if int(fb) <= b {
				want++
			}
		}
		if got := int(pi.fanout[b]); got != want {
			t.Fatalf("fanout[%d]: got %d want %d", b, got, want)
		}
	}

	for _, h := range hashes {
		if _, ok, err := s.Find(packHash, h); err != nil || !ok {
			t.Fatalf("Find(%x): ok=%v err=%v", h, ok, err)
		}
	}
}

// TestBlockLocationDisjointPacks is spec.md §8: two disjoint sets packed
// independently must each resolve only to their own pack.
func TestBlockLocationDisjointPacks(t *testing.T) {
	s, err := Open(Config{RootPath: t.TempDir(), NetworkName: "testnet"}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	buildPack := func(start byte) (Hash, []Hash) {
		w, err := s.NewPackWriter()
		if err != nil {
			t.Fatalf("NewPackWriter: %v", err)
		}
		var hashes []Hash
		for i := 0; i < 3; i++ {
			h := hashOf(start)
			h[31] = byte(i)
			hashes = append(hashes, h)
			if err := w.Append(h, []byte{start, byte(i)}); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}
		packHash, idx, err := w.Finalize(s)
		if err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		if err := s.WriteIndex(packHash, idx); err != nil {
			t.Fatalf("WriteIndex: %v", err)
		}
		return packHash, hashes
	}

	pack1, set1 := buildPack(0x10)
	pack2, set2 := buildPack(0x20)

	for _, h := range set1 {
		loc, err := s.Locate(h)
		if err != nil {
			t.Fatalf("Locate: %v", err)
		}
		if loc.Kind != LocationPacked || loc.PackHash != pack1 {
			t.Fatalf("hash from set1 resolved to %+v, want pack1", loc)
		}
	}
	for _, h := range set2 {
		loc, err := s.Locate(h)
		if err != nil {
			t.Fatalf("Locate: %v", err)
		}
		if loc.Kind != LocationPacked || loc.PackHash != pack2 {
			t.Fatalf("hash from set2 resolved to %+v, want pack2", loc)
		}
	}
}

func TestPackSizeEqualsEntrySum(t *testing.T) {
	s, err := Open(Config{RootPath: t.TempDir(), NetworkName: "testnet"}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	w, err := s.NewPackWriter()
	if err != nil {
		t.Fatalf("NewPackWriter: %v", err)
	}
	payloads := [][]byte{[]byte("a"), []byte("abcde"), nil, []byte("abcdefgh")}
	want := 0
	for i, p := range payloads {
		h := hashOf(byte(i))
		if err := w.Append(h, p); err != nil {
			t.Fatalf("Append: %v", err)
		}
		want += 4 + roundUp4(len(p))
	}
	packHash, _, err := w.Finalize(s)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	fi, err := os.Stat(s.packPath(packHash))
	if err != nil {
		t.Fatalf("stat pack file: %v", err)
	}
	if int(fi.Size()) != want {
		t.Fatalf("pack file size: got %d want %d", fi.Size(), want)
	}
}
