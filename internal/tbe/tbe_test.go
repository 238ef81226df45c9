package tbe

import (
	"bytes"
	"testing"
	"testing/quick"
)

func TestUintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 23, 24, 255, 256, 65535, 65536, 4294967295, 4294967296, 1<<64 - 1}
	for _, v := range cases {
		e := NewEncoder()
		e.Uint(v)
		got, err := NewDecoder(e.Bytes()).Uint("v")
		if err != nil {
			t.Fatalf("Uint(%d): decode error %v", v, err)
		}
		if got != v {
			t.Fatalf("Uint(%d): got %d", v, got)
		}
	}
}

func TestUintRoundTripProperty(t *testing.T) {
	f := func(v uint64) bool {
		e := NewEncoder()
		e.Uint(v)
		got, err := NewDecoder(e.Bytes()).Uint("v")
		return err == nil && got == v
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestBytestringRoundTrip(t *testing.T) {
	f := func(b []byte) bool {
		e := NewEncoder()
		e.Bytestring(b)
		got, err := NewDecoder(e.Bytes()).Bytestring("b")
		return err == nil && bytes.Equal(got, b)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestDefiniteArrayRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.ArrayHeader(3)
	e.Uint(1)
	e.Uint(2)
	e.Uint(3)
	d := NewDecoder(e.Bytes())
	n, err := d.ArrayLen("arr")
	if err != nil || n != 3 {
		t.Fatalf("ArrayLen: n=%d err=%v", n, err)
	}
	for i := uint64(1); i <= 3; i++ {
		v, err := d.Uint("arr[]")
		if err != nil || v != i {
			t.Fatalf("element %d: v=%d err=%v", i, v, err)
		}
	}
}

func TestIndefiniteArrayRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.IndefArrayStart()
	e.Bytestring([]byte("a"))
	e.Bytestring([]byte("bb"))
	e.Break()

	var got [][]byte
	d := NewDecoder(e.Bytes())
	err := d.IndefArrayEach("arr", func(i int) error {
		b, err := d.Bytestring("arr[]")
		if err != nil {
			return err
		}
		got = append(got, b)
		return nil
	})
	if err != nil {
		t.Fatalf("IndefArrayEach: %v", err)
	}
	if len(got) != 2 || string(got[0]) != "a" || string(got[1]) != "bb" {
		t.Fatalf("unexpected elements: %v", got)
	}
}

func TestMapRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.MapHeader(2)
	e.Uint(1)
	e.Uint(10)
	e.Uint(2)
	e.Uint(20)

	d := NewDecoder(e.Bytes())
	n, err := d.MapLen("m")
	if err != nil || n != 2 {
		t.Fatalf("MapLen: n=%d err=%v", n, err)
	}
	for i := 0; i < n; i++ {
		k, err := d.Uint("m.k")
		if err != nil {
			t.Fatal(err)
		}
		v, err := d.Uint("m.v")
		if err != nil {
			t.Fatal(err)
		}
		if v != k*10 {
			t.Fatalf("pair %d: k=%d v=%d", i, k, v)
		}
	}
}

func TestEmbeddedTBERoundTrip(t *testing.T) {
	inner := NewEncoder().Uint(0x2A).Bytes()
	e := NewEncoder()
	e.EmbeddedTBE(inner)

	d := NewDecoder(e.Bytes())
	got, err := d.EmbeddedTBE("outer")
	if err != nil {
		t.Fatalf("EmbeddedTBE: %v", err)
	}
	v, err := NewDecoder(got).Uint("inner")
	if err != nil || v != 0x2A {
		t.Fatalf("inner value: v=%d err=%v", v, err)
	}
}

func TestDecodeErrorNamesPath(t *testing.T) {
	_, err := NewDecoder([]byte{}).Uint("handshake.protocol_magic")
	if err == nil {
		t.Fatal("expected error decoding empty input")
	}
	de, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
	if de.Path != "handshake.protocol_magic" {
		t.Fatalf("unexpected path %q", de.Path)
	}
}

func TestWrongMajorTypeRejected(t *testing.T) {
	e := NewEncoder()
	e.Bytestring([]byte("x"))
	if _, err := NewDecoder(e.Bytes()).Uint("v"); err == nil {
		t.Fatal("expected error decoding a bytestring as uint")
	}
}
