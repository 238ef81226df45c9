package tbe

import (
	"fmt"
	"sort"
)

// HandlerSpec is an inbound/outbound message-code handler entry: an
// integer code wrapped as the sum-type tuple [0, tag24(bytestring)],
// spec.md §3/§6.
type HandlerSpec struct {
	Code uint32
}

// Handshake is the transport-level handshake record exchanged on the
// session's reserved first stream (spec.md §3 "Handshake Record").
type Handshake struct {
	ProtocolMagic uint32
	Version       [3]uint32
	InHandlers    map[uint32]HandlerSpec
	OutHandlers   map[uint32]HandlerSpec
}

// DefaultInHandlers is the fixed in_handlers table from spec.md §6.
func DefaultInHandlers() map[uint32]HandlerSpec {
	pairs := [][2]uint32{
		{0x04, 0x05}, {0x05, 0x04}, {0x06, 0x07},
		{0x22, 0x5E}, {0x25, 0x5E}, {0x2B, 0x5D}, {0x31, 0x5C},
		{0x37, 0x62}, {0x3D, 0x61}, {0x43, 0x60}, {0x49, 0x5F},
		{0x53, 0x00}, {0x5C, 0x31}, {0x5D, 0x2B}, {0x5E, 0x25},
		{0x5F, 0x49}, {0x60, 0x43}, {0x61, 0x3D}, {0x62, 0x37},
	}
	return handlerMap(pairs)
}

// DefaultOutHandlers is the fixed out_handlers table from spec.md §6.
func DefaultOutHandlers() map[uint32]HandlerSpec {
	pairs := [][2]uint32{
		{0x04, 0x05}, {0x05, 0x04}, {0x06, 0x07},
		{0x0D, 0x00}, {0x0E, 0x00}, {0x25, 0x5E}, {0x2B, 0x5D},
		{0x31, 0x5C}, {0x37, 0x62}, {0x3D, 0x61}, {0x43, 0x60},
		{0x49, 0x5F}, {0x53, 0x00},
	}
	return handlerMap(pairs)
}

func handlerMap(pairs [][2]uint32) map[uint32]HandlerSpec {
	m := make(map[uint32]HandlerSpec, len(pairs))
	for _, p := range pairs {
		m[p[0]] = HandlerSpec{Code: p[1]}
	}
	return m
}

// DefaultHandshake builds the handshake record this endpoint sends,
// using the fixed default handler tables and the given protocol magic.
func DefaultHandshake(protocolMagic uint32, version [3]uint32) Handshake {
	return Handshake{
		ProtocolMagic: protocolMagic,
		Version:       version,
		InHandlers:    DefaultInHandlers(),
		OutHandlers:   DefaultOutHandlers(),
	}
}

func sortedKeys(m map[uint32]HandlerSpec) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// encodeHandlerMap encodes each HandlerSpec as the sum-type tuple
// Array[U64(0), Tag(24, Bytes(encoded code))] (packet.rs HandlerSpec::encode).
func encodeHandlerMap(e *Encoder, m map[uint32]HandlerSpec) {
	keys := sortedKeys(m)
	e.MapHeader(len(keys))
	for _, k := range keys {
		e.Uint(uint64(k))
		e.ArrayHeader(2)
		e.Uint(0)
		inner := NewEncoder().Uint(uint64(m[k].Code)).Bytes()
		e.EmbeddedTBE(inner)
	}
}

// EncodeHandshake encodes a Handshake record per spec.md §3/§6 as the
// 4-element array [protocol_magic, version, in_handlers, out_handlers].
func EncodeHandshake(h Handshake) []byte {
	e := NewEncoder()
	e.ArrayHeader(4)
	e.Uint(uint64(h.ProtocolMagic))
	e.ArrayHeader(3)
	e.Uint(uint64(h.Version[0]))
	e.Uint(uint64(h.Version[1]))
	e.Uint(uint64(h.Version[2]))
	encodeHandlerMap(e, h.InHandlers)
	encodeHandlerMap(e, h.OutHandlers)
	return e.Bytes()
}

// decodeHandlerMap decodes each HandlerSpec from its sum-type tuple
// Array[U64(0), Tag(24, Bytes(encoded code))]; see encodeHandlerMap.
func decodeHandlerMap(d *Decoder, path string) (map[uint32]HandlerSpec, error) {
	n, err := d.MapLen(path)
	if err != nil {
		return nil, err
	}
	m := make(map[uint32]HandlerSpec, n)
	for i := 0; i < n; i++ {
		k, err := d.Uint(path)
		if err != nil {
			return nil, err
		}
		alen, err := d.ArrayLen(path + ".handlerspec")
		if err != nil {
			return nil, err
		}
		if alen != 2 {
			return nil, decodeErr(path+".handlerspec", fmt.Errorf("expected 2-element sum tuple, got %d", alen))
		}
		tag, err := d.Uint(path + ".handlerspec.tag")
		if err != nil {
			return nil, err
		}
		if tag != 0 {
			return nil, decodeErr(path+".handlerspec.tag", fmt.Errorf("expected sum tag 0, got %d", tag))
		}
		inner, err := d.EmbeddedTBE(path + ".handlerspec")
		if err != nil {
			return nil, err
		}
		code, err := NewDecoder(inner).Uint(path + ".handlerspec.code")
		if err != nil {
			return nil, err
		}
		m[uint32(k)] = HandlerSpec{Code: uint32(code)}
	}
	return m, nil
}

// DecodeHandshake decodes a Handshake record from the 4-element array
// [protocol_magic, version, in_handlers, out_handlers].
func DecodeHandshake(b []byte) (Handshake, error) {
	d := NewDecoder(b)
	outer, err := d.ArrayLen("handshake")
	if err != nil {
		return Handshake{}, err
	}
	if outer != 4 {
		return Handshake{}, decodeErr("handshake", fmt.Errorf("expected 4-element record, got %d", outer))
	}
	magic, err := d.Uint("handshake.protocol_magic")
	if err != nil {
		return Handshake{}, err
	}
	n, err := d.ArrayLen("handshake.version")
	if err != nil {
		return Handshake{}, err
	}
	if n != 3 {
		return Handshake{}, decodeErr("handshake.version", errBreak)
	}
	var version [3]uint32
	for i := 0; i < 3; i++ {
		v, err := d.Uint("handshake.version")
		if err != nil {
			return Handshake{}, err
		}
		version[i] = uint32(v)
	}
	in, err := decodeHandlerMap(d, "handshake.in_handlers")
	if err != nil {
		return Handshake{}, err
	}
	out, err := decodeHandlerMap(d, "handshake.out_handlers")
	if err != nil {
		return Handshake{}, err
	}
	return Handshake{
		ProtocolMagic: uint32(magic),
		Version:       version,
		InHandlers:    in,
		OutHandlers:   out,
	}, nil
}
