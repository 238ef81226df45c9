package command

import (
	"github.com/nttrelay/ntt/internal/multiplex"
	"github.com/nttrelay/ntt/internal/tbe"
)

// GetBlockHeader requests the header reachable from an optional anchor
// hash, spec.md §4.3. A nil Anchor is the "first()" special case: both
// from_hashes and to are sent empty (spec.md §8 scenario 6).
type GetBlockHeader struct {
	Anchor *HeaderHash
}

// First builds the anchor-less GetBlockHeader used to fetch the tip.
func First() GetBlockHeader { return GetBlockHeader{} }

func encodeGetHeadersPayload(fromHashes []HeaderHash, to *HeaderHash) []byte {
	from := make([][]byte, len(fromHashes))
	for i, h := range fromHashes {
		from[i] = h[:]
	}
	var toItems [][]byte
	if to != nil {
		toItems = [][]byte{to[:]}
	}

	// Layout: array(2) [indef-array<bytestring> from] [array<=1 bytestring> to].
	out := tbe.NewEncoder()
	out.ArrayHeader(2)
	out.IndefArrayStart()
	for _, b := range from {
		out.Bytestring(b)
	}
	out.Break()
	out.ArrayHeader(len(toItems))
	for _, b := range toItems {
		out.Bytestring(b)
	}
	return out.Bytes()
}

// Execute implements spec.md §4.3 GetBlockHeader: encode the request,
// drain the peer's stream-opening echo, then decode the response's
// first MainBlockHeader.
func (c GetBlockHeader) Execute(s *multiplex.Session) (BlockHeader, error) {
	var to []HeaderHash
	if c.Anchor != nil {
		to = []HeaderHash{*c.Anchor}
	}
	return GetBlockHeaders{To: to}.Execute(s)
}

// GetBlockHeaders is the general checkpoint-list form the original
// protocol supports (original_source/protocol/src/protocol.rs), added
// by the expansion (SPEC_FULL.md §4.3): GetBlockHeader(anchor) is its
// zero-or-one-anchor special case.
type GetBlockHeaders struct {
	From []HeaderHash
	To   []HeaderHash // 0 or 1 element, per spec.md §6
}

// Execute runs the request/response handshake and returns the first
// MainBlockHeader in the reply, failing NoHeaderError if absent or of
// the wrong variant (spec.md §4.3).
func (c GetBlockHeaders) Execute(s *multiplex.Session) (BlockHeader, error) {
	var to *HeaderHash
	if len(c.To) > 0 {
		to = &c.To[0]
	}
	payload := encodeGetHeadersPayload(c.From, to)

	return withStream(s, "get_headers", func(id uint32) (BlockHeader, error) {
		if err := sendMessage(s, id, CodeGetHeaders, payload); err != nil {
			return BlockHeader{}, err
		}
		if err := drainEcho(s, id); err != nil {
			return BlockHeader{}, err
		}
		raw, err := awaitResponse(s, id)
		if err != nil {
			return BlockHeader{}, err
		}
		headers, err := decodeBlockHeaderResponse(raw)
		if err != nil {
			return BlockHeader{}, err
		}
		if len(headers) == 0 {
			return BlockHeader{}, &NoHeaderError{Reason: "empty response"}
		}
		first := headers[0]
		if first.Variant != MainBlockHeader {
			return BlockHeader{}, &NoHeaderError{Reason: "first header is not MainBlockHeader"}
		}
		return first, nil
	})
}
