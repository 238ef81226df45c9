package command

import (
	"github.com/nttrelay/ntt/internal/frame"
	"github.com/nttrelay/ntt/internal/multiplex"
	"github.com/nttrelay/ntt/internal/tbe"
)

// GetBlock requests a single raw block payload between two hashes,
// spec.md §4.3. Decoding of the block is deferred to the caller: the
// reply is returned verbatim, TBE framing prefix included, and
// Store.WriteBlob archives whatever bytes it is given without stripping
// that prefix.
type GetBlock struct {
	From HeaderHash
	To   HeaderHash
}

func encodeFromTo(from, to []byte) []byte {
	e := tbe.NewEncoder()
	e.ArrayHeader(2)
	e.Bytestring(from)
	e.Bytestring(to)
	return e.Bytes()
}

// Execute runs the GetBlock request/response handshake and returns the
// raw reply bytes.
func (c GetBlock) Execute(s *multiplex.Session) ([]byte, error) {
	payload := encodeFromTo(c.From[:], c.To[:])
	return withStream(s, "get_block", func(id frame.LightId) ([]byte, error) {
		if err := sendMessage(s, id, CodeGetBlocks, payload); err != nil {
			return nil, err
		}
		if err := drainEcho(s, id); err != nil {
			return nil, err
		}
		return awaitResponse(s, id)
	})
}

// GetBlocks is the original protocol's bulk block-range fetch
// (original_source/protocol/src/protocol.rs), added by the expansion
// (SPEC_FULL.md §4.3) alongside the single-pair GetBlock spec.md names.
// The relay streams one block payload per data frame until the range is
// exhausted; this layer collects them into a slice rather than exposing
// a channel, keeping the single-threaded synchronous model of spec.md §5.
type GetBlocks struct {
	From HeaderHash
	To   HeaderHash
}

// Execute runs the request and collects every block payload the relay
// sends before closing the stream's reply with an empty data frame.
func (c GetBlocks) Execute(s *multiplex.Session) ([][]byte, error) {
	payload := encodeFromTo(c.From[:], c.To[:])
	return withStream(s, "get_blocks", func(id frame.LightId) ([][]byte, error) {
		if err := sendMessage(s, id, CodeGetBlocks, payload); err != nil {
			return nil, err
		}
		if err := drainEcho(s, id); err != nil {
			return nil, err
		}
		var blocks [][]byte
		for {
			raw, err := awaitResponse(s, id)
			if err != nil {
				if len(blocks) > 0 {
					return blocks, nil
				}
				return nil, err
			}
			if len(raw) == 0 {
				return blocks, nil
			}
			blocks = append(blocks, raw)
		}
	})
}
