package command

import (
	"fmt"

	"github.com/nttrelay/ntt/internal/tbe"
)

// HeaderHash is a 32-byte content address for a block, spec.md §3.
type HeaderHash [32]byte

// HeaderVariant distinguishes the block-header sum type's cases. Block
// validation itself is out of scope (spec.md §1): the variant tag is
// the only thing this layer inspects, the body is carried opaquely.
type HeaderVariant uint64

const (
	GenesisBlockHeader HeaderVariant = 0
	MainBlockHeader    HeaderVariant = 1
)

// BlockHeader is one element of a BlockHeaderResponse, encoded on the
// wire as the sum-type convention of spec.md §6: array [tag, payload].
type BlockHeader struct {
	Variant HeaderVariant
	Body    []byte
}

// decodeBlockHeader reads one [variant:uint, body:bytestring] element.
func decodeBlockHeader(d *tbe.Decoder, path string) (BlockHeader, error) {
	n, err := d.ArrayLen(path)
	if err != nil {
		return BlockHeader{}, err
	}
	if n != 2 {
		return BlockHeader{}, &tbe.DecodeError{Path: path, Err: fmt.Errorf("expected 2-element header tuple, got %d", n)}
	}
	variant, err := d.Uint(path + ".variant")
	if err != nil {
		return BlockHeader{}, err
	}
	body, err := d.Bytestring(path + ".body")
	if err != nil {
		return BlockHeader{}, err
	}
	return BlockHeader{Variant: HeaderVariant(variant), Body: body}, nil
}

// decodeBlockHeaderResponse decodes the sum type
// `BlockHeaderResponse = Ok(indef-array<BlockHeader>) | ...`
// (spec.md §4.3: "tag 0 = Ok containing an indef-array of BlockHeader").
// Only the Ok variant is meaningful to this layer; any other tag is
// treated as an empty result, surfaced by the caller as NoHeaderError.
func decodeBlockHeaderResponse(raw []byte) ([]BlockHeader, error) {
	d := tbe.NewDecoder(raw)
	n, err := d.ArrayLen("block_header_response")
	if err != nil {
		return nil, err
	}
	if n != 2 {
		return nil, &tbe.DecodeError{Path: "block_header_response", Err: fmt.Errorf("expected 2-element sum tuple, got %d", n)}
	}
	tag, err := d.Uint("block_header_response.tag")
	if err != nil {
		return nil, err
	}
	if tag != 0 {
		return nil, nil
	}
	var headers []BlockHeader
	err = d.IndefArrayEach("block_header_response.headers", func(i int) error {
		h, err := decodeBlockHeader(d, fmt.Sprintf("block_header_response.headers[%d]", i))
		if err != nil {
			return err
		}
		headers = append(headers, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return headers, nil
}
