package store

import (
	cid "github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// rawMulticodec is the multicodec for "raw binary" (0x55), used to wrap
// an already-computed digest rather than re-hashing content.
const rawMulticodec = 0x55

// CID projects a Hash into a CIDv1 using the identity multihash over
// the already-computed 32-byte digest (SPEC_FULL.md §3): purely a
// human-facing log/debug form. The canonical on-disk name stays
// hex-encoded per spec.md §6; this never touches the wire or the
// filesystem.
func (h Hash) CID() (cid.Cid, error) {
	digest, err := mh.Encode(h[:], mh.IDENTITY)
	if err != nil {
		return cid.Cid{}, err
	}
	return cid.NewCidV1(rawMulticodec, digest), nil
}
