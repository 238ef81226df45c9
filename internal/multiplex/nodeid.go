package multiplex

import "encoding/binary"

// NodeId is the 9-byte tag distinguishing a stream's syn (request)
// direction from its ack (response) direction, spec.md §3.
type NodeId [9]byte

const (
	nodeIDSyn byte = 'S'
	nodeIDAck byte = 'A'
)

// SynNodeId builds a syn-direction NodeId from a 64-bit nonce.
func SynNodeId(nonce uint64) NodeId {
	return newNodeID(nodeIDSyn, nonce)
}

// AckNodeId builds an ack-direction NodeId from a 64-bit nonce.
func AckNodeId(nonce uint64) NodeId {
	return newNodeID(nodeIDAck, nonce)
}

func newNodeID(tag byte, nonce uint64) NodeId {
	var id NodeId
	id[0] = tag
	binary.BigEndian.PutUint64(id[1:], nonce)
	return id
}

// IsSyn reports whether this NodeId marks the request direction.
func (n NodeId) IsSyn() bool { return n[0] == nodeIDSyn }

// Nonce extracts the 64-bit nonce embedded in the tag.
func (n NodeId) Nonce() uint64 { return binary.BigEndian.Uint64(n[1:]) }

// looksLikeNodeID reports whether b is shaped like a NodeId (9 bytes,
// first byte 'S' or 'A'); used when deciding whether a server stream's
// first data frame should be interpreted as its NodeId, spec.md §3
// LightConnection.node_id.
func looksLikeNodeID(b []byte) (NodeId, bool) {
	if len(b) != 9 {
		return NodeId{}, false
	}
	if b[0] != nodeIDSyn && b[0] != nodeIDAck {
		return NodeId{}, false
	}
	var id NodeId
	copy(id[:], b)
	return id, true
}
