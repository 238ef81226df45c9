package multiplex

import "github.com/nttrelay/ntt/internal/frame"

// Origin distinguishes which side allocated a LightConnection's id,
// spec.md §3: "Two disjoint numeric spaces ... distinguished by origin."
type Origin int

const (
	OriginClient Origin = iota
	OriginServer
)

func (o Origin) String() string {
	if o == OriginClient {
		return "client"
	}
	return "server"
}

// LightConnection is the bookkeeping record for one logical stream,
// spec.md §3. It is mutated only by Session; callers observe it through
// the narrow accessors below.
type LightConnection struct {
	id       frame.LightId
	origin   Origin
	nodeID   *NodeId
	received []byte
}

// ID returns the light connection's 32-bit identifier.
func (c *LightConnection) ID() frame.LightId { return c.id }

// Origin reports which side created this stream.
func (c *LightConnection) Origin() Origin { return c.origin }

// NodeID returns the stream's NodeId tag, if one has been observed yet.
func (c *LightConnection) NodeID() (NodeId, bool) {
	if c.nodeID == nil {
		return NodeId{}, false
	}
	return *c.nodeID, true
}

// HasData reports whether unread payload bytes are buffered.
func (c *LightConnection) HasData() bool { return len(c.received) > 0 }

// GetReceived atomically moves the buffered payload out of the record,
// leaving it empty, spec.md §3/§4.2 `get_received`.
func (c *LightConnection) GetReceived() []byte {
	b := c.received
	c.received = nil
	return b
}

func (c *LightConnection) appendReceived(b []byte) {
	c.received = append(c.received, b...)
}

func (c *LightConnection) maybeCaptureNodeID(b []byte) {
	if c.nodeID != nil {
		return
	}
	if id, ok := looksLikeNodeID(b); ok {
		c.nodeID = &id
	}
}
