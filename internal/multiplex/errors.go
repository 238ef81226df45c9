package multiplex

import (
	"fmt"

	"github.com/nttrelay/ntt/internal/frame"
)

// ProtocolViolationError marks a fatal multiplexing invariant break —
// spec.md §4.2: "double-create of a server id ... is fatal."
type ProtocolViolationError struct {
	Detail string
}

func (e *ProtocolViolationError) Error() string { return "multiplex: protocol violation: " + e.Detail }

// duplicateServerStream builds the error panicked with when the peer
// tries to create a server-origin stream id that is already live,
// spec.md §4.2: "it is a protocol violation (panic)."
func duplicateServerStream(id frame.LightId) error {
	return &ProtocolViolationError{Detail: fmt.Sprintf("duplicate CreateNewConnection for server id %d", id)}
}
