// Package frame owns the raw byte stream to a relay node: the initial
// transport handshake and the length-prefixed control/data framing
// described in spec.md §4.1. It is the lowest layer of the stack: the
// CLI dials and opens a Transport, and from then on the multiplexer
// (package multiplex) is the only code that sends or receives frames
// through it.
package frame

import "fmt"

// ControlKind enumerates the fixed set of control frame kinds,
// spec.md §3/§6.
type ControlKind uint32

const (
	CreateNewConnection ControlKind = 0
	CloseConnection     ControlKind = 1
	CloseSocket         ControlKind = 2
	CloseEndPoint       ControlKind = 3
	ProbeSocket         ControlKind = 4
	ProbeSocketAck      ControlKind = 5
)

func (k ControlKind) String() string {
	switch k {
	case CreateNewConnection:
		return "CreateNewConnection"
	case CloseConnection:
		return "CloseConnection"
	case CloseSocket:
		return "CloseSocket"
	case CloseEndPoint:
		return "CloseEndPoint"
	case ProbeSocket:
		return "ProbeSocket"
	case ProbeSocketAck:
		return "ProbeSocketAck"
	default:
		return fmt.Sprintf("ControlKind(%d)", uint32(k))
	}
}

// reservedIDCeiling is the first LightId available for allocation by the
// multiplexer (spec.md §3: "Identifiers < 1024 are reserved for the
// transport itself").
const reservedIDCeiling = 1024

// LightId identifies a logical stream multiplexed over the transport.
type LightId = uint32

// Kind distinguishes the two Frame variants observed on recv_frame.
type Kind int

const (
	KindControl Kind = iota
	KindData
)

// Frame is the sum type produced by Transport.RecvFrame: either a
// Control tuple, or a Data header (the payload itself is read
// separately via RecvPayload, spec.md §4.1 rationale).
type Frame struct {
	Kind Kind

	// Control fields.
	ControlKind ControlKind
	ControlID   LightId

	// Data fields.
	DataID  LightId
	DataLen uint32
}

func (f Frame) String() string {
	if f.Kind == KindControl {
		return fmt.Sprintf("Control(%s, %d)", f.ControlKind, f.ControlID)
	}
	return fmt.Sprintf("Data(%d, %d)", f.DataID, f.DataLen)
}
