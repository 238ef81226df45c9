// Package multiplex tracks the set of open light connections over a
// single Transport, translating frames into per-stream events and
// exposing create/close/send/poll — the multiplex + session state
// machine that is the hard part of this module (spec.md §4.2).
package multiplex

import (
	"github.com/sirupsen/logrus"

	"github.com/nttrelay/ntt/internal/frame"
	"github.com/nttrelay/ntt/internal/tbe"
	"github.com/nttrelay/ntt/pkg/metrics"
)

// handshakeStreamID is the light id reserved for the session handshake
// itself, spec.md §3: "the id 0x400 is reserved for the initial
// session-handshake stream and is the first client id allocated."
const handshakeStreamID frame.LightId = 0x400

// firstUserClientID is the first id handed out by AllocateID,
// spec.md §4.2: "next_client_id ... starts at 0x401."
const firstUserClientID frame.LightId = 0x401

// Session is the Multiplex Session of spec.md §4.2.
type Session struct {
	transport *frame.Transport
	log       logrus.FieldLogger

	clientStreams map[frame.LightId]*LightConnection
	serverStreams map[frame.LightId]*LightConnection
	serverDrained map[frame.LightId]*LightConnection

	nextClientID frame.LightId

	metrics *metrics.Metrics
}

// SetMetrics attaches an optional prometheus instrument set; pass nil to
// disable (the default). SPEC_FULL.md §6.
func (s *Session) SetMetrics(m *metrics.Metrics) { s.metrics = m }

// ObserveCommand records one execution of the named command (SPEC_FULL.md
// §6); a no-op when no metrics are attached.
func (s *Session) ObserveCommand(name string) { s.metrics.ObserveCommand(name) }

// New opens a Session over transport: it runs the session handshake
// described in spec.md §4.2 `new` (steps 1–7) using handshakeRecord as
// this endpoint's handshake contents.
func New(transport *frame.Transport, handshakeRecord tbe.Handshake, log logrus.FieldLogger) (*Session, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Session{
		transport:     transport,
		log:           log,
		clientStreams: make(map[frame.LightId]*LightConnection),
		serverStreams: make(map[frame.LightId]*LightConnection),
		serverDrained: make(map[frame.LightId]*LightConnection),
		nextClientID:  firstUserClientID,
	}

	// Step 1/2: allocate and announce the reserved handshake stream.
	s.clientStreams[handshakeStreamID] = &LightConnection{id: handshakeStreamID, origin: OriginClient}
	if err := s.transport.SendControl(frame.CreateNewConnection, handshakeStreamID); err != nil {
		return nil, err
	}

	// Step 3: send the handshake record.
	if err := s.transport.SendData(handshakeStreamID, tbe.EncodeHandshake(handshakeRecord)); err != nil {
		return nil, err
	}

	// Step 4: send the client NodeId (syn form) for this stream.
	nodeID := SynNodeId(transport.NextNonce())
	if err := s.transport.SendData(handshakeStreamID, nodeID[:]); err != nil {
		return nil, err
	}

	// Step 5: consume the server's ack and peer handshake reply.
	if err := s.Broadcast(); err != nil {
		return nil, err
	}
	if err := s.Broadcast(); err != nil {
		return nil, err
	}
	if c, ok := s.PollID(handshakeStreamID); ok {
		c.GetReceived()
	}

	// Step 6: drain any trailing data.
	if err := s.Broadcast(); err != nil {
		return nil, err
	}
	if c, ok := s.PollID(handshakeStreamID); ok {
		c.GetReceived()
	}

	// Step 7: close the handshake stream.
	if err := s.CloseLightConnection(handshakeStreamID); err != nil {
		return nil, err
	}
	return s, nil
}

// AllocateID returns the next client-origin LightId, spec.md §4.2
// `allocate_id`: strictly increasing starting at 0x401.
func (s *Session) AllocateID() frame.LightId {
	id := s.nextClientID
	s.nextClientID++
	return id
}

// NewLightConnection opens a fresh client-origin stream: it records the
// stream, sends CreateNewConnection(id), then sends a freshly allocated
// syn NodeId as the stream's first data frame, spec.md §4.2
// `new_light_connection`.
func (s *Session) NewLightConnection(id frame.LightId) error {
	if id < 1024 {
		panic("multiplex: new_light_connection called with reserved id < 1024")
	}
	nodeID := SynNodeId(s.transport.NextNonce())
	s.clientStreams[id] = &LightConnection{id: id, origin: OriginClient, nodeID: &nodeID}
	if err := s.transport.SendControl(frame.CreateNewConnection, id); err != nil {
		return err
	}
	s.metrics.IncFramesSent()
	if err := s.transport.SendData(id, nodeID[:]); err != nil {
		return err
	}
	s.metrics.IncFramesSent()
	return nil
}

// CloseLightConnection removes the client-side record for id and emits
// CloseConnection(id), spec.md §4.2 `close_light_connection`.
func (s *Session) CloseLightConnection(id frame.LightId) error {
	delete(s.clientStreams, id)
	if err := s.transport.SendControl(frame.CloseConnection, id); err != nil {
		return err
	}
	s.metrics.IncFramesSent()
	return nil
}

// SendBytes emits a Data(id, len(bytes)) frame plus payload,
// spec.md §4.2 `send_bytes`.
func (s *Session) SendBytes(id frame.LightId, payload []byte) error {
	if err := s.transport.SendData(id, payload); err != nil {
		return err
	}
	s.metrics.IncFramesSent()
	return nil
}

// Ping issues a ProbeSocket control frame; a well-behaved relay answers
// with ProbeSocketAck, consumed by a subsequent Broadcast. This gives
// the ProbeSocket/ProbeSocketAck control kinds in spec.md §3/§6 an
// operation, which spec.md itself never defines one for.
func (s *Session) Ping() error {
	if err := s.transport.SendControl(frame.ProbeSocket, handshakeStreamID); err != nil {
		return err
	}
	s.metrics.IncFramesSent()
	return nil
}

// Broadcast reads exactly one frame and applies it to the session's
// tables, spec.md §4.2 `broadcast`.
func (s *Session) Broadcast() error {
	f, err := s.transport.RecvFrame()
	if err != nil {
		return err
	}
	s.metrics.IncFramesReceived()
	switch f.Kind {
	case frame.KindControl:
		return s.applyControl(f)
	default:
		return s.applyData(f)
	}
}

func (s *Session) applyControl(f frame.Frame) error {
	switch f.ControlKind {
	case frame.CreateNewConnection:
		if _, exists := s.serverStreams[f.ControlID]; exists {
			// spec.md §4.2: "it is a protocol violation (panic)."
			panic(duplicateServerStream(f.ControlID))
		}
		s.serverStreams[f.ControlID] = &LightConnection{id: f.ControlID, origin: OriginServer}
		return nil
	case frame.CloseConnection:
		c, exists := s.serverStreams[f.ControlID]
		if !exists {
			// spec.md §8: "logs and continues without mutating state."
			s.log.WithField("id", f.ControlID).Warn("multiplex: CloseConnection for unknown server stream")
			return nil
		}
		delete(s.serverStreams, f.ControlID)
		if c.HasData() {
			s.serverDrained[f.ControlID] = c
		}
		return nil
	default:
		s.log.WithFields(logrus.Fields{"kind": f.ControlKind, "id": f.ControlID}).Debug("multiplex: ignoring control frame")
		return nil
	}
}

func (s *Session) applyData(f frame.Frame) error {
	payload, err := s.transport.RecvPayload(f.DataLen)
	if err != nil {
		return err
	}
	c, exists := s.serverStreams[f.DataID]
	if !exists {
		// spec.md §4.2/§8: creating the record is a logged anomaly, not
		// fatal; the payload is still consumed to keep framing aligned.
		s.log.WithField("id", f.DataID).Warn("multiplex: data frame for unknown server stream")
		c = &LightConnection{id: f.DataID, origin: OriginServer}
		s.serverStreams[f.DataID] = c
	}
	c.maybeCaptureNodeID(payload)
	c.appendReceived(payload)
	return nil
}

// Poll returns the first server-side stream (scanning server_streams
// then server_drained) whose received buffer is non-empty,
// spec.md §4.2 `poll`.
func (s *Session) Poll() (*LightConnection, bool) {
	for _, c := range s.serverStreams {
		if c.HasData() {
			return c, true
		}
	}
	for _, c := range s.serverDrained {
		if c.HasData() {
			return c, true
		}
	}
	return nil, false
}

// PollID returns the server-side stream for id if it has buffered data,
// checking server_streams then server_drained, spec.md §4.2 `poll_id`.
func (s *Session) PollID(id frame.LightId) (*LightConnection, bool) {
	if c, ok := s.serverStreams[id]; ok && c.HasData() {
		return c, true
	}
	if c, ok := s.serverDrained[id]; ok && c.HasData() {
		return c, true
	}
	return nil, false
}
