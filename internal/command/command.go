// Package command implements the stateless request templates of
// spec.md §4.3: each acquires a stream on a Multiplex Session, drives a
// bounded broadcast/poll handshake, decodes the reply and releases the
// stream.
package command

import (
	"github.com/nttrelay/ntt/internal/frame"
	"github.com/nttrelay/ntt/internal/multiplex"
	"github.com/nttrelay/ntt/internal/tbe"
)

// withStream runs the generic execute(session) algorithm of spec.md
// §4.3: allocate an id, open it, run the command-specific body — which
// is responsible for draining the peer's echo and awaiting its response
// via broadcast, spec.md §8 scenario 6 ("consume two frames via
// broadcast") — then close the stream regardless of outcome.
func withStream[T any](s *multiplex.Session, name string, body func(id frame.LightId) (T, error)) (T, error) {
	var zero T
	s.ObserveCommand(name)
	id := s.AllocateID()
	if err := s.NewLightConnection(id); err != nil {
		return zero, err
	}
	out, err := body(id)
	if closeErr := s.CloseLightConnection(id); err == nil {
		err = closeErr
	}
	return out, err
}

// sendMessage writes a one-byte message code followed by a TBE-encoded
// payload, each as its own Data frame, matching every Command's framing
// in spec.md §4.3 ("Both parts are sent as separate Data frames").
func sendMessage(s *multiplex.Session, id frame.LightId, code MessageCode, payload []byte) error {
	if err := s.SendBytes(id, []byte{byte(code)}); err != nil {
		return err
	}
	return s.SendBytes(id, payload)
}

// drainEcho consumes and discards the server's stream-opening echo — a
// NodeId or similar the peer emits as the first data frame on a new
// server-side stream before the real response, spec.md §4.3 rationale.
func drainEcho(s *multiplex.Session, id frame.LightId) error {
	if err := s.Broadcast(); err != nil {
		return err
	}
	if c, ok := s.PollID(id); ok {
		c.GetReceived()
	}
	return nil
}

// awaitResponse blocks for the command's true response frame and
// returns its raw payload.
func awaitResponse(s *multiplex.Session, id frame.LightId) ([]byte, error) {
	if err := s.Broadcast(); err != nil {
		return nil, err
	}
	c, ok := s.PollID(id)
	if !ok {
		return nil, &NoDataError{Stream: id}
	}
	return c.GetReceived(), nil
}

func encodeBytestringArray(items [][]byte) []byte {
	e := tbe.NewEncoder()
	e.ArrayHeader(len(items))
	for _, it := range items {
		e.Bytestring(it)
	}
	return e.Bytes()
}

func encodeIndefBytestringArray(items [][]byte) []byte {
	e := tbe.NewEncoder()
	e.IndefArrayStart()
	for _, it := range items {
		e.Bytestring(it)
	}
	e.Break()
	return e.Bytes()
}
