package command

import (
	"github.com/nttrelay/ntt/internal/frame"
	"github.com/nttrelay/ntt/internal/multiplex"
	"github.com/nttrelay/ntt/internal/tbe"
)

// Subscribe registers interest in future block announcements, spec.md
// §4.3: "Sends 0x0E + TBE-encoding of 42 (ephemeral) or 43 (keep-alive).
// No response required."
type Subscribe struct {
	KeepAlive bool
}

// Execute sends the subscription request; there is no reply to await.
func (c Subscribe) Execute(s *multiplex.Session) error {
	code := subscribeEphemeral
	if c.KeepAlive {
		code = subscribeKeepAlive
	}
	payload := tbe.NewEncoder().Uint(code).Bytes()
	_, err := withStream(s, "subscribe", func(id frame.LightId) (struct{}, error) {
		return struct{}{}, sendMessage(s, id, CodeSubscribe, payload)
	})
	return err
}
