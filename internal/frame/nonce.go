package frame

import (
	"crypto/rand"
	"encoding/binary"
)

// CryptoNonceSource draws a 64-bit nonce from the system CSPRNG, the
// production NonceSource for Open.
type CryptoNonceSource struct{}

// Uint64 returns a cryptographically random 64-bit value.
func (CryptoNonceSource) Uint64() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}
