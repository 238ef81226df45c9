package frame

import (
	"encoding/binary"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// statusOK/… are the 32-bit status words the peer may reply
// with after the initial transport handshake, spec.md §4.1 step 2.
const (
	statusOK               uint32 = 0x00000000
	statusUnsupportedVer   uint32 = 0xFFFFFFFF
	statusInvalidRequest   uint32 = 0x00000001
	statusCrossedRequest   uint32 = 0x00000002
)

// NonceSource supplies the 64-bit random seed used to derive client
// NodeIds; it is a caller-provided collaborator (spec.md §4.1 step 3)
// so tests can inject a deterministic source.
type NonceSource interface {
	Uint64() (uint64, error)
}

// Transport owns a connected byte stream and speaks the length-prefixed
// control/data framing described in spec.md §4.1. All multi-byte
// integers on the wire are big-endian.
type Transport struct {
	conn   net.Conn
	log    logrus.FieldLogger
	nonce  uint64
	nextSeq uint64
}

// DialTimeout mirrors the teacher's Dialer (core/network.go): a TCP
// dial with a connect timeout and keepalive, tuned with TCP_NODELAY so
// each SendBytes call flushes promptly (spec.md §5 ordering guarantees).
func DialTimeout(address string, timeout, keepAlive time.Duration) (net.Conn, error) {
	d := &net.Dialer{Timeout: timeout, KeepAlive: keepAlive}
	conn, err := d.Dial("tcp", address)
	if err != nil {
		return nil, &IOError{Op: "dial", Err: err}
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return conn, nil
}

// Open performs the transport-level handshake over an already-connected
// stream (spec.md §4.1 `open`) and returns a ready Transport.
func Open(conn net.Conn, nonces NonceSource, log logrus.FieldLogger) (*Transport, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	var req [16]byte // proto_version=0, handshake_len=0, endpoint_id=0, endpoint_len=0
	if _, err := conn.Write(req[:]); err != nil {
		return nil, &IOError{Op: "write handshake", Err: err}
	}

	var statusBuf [4]byte
	if _, err := io.ReadFull(conn, statusBuf[:]); err != nil {
		return nil, &IOError{Op: "read handshake status", Err: err}
	}
	status := binary.BigEndian.Uint32(statusBuf[:])
	switch status {
	case statusOK:
		// fall through
	case statusUnsupportedVer, statusInvalidRequest, statusCrossedRequest:
		return nil, &HandshakeRejectedError{Code: status}
	default:
		return nil, &ProtocolError{Detail: "unknown handshake status"}
	}

	nonce, err := nonces.Uint64()
	if err != nil {
		return nil, &IOError{Op: "generate nonce", Err: err}
	}

	log.WithField("status", status).Debug("frame: transport handshake complete")
	return &Transport{conn: conn, log: log, nonce: nonce}, nil
}

// requireUserID panics if id falls in the reserved transport range —
// spec.md §4.1: "panicking is acceptable on violation (programmer
// error)."
func requireUserID(id LightId) {
	if id < reservedIDCeiling {
		panic("frame: light id below reserved ceiling 1024")
	}
}

// SendControl writes a control frame: kind:u32, id:u32.
func (t *Transport) SendControl(kind ControlKind, id LightId) error {
	if kind == CreateNewConnection || kind == CloseConnection {
		requireUserID(id)
	}
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(kind))
	binary.BigEndian.PutUint32(buf[4:8], id)
	if _, err := t.conn.Write(buf[:]); err != nil {
		return &IOError{Op: "send control", Err: err}
	}
	return nil
}

// SendData writes a data frame header (id:u32, len:u32) followed by the
// payload, byte for byte, no reframing.
func (t *Transport) SendData(id LightId, payload []byte) error {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], id)
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(payload)))
	if _, err := t.conn.Write(hdr[:]); err != nil {
		return &IOError{Op: "send data header", Err: err}
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := t.conn.Write(payload); err != nil {
		return &IOError{Op: "send data payload", Err: err}
	}
	return nil
}

// RecvFrame reads one frame header: a control tuple, or a data header
// whose payload must be consumed next via RecvPayload before the
// following RecvFrame call (spec.md §4.1 rationale).
func (t *Transport) RecvFrame() (Frame, error) {
	var word [4]byte
	if _, err := io.ReadFull(t.conn, word[:]); err != nil {
		return Frame{}, &IOError{Op: "recv frame word", Err: err}
	}
	first := binary.BigEndian.Uint32(word[:])

	var second [4]byte
	if _, err := io.ReadFull(t.conn, second[:]); err != nil {
		return Frame{}, &IOError{Op: "recv frame second word", Err: err}
	}

	if first < reservedIDCeiling {
		id := binary.BigEndian.Uint32(second[:])
		return Frame{Kind: KindControl, ControlKind: ControlKind(first), ControlID: id}, nil
	}
	length := binary.BigEndian.Uint32(second[:])
	return Frame{Kind: KindData, DataID: first, DataLen: length}, nil
}

// RecvPayload reads exactly len bytes; it must be called immediately
// after a Data frame is observed and before the next RecvFrame.
func (t *Transport) RecvPayload(length uint32) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(t.conn, buf); err != nil {
		return nil, &IOError{Op: "recv payload", Err: err}
	}
	return buf, nil
}

// NextNonce returns a nonce derived from the session's seed, distinct
// for each call so that every new client stream gets its own NodeId
// nonce (spec.md §9 design note).
func (t *Transport) NextNonce() uint64 {
	t.nextSeq++
	return t.nonce ^ (t.nextSeq * 0x9E3779B97F4A7C15)
}

// Close tears down the underlying connection.
func (t *Transport) Close() error {
	return t.conn.Close()
}
