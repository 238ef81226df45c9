package frame

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"
)

type fixedNonce struct{ v uint64 }

func (f fixedNonce) Uint64() (uint64, error) { return f.v, nil }

func TestOpenHandshakeOK(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	written := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 16)
		io.ReadFull(server, buf)
		written <- buf
		var status [4]byte
		binary.BigEndian.PutUint32(status[:], 0)
		server.Write(status[:])
	}()

	tr, err := Open(client, fixedNonce{1}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if tr == nil {
		t.Fatal("Open returned nil transport on success")
	}

	got := <-written
	want := make([]byte, 16)
	if !bytes.Equal(got, want) {
		t.Fatalf("handshake write: got %x want %x", got, want)
	}
}

func TestOpenHandshakeRejected(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		buf := make([]byte, 16)
		io.ReadFull(server, buf)
		var status [4]byte
		binary.BigEndian.PutUint32(status[:], 0xFFFFFFFF)
		server.Write(status[:])
		// No further reads expected; give the client a moment to try
		// (it shouldn't) before the pipe is torn down.
		server.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		extra := make([]byte, 1)
		if n, _ := server.Read(extra); n > 0 {
			t.Errorf("transport wrote %d extra bytes after a rejected handshake", n)
		}
	}()

	_, err := Open(client, fixedNonce{1}, nil)
	rejected, ok := err.(*HandshakeRejectedError)
	if !ok {
		t.Fatalf("expected *HandshakeRejectedError, got %v (%T)", err, err)
	}
	if rejected.Code != 0xFFFFFFFF {
		t.Fatalf("unexpected rejection code %#x", rejected.Code)
	}
	<-serverDone
}

func TestRecvFrameControlAndData(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		var buf bytes.Buffer
		var ctlKind, ctlID [4]byte
		binary.BigEndian.PutUint32(ctlKind[:], uint32(CreateNewConnection))
		binary.BigEndian.PutUint32(ctlID[:], 0x401)
		buf.Write(ctlKind[:])
		buf.Write(ctlID[:])

		var dataID, dataLen [4]byte
		binary.BigEndian.PutUint32(dataID[:], 0x401)
		binary.BigEndian.PutUint32(dataLen[:], 3)
		buf.Write(dataID[:])
		buf.Write(dataLen[:])
		buf.WriteString("abc")

		server.Write(buf.Bytes())
	}()

	tr := &Transport{conn: client}

	f1, err := tr.RecvFrame()
	if err != nil {
		t.Fatalf("RecvFrame 1: %v", err)
	}
	if f1.Kind != KindControl || f1.ControlKind != CreateNewConnection || f1.ControlID != 0x401 {
		t.Fatalf("unexpected control frame: %+v", f1)
	}

	f2, err := tr.RecvFrame()
	if err != nil {
		t.Fatalf("RecvFrame 2: %v", err)
	}
	if f2.Kind != KindData || f2.DataID != 0x401 || f2.DataLen != 3 {
		t.Fatalf("unexpected data frame: %+v", f2)
	}
	payload, err := tr.RecvPayload(f2.DataLen)
	if err != nil {
		t.Fatalf("RecvPayload: %v", err)
	}
	if string(payload) != "abc" {
		t.Fatalf("payload: got %q want %q", payload, "abc")
	}
}

func TestNextNonceDistinctPerCall(t *testing.T) {
	tr := &Transport{nonce: 42}
	a := tr.NextNonce()
	b := tr.NextNonce()
	if a == b {
		t.Fatal("NextNonce returned the same value twice in a row")
	}
}

func TestSendControlPanicsOnReservedID(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	tr := &Transport{conn: client}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic sending CreateNewConnection for a reserved id")
		}
	}()
	_ = tr.SendControl(CreateNewConnection, 5)
}
