package bip

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"
)

// scriptConn is an in-memory transport socket serving canned response
// packets.
type scriptConn struct {
	reads  bytes.Buffer
	writes [][]byte
	closed bool
}

func (c *scriptConn) queue(packet []byte) {
	c.reads.Write(packet)
}

func (c *scriptConn) Read(p []byte) (int, error) {
	return c.reads.Read(p)
}

func (c *scriptConn) Write(p []byte) (int, error) {
	c.writes = append(c.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (c *scriptConn) Close() error {
	c.closed = true
	return nil
}

// respPacket assembles one response packet with a fixed-up length
// field.
func respPacket(code ResponseCode, fields ...[]byte) []byte {
	packet := []byte{byte(code), 0, 0}
	for _, field := range fields {
		packet = append(packet, field...)
	}
	binary.BigEndian.PutUint16(packet[1:3], uint16(len(packet)))

	return packet
}

// bodyHeader assembles a Body or End-of-Body header.
func bodyHeader(hi byte, chunk []byte) []byte {
	header := []byte{hi, 0, 0}
	header = append(header, chunk...)
	binary.BigEndian.PutUint16(header[1:3], uint16(len(header)))

	return header
}

func connectFields(mtu uint16, headers ...[]byte) []byte {
	fields := []byte{obexVersion, 0, byte(mtu >> 8), byte(mtu)}
	for _, header := range headers {
		fields = append(fields, header...)
	}

	return fields
}

func TestClientConnect(t *testing.T) {
	conn := &scriptConn{}
	conn.queue(respPacket(CodeSuccess, connectFields(
		0x2000,
		[]byte{0xCB, 0xDE, 0xAD, 0xBE, 0xEF},
	)))

	client := NewClient(conn)
	code, err := client.Connect(context.Background(), CoverArtResponderUUID)
	if err != nil {
		t.Fatalf("cannot connect: %v", err)
	}
	if !code.Succeeded() {
		t.Fatalf("expected a success response, got 0x%02X", byte(code))
	}

	if len(conn.writes) != 1 {
		t.Fatalf("expected 1 request packet, got %d", len(conn.writes))
	}

	request := conn.writes[0]
	if request[0] != 0x80 {
		t.Errorf("expected a CONNECT opcode, got 0x%02X", request[0])
	}
	if int(binary.BigEndian.Uint16(request[1:3])) != len(request) {
		t.Error("expected the packet length field to match the packet size")
	}
	if !bytes.Contains(request, CoverArtResponderUUID[:]) {
		t.Error("expected the target header to carry the responder UUID")
	}

	oc := client.(*obexClient)
	if oc.peerMTU != 0x2000 {
		t.Errorf("expected the peer MTU to be recorded, got %d", oc.peerMTU)
	}
	if !oc.hasConnID || oc.connID != 0xDEADBEEF {
		t.Errorf("expected the connection id to be recorded, got %08X", oc.connID)
	}
}

func TestClientConnectRefused(t *testing.T) {
	conn := &scriptConn{}
	conn.queue(respPacket(CodeForbidden, connectFields(0x2000)))

	client := NewClient(conn)
	code, err := client.Connect(context.Background(), CoverArtResponderUUID)
	if err != nil {
		t.Fatalf("cannot connect: %v", err)
	}
	if code.Succeeded() {
		t.Error("expected a refused connection")
	}
}

func TestClientGet(t *testing.T) {
	conn := &scriptConn{}
	conn.queue(respPacket(CodeSuccess, connectFields(
		0x2000,
		[]byte{0xCB, 0x00, 0x00, 0x00, 0x07},
	)))
	conn.queue(respPacket(codeContinue, bodyHeader(hdrBody, []byte("chunk-one-"))))
	conn.queue(respPacket(CodeSuccess, bodyHeader(hdrEndOfBody, []byte("chunk-two"))))

	client := NewClient(conn)
	if _, err := client.Connect(context.Background(), CoverArtResponderUUID); err != nil {
		t.Fatalf("cannot connect: %v", err)
	}

	body, code, err := client.Get(GetHeaders{
		Type:       "x-bt/img-img",
		Handle:     "1000001",
		Descriptor: []byte("<image-descriptor/>"),
	})
	if err != nil {
		t.Fatalf("cannot get: %v", err)
	}
	if code != codeContinue {
		t.Fatalf("expected an interim response, got 0x%02X", byte(code))
	}

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("cannot read body: %v", err)
	}
	if string(data) != "chunk-one-chunk-two" {
		t.Errorf("expected the concatenated body, got %q", data)
	}
	if err := body.Close(); err != nil {
		t.Errorf("cannot close a drained body: %v", err)
	}

	request := conn.writes[1]
	if request[0] != 0x83 {
		t.Errorf("expected a final GET opcode, got 0x%02X", request[0])
	}
	if !bytes.Contains(request, []byte{0xCB, 0x00, 0x00, 0x00, 0x07}) {
		t.Error("expected the connection id header on the request")
	}
	if !bytes.Contains(request, append([]byte("x-bt/img-img"), 0)) {
		t.Error("expected a null-terminated type header")
	}

	// The image handle is null-terminated UTF-16BE.
	handle := []byte{0, '1', 0, '0', 0, '0', 0, '0', 0, '0', 0, '0', 0, '1', 0, 0}
	if !bytes.Contains(request, handle) {
		t.Error("expected a UTF-16BE image handle header")
	}

	// Only the first continue packet requests more body.
	if len(conn.writes) != 3 {
		t.Errorf("expected 3 request packets, got %d", len(conn.writes))
	}
}

func TestClientGetAbort(t *testing.T) {
	conn := &scriptConn{}
	conn.queue(respPacket(codeContinue, bodyHeader(hdrBody, []byte("partial"))))
	conn.queue(respPacket(CodeSuccess))

	client := NewClient(conn)
	body, _, err := client.Get(GetHeaders{Type: "x-bt/img-thm"})
	if err != nil {
		t.Fatalf("cannot get: %v", err)
	}

	if err := body.Close(); err != nil {
		t.Fatalf("cannot abort: %v", err)
	}

	abort := conn.writes[len(conn.writes)-1]
	if abort[0] != 0xFF {
		t.Errorf("expected an ABORT opcode, got 0x%02X", abort[0])
	}
}

func TestClientDisconnect(t *testing.T) {
	conn := &scriptConn{}
	conn.queue(respPacket(CodeSuccess))

	client := NewClient(conn)
	if err := client.Disconnect(); err != nil {
		t.Fatalf("cannot disconnect: %v", err)
	}

	if conn.writes[0][0] != 0x81 {
		t.Errorf("expected a DISCONNECT opcode, got 0x%02X", conn.writes[0][0])
	}
	if !conn.closed {
		t.Error("expected the transport socket to be closed")
	}
}

func TestParseHeadersTruncated(t *testing.T) {
	for _, data := range [][]byte{
		{hdrBody, 0x00},
		{hdrBody, 0x00, 0x02},
		{hdrBody, 0xFF, 0xFF},
		{0xCB, 0x00, 0x00},
	} {
		if _, err := parseHeaders(data); err == nil {
			t.Errorf("expected truncated headers % X to fail", data)
		}
	}
}
