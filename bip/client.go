package bip

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"

	"github.com/bluetuith-org/avrcp-controller/api/errorkinds"
)

// The OBEX operation codes, with the final bit set.
const (
	opConnect    byte = 0x80
	opDisconnect byte = 0x81
	opGetFinal   byte = 0x83
	opAbort      byte = 0xFF
)

// The OBEX header identifiers used by this profile. The top two bits
// of an identifier select its wire encoding: unicode text and byte
// sequence headers carry a two-byte length, one-byte and four-byte
// value headers do not.
const (
	hdrType         byte = 0x42
	hdrTarget       byte = 0x46
	hdrBody         byte = 0x48
	hdrEndOfBody    byte = 0x49
	hdrWho          byte = 0x4A
	hdrConnectionID byte = 0xCB
)

const (
	obexVersion byte = 0x10

	// codeContinue is the interim response of a chunked GET.
	codeContinue ResponseCode = 0x90

	// maxPacketLength is the OBEX packet size advertised on CONNECT.
	maxPacketLength uint16 = 0xFFFE
)

// deadliner is the optional deadline surface of the transport socket.
type deadliner interface {
	SetDeadline(t time.Time) error
}

// obexClient is the OBEX client this profile runs over: one transport
// socket, one operation at a time. It implements Client.
type obexClient struct {
	conn io.ReadWriteCloser

	// peerMTU is the peer's advertised maximum packet length.
	peerMTU uint16

	connID    uint32
	hasConnID bool
}

// NewClient returns an OBEX client over a connected transport socket.
// The caller hands over ownership of the socket; Disconnect closes it.
func NewClient(conn io.ReadWriteCloser) Client {
	return &obexClient{conn: conn, peerMTU: 255}
}

// Connect performs the OBEX CONNECT handshake with the provided target
// header and records the returned connection id.
func (c *obexClient) Connect(ctx context.Context, target uuid.UUID) (ResponseCode, error) {
	if d, ok := c.conn.(deadliner); ok {
		if deadline, set := ctx.Deadline(); set {
			d.SetDeadline(deadline)
			defer d.SetDeadline(time.Time{})
		}
	}

	var req bytes.Buffer
	req.Write([]byte{opConnect, 0, 0, obexVersion, 0})
	binary.Write(&req, binary.BigEndian, maxPacketLength)
	writeBytesHeader(&req, hdrTarget, target[:])

	resp, err := c.roundTrip(req.Bytes())
	if err != nil {
		return CodeNone, err
	}

	// CONNECT responses carry version, flags and the peer MTU ahead
	// of the headers.
	if len(resp.fields) < 4 {
		return resp.code, errorkinds.ErrObexConnect
	}
	c.peerMTU = binary.BigEndian.Uint16(resp.fields[2:4])

	if !resp.code.Succeeded() {
		return resp.code, nil
	}

	headers, err := parseHeaders(resp.fields[4:])
	if err != nil {
		return resp.code, err
	}
	if id, ok := headers.fourByte[hdrConnectionID]; ok {
		c.connID = id
		c.hasConnID = true
	}

	return resp.code, nil
}

// Get performs an OBEX GET operation. The response body spans as many
// continue packets as the object needs; the returned reader pulls them
// on demand.
func (c *obexClient) Get(getHeaders GetHeaders) (io.ReadCloser, ResponseCode, error) {
	var req bytes.Buffer
	req.Write([]byte{opGetFinal, 0, 0})
	if c.hasConnID {
		writeFourByteHeader(&req, hdrConnectionID, c.connID)
	}
	writeTypeHeader(&req, getHeaders.Type)
	if getHeaders.Handle != "" {
		writeUnicodeHeader(&req, TagImageHandle, getHeaders.Handle)
	}
	if len(getHeaders.Descriptor) > 0 {
		writeBytesHeader(&req, TagImageDescriptor, getHeaders.Descriptor)
	}

	resp, err := c.roundTrip(req.Bytes())
	if err != nil {
		return nil, CodeNone, err
	}

	headers, err := parseHeaders(resp.fields)
	if err != nil {
		return nil, resp.code, err
	}

	switch resp.code {
	case codeContinue, CodeSuccess:
		return &bodyReader{
			client: c,
			buf:    headers.body,
			done:   resp.code == CodeSuccess,
		}, resp.code, nil
	}

	return nil, resp.code, nil
}

// Disconnect performs the OBEX DISCONNECT handshake and closes the
// transport socket.
func (c *obexClient) Disconnect() error {
	var req bytes.Buffer
	req.Write([]byte{opDisconnect, 0, 0})
	if c.hasConnID {
		writeFourByteHeader(&req, hdrConnectionID, c.connID)
	}

	_, err := c.roundTrip(req.Bytes())

	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}

	return err
}

// response is one parsed OBEX response packet: the code and everything
// after the three-byte packet prefix.
type response struct {
	code   ResponseCode
	fields []byte
}

// roundTrip sends one request packet and reads one response packet.
// The packet length field is fixed up before sending.
func (c *obexClient) roundTrip(packet []byte) (response, error) {
	if len(packet) > int(c.peerMTU) {
		return response{}, fmt.Errorf("obex: packet of %d bytes exceeds peer mtu %d", len(packet), c.peerMTU)
	}
	binary.BigEndian.PutUint16(packet[1:3], uint16(len(packet)))

	if _, err := c.conn.Write(packet); err != nil {
		return response{}, err
	}

	var prefix [3]byte
	if _, err := io.ReadFull(c.conn, prefix[:]); err != nil {
		return response{}, err
	}

	total := int(binary.BigEndian.Uint16(prefix[1:3]))
	if total < len(prefix) {
		return response{}, fmt.Errorf("obex: malformed packet length %d", total)
	}

	fields := make([]byte, total-len(prefix))
	if _, err := io.ReadFull(c.conn, fields); err != nil {
		return response{}, err
	}

	return response{code: ResponseCode(prefix[0]), fields: fields}, nil
}

// headerSet holds the decoded headers of one response packet. Body and
// end-of-body chunks are concatenated.
type headerSet struct {
	body     []byte
	fourByte map[byte]uint32
}

// parseHeaders walks a response packet's header sequence.
func parseHeaders(data []byte) (headerSet, error) {
	headers := headerSet{fourByte: make(map[byte]uint32)}

	for i := 0; i < len(data); {
		hi := data[i]

		switch hi & 0xC0 {
		case 0x00, 0x40: // length-prefixed
			if i+3 > len(data) {
				return headers, fmt.Errorf("obex: truncated header 0x%02X", hi)
			}

			length := int(binary.BigEndian.Uint16(data[i+1 : i+3]))
			if length < 3 || i+length > len(data) {
				return headers, fmt.Errorf("obex: header 0x%02X has invalid length %d", hi, length)
			}

			if hi == hdrBody || hi == hdrEndOfBody {
				headers.body = append(headers.body, data[i+3:i+length]...)
			}
			i += length

		case 0x80: // one-byte value
			if i+2 > len(data) {
				return headers, fmt.Errorf("obex: truncated header 0x%02X", hi)
			}
			i += 2

		case 0xC0: // four-byte value
			if i+5 > len(data) {
				return headers, fmt.Errorf("obex: truncated header 0x%02X", hi)
			}
			headers.fourByte[hi] = binary.BigEndian.Uint32(data[i+1 : i+5])
			i += 5
		}
	}

	return headers, nil
}

// bodyReader streams a GET response body, pulling continue packets
// from the session as the buffered chunk drains.
type bodyReader struct {
	client *obexClient
	buf    []byte
	done   bool
	err    error
}

func (r *bodyReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		if r.done {
			return 0, io.EOF
		}

		if err := r.pull(); err != nil {
			r.err = err
			return 0, err
		}
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]

	return n, nil
}

// pull requests the next body chunk.
func (r *bodyReader) pull() error {
	c := r.client

	var req bytes.Buffer
	req.Write([]byte{opGetFinal, 0, 0})
	if c.hasConnID {
		writeFourByteHeader(&req, hdrConnectionID, c.connID)
	}

	resp, err := c.roundTrip(req.Bytes())
	if err != nil {
		return err
	}

	headers, err := parseHeaders(resp.fields)
	if err != nil {
		return err
	}

	switch resp.code {
	case CodeSuccess:
		r.done = true
	case codeContinue:
	default:
		return fmt.Errorf("obex: get interrupted with response 0x%02X", byte(resp.code))
	}

	r.buf = headers.body

	return nil
}

// Close aborts the operation if the body was not fully drained.
func (r *bodyReader) Close() error {
	if r.done || r.err != nil {
		return nil
	}
	r.done = true

	c := r.client

	var req bytes.Buffer
	req.Write([]byte{opAbort, 0, 0})
	if c.hasConnID {
		writeFourByteHeader(&req, hdrConnectionID, c.connID)
	}

	_, err := c.roundTrip(req.Bytes())

	return err
}

// writeBytesHeader encodes a byte sequence header.
func writeBytesHeader(buf *bytes.Buffer, hi byte, value []byte) {
	buf.WriteByte(hi)
	binary.Write(buf, binary.BigEndian, uint16(len(value)+3))
	buf.Write(value)
}

// writeTypeHeader encodes the Type header, a null-terminated ASCII
// byte sequence.
func writeTypeHeader(buf *bytes.Buffer, value string) {
	buf.WriteByte(hdrType)
	binary.Write(buf, binary.BigEndian, uint16(len(value)+4))
	buf.WriteString(value)
	buf.WriteByte(0)
}

// writeUnicodeHeader encodes a unicode text header as null-terminated
// UTF-16BE.
func writeUnicodeHeader(buf *bytes.Buffer, hi byte, value string) {
	encoded := utf16.Encode([]rune(value))

	buf.WriteByte(hi)
	binary.Write(buf, binary.BigEndian, uint16(len(encoded)*2+2+3))
	for _, unit := range encoded {
		binary.Write(buf, binary.BigEndian, unit)
	}
	buf.Write([]byte{0, 0})
}

// writeFourByteHeader encodes a four-byte value header.
func writeFourByteHeader(buf *bytes.Buffer, hi byte, value uint32) {
	buf.WriteByte(hi)
	binary.Write(buf, binary.BigEndian, value)
}
