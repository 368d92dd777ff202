// Package bip implements the Basic Imaging Profile cover art client:
// an OBEX session worker and a per-device fetch initiator.
package bip

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// CoverArtResponderUUID is the OBEX target header of the BIP cover art
// responder service.
var CoverArtResponderUUID = uuid.MustParse("7163dd54-4a7e-11e2-b47c-0050c2490048")

// The OBEX type headers of the BIP request kinds.
const (
	TypeImageProperties = "x-bt/img-properties"
	TypeImage           = "x-bt/img-img"
	TypeLinkedThumbnail = "x-bt/img-thm"
)

// The BIP user-defined OBEX header identifiers. The image handle is a
// unicode text header, the image descriptor a byte sequence header.
const (
	TagImageHandle     byte = 0x30
	TagImageDescriptor byte = 0x71
)

// ResponseCode is an OBEX response code.
type ResponseCode byte

// The OBEX response codes surfaced by this client.
const (
	CodeNone               ResponseCode = 0x00
	CodeSuccess            ResponseCode = 0xA0
	CodeBadRequest         ResponseCode = 0xC0
	CodeForbidden          ResponseCode = 0xC3
	CodeNotFound           ResponseCode = 0xC4
	CodeServiceUnavailable ResponseCode = 0xD3
)

// Succeeded reports whether the response code indicates success.
func (c ResponseCode) Succeeded() bool {
	return c == CodeSuccess
}

// GetHeaders holds the headers of one OBEX GET operation. The client
// encodes the profile headers (TagImageHandle, TagImageDescriptor)
// onto the wire.
type GetHeaders struct {
	// Type holds the OBEX type header.
	Type string

	// Handle holds the image handle header value.
	Handle string

	// Descriptor holds the image descriptor header value,
	// an UTF-8 encoded image-descriptor XML document.
	Descriptor []byte
}

// Client describes the OBEX client library this profile runs over.
// Implementations own one transport socket; all calls are synchronous
// and are only ever made from the session worker.
type Client interface {
	// Connect performs the OBEX CONNECT handshake with the provided
	// target header.
	Connect(ctx context.Context, target uuid.UUID) (ResponseCode, error)

	// Get performs an OBEX GET operation and opens the response body
	// for reading. The caller must close the returned reader.
	Get(headers GetHeaders) (io.ReadCloser, ResponseCode, error)

	// Disconnect performs the OBEX DISCONNECT handshake and closes
	// the transport.
	Disconnect() error
}
