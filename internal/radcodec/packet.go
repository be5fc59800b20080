// Package radcodec implements RADIUS datagram framing: packet encode/decode,
// Request-Authenticator generation, Response-Authenticator verification, and
// the Message-Authenticator HMAC-MD5 fixpoint.
//
// Framing layout (RFC 2865 section 3):
//
//	code(1) | identifier(1) | length(2, big-endian) | authenticator(16) | attributes(...)
package radcodec

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/kulaginds/go-radius-client/internal/radattr"
)

// Code is a RADIUS packet code (RFC 2865 section 3). No CoA/DM codes are
// defined.
type Code uint8

const (
	CodeAccessRequest   Code = 1
	CodeAccessAccept    Code = 2
	CodeAccessReject    Code = 3
	CodeAccountingRequest  Code = 4
	CodeAccountingResponse Code = 5
	CodeAccessChallenge Code = 11
	CodeStatusServer    Code = 12
	CodeStatusClient    Code = 13
)

func (c Code) String() string {
	switch c {
	case CodeAccessRequest:
		return "Access-Request"
	case CodeAccessAccept:
		return "Access-Accept"
	case CodeAccessReject:
		return "Access-Reject"
	case CodeAccountingRequest:
		return "Accounting-Request"
	case CodeAccountingResponse:
		return "Accounting-Response"
	case CodeAccessChallenge:
		return "Access-Challenge"
	case CodeStatusServer:
		return "Status-Server"
	case CodeStatusClient:
		return "Status-Client"
	default:
		return fmt.Sprintf("Code(%d)", uint8(c))
	}
}

const (
	headerLen  = 20 // code(1) + identifier(1) + length(2) + authenticator(16)
	minPacket  = 4
	maxPacket  = 65507
)

var (
	// ErrBadPacketSize is returned when the declared or actual packet length
	// is outside the valid RADIUS range.
	ErrBadPacketSize = errors.New("radcodec: bad packet size")
	// ErrTruncatedAttribute is returned when attribute bytes run past the
	// declared packet length.
	ErrTruncatedAttribute = errors.New("radcodec: truncated attribute")
	// ErrAuthenticatorMismatch is returned when a decoded response's
	// Response-Authenticator or Message-Authenticator does not match the
	// expected value.
	ErrAuthenticatorMismatch = errors.New("radcodec: response authenticator mismatch")
	// ErrNoMessageAuthenticator is returned when HMAC fixpoint verification
	// is requested on a packet that carries no Message-Authenticator.
	ErrNoMessageAuthenticator = errors.New("radcodec: no message-authenticator attribute present")
)

// Packet is a decoded or to-be-encoded RADIUS datagram.
type Packet struct {
	Code          Code
	Identifier    uint8
	Authenticator [16]byte
	Attributes    []radattr.Attribute
}

// NewRequestAuthenticator returns 16 cryptographically random octets.
// RFC 2865 permits any value 0-255 per octet, including all-zero; this
// client uses the full range rather than excluding any value.
func NewRequestAuthenticator() ([16]byte, error) {
	var auth [16]byte
	if _, err := rand.Read(auth[:]); err != nil {
		return auth, fmt.Errorf("radcodec: generate request authenticator: %w", err)
	}
	return auth, nil
}

// Encode serializes the packet per RFC 2865 section 3. The Length field
// (header bytes 2-3) is always the exact byte length of the returned slice.
func (p *Packet) Encode() ([]byte, error) {
	attrBytes, err := encodeAttributes(p.Attributes)
	if err != nil {
		return nil, err
	}

	total := headerLen + len(attrBytes)
	if total > maxPacket {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadPacketSize, total)
	}

	out := make([]byte, total)
	out[0] = uint8(p.Code)
	out[1] = p.Identifier
	binary.BigEndian.PutUint16(out[2:4], uint16(total))
	copy(out[4:20], p.Authenticator[:])
	copy(out[20:], attrBytes)

	return out, nil
}

func encodeAttributes(attrs []radattr.Attribute) ([]byte, error) {
	var out []byte
	for _, a := range attrs {
		b, err := a.Encode()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// Decode parses a raw RADIUS datagram. It validates the declared Length
// field against RFC 2865's bounds and against the actual buffer size, and
// rejects any attribute whose length would run past the packet, but does
// not verify the Response-Authenticator — call VerifyResponseAuthenticator
// separately once the shared secret and outgoing Request-Authenticator are
// available.
func Decode(buf []byte) (*Packet, error) {
	if len(buf) < minPacket || len(buf) > maxPacket {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadPacketSize, len(buf))
	}
	if len(buf) < headerLen {
		return nil, fmt.Errorf("%w: header truncated at %d bytes", ErrBadPacketSize, len(buf))
	}

	length := int(binary.BigEndian.Uint16(buf[2:4]))
	if length < headerLen || length > len(buf) {
		return nil, fmt.Errorf("%w: declared length %d, have %d bytes", ErrBadPacketSize, length, len(buf))
	}

	p := &Packet{
		Code:       Code(buf[0]),
		Identifier: buf[1],
	}
	copy(p.Authenticator[:], buf[4:20])

	rest := buf[20:length]
	for len(rest) > 0 {
		attr, n, err := radattr.Decode(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedAttribute, err)
		}
		p.Attributes = append(p.Attributes, attr)
		rest = rest[n:]
	}

	return p, nil
}

// VerifyResponseAuthenticator checks a decoded response packet against the
// Request-Authenticator of the request it answers, per RFC 2865 section 3:
//
//	ResponseAuthenticator == MD5(code || id || length || RequestAuthenticator || attributes || secret)
//
// raw must be the exact bytes Decode was called with (the Response
// Authenticator field is part of the hash input, computed over the
// request's authenticator substituted in its place).
func VerifyResponseAuthenticator(raw []byte, requestAuthenticator [16]byte, secret []byte) error {
	if len(raw) < headerLen {
		return fmt.Errorf("%w: header truncated at %d bytes", ErrBadPacketSize, len(raw))
	}

	h := md5.New()
	h.Write(raw[0:4])
	h.Write(requestAuthenticator[:])
	h.Write(raw[20:])
	h.Write(secret)
	expected := h.Sum(nil)

	if !hmac.Equal(expected, raw[4:20]) {
		return ErrAuthenticatorMismatch
	}
	return nil
}

// FindMessageAuthenticator returns the index of the packet's
// Message-Authenticator attribute within p.Attributes, or -1 if absent.
func (p *Packet) FindMessageAuthenticator() int {
	for i, a := range p.Attributes {
		if a.Type == radattr.TypeMessageAuthenticator {
			return i
		}
	}
	return -1
}

// ApplyMessageAuthenticator computes the Message-Authenticator HMAC-MD5 over
// the packet (RFC 2869 section 5.14) and writes it into the existing
// Message-Authenticator attribute in place. The attribute's current value
// must already be present (any 16 bytes; it is zeroed before hashing).
//
// Build order: zero the 16 octets, serialize the whole packet, HMAC-MD5 the
// serialized bytes with the shared secret, then overwrite the attribute
// value with the digest — the "fixpoint": re-running the same HMAC over the
// packet with the attribute zeroed again reproduces the stored digest.
func (p *Packet) ApplyMessageAuthenticator(secret []byte) error {
	idx := p.FindMessageAuthenticator()
	if idx < 0 {
		return ErrNoMessageAuthenticator
	}

	p.Attributes[idx].Value = make([]byte, 16)

	raw, err := p.Encode()
	if err != nil {
		return err
	}

	mac := hmac.New(md5.New, secret)
	mac.Write(raw)
	p.Attributes[idx].Value = mac.Sum(nil)

	return nil
}

// VerifyMessageAuthenticator recomputes the Message-Authenticator HMAC over
// a decoded response (with its Message-Authenticator attribute zeroed) and
// compares it to the stored value. It is a no-op (returns nil) if the
// response carries no Message-Authenticator attribute.
func VerifyMessageAuthenticator(p *Packet, secret []byte) error {
	idx := p.FindMessageAuthenticator()
	if idx < 0 {
		return nil
	}

	stored := append([]byte(nil), p.Attributes[idx].Value...)

	probe := &Packet{
		Code:          p.Code,
		Identifier:    p.Identifier,
		Authenticator: p.Authenticator,
		Attributes:    append([]radattr.Attribute(nil), p.Attributes...),
	}
	probe.Attributes[idx].Value = make([]byte, 16)

	raw, err := probe.Encode()
	if err != nil {
		return err
	}

	mac := hmac.New(md5.New, secret)
	mac.Write(raw)
	if !hmac.Equal(mac.Sum(nil), stored) {
		return ErrAuthenticatorMismatch
	}
	return nil
}
