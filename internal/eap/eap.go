// Package eap implements the pieces of RFC 3748 (Extensible Authentication
// Protocol) this client needs to carry MS-CHAP v2 inside RADIUS
// EAP-Message attributes: the EAP header codec, Identity/NAK/Success/
// Failure frames, and the EAP-MSCHAPv2 (RFC 2759 / draft-kamath) sub-packet
// format.
package eap

import (
	"encoding/binary"
	"fmt"
)

// Code is the EAP frame's outermost code field.
type Code uint8

const (
	CodeRequest  Code = 1
	CodeResponse Code = 2
	CodeSuccess  Code = 3
	CodeFailure  Code = 4
)

// Type is the EAP Request/Response type field.
type Type uint8

const (
	TypeIdentity     Type = 1
	TypeNotification Type = 2
	TypeNAK          Type = 3
	TypeMD5Challenge Type = 4
	TypeOTP          Type = 5
	TypeGenericToken Type = 6
	TypePEAP         Type = 25
	TypeMSCHAPv2     Type = 26

	minHeaderLen = 4
	maxPacketLen = 1020 // generous bound; RADIUS splitting handles the rest
)

// Packet is a single decoded EAP frame. Type and TypeData are only
// meaningful for CodeRequest/CodeResponse; Success/Failure carry no body.
type Packet struct {
	Code     Code
	Identifier uint8
	Type     Type
	TypeData []byte
}

// Encode serializes p per RFC 3748 section 4: code(1) | identifier(1) |
// length(2) | [type(1) | type-data] for Request/Response.
func (p *Packet) Encode() ([]byte, error) {
	bodyLen := 0
	if p.Code == CodeRequest || p.Code == CodeResponse {
		bodyLen = 1 + len(p.TypeData)
	}
	total := minHeaderLen + bodyLen
	if total > maxPacketLen {
		return nil, fmt.Errorf("eap: packet too large (%d bytes)", total)
	}

	out := make([]byte, total)
	out[0] = byte(p.Code)
	out[1] = p.Identifier
	binary.BigEndian.PutUint16(out[2:4], uint16(total))
	if bodyLen > 0 {
		out[4] = byte(p.Type)
		copy(out[5:], p.TypeData)
	}
	return out, nil
}

// Decode parses one EAP frame from buf.
func Decode(buf []byte) (*Packet, error) {
	if len(buf) < minHeaderLen {
		return nil, fmt.Errorf("eap: frame shorter than header (%d bytes)", len(buf))
	}
	length := binary.BigEndian.Uint16(buf[2:4])
	if int(length) != len(buf) {
		return nil, fmt.Errorf("eap: declared length %d does not match frame size %d", length, len(buf))
	}

	p := &Packet{
		Code:       Code(buf[0]),
		Identifier: buf[1],
	}
	switch p.Code {
	case CodeRequest, CodeResponse:
		if len(buf) < minHeaderLen+1 {
			return nil, fmt.Errorf("eap: request/response frame missing type octet")
		}
		p.Type = Type(buf[4])
		p.TypeData = append([]byte(nil), buf[5:]...)
	case CodeSuccess, CodeFailure:
		// no body
	default:
		return nil, fmt.Errorf("eap: unknown code %d", buf[0])
	}
	return p, nil
}

// NewIdentityResponse builds a Response/Identity frame carrying username.
func NewIdentityResponse(identifier uint8, username string) *Packet {
	return &Packet{
		Code:       CodeResponse,
		Identifier: identifier,
		Type:       TypeIdentity,
		TypeData:   []byte(username),
	}
}

// NewNAK builds a Response/Nak frame proposing the single desired auth
// type (draft-kamath PEAP-then-MSCHAPv2 fallback uses this to reject
// unwanted methods offered by the server).
func NewNAK(identifier uint8, desired Type) *Packet {
	return &Packet{
		Code:       CodeResponse,
		Identifier: identifier,
		Type:       TypeNAK,
		TypeData:   []byte{byte(desired)},
	}
}
