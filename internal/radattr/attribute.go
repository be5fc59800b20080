// Package radattr implements the RADIUS attribute value model: the
// type-length-value encoding from RFC 2865 section 5, and the small set of
// attribute formats (Text, String, Address, Integer, Time) the client needs.
package radattr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// Format tags the wire representation of an attribute's value.
//
//	Taken from https://tools.ietf.org/html/rfc2865#section-5
type Format int

const (
	// Text is a UTF-8 string, 1-253 octets (e.g. User-Name).
	Text Format = iota
	// String is an opaque binary blob, 1-253 octets (e.g. User-Password,
	// CHAP-Password, State, EAP-Message).
	String
	// Address is a 4-octet IPv4 address in network byte order.
	Address
	// Integer is a 4-octet big-endian unsigned integer.
	Integer
	// Time is a 4-octet big-endian Unix epoch timestamp.
	Time
)

// Well-known RFC 2865 attribute types this client produces or consumes.
const (
	TypeUserName          uint8 = 1
	TypeUserPassword      uint8 = 2
	TypeCHAPPassword      uint8 = 3
	TypeNASIPAddress      uint8 = 4
	TypeNASPort           uint8 = 5
	TypeServiceType       uint8 = 6
	TypeCHAPChallenge     uint8 = 60
	TypeState             uint8 = 24
	TypeVendorSpecific    uint8 = 26
	TypeEAPMessage        uint8 = 79
	TypeMessageAuthenticator uint8 = 80
)

// Microsoft vendor ID and the two vendor-specific sub-types MS-CHAP needs.
const (
	VendorMicrosoft        uint32 = 311
	VendorTypeMSCHAPResponse  uint8 = 1  // MS-CHAP-Response / MS-CHAP2-Response
	VendorTypeMSCHAPChallenge uint8 = 11 // MS-CHAP-Challenge
)

// ServiceTypeLogin is the Service-Type value (1) used for interactive login.
const ServiceTypeLogin uint32 = 1

// maxValueLen is the largest value a single TLV attribute can carry
// (255 - 2 bytes of type/length header).
const maxValueLen = 253

var (
	// ErrValueTooLong is returned when a Text/String value exceeds 253 octets.
	ErrValueTooLong = errors.New("radattr: value exceeds 253 octets")
	// ErrBadAddress is returned when an Address-typed value isn't 4 octets.
	ErrBadAddress = errors.New("radattr: address value must be 4 octets")
	// ErrBadInteger is returned when an Integer/Time-typed value isn't 4 octets.
	ErrBadInteger = errors.New("radattr: integer value must be 4 octets")
)

// Attribute is a single decoded or to-be-encoded RADIUS attribute. Equality
// is by raw bytes: two attributes with the same Type and Value are equal
// regardless of how they were constructed.
type Attribute struct {
	Type  uint8
	Value []byte
}

// New builds a Text or String attribute directly from raw bytes.
func New(typ uint8, value []byte) (Attribute, error) {
	if len(value) > maxValueLen {
		return Attribute{}, fmt.Errorf("%w: type %d has %d bytes", ErrValueTooLong, typ, len(value))
	}
	return Attribute{Type: typ, Value: append([]byte(nil), value...)}, nil
}

// NewText builds a Text attribute (User-Name, etc.) from a Go string.
func NewText(typ uint8, s string) (Attribute, error) {
	return New(typ, []byte(s))
}

// NewAddress builds an Address attribute from a dotted-decimal IPv4 string.
func NewAddress(typ uint8, ipv4 string) (Attribute, error) {
	ip := net.ParseIP(ipv4)
	if ip == nil {
		return Attribute{}, fmt.Errorf("%w: %q is not an IP address", ErrBadAddress, ipv4)
	}
	v4 := ip.To4()
	if v4 == nil {
		return Attribute{}, fmt.Errorf("%w: %q is not IPv4", ErrBadAddress, ipv4)
	}
	return Attribute{Type: typ, Value: append([]byte(nil), v4...)}, nil
}

// NewInteger builds a 32-bit big-endian Integer attribute.
func NewInteger(typ uint8, value uint32) Attribute {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, value)
	return Attribute{Type: typ, Value: buf}
}

// NewTime builds a 32-bit big-endian Unix-epoch Time attribute. Encode and
// decode share the same 4-byte big-endian layout as Integer, so both
// directions come for free once the Integer codec exists.
func NewTime(typ uint8, unixSeconds uint32) Attribute {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, unixSeconds)
	return Attribute{Type: typ, Value: buf}
}

// Text returns the attribute's value interpreted as a UTF-8 string.
func (a Attribute) Text() string {
	return string(a.Value)
}

// AddressString returns the attribute's value interpreted as a dotted
// IPv4 address, or ok=false if the value isn't exactly 4 octets.
func (a Attribute) AddressString() (string, bool) {
	if len(a.Value) != 4 {
		return "", false
	}
	return net.IPv4(a.Value[0], a.Value[1], a.Value[2], a.Value[3]).String(), true
}

// Integer returns the attribute's value interpreted as a 32-bit big-endian
// unsigned integer, or ok=false if the value isn't exactly 4 octets.
func (a Attribute) Integer() (uint32, bool) {
	if len(a.Value) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(a.Value), true
}

// Time returns the attribute's value interpreted as a 32-bit big-endian
// Unix timestamp, or ok=false if the value isn't exactly 4 octets.
func (a Attribute) Time() (uint32, bool) {
	return a.Integer()
}

// Multivalued reports whether attributes of this type are allowed to
// appear more than once in a packet (Vendor-Specific and EAP-Message are
// appended rather than replaced when set through a per-transaction
// attribute list; every other type is single-valued).
func Multivalued(typ uint8) bool {
	return typ == TypeVendorSpecific || typ == TypeEAPMessage
}

// Encode serializes the attribute as type(1) | length(1) | value(len).
func (a Attribute) Encode() ([]byte, error) {
	if len(a.Value) > maxValueLen {
		return nil, fmt.Errorf("%w: type %d has %d bytes", ErrValueTooLong, a.Type, len(a.Value))
	}
	out := make([]byte, 2+len(a.Value))
	out[0] = a.Type
	out[1] = uint8(2 + len(a.Value))
	copy(out[2:], a.Value)
	return out, nil
}

// SplitEAPMessage builds the ordered sequence of EAP-Message attributes
// needed to carry data, splitting it into ceil(len(data)/253) chunks of at
// most 253 octets each, the maximum RADIUS attribute value size (RFC 2865
// section 5, 255-byte attribute minus the 2-byte type/length header).
func SplitEAPMessage(data []byte) []Attribute {
	if len(data) == 0 {
		return []Attribute{{Type: TypeEAPMessage, Value: []byte{}}}
	}
	var attrs []Attribute
	for len(data) > 0 {
		n := len(data)
		if n > maxValueLen {
			n = maxValueLen
		}
		attrs = append(attrs, Attribute{Type: TypeEAPMessage, Value: append([]byte(nil), data[:n]...)})
		data = data[n:]
	}
	return attrs
}

// JoinEAPMessages concatenates every EAP-Message attribute's value, in
// order, reconstructing the original EAP frame bytes.
func JoinEAPMessages(attrs []Attribute) []byte {
	var out []byte
	for _, a := range attrs {
		if a.Type == TypeEAPMessage {
			out = append(out, a.Value...)
		}
	}
	return out
}

// Decode reads one attribute TLV from the front of buf and returns it along
// with the number of bytes consumed.
func Decode(buf []byte) (Attribute, int, error) {
	if len(buf) < 2 {
		return Attribute{}, 0, errors.New("radattr: truncated attribute header")
	}
	length := int(buf[1])
	if length < 2 || length > len(buf) {
		return Attribute{}, 0, fmt.Errorf("radattr: invalid attribute length %d", length)
	}
	return Attribute{Type: buf[0], Value: append([]byte(nil), buf[2:length]...)}, length, nil
}
