package radattr

import (
	"encoding/binary"
	"fmt"
)

// VendorSub is one decoded Microsoft vendor-specific sub-attribute, as
// carried inside a type-26 (Vendor-Specific) attribute's value.
type VendorSub struct {
	VendorID   uint32
	VendorType uint8
	Value      []byte
}

// NewVendorSpecific builds a type-26 Vendor-Specific attribute wrapping one
// Microsoft sub-attribute, per RFC 2865 section 5.26:
//
//	26 | length | vendor-id(4, big-endian) | vendor-type(1) | vendor-length(1) | data
func NewVendorSpecific(vendorID uint32, vendorType uint8, value []byte) (Attribute, error) {
	if len(value) > maxValueLen-6 {
		return Attribute{}, fmt.Errorf("%w: vendor sub-attribute %d has %d bytes", ErrValueTooLong, vendorType, len(value))
	}
	buf := make([]byte, 6+len(value))
	binary.BigEndian.PutUint32(buf[0:4], vendorID)
	buf[4] = vendorType
	buf[5] = uint8(2 + len(value))
	copy(buf[6:], value)
	return Attribute{Type: TypeVendorSpecific, Value: buf}, nil
}

// DecodeVendorSpecific unpacks every Microsoft sub-attribute carried inside
// a type-26 attribute's value.
//
// vendorLength here follows the same convention as the outer attribute
// length (RFC 2865 section 5): it is 2 + len(data), covering the
// sub-attribute's own type and length octets. A decoder that instead
// treats vendorLength as data-only and advances its scan offset by
// vendorLength alone walks one sub-attribute's type/length bytes into the
// next sub-attribute's data, misparsing any Vendor-Specific value carrying
// more than one sub-attribute. Advancing by vendorLength (the full TLV
// size, as computed here) avoids that.
func DecodeVendorSpecific(value []byte) ([]VendorSub, error) {
	if len(value) < 4 {
		return nil, fmt.Errorf("radattr: vendor-specific value too short (%d bytes)", len(value))
	}
	vendorID := binary.BigEndian.Uint32(value[0:4])
	rest := value[4:]

	var subs []VendorSub
	for len(rest) > 0 {
		if len(rest) < 2 {
			return nil, fmt.Errorf("radattr: truncated vendor sub-attribute header")
		}
		vendorType := rest[0]
		vendorLength := int(rest[1])
		if vendorLength < 2 || vendorLength > len(rest) {
			return nil, fmt.Errorf("radattr: invalid vendor sub-attribute length %d", vendorLength)
		}
		subs = append(subs, VendorSub{
			VendorID:   vendorID,
			VendorType: vendorType,
			Value:      append([]byte(nil), rest[2:vendorLength]...),
		})
		rest = rest[vendorLength:]
	}
	return subs, nil
}
