package eap

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// OpCode is the MS-CHAP v2 sub-packet opcode carried in EAP type-data.
type OpCode uint8

const (
	OpChallenge      OpCode = 1
	OpResponse       OpCode = 2
	OpSuccess        OpCode = 3
	OpFailure        OpCode = 4
	OpChangePassword OpCode = 7
)

const subHeaderLen = 4 // opcode(1) | msChapID(1) | msLength(2) | data...

// MSCHAPv2Packet is one MS-CHAP v2 sub-packet, carried as the TypeData of
// an EAP TypeMSCHAPv2 frame.
type MSCHAPv2Packet struct {
	OpCode   OpCode
	MSChapID uint8
	Data     []byte
}

// Encode serializes the sub-packet: opcode(1) | ms-chap-id(1) |
// ms-length(2, big-endian, = 4+len(data)) | data.
func (m *MSCHAPv2Packet) Encode() []byte {
	total := subHeaderLen + len(m.Data)
	out := make([]byte, total)
	out[0] = byte(m.OpCode)
	out[1] = m.MSChapID
	binary.BigEndian.PutUint16(out[2:4], uint16(total))
	copy(out[4:], m.Data)
	return out
}

// DecodeMSCHAPv2 parses an MS-CHAP v2 sub-packet out of an EAP frame's
// type-data.
func DecodeMSCHAPv2(buf []byte) (*MSCHAPv2Packet, error) {
	if len(buf) < subHeaderLen {
		return nil, fmt.Errorf("eap: mschapv2 sub-packet shorter than header (%d bytes)", len(buf))
	}
	length := binary.BigEndian.Uint16(buf[2:4])
	if int(length) != len(buf) {
		return nil, fmt.Errorf("eap: mschapv2 ms-length %d does not match sub-packet size %d", length, len(buf))
	}
	return &MSCHAPv2Packet{
		OpCode:   OpCode(buf[0]),
		MSChapID: buf[1],
		Data:     append([]byte(nil), buf[4:]...),
	}, nil
}

// There is no builder for OpChallenge sub-packets (those travel
// server->client); a peer only builds NewResponse and NewChangePassword.

// NewResponse builds an OpResponse sub-packet: 1-byte value-size (49) |
// 16-byte peer challenge | 8 reserved zero bytes | 24-byte NT response |
// 1 flags byte | name.
func NewResponse(msChapID uint8, peerChallenge [16]byte, ntResponse [24]byte, name string) *MSCHAPv2Packet {
	data := make([]byte, 1+16+8+24+1+len(name))
	data[0] = 49
	copy(data[1:17], peerChallenge[:])
	// data[17:25] stays zero (reserved)
	copy(data[25:49], ntResponse[:])
	data[49] = 0
	copy(data[50:], name)

	return &MSCHAPv2Packet{OpCode: OpResponse, MSChapID: msChapID, Data: data}
}

// NewChangePassword builds an OpChangePassword sub-packet per RFC 2759
// section 8.7: 516-byte encrypted-password | 16-byte encrypted-hash |
// 16-byte peer challenge | 8 reserved zero bytes | 24-byte NT response |
// 2 flag bytes.
func NewChangePassword(msChapID uint8, encryptedPassword [516]byte, encryptedHash [16]byte, peerChallenge [16]byte, ntResponse [24]byte) *MSCHAPv2Packet {
	data := make([]byte, 516+16+16+8+24+2)
	off := 0
	copy(data[off:], encryptedPassword[:])
	off += 516
	copy(data[off:], encryptedHash[:])
	off += 16
	copy(data[off:], peerChallenge[:])
	off += 16 + 8 // peer challenge + reserved
	copy(data[off:], ntResponse[:])
	off += 24
	// trailing 2 flag bytes stay zero

	return &MSCHAPv2Packet{OpCode: OpChangePassword, MSChapID: msChapID, Data: data}
}

// Failure describes a parsed MS-CHAP v2 OpFailure message field, of the
// form "E=eeeeeeeeee R=r C=cccccccccccccccc V=vvvvvvvvvv M=<msg>".
type Failure struct {
	ErrorCode      int
	Retriable      bool
	Challenge      string
	SoftwareVersion int
	Message        string
}

// ParseFailureMessage decodes the textual Data of an OpFailure sub-packet.
// The M= field runs to the end of the string and may itself contain
// spaces, so it is split off separately from the preceding space-separated
// E=/R=/C=/V= fields.
func ParseFailureMessage(data []byte) (Failure, error) {
	var f Failure
	text := string(data)

	head := text
	if idx := strings.Index(text, "M="); idx >= 0 {
		head = text[:idx]
		f.Message = text[idx+2:]
	}

	for _, field := range strings.Fields(head) {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "E":
			n, err := strconv.Atoi(kv[1])
			if err != nil {
				return f, fmt.Errorf("eap: bad E= field %q: %w", kv[1], err)
			}
			f.ErrorCode = n
		case "R":
			f.Retriable = kv[1] == "1"
		case "C":
			f.Challenge = kv[1]
		case "V":
			n, err := strconv.Atoi(kv[1])
			if err != nil {
				return f, fmt.Errorf("eap: bad V= field %q: %w", kv[1], err)
			}
			f.SoftwareVersion = n
		}
	}
	return f, nil
}
