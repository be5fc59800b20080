package eap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMSCHAPv2PacketEncodeDecode(t *testing.T) {
	m := &MSCHAPv2Packet{OpCode: OpChallenge, MSChapID: 1, Data: []byte{1, 2, 3}}
	raw := m.Encode()

	decoded, err := DecodeMSCHAPv2(raw)
	require.NoError(t, err)
	assert.Equal(t, m.OpCode, decoded.OpCode)
	assert.Equal(t, m.MSChapID, decoded.MSChapID)
	assert.Equal(t, m.Data, decoded.Data)
}

func TestDecodeMSCHAPv2RejectsShort(t *testing.T) {
	_, err := DecodeMSCHAPv2([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeMSCHAPv2RejectsLengthMismatch(t *testing.T) {
	_, err := DecodeMSCHAPv2([]byte{1, 2, 0, 99, 0})
	require.Error(t, err)
}

func TestNewResponseShape(t *testing.T) {
	var peerChallenge [16]byte
	var ntResponse [24]byte
	for i := range peerChallenge {
		peerChallenge[i] = byte(i)
	}
	for i := range ntResponse {
		ntResponse[i] = byte(i + 1)
	}

	p := NewResponse(7, peerChallenge, ntResponse, "alice")
	assert.Equal(t, OpResponse, p.OpCode)
	assert.Equal(t, uint8(7), p.MSChapID)
	assert.Equal(t, uint8(49), p.Data[0])
	assert.Equal(t, peerChallenge[:], p.Data[1:17])
	assert.Equal(t, ntResponse[:], p.Data[25:49])
	assert.Equal(t, "alice", string(p.Data[50:]))
}

func TestNewChangePasswordShape(t *testing.T) {
	var encPwd [516]byte
	var encHash [16]byte
	var peerChallenge [16]byte
	var ntResponse [24]byte
	encHash[0] = 0xAB

	p := NewChangePassword(3, encPwd, encHash, peerChallenge, ntResponse)
	assert.Equal(t, OpChangePassword, p.OpCode)
	assert.Len(t, p.Data, 516+16+16+8+24+2)
	assert.Equal(t, byte(0xAB), p.Data[516])
}

func TestParseFailureMessageSimple(t *testing.T) {
	f, err := ParseFailureMessage([]byte("E=691 R=0 C=00112233445566778899AABBCCDDEEFF V=3 M=Authentication failure"))
	require.NoError(t, err)
	assert.Equal(t, 691, f.ErrorCode)
	assert.False(t, f.Retriable)
	assert.Equal(t, "00112233445566778899AABBCCDDEEFF", f.Challenge)
	assert.Equal(t, 3, f.SoftwareVersion)
	assert.Equal(t, "Authentication failure", f.Message)
}

func TestParseFailureMessageMultiWordMessage(t *testing.T) {
	f, err := ParseFailureMessage([]byte("E=648 R=1 C=AABBCCDD V=3 M=Password Expired, please choose a new one"))
	require.NoError(t, err)
	assert.Equal(t, 648, f.ErrorCode)
	assert.True(t, f.Retriable)
	assert.Equal(t, "Password Expired, please choose a new one", f.Message)
}

func TestParseFailureMessageBadErrorCode(t *testing.T) {
	_, err := ParseFailureMessage([]byte("E=notanumber"))
	require.Error(t, err)
}
