package radcodec

import (
	"crypto/hmac"
	"crypto/md5"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulaginds/go-radius-client/internal/radattr"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	userAttr, err := radattr.NewText(radattr.TypeUserName, "alice")
	require.NoError(t, err)

	auth, err := NewRequestAuthenticator()
	require.NoError(t, err)

	pkt := &Packet{
		Code:          CodeAccessRequest,
		Identifier:    42,
		Authenticator: auth,
		Attributes:    []radattr.Attribute{userAttr},
	}

	raw, err := pkt.Encode()
	require.NoError(t, err)

	// Length field law: declared length is always the exact wire size.
	declared := int(raw[2])<<8 | int(raw[3])
	assert.Equal(t, len(raw), declared)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, pkt.Code, decoded.Code)
	assert.Equal(t, pkt.Identifier, decoded.Identifier)
	assert.Equal(t, pkt.Authenticator, decoded.Authenticator)
	require.Len(t, decoded.Attributes, 1)
	assert.Equal(t, "alice", decoded.Attributes[0].Text())
}

func TestDecodeRejectsBadSizes(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrBadPacketSize)

	_, err = Decode(make([]byte, 10))
	require.ErrorIs(t, err, ErrBadPacketSize)
}

func TestDecodeRejectsBadDeclaredLength(t *testing.T) {
	buf := make([]byte, 20)
	buf[2] = 0
	buf[3] = 5 // shorter than header
	_, err := Decode(buf)
	require.ErrorIs(t, err, ErrBadPacketSize)
}

func TestVerifyResponseAuthenticator(t *testing.T) {
	secret := []byte("sharedsecret")
	reqAuth, err := NewRequestAuthenticator()
	require.NoError(t, err)

	resp := &Packet{
		Code:       CodeAccessAccept,
		Identifier: 7,
	}
	raw, err := resp.Encode()
	require.NoError(t, err)

	h := md5.New()
	h.Write(raw[0:4])
	h.Write(reqAuth[:])
	h.Write(raw[20:])
	h.Write(secret)
	copy(raw[4:20], h.Sum(nil))

	require.NoError(t, VerifyResponseAuthenticator(raw, reqAuth, secret))

	raw[4] ^= 0xFF
	require.ErrorIs(t, VerifyResponseAuthenticator(raw, reqAuth, secret), ErrAuthenticatorMismatch)
}

func TestMessageAuthenticatorFixpoint(t *testing.T) {
	secret := []byte("sharedsecret")
	auth, err := NewRequestAuthenticator()
	require.NoError(t, err)

	userAttr, err := radattr.NewText(radattr.TypeUserName, "bob")
	require.NoError(t, err)

	pkt := &Packet{
		Code:          CodeAccessRequest,
		Identifier:    1,
		Authenticator: auth,
		Attributes: []radattr.Attribute{
			userAttr,
			{Type: radattr.TypeMessageAuthenticator, Value: make([]byte, 16)},
		},
	}

	require.NoError(t, pkt.ApplyMessageAuthenticator(secret))

	idx := pkt.FindMessageAuthenticator()
	require.GreaterOrEqual(t, idx, 0)
	stored := append([]byte(nil), pkt.Attributes[idx].Value...)
	assert.Len(t, stored, 16)

	// Fixpoint: zeroing and rehashing reproduces the same digest.
	probe := &Packet{
		Code:          pkt.Code,
		Identifier:    pkt.Identifier,
		Authenticator: pkt.Authenticator,
		Attributes:    append([]radattr.Attribute(nil), pkt.Attributes...),
	}
	probe.Attributes[idx].Value = make([]byte, 16)
	raw, err := probe.Encode()
	require.NoError(t, err)
	mac := hmac.New(md5.New, secret)
	mac.Write(raw)
	assert.Equal(t, mac.Sum(nil), stored)

	require.NoError(t, VerifyMessageAuthenticator(pkt, secret))

	pkt.Attributes[idx].Value[0] ^= 0xFF
	require.ErrorIs(t, VerifyMessageAuthenticator(pkt, secret), ErrAuthenticatorMismatch)
}

func TestApplyMessageAuthenticatorRequiresAttribute(t *testing.T) {
	pkt := &Packet{Code: CodeAccessRequest, Identifier: 1}
	require.ErrorIs(t, pkt.ApplyMessageAuthenticator([]byte("secret")), ErrNoMessageAuthenticator)
}

func TestVerifyMessageAuthenticatorNoOpWhenAbsent(t *testing.T) {
	pkt := &Packet{Code: CodeAccessAccept, Identifier: 1}
	require.NoError(t, VerifyMessageAuthenticator(pkt, []byte("secret")))
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "Access-Request", CodeAccessRequest.String())
	assert.Equal(t, "Access-Challenge", CodeAccessChallenge.String())
	assert.Contains(t, Code(99).String(), "99")
}
