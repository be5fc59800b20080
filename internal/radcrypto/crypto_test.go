package radcrypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMD4KnownVectors(t *testing.T) {
	// RFC 1320 appendix A.5 test vectors.
	tests := []struct {
		in   string
		want string
	}{
		{"", "31d6cfe0d16ae931b73c59d7e0c089c0"},
		{"abc", "a448017aaf21d8525fc10ae87aa6729d"},
		{"message digest", "d9130a8164549fe818874806e1c7014b"},
	}
	for _, tt := range tests {
		got := hex.EncodeToString(md4Sum([]byte(tt.in)))
		assert.Equal(t, tt.want, got, "md4(%q)", tt.in)
	}
}

func TestObfuscatePAPRoundTrip(t *testing.T) {
	secret := []byte("xyzzy5461")
	auth, err := randomBytes(16)
	require.NoError(t, err)
	var a [16]byte
	copy(a[:], auth)

	cipher := ObfuscatePAP("hello world", secret, a)
	assert.Equal(t, 0, len(cipher)%16)

	plain := DeobfuscatePAP(cipher, secret, a)
	assert.Equal(t, "hello world", plain)
}

func TestObfuscatePAPMultiBlock(t *testing.T) {
	secret := []byte("secret")
	var auth [16]byte
	password := "this password is definitely longer than sixteen octets"

	cipher := ObfuscatePAP(password, secret, auth)
	assert.Equal(t, 0, len(cipher)%16)
	assert.Equal(t, password, DeobfuscatePAP(cipher, secret, auth))
}

func TestCHAPResponseDeterministic(t *testing.T) {
	var auth [16]byte
	for i := range auth {
		auth[i] = byte(i)
	}
	r1 := CHAPResponse(7, "password", auth)
	r2 := CHAPResponse(7, "password", auth)
	assert.Equal(t, r1, r2)

	r3 := CHAPResponse(8, "password", auth)
	assert.NotEqual(t, r1, r3)
}

func TestMSCHAPv1ResponseShape(t *testing.T) {
	challenge, err := NewMSCHAPv1Challenge()
	require.NoError(t, err)

	resp, err := MSCHAPv1Response(challenge, "password")
	require.NoError(t, err)
	require.Len(t, resp, 2+24+24)
	assert.Equal(t, byte(0x00), resp[0])
	assert.Equal(t, byte(0x01), resp[1])

	// LAN Manager response bytes are left zero; only the NT response is set.
	assert.Equal(t, make([]byte, 24), resp[2:26])
	assert.NotEqual(t, make([]byte, 24), resp[26:50])
}

func TestNTChallengeResponseDeterministic(t *testing.T) {
	challenge := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	hash := ntPasswordHash("password")

	r1, err := ntChallengeResponse(challenge, hash)
	require.NoError(t, err)
	r2, err := ntChallengeResponse(challenge, hash)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
	assert.Len(t, r1, 24)
}

func TestExpandDESKeyHasOddParity(t *testing.T) {
	key7 := [7]byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD}
	key8 := expandDESKey(key7)

	for _, b := range key8 {
		ones := 0
		for i := 0; i < 8; i++ {
			if b&(1<<i) != 0 {
				ones++
			}
		}
		assert.Equal(t, 1, ones%2, "byte %08b should have odd parity", b)
	}
}
