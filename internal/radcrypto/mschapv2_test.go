package radcrypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeHashDeterministic(t *testing.T) {
	var authChallenge [16]byte
	for i := range authChallenge {
		authChallenge[i] = byte(i)
	}
	peer, err := NewPeerChallenge()
	require.NoError(t, err)

	h1 := ChallengeHash(peer, authChallenge, "alice")
	h2 := ChallengeHash(peer, authChallenge, "alice")
	assert.Equal(t, h1, h2)

	h3 := ChallengeHash(peer, authChallenge, "bob")
	assert.NotEqual(t, h1, h3)
}

func TestGenerateNTResponseDeterministic(t *testing.T) {
	var authChallenge [16]byte
	peer, err := NewPeerChallenge()
	require.NoError(t, err)

	r1, err := GenerateNTResponse(authChallenge, peer, "alice", "password")
	require.NoError(t, err)
	r2, err := GenerateNTResponse(authChallenge, peer, "alice", "password")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	r3, err := GenerateNTResponse(authChallenge, peer, "alice", "different")
	require.NoError(t, err)
	assert.NotEqual(t, r1, r3)
}

func TestNewChangePasswordBlobsShape(t *testing.T) {
	blobs, err := NewChangePasswordBlobs("oldpass", "newpass")
	require.NoError(t, err)
	assert.Len(t, blobs.EncryptedPassword, 516)
	assert.Len(t, blobs.EncryptedHash, 16)
}

func TestEncryptNewPasswordRejectsOverlong(t *testing.T) {
	oldHash := ntPasswordHash("old")
	huge := make([]byte, 300) // 300 runes -> 600 UTF-16LE bytes > 512
	for i := range huge {
		huge[i] = 'a'
	}
	_, err := encryptNewPassword(oldHash, string(huge))
	require.Error(t, err)
}

func TestEncryptHashProducesTwoDESBlocks(t *testing.T) {
	oldHash := ntPasswordHash("old")
	newHash := ntPasswordHash("new")

	out, err := encryptHash(oldHash, newHash)
	require.NoError(t, err)
	assert.Len(t, out, 16)

	out2, err := encryptHash(oldHash, newHash)
	require.NoError(t, err)
	assert.Equal(t, out, out2)
}
