package radcrypto

import (
	"crypto/rc4"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
)

// PeerChallenge is the 16-byte client-generated challenge RFC 2759 calls
// the "peer challenge".
type PeerChallenge [16]byte

// NewPeerChallenge generates a fresh random MS-CHAP v2 peer challenge.
func NewPeerChallenge() (PeerChallenge, error) {
	var c PeerChallenge
	b, err := randomBytes(16)
	if err != nil {
		return c, err
	}
	copy(c[:], b)
	return c, nil
}

// ChallengeHash implements RFC 2759 section 8.2 (GenerateChallengeHash):
// SHA1(peerChallenge || authChallenge || username)[0:8].
func ChallengeHash(peerChallenge PeerChallenge, authChallenge [16]byte, username string) [8]byte {
	h := sha1.New()
	h.Write(peerChallenge[:])
	h.Write(authChallenge[:])
	h.Write([]byte(username))

	var out [8]byte
	copy(out[:], h.Sum(nil))
	return out
}

// GenerateNTResponse implements RFC 2759 section 8.1: hash peer/auth
// challenges and username down to an 8-byte challenge, then run the same
// three-DES-block challenge-response as MS-CHAP v1 against the NT hash of
// the password.
func GenerateNTResponse(authChallenge [16]byte, peerChallenge PeerChallenge, username, password string) ([24]byte, error) {
	challenge := ChallengeHash(peerChallenge, authChallenge, username)

	resp, err := ntChallengeResponse(challenge[:], ntPasswordHash(password))
	if err != nil {
		return [24]byte{}, err
	}

	var out [24]byte
	copy(out[:], resp)
	return out, nil
}

// ChangePasswordBlobs holds the two ciphertext fields RFC 2759 section 8.7
// ("Change-Password v2") packages into an MS-CHAP v2 ChangePassword
// sub-packet.
type ChangePasswordBlobs struct {
	// EncryptedPassword is 516 bytes: RC4 keyed with
	// ntPasswordHash(oldPassword) over a 512-byte area holding
	// newPassword as UTF-16LE in its last bytes (zeros before it),
	// followed by the 4-byte little-endian byte length of that password.
	EncryptedPassword [516]byte
	// EncryptedHash is 16 bytes: DES(ntPasswordHash(newPassword) as two
	// 7-byte keys) applied to ntPasswordHash(oldPassword).
	EncryptedHash [16]byte
}

// NewChangePasswordBlobs builds the RFC 2759 section 8.7/8.9 ciphertexts
// needed for the MS-CHAP v2 ChangePassword (opcode 7) sub-packet.
func NewChangePasswordBlobs(oldPassword, newPassword string) (ChangePasswordBlobs, error) {
	var blobs ChangePasswordBlobs

	oldHash := ntPasswordHash(oldPassword)
	newHash := ntPasswordHash(newPassword)

	encPwd, err := encryptNewPassword(oldHash, newPassword)
	if err != nil {
		return blobs, err
	}
	copy(blobs.EncryptedPassword[:], encPwd)

	encHash, err := encryptHash(oldHash, newHash)
	if err != nil {
		return blobs, err
	}
	copy(blobs.EncryptedHash[:], encHash)

	return blobs, nil
}

// encryptNewPassword implements RFC 2759 section 8.9 (NtPasswordChange):
// the new password, UTF-16LE encoded, is placed at the end of a zero-filled
// 512-byte area, followed by its 4-byte little-endian byte length, and the
// whole 516-byte buffer is RC4-keyed with the old NT password hash.
func encryptNewPassword(oldNTHash []byte, newPassword string) ([]byte, error) {
	encoded := unicodeEncode(newPassword)
	if len(encoded) > 512 {
		return nil, fmt.Errorf("radcrypto: new password too long for change-password (%d bytes encoded)", len(encoded))
	}

	plain := make([]byte, 516)
	copy(plain[512-len(encoded):512], encoded)
	binary.LittleEndian.PutUint32(plain[512:], uint32(len(encoded)))

	cipher, err := rc4.NewCipher(oldNTHash)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plain))
	cipher.XORKeyStream(out, plain)
	return out, nil
}

// encryptHash implements RFC 2759 section 8.10 (OldNtPasswordHash): the old
// NT password hash is DES-encrypted using two 7-byte keys derived from the
// new NT password hash (16 bytes -> 7 + 7, with the last 2 bytes unused).
func encryptHash(oldNTHash, newNTHash []byte) ([]byte, error) {
	var key1, key2 [7]byte
	copy(key1[:], newNTHash[0:7])
	copy(key2[:], newNTHash[7:14])

	var block1, block2 [8]byte
	copy(block1[:], oldNTHash[0:8])
	copy(block2[:], oldNTHash[8:16])

	out1, err := desEncryptBlock(key1, block1)
	if err != nil {
		return nil, err
	}
	out2, err := desEncryptBlock(key2, block2)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 16)
	copy(out[0:8], out1[:])
	copy(out[8:16], out2[:])
	return out, nil
}
