package radcrypto

// MSCHAPv1Challenge is an 8-byte MS-CHAP v1 authentication challenge
// (Microsoft vendor attribute 11, MS-CHAP-Challenge).
type MSCHAPv1Challenge [8]byte

// NewMSCHAPv1Challenge generates a fresh random MS-CHAP v1 challenge.
func NewMSCHAPv1Challenge() (MSCHAPv1Challenge, error) {
	var c MSCHAPv1Challenge
	b, err := randomBytes(8)
	if err != nil {
		return c, err
	}
	copy(c[:], b)
	return c, nil
}

// MSCHAPv1Response builds the Microsoft vendor attribute 1 (MS-CHAP-Response)
// payload: 2-byte flags (0x00 0x01, meaning "use Windows NT compatible
// challenge-response") followed by 24 zero bytes (the unused LAN Manager
// response) and the 24-byte NT challenge-response.
func MSCHAPv1Response(challenge MSCHAPv1Challenge, password string) ([]byte, error) {
	ntResponse, err := ntChallengeResponse(challenge[:], ntPasswordHash(password))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 2+24+24)
	out[0], out[1] = 0x00, 0x01
	copy(out[2+24:], ntResponse)
	return out, nil
}

// ntPasswordHash is MD4(UTF-16LE(password)), the "NT hash" shared by
// MS-CHAP v1, MS-CHAP v2, and NTLM.
func ntPasswordHash(password string) []byte {
	return md4Sum(unicodeEncode(password))
}

// ntChallengeResponse produces the 24-byte DES challenge-response: the
// 16-byte NT hash is zero-padded to 21 bytes and split into three 7-byte
// DES half-keys, each of which encrypts the 8-byte challenge.
func ntChallengeResponse(challenge []byte, ntHash []byte) ([]byte, error) {
	var padded [21]byte
	copy(padded[:], ntHash)

	var challengeBlock [8]byte
	copy(challengeBlock[:], challenge)

	out := make([]byte, 24)
	for i := 0; i < 3; i++ {
		var key7 [7]byte
		copy(key7[:], padded[i*7:i*7+7])

		block, err := desEncryptBlock(key7, challengeBlock)
		if err != nil {
			return nil, err
		}
		copy(out[i*8:], block[:])
	}
	return out, nil
}
