package radcrypto

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"unicode/utf16"
)

// unicodeEncode returns s as UTF-16LE bytes, the encoding RFC 2759 requires
// for the password input to the NT-password-hash.
func unicodeEncode(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[i*2:], u)
	}
	return out
}

// hmacMD5 computes HMAC-MD5(key, data). radcodec computes the
// Message-Authenticator with crypto/hmac directly and ChallengeHash uses
// SHA-1, so neither calls this helper.
func hmacMD5(key, data []byte) []byte {
	h := hmac.New(md5.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func md5Sum(data []byte) []byte {
	sum := md5.Sum(data)
	return sum[:]
}

// randomBytes returns n cryptographically random bytes.
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
