package radcrypto

import "crypto/md5"

// CHAPResponse computes the CHAP-Password value (RFC 2865 section 5.3):
// MD5(chapID || password || requestAuthenticator). The caller carries
// chapID as the first octet of the CHAP-Password attribute.
func CHAPResponse(chapID byte, password string, requestAuthenticator [16]byte) [16]byte {
	h := md5.New()
	h.Write([]byte{chapID})
	h.Write([]byte(password))
	h.Write(requestAuthenticator[:])
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}
