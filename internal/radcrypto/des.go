package radcrypto

import "crypto/des"

// desEncryptBlock encrypts one 8-byte block with a DES key expanded from a
// 7-byte half-key, per the algorithm MS-CHAP shares with NTLM v1's
// LM/NT challenge response (RFC 2759 section 8.3, "DesEncrypt").
//
// Uses the standard library's crypto/des directly — a real, non-deprecated
// stdlib package, so no ecosystem dependency needs to be found or dropped
// for it.
func desEncryptBlock(key7 [7]byte, block [8]byte) ([8]byte, error) {
	key8 := expandDESKey(key7)
	cipher, err := des.NewCipher(key8[:])
	if err != nil {
		return [8]byte{}, err
	}
	var out [8]byte
	cipher.Encrypt(out[:], block[:])
	return out, nil
}

// expandDESKey spreads 7 bytes (56 bits) across 8 bytes (64 bits), shifting
// in one parity bit per byte. crypto/des does not enforce DES parity, but
// the shift pattern itself is required to reproduce the standard NT
// challenge-response bytes bit for bit.
func expandDESKey(key7 [7]byte) [8]byte {
	var out [8]byte
	out[0] = key7[0]
	out[1] = (key7[0] << 7) | (key7[1] >> 1)
	out[2] = (key7[1] << 6) | (key7[2] >> 2)
	out[3] = (key7[2] << 5) | (key7[3] >> 3)
	out[4] = (key7[3] << 4) | (key7[4] >> 4)
	out[5] = (key7[4] << 3) | (key7[5] >> 5)
	out[6] = (key7[5] << 2) | (key7[6] >> 6)
	out[7] = key7[6] << 1

	for i := range out {
		out[i] = (out[i] & 0xFE) | parityBit(out[i])
	}
	return out
}

// parityBit returns the odd-parity bit for the top 7 bits of b (bits 1-7;
// bit 0 is the parity slot being computed).
func parityBit(b byte) byte {
	top7 := b >> 1
	parity := byte(0)
	for i := 0; i < 7; i++ {
		parity ^= (top7 >> i) & 1
	}
	return 1 ^ parity
}
