// Package session implements the RADIUS client's protocol engine: the
// single-request PAP/CHAP-MD5/MS-CHAP v1 flows and the multi-round
// EAP-MS-CHAP v2 state machine, each driving the codec, crypto, transport,
// and EAP framing packages through one Transaction.
package session

import (
	"errors"
	"time"

	"github.com/kulaginds/go-radius-client/internal/radattr"
	"github.com/kulaginds/go-radius-client/internal/radcode"
	"github.com/kulaginds/go-radius-client/internal/radcodec"
	"github.com/kulaginds/go-radius-client/internal/radcrypto"
	"github.com/kulaginds/go-radius-client/internal/radtransport"
)

// Config bundles everything a Transaction needs that does not change
// within a single authenticate call: the shared secret, transport
// parameters, and the default attributes the Client carries (NAS-IP,
// NAS-Port, extra vendor/custom attributes, Message-Authenticator policy).
type Config struct {
	Secret                      []byte
	Server                      string
	AuthPort                    int
	Timeout                     time.Duration
	DefaultAttributes           []radattr.Attribute
	IncludeMessageAuthenticator bool
}

// Transaction is the per-call mutable state the state machine threads
// through: the outgoing attribute list, the identifier and Request
// Authenticator in use, the most recently received packet, and the
// sticky last-error. For the multi-round EAP/MS-CHAP v2 exchange this is
// the state carried forward between Access-Request/Access-Challenge
// rounds.
type Transaction struct {
	Code          radcodec.Code
	Identifier    uint8
	Authenticator [16]byte
	Attributes    []radattr.Attribute

	ReceivedCode       radcodec.Code
	ReceivedAttributes []radattr.Attribute

	Accepted         bool
	ErrorCode        radcode.Code
	ErrorMessage     string
}

func newTransaction(identifier uint8) *Transaction {
	return &Transaction{
		Code:       radcodec.CodeAccessRequest,
		Identifier: identifier,
	}
}

func (t *Transaction) fail(code radcode.Code, message string) *Transaction {
	t.Accepted = false
	t.ErrorCode = code
	t.ErrorMessage = message
	return t
}

// applyUsername appends cfg's suffix unless username already contains "@".
func applyUsername(username, suffix string) string {
	for _, r := range username {
		if r == '@' {
			return username
		}
	}
	return username + suffix
}

// buildRequest assembles attrs into an Access-Request (or the caller's
// chosen code) packet using auth as its Request-Authenticator, and, if
// cfg.IncludeMessageAuthenticator or a Message-Authenticator placeholder is
// already present, backfills the HMAC fixpoint last.
//
// auth is supplied by the caller, not generated here: PAP and CHAP-MD5
// must encrypt/hash against the exact same Request-Authenticator that ends
// up in the wire packet, so it has to be known before the attribute list
// carrying the obfuscated password or CHAP response is even built.
func buildRequest(cfg Config, t *Transaction, auth [16]byte, attrs []radattr.Attribute) (*radcodec.Packet, []byte, error) {
	t.Authenticator = auth

	all := append([]radattr.Attribute(nil), cfg.DefaultAttributes...)
	all = append(all, attrs...)

	if cfg.IncludeMessageAuthenticator && !hasMessageAuthenticator(all) {
		all = append(all, radattr.Attribute{Type: radattr.TypeMessageAuthenticator, Value: make([]byte, 16)})
	}
	t.Attributes = all

	pkt := &radcodec.Packet{
		Code:          t.Code,
		Identifier:    t.Identifier,
		Authenticator: auth,
		Attributes:    all,
	}

	if hasMessageAuthenticator(all) {
		if err := pkt.ApplyMessageAuthenticator(cfg.Secret); err != nil {
			return nil, nil, err
		}
		t.Attributes = pkt.Attributes
	}

	raw, err := pkt.Encode()
	if err != nil {
		return nil, nil, err
	}
	return pkt, raw, nil
}

func hasMessageAuthenticator(attrs []radattr.Attribute) bool {
	for _, a := range attrs {
		if a.Type == radattr.TypeMessageAuthenticator {
			return true
		}
	}
	return false
}

// roundTrip sends raw to the configured server and decodes+verifies the
// response against req's Request-Authenticator, setting t's sticky error
// on any transport or framing failure. It returns the decoded packet and
// its raw bytes, or nil on failure (t's error fields explain why).
func roundTrip(cfg Config, t *Transaction, raw []byte, reqAuth [16]byte) (*radcodec.Packet, []byte) {
	respRaw, err := radtransport.RoundTrip(radtransport.Config{
		Server:  cfg.Server,
		Port:    cfg.AuthPort,
		Timeout: cfg.Timeout,
	}, raw)
	if err != nil {
		switch {
		case errors.Is(err, radtransport.ErrTimeout):
			t.fail(radcode.ErrTimedOut, "operation timed out")
		case errors.Is(err, radtransport.ErrSend):
			t.fail(radcode.ErrSendFailed, "send failed")
		default:
			t.fail(radcode.ErrReceiveFailed, "receive failed")
		}
		return nil, nil
	}

	resp, err := radcodec.Decode(respRaw)
	if err != nil {
		t.fail(radcode.ErrInvalidResponsePacket, "invalid response packet")
		return nil, nil
	}

	if err := radcodec.VerifyResponseAuthenticator(respRaw, reqAuth, cfg.Secret); err != nil {
		t.fail(radcode.ErrAuthenticatorMismatch, "response authenticator mismatch")
		return nil, nil
	}

	if err := radcodec.VerifyMessageAuthenticator(resp, cfg.Secret); err != nil {
		t.fail(radcode.ErrAuthenticatorMismatch, "response message-authenticator mismatch")
		return nil, nil
	}

	t.ReceivedCode = resp.Code
	t.ReceivedAttributes = resp.Attributes
	return resp, respRaw
}

// PAP drives the single-request PAP flow (RFC 2865 section 5.2): User-Name,
// obfuscated User-Password, and an optional echoed State.
func PAP(cfg Config, identifier uint8, username, suffix, password string, state []byte) *Transaction {
	t := newTransaction(identifier)

	auth, err := radcodec.NewRequestAuthenticator()
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, "failed to generate request authenticator")
	}

	userAttr, err := radattr.NewText(radattr.TypeUserName, applyUsername(username, suffix))
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, err.Error())
	}

	obfuscated := radcrypto.ObfuscatePAP(password, cfg.Secret, auth)
	pwdAttr, err := radattr.New(radattr.TypeUserPassword, obfuscated)
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, err.Error())
	}

	attrs := []radattr.Attribute{userAttr, pwdAttr}
	if len(state) > 0 {
		stateAttr, err := radattr.New(radattr.TypeState, state)
		if err != nil {
			return t.fail(radcode.ErrAPIMisuse, err.Error())
		}
		attrs = append(attrs, stateAttr)
	}

	return sendAndFinish(cfg, t, auth, attrs)
}

// CHAPMD5 drives the single-request CHAP-MD5 flow (RFC 2865 section 5.3).
func CHAPMD5(cfg Config, identifier uint8, username, suffix, password string, chapID byte) *Transaction {
	t := newTransaction(identifier)

	auth, err := radcodec.NewRequestAuthenticator()
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, "failed to generate request authenticator")
	}

	userAttr, err := radattr.NewText(radattr.TypeUserName, applyUsername(username, suffix))
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, err.Error())
	}

	response := radcrypto.CHAPResponse(chapID, password, auth)
	chapValue := append([]byte{chapID}, response[:]...)
	chapAttr, err := radattr.New(radattr.TypeCHAPPassword, chapValue)
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, err.Error())
	}

	return sendAndFinish(cfg, t, auth, []radattr.Attribute{userAttr, chapAttr})
}

// MSCHAPv1 drives the single-request MS-CHAP v1 flow: User-Name,
// MS-CHAP-Challenge (vendor 11), MS-CHAP-Response (vendor 1), and a
// Message-Authenticator. Unlike PAP/CHAP-MD5, MS-CHAP v1 always carries a
// Message-Authenticator since its vendor attributes provide no authenticator
// binding of their own.
func MSCHAPv1(cfg Config, identifier uint8, username, suffix, password string) *Transaction {
	t := newTransaction(identifier)

	auth, err := radcodec.NewRequestAuthenticator()
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, "failed to generate request authenticator")
	}

	userAttr, err := radattr.NewText(radattr.TypeUserName, applyUsername(username, suffix))
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, err.Error())
	}

	challenge, err := radcrypto.NewMSCHAPv1Challenge()
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, err.Error())
	}
	challengeAttr, err := radattr.NewVendorSpecific(radattr.VendorMicrosoft, radattr.VendorTypeMSCHAPChallenge, challenge[:])
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, err.Error())
	}

	responseValue, err := radcrypto.MSCHAPv1Response(challenge, password)
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, err.Error())
	}
	responseAttr, err := radattr.NewVendorSpecific(radattr.VendorMicrosoft, radattr.VendorTypeMSCHAPResponse, responseValue)
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, err.Error())
	}

	cfg.IncludeMessageAuthenticator = true
	return sendAndFinish(cfg, t, auth, []radattr.Attribute{userAttr, challengeAttr, responseAttr})
}

// sendAndFinish builds, sends, and classifies a single Access-Request/
// response round trip against Access-Accept/Access-Reject — the shape
// shared by PAP, CHAP-MD5, and MS-CHAP v1.
func sendAndFinish(cfg Config, t *Transaction, auth [16]byte, attrs []radattr.Attribute) *Transaction {
	_, raw, err := buildRequest(cfg, t, auth, attrs)
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, err.Error())
	}

	resp, _ := roundTrip(cfg, t, raw, t.Authenticator)
	if resp == nil {
		return t
	}

	switch resp.Code {
	case radcodec.CodeAccessAccept:
		t.Accepted = true
		t.ErrorCode = radcode.None
		return t
	case radcodec.CodeAccessReject:
		return t.fail(radcode.ErrAccessRejected, "Access rejected")
	default:
		return t.fail(radcode.ErrProtocolError, "unexpected response code")
	}
}
