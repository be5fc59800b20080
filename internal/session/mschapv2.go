package session

import (
	"encoding/hex"
	"fmt"

	"github.com/kulaginds/go-radius-client/internal/eap"
	"github.com/kulaginds/go-radius-client/internal/radattr"
	"github.com/kulaginds/go-radius-client/internal/radcode"
	"github.com/kulaginds/go-radius-client/internal/radcodec"
	"github.com/kulaginds/go-radius-client/internal/radcrypto"
)

// eapChallengeState is what AWAIT_CHALLENGE/AWAIT_VERDICT carry forward
// between rounds of the EAP-MS-CHAP v2 exchange: the RADIUS State
// attribute to echo back, the server's MS-CHAP v2 auth challenge, and the
// MS-CHAP v2 identifier to continue from.
type eapChallengeState struct {
	state         []byte
	authChallenge [16]byte
	msChapID      uint8
}

// EAPMSCHAPv2 drives the four-message EAP/MS-CHAP v2 exchange: Identity,
// PEAP-NAK fallback, MS-CHAP v2 challenge/response, and the closing EAP
// Success round trip.
func EAPMSCHAPv2(cfg Config, nextID func() uint8, username, suffix, password string) *Transaction {
	t := newTransaction(nextID())
	fullUsername := applyUsername(username, suffix)

	cs, ok := awaitChallenge(cfg, t, nextID, fullUsername, password, false)
	if !ok {
		return t
	}

	verdictOK, changePassword := awaitVerdict(cfg, t, nextID, cs, fullUsername, password, false, "")
	if changePassword {
		// EAPMSCHAPv2 (not the change-password entry point) never enters
		// the change-password sub-flow; E=648 here is a plain rejection.
		return t
	}
	if !verdictOK {
		return t
	}

	return awaitFinal(cfg, t, nextID, cs)
}

// ChangePasswordEAPMSCHAPv2 drives the same exchange as EAPMSCHAPv2, but
// authenticates with oldPassword and, if the server reports E=648
// (password expired), continues into the RFC 2759 change-password
// sub-flow instead of terminating with REJECTED.
func ChangePasswordEAPMSCHAPv2(cfg Config, nextID func() uint8, username, suffix, oldPassword, newPassword string) *Transaction {
	t := newTransaction(nextID())
	fullUsername := applyUsername(username, suffix)

	cs, ok := awaitChallenge(cfg, t, nextID, fullUsername, oldPassword, false)
	if !ok {
		return t
	}

	verdictOK, changePassword := awaitVerdict(cfg, t, nextID, cs, fullUsername, oldPassword, true, newPassword)
	if changePassword {
		return t // awaitVerdict already drove the change-password sub-flow to completion
	}
	if !verdictOK {
		return t
	}

	return awaitFinal(cfg, t, nextID, cs)
}

// awaitChallenge implements INITIAL -> AWAIT_CHALLENGE and the
// [NAK_SENT -> AWAIT_CHALLENGE] loop (at most once), ending with an
// MS-Auth Challenge extracted into cs, or a terminal failure already
// recorded on t.
func awaitChallenge(cfg Config, t *Transaction, nextID func() uint8, fullUsername, password string, nakAlreadySent bool) (eapChallengeState, bool) {
	var cs eapChallengeState

	eapID := uint8(1)
	identity := eap.NewIdentityResponse(eapID, fullUsername)
	frame, err := identity.Encode()
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return cs, false
	}

	attrs := radattr.SplitEAPMessage(frame)
	cfg.IncludeMessageAuthenticator = true
	auth, err := radcodec.NewRequestAuthenticator()
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return cs, false
	}
	_, raw, err := buildRequest(cfg, t, auth, attrs)
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return cs, false
	}

	resp, _ := roundTrip(cfg, t, raw, t.Authenticator)
	if resp == nil {
		return cs, false
	}

	return handleChallengeResponse(cfg, t, nextID, resp, fullUsername, password, nakAlreadySent)
}

// handleChallengeResponse inspects an Access-Challenge expected to carry
// the inner EAP Request this round and dispatches on its EAP type: an
// MD5-Challenge falls through to plain CHAP-MD5, a PEAP proposal gets
// NAK'd once in favor of MS-CHAP v2, and an MS-CHAP v2 Challenge extracts
// the auth challenge this exchange needs.
func handleChallengeResponse(cfg Config, t *Transaction, nextID func() uint8, resp *radcodec.Packet, fullUsername, password string, nakAlreadySent bool) (eapChallengeState, bool) {
	var cs eapChallengeState

	if resp.Code != radcodec.CodeAccessChallenge {
		t.fail(radcode.ErrProtocolError, "expected Access-Challenge")
		return cs, false
	}

	state := findAttribute(resp.Attributes, radattr.TypeState)
	if state == nil {
		t.fail(radcode.ErrProtocolError, "Access-Challenge missing State attribute")
		return cs, false
	}
	cs.state = state.Value

	frame := radattr.JoinEAPMessages(resp.Attributes)
	if len(frame) == 0 {
		t.fail(radcode.ErrProtocolError, "Access-Challenge missing EAP-Message attribute")
		return cs, false
	}
	inner, err := eap.Decode(frame)
	if err != nil {
		t.fail(radcode.ErrProtocolError, err.Error())
		return cs, false
	}

	switch inner.Type {
	case eap.TypeMD5Challenge:
		fallThroughToCHAPMD5(cfg, t, inner, fullUsername, password)
		return cs, false

	case eap.TypePEAP:
		if nakAlreadySent {
			t.fail(radcode.ErrProtocolError, "server re-proposed PEAP after NAK")
			return cs, false
		}
		return nakAndRetry(cfg, t, nextID, inner, fullUsername, password, cs.state)

	case eap.TypeMSCHAPv2:
		sub, err := eap.DecodeMSCHAPv2(inner.TypeData)
		if err != nil {
			t.fail(radcode.ErrProtocolError, err.Error())
			return cs, false
		}
		if sub.OpCode != eap.OpChallenge {
			t.fail(radcode.ErrProtocolError, "expected MS-CHAP v2 Challenge opcode")
			return cs, false
		}
		// Challenge payload: valueSize(1) | challenge(16) | name.
		if len(sub.Data) < 17 {
			t.fail(radcode.ErrProtocolError, "MS-CHAP v2 challenge payload too short")
			return cs, false
		}
		copy(cs.authChallenge[:], sub.Data[1:17])
		cs.msChapID = sub.MSChapID
		return cs, true

	default:
		t.fail(radcode.ErrProtocolError, fmt.Sprintf("unexpected inner EAP type %d", inner.Type))
		return cs, false
	}
}

// nakAndRetry sends an EAP Legacy NAK proposing MS-Auth and loops back
// into awaitChallenge exactly once.
func nakAndRetry(cfg Config, t *Transaction, nextID func() uint8, inner *eap.Packet, fullUsername, password string, state []byte) (eapChallengeState, bool) {
	nak := eap.NewNAK(inner.Identifier, eap.TypeMSCHAPv2)
	frame, err := nak.Encode()
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return eapChallengeState{}, false
	}

	attrs := radattr.SplitEAPMessage(frame)
	stateAttr, err := radattr.New(radattr.TypeState, state)
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return eapChallengeState{}, false
	}
	attrs = append(attrs, stateAttr)

	cfg.IncludeMessageAuthenticator = true
	t.Identifier = nextID()
	auth, err := radcodec.NewRequestAuthenticator()
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return eapChallengeState{}, false
	}
	_, raw, err := buildRequest(cfg, t, auth, attrs)
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return eapChallengeState{}, false
	}

	resp, _ := roundTrip(cfg, t, raw, t.Authenticator)
	if resp == nil {
		return eapChallengeState{}, false
	}

	return handleChallengeResponse(cfg, t, nextID, resp, fullUsername, password, true)
}

// fallThroughToCHAPMD5 implements the MD5-Challenge fallback: abandon EAP
// and finish with a plain CHAP-Password Access-Request, keyed by the inner
// EAP packet's identifier.
//
// The EAP MD5-Challenge Request's Value-Size(1)|Value(...)|name payload is
// not consulted: this client computes CHAP-Password the standard RFC 2865
// way, over its own fresh Request-Authenticator, rather than RFC 3748's
// EAP-MD5-Challenge keying.
func fallThroughToCHAPMD5(cfg Config, t *Transaction, inner *eap.Packet, fullUsername, password string) {
	final := CHAPMD5(cfg, t.Identifier, fullUsername, "", password, inner.Identifier)
	*t = *final
}

// awaitVerdict builds and sends the MS-CHAP v2 Response, then classifies
// Success/Failure. It returns (accepted-this-round, enteredChangePassword);
// when enteredChangePassword is true the change-password sub-flow has
// already run to completion and t holds its terminal result.
func awaitVerdict(cfg Config, t *Transaction, nextID func() uint8, cs eapChallengeState, fullUsername, password string, allowChangePassword bool, newPassword string) (bool, bool) {
	peerChallenge, err := radcrypto.NewPeerChallenge()
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return false, false
	}

	ntResponse, err := radcrypto.GenerateNTResponse(cs.authChallenge, peerChallenge, fullUsername, password)
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return false, false
	}

	sub := eap.NewResponse(cs.msChapID, [16]byte(peerChallenge), ntResponse, fullUsername)
	subBytes := sub.Encode()
	outer := &eap.Packet{Code: eap.CodeResponse, Identifier: cs.msChapID, Type: eap.TypeMSCHAPv2, TypeData: subBytes}
	frame, err := outer.Encode()
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return false, false
	}

	resp, ok := sendEAPRound(cfg, t, nextID, frame, cs.state)
	if !ok {
		return false, false
	}

	innerSub, ok := decodeMSCHAPv2Round(t, resp)
	if !ok {
		return false, false
	}

	switch innerSub.sub.OpCode {
	case eap.OpSuccess:
		cs.state = innerSub.state
		cs.msChapID = innerSub.sub.MSChapID
		t.Accepted = false // not yet; AWAIT_FINAL still pending
		return true, false

	case eap.OpFailure:
		failure, err := eap.ParseFailureMessage(innerSub.sub.Data)
		if err != nil {
			t.fail(radcode.ErrProtocolError, err.Error())
			return false, false
		}

		if failure.ErrorCode == 648 && allowChangePassword {
			challengeBytes, err := hex.DecodeString(failure.Challenge)
			if err != nil || len(challengeBytes) != 16 {
				t.fail(radcode.ErrProtocolError, "malformed C= challenge in MS-CHAP v2 failure")
				return false, true
			}
			var serverChallenge [16]byte
			copy(serverChallenge[:], challengeBytes)

			changePasswordSubFlow(cfg, t, nextID, innerSub.state, innerSub.sub.MSChapID, serverChallenge, fullUsername, password, newPassword)
			return false, true
		}

		code, msg := radcode.MapMSCHAPFailure(failure.ErrorCode)
		t.fail(code, msg)
		return false, false

	default:
		t.fail(radcode.ErrProtocolError, "unexpected MS-CHAP v2 opcode in AWAIT_VERDICT")
		return false, false
	}
}

// awaitFinal sends EAP Success with id = msChapID+1, State echoed, and
// classifies the final Access-Accept/Access-Reject.
func awaitFinal(cfg Config, t *Transaction, nextID func() uint8, cs eapChallengeState) *Transaction {
	outer := &eap.Packet{Code: eap.CodeSuccess, Identifier: cs.msChapID + 1}
	frame, err := outer.Encode()
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, err.Error())
	}

	attrs := radattr.SplitEAPMessage(frame)
	stateAttr, err := radattr.New(radattr.TypeState, cs.state)
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, err.Error())
	}
	attrs = append(attrs, stateAttr)

	cfg.IncludeMessageAuthenticator = true
	t.Identifier = nextID()
	auth, err := radcodec.NewRequestAuthenticator()
	if err != nil {
		return t.fail(radcode.ErrAPIMisuse, err.Error())
	}
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
		return t.fail(radcode.ErrProtocolError, "unexpected response code in AWAIT_FINAL")
	}
}

// changePasswordSubFlow implements the RFC 2759 section 8.7 change-password
// sub-flow: build the ChangePassword sub-packet, split its oversized
// EAP-Message across attributes, send, then finish exactly like awaitFinal.
func changePasswordSubFlow(cfg Config, t *Transaction, nextID func() uint8, state []byte, msChapID uint8, serverChallenge [16]byte, fullUsername, oldPassword, newPassword string) {
	peerChallenge, err := radcrypto.NewPeerChallenge()
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return
	}

	ntResponse, err := radcrypto.GenerateNTResponse(serverChallenge, peerChallenge, fullUsername, oldPassword)
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return
	}

	blobs, err := radcrypto.NewChangePasswordBlobs(oldPassword, newPassword)
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return
	}

	nextChapID := msChapID + 1
	sub := eap.NewChangePassword(nextChapID, blobs.EncryptedPassword, blobs.EncryptedHash, [16]byte(peerChallenge), ntResponse)
	subBytes := sub.Encode()
	outer := &eap.Packet{Code: eap.CodeResponse, Identifier: nextChapID, Type: eap.TypeMSCHAPv2, TypeData: subBytes}
	frame, err := outer.Encode()
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return
	}

	resp, ok := sendEAPRound(cfg, t, nextID, frame, state)
	if !ok {
		return
	}

	innerSub, ok := decodeMSCHAPv2Round(t, resp)
	if !ok {
		return
	}

	switch innerSub.sub.OpCode {
	case eap.OpSuccess:
		cs := eapChallengeState{state: innerSub.state, msChapID: innerSub.sub.MSChapID}
		final := awaitFinal(cfg, t, nextID, cs)
		*t = *final
	case eap.OpFailure:
		failure, err := eap.ParseFailureMessage(innerSub.sub.Data)
		if err != nil {
			t.fail(radcode.ErrProtocolError, err.Error())
			return
		}
		code, msg := radcode.MapMSCHAPFailure(failure.ErrorCode)
		t.fail(code, msg)
	default:
		t.fail(radcode.ErrProtocolError, "unexpected MS-CHAP v2 opcode in change-password sub-flow")
	}
}

// sendEAPRound wraps one EAP-Message-bearing Access-Request/Access-Challenge
// round trip, shared by AWAIT_VERDICT and the change-password sub-flow.
func sendEAPRound(cfg Config, t *Transaction, nextID func() uint8, frame []byte, state []byte) (*radcodec.Packet, bool) {
	attrs := radattr.SplitEAPMessage(frame)
	stateAttr, err := radattr.New(radattr.TypeState, state)
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return nil, false
	}
	attrs = append(attrs, stateAttr)

	cfg.IncludeMessageAuthenticator = true
	t.Identifier = nextID()
	auth, err := radcodec.NewRequestAuthenticator()
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return nil, false
	}
	_, raw, err := buildRequest(cfg, t, auth, attrs)
	if err != nil {
		t.fail(radcode.ErrAPIMisuse, err.Error())
		return nil, false
	}

	resp, _ := roundTrip(cfg, t, raw, t.Authenticator)
	if resp == nil {
		return nil, false
	}
	if resp.Code != radcodec.CodeAccessChallenge {
		t.fail(radcode.ErrProtocolError, "expected Access-Challenge")
		return nil, false
	}
	return resp, true
}

type decodedMSCHAPv2Round struct {
	sub   *eap.MSCHAPv2Packet
	state []byte
}

// decodeMSCHAPv2Round extracts the State attribute and inner MS-CHAP v2
// sub-packet from an Access-Challenge, the shape AWAIT_VERDICT and the
// change-password sub-flow both need to classify their next step.
func decodeMSCHAPv2Round(t *Transaction, resp *radcodec.Packet) (decodedMSCHAPv2Round, bool) {
	var out decodedMSCHAPv2Round

	state := findAttribute(resp.Attributes, radattr.TypeState)
	if state == nil {
		t.fail(radcode.ErrProtocolError, "Access-Challenge missing State attribute")
		return out, false
	}
	out.state = state.Value

	frame := radattr.JoinEAPMessages(resp.Attributes)
	if len(frame) == 0 {
		t.fail(radcode.ErrProtocolError, "Access-Challenge missing EAP-Message attribute")
		return out, false
	}
	inner, err := eap.Decode(frame)
	if err != nil {
		t.fail(radcode.ErrProtocolError, err.Error())
		return out, false
	}
	if inner.Type != eap.TypeMSCHAPv2 {
		t.fail(radcode.ErrProtocolError, "expected inner EAP MS-Auth type")
		return out, false
	}

	sub, err := eap.DecodeMSCHAPv2(inner.TypeData)
	if err != nil {
		t.fail(radcode.ErrProtocolError, err.Error())
		return out, false
	}
	out.sub = sub
	return out, true
}

func findAttribute(attrs []radattr.Attribute, typ uint8) *radattr.Attribute {
	for i := range attrs {
		if attrs[i].Type == typ {
			return &attrs[i]
		}
	}
	return nil
}
