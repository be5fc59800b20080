// Package radcode defines the client's observable error codes and the
// MS-CHAP v2 Failure sub-packet's E=<n> failure-code-to-message mapping
// (RFC 2759 section 7.5).
package radcode

// Code is an observable last-error code. Zero means no error.
type Code int

const (
	None                     Code = 0
	ErrSelectFailed          Code = 2
	ErrAccessRejected        Code = 3
	ErrTimedOut              Code = 28
	ErrSendFailed            Code = 55
	ErrReceiveFailed         Code = 56
	ErrInvalidResponsePacket Code = 100
	ErrAuthenticatorMismatch Code = 101
	ErrProtocolError         Code = 102
	ErrAPIMisuse             Code = 127
)

// mschapMessages maps the MS-CHAP v2 Failure sub-packet's E=<n> field to a
// human-readable message.
var mschapMessages = map[int]string{
	691: "Authentication failure, username or password incorrect.",
	646: "Restricted logon hours.",
	647: "Account disabled.",
	648: "Password expired.",
	649: "No dial-in permission.",
	709: "Error changing password.",
}

// MapMSCHAPFailure translates an MS-CHAP v2 E=<n> error code into the
// client's observable error code and message. Unrecognized codes still
// surface as ErrAccessRejected, with a generic message.
func MapMSCHAPFailure(e int) (Code, string) {
	msg, ok := mschapMessages[e]
	if !ok {
		msg = "Authentication failure."
	}
	return ErrAccessRejected, msg
}
