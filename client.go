// Package radius implements a RADIUS (RFC 2865) authentication client:
// PAP, CHAP-MD5, MS-CHAP v1, and the four-message EAP/MS-CHAP v2 exchange
// including the RFC 2759 change-password flow.
package radius

import (
	"sync"
	"time"

	"github.com/kulaginds/go-radius-client/internal/radattr"
	"github.com/kulaginds/go-radius-client/internal/radcode"
	"github.com/kulaginds/go-radius-client/internal/radcodec"
	"github.com/kulaginds/go-radius-client/internal/session"
)

const (
	// DefaultAuthPort is the standard RADIUS authentication UDP port.
	DefaultAuthPort = 1812
	// DefaultAcctPort is the standard RADIUS accounting UDP port (carried
	// as a constant only; accounting packet generation is out of scope).
	DefaultAcctPort = 1813
	// DefaultTimeout bounds a single request/response round trip.
	DefaultTimeout = 5 * time.Second
)

// Client holds the configuration and long-lived state (packet-id counter)
// shared by every authenticate call against one RADIUS server. Safe for
// sequential reuse across calls; the mutex only protects the identifier
// counter, default attributes, Message-Authenticator flag and sticky
// result fields from concurrent access, it does not
// serialize whole authenticate calls against each other.
type Client struct {
	server   string
	secret   []byte
	suffix   string
	timeout  time.Duration
	authPort int
	acctPort int

	mu                          sync.Mutex
	nextIdentifier              uint8
	defaultAttributes           []radattr.Attribute
	includeMessageAuthenticator bool

	lastErrorCode    radcode.Code
	lastErrorMessage string
	receivedCode     radcodec.Code
	receivedAttrs    []radattr.Attribute
}

// NewClient constructs a Client for a single RADIUS server. suffix is
// appended to usernames that don't already contain "@".
func NewClient(server, secret, suffix string, timeout time.Duration, authPort, acctPort int) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if authPort == 0 {
		authPort = DefaultAuthPort
	}
	if acctPort == 0 {
		acctPort = DefaultAcctPort
	}
	return &Client{
		server:   server,
		secret:   []byte(secret),
		suffix:   suffix,
		timeout:  timeout,
		authPort: authPort,
		acctPort: acctPort,
	}
}

// SetNASIPAddress sets the default NAS-IP-Address attribute (dotted IPv4)
// carried on every subsequent Access-Request.
func (c *Client) SetNASIPAddress(ipv4 string) error {
	attr, err := radattr.NewAddress(radattr.TypeNASIPAddress, ipv4)
	if err != nil {
		return err
	}
	c.setDefaultAttribute(attr)
	return nil
}

// SetNASPort sets the default NAS-Port attribute.
func (c *Client) SetNASPort(port uint32) {
	c.setDefaultAttribute(radattr.NewInteger(radattr.TypeNASPort, port))
}

// SetAttribute sets an arbitrary default Text/String attribute by raw type
// and value, carried on every subsequent Access-Request.
func (c *Client) SetAttribute(typ uint8, value []byte) error {
	attr, err := radattr.New(typ, value)
	if err != nil {
		return err
	}
	c.setDefaultAttribute(attr)
	return nil
}

// SetVendorSpecificAttribute sets a default Microsoft vendor-specific
// sub-attribute (type 26), carried on every subsequent Access-Request.
func (c *Client) SetVendorSpecificAttribute(vendorID uint32, vendorType uint8, value []byte) error {
	attr, err := radattr.NewVendorSpecific(vendorID, vendorType, value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultAttributes = append(c.defaultAttributes, attr)
	return nil
}

// SetIncludeMessageAuthenticator toggles whether every subsequent
// Access-Request (including PAP and CHAP-MD5, which don't require one)
// carries a Message-Authenticator attribute.
func (c *Client) SetIncludeMessageAuthenticator(include bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.includeMessageAuthenticator = include
}

func (c *Client) setDefaultAttribute(attr radattr.Attribute) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if radattr.Multivalued(attr.Type) {
		c.defaultAttributes = append(c.defaultAttributes, attr)
		return
	}
	for i, a := range c.defaultAttributes {
		if a.Type == attr.Type {
			c.defaultAttributes[i] = attr
			return
		}
	}
	c.defaultAttributes = append(c.defaultAttributes, attr)
}

// nextID returns the client's current packet-identifier counter and then
// increments it mod 256. RFC 2865 section 3 defines Identifier as a single
// octet, so wraparound is the only well-defined behavior once 256 requests
// have been sent.
func (c *Client) nextID() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextIdentifier
	c.nextIdentifier++
	return id
}

func (c *Client) sessionConfig() session.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return session.Config{
		Secret:                      c.secret,
		Server:                      c.server,
		AuthPort:                    c.authPort,
		Timeout:                     c.timeout,
		DefaultAttributes:           append([]radattr.Attribute(nil), c.defaultAttributes...),
		IncludeMessageAuthenticator: c.includeMessageAuthenticator,
	}
}

// recordResult copies a finished Transaction's outcome into the Client's
// sticky last-error/received-packet accessors; they hold the most recent
// call's result until the next authenticate call overwrites them.
func (c *Client) recordResult(t *session.Transaction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErrorCode = t.ErrorCode
	c.lastErrorMessage = t.ErrorMessage
	c.receivedCode = t.ReceivedCode
	c.receivedAttrs = t.ReceivedAttributes
	return t.Accepted
}

// AuthenticatePAP drives the PAP flow (RFC 2865 section 5.2). state, when
// non-empty, is echoed as the RADIUS State attribute (e.g. continuing a
// server-initiated Access-Challenge round).
func (c *Client) AuthenticatePAP(username, password string, state []byte) bool {
	t := session.PAP(c.sessionConfig(), c.nextID(), username, c.suffix, password, state)
	return c.recordResult(t)
}

// AuthenticateCHAPMD5 drives the CHAP-MD5 flow (RFC 2865 section 5.3).
// chapID is carried as the first octet of the CHAP-Password attribute.
func (c *Client) AuthenticateCHAPMD5(username, password string, chapID byte) bool {
	t := session.CHAPMD5(c.sessionConfig(), c.nextID(), username, c.suffix, password, chapID)
	return c.recordResult(t)
}

// AuthenticateMSCHAPv1 drives the MS-CHAP v1 flow (RFC 2865's Microsoft
// vendor-specific attributes 11/1, see internal/session for the wire shape).
func (c *Client) AuthenticateMSCHAPv1(username, password string) bool {
	t := session.MSCHAPv1(c.sessionConfig(), c.nextID(), username, c.suffix, password)
	return c.recordResult(t)
}

// AuthenticateEAPMSCHAPv2 drives the four-message EAP/MS-CHAP v2 exchange
// (RFC 3748 EAP carried in RADIUS EAP-Message attributes, RFC 2759
// MS-CHAPv2), including PEAP-proposal NAK fallback.
func (c *Client) AuthenticateEAPMSCHAPv2(username, password string) bool {
	t := session.EAPMSCHAPv2(c.sessionConfig(), c.nextID, username, c.suffix, password)
	return c.recordResult(t)
}

// ChangePasswordEAPMSCHAPv2 drives the EAP/MS-CHAP v2 exchange expecting an
// E=648 (password expired) failure, following up with the RFC 2759
// change-password sub-flow.
func (c *Client) ChangePasswordEAPMSCHAPv2(username, oldPassword, newPassword string) bool {
	t := session.ChangePasswordEAPMSCHAPv2(c.sessionConfig(), c.nextID, username, c.suffix, oldPassword, newPassword)
	return c.recordResult(t)
}

// LastErrorCode returns the sticky error code from the most recent
// authenticate call.
func (c *Client) LastErrorCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.lastErrorCode)
}

// LastErrorMessage returns the human-readable message accompanying
// LastErrorCode, if any.
func (c *Client) LastErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErrorMessage
}

// ReceivedCode returns the RADIUS packet code of the most recently
// received response (0 if none was successfully received).
func (c *Client) ReceivedCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.receivedCode)
}

// ReceivedAttributes returns the attributes of the most recently received
// response.
func (c *Client) ReceivedAttributes() []radattr.Attribute {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]radattr.Attribute(nil), c.receivedAttrs...)
}
