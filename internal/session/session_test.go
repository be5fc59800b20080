package session

import (
	"crypto/hmac"
	"crypto/md5"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulaginds/go-radius-client/internal/radattr"
	"github.com/kulaginds/go-radius-client/internal/radcode"
	"github.com/kulaginds/go-radius-client/internal/radcodec"
)

func TestApplyUsernameAppendsSuffix(t *testing.T) {
	assert.Equal(t, "alice@corp.example", applyUsername("alice", "@corp.example"))
}

func TestApplyUsernameSkipsWhenAtPresent(t *testing.T) {
	assert.Equal(t, "alice@other.example", applyUsername("alice@other.example", "@corp.example"))
}

// fakeServer starts a UDP listener that answers every received RADIUS
// packet with respondCode, computing a correct Response-Authenticator (and
// Message-Authenticator, if the request carried one) over the configured
// secret.
func fakeServer(t *testing.T, secret []byte, respondCode radcodec.Code) (port int, stop func()) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		buf := make([]byte, 4096)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				close(done)
				return
			}
			req := append([]byte(nil), buf[:n]...)

			resp := &radcodec.Packet{
				Code:       respondCode,
				Identifier: req[1],
			}
			var reqAuth [16]byte
			copy(reqAuth[:], req[4:20])

			raw, err := resp.Encode()
			if err != nil {
				continue
			}
			h := md5.New()
			h.Write(raw[0:4])
			h.Write(reqAuth[:])
			h.Write(raw[20:])
			h.Write(secret)
			copy(raw[4:20], h.Sum(nil))

			_, _ = conn.WriteToUDP(raw, addr)
		}
	}()

	return conn.LocalAddr().(*net.UDPAddr).Port, func() { conn.Close(); <-done }
}

func testConfig(port int, secret []byte) Config {
	return Config{
		Secret:   secret,
		Server:   "127.0.0.1",
		AuthPort: port,
		Timeout:  2 * time.Second,
	}
}

func TestPAPAccept(t *testing.T) {
	secret := []byte("sharedsecret")
	port, stop := fakeServer(t, secret, radcodec.CodeAccessAccept)
	defer stop()

	txn := PAP(testConfig(port, secret), 1, "alice", "", "password", nil)
	assert.True(t, txn.Accepted)
	assert.Equal(t, radcode.None, txn.ErrorCode)
	assert.Equal(t, radcodec.CodeAccessAccept, txn.ReceivedCode)
}

func TestPAPReject(t *testing.T) {
	secret := []byte("sharedsecret")
	port, stop := fakeServer(t, secret, radcodec.CodeAccessReject)
	defer stop()

	txn := PAP(testConfig(port, secret), 1, "alice", "", "wrongpassword", nil)
	assert.False(t, txn.Accepted)
	assert.Equal(t, radcode.ErrAccessRejected, txn.ErrorCode)
}

func TestPAPTimeout(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()
	port := conn.LocalAddr().(*net.UDPAddr).Port

	cfg := testConfig(port, []byte("secret"))
	cfg.Timeout = 50 * time.Millisecond

	txn := PAP(cfg, 1, "alice", "", "password", nil)
	assert.False(t, txn.Accepted)
	assert.Equal(t, radcode.ErrTimedOut, txn.ErrorCode)
}

func TestCHAPMD5Accept(t *testing.T) {
	secret := []byte("sharedsecret")
	port, stop := fakeServer(t, secret, radcodec.CodeAccessAccept)
	defer stop()

	txn := CHAPMD5(testConfig(port, secret), 1, "alice", "", "password", 5)
	assert.True(t, txn.Accepted)
}

func TestMSCHAPv1AlwaysIncludesMessageAuthenticator(t *testing.T) {
	secret := []byte("sharedsecret")
	port, stop := fakeServer(t, secret, radcodec.CodeAccessAccept)
	defer stop()

	cfg := testConfig(port, secret)
	txn := MSCHAPv1(cfg, 1, "alice", "", "password")
	require.NotEmpty(t, txn.Attributes)

	found := false
	for _, a := range txn.Attributes {
		if a.Type == radattr.TypeMessageAuthenticator {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBuildRequestAppliesMessageAuthenticatorFixpoint(t *testing.T) {
	secret := []byte("sharedsecret")
	auth, err := radcodec.NewRequestAuthenticator()
	require.NoError(t, err)

	cfg := Config{Secret: secret, IncludeMessageAuthenticator: true}
	txn := newTransaction(1)

	pkt, _, err := buildRequest(cfg, txn, auth, nil)
	require.NoError(t, err)

	idx := pkt.FindMessageAuthenticator()
	require.GreaterOrEqual(t, idx, 0)

	probe := &radcodec.Packet{
		Code:          pkt.Code,
		Identifier:    pkt.Identifier,
		Authenticator: pkt.Authenticator,
		Attributes:    append([]radattr.Attribute(nil), pkt.Attributes...),
	}
	stored := append([]byte(nil), probe.Attributes[idx].Value...)
	probe.Attributes[idx].Value = make([]byte, 16)
	raw, err := probe.Encode()
	require.NoError(t, err)

	mac := hmacNew(secret, raw)
	assert.Equal(t, mac, stored)
}

func hmacNew(secret, raw []byte) []byte {
	h := hmac.New(md5.New, secret)
	h.Write(raw)
	return h.Sum(nil)
}
