package radius

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kulaginds/go-radius-client/internal/radcodec"
)

func TestServerListTryStopsOnFirstAccept(t *testing.T) {
	secret := []byte("sharedsecret")
	port, stop := fakeAuthServer(t, secret, radcodec.CodeAccessAccept)
	defer stop()

	sl := NewServerList([]string{"127.0.0.1"}, string(secret), "", time.Second, port, 0)

	var attempts int
	ok, last := sl.Try(func(c *Client) bool {
		attempts++
		return c.AuthenticatePAP("alice", "password", nil)
	})

	assert.True(t, ok)
	assert.Equal(t, 1, attempts)
	assert.NotNil(t, last)
}

func TestServerListTryStopsOnAccessReject(t *testing.T) {
	secretA := []byte("secretA")
	portA, stopA := fakeAuthServer(t, secretA, radcodec.CodeAccessReject)
	defer stopA()

	secretB := []byte("secretB")
	portB, stopB := fakeAuthServer(t, secretB, radcodec.CodeAccessAccept)
	defer stopB()

	sl := &ServerList{clients: []*Client{
		NewClient("127.0.0.1", string(secretA), "", time.Second, portA, 0),
		NewClient("127.0.0.1", string(secretB), "", time.Second, portB, 0),
	}}

	var attempts int
	ok, _ := sl.Try(func(c *Client) bool {
		attempts++
		return c.AuthenticatePAP("alice", "password", nil)
	})

	assert.False(t, ok)
	assert.Equal(t, 1, attempts) // must not fall through to the second server
}

func TestServerListTryFallsThroughOnTimeout(t *testing.T) {
	unreachable := NewClient("127.0.0.1", "secretA", "", 50*time.Millisecond, 1, 0)

	secretB := []byte("secretB")
	portB, stopB := fakeAuthServer(t, secretB, radcodec.CodeAccessAccept)
	defer stopB()
	good := NewClient("127.0.0.1", string(secretB), "", time.Second, portB, 0)

	sl := &ServerList{clients: []*Client{unreachable, good}}

	var attempts int
	ok, last := sl.Try(func(c *Client) bool {
		attempts++
		return c.AuthenticatePAP("alice", "password", nil)
	})

	assert.True(t, ok)
	assert.Equal(t, 2, attempts)
	assert.Same(t, good, last)
}
