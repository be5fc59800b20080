package radius

import (
	"time"

	"github.com/kulaginds/go-radius-client/internal/radcode"
)

// ServerList drives the server-list retry policy: try each server in
// order, sharing one secret/port/timeout configuration, stopping on the
// first Access-Accept or Access-Reject and otherwise moving on to the next
// server with a freshly built transaction.
type ServerList struct {
	clients []*Client
}

// NewServerList builds a ServerList over servers, each wrapped in its own
// Client sharing secret, suffix, timeout, and ports. No parallel fan-out:
// servers are only ever contacted one at a time, in order.
func NewServerList(servers []string, secret, suffix string, timeout time.Duration, authPort, acctPort int) *ServerList {
	sl := &ServerList{}
	for _, server := range servers {
		sl.clients = append(sl.clients, NewClient(server, secret, suffix, timeout, authPort, acctPort))
	}
	return sl
}

// Try runs attempt against each server's Client in order. It stops and
// returns true on the first Access-Accept. It stops and returns false on
// the first Access-Reject (preserving that Client's last-error). On any
// other failure (timeout, I/O, protocol error) it moves on to the next
// server, which builds its own fresh transaction from scratch. last is the
// Client whose result (and LastErrorCode/LastErrorMessage) should be
// consulted by the caller.
func (sl *ServerList) Try(attempt func(c *Client) bool) (ok bool, last *Client) {
	for _, c := range sl.clients {
		accepted := attempt(c)
		last = c

		if accepted {
			return true, c
		}
		if c.LastErrorCode() == int(radcode.ErrAccessRejected) {
			return false, c
		}
		// Any other failure: move on to the next server. Each Client call
		// above already built its transaction from scratch, so there is no
		// stale attribute snapshot to reset here.
	}
	return false, last
}
