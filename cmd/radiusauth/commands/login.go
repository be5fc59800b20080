package commands

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	radius "github.com/kulaginds/go-radius-client"
	"github.com/kulaginds/go-radius-client/internal/logging"
)

var errUnknownMethod = errors.New("unknown auth method, expected pap, chap-md5, mschapv1, or eap-mschapv2")

func loginCmd() *cobra.Command {
	var (
		username string
		password string
		method   string
		chapID   uint8
		stateHex string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the configured RADIUS server list",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			m := cfg.Auth.Method
			if method != "" {
				m = method
			}

			var state []byte
			if stateHex != "" {
				decoded, err := hex.DecodeString(stateHex)
				if err != nil {
					return fmt.Errorf("decode --state: %w", err)
				}
				state = decoded
			}

			if m != "pap" && m != "chap-md5" && m != "mschapv1" && m != "eap-mschapv2" {
				return errUnknownMethod
			}

			sl := radius.NewServerList(cfg.Addrs(), cfg.Secret, cfg.Auth.Suffix, cfg.Auth.Timeout, cfg.AuthPort(), cfg.AcctPort())

			ok, last := sl.Try(func(c *radius.Client) bool {
				applyClientDefaults(c)
				switch m {
				case "pap":
					return c.AuthenticatePAP(username, password, state)
				case "chap-md5":
					return c.AuthenticateCHAPMD5(username, password, chapID)
				case "mschapv1":
					return c.AuthenticateMSCHAPv1(username, password)
				default:
					return c.AuthenticateEAPMSCHAPv2(username, password)
				}
			})

			logging.Info("login method=%s accepted=%v code=%d", m, ok, last.ReceivedCode())
			if !ok {
				return fmt.Errorf("authentication failed: %s (code %d)", last.LastErrorMessage(), last.LastErrorCode())
			}
			fmt.Println("Access-Accept")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "RADIUS username")
	cmd.Flags().StringVar(&password, "password", "", "RADIUS password")
	cmd.Flags().StringVar(&method, "method", "", "override configured auth.method")
	cmd.Flags().Uint8Var(&chapID, "chap-id", 0, "CHAP identifier octet (chap-md5 only)")
	cmd.Flags().StringVar(&stateHex, "state", "", "hex-encoded State attribute to echo (pap only)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// applyClientDefaults carries the configured NAS attributes and
// Message-Authenticator policy onto a freshly built ServerList Client
// before it is used for one authenticate attempt.
func applyClientDefaults(c *radius.Client) {
	if cfg.NAS.IPAddress != "" {
		_ = c.SetNASIPAddress(cfg.NAS.IPAddress)
	}
	if cfg.NAS.Port != 0 {
		c.SetNASPort(cfg.NAS.Port)
	}
	if cfg.Auth.IncludeMsgAuth {
		c.SetIncludeMessageAuthenticator(true)
	}
}
