package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	radius "github.com/kulaginds/go-radius-client"
	"github.com/kulaginds/go-radius-client/internal/logging"
)

func changePasswordCmd() *cobra.Command {
	var (
		username    string
		oldPassword string
		newPassword string
	)

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Drive the EAP/MS-CHAP v2 change-password flow (RFC 2759)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			sl := radius.NewServerList(cfg.Addrs(), cfg.Secret, cfg.Auth.Suffix, cfg.Auth.Timeout, cfg.AuthPort(), cfg.AcctPort())

			ok, last := sl.Try(func(c *radius.Client) bool {
				applyClientDefaults(c)
				return c.ChangePasswordEAPMSCHAPv2(username, oldPassword, newPassword)
			})

			logging.Info("change-password accepted=%v code=%d", ok, last.ReceivedCode())
			if !ok {
				return fmt.Errorf("change-password failed: %s (code %d)", last.LastErrorMessage(), last.LastErrorCode())
			}
			fmt.Println("Password changed")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "RADIUS username")
	cmd.Flags().StringVar(&oldPassword, "old-password", "", "current password")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "new password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("old-password")
	_ = cmd.MarkFlagRequired("new-password")

	return cmd
}
