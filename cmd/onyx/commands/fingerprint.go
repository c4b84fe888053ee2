package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"onyxnet/internal/app"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the fingerprint of the stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := keyFileConfig()
			if err != nil {
				return err
			}
			fp, err := app.NewIdentityService(c).Fingerprint(c.Passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", fp)
			return nil
		},
	}
}
