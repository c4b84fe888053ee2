package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"onyxnet/internal/app"
)

// keyFileConfig returns cfg with the key file defaulted for commands that
// always need one.
func keyFileConfig() (app.Config, error) {
	c := cfg
	if c.KeyFile == "" {
		path, err := app.DefaultKeyFile()
		if err != nil {
			return c, err
		}
		c.KeyFile = path
	}
	return c, nil
}

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a keypair and store it encrypted under the passphrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			c, err := keyFileConfig()
			if err != nil {
				return err
			}
			fp, err := app.NewIdentityService(c).GenerateKey(c.Passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Key written to %s\nFingerprint: %s\n", c.KeyFile, fp)
			return nil
		},
	}
}
