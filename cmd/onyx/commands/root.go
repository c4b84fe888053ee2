package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"onyxnet/internal/app"
	"onyxnet/internal/relay"
)

var (
	cfg = app.DefaultConfig()

	transport string
	logLevel  string
	logFormat string
)

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "onyx",
		Short:        "End-to-end encrypted group chat over an OnyxNet relay",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ConfigureLogging(cmd.ErrOrStderr(), logLevel, logFormat); err != nil {
				return err
			}
			t, err := relay.ParseTransport(transport)
			if err != nil {
				return err
			}
			cfg.Transport = t
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.RelayAddr, "relay", app.DefaultRelayAddr, `relay TCP address host:port, or "auto" to find one over mDNS`)
	flags.StringVar(&transport, "transport", string(relay.TransportStream), "transport to the relay: tcp or ws")
	flags.StringVar(&cfg.KeyFile, "key-file", "", "passphrase-protected key file (default: fresh key per run)")
	flags.StringVarP(&cfg.Passphrase, "passphrase", "p", "", "passphrase for the key file")
	flags.DurationVar(&cfg.Relay.WriteTimeout, "write-timeout", relay.DefaultWriteTimeout, "deadline for each write to the relay")
	flags.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "text", "log format (text or json)")

	root.AddCommand(chatCmd(), keygenCmd(), fingerprintCmd(), discoverCmd())
	return root
}
