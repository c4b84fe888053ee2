package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"onyxnet/internal/discovery"
)

func discoverCmd() *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List relays advertised on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()

			relays, err := discovery.Browse(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(relays) == 0 {
				fmt.Fprintln(out, "No relays found.")
				return nil
			}
			for _, r := range relays {
				fmt.Fprintf(out, "%s\t%s\n", r.Addr, r.Name)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 3*time.Second, "how long to listen for answers")
	return cmd
}
