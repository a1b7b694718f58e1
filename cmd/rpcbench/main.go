// Package main provides the CLI entry point for rpcbench, an Ethereum
// JSON-RPC latency benchmark and event indexer timing tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rpcbench",
		Short: "Ethereum JSON-RPC latency benchmark",
		Long: `rpcbench measures round-trip latency of Ethereum JSON-RPC endpoints
by sending the same requests to each endpoint, one at a time, and comparing the
average response times. It can also time a log-driven rETH event indexer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newIndexCmd())

	return root
}

// bindFlags maps each flag name to the environment key it overrides.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}
