// Package cli implements the courier command line: ad hoc typed API requests,
// multipart uploads, and batched dispatch, all built on the courier library.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/courierapi/courier"
	"github.com/courierapi/courier/internal/debug"
)

const version = "0.1.0"

// rootFlags holds global CLI flags.
type rootFlags struct {
	Debug   bool
	Compact bool
	JQ      string
	Timeout time.Duration
	NoAuth  bool
}

// flags is package-level mutable state reset at the start of every Execute()
// call; tests depend on that reset for isolation.
var flags = rootFlags{
	Timeout: courier.DefaultTimeout,
}

// Execute runs the root command.
func Execute(ctx context.Context, args []string) error {
	flags = rootFlags{
		Timeout: courier.DefaultTimeout,
	}

	root := &cobra.Command{
		Use:           "courier",
		Short:         "Issue typed API requests from the command line",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			debug.SetupLogger(flags.Debug)
			cmd.SetContext(debug.WithDebug(cmd.Context(), flags.Debug))
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&flags.Debug, "debug", false, "enable debug logging")
	pf.BoolVar(&flags.Compact, "compact", false, "compact JSON output")
	pf.StringVar(&flags.JQ, "jq", "", "jq expression applied to the response")
	pf.DurationVar(&flags.Timeout, "timeout", courier.DefaultTimeout, "per-request timeout")
	pf.BoolVar(&flags.NoAuth, "no-auth", false, "skip the stored token for the target host")

	root.AddCommand(newRequestCmd())
	root.AddCommand(newUploadCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newAuthCmd())

	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// newDispatcher builds a dispatcher configured from the global flags.
func newDispatcher() *courier.Dispatcher {
	transport := courier.NewHTTPTransport(
		courier.WithTimeout(flags.Timeout),
		courier.WithUserAgent("courier/"+version),
	)
	return courier.NewDispatcher(courier.WithTransport(transport))
}
