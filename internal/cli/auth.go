package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/courierapi/courier/internal/credstore"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored API tokens",
	}
	cmd.AddCommand(newAuthSetCmd(), newAuthTokenCmd(), newAuthDeleteCmd())
	return cmd
}

func newAuthSetCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "set HOST",
		Short: "Store an API token for a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("COURIER_TOKEN")
			}
			if token == "" {
				return fmt.Errorf("provide --token or set COURIER_TOKEN")
			}
			host := hostOf(args[0])
			if err := credstore.SaveToken(host, token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token stored for %s\n", host)
			return nil
		},
	}

	cmd.Flags().StringVarP(&token, "token", "t", "", "API token (defaults to COURIER_TOKEN)")
	return cmd
}

func newAuthTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token HOST",
		Short: "Print the stored API token for a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := credstore.LoadToken(hostOf(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func newAuthDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete HOST",
		Short: "Remove the stored API token for a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host := hostOf(args[0])
			if err := credstore.DeleteToken(host); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token removed for %s\n", host)
			return nil
		},
	}
}
