package cli

import (
	stderrors "errors"

	"github.com/oldmonad/cvmInventory/internal/app"
	"github.com/oldmonad/cvmInventory/pkg/errors"
	"github.com/spf13/cobra"
)

// Exit codes: automation distinguishes a degraded (partial-region)
// inventory from a hard failure.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitDegraded = 3
)

func NewCommand(appInstance app.AppRunner) *cobra.Command {
	var list bool
	var host string
	var refreshCache bool

	rootCmd := &cobra.Command{
		Use:          "cvm-inventory",
		Short:        "Produce a dynamic inventory from cloud compute instances",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				return appInstance.Host(cmd.Context(), host)
			}
			return appInstance.List(cmd.Context(), refreshCache)
		},
	}

	rootCmd.Flags().BoolVar(&list, "list", true, "emit the full inventory as JSON")
	rootCmd.Flags().StringVar(&host, "host", "", "emit one host's variables")
	rootCmd.Flags().BoolVar(&refreshCache, "refresh-cache", false, "discard the cache and refetch from the API")

	regionsCmd := &cobra.Command{
		Use:   "regions",
		Short: "List the provider's available regions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return appInstance.Regions(cmd.Context())
		},
	}

	rootCmd.AddCommand(regionsCmd)
	return rootCmd
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var partial errors.ErrPartialFetch
	if stderrors.As(err, &partial) {
		return ExitDegraded
	}
	return ExitFailure
}
