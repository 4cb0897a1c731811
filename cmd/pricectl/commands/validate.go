package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgencySite/backend/internal/catalog"
)

var errOffline = errors.New("catalog validation does not fetch")

// offline satisfies the fetch requirement without touching the network
func offline(catalog.Entry) catalog.FetchFunc {
	return func(context.Context) (any, error) { return nil, errOffline }
}

func validateCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-catalog <path>",
		Short: "Parse and validate a service catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}
			reg, err := catalog.Bind(file, offline)
			if err != nil {
				return err
			}

			stats := reg.Stats()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %v services, %v with packages, %v redirect only\n",
				args[0], stats["total_services"], stats["with_packages"], stats["redirect_only"])
			return err
		},
	}
}
