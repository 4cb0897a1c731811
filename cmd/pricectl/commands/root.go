package commands

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/logging"
)

var (
	cfg     *config.Config
	logger  *logging.Logger
	verbose bool
)

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pricectl",
		Short:         "Inspect the pricing aggregation pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded

			logger = logging.Nop()
			if verbose {
				logger = logging.NewDevelopment()
			}
			decimal.MarshalJSONWithoutQuotes = true
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline activity to stdout")

	root.AddCommand(fetchCmd(), validateCatalogCmd())
	return root
}
