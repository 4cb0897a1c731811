package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/server"
	"github.com/GriffinCanCode/AgencySite/backend/internal/pricing"
	"github.com/GriffinCanCode/AgencySite/backend/internal/upstream"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4f46e5"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func fetchCmd() *cobra.Command {
	var (
		category    string
		asJSON      bool
		upstreamURL string
		catalogPath string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run one aggregation and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if upstreamURL != "" {
				cfg.Upstream.BaseURL = upstreamURL
			}
			if catalogPath != "" {
				cfg.Catalog.Path = catalogPath
			}

			client := upstream.New(upstream.Config{
				BaseURL: cfg.Upstream.BaseURL,
				Token:   cfg.Upstream.Token,
				Timeout: cfg.Upstream.Timeout,
				Retries: cfg.Upstream.Retries,
				RPS:     cfg.Upstream.RPS,
			}, logger.Named("upstream"))

			svc, err := server.BuildPricing(cfg, client, logger)
			if err != nil {
				return err
			}
			if category != "" && category != pricing.AllCategories {
				if _, ok := svc.Registry().Get(category); !ok {
					return fmt.Errorf("%w: %s", pricing.ErrUnknownService, category)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := svc.Load(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				var v any = result
				if category != "" {
					v = pricing.SelectCategory(result, category)
				}
				data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			return printResult(out, result, category)
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", `service id to show, or "all" for every package`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().StringVar(&upstreamURL, "upstream", "", "content API base URL (overrides UPSTREAM_BASE_URL)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "service catalog file (overrides CATALOG_PATH)")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "deadline for the whole run")
	return cmd
}

func printResult(out io.Writer, result *pricing.Result, category string) error {
	if category != "" {
		fmt.Fprintln(out, headingStyle.Render(category))
		if err := printPackages(out, pricing.SelectCategory(result, category)); err != nil {
			return err
		}
	} else {
		for _, g := range result.Groups {
			heading := fmt.Sprintf("%s (%d)", g.Service.DisplayName, g.Count)
			fmt.Fprintln(out, headingStyle.Render(heading))
			switch {
			case g.RedirectTarget != "":
				fmt.Fprintln(out, mutedStyle.Render("  see "+g.RedirectTarget))
			case g.Count == 0:
				fmt.Fprintln(out, mutedStyle.Render("  no packages"))
			default:
				if err := printPackages(out, g.Packages); err != nil {
					return err
				}
			}
			if g.Prices != nil {
				fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("  from %s to %s, median %s",
					g.Prices.Min.StringFixed(2), g.Prices.Max.StringFixed(2), g.Prices.Median.StringFixed(2))))
			}
		}
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(out, "warning: %s: %s\n", w.ServiceID, w.Message)
	}
	_, err := fmt.Fprintf(out, "%d packages\n", result.TotalCount)
	return err
}

func printPackages(out io.Writer, packages []pricing.Package) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "PRICE", "PERIOD", "SERVICE", "POPULAR").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true)
			}
			return cellStyle
		})
	for _, p := range packages {
		popular := ""
		if p.IsPopular {
			popular = "*"
		}
		t.Row(p.Name, p.Price.StringFixed(2), p.PricePeriod, p.ServiceID, popular)
	}
	_, err := fmt.Fprintln(out, t.Render())
	return err
}
