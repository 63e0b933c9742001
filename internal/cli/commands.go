package cli

import (
	"errors"
	"fmt"
	"strings"

	"covideda/internal/casos"
	"covideda/internal/config"
	"covideda/internal/report"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newMenuCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Open the interactive menu",
		Args:  cobra.NoArgs,
		RunE:  a.run(a.runMenu),
	}
}

func newLoadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load [csv]",
		Short: "Recreate the case table and load a CSV export into it",
		Long: `Recreate the case table and load a CSV export into it.

Rows with the wrong number of fields are skipped. The load runs in one
transaction: on failure the table is left empty. The path defaults to
source.path from the configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Source.Path
			if len(args) == 1 {
				path = args[0]
			}

			ctx := cmd.Context()
			repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			sum, err := casos.Load(ctx, repo, path, loadOptions(a.cfg))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sum.String())
			return nil
		}),
	}
}

func newReportCommand(a *app) *cobra.Command {
	ids := report.IDs()
	var list strings.Builder
	for _, r := range report.All() {
		fmt.Fprintf(&list, "  %-3s %s\n", r.ID, r.Title)
	}

	return &cobra.Command{
		Use:       "report <id|all>",
		Short:     "Run one report, or every report with \"all\"",
		Long:      "Run one report, or every report with \"all\".\n\nReports:\n" + list.String(),
		Args:      cobra.ExactArgs(1),
		ValidArgs: append(ids, "all"),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			run := []string{args[0]}
			if args[0] == "all" {
				run = ids
			} else if _, ok := report.Lookup(args[0]); !ok {
				return fmt.Errorf("unknown report %q (known: %s, all)", args[0], strings.Join(ids, ", "))
			}

			ctx := cmd.Context()
			repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			out := cmd.OutOrStdout()
			var errs []error
			for _, id := range run {
				if err := report.Run(ctx, repo, id, reportOptions(a.cfg), out); err != nil {
					color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		}),
	}
}

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			return config.WriteYAML(cmd.OutOrStdout(), a.cfg)
		}),
	})
	return cmd
}
