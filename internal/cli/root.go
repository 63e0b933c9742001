// Package cli wires configuration, storage, metrics and the report engine
// into the covideda command line: an interactive menu plus one-shot
// load/report commands.
package cli

import (
	"context"
	"fmt"
	"log"

	"covideda/internal/casos"
	"covideda/internal/config"
	"covideda/internal/report"
	"covideda/internal/storage"

	// register all backends with the storage factory.
	_ "covideda/internal/storage/all"

	"github.com/spf13/cobra"
)

// app carries the state shared by every command of one invocation.
type app struct {
	configPath string
	envFile    string

	cfg   *config.Config
	flush func()
}

// NewRootCommand builds the covideda command tree. Running it without a
// subcommand opens the interactive menu.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "covideda",
		Short: "Exploratory analysis of the Argentine COVID-19 case dataset",
		Long: `covideda loads the national COVID-19 case export into a SQL table
and runs nine exploratory reports over it, optionally normalized by census
population.

Without a subcommand it opens the interactive menu.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.run(a.runMenu),
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file (default ./covideda.yaml when present)")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading COVIDEDA_* variables")
	pf.String("storage", "", "storage backend: sqlite, postgres, mssql or mysql")
	pf.String("dsn", "", "storage connection string")
	pf.BoolP("verbose", "v", false, "enable verbose logs")
	pf.String("metrics-backend", "", "metrics backend: none, pushgateway or datadog")

	root.AddCommand(
		newMenuCommand(a),
		newLoadCommand(a),
		newReportCommand(a),
		newConfigCommand(a),
	)
	return root
}

// Execute runs the root command against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// setup loads and validates the configuration and installs the metrics
// backend.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Options{
		File:    a.configPath,
		EnvFile: a.envFile,
		Flags:   cmd.Root().PersistentFlags(),
	})
	if err != nil {
		return err
	}

	issues := config.Validate(*cfg)
	for _, iss := range issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid")
	}

	a.cfg = cfg
	a.flush = setupMetrics(cfg)
	return nil
}

func (a *app) teardown() {
	if a.flush != nil {
		a.flush()
		a.flush = nil
	}
}

// run flushes metrics once fn returns, whether or not it failed.
func (a *app) run(fn func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.teardown()
		return fn(cmd, args)
	}
}

// openStore opens the configured backend.
func (a *app) openStore(ctx context.Context) (storage.Repository, error) {
	if a.cfg.Verbose {
		log.Printf("storage: kind=%s table=%s", a.cfg.Storage.Kind, a.cfg.Storage.Table)
	}
	return storage.New(ctx, storage.Config{Kind: a.cfg.Storage.Kind, DSN: a.cfg.Storage.DSN})
}

func (a *app) runMenu(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	repo, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	m := &Menu{In: cmd.InOrStdin(), Out: cmd.OutOrStdout(), Repo: repo, Config: a.cfg}
	return m.Run(ctx)
}

func loadOptions(cfg *config.Config) casos.LoadOptions {
	return casos.LoadOptions{
		Job:           cfg.Job,
		Table:         cfg.Storage.Table,
		Comma:         cfg.Source.CommaRune(),
		BatchSize:     cfg.Loader.BatchSize,
		ChannelBuffer: cfg.Loader.ChannelBuffer,
		Verbose:       cfg.Verbose,
	}
}

func reportOptions(cfg *config.Config) report.Options {
	return report.Options{
		Job:                cfg.Job,
		Table:              cfg.Storage.Table,
		ProvinceCensusPath: cfg.Census.ProvincePath,
		SexCensusPath:      cfg.Census.SexPath,
	}
}
