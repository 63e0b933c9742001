package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"covideda/internal/casos"
	"covideda/internal/config"
	"covideda/internal/report"
	"covideda/internal/storage"

	"github.com/fatih/color"
)

// menuReports maps menu choices to report ids. Choices 1 and 2 manage the
// table and 0 exits.
var menuReports = map[string]string{
	"3": "1", "4": "2", "5": "3", "6": "4", "7": "5",
	"8": "6", "9": "7", "10": "8", "11": "9",
	"89": "89", "99": "99",
}

// Menu is the interactive numbered menu. A failing action prints its error
// and the loop keeps running.
type Menu struct {
	In     io.Reader
	Out    io.Writer
	Repo   storage.Repository
	Config *config.Config
}

// Run shows the menu until the user picks 0 or input ends.
func (m *Menu) Run(ctx context.Context) error {
	sc := bufio.NewScanner(m.In)
	for {
		m.show()
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return fmt.Errorf("menu: read choice: %w", err)
			}
			fmt.Fprintln(m.Out)
			return nil
		}

		choice := strings.TrimSpace(sc.Text())
		if choice == "0" {
			fmt.Fprintln(m.Out, "Bye.")
			return nil
		}
		if err := m.dispatch(ctx, choice); err != nil {
			color.New(color.FgRed).Fprintf(m.Out, "error: %v\n", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (m *Menu) dispatch(ctx context.Context, choice string) error {
	cfg := m.Config
	switch choice {
	case "1":
		if err := casos.CreateTable(ctx, m.Repo, cfg.Storage.Table); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(m.Out, "Table %s created.\n", cfg.Storage.Table)
		return nil
	case "2":
		sum, err := casos.Load(ctx, m.Repo, cfg.Source.Path, loadOptions(cfg))
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintln(m.Out, sum.String())
		return nil
	}

	id, ok := menuReports[choice]
	if !ok {
		color.New(color.FgYellow).Fprintf(m.Out, "Invalid option %q.\n", choice)
		return nil
	}
	return report.Run(ctx, m.Repo, id, reportOptions(cfg), m.Out)
}

func (m *Menu) show() {
	bold := color.New(color.Bold)
	bold.Fprintln(m.Out, "\n=== COVID-19 Argentina: exploratory analysis ===")
	fmt.Fprintln(m.Out, " 1) Create table")
	fmt.Fprintf(m.Out, " 2) Load CSV (%s)\n", m.Config.Source.Path)
	for _, r := range report.All() {
		choice := r.ID
		for c, id := range menuReports {
			if id == r.ID {
				choice = c
			}
		}
		fmt.Fprintf(m.Out, "%2s) %s\n", choice, r.Title)
	}
	fmt.Fprintln(m.Out, " 0) Exit")
	bold.Fprint(m.Out, "Choose an option: ")
}
