package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"

	"github.com/google/subcommands"

	"github.com/i474232898/labor-market-dashboard/internal/labor"
	"github.com/i474232898/labor-market-dashboard/internal/presenter"
)

type bootstrapCmd struct {
	app   *App
	start int
	end   int
}

func (*bootstrapCmd) Name() string { return "bootstrap" }
func (*bootstrapCmd) Synopsis() string {
	return "download the full history of every series and save it as the baseline dataset"
}
func (*bootstrapCmd) Usage() string {
	return `labordata [-data <path>] bootstrap [-start <year>] [-end <year>]

  Fetches every configured series for the inclusive year range and writes the
  baseline dataset, replacing any existing file. Nothing is written on failure.
`
}

func (c *bootstrapCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.start, "start", c.app.Config.BootstrapStartYear, "First year to fetch.")
	f.IntVar(&c.end, "end", 0, "Last year to fetch (defaults to the current year).")
}

func (c *bootstrapCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	end := c.end
	if end == 0 {
		end = c.app.Now().Year()
	}

	svc, closeFn, err := c.app.service()
	defer closeFn()
	if err != nil {
		fmt.Fprintf(c.app.Stderr, "Bootstrap failed: %v\n", err)
		return subcommands.ExitFailure
	}

	ds, err := svc.Bootstrap(ctx, c.start, end)
	if err != nil {
		fmt.Fprintf(c.app.Stderr, "Bootstrap failed: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(c.app.Stdout, "Data saved to %s (%d rows)\n", c.app.dataPath(), len(ds))
	return subcommands.ExitSuccess
}

type updateCmd struct {
	app *App
}

func (*updateCmd) Name() string { return "update" }
func (*updateCmd) Synopsis() string {
	return "append observations newer than the last month of the baseline dataset"
}
func (*updateCmd) Usage() string {
	return `labordata [-data <path>] update

  Fetches from the year of the latest stored month through the current year and
  merges rows dated after it. The dataset is rewritten only when rows were added.
  Requires a baseline created by bootstrap.
`
}

func (*updateCmd) SetFlags(*flag.FlagSet) {}

func (c *updateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, closeFn, err := c.app.service()
	defer closeFn()
	if err != nil {
		fmt.Fprintf(c.app.Stderr, "Update failed: %v\n", err)
		return subcommands.ExitFailure
	}

	res, err := svc.Update(ctx)
	switch {
	case errors.Is(err, labor.ErrMissingBaseline):
		fmt.Fprintf(c.app.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	case err != nil:
		fmt.Fprintf(c.app.Stderr, "Update failed: %v\n", err)
		return subcommands.ExitFailure
	}

	if res.Added == 0 {
		fmt.Fprintln(c.app.Stdout, "No new data available; dataset is already up to date.")
		return subcommands.ExitSuccess
	}
	fmt.Fprintf(c.app.Stdout, "Fetched %d new rows\n", res.Added)
	fmt.Fprintf(c.app.Stdout, "Updated dataset saved to %s (%d rows)\n", c.app.dataPath(), res.Total)
	return subcommands.ExitSuccess
}

type latestCmd struct {
	app    *App
	format string
	months int
}

func (*latestCmd) Name() string     { return "latest" }
func (*latestCmd) Synopsis() string { return "print the latest value of every series" }
func (*latestCmd) Usage() string {
	return `labordata [-data <path>] latest [-format ascii|markdown|pretty] [-months <n>]

  Prints one row per series with its latest month, value and change from the
  prior month. With -months, also prints the last n months side by side.
`
}

func (c *latestCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", string(presenter.ReportASCII), "Output format: ascii, markdown or pretty.")
	f.IntVar(&c.months, "months", 0, "Also print the last n months of every series.")
}

func (c *latestCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format, err := presenter.ParseReportFormat(c.format)
	if err != nil {
		fmt.Fprintln(c.app.Stderr, err)
		return subcommands.ExitUsageError
	}

	ds, err := c.app.store().Load(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(c.app.Stderr, "Error: %v\n", labor.ErrMissingBaseline)
			return subcommands.ExitFailure
		}
		fmt.Fprintln(c.app.Stderr, err)
		return subcommands.ExitFailure
	}

	out, err := presenter.IndicatorTable(presenter.Indicators(ds, c.app.Catalog), format)
	if err != nil {
		fmt.Fprintln(c.app.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(c.app.Stdout, out)

	if c.months > 0 {
		out, err := presenter.PivotTable(presenter.Pivot(ds, c.app.Catalog), c.months, format)
		if err != nil {
			fmt.Fprintln(c.app.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Fprintln(c.app.Stdout, out)
	}
	return subcommands.ExitSuccess
}
