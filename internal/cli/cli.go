// Package cli implements the labordata command line: bootstrap and update the
// persisted dataset, and print the latest indicators.
package cli

import (
	"context"
	"flag"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/i474232898/labor-market-dashboard/internal/config"
	"github.com/i474232898/labor-market-dashboard/internal/labor"
	"github.com/i474232898/labor-market-dashboard/internal/presenter"
	"github.com/i474232898/labor-market-dashboard/internal/store"
)

// App carries what every command needs. Commands are short lived, so the
// upstream source is opened per invocation.
type App struct {
	Config *config.AppConfig

	// DataPath points at the value of the global -data flag.
	DataPath *string

	// OpenSource returns the upstream source and a function releasing it.
	OpenSource func(*config.AppConfig) (labor.Source, func(), error)

	Catalog *presenter.Catalog

	Stdout, Stderr io.Writer
	Now            func() time.Time
}

// Register adds the commands to c.
func Register(c *subcommands.Commander, app *App) {
	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.Now == nil {
		app.Now = time.Now
	}
	if app.Catalog == nil {
		app.Catalog = presenter.DefaultCatalog()
	}

	c.Register(&bootstrapCmd{app: app}, "dataset")
	c.Register(&updateCmd{app: app}, "dataset")
	c.Register(&latestCmd{app: app}, "report")
}

func (a *App) dataPath() string {
	if a.DataPath != nil && *a.DataPath != "" {
		return *a.DataPath
	}
	return a.Config.DataPath
}

func (a *App) store() *store.FileStore {
	return store.NewFileStore(a.dataPath())
}

// service opens the upstream source and returns a Service over the dataset file.
func (a *App) service() (*labor.Service, func(), error) {
	src, closeFn, err := a.OpenSource(a.Config)
	if err != nil {
		return nil, func() {}, err
	}
	return labor.NewService(a.store(), src, a.Config.Series), closeFn, nil
}

// Main parses the command line and runs the selected command.
func Main(ctx context.Context, app *App) subcommands.ExitStatus {
	commander := subcommands.NewCommander(flag.CommandLine, "labordata")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	Register(commander, app)

	flag.Parse()
	return commander.Execute(ctx)
}
