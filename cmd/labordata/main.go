package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/i474232898/labor-market-dashboard/internal/cli"
	"github.com/i474232898/labor-market-dashboard/internal/config"
	"github.com/i474232898/labor-market-dashboard/internal/labor"
	"github.com/i474232898/labor-market-dashboard/internal/labor/bls"
	"github.com/i474232898/labor-market-dashboard/internal/presenter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	catalog, err := presenter.LoadCatalog(cfg.SeriesCatalog)
	if err != nil {
		log.Fatalf("failed to load series catalog: %v", err)
	}

	app := &cli.App{
		Config:   cfg,
		DataPath: flag.String("data", cfg.DataPath, "Path to the dataset CSV file (.csv or .csv.gz)"),
		OpenSource: func(cfg *config.AppConfig) (labor.Source, func(), error) {
			return bls.NewFromConfig(cfg)
		},
		Catalog: catalog,
	}
	os.Exit(int(cli.Main(context.Background(), app)))
}
