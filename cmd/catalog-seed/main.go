package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fra-atlas/asset_backend/assetgen"
	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/models"
	"github.com/sirupsen/logrus"
)

// catalog-seed writes the built-in curated villages to the curated_villages table
// so a database-backed deployment starts from the same catalog.
func main() {
	migrate := flag.Bool("migrate", true, "Run AutoMigrate before seeding")
	dryRun := flag.Bool("dry-run", false, "Validate the entries without writing them")
	flag.Parse()

	logger := config.GetLogger()
	entries := assetgen.BuiltinEntries()

	rows := make([]*models.CuratedVillage, 0, len(entries))
	for _, e := range entries {
		row, err := models.NewCuratedVillage(e.State, e.District, e.Village, e.Record)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", e.Village, err)
			os.Exit(1)
		}
		rows = append(rows, row)
	}
	if *dryRun {
		fmt.Printf("%d curated villages valid\n", len(rows))
		return
	}

	if err := config.ConnectDatabaseWithRetry(5); err != nil {
		fmt.Fprintf(os.Stderr, "database not initialized: %v\n", err)
		os.Exit(1)
	}
	defer config.CloseDB()

	if *migrate {
		if err := models.MigrateTable(); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	failed := 0
	for _, row := range rows {
		if err := models.UpsertCuratedVillage(ctx, row); err != nil {
			config.LogError(logger, "catalog-seed", "main", "upsert curated village", row.Village, err)
			failed++
			continue
		}
		logger.WithFields(logrus.Fields{"village": row.Village, "district": row.District}).Info("curated village seeded")
	}
	fmt.Printf("Seeded %d of %d curated villages\n", len(rows)-failed, len(rows))
	if failed > 0 {
		os.Exit(1)
	}
}
