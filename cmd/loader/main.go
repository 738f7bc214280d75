package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meuat/geo-api/internal/config"
	"github.com/meuat/geo-api/internal/database"
	"github.com/meuat/geo-api/internal/loader"
	"github.com/meuat/geo-api/internal/logger"
)

var (
	filePath     string
	batchSize    int
	createSchema bool
)

var rootCmd = &cobra.Command{
	Use:   "loader",
	Short: "Load a GeoJSON fazendas extract into PostGIS",
	Long: `Loader reads a GeoJSON FeatureCollection of fazenda records and bulk
inserts it into the fazendas table served by the API. Dates in DD/MM/YYYY
form are normalized to YYYY-MM-DD during the load.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&filePath, "file", "f", "", "path to the GeoJSON FeatureCollection (required)")
	rootCmd.Flags().IntVarP(&batchSize, "batch-size", "b", loader.DefaultBatchSize, "number of inserts per batch")
	rootCmd.Flags().BoolVar(&createSchema, "create-schema", false, "create the table and spatial index before loading")
	_ = rootCmd.MarkFlagRequired("file")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.Server.Env)

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	l := loader.New(db, log, batchSize)

	if createSchema {
		if err := l.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	inserted, err := l.LoadFile(ctx, filePath)
	if err != nil {
		return fmt.Errorf("load aborted after %d records: %w", inserted, err)
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
