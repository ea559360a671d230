// Command migrate is the Shuttlebook bulk-migration CLI.
//
// Usage:
//
//	shuttlebook-migrate run --file batch.json --organizer 6f1e... [--strict] [--dry-run] [--workers 4]
//	shuttlebook-migrate validate --file batch.json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shuttlebook/shuttlebook-data/internal/config"
	"github.com/shuttlebook/shuttlebook-data/internal/db"
	"github.com/shuttlebook/shuttlebook-data/internal/migrate"
	"github.com/shuttlebook/shuttlebook-data/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "shuttlebook-migrate",
		Short: "Shuttlebook legacy-data migration CLI",
	}

	root.AddCommand(runCmd())
	root.AddCommand(validateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var (
		file      string
		organizer string
		strict    bool
		dryRun    bool
		workers   int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one migration batch against the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			organizerID, err := uuid.Parse(organizer)
			if err != nil {
				return fmt.Errorf("--organizer must be a UUID: %w", err)
			}
			batch, err := loadBatch(file)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			logger.Info("Connecting to database...")
			pool, err := db.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			if workers == 0 {
				workers = cfg.MigrationPaymentWorkers
			}
			m := migrate.New(store.NewPostgres(pool.Pool), logger, migrate.Options{
				StrictResolution: strict || cfg.MigrationStrict,
				DryRun:           dryRun,
				PaymentWorkers:   workers,
			})

			start := time.Now()
			result := m.Run(ctx, organizerID, batch)
			logger.Info("Migration finished",
				"duration", time.Since(start).Round(time.Millisecond),
				"summary", result.Summary())
			for _, e := range result.Errors {
				logger.Error("migration error", "error", e)
			}
			fmt.Println(result.Message)
			if !result.Success {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to the migration batch JSON file (required)")
	cmd.Flags().StringVar(&organizer, "organizer", "", "Organizer UUID owning the migrated records (required)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Disable fuzzy identity resolution")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve and validate without writing")
	cmd.Flags().IntVar(&workers, "workers", 0, "Payment insert worker count (0 = config default)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("organizer")
	return cmd
}

// --------------------------------------------------------------------------
// validate command
// --------------------------------------------------------------------------

func validateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Structurally validate a batch file without touching the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := loadBatch(file)
			if err != nil {
				return err
			}
			errs := migrate.Validate(batch)
			if len(errs) == 0 {
				fmt.Println("batch is valid")
				return nil
			}
			for _, e := range errs {
				logger.Error("validation error", "error", e)
			}
			return fmt.Errorf("batch has %d validation error(s)", len(errs))
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to the migration batch JSON file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func loadBatch(path string) (*migrate.MigrationData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	var batch migrate.MigrationData
	if err := json.NewDecoder(f).Decode(&batch); err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", path, err)
	}
	return &batch, nil
}
