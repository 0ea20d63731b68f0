package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"busreg-server-go/config"
	"busreg-server-go/db"
	"busreg-server-go/logging"
)

var seedFrom string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the bus stop directory",
	Long: `seed adds the starter bus stops when the directory is empty. With
--from it imports bus stops from an Excel workbook instead (column A name,
column B location, first row a header).`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFrom, "from", "f", "", "xlsx workbook to import")
	seedCmd.Flags().String("store", config.Defaults().Storage.Backend, "storage backend: redis or sqlite")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Dev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("error closing store", zap.Error(err))
		}
	}()

	if seedFrom == "" {
		added, err := db.SeedIfEmpty(ctx, store, log)
		if err != nil {
			return err
		}
		cmd.Printf("added %d bus stops\n", added)
		return nil
	}

	f, err := os.Open(seedFrom)
	if err != nil {
		return fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	report, err := db.ImportBusStopsFromExcel(ctx, store, f, log)
	if err != nil {
		return err
	}
	cmd.Printf("imported %d bus stops, skipped rows %v\n", report.Imported, report.SkippedRows)
	return nil
}
