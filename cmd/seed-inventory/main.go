// seed-inventory provisions nightly room availability from a YAML file
// into the store the server is configured with.
package main

import (
	"context"
	"fmt"
	"os"

	"hotel-booking-server/config"
	"hotel-booking-server/logger"
	"hotel-booking-server/storage"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var filePath, backend string
	var dryRun bool

	flagSet := pflag.NewFlagSet("seed-inventory", pflag.ContinueOnError)
	flagSet.StringVarP(&filePath, "file", "f", "inventory.yaml", "path to the YAML seed file")
	flagSet.StringVar(&backend, "backend", "", "override STORE_BACKEND (postgres or redis)")
	flagSet.BoolVar(&dryRun, "dry-run", false, "print the expanded nights without writing them")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	records, err := parsePlan(data)
	if err != nil {
		return err
	}

	if dryRun {
		for _, rec := range records {
			fmt.Printf("%s seaView=%s gardenView=%s\n", rec.Date, rec.Counts["seaView"], rec.Counts["gardenView"])
		}
		return nil
	}

	if backend != "" {
		os.Setenv("STORE_BACKEND", backend)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := checkBackend(cfg.Store.Backend); err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := seed(ctx, store, records); err != nil {
		return err
	}
	log.Info("inventory seeded", "nights", len(records), "from", records[0].Date, "to", records[len(records)-1].Date)
	return nil
}
