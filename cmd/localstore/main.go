package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"localstore/config"
	"localstore/pkg/store"
	"localstore/storage"
)

var (
	configPath string
	dataDir    string
	backend    string
	timeout    int
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "localstore",
		Short: "localstore - persistent JSON key-value session store",
		Long:  `localstore stores JSON-serialized values in an embedded key-value backend and adds merge-on-write and device-agent session helpers`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Storage backend: badger, bolt or memory (overrides config)")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 30, "Operation timeout in seconds")

	// Add subcommands
	rootCmd.AddCommand(kvCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Using default configuration: %v\n", err)
		cfg = config.GetDefaultConfig()
	}

	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if backend != "" {
		cfg.Storage.Backend = backend
	}

	return cfg
}

// newLogger builds the application logger from config.
func newLogger(cfg *config.Config) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "localstore",
		Level:      hclog.LevelFromString(cfg.Logging.Level),
		JSONFormat: cfg.Logging.Format == "json",
	})
}

// runWithStore opens the configured backend, runs fn against the store and
// closes everything afterwards. A failed availability probe surfaces a
// blocking warning before the error is returned.
func runWithStore(fn func(ctx context.Context, kv *store.Store, cfg *config.Config) error) error {
	cfg := loadConfig()
	logger := newLogger(cfg)

	s, err := storage.Open(storage.Options{
		Backend:    cfg.Storage.Backend,
		DataDir:    cfg.Storage.DataDir,
		GCInterval: time.Duration(cfg.Storage.GCInterval) * time.Second,
		CacheMB:    cfg.Storage.CacheMB,
	})
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	kv, err := store.New(s, store.WithLogger(logger))
	if err != nil {
		_ = s.Close()
		if errors.Is(err, store.ErrStorageUnavailable) {
			fmt.Fprintln(os.Stderr, "WARNING: persistent storage is unavailable; values cannot be saved on this device")
		}
		return err
	}
	defer kv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	return fn(ctx, kv, cfg)
}
