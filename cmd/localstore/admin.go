package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"localstore/config"
	"localstore/pkg/store"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative operations",
	}

	cmd.AddCommand(adminPingCmd())
	cmd.AddCommand(adminBackupCmd())
	cmd.AddCommand(adminRestoreCmd())

	return cmd
}

func adminPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the storage backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				if err := kv.Ping(ctx); err != nil {
					return err
				}
				fmt.Println("PONG")
				return nil
			})
		},
	}
}

func adminBackupCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a backup of the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, cfg *config.Config) error {
				path := file
				if path == "" {
					if err := os.MkdirAll(cfg.Storage.BackupDir, 0o750); err != nil {
						return err
					}
					path = filepath.Join(cfg.Storage.BackupDir,
						fmt.Sprintf("localstore-%s.bak", time.Now().Format("20060102-150405")))
				}
				if err := kv.Underlying().Backup(ctx, path); err != nil {
					return err
				}
				fmt.Println(path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Backup file path (defaults into the configured backup dir)")

	return cmd
}

func adminRestoreCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the store from a backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				if err := kv.Underlying().Restore(ctx, file); err != nil {
					return err
				}
				fmt.Println("OK")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Backup file to restore from")

	return cmd
}
