package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"localstore/config"
	"localstore/pkg/store"
)

func kvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kv",
		Short: "Key-Value operations",
		Long:  "Store, merge and retrieve JSON-serialized values",
	}

	cmd.AddCommand(kvSetCmd())
	cmd.AddCommand(kvGetCmd())
	cmd.AddCommand(kvPutCmd())
	cmd.AddCommand(kvDelCmd())
	cmd.AddCommand(kvExistsCmd())
	cmd.AddCommand(kvKeysCmd())
	cmd.AddCommand(kvDumpCmd())
	cmd.AddCommand(kvClearCmd())
	cmd.AddCommand(kvMergeObjectCmd())
	cmd.AddCommand(kvMergeArrayCmd())
	cmd.AddCommand(kvTTLCmd())

	return cmd
}

// parseValue interprets an argument as JSON, falling back to a plain string.
func parseValue(arg string) any {
	var v any
	if err := json.Unmarshal([]byte(arg), &v); err == nil {
		return v
	}
	return arg
}

// parsePairs splits key=value arguments into a record.
func parsePairs(args []string) (map[string]any, error) {
	record := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		record[key] = parseValue(value)
	}
	return record, nil
}

// printJSON renders a value the way it is stored.
func printJSON(v any) error {
	out, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func kvSetCmd() *cobra.Command {
	var ttl int64

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a key to a JSON-serialized value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				value := parseValue(args[1])
				if ttl > 0 {
					if err := kv.SetTTL(ctx, args[0], value, time.Duration(ttl)*time.Second); err != nil {
						return err
					}
				} else if err := kv.Set(ctx, args[0], value); err != nil {
					return err
				}
				fmt.Println("OK")
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&ttl, "ttl", 0, "Time to live in seconds")

	return cmd
}

func kvGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get the JSON-parsed value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				value, found, err := kv.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if !found {
					fmt.Println("(nil)")
					return nil
				}
				return printJSON(value)
			})
		},
	}
}

func kvPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <key=value> [key=value...]",
		Short: "Store each entry of a record individually",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := parsePairs(args)
			if err != nil {
				return err
			}
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				if err := kv.Put(ctx, record); err != nil {
					return err
				}
				fmt.Println("OK")
				return nil
			})
		},
	}
}

func kvDelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del <key> [key...]",
		Short: "Delete one or more keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				for _, key := range args {
					if err := kv.Delete(ctx, key); err != nil {
						return err
					}
				}
				fmt.Println("OK")
				return nil
			})
		},
	}
}

func kvExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <key>",
		Short: "Check if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				exists, err := kv.Exists(ctx, args[0])
				if err != nil {
					return err
				}
				if exists {
					fmt.Println("(integer) 1")
				} else {
					fmt.Println("(integer) 0")
				}
				return nil
			})
		},
	}
}

func kvKeysCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "keys <pattern>",
		Short: "Find keys matching a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				keys, err := kv.Keys(ctx, args[0], limit)
				if err != nil {
					return err
				}
				sort.Strings(keys)
				for i, key := range keys {
					fmt.Printf("%d) %s\n", i+1, key)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of keys to return")

	return cmd
}

func kvDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print every stored key with its JSON-parsed value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				all, err := kv.GetAll(ctx)
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(all))
				for key := range all {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					out, err := json.Marshal(all[key])
					if err != nil {
						return err
					}
					fmt.Printf("%s\t%s\n", key, out)
				}
				return nil
			})
		},
	}
}

func kvClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				if err := kv.Clear(ctx); err != nil {
					return err
				}
				fmt.Println("OK")
				return nil
			})
		},
	}
}

func kvMergeObjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge-object <key> <field=value> [field=value...]",
		Short: "Shallow-merge fields into the object stored at key",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := parsePairs(args[1:])
			if err != nil {
				return err
			}
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				if err := kv.MergeObject(ctx, args[0], record); err != nil {
					return err
				}
				fmt.Println("OK")
				return nil
			})
		},
	}
}

func kvMergeArrayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge-array <key> <item> [item...]",
		Short: "Append items to the array stored at key",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			items := make([]any, 0, len(args)-1)
			for _, arg := range args[1:] {
				items = append(items, parseValue(arg))
			}
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				if err := kv.MergeArray(ctx, args[0], items); err != nil {
					return err
				}
				fmt.Println("OK")
				return nil
			})
		},
	}
}

func kvTTLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ttl <key>",
		Short: "Get remaining TTL for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				ttl, err := kv.Underlying().TTL(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("(integer) %d\n", int64(ttl.Seconds()))
				return nil
			})
		},
	}
}
