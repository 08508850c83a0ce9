package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"localstore/config"
	"localstore/pkg/session"
	"localstore/pkg/store"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Device-agent user operations",
		Long:  "Manage the users map and the current-user record",
	}

	cmd.AddCommand(userUpdateCmd())
	cmd.AddCommand(userCurrentCmd())
	cmd.AddCommand(userIDCmd())
	cmd.AddCommand(userListCmd())
	cmd.AddCommand(userRemoveCmd())

	return cmd
}

func userUpdateCmd() *cobra.Command {
	var (
		deviceID string
		current  bool
	)

	cmd := &cobra.Command{
		Use:   "update <agent-name>",
		Short: "Merge a user record into the users map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				mgr := session.NewManager(kv)

				user := session.User{AgentName: args[0], DeviceID: deviceID}
				if user.DeviceID == "" {
					// Keep the existing device ID when the agent is already known.
					users, err := mgr.Users(ctx)
					if err != nil {
						return err
					}
					if existing, ok := users[user.AgentName]; ok {
						user.DeviceID = existing.DeviceID
					} else {
						user = session.NewUser(user.AgentName)
					}
				}

				if current {
					if err := mgr.SetCurrentUser(ctx, user); err != nil {
						return err
					}
				} else if err := mgr.UpdateUserData(ctx, user); err != nil {
					return err
				}

				fmt.Println(session.UniqueID(user))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&deviceID, "device-id", "", "Device ID (generated when omitted)")
	cmd.Flags().BoolVar(&current, "current", false, "Also mark this user as the current user")

	return cmd
}

func userCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				user, found, err := session.NewManager(kv).CurrentUser(ctx)
				if err != nil {
					return err
				}
				if !found {
					fmt.Println("(nil)")
					return nil
				}
				fmt.Printf("%s\t%s\n", user.AgentName, session.UniqueID(user))
				return nil
			})
		},
	}
}

func userIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id <agent-name>",
		Short: "Print the unique ID of a known user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				users, err := session.NewManager(kv).Users(ctx)
				if err != nil {
					return err
				}
				user, ok := users[args[0]]
				if !ok {
					return fmt.Errorf("unknown agent %q", args[0])
				}
				fmt.Println(session.UniqueID(user))
				return nil
			})
		},
	}
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all known users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				users, err := session.NewManager(kv).Users(ctx)
				if err != nil {
					return err
				}
				names := make([]string, 0, len(users))
				for name := range users {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Printf("%s\t%s\n", name, session.UniqueID(users[name]))
				}
				return nil
			})
		},
	}
}

func userRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <agent-name>",
		Short: "Remove a user from the users map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(func(ctx context.Context, kv *store.Store, _ *config.Config) error {
				if err := session.NewManager(kv).RemoveUser(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("OK")
				return nil
			})
		},
	}
}
