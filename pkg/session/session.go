// Package session layers device-agent user bookkeeping on top of the
// JSON key-value store: a `users` map keyed by agent name and a
// `current_user` record.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"localstore/pkg/store"
)

// Storage keys owned by the session layer.
const (
	usersKey       = "users"
	currentUserKey = "current_user"
)

// User identifies a device agent.
type User struct {
	AgentName string `json:"agent_name"`
	DeviceID  string `json:"device_id"`
}

// NewUser returns a User for the given agent with a freshly generated
// device ID.
func NewUser(agentName string) User {
	return User{AgentName: agentName, DeviceID: uuid.NewString()}
}

// UniqueID composes the user's unique identifier as "<device_id>/<agent_name>".
func UniqueID(u User) string {
	return u.DeviceID + "/" + u.AgentName
}

// Manager performs user lookups and updates against a Store.
type Manager struct {
	kv *store.Store
}

// NewManager returns a Manager over the given store.
func NewManager(kv *store.Store) *Manager {
	return &Manager{kv: kv}
}

// UpdateUserData merges user into the users map keyed by agent name. When a
// current user is recorded and its agent name matches, the current-user
// record is overwritten as well.
func (m *Manager) UpdateUserData(ctx context.Context, user User) error {
	if user.AgentName == "" {
		return fmt.Errorf("%w: user agent name is required", store.ErrInvalidValue)
	}

	if err := m.kv.MergeObject(ctx, usersKey, map[string]any{user.AgentName: user}); err != nil {
		return err
	}

	var current User
	err := m.kv.GetInto(ctx, currentUserKey, &current)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if current.AgentName == user.AgentName {
		return m.kv.Set(ctx, currentUserKey, user)
	}
	return nil
}

// SetCurrentUser records user in the users map and marks it as the
// current user.
func (m *Manager) SetCurrentUser(ctx context.Context, user User) error {
	if user.AgentName == "" {
		return fmt.Errorf("%w: user agent name is required", store.ErrInvalidValue)
	}

	if err := m.kv.MergeObject(ctx, usersKey, map[string]any{user.AgentName: user}); err != nil {
		return err
	}
	return m.kv.Set(ctx, currentUserKey, user)
}

// CurrentUser resolves the stored current-user record through the users map
// so the returned entry reflects the latest UpdateUserData write. The found
// flag is false when no current user is recorded or it is missing from the
// users map.
func (m *Manager) CurrentUser(ctx context.Context) (User, bool, error) {
	var current User
	err := m.kv.GetInto(ctx, currentUserKey, &current)
	if errors.Is(err, store.ErrNotFound) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}

	users, err := m.Users(ctx)
	if err != nil {
		return User{}, false, err
	}

	user, ok := users[current.AgentName]
	return user, ok, nil
}

// Users returns the full users map. An absent map is an empty one.
func (m *Manager) Users(ctx context.Context) (map[string]User, error) {
	var users map[string]User
	err := m.kv.GetInto(ctx, usersKey, &users)
	if errors.Is(err, store.ErrNotFound) {
		return map[string]User{}, nil
	}
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = map[string]User{}
	}
	return users, nil
}

// RemoveUser drops the agent from the users map and clears the current-user
// record when it points at the removed agent.
func (m *Manager) RemoveUser(ctx context.Context, agentName string) error {
	if agentName == "" {
		return fmt.Errorf("%w: agent name is required", store.ErrInvalidValue)
	}

	users, err := m.Users(ctx)
	if err != nil {
		return err
	}
	if _, ok := users[agentName]; !ok {
		return nil
	}
	delete(users, agentName)

	if err := m.kv.Set(ctx, usersKey, users); err != nil {
		return err
	}

	var current User
	err = m.kv.GetInto(ctx, currentUserKey, &current)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if current.AgentName == agentName {
		return m.kv.Delete(ctx, currentUserKey)
	}
	return nil
}
