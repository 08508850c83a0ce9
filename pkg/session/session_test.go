package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"localstore/pkg/store"
	"localstore/storage"
)

func newManagerForTest(t *testing.T) (*Manager, *store.Store) {
	t.Helper()

	s := storage.NewMemoryStorage()
	t.Cleanup(func() { _ = s.Close() })

	kv, err := store.New(s)
	require.NoError(t, err)

	return NewManager(kv), kv
}

func TestUniqueID(t *testing.T) {
	t.Parallel()

	u := User{AgentName: "laptop", DeviceID: "dev-123"}
	require.Equal(t, "dev-123/laptop", UniqueID(u))
}

func TestNewUserGeneratesDeviceID(t *testing.T) {
	t.Parallel()

	u := NewUser("laptop")
	require.Equal(t, "laptop", u.AgentName)
	require.NotEmpty(t, u.DeviceID)

	other := NewUser("laptop")
	require.NotEqual(t, u.DeviceID, other.DeviceID)
}

func TestUpdateUserDataMergesIntoUsersMap(t *testing.T) {
	t.Parallel()

	mgr, _ := newManagerForTest(t)
	ctx := context.Background()

	laptop := User{AgentName: "laptop", DeviceID: "dev-1"}
	phone := User{AgentName: "phone", DeviceID: "dev-2"}

	require.NoError(t, mgr.UpdateUserData(ctx, laptop))
	require.NoError(t, mgr.UpdateUserData(ctx, phone))

	users, err := mgr.Users(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]User{"laptop": laptop, "phone": phone}, users)
}

func TestUpdateUserDataRejectsEmptyAgentName(t *testing.T) {
	t.Parallel()

	mgr, _ := newManagerForTest(t)

	err := mgr.UpdateUserData(context.Background(), User{DeviceID: "dev-1"})
	require.ErrorIs(t, err, store.ErrInvalidValue)
}

func TestUpdateUserDataRefreshesMatchingCurrentUser(t *testing.T) {
	t.Parallel()

	mgr, _ := newManagerForTest(t)
	ctx := context.Background()

	original := User{AgentName: "laptop", DeviceID: "dev-1"}
	require.NoError(t, mgr.SetCurrentUser(ctx, original))

	// Same agent, new device ID: current_user must follow.
	updated := User{AgentName: "laptop", DeviceID: "dev-9"}
	require.NoError(t, mgr.UpdateUserData(ctx, updated))

	current, found, err := mgr.CurrentUser(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, updated, current)
}

func TestUpdateUserDataLeavesOtherCurrentUserAlone(t *testing.T) {
	t.Parallel()

	mgr, _ := newManagerForTest(t)
	ctx := context.Background()

	laptop := User{AgentName: "laptop", DeviceID: "dev-1"}
	require.NoError(t, mgr.SetCurrentUser(ctx, laptop))

	phone := User{AgentName: "phone", DeviceID: "dev-2"}
	require.NoError(t, mgr.UpdateUserData(ctx, phone))

	current, found, err := mgr.CurrentUser(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, laptop, current)
}

func TestCurrentUserAbsent(t *testing.T) {
	t.Parallel()

	mgr, _ := newManagerForTest(t)

	_, found, err := mgr.CurrentUser(context.Background())
	require.NoError(t, err)
	require.False(t, found)
}

func TestCurrentUserResolvesThroughUsersMap(t *testing.T) {
	t.Parallel()

	mgr, kv := newManagerForTest(t)
	ctx := context.Background()

	laptop := User{AgentName: "laptop", DeviceID: "dev-1"}
	require.NoError(t, mgr.SetCurrentUser(ctx, laptop))

	// A current_user record whose agent is missing from the users map is
	// reported as not found.
	require.NoError(t, kv.Set(ctx, "current_user", User{AgentName: "ghost", DeviceID: "dev-0"}))

	_, found, err := mgr.CurrentUser(ctx)
	require.NoError(t, err)
	require.False(t, found)
}

func TestRemoveUser(t *testing.T) {
	t.Parallel()

	mgr, _ := newManagerForTest(t)
	ctx := context.Background()

	laptop := User{AgentName: "laptop", DeviceID: "dev-1"}
	phone := User{AgentName: "phone", DeviceID: "dev-2"}
	require.NoError(t, mgr.SetCurrentUser(ctx, laptop))
	require.NoError(t, mgr.UpdateUserData(ctx, phone))

	require.NoError(t, mgr.RemoveUser(ctx, "laptop"))

	users, err := mgr.Users(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]User{"phone": phone}, users)

	// Removing the current user clears the current-user record too.
	_, found, err := mgr.CurrentUser(ctx)
	require.NoError(t, err)
	require.False(t, found)

	// Removing an unknown agent is a no-op.
	require.NoError(t, mgr.RemoveUser(ctx, "ghost"))
}
