package family

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zovida/core/internal/pkg/keyvalue"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(keyvalue.NewMemory(), zap.NewNop())
}

func TestAddDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	member, err := store.Add(ctx, &CreateMemberDTO{
		Name:     "Maria",
		Relation: "Mother",
		Phone:    "+1 555 0100",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, member.ID)
	assert.True(t, member.Notifications)
	assert.False(t, member.LocationAccess)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Maria", list[0].Name)
}

func TestToggleSetting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	member, err := store.Add(ctx, &CreateMemberDTO{Name: "Maria", Relation: "Mother", Phone: "+1 555 0100"})
	require.NoError(t, err)

	updated, err := store.ToggleSetting(ctx, member.ID, "notifications")
	require.NoError(t, err)
	assert.False(t, updated.Notifications)

	updated, err = store.ToggleSetting(ctx, member.ID, "locationAccess")
	require.NoError(t, err)
	assert.True(t, updated.LocationAccess)

	_, err = store.ToggleSetting(ctx, member.ID, "ringtone")
	assert.Error(t, err)

	_, err = store.ToggleSetting(ctx, "missing", "notifications")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	member, err := store.Add(ctx, &CreateMemberDTO{Name: "Maria", Relation: "Mother", Phone: "+1 555 0100"})
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, member.ID))
	assert.ErrorIs(t, store.Remove(ctx, member.ID), ErrNotFound)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
