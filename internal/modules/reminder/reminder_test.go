package reminder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zovida/core/internal/models"
	"github.com/zovida/core/internal/pkg/keyvalue"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(keyvalue.NewMemory(), zap.NewNop())
}

func TestAddFillsDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.Add(ctx, &CreateReminderDTO{MedicineName: "Aspirin"})
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Aspirin", item.MedicineName)
	assert.Equal(t, "08:00 AM", item.Time)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, item.Days)
	assert.True(t, item.IsActive)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestAddKeepsExplicitSchedule(t *testing.T) {
	store := newTestStore(t)

	item, err := store.Add(context.Background(), &CreateReminderDTO{
		MedicineName: "Metformin",
		Dosage:       "500mg",
		Time:         "09:30 PM",
		Days:         []string{"Mon", "Wed", "Fri"},
	})
	require.NoError(t, err)

	assert.Equal(t, "09:30 PM", item.Time)
	assert.Equal(t, []string{"Mon", "Wed", "Fri"}, item.Days)
	assert.Equal(t, "500mg", item.Dosage)
}

func TestCreateFromResult(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result := &models.AnalysisResult{
		ID: "scan-1",
		Medicines: []models.Medicine{
			{Name: "Aspirin", Dosage: "100mg"},
			{Name: "Warfarin", Dosage: "5mg"},
		},
	}

	created, err := store.CreateFromResult(ctx, result)
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, "Aspirin", created[0].MedicineName)
	assert.Equal(t, "100mg", created[0].Dosage)
	assert.Equal(t, "08:00 AM", created[0].Time)
	assert.Len(t, created[0].Days, 7)
	assert.True(t, created[1].IsActive)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestToggle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.Add(ctx, &CreateReminderDTO{MedicineName: "Aspirin"})
	require.NoError(t, err)

	toggled, err := store.Toggle(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = store.Toggle(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	_, err = store.Toggle(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateIsPartial(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.Add(ctx, &CreateReminderDTO{MedicineName: "Aspirin", Dosage: "100mg"})
	require.NoError(t, err)

	newTime := "06:00 PM"
	updated, err := store.Update(ctx, item.ID, &UpdateReminderDTO{Time: &newTime})
	require.NoError(t, err)

	assert.Equal(t, "06:00 PM", updated.Time)
	assert.Equal(t, "Aspirin", updated.MedicineName)
	assert.Equal(t, "100mg", updated.Dosage)

	_, err = store.Update(ctx, "missing", &UpdateReminderDTO{Time: &newTime})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.Add(ctx, &CreateReminderDTO{MedicineName: "Aspirin"})
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, item.ID))
	assert.ErrorIs(t, store.Remove(ctx, item.ID), ErrNotFound)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
