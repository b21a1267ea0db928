package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/JustinWhittecar/critslots/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuildStore(t *testing.T) *BuildStore {
	t.Helper()
	sqlDB, err := ConnectBuildDB(filepath.Join(t.TempDir(), "builds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &BuildStore{DB: sqlDB}
}

func TestBuildStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestBuildStore(t)

	lt := models.LeftTorso
	ammo := "inst-ammo"
	b := &models.Build{
		ID:         "build-1",
		Name:       "Hunchback HBK-4G",
		EngineType: "STANDARD",
		GyroType:   "STANDARD",
		Equipment: []models.EquipmentInstance{
			{ID: "inst-ac", EquipmentID: 7, Name: "AC/20", CriticalSlots: 2, Location: &lt, Slots: []int{0, 1},
				IsRearMounted: true, LinkedAmmoID: &ammo, IsRemovable: true},
			{ID: "inst-ammo", Name: "IS Ammo AC/20", CriticalSlots: 1, IsRemovable: false},
		},
	}
	require.NoError(t, s.Save(ctx, b))

	got, err := s.Get(ctx, "build-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Hunchback HBK-4G", got.Name)
	assert.Equal(t, "STANDARD", got.EngineType)
	assert.NotEmpty(t, got.CreatedAt)
	assert.Equal(t, b.Equipment, got.Equipment)
}

func TestBuildStore_SaveReplacesEquipment(t *testing.T) {
	ctx := context.Background()
	s := newTestBuildStore(t)

	ct := models.CenterTorso
	b := &models.Build{ID: "b", Name: "x", EngineType: "STANDARD", GyroType: "STANDARD",
		Equipment: []models.EquipmentInstance{{ID: "a", Name: "A", CriticalSlots: 1, Location: &ct, Slots: []int{10}}}}
	require.NoError(t, s.Save(ctx, b))

	b.GyroType = "XL"
	b.Equipment = []models.EquipmentInstance{{ID: "a", Name: "A", CriticalSlots: 1}}
	require.NoError(t, s.Save(ctx, b))

	got, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "XL", got.GyroType)
	require.Len(t, got.Equipment, 1)
	assert.False(t, got.Equipment[0].Placed())
}

func TestBuildStore_HalfPlacedStoredUnplaced(t *testing.T) {
	ctx := context.Background()
	s := newTestBuildStore(t)

	ra := models.RightArm
	b := &models.Build{ID: "b", Name: "x", EngineType: "STANDARD", GyroType: "STANDARD",
		Equipment: []models.EquipmentInstance{{ID: "a", Name: "A", CriticalSlots: 1, Location: &ra}}}
	require.NoError(t, s.Save(ctx, b))

	got, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, got.Equipment[0].Location)
	assert.Nil(t, got.Equipment[0].Slots)
}

func TestBuildStore_GetMissing(t *testing.T) {
	s := newTestBuildStore(t)

	got, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBuildStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestBuildStore(t)

	require.NoError(t, s.Save(ctx, &models.Build{ID: "b", Name: "x", EngineType: "STANDARD", GyroType: "STANDARD"}))
	require.NoError(t, s.Delete(ctx, "b"))

	got, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, got)
}
