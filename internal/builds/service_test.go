package builds

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinWhittecar/critslots/internal/critslots"
	"github.com/JustinWhittecar/critslots/internal/models"
)

type memRepo struct {
	mu     sync.Mutex
	builds map[string]models.Build
	saves  int
	err    error
}

func newMemRepo() *memRepo {
	return &memRepo{builds: map[string]models.Build{}}
}

func (r *memRepo) Get(_ context.Context, id string) (*models.Build, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.builds[id]
	if !ok {
		return nil, nil
	}
	b.Equipment = append([]models.EquipmentInstance(nil), b.Equipment...)
	return &b, nil
}

func (r *memRepo) Save(_ context.Context, b *models.Build) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saves++
	cp := *b
	cp.Equipment = append([]models.EquipmentInstance(nil), b.Equipment...)
	r.builds[b.ID] = cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.builds, id)
	return nil
}

type mapCatalog map[string]models.Equipment

func (c mapCatalog) Lookup(_ context.Context, name string) (models.Equipment, bool, error) {
	e, ok := c[name]
	return e, ok, nil
}

type recorder struct {
	reports []ChangeReport
}

func (r *recorder) Publish(_ string, report ChangeReport) {
	r.reports = append(r.reports, report)
}

// blockingNotifier holds Publish until release is closed.
type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (n *blockingNotifier) Publish(string, ChangeReport) {
	close(n.entered)
	<-n.release
}

var catalog = mapCatalog{
	"Medium Laser":  {ID: 1, Name: "Medium Laser", Slots: 1},
	"Autocannon/20": {ID: 2, Name: "Autocannon/20", Slots: 10},
	"Heat Sink":     {ID: 3, Name: "Heat Sink", Slots: 1},
}

func newTestService(t *testing.T) (*Service, *memRepo, *recorder) {
	t.Helper()
	repo := newMemRepo()
	rec := &recorder{}
	return NewService(repo, catalog, rec, zerolog.Nop()), repo, rec
}

func TestCreate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, "", "XL Engine(IS)", "Heavy Duty Gyro")
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "Untitled Build", b.Name)
	assert.Equal(t, string(critslots.EngineXLIS), b.EngineType)
	assert.Equal(t, string(critslots.GyroHeavyDuty), b.GyroType)
	assert.Empty(t, b.Equipment)
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrBuildNotFound))
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, "Doomed", "", "")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, b.ID))

	_, err = svc.Get(ctx, b.ID)
	assert.True(t, errors.Is(err, ErrBuildNotFound))
	assert.True(t, errors.Is(svc.Delete(ctx, b.ID), ErrBuildNotFound))
}

func TestAddPlaceUnplaceRemove(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, "Test", "STANDARD", "STANDARD")
	require.NoError(t, err)

	inst, err := svc.AddEquipment(ctx, b.ID, "Autocannon/20")
	require.NoError(t, err)
	assert.Equal(t, 10, inst.CriticalSlots)
	assert.Equal(t, 2, inst.EquipmentID)
	assert.False(t, inst.Placed())
	assert.True(t, inst.IsRemovable)

	_, err = svc.Place(ctx, b.ID, inst.ID, models.RightTorso, []int{0, 1, 2})
	assert.True(t, errors.Is(err, ErrSlotCountMismatch))

	_, err = svc.Place(ctx, b.ID, inst.ID, models.Location("XX"), []int{0})
	assert.True(t, errors.Is(err, ErrInvalidLocation))

	_, err = svc.Place(ctx, b.ID, inst.ID, models.RightTorso, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 12})
	assert.True(t, errors.Is(err, ErrSlotOutOfRange))

	got, err := svc.Place(ctx, b.ID, inst.ID, models.RightTorso, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(t, err)
	require.Len(t, got.Equipment, 1)
	assert.True(t, got.Equipment[0].Placed())
	assert.Equal(t, models.RightTorso, *got.Equipment[0].Location)

	got, err = svc.Unplace(ctx, b.ID, inst.ID)
	require.NoError(t, err)
	assert.False(t, got.Equipment[0].Placed())
	assert.Len(t, got.Unallocated(), 1)

	got, err = svc.Remove(ctx, b.ID, inst.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Equipment)

	_, err = svc.Remove(ctx, b.ID, inst.ID)
	assert.True(t, errors.Is(err, ErrInstanceNotFound))
}

func TestAddEquipment_Unknown(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	b, err := svc.Create(ctx, "Test", "", "")
	require.NoError(t, err)

	_, err = svc.AddEquipment(ctx, b.ID, "Warp Drive")
	assert.True(t, errors.Is(err, ErrUnknownEquipment))
}

func TestRemove_NotRemovable(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	loc := models.Head
	require.NoError(t, repo.Save(ctx, &models.Build{
		ID: "b1", EngineType: "STANDARD", GyroType: "STANDARD",
		Equipment: []models.EquipmentInstance{
			{ID: "cockpit-ext", Name: "Fixed Thing", CriticalSlots: 1, Location: &loc, Slots: []int{2}},
		},
	}))

	_, err := svc.Remove(ctx, "b1", "cockpit-ext")
	assert.True(t, errors.Is(err, ErrNotRemovable))
}

func placedAt(id, name string, loc models.Location, slots ...int) models.EquipmentInstance {
	l := loc
	return models.EquipmentInstance{
		ID: id, Name: name, CriticalSlots: len(slots),
		Location: &l, Slots: slots, IsRemovable: true,
	}
}

func TestSetEngine_DisplacesSideTorsoEquipment(t *testing.T) {
	svc, repo, rec := newTestService(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Build{
		ID: "b1", Name: "Hunchback", EngineType: "STANDARD", GyroType: "STANDARD",
		Equipment: []models.EquipmentInstance{
			placedAt("ac", "Autocannon/20", models.RightTorso, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9),
			placedAt("hs", "Heat Sink", models.LeftTorso, 5),
			placedAt("ml", "Medium Laser", models.LeftArm, 0),
		},
	}))

	report, err := svc.SetEngine(ctx, "b1", "XL_IS")
	require.NoError(t, err)

	assert.Equal(t, "engine", report.Change)
	assert.Equal(t, "STANDARD", report.From)
	assert.Equal(t, "XL_IS", report.To)
	assert.Equal(t, []string{"ac"}, report.Displaced)
	assert.Equal(t, []models.Location{models.RightTorso}, report.AffectedLocations)
	assert.Len(t, report.Reservations[models.LeftTorso], 1)

	stored, err := repo.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "XL_IS", stored.EngineType)
	assert.False(t, stored.Equipment[0].Placed())
	assert.True(t, stored.Equipment[1].Placed())
	assert.True(t, stored.Equipment[2].Placed())

	require.Len(t, rec.reports, 1)
	assert.Equal(t, report.Displaced, rec.reports[0].Displaced)
}

func TestSetGyro_LargeGyro(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Build{
		ID: "b1", EngineType: "STANDARD", GyroType: "STANDARD",
		Equipment: []models.EquipmentInstance{
			placedAt("ml", "Medium Laser", models.CenterTorso, 10),
			placedAt("ml2", "Medium Laser", models.CenterTorso, 11),
		},
	}))

	report, err := svc.SetGyro(ctx, "b1", "XL")
	require.NoError(t, err)
	// An XL gyro behind a standard engine fills the whole center torso.
	assert.Equal(t, []string{"ml", "ml2"}, report.Displaced)
	assert.Equal(t, []models.Location{models.CenterTorso}, report.AffectedLocations)
	assert.Equal(t, "XL", report.Build.GyroType)
}

func TestSetGyro_ShrinkKeepsEverything(t *testing.T) {
	svc, repo, rec := newTestService(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Build{
		ID: "b1", EngineType: "STANDARD", GyroType: "STANDARD",
		Equipment: []models.EquipmentInstance{
			placedAt("ml", "Medium Laser", models.CenterTorso, 10),
		},
	}))

	report, err := svc.SetGyro(ctx, "b1", "COMPACT")
	require.NoError(t, err)
	assert.Empty(t, report.Displaced)
	assert.Empty(t, report.AffectedLocations)
	assert.True(t, report.Build.Equipment[0].Placed())
	assert.Len(t, rec.reports, 1)
}

func TestSetEngine_SaveFailure(t *testing.T) {
	svc, repo, rec := newTestService(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Build{ID: "b1", EngineType: "STANDARD", GyroType: "STANDARD"}))
	repo.err = errors.New("disk full")

	_, err := svc.SetEngine(ctx, "b1", "XL_CLAN")
	assert.Error(t, err)
	assert.Empty(t, rec.reports)
}

func TestImport_UnplacesConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	b, conflicts, err := svc.Import(ctx, "Odd", critslots.EngineXLIS, critslots.GyroStandard, []models.EquipmentInstance{
		placedAt("hs", "Heat Sink", models.LeftTorso, 1),
		placedAt("ml", "Medium Laser", models.LeftTorso, 3),
	})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "hs", conflicts[0].InstanceID)
	assert.False(t, b.Equipment[0].Placed())
	assert.True(t, b.Equipment[1].Placed())
}

func TestPlace_OutOfRangeLeavesBuildUnchanged(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, "Test", "", "")
	require.NoError(t, err)
	inst, err := svc.AddEquipment(ctx, b.ID, "Medium Laser")
	require.NoError(t, err)

	for _, slot := range []int{99, 6, -1} {
		_, err = svc.Place(ctx, b.ID, inst.ID, models.Head, []int{slot})
		assert.True(t, errors.Is(err, ErrSlotOutOfRange), "slot %d", slot)
	}

	stored, err := repo.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, stored.Equipment, 1)
	assert.False(t, stored.Equipment[0].Placed())

	got, err := svc.Place(ctx, b.ID, inst.ID, models.Head, []int{5})
	require.NoError(t, err)
	assert.True(t, got.Equipment[0].Placed())
}

func TestPlace_ZeroSlotItem(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Build{
		ID: "b1", EngineType: "STANDARD", GyroType: "STANDARD",
		Equipment: []models.EquipmentInstance{
			{ID: "case", Name: "CASE", CriticalSlots: 0, IsRemovable: true},
		},
	}))

	got, err := svc.Place(ctx, "b1", "case", models.LeftTorso, []int{})
	require.NoError(t, err)
	require.True(t, got.Equipment[0].Placed())
	assert.Empty(t, got.Unallocated())

	stored, err := repo.Get(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, stored.Equipment[0].Placed())
	assert.Equal(t, models.LeftTorso, *stored.Equipment[0].Location)
}

func TestSetGyro_SlowNotifierDoesNotBlockOtherBuilds(t *testing.T) {
	repo := newMemRepo()
	n := &blockingNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(repo, catalog, n, zerolog.Nop())
	ctx := context.Background()

	a, err := svc.Create(ctx, "A", "", "")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "B", "", "")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.SetGyro(ctx, a.ID, "XL")
		done <- err
	}()
	<-n.entered

	added := make(chan error, 1)
	go func() {
		_, err := svc.AddEquipment(ctx, b.ID, "Medium Laser")
		added <- err
	}()

	select {
	case err := <-added:
		assert.NoError(t, err)
		close(n.release)
	case <-time.After(time.Second):
		close(n.release)
		t.Error("AddEquipment waited on a pending notification")
		<-added
	}
	require.NoError(t, <-done)
}
