package critslots

import (
	"testing"

	"github.com/JustinWhittecar/critslots/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_EmptySetReturnsInput(t *testing.T) {
	instances := []models.EquipmentInstance{placed("a", models.LeftTorso, 0)}

	got := Apply(instances, map[string]struct{}{})
	require.Len(t, got, 1)
	assert.Same(t, &instances[0], &got[0])

	got = Apply(instances, nil)
	assert.Same(t, &instances[0], &got[0])
}

func TestApply_UnplacesDisplacedKeepsEverythingElse(t *testing.T) {
	ammo := "ammo-1"
	srm := placed("srm", models.LeftTorso, 0, 1)
	srm.EquipmentID = 42
	srm.IsRearMounted = true
	srm.LinkedAmmoID = &ammo
	srm.IsRemovable = false
	keep := placed("keep", models.LeftArm, 3)
	loose := unplaced("loose")
	instances := []models.EquipmentInstance{keep, srm, loose}

	got := Apply(instances, map[string]struct{}{"srm": {}})

	require.Len(t, got, 3)
	assert.Equal(t, keep, got[0])
	assert.Equal(t, loose, got[2])

	want := srm
	want.Location = nil
	want.Slots = nil
	assert.Equal(t, want, got[1])
	assert.False(t, got[1].Placed())

	// input untouched
	assert.True(t, instances[1].Placed())
	assert.Equal(t, models.LeftTorso, *instances[1].Location)
	assert.Equal(t, []int{0, 1}, instances[1].Slots)
}

func TestApply_UnknownIDs(t *testing.T) {
	instances := []models.EquipmentInstance{placed("a", models.CenterTorso, 10)}

	got := Apply(instances, map[string]struct{}{"zzz": {}})

	assert.Equal(t, instances, got)
}

func TestDetectThenApply(t *testing.T) {
	instances := []models.EquipmentInstance{
		placed("ct", models.CenterTorso, 10, 11),
		placed("lt", models.LeftTorso, 0),
		placed("la", models.LeftArm, 0),
	}

	res := Detect(instances, EngineStandard, EngineXLClan, GyroStandard, GyroXL)
	got := Apply(instances, res.Displaced)

	assert.False(t, got[0].Placed())
	assert.False(t, got[1].Placed())
	assert.True(t, got[2].Placed())
	assert.Empty(t, Conflicts(got, ComputeReservations(EngineXLClan, GyroXL)))
}
