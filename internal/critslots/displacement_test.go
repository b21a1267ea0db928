package critslots

import (
	"testing"

	"github.com/JustinWhittecar/critslots/internal/models"
	"github.com/stretchr/testify/assert"
)

func placed(id string, loc models.Location, slots ...int) models.EquipmentInstance {
	l := loc
	return models.EquipmentInstance{
		ID:            id,
		Name:          id,
		CriticalSlots: len(slots),
		Location:      &l,
		Slots:         slots,
		IsRemovable:   true,
	}
}

func unplaced(id string) models.EquipmentInstance {
	return models.EquipmentInstance{ID: id, Name: id, CriticalSlots: 1, IsRemovable: true}
}

func TestDetect_XLEngineSwap(t *testing.T) {
	instances := []models.EquipmentInstance{
		placed("lt-top", models.LeftTorso, 0, 1),
		placed("lt-low", models.LeftTorso, 5, 6),
	}

	res := DetectEngineChange(instances, EngineStandard, EngineXLIS, GyroStandard)

	assert.Equal(t, []string{"lt-top"}, res.DisplacedIDs())
	assert.Equal(t, []models.Location{models.LeftTorso}, res.AffectedLocations())
}

func TestDetect_XLEngineSwapBothTorsos(t *testing.T) {
	instances := []models.EquipmentInstance{
		placed("lt", models.LeftTorso, 2),
		placed("rt", models.RightTorso, 1, 2, 3),
	}

	res := DetectEngineChange(instances, EngineStandard, EngineXLIS, GyroStandard)

	assert.Equal(t, []string{"lt", "rt"}, res.DisplacedIDs())
	assert.Equal(t, []models.Location{models.LeftTorso, models.RightTorso}, res.AffectedLocations())
}

func TestDetect_LargeGyro(t *testing.T) {
	instances := []models.EquipmentInstance{
		placed("ct-10", models.CenterTorso, 10),
		placed("ct-mid", models.CenterTorso, 5, 6),
	}

	res := DetectGyroChange(instances, EngineStandard, GyroStandard, GyroXL)

	assert.True(t, res.IsDisplaced("ct-10"))
	assert.False(t, res.IsDisplaced("ct-mid"))
	assert.Equal(t, []models.Location{models.CenterTorso}, res.AffectedLocations())
}

func TestDetect_ShrinkingGyroDisplacesNothing(t *testing.T) {
	// Legal under an XL gyro: nothing in the CT at all, torsos below the footprint.
	instances := []models.EquipmentInstance{
		placed("lt", models.LeftTorso, 4, 5),
		placed("la", models.LeftArm, 4),
	}

	res := DetectGyroChange(instances, EngineStandard, GyroXL, GyroCompact)

	assert.True(t, res.Empty())
	assert.Empty(t, res.AffectedLocations())
}

func TestDetect_PartialOverlapEvictsWholeInstance(t *testing.T) {
	instances := []models.EquipmentInstance{placed("ac20", models.RightTorso, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11)}

	res := DetectEngineChange(instances, EngineStandard, EngineXLIS, GyroStandard)

	assert.Equal(t, []string{"ac20"}, res.DisplacedIDs())
}

func TestDetect_SkipsUnplacedAndHalfPlaced(t *testing.T) {
	ct := models.CenterTorso
	instances := []models.EquipmentInstance{
		unplaced("loose"),
		{ID: "loc-only", Location: &ct},
		{ID: "slots-only", Slots: []int{0}},
	}

	res := Detect(instances, EngineStandard, EngineXXL, GyroStandard, GyroXL)

	assert.True(t, res.Empty())
}

func TestDetect_EmptyInput(t *testing.T) {
	assert.True(t, Detect(nil, EngineStandard, EngineXLIS, GyroStandard, GyroXL).Empty())
}

func TestDetect_ImmuneLocations(t *testing.T) {
	var instances []models.EquipmentInstance
	for _, loc := range []models.Location{models.Head, models.LeftArm, models.RightArm, models.LeftLeg, models.RightLeg} {
		for s := 0; s < Capacity(loc); s++ {
			instances = append(instances, placed(string(loc)+"-"+string(rune('a'+s)), loc, s))
		}
	}

	for _, oe := range allEngines {
		for _, ne := range allEngines {
			for _, og := range allGyros {
				for _, ng := range allGyros {
					res := Detect(instances, oe, ne, og, ng)
					assert.True(t, res.Empty(), "%s->%s %s->%s", oe, ne, og, ng)
				}
			}
		}
	}
}

func TestDetect_NoChangeNoDisplacement(t *testing.T) {
	for _, e := range allEngines {
		for _, g := range allGyros {
			m := ComputeReservations(e, g)
			// Fill every free slot of every location with a one-slot item.
			var instances []models.EquipmentInstance
			for _, loc := range models.Locations() {
				for _, s := range FreeSlots(m, loc) {
					instances = append(instances, placed(string(loc)+string(rune('a'+s)), loc, s))
				}
			}
			assert.Empty(t, Conflicts(instances, m))
			assert.True(t, Detect(instances, e, e, g, g).Empty(), "%s/%s", e, g)
		}
	}
}

func TestDetect_Monotonic(t *testing.T) {
	// Reservations grow Light -> XL(IS) in the side torsos and Compact ->
	// Standard -> XL gyro in the center torso.
	var instances []models.EquipmentInstance
	for _, loc := range []models.Location{models.CenterTorso, models.LeftTorso, models.RightTorso} {
		for s := 0; s < Capacity(loc); s++ {
			instances = append(instances, placed(string(loc)+string(rune('a'+s)), loc, s))
		}
	}

	steps := []struct {
		engine EngineType
		gyro   GyroType
	}{
		{EngineStandard, GyroCompact},
		{EngineLight, GyroStandard},
		{EngineXLIS, GyroXL},
	}
	var prev map[string]struct{}
	for _, st := range steps {
		res := Detect(instances, EngineStandard, st.engine, GyroCompact, st.gyro)
		for id := range prev {
			assert.True(t, res.IsDisplaced(id), "%s lost at %s/%s", id, st.engine, st.gyro)
		}
		prev = res.Displaced
	}
}

func TestConflicts(t *testing.T) {
	instances := []models.EquipmentInstance{
		placed("clean", models.LeftTorso, 5),
		placed("dirty", models.CenterTorso, 9, 10),
		unplaced("loose"),
	}

	got := Conflicts(instances, ComputeReservations(EngineStandard, GyroStandard))

	assert.Equal(t, []Conflict{{InstanceID: "dirty", Name: "dirty", Location: models.CenterTorso, Slots: []int{9}}}, got)
}
