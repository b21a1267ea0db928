package critslots

import (
	"sort"

	"github.com/JustinWhittecar/critslots/internal/models"
)

// Result is the outcome of a displacement check: the instances that must
// give up their slots and the locations they were in.
type Result struct {
	Displaced map[string]struct{}
	Affected  map[models.Location]struct{}
}

func newResult() Result {
	return Result{
		Displaced: map[string]struct{}{},
		Affected:  map[models.Location]struct{}{},
	}
}

// Empty reports whether nothing was displaced.
func (r Result) Empty() bool {
	return len(r.Displaced) == 0
}

// IsDisplaced reports whether the instance with the given id was displaced.
func (r Result) IsDisplaced(id string) bool {
	_, ok := r.Displaced[id]
	return ok
}

// DisplacedIDs returns the displaced instance ids sorted.
func (r Result) DisplacedIDs() []string {
	ids := make([]string, 0, len(r.Displaced))
	for id := range r.Displaced {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AffectedLocations returns the affected locations in record-sheet order.
func (r Result) AffectedLocations() []models.Location {
	var locs []models.Location
	for _, loc := range models.Locations() {
		if _, ok := r.Affected[loc]; ok {
			locs = append(locs, loc)
		}
	}
	return locs
}

// Detect finds placed equipment whose slots collide with the reservations of
// the new configuration. The old configuration is accepted for symmetry but
// not consulted: equipment that is already placed is assumed not to collide
// with it, so only the new footprint can create collisions. Use Conflicts to
// check that assumption.
//
// A single overlapping slot displaces the whole instance. Unplaced or
// half-placed instances are skipped.
func Detect(instances []models.EquipmentInstance, oldEngine, newEngine EngineType, oldGyro, newGyro GyroType) Result {
	return detectAgainst(instances, ComputeReservations(newEngine, newGyro))
}

// DetectEngineChange checks an engine swap with the gyro held constant.
func DetectEngineChange(instances []models.EquipmentInstance, oldEngine, newEngine EngineType, gyro GyroType) Result {
	return Detect(instances, oldEngine, newEngine, gyro, gyro)
}

// DetectGyroChange checks a gyro swap with the engine held constant.
func DetectGyroChange(instances []models.EquipmentInstance, engine EngineType, oldGyro, newGyro GyroType) Result {
	return Detect(instances, engine, engine, oldGyro, newGyro)
}

func detectAgainst(instances []models.EquipmentInstance, reservations ReservationMap) Result {
	res := newResult()
	for _, inst := range instances {
		if !inst.Placed() {
			continue
		}
		loc := *inst.Location
		if len(reservations[loc]) == 0 {
			continue
		}
		for _, slot := range inst.Slots {
			if reservations.Contains(loc, slot) {
				res.Displaced[inst.ID] = struct{}{}
				res.Affected[loc] = struct{}{}
				break
			}
		}
	}
	return res
}

// Conflict describes a placed instance that sits on reserved slots.
type Conflict struct {
	InstanceID string          `json:"instance_id"`
	Name       string          `json:"name"`
	Location   models.Location `json:"location"`
	Slots      []int           `json:"slots"`
}

// Conflicts lists every placed instance that overlaps reservations, with the
// offending slot indices. Detect relies on this being empty for the
// configuration the equipment was placed under.
func Conflicts(instances []models.EquipmentInstance, reservations ReservationMap) []Conflict {
	var out []Conflict
	for _, inst := range instances {
		if !inst.Placed() {
			continue
		}
		loc := *inst.Location
		var hit []int
		for _, slot := range inst.Slots {
			if reservations.Contains(loc, slot) {
				hit = append(hit, slot)
			}
		}
		if len(hit) > 0 {
			out = append(out, Conflict{InstanceID: inst.ID, Name: inst.Name, Location: loc, Slots: hit})
		}
	}
	return out
}
