package critslots

import "github.com/JustinWhittecar/critslots/internal/models"

// Reason records which system component holds a reserved range.
type Reason string

const (
	ReasonEngine Reason = "engine"
	ReasonGyro   Reason = "gyro"
)

// Range is a closed interval [Start, End] of slot indices.
type Range struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Reason Reason `json:"reason"`
}

// Len returns the number of slots in the range.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

// Contains reports whether slot lies inside the range.
func (r Range) Contains(slot int) bool {
	return slot >= r.Start && slot <= r.End
}

// Overlaps reports whether the two ranges share at least one slot.
func (r Range) Overlaps(o Range) bool {
	return r.Start <= o.End && o.Start <= r.End
}

// ReservationMap lists, per location, the slot ranges held by system
// components. Locations without a reservation are absent. Ranges within a
// location are disjoint and sorted by Start.
type ReservationMap map[models.Location][]Range

// ComputeReservations returns the engine and gyro footprint for the given
// configuration.
//
// Center torso: three engine slots, then the gyro, then three more engine
// slots. Side torsos: the engine's side footprint starting at slot 0, the
// same on both sides. Head, arms and legs carry nothing.
func ComputeReservations(engine EngineType, gyro GyroType) ReservationMap {
	m := ReservationMap{}

	gyroLen := GyroSlots(gyro)
	gyroStart := EngineFrontSlots
	backStart := gyroStart + gyroLen
	m[models.CenterTorso] = []Range{
		{Start: 0, End: EngineFrontSlots - 1, Reason: ReasonEngine},
		{Start: gyroStart, End: backStart - 1, Reason: ReasonGyro},
		{Start: backStart, End: backStart + EngineBackSlots - 1, Reason: ReasonEngine},
	}

	if side := SideTorsoSlots(engine); side > 0 {
		m[models.LeftTorso] = []Range{{Start: 0, End: side - 1, Reason: ReasonEngine}}
		m[models.RightTorso] = []Range{{Start: 0, End: side - 1, Reason: ReasonEngine}}
	}

	return m
}

// Contains reports whether slot in loc is reserved.
func (m ReservationMap) Contains(loc models.Location, slot int) bool {
	for _, r := range m[loc] {
		if r.Contains(slot) {
			return true
		}
	}
	return false
}

// Reserved returns the number of reserved slots in loc.
func (m ReservationMap) Reserved(loc models.Location) int {
	n := 0
	for _, r := range m[loc] {
		n += r.Len()
	}
	return n
}

// Span returns the lowest and highest reserved index in loc. ok is false when
// loc has no reservation.
func (m ReservationMap) Span(loc models.Location) (start, end int, ok bool) {
	ranges := m[loc]
	if len(ranges) == 0 {
		return 0, 0, false
	}
	return ranges[0].Start, ranges[len(ranges)-1].End, true
}

// FreeSlots returns, in ascending order, the indices of loc that are not
// reserved.
func FreeSlots(m ReservationMap, loc models.Location) []int {
	free := make([]int, 0, Capacity(loc))
	for i := 0; i < Capacity(loc); i++ {
		if !m.Contains(loc, i) {
			free = append(free, i)
		}
	}
	return free
}
