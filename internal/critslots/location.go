// Package critslots computes the critical-slot footprint of a mech's engine
// and gyro and works out which mounted equipment a configuration change
// pushes out of its slots. Everything here is a pure function of its
// arguments.
package critslots

import (
	"strings"

	"github.com/JustinWhittecar/critslots/internal/models"
)

// Slot array sizes for a biped mech.
const (
	SmallLocationSlots = 6
	LargeLocationSlots = 12
)

var capacity = map[models.Location]int{
	models.Head:        SmallLocationSlots,
	models.CenterTorso: LargeLocationSlots,
	models.LeftTorso:   LargeLocationSlots,
	models.RightTorso:  LargeLocationSlots,
	models.LeftArm:     LargeLocationSlots,
	models.RightArm:    LargeLocationSlots,
	models.LeftLeg:     SmallLocationSlots,
	models.RightLeg:    SmallLocationSlots,
}

// Capacity returns the number of critical slots in loc, or 0 for a value
// that is not one of the eight locations.
func Capacity(loc models.Location) int {
	return capacity[loc]
}

// InBounds reports whether slot is a valid index into loc's slot array.
func InBounds(loc models.Location, slot int) bool {
	return slot >= 0 && slot < Capacity(loc)
}

// ParseLocation accepts the MegaMek display name ("Left Torso"), the
// abbreviation ("LT") or the upper snake form ("LEFT_TORSO").
func ParseLocation(s string) (models.Location, bool) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.TrimSuffix(key, ":")
	key = strings.ReplaceAll(key, "_", " ")
	for _, loc := range models.Locations() {
		if key == string(loc) || key == strings.ToUpper(loc.Name()) {
			return loc, true
		}
	}
	return "", false
}
