package ingestion

import (
	"strings"

	"github.com/google/uuid"

	"github.com/JustinWhittecar/critslots/internal/critslots"
	"github.com/JustinWhittecar/critslots/internal/models"
)

// Lookup resolves a crit entry name to its catalog definition.
type Lookup func(name string) (models.Equipment, bool)

// systemCrits are fixed system components. They are not equipment and never
// become instances.
var systemCrits = []string{
	"-empty-",
	"engine",
	"gyro",
	"life support",
	"sensors",
	"cockpit",
	"shoulder",
	"upper arm actuator",
	"lower arm actuator",
	"hand actuator",
	"hip",
	"upper leg actuator",
	"lower leg actuator",
	"foot actuator",
}

// IsSystemCrit reports whether a crit entry names a system component.
func IsSystemCrit(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return true
	}
	for _, s := range systemCrits {
		if lower == s || strings.HasSuffix(lower, " "+s) || strings.HasPrefix(lower, s+" ") {
			return true
		}
	}
	return false
}

// cleanCritName strips mount markers from a crit entry and reports whether it
// was rear mounted.
func cleanCritName(name string) (string, bool) {
	n := strings.TrimSpace(name)
	n = strings.TrimSuffix(n, " (omnipod)")
	n = strings.TrimSuffix(n, " (armored)")
	rear := false
	for _, marker := range []string{" (R)", " (r)", "(R)"} {
		if strings.HasSuffix(n, marker) {
			n = strings.TrimSpace(strings.TrimSuffix(n, marker))
			rear = true
			break
		}
	}
	return n, rear
}

// Placements turns the crit tables of a parsed file into placed equipment
// instances. Consecutive entries with the same name are one instance when the
// catalog says the item is that big; a run longer than the catalog size is
// split into several instances. Items the catalog does not know take the
// length of their run. lookup may be nil.
func Placements(data *MTFData, lookup Lookup) []models.EquipmentInstance {
	var out []models.EquipmentInstance
	for _, loc := range models.Locations() {
		crits := data.Crits[loc]
		if len(crits) > critslots.Capacity(loc) {
			crits = crits[:critslots.Capacity(loc)]
		}
		for i := 0; i < len(crits); {
			if IsSystemCrit(crits[i]) {
				i++
				continue
			}
			j := i + 1
			for j < len(crits) && crits[j] == crits[i] {
				j++
			}
			name, rear := cleanCritName(crits[i])

			size := j - i
			var def models.Equipment
			if lookup != nil {
				if d, ok := lookup(name); ok {
					def = d
					if d.Slots > 0 && d.Slots < size {
						size = d.Slots
					}
				}
			}

			for start := i; start < j; start += size {
				end := min(start+size, j)
				slots := make([]int, 0, end-start)
				for s := start; s < end; s++ {
					slots = append(slots, s)
				}
				l := loc
				out = append(out, models.EquipmentInstance{
					ID:            uuid.NewString(),
					EquipmentID:   def.ID,
					Name:          name,
					CriticalSlots: len(slots),
					Location:      &l,
					Slots:         slots,
					IsRearMounted: rear,
					IsRemovable:   true,
				})
			}
			i = j
		}
	}
	return out
}
