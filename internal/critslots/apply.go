package critslots

import "github.com/JustinWhittecar/critslots/internal/models"

// Apply returns instances with every instance named in ids unplaced. All
// other fields of a displaced instance are kept, and instances not in ids are
// copied as they are. Order is preserved and the input is never written to.
//
// With an empty ids set the input slice itself is returned, so callers can
// detect a no-op by comparing slices.
func Apply(instances []models.EquipmentInstance, ids map[string]struct{}) []models.EquipmentInstance {
	if len(ids) == 0 {
		return instances
	}
	out := make([]models.EquipmentInstance, len(instances))
	for i, inst := range instances {
		if _, ok := ids[inst.ID]; ok {
			inst.Location = nil
			inst.Slots = nil
		}
		out[i] = inst
	}
	return out
}
