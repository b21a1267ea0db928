package models

// Location identifies one of the eight biped BattleMech body locations.
type Location string

const (
	Head        Location = "HD"
	CenterTorso Location = "CT"
	LeftTorso   Location = "LT"
	RightTorso  Location = "RT"
	LeftArm     Location = "LA"
	RightArm    Location = "RA"
	LeftLeg     Location = "LL"
	RightLeg    Location = "RL"
)

// Locations returns every location in record-sheet order.
func Locations() []Location {
	return []Location{Head, CenterTorso, LeftTorso, RightTorso, LeftArm, RightArm, LeftLeg, RightLeg}
}

var locationNames = map[Location]string{
	Head:        "Head",
	CenterTorso: "Center Torso",
	LeftTorso:   "Left Torso",
	RightTorso:  "Right Torso",
	LeftArm:     "Left Arm",
	RightArm:    "Right Arm",
	LeftLeg:     "Left Leg",
	RightLeg:    "Right Leg",
}

// Name returns the MegaMek display name, e.g. "Center Torso".
func (l Location) Name() string {
	if n, ok := locationNames[l]; ok {
		return n
	}
	return string(l)
}

// Valid reports whether l is one of the eight known locations.
func (l Location) Valid() bool {
	_, ok := locationNames[l]
	return ok
}

// Equipment is a catalog entry. Only the fields the slot allocator and the
// build API need are carried.
type Equipment struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	InternalName string  `json:"internal_name,omitempty"`
	Tonnage      float64 `json:"tonnage"`
	Slots        int     `json:"slots"`
}

// EquipmentInstance is one mounted (or not yet mounted) piece of equipment in
// a build. Location and Slots are either both set or both nil.
type EquipmentInstance struct {
	ID            string    `json:"id"`
	EquipmentID   int       `json:"equipment_id,omitempty"`
	Name          string    `json:"name"`
	CriticalSlots int       `json:"critical_slots"`
	Location      *Location `json:"location,omitempty"`
	Slots         []int     `json:"slots,omitempty"`
	IsRearMounted bool      `json:"is_rear_mounted,omitempty"`
	LinkedAmmoID  *string   `json:"linked_ammo_id,omitempty"`
	IsRemovable   bool      `json:"is_removable"`
}

// Placed reports whether the instance occupies slots. Half-set records count
// as unplaced.
func (e EquipmentInstance) Placed() bool {
	return e.Location != nil && e.Slots != nil
}

// Build is a mech under construction: its core configuration plus the
// equipment mounted on it.
type Build struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	EngineType string              `json:"engine_type"`
	GyroType   string              `json:"gyro_type"`
	Equipment  []EquipmentInstance `json:"equipment"`
	CreatedAt  string              `json:"created_at,omitempty"`
	UpdatedAt  string              `json:"updated_at,omitempty"`
}

// Unallocated returns the instances that are not placed.
func (b *Build) Unallocated() []EquipmentInstance {
	var out []EquipmentInstance
	for _, e := range b.Equipment {
		if !e.Placed() {
			out = append(out, e)
		}
	}
	return out
}
