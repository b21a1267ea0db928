package ingestion

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JustinWhittecar/critslots/internal/models"
)

// EquipmentSource is a catalog entry extracted from a MegaMek equipment
// class, in the JSON shape the catalog seeder reads.
type EquipmentSource struct {
	InternalName  string   `json:"internal_name"`
	LookupNames   []string `json:"lookup_names"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Tonnage       float64  `json:"tonnage"`
	CriticalSlots int      `json:"critical_slots"`
}

// Equipment converts the entry into a catalog row.
func (e EquipmentSource) Equipment() models.Equipment {
	return models.Equipment{
		Name:         e.Name,
		Type:         e.Type,
		InternalName: e.InternalName,
		Tonnage:      e.Tonnage,
		Slots:        e.CriticalSlots,
	}
}

var (
	reInternalName = regexp.MustCompile(`setInternalName\("([^"]+)"\)`)
	reLookupName   = regexp.MustCompile(`addLookupName\("([^"]+)"\)`)
	reNameField    = regexp.MustCompile(`(?m)^\s*(?:this\.)?name\s*=\s*"([^"]+)"`)
	reTonnage      = regexp.MustCompile(`(?m)^\s*(?:this\.)?tonnage\s*=\s*([\d.]+)`)
	reCritSlots    = regexp.MustCompile(`(?m)^\s*(?:this\.)?criticalSlots\s*=\s*(\d+)`)
)

// SkipEquipmentDirs are MegaMek weapon subtrees that never mount on a
// BattleMech.
var SkipEquipmentDirs = map[string]bool{
	"infantry": true, "battleArmor": true, "bayWeapons": true,
	"capitalWeapons": true, "subCapitalWeapons": true, "bombs": true,
	"attacks": true, "handlers": true, "unofficial": true, "c3": true,
	"defensivePods": true, "tag": true,
}

// ParseEquipmentSource pulls the catalog fields out of one MegaMek Java
// equipment class. relPath is used only to classify the item. ok is false
// for abstract base classes, which carry no internal name.
func ParseEquipmentSource(src, relPath string) (EquipmentSource, bool) {
	var name string
	if m := reNameField.FindStringSubmatch(src); m != nil {
		name = m[1]
	}

	var internal string
	if m := reInternalName.FindStringSubmatch(src); m != nil {
		internal = m[1]
	} else if strings.Contains(src, "setInternalName(name)") || strings.Contains(src, "setInternalName(this.name)") {
		internal = name
	}
	if internal == "" {
		return EquipmentSource{}, false
	}

	e := EquipmentSource{
		InternalName: internal,
		Name:         name,
		LookupNames:  []string{},
		Type:         classifyEquipment(relPath),
	}
	for _, m := range reLookupName.FindAllStringSubmatch(src, -1) {
		e.LookupNames = append(e.LookupNames, m[1])
	}
	if m := reTonnage.FindStringSubmatch(src); m != nil {
		e.Tonnage, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := reCritSlots.FindStringSubmatch(src); m != nil {
		e.CriticalSlots, _ = strconv.Atoi(m[1])
	}
	return e, true
}

func classifyEquipment(relPath string) string {
	lower := strings.ToLower(relPath)
	switch {
	case strings.Contains(lower, "laser") || strings.Contains(lower, "ppc") || strings.Contains(lower, "flamer"):
		return "energy"
	case strings.Contains(lower, "autocannon") || strings.Contains(lower, "gauss") || strings.Contains(lower, "mg"):
		return "ballistic"
	case strings.Contains(lower, "lrm") || strings.Contains(lower, "srm") || strings.Contains(lower, "missile") ||
		strings.Contains(lower, "rocketlauncher"):
		return "missile"
	case strings.Contains(lower, "ammo"):
		return "ammo"
	default:
		return "other"
	}
}
