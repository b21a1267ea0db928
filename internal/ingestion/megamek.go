package ingestion

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/JustinWhittecar/critslots/internal/critslots"
	"github.com/JustinWhittecar/critslots/internal/models"
)

// parseArmorValue handles both standard "26" and patchwork "Reactive(Inner Sphere):26" formats
func parseArmorValue(val string) int {
	if n, err := strconv.Atoi(val); err == nil {
		return n
	}
	if idx := strings.LastIndex(val, ":"); idx >= 0 {
		if n, err := strconv.Atoi(val[idx+1:]); err == nil {
			return n
		}
	}
	return 0
}

// MTFData holds the parts of a MegaMek .mtf file the slot allocator cares
// about.
type MTFData struct {
	Chassis    string
	Model      string
	MulID      int
	Config     string
	TechBase   string
	Era        int
	Source     string
	RulesLevel int

	Mass         int
	EngineRating int
	EngineType   string
	Structure    string
	Cockpit      string
	Gyro         string

	HeatSinkCount int
	HeatSinkType  string

	WalkMP int
	JumpMP int

	ArmorType   string
	ArmorValues map[string]int

	// Crits holds the raw crit table per location in slot order, including
	// "-Empty-" entries.
	Crits map[models.Location][]string

	// Unsupported lists location headers that are not biped locations
	// (quad legs, LAM center leg). Their crits are dropped.
	Unsupported []string
}

// ParseMTF reads a MegaMek .mtf file and returns structured data.
func ParseMTF(path string) (*MTFData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mtf: %w", err)
	}
	defer f.Close()
	return ParseMTFReader(f)
}

// ParseMTFReader parses .mtf content from r.
func ParseMTFReader(r io.Reader) (*MTFData, error) {
	data := &MTFData{
		ArmorValues: make(map[string]int),
		Crits:       make(map[models.Location][]string),
	}

	scanner := bufio.NewScanner(r)
	// Lore lines can be long
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current models.Location
	var inLocation, inWeapons bool
	var blockLen, blockCap int

	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lower := strings.ToLower(trimmed)

		if header, ok := locationHeader(trimmed); ok {
			inWeapons = false
			blockLen, blockCap = 0, critslots.LargeLocationSlots
			if loc, ok := critslots.ParseLocation(header); ok {
				current, inLocation = loc, true
				blockCap = critslots.Capacity(loc)
			} else {
				data.Unsupported = append(data.Unsupported, header)
				current, inLocation = "", true
			}
			continue
		}

		if strings.HasPrefix(lower, "weapons:") {
			inWeapons, inLocation = true, false
			continue
		}

		// Trailing entries past the slot count are padding; anything that
		// reads as a known key ends the block.
		if inLocation && blockLen < blockCap && !isKnownKey(lower) {
			if current != "" {
				data.Crits[current] = append(data.Crits[current], trimmed)
			}
			blockLen++
			continue
		}
		if inLocation && !isKnownKey(lower) && !strings.Contains(trimmed, ":") {
			continue
		}
		inLocation = false

		if inWeapons && !isKnownKey(lower) {
			// "Medium Laser, Left Arm" summary lines; the crit tables are authoritative
			continue
		}
		inWeapons = false

		idx := strings.Index(trimmed, ":")
		if idx < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(trimmed[:idx]))
		val := strings.TrimSpace(trimmed[idx+1:])

		switch key {
		case "chassis":
			data.Chassis = val
		case "model":
			data.Model = val
		case "mul id":
			data.MulID, _ = strconv.Atoi(val)
		case "config":
			data.Config = val
		case "techbase":
			data.TechBase = val
		case "era":
			data.Era, _ = strconv.Atoi(val)
		case "source":
			data.Source = val
		case "rules level":
			data.RulesLevel, _ = strconv.Atoi(val)
		case "mass":
			data.Mass, _ = strconv.Atoi(val)
		case "engine":
			data.EngineRating, data.EngineType = parseEngine(val)
		case "structure":
			data.Structure = val
		case "cockpit":
			data.Cockpit = val
		case "gyro":
			data.Gyro = val
		case "heat sinks":
			data.HeatSinkCount, data.HeatSinkType = parseHeatSinks(val)
		case "walk mp":
			data.WalkMP, _ = strconv.Atoi(val)
		case "jump mp":
			data.JumpMP, _ = strconv.Atoi(val)
		case "armor":
			data.ArmorType = val
		default:
			if strings.HasSuffix(key, " armor") {
				data.ArmorValues[strings.ToUpper(strings.TrimSuffix(key, " armor"))] = parseArmorValue(val)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan mtf: %w", err)
	}

	if data.Chassis == "" {
		return nil, fmt.Errorf("missing chassis field")
	}

	return data, nil
}

var knownKeys = []string{
	"chassis:", "model:", "mul id:", "config:", "techbase:", "era:", "source:",
	"rules level:", "mass:", "engine:", "structure:", "myomer:", "cockpit:", "gyro:",
	"heat sinks:", "walk mp:", "jump mp:", "armor:", "overview:", "capabilities:",
	"deployment:", "history:", "manufacturer:", "primaryfactory:", "systemmanufacturer:",
	"quirk:", "weaponquirk:", "ejection:", "notes:", "imagefile:", "role:",
	"nocrit:", "systemmode:", "base chassis heat sinks:", "clanname:", "bv:",
}

func isKnownKey(lower string) bool {
	for _, k := range knownKeys {
		if strings.HasPrefix(lower, k) {
			return true
		}
	}
	return strings.Contains(lower, " armor:")
}

// locationHeader recognises "Left Arm:" style block headers, including the
// quad and LAM locations the allocator does not model.
func locationHeader(line string) (string, bool) {
	headers := []string{
		"Left Arm:", "Right Arm:", "Left Torso:", "Right Torso:", "Center Torso:",
		"Head:", "Left Leg:", "Right Leg:",
		"Front Left Leg:", "Front Right Leg:", "Rear Left Leg:", "Rear Right Leg:",
		"Center Leg:",
	}
	for _, h := range headers {
		if line == h {
			return strings.TrimSuffix(h, ":"), true
		}
	}
	return "", false
}

// parseEngine parses "300 Fusion Engine(IS)" -> (300, "Fusion Engine(IS)")
func parseEngine(val string) (int, string) {
	parts := strings.SplitN(val, " ", 2)
	if len(parts) < 2 {
		rating, _ := strconv.Atoi(val)
		return rating, ""
	}
	rating, _ := strconv.Atoi(parts[0])
	return rating, parts[1]
}

// parseHeatSinks parses "14 IS Double" -> (14, "IS Double")
func parseHeatSinks(val string) (int, string) {
	parts := strings.SplitN(val, " ", 2)
	if len(parts) < 2 {
		count, _ := strconv.Atoi(val)
		return count, "Single"
	}
	count, _ := strconv.Atoi(parts[0])
	return count, parts[1]
}

// Engine returns the engine family for the allocator. Clan XL engines are
// written as "XL Engine" with a Clan tech base in older files.
func (d *MTFData) Engine() critslots.EngineType {
	e := critslots.ParseEngineType(d.EngineType)
	if e == critslots.EngineXLIS && strings.Contains(strings.ToLower(d.TechBase), "clan") &&
		!strings.Contains(d.EngineType, "(IS)") {
		return critslots.EngineXLClan
	}
	return e
}

// GyroType returns the gyro type for the allocator.
func (d *MTFData) GyroType() critslots.GyroType {
	return critslots.ParseGyroType(d.Gyro)
}

// TotalArmor returns the sum of all armor values.
func (d *MTFData) TotalArmor() int {
	total := 0
	for _, v := range d.ArmorValues {
		total += v
	}
	return total
}

// FullName returns "Chassis Model" or just "Chassis" if model is empty.
func (d *MTFData) FullName() string {
	if d.Model == "" {
		return d.Chassis
	}
	return d.Chassis + " " + d.Model
}
