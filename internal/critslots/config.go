package critslots

import "strings"

// EngineType is the engine family of a build. Only the side-torso footprint
// depends on it.
type EngineType string

const (
	EngineStandard EngineType = "STANDARD"
	EngineXLIS     EngineType = "XL_IS"
	EngineXLClan   EngineType = "XL_CLAN"
	EngineLight    EngineType = "LIGHT"
	EngineXXL      EngineType = "XXL"
	EngineCompact  EngineType = "COMPACT"
	EngineICE      EngineType = "ICE"
	EngineFuelCell EngineType = "FUEL_CELL"
	EngineFission  EngineType = "FISSION"
)

// GyroType selects the length of the gyro block in the center torso.
type GyroType string

const (
	GyroStandard  GyroType = "STANDARD"
	GyroCompact   GyroType = "COMPACT"
	GyroHeavyDuty GyroType = "HEAVY_DUTY"
	GyroXL        GyroType = "XL"
)

// Footprint constants shared by every configuration.
const (
	EngineFrontSlots = 3
	EngineBackSlots  = 3
)

// SideTorsoSlots returns how many slots the engine claims at the top of each
// side torso. Unknown engine types have no side footprint.
func SideTorsoSlots(e EngineType) int {
	switch e {
	case EngineXLIS, EngineXXL:
		return 3
	case EngineXLClan, EngineLight:
		return 2
	default: // Standard, Compact, ICE, Fuel Cell, Fission
		return 0
	}
}

// GyroSlots returns the length of the gyro block. Unknown gyro types are
// treated as standard.
func GyroSlots(g GyroType) int {
	switch g {
	case GyroCompact:
		return 2
	case GyroXL:
		return 6
	default: // Standard, Heavy-Duty
		return 4
	}
}

// ParseEngineType maps a MegaMek engine description such as
// "Fusion Engine(IS)", "XL Engine(Clan)" or "Light Fusion Engine" onto an
// EngineType. Descriptions it cannot place map to EngineStandard.
func ParseEngineType(s string) EngineType {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "xxl"):
		return EngineXXL
	case strings.Contains(lower, "xl") && strings.Contains(lower, "clan"):
		return EngineXLClan
	case strings.Contains(lower, "xl"):
		return EngineXLIS
	case strings.Contains(lower, "light"):
		return EngineLight
	case strings.Contains(lower, "compact"):
		return EngineCompact
	case strings.Contains(lower, "ice"), strings.Contains(lower, "combustion"):
		return EngineICE
	case strings.Contains(lower, "fuel cell"), strings.Contains(lower, "fuel_cell"), strings.Contains(lower, "fuel-cell"):
		return EngineFuelCell
	case strings.Contains(lower, "fission"):
		return EngineFission
	default:
		return EngineStandard
	}
}

// ParseGyroType maps a MegaMek gyro description ("Standard Gyro",
// "Heavy Duty Gyro", "XL Gyro", "Compact Gyro") onto a GyroType.
func ParseGyroType(s string) GyroType {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "heavy"):
		return GyroHeavyDuty
	case strings.Contains(lower, "compact"):
		return GyroCompact
	case strings.Contains(lower, "xl"):
		return GyroXL
	default:
		return GyroStandard
	}
}
