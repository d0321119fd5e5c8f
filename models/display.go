package models

import (
	"strconv"
	"strings"
)

// ParseAreaValue reads the leading integer of a display value such as "1,250 ha",
// "45 km" or "65%". Thousands separators are ignored, an optional sign is
// accepted and parsing stops at the first non-digit, so "12.9 ha" is 12.
// Anything that does not start with a number yields 0.
func ParseAreaValue(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	n, err := strconv.Atoi(sign + s[:end])
	if err != nil {
		return 0
	}
	return n
}

// FormatThousands renders n with en-US digit grouping: 1250 -> "1,250".
func FormatThousands(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.Itoa(n)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func FormatHectares(n int) string { return FormatThousands(n) + " ha" }
func FormatKm(n int) string       { return strconv.Itoa(n) + " km" }
func FormatPercent(n int) string  { return strconv.Itoa(n) + "%" }

// AssetDisplay is the string-typed shape consumed by the asset-mapping views.
type AssetDisplay struct {
	Forest         ForestDisplay         `json:"forest"`
	Water          WaterDisplay          `json:"water"`
	Agriculture    AgricultureDisplay    `json:"agriculture"`
	Settlement     SettlementDisplay     `json:"settlement"`
	Infrastructure InfrastructureDisplay `json:"infrastructure"`
	Minerals       MineralsDisplay       `json:"minerals"`
	Tribal         TribalDisplay         `json:"tribal"`
	LastUpdated    string                `json:"lastUpdated,omitempty"`
	DataSource     string                `json:"dataSource,omitempty"`
}

type ForestDisplay struct {
	Area         string        `json:"area"`
	Coverage     int           `json:"coverage"`
	Quality      ForestQuality `json:"quality"`
	Biodiversity Biodiversity  `json:"biodiversity"`
}

type WaterDisplay struct {
	Area     string       `json:"area"`
	Sources  int          `json:"sources"`
	Quality  WaterQuality `json:"quality"`
	Seasonal Seasonality  `json:"seasonal"`
}

type AgricultureDisplay struct {
	Area         string       `json:"area"`
	Productivity Productivity `json:"productivity"`
	Crops        string       `json:"crops"`
	Irrigation   string       `json:"irrigation"`
}

type SettlementDisplay struct {
	Area           string                   `json:"area"`
	Population     int                      `json:"population"`
	Density        SettlementDensity        `json:"density"`
	Infrastructure SettlementInfrastructure `json:"infrastructure"`
}

type InfrastructureDisplay struct {
	Area         string       `json:"area"`
	Roads        string       `json:"roads"`
	Connectivity Connectivity `json:"connectivity"`
	Facilities   Facilities   `json:"facilities"`
}

type MineralsDisplay struct {
	Deposits string       `json:"deposits"`
	Reserves Reserves     `json:"reserves"`
	Mining   MiningStatus `json:"mining"`
}

type TribalDisplay struct {
	Population int          `json:"population"`
	Groups     []string     `json:"groups"`
	Rights     RightsStatus `json:"rights"`
}

func (r AssetRecord) Display() AssetDisplay {
	return AssetDisplay{
		Forest: ForestDisplay{
			Area:         FormatHectares(r.Forest.AreaHectares),
			Coverage:     r.Forest.Coverage,
			Quality:      r.Forest.Quality,
			Biodiversity: r.Forest.Biodiversity,
		},
		Water: WaterDisplay{
			Area:     FormatHectares(r.Water.AreaHectares),
			Sources:  r.Water.Sources,
			Quality:  r.Water.Quality,
			Seasonal: r.Water.Seasonality,
		},
		Agriculture: AgricultureDisplay{
			Area:         FormatHectares(r.Agriculture.AreaHectares),
			Productivity: r.Agriculture.Productivity,
			Crops:        r.Agriculture.Crops,
			Irrigation:   FormatPercent(r.Agriculture.IrrigationPercent),
		},
		Settlement: SettlementDisplay{
			Area:           FormatHectares(r.Settlement.AreaHectares),
			Population:     r.Settlement.Population,
			Density:        r.Settlement.Density,
			Infrastructure: r.Settlement.Infrastructure,
		},
		Infrastructure: InfrastructureDisplay{
			Area:         FormatHectares(r.Infrastructure.AreaHectares),
			Roads:        FormatKm(r.Infrastructure.RoadsKm),
			Connectivity: r.Infrastructure.Connectivity,
			Facilities:   r.Infrastructure.Facilities,
		},
		Minerals: MineralsDisplay{
			Deposits: r.Minerals.Deposits,
			Reserves: r.Minerals.Reserves,
			Mining:   r.Minerals.Mining,
		},
		Tribal: TribalDisplay{
			Population: r.Tribal.Population,
			Groups:     append([]string(nil), r.Tribal.Groups...),
			Rights:     r.Tribal.Rights,
		},
		LastUpdated: r.LastUpdated,
		DataSource:  r.DataSource,
	}
}

// Record converts back to the numeric form. Malformed numbers become 0; the
// result is not validated.
func (d AssetDisplay) Record() AssetRecord {
	return AssetRecord{
		Forest: ForestAssets{
			AreaHectares: ParseAreaValue(d.Forest.Area),
			Coverage:     d.Forest.Coverage,
			Quality:      d.Forest.Quality,
			Biodiversity: d.Forest.Biodiversity,
		},
		Water: WaterAssets{
			AreaHectares: ParseAreaValue(d.Water.Area),
			Sources:      d.Water.Sources,
			Quality:      d.Water.Quality,
			Seasonality:  d.Water.Seasonal,
		},
		Agriculture: AgricultureAssets{
			AreaHectares:      ParseAreaValue(d.Agriculture.Area),
			Productivity:      d.Agriculture.Productivity,
			Crops:             d.Agriculture.Crops,
			IrrigationPercent: ParseAreaValue(d.Agriculture.Irrigation),
		},
		Settlement: SettlementAssets{
			AreaHectares:   ParseAreaValue(d.Settlement.Area),
			Population:     d.Settlement.Population,
			Density:        d.Settlement.Density,
			Infrastructure: d.Settlement.Infrastructure,
		},
		Infrastructure: InfrastructureAssets{
			AreaHectares: ParseAreaValue(d.Infrastructure.Area),
			RoadsKm:      ParseAreaValue(d.Infrastructure.Roads),
			Connectivity: d.Infrastructure.Connectivity,
			Facilities:   d.Infrastructure.Facilities,
		},
		Minerals: MineralAssets{
			Deposits: d.Minerals.Deposits,
			Reserves: d.Minerals.Reserves,
			Mining:   d.Minerals.Mining,
		},
		Tribal: TribalAssets{
			Population: d.Tribal.Population,
			Groups:     append([]string(nil), d.Tribal.Groups...),
			Rights:     d.Tribal.Rights,
		},
		LastUpdated: d.LastUpdated,
		DataSource:  d.DataSource,
	}
}
