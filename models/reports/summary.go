package reports

import (
	"time"

	"github.com/fra-atlas/asset_backend/models"
	"github.com/shopspring/decimal"
)

const notAvailable = "Not Available"

// Totals are whole hectares. TotalArea is always the sum of the five domains.
type Totals struct {
	TotalArea          int `json:"totalArea"`
	ForestArea         int `json:"forestArea"`
	WaterArea          int `json:"waterArea"`
	AgricultureArea    int `json:"agricultureArea"`
	SettlementArea     int `json:"settlementArea"`
	InfrastructureArea int `json:"infrastructureArea"`
}

type Analysis struct {
	ForestHealth             string `json:"forestHealth"`
	WaterQuality             string `json:"waterQuality"`
	AgriculturalProductivity string `json:"agriculturalProductivity"`
	InfrastructureStatus     string `json:"infrastructureStatus"`
	TribalRights             string `json:"tribalRights"`
}

type SummaryReport struct {
	Location        models.LocationKey `json:"location"`
	Totals          Totals             `json:"summary"`
	Assets          any                `json:"assets,omitempty"`
	Analysis        Analysis           `json:"analysis"`
	Recommendations []string           `json:"recommendations"`
	Timestamp       string             `json:"timestamp"`
}

func newTotals(forest, water, agriculture, settlement, infrastructure int) Totals {
	return Totals{
		TotalArea:          forest + water + agriculture + settlement + infrastructure,
		ForestArea:         forest,
		WaterArea:          water,
		AgricultureArea:    agriculture,
		SettlementArea:     settlement,
		InfrastructureArea: infrastructure,
	}
}

func TotalsOf(rec models.AssetRecord) Totals {
	return newTotals(
		rec.Forest.AreaHectares,
		rec.Water.AreaHectares,
		rec.Agriculture.AreaHectares,
		rec.Settlement.AreaHectares,
		rec.Infrastructure.AreaHectares,
	)
}

// TotalsFromDisplay parses the unit-suffixed areas; malformed values count as 0.
func TotalsFromDisplay(d models.AssetDisplay) Totals {
	return newTotals(
		models.ParseAreaValue(d.Forest.Area),
		models.ParseAreaValue(d.Water.Area),
		models.ParseAreaValue(d.Agriculture.Area),
		models.ParseAreaValue(d.Settlement.Area),
		models.ParseAreaValue(d.Infrastructure.Area),
	)
}

// PercentOf is round(100*part/total), or 0 when total is not positive.
func PercentOf(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(0).
		IntPart())
}

// PercentOneDecimal is PercentOf with one decimal place kept.
func PercentOneDecimal(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1).
		InexactFloat64()
}

// ForestCoveragePercent is the forest share of the total area. It is not the
// record's own forest.coverage figure.
func ForestCoveragePercent(t Totals) int {
	return PercentOf(t.ForestArea, t.TotalArea)
}

func AnalysisOf(rec models.AssetRecord) Analysis {
	rights := rec.Tribal.Rights.String()
	if rights == "" {
		rights = notAvailable
	}
	return Analysis{
		ForestHealth:             rec.Forest.Quality.String(),
		WaterQuality:             rec.Water.Quality.String(),
		AgriculturalProductivity: rec.Agriculture.Productivity.String(),
		InfrastructureStatus:     rec.Infrastructure.Connectivity.String(),
		TribalRights:             rights,
	}
}

func Aggregate(rec models.AssetRecord, location models.LocationKey, now time.Time) SummaryReport {
	return SummaryReport{
		Location:        location,
		Totals:          TotalsOf(rec),
		Assets:          rec.Display(),
		Analysis:        AnalysisOf(rec),
		Recommendations: Recommendations(rec),
		Timestamp:       now.UTC().Format(time.RFC3339Nano),
	}
}

type defaultAssets struct {
	Forest         models.ForestDisplay         `json:"forest"`
	Water          models.WaterDisplay          `json:"water"`
	Agriculture    models.AgricultureDisplay    `json:"agriculture"`
	Settlement     models.SettlementDisplay     `json:"settlement"`
	Infrastructure models.InfrastructureDisplay `json:"infrastructure"`
}

// DefaultSummaryReport is shown before any location has been selected.
func DefaultSummaryReport(now time.Time) SummaryReport {
	return SummaryReport{
		Location: models.LocationKey{
			State:    "Sample State",
			District: "Sample District",
			Village:  "Sample Village",
		},
		Totals: newTotals(2450, 180, 1200, 320, 95),
		Assets: defaultAssets{
			Forest:         models.ForestDisplay{Area: "2,450 ha", Coverage: 58, Quality: models.ForestQualityDense, Biodiversity: models.BiodiversityHigh},
			Water:          models.WaterDisplay{Area: "180 ha", Sources: 12, Quality: models.WaterQualityGood, Seasonal: models.SeasonalityPerennial},
			Agriculture:    models.AgricultureDisplay{Area: "1,200 ha", Productivity: models.ProductivityMedium, Crops: "Rice, Wheat", Irrigation: "60%"},
			Settlement:     models.SettlementDisplay{Area: "320 ha", Population: 1250, Density: models.SettlementDensityMedium, Infrastructure: models.SettlementInfrastructureGood},
			Infrastructure: models.InfrastructureDisplay{Area: "95 ha", Roads: "35 km", Connectivity: models.ConnectivityGood, Facilities: models.FacilitiesBasic},
		},
		Analysis: Analysis{
			ForestHealth:             "Dense",
			WaterQuality:             "Good",
			AgriculturalProductivity: "Medium",
			InfrastructureStatus:     "Good",
			TribalRights:             "Sample Data",
		},
		Recommendations: []string{
			"Implement sustainable forest management practices",
			"Improve water conservation systems",
			"Enhance agricultural productivity through modern techniques",
			"Develop better infrastructure connectivity",
		},
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}
