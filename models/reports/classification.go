package reports

import (
	"time"

	"github.com/fra-atlas/asset_backend/models"
)

type ConfidenceBucket string

const (
	ConfidenceHigh   ConfidenceBucket = "high"
	ConfidenceMedium ConfidenceBucket = "medium"
	ConfidenceLow    ConfidenceBucket = "low"
)

// ConfidenceLabel buckets a confidence in [0,1]. Lower bounds are inclusive.
func ConfidenceLabel(c float64) ConfidenceBucket {
	switch {
	case c >= 0.90:
		return ConfidenceHigh
	case c >= 0.80:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

type OverviewRow struct {
	Category     string  `json:"category"`
	Area         string  `json:"area"`
	AreaHectares int     `json:"-"`
	Percentage   float64 `json:"percentage"`
}

type DetailRow struct {
	ID              int              `json:"id" csv:"id"`
	Type            string           `json:"type" csv:"type"`
	Subtype         string           `json:"subtype" csv:"subtype"`
	Area            string           `json:"area" csv:"area"`
	Confidence      float64          `json:"confidence" csv:"confidence"`
	ConfidenceLabel ConfidenceBucket `json:"confidenceLabel" csv:"confidence_label"`
	Coordinates     string           `json:"coordinates,omitempty" csv:"coordinates"`
	LastUpdated     string           `json:"lastUpdated" csv:"last_updated"`
}

type ClassificationReport struct {
	Location *models.LocationKey `json:"location,omitempty"`
	Overview []OverviewRow       `json:"overview"`
	Details  []DetailRow         `json:"details"`
}

// BuildClassification derives overview and detail rows from detection results.
// Overview percentages are shares of the summed detected area.
func BuildClassification(results []DetectionResult, location models.LocationKey, now time.Time) ClassificationReport {
	total := 0
	for _, r := range results {
		total += r.AreaHectares
	}

	report := ClassificationReport{
		Location: &location,
		Overview: make([]OverviewRow, 0, len(results)),
		Details:  make([]DetailRow, 0, len(results)),
	}
	updated := now.Format("2006-01-02")
	for i, r := range results {
		if r.AreaHectares > 0 {
			report.Overview = append(report.Overview, OverviewRow{
				Category:     r.Type,
				Area:         r.Area,
				AreaHectares: r.AreaHectares,
				Percentage:   PercentOneDecimal(r.AreaHectares, total),
			})
		}
		confidence := float64(r.Confidence) / 100
		report.Details = append(report.Details, DetailRow{
			ID:              i + 1,
			Type:            r.Type,
			Subtype:         r.Status,
			Area:            r.Area,
			Confidence:      confidence,
			ConfidenceLabel: ConfidenceLabel(confidence),
			LastUpdated:     updated,
		})
	}
	return report
}

// SampleClassification is shown before any location has been selected.
func SampleClassification() ClassificationReport {
	return ClassificationReport{
		Overview: []OverviewRow{
			{Category: TypeForest, Area: "2,847 ha", AreaHectares: 2847, Percentage: 42.5},
			{Category: TypeAgriculture, Area: "1,923 ha", AreaHectares: 1923, Percentage: 28.7},
			{Category: TypeWater, Area: "456 ha", AreaHectares: 456, Percentage: 6.8},
			{Category: TypeSettlement, Area: "634 ha", AreaHectares: 634, Percentage: 9.5},
			{Category: StatusSparseCoverage, Area: "845 ha", AreaHectares: 845, Percentage: 12.5},
		},
		Details: []DetailRow{
			{ID: 1, Type: TypeForest, Subtype: StatusDenseCoverage, Area: "1,245 ha", Confidence: 0.96, ConfidenceLabel: ConfidenceLabel(0.96), Coordinates: "19.8762°N, 82.4528°E", LastUpdated: "2024-11-15"},
			{ID: 2, Type: TypeWater, Subtype: "Pond", Area: "12.5 ha", Confidence: 0.89, ConfidenceLabel: ConfidenceLabel(0.89), Coordinates: "19.8745°N, 82.4501°E", LastUpdated: "2024-11-15"},
			{ID: 3, Type: TypeAgriculture, Subtype: "Cropland", Area: "567 ha", Confidence: 0.92, ConfidenceLabel: ConfidenceLabel(0.92), Coordinates: "19.8798°N, 82.4567°E", LastUpdated: "2024-11-15"},
		},
	}
}
