package assetgen

import (
	"time"

	"github.com/fra-atlas/asset_backend/models"
)

const (
	LiveDataSource = "Real-time Satellite Analysis"
	// LastUpdatedLayout mirrors the en-US locale date-time string.
	LastUpdatedLayout = "1/2/2006, 3:04:05 PM"
)

// VariationFactor draws the shared multiplier in [0.95, 1.05).
func VariationFactor(rng RandSource) float64 {
	return 0.95 + rng.Float64()*0.1
}

// ApplyLiveVariation scales all five areas by one random factor and stamps the
// record as freshly computed. rec is not modified.
func ApplyLiveVariation(rec models.AssetRecord, rng RandSource, now time.Time) models.AssetRecord {
	return ScaleAreas(rec, VariationFactor(rng), now)
}

// ScaleAreas applies factor to every area field. Other fields are copied.
func ScaleAreas(rec models.AssetRecord, factor float64, now time.Time) models.AssetRecord {
	out := rec.Clone()
	out.Forest.AreaHectares = round(float64(rec.Forest.AreaHectares) * factor)
	out.Water.AreaHectares = round(float64(rec.Water.AreaHectares) * factor)
	out.Agriculture.AreaHectares = round(float64(rec.Agriculture.AreaHectares) * factor)
	out.Settlement.AreaHectares = round(float64(rec.Settlement.AreaHectares) * factor)
	out.Infrastructure.AreaHectares = round(float64(rec.Infrastructure.AreaHectares) * factor)
	out.LastUpdated = now.Format(LastUpdatedLayout)
	out.DataSource = LiveDataSource
	return out
}
