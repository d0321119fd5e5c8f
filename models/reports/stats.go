package reports

import (
	"math"
	"strconv"
	"time"

	"github.com/fra-atlas/asset_backend/models"
)

const (
	liveAccuracy    = "94%"
	timeOfDayLayout = "3:04:05 PM"
)

// StatsPanel is the summary strip of the asset-mapping page.
type StatsPanel struct {
	TotalArea   string `json:"totalArea"`
	ForestCover string `json:"forestCover"`
	WaterBodies string `json:"waterBodies"`
	Settlements string `json:"settlements"`
	Accuracy    string `json:"accuracy"`
	LastUpdate  string `json:"lastUpdate"`
}

func BuildStatsPanel(rec models.AssetRecord, now time.Time) StatsPanel {
	totals := TotalsOf(rec)
	return StatsPanel{
		TotalArea:   models.FormatHectares(totals.TotalArea),
		ForestCover: models.FormatPercent(ForestCoveragePercent(totals)),
		WaterBodies: strconv.Itoa(rec.Water.Sources),
		Settlements: strconv.Itoa(int(math.Floor(float64(rec.Settlement.Population)/100 + 0.5))),
		Accuracy:    liveAccuracy,
		LastUpdate:  now.Format(timeOfDayLayout),
	}
}

func DefaultStatsPanel() StatsPanel {
	return StatsPanel{
		TotalArea:   "4,245 ha",
		ForestCover: "58%",
		WaterBodies: "12",
		Settlements: "8",
		Accuracy:    "92%",
		LastUpdate:  "10 min ago",
	}
}
