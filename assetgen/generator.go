package assetgen

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("fra-atlas/assetgen")

// ErrVillageRequired is returned by Generate for an empty village.
var ErrVillageRequired = models.ErrVillageRequired

// Synthesis draws categoricals from these lists only; the wider enum sets exist
// for curated entries.
var (
	synthForestQuality = models.ForestQualityValues
	synthBiodiversity  = models.BiodiversityValues
	synthWaterQuality  = models.WaterQualityValues
	synthSeasonality   = models.SeasonalityValues
	synthProductivity  = models.ProductivityValues
	synthDensity       = []models.SettlementDensity{
		models.SettlementDensityLow, models.SettlementDensityMedium, models.SettlementDensityHigh,
	}
	synthSettlementInfra = []models.SettlementInfrastructure{
		models.SettlementInfrastructureBasic, models.SettlementInfrastructureFair, models.SettlementInfrastructureGood,
	}
	synthConnectivity = models.ConnectivityValues
	synthFacilities   = models.FacilitiesValues
	synthReserves     = []models.Reserves{models.ReservesLow, models.ReservesMedium, models.ReservesHigh}
	synthMining       = models.MiningStatusValues
	synthRights       = []models.RightsStatus{models.RightsStatusPending, models.RightsStatusRecognized}
)

const (
	synthCrops    = "Rice, Local Crops"
	synthDeposits = "Various"
	synthGroup    = "Local Tribes"
)

// Generator produces the base AssetRecord of a location.
type Generator struct {
	catalog *Catalog
	rng     RandSource
	logger  *logrus.Logger
}

func NewGenerator(catalog *Catalog, rng RandSource) *Generator {
	if catalog == nil {
		catalog = BuiltinCatalog()
	}
	if rng == nil {
		rng = NewDefaultSource()
	}
	return &Generator{catalog: catalog, rng: rng, logger: config.GetLogger()}
}

func (g *Generator) Catalog() *Catalog { return g.catalog }
func (g *Generator) Rand() RandSource  { return g.rng }

// Generate returns the curated record of village when the catalog has one,
// regardless of state and district. Otherwise it synthesizes a record weighted
// by the state's factors.
func (g *Generator) Generate(ctx context.Context, state, district, village string) (models.AssetRecord, error) {
	_, span := tracer.Start(ctx, "assetgen.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("state", state),
		attribute.String("district", district),
		attribute.String("village", village),
	)

	village = strings.TrimSpace(village)
	if village == "" {
		span.SetStatus(codes.Error, ErrVillageRequired.Error())
		return models.AssetRecord{}, ErrVillageRequired
	}

	if entry, ok := g.catalog.Lookup(village); ok {
		span.SetAttributes(attribute.Bool("curated", true))
		if err := entry.Record.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid curated entry")
			return models.AssetRecord{}, fmt.Errorf("curated village %q: %w", village, err)
		}
		return entry.Record, nil
	}

	span.SetAttributes(attribute.Bool("curated", false))
	rec := Synthesize(g.rng, state)
	if err := rec.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid synthesized record")
		return models.AssetRecord{}, fmt.Errorf("synthesize %q: %w", village, err)
	}
	g.logger.WithFields(logrus.Fields{
		"state":    state,
		"district": district,
		"village":  village,
	}).Debug("synthesized asset record")
	return rec, nil
}

// Synthesize builds a random record for a location missing from the catalog.
func Synthesize(rng RandSource, state string) models.AssetRecord {
	f := StateFactors(state)
	return models.AssetRecord{
		Forest: models.ForestAssets{
			AreaHectares: round(800 + rng.Float64()*1200*f.Forest),
			Coverage:     round(30 + rng.Float64()*50),
			Quality:      pick(rng, synthForestQuality),
			Biodiversity: pick(rng, synthBiodiversity),
		},
		Water: models.WaterAssets{
			AreaHectares: round(50 + rng.Float64()*200*f.Water),
			Sources:      round(3 + rng.Float64()*15),
			Quality:      pick(rng, synthWaterQuality),
			Seasonality:  pick(rng, synthSeasonality),
		},
		Agriculture: models.AgricultureAssets{
			AreaHectares:      round(600 + rng.Float64()*800*f.Agriculture),
			Productivity:      pick(rng, synthProductivity),
			Crops:             synthCrops,
			IrrigationPercent: round(30 + rng.Float64()*60),
		},
		Settlement: models.SettlementAssets{
			AreaHectares:   round(200 + rng.Float64()*400),
			Population:     round(500 + rng.Float64()*2000),
			Density:        pick(rng, synthDensity),
			Infrastructure: pick(rng, synthSettlementInfra),
		},
		Infrastructure: models.InfrastructureAssets{
			AreaHectares: round(50 + rng.Float64()*150),
			RoadsKm:      round(15 + rng.Float64()*60),
			Connectivity: pick(rng, synthConnectivity),
			Facilities:   pick(rng, synthFacilities),
		},
		Minerals: models.MineralAssets{
			Deposits: synthDeposits,
			Reserves: pick(rng, synthReserves),
			Mining:   pick(rng, synthMining),
		},
		Tribal: models.TribalAssets{
			Population: round(200 + rng.Float64()*800),
			Groups:     []string{synthGroup},
			Rights:     pick(rng, synthRights),
		},
	}
}

// round matches Math.round for the non-negative values used here.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
