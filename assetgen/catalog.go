package assetgen

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/fra-atlas/asset_backend/models"
)

// CatalogEntry is one curated village of the lookup table.
type CatalogEntry struct {
	State    string
	District string
	Village  string
	Record   models.AssetRecord
}

// Catalog is the lookup table consulted before synthesis. It is keyed by
// village name only.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]CatalogEntry
}

func NewCatalog(entries ...CatalogEntry) *Catalog {
	c := &Catalog{entries: make(map[string]CatalogEntry, len(entries))}
	for _, e := range entries {
		c.entries[e.Village] = e
	}
	return c
}

// BuiltinCatalog returns a catalog holding the curated villages shipped with the service.
func BuiltinCatalog() *Catalog {
	return NewCatalog(BuiltinEntries()...)
}

// Lookup returns a copy of the curated record of village.
func (c *Catalog) Lookup(village string) (CatalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[village]
	if !ok {
		return CatalogEntry{}, false
	}
	e.Record = e.Record.Clone()
	return e, true
}

// Put adds or replaces an entry.
func (c *Catalog) Put(e CatalogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.Village] = e
}

// Entries returns all entries sorted by state then village.
func (c *Catalog) Entries() []CatalogEntry {
	c.mu.RLock()
	out := make([]CatalogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		e.Record = e.Record.Clone()
		out = append(out, e)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].State != out[j].State {
			return out[i].State < out[j].State
		}
		return out[i].Village < out[j].Village
	})
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// MergeCuratedVillages loads database rows into the catalog. A row whose record
// does not decode or validate is skipped and reported in the returned slice.
func (c *Catalog) MergeCuratedVillages(rows []*models.CuratedVillage) (merged int, rejected []string) {
	for _, row := range rows {
		if row == nil || strings.TrimSpace(row.Village) == "" {
			continue
		}
		rec, err := row.AssetRecord()
		if err != nil {
			rejected = append(rejected, row.Village)
			continue
		}
		c.Put(CatalogEntry{State: row.State, District: row.District, Village: row.Village, Record: rec})
		merged++
	}
	return merged, rejected
}

// LoadFromDatabase merges the active curated_villages rows, if a database is connected.
func (c *Catalog) LoadFromDatabase(ctx context.Context) (merged int, rejected []string, err error) {
	rows, err := models.GetCuratedVillages(ctx)
	if err != nil {
		return 0, nil, err
	}
	merged, rejected = c.MergeCuratedVillages(rows)
	return merged, rejected, nil
}

// BuiltinEntries returns the curated villages shipped with the service.
func BuiltinEntries() []CatalogEntry {
	return []CatalogEntry{
		{
			State: "Jharkhand", District: "East Singhbhum", Village: "Jamshedpur",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 1250, Coverage: 45, Quality: models.ForestQualityDense, Biodiversity: models.BiodiversityHigh},
				Water:          models.WaterAssets{AreaHectares: 180, Sources: 12, Quality: models.WaterQualityGood, Seasonality: models.SeasonalityPerennial},
				Agriculture:    models.AgricultureAssets{AreaHectares: 890, Productivity: models.ProductivityMedium, Crops: "Rice, Wheat", IrrigationPercent: 65},
				Settlement:     models.SettlementAssets{AreaHectares: 420, Population: 1850, Density: models.SettlementDensityHigh, Infrastructure: models.SettlementInfrastructureGood},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 160, RoadsKm: 45, Connectivity: models.ConnectivityExcellent, Facilities: models.FacilitiesComplete},
				Minerals:       models.MineralAssets{Deposits: "Iron Ore", Reserves: models.ReservesHigh, Mining: models.MiningStatusActive},
				Tribal:         models.TribalAssets{Population: 1200, Groups: []string{"Ho", "Santhal"}, Rights: models.RightsStatusRecognized},
			},
		},
		{
			State: "Jharkhand", District: "West Singhbhum", Village: "Chaibasa",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 2100, Coverage: 68, Quality: models.ForestQualityDense, Biodiversity: models.BiodiversityVeryHigh},
				Water:          models.WaterAssets{AreaHectares: 95, Sources: 8, Quality: models.WaterQualityExcellent, Seasonality: models.SeasonalityPerennial},
				Agriculture:    models.AgricultureAssets{AreaHectares: 1200, Productivity: models.ProductivityHigh, Crops: "Rice, Maize", IrrigationPercent: 45},
				Settlement:     models.SettlementAssets{AreaHectares: 280, Population: 980, Density: models.SettlementDensityMedium, Infrastructure: models.SettlementInfrastructureFair},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 85, RoadsKm: 28, Connectivity: models.ConnectivityGood, Facilities: models.FacilitiesBasic},
				Minerals:       models.MineralAssets{Deposits: "Iron Ore, Copper", Reserves: models.ReservesMedium, Mining: models.MiningStatusLimited},
				Tribal:         models.TribalAssets{Population: 750, Groups: []string{"Ho", "Munda"}, Rights: models.RightsStatusPending},
			},
		},
		{
			State: "Jharkhand", District: "Ranchi", Village: "Ranchi",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 1800, Coverage: 52, Quality: models.ForestQualityMixed, Biodiversity: models.BiodiversityHigh},
				Water:          models.WaterAssets{AreaHectares: 220, Sources: 15, Quality: models.WaterQualityGood, Seasonality: models.SeasonalityPerennial},
				Agriculture:    models.AgricultureAssets{AreaHectares: 1100, Productivity: models.ProductivityMedium, Crops: "Rice, Vegetables", IrrigationPercent: 70},
				Settlement:     models.SettlementAssets{AreaHectares: 380, Population: 1650, Density: models.SettlementDensityHigh, Infrastructure: models.SettlementInfrastructureExcellent},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 140, RoadsKm: 52, Connectivity: models.ConnectivityExcellent, Facilities: models.FacilitiesComplete},
				Minerals:       models.MineralAssets{Deposits: "Coal, Mica", Reserves: models.ReservesHigh, Mining: models.MiningStatusActive},
				Tribal:         models.TribalAssets{Population: 950, Groups: []string{"Oraon", "Munda"}, Rights: models.RightsStatusRecognized},
			},
		},
		{
			State: "Jharkhand", District: "East Singhbhum", Village: "Ghatshila",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 1650, Coverage: 58, Quality: models.ForestQualityDense, Biodiversity: models.BiodiversityHigh},
				Water:          models.WaterAssets{AreaHectares: 125, Sources: 9, Quality: models.WaterQualityGood, Seasonality: models.SeasonalityPerennial},
				Agriculture:    models.AgricultureAssets{AreaHectares: 950, Productivity: models.ProductivityMedium, Crops: "Rice, Pulses", IrrigationPercent: 55},
				Settlement:     models.SettlementAssets{AreaHectares: 320, Population: 1200, Density: models.SettlementDensityMedium, Infrastructure: models.SettlementInfrastructureGood},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 95, RoadsKm: 35, Connectivity: models.ConnectivityGood, Facilities: models.FacilitiesGood},
				Minerals:       models.MineralAssets{Deposits: "Copper, Iron", Reserves: models.ReservesHigh, Mining: models.MiningStatusActive},
				Tribal:         models.TribalAssets{Population: 800, Groups: []string{"Ho", "Santhal"}, Rights: models.RightsStatusRecognized},
			},
		},
		{
			State: "Jharkhand", District: "East Singhbhum", Village: "Potka",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 1450, Coverage: 62, Quality: models.ForestQualityDense, Biodiversity: models.BiodiversityHigh},
				Water:          models.WaterAssets{AreaHectares: 85, Sources: 6, Quality: models.WaterQualityGood, Seasonality: models.SeasonalitySeasonal},
				Agriculture:    models.AgricultureAssets{AreaHectares: 780, Productivity: models.ProductivityLow, Crops: "Rice, Maize", IrrigationPercent: 35},
				Settlement:     models.SettlementAssets{AreaHectares: 250, Population: 850, Density: models.SettlementDensityLow, Infrastructure: models.SettlementInfrastructureBasic},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 65, RoadsKm: 22, Connectivity: models.ConnectivityFair, Facilities: models.FacilitiesBasic},
				Minerals:       models.MineralAssets{Deposits: "Iron Ore", Reserves: models.ReservesMedium, Mining: models.MiningStatusLimited},
				Tribal:         models.TribalAssets{Population: 650, Groups: []string{"Ho"}, Rights: models.RightsStatusPending},
			},
		},
		{
			State: "Telangana", District: "Adilabad", Village: "Adilabad",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 1950, Coverage: 65, Quality: models.ForestQualityDense, Biodiversity: models.BiodiversityVeryHigh},
				Water:          models.WaterAssets{AreaHectares: 150, Sources: 10, Quality: models.WaterQualityGood, Seasonality: models.SeasonalityPerennial},
				Agriculture:    models.AgricultureAssets{AreaHectares: 1350, Productivity: models.ProductivityHigh, Crops: "Cotton, Rice", IrrigationPercent: 80},
				Settlement:     models.SettlementAssets{AreaHectares: 320, Population: 1450, Density: models.SettlementDensityMedium, Infrastructure: models.SettlementInfrastructureGood},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 120, RoadsKm: 38, Connectivity: models.ConnectivityGood, Facilities: models.FacilitiesGood},
				Minerals:       models.MineralAssets{Deposits: "Coal, Limestone", Reserves: models.ReservesHigh, Mining: models.MiningStatusActive},
				Tribal:         models.TribalAssets{Population: 950, Groups: []string{"Gond", "Kolam"}, Rights: models.RightsStatusRecognized},
			},
		},
		{
			State: "Telangana", District: "Hyderabad", Village: "Hyderabad",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 450, Coverage: 18, Quality: models.ForestQualitySparse, Biodiversity: models.BiodiversityLow},
				Water:          models.WaterAssets{AreaHectares: 80, Sources: 25, Quality: models.WaterQualityFair, Seasonality: models.SeasonalityPerennial},
				Agriculture:    models.AgricultureAssets{AreaHectares: 600, Productivity: models.ProductivityLow, Crops: "Vegetables", IrrigationPercent: 90},
				Settlement:     models.SettlementAssets{AreaHectares: 1200, Population: 5500, Density: models.SettlementDensityVeryHigh, Infrastructure: models.SettlementInfrastructureExcellent},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 380, RoadsKm: 125, Connectivity: models.ConnectivityExcellent, Facilities: models.FacilitiesComplete},
				Minerals:       models.MineralAssets{Deposits: "Granite", Reserves: models.ReservesLow, Mining: models.MiningStatusLimited},
				Tribal:         models.TribalAssets{Population: 200, Groups: []string{"Lambada"}, Rights: models.RightsStatusUrban},
			},
		},
		{
			State: "Telangana", District: "Bhadradri Kothagudem", Village: "Bhadrachalam",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 2200, Coverage: 72, Quality: models.ForestQualityDense, Biodiversity: models.BiodiversityVeryHigh},
				Water:          models.WaterAssets{AreaHectares: 180, Sources: 12, Quality: models.WaterQualityExcellent, Seasonality: models.SeasonalityPerennial},
				Agriculture:    models.AgricultureAssets{AreaHectares: 980, Productivity: models.ProductivityMedium, Crops: "Rice, Turmeric", IrrigationPercent: 60},
				Settlement:     models.SettlementAssets{AreaHectares: 280, Population: 1100, Density: models.SettlementDensityMedium, Infrastructure: models.SettlementInfrastructureFair},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 90, RoadsKm: 32, Connectivity: models.ConnectivityFair, Facilities: models.FacilitiesBasic},
				Minerals:       models.MineralAssets{Deposits: "Bauxite", Reserves: models.ReservesMedium, Mining: models.MiningStatusLimited},
				Tribal:         models.TribalAssets{Population: 850, Groups: []string{"Koya", "Gond"}, Rights: models.RightsStatusRecognized},
			},
		},
		{
			State: "Tripura", District: "West Tripura", Village: "Agartala",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 1100, Coverage: 42, Quality: models.ForestQualityMixed, Biodiversity: models.BiodiversityMedium},
				Water:          models.WaterAssets{AreaHectares: 120, Sources: 18, Quality: models.WaterQualityGood, Seasonality: models.SeasonalityPerennial},
				Agriculture:    models.AgricultureAssets{AreaHectares: 800, Productivity: models.ProductivityHigh, Crops: "Rice, Jute", IrrigationPercent: 75},
				Settlement:     models.SettlementAssets{AreaHectares: 450, Population: 2200, Density: models.SettlementDensityHigh, Infrastructure: models.SettlementInfrastructureExcellent},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 180, RoadsKm: 65, Connectivity: models.ConnectivityExcellent, Facilities: models.FacilitiesComplete},
				Minerals:       models.MineralAssets{Deposits: "Natural Gas", Reserves: models.ReservesMedium, Mining: models.MiningStatusActive},
				Tribal:         models.TribalAssets{Population: 800, Groups: []string{"Tripuri", "Reang"}, Rights: models.RightsStatusRecognized},
			},
		},
		{
			State: "Tripura", District: "North Tripura", Village: "Dharmanagar",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 1650, Coverage: 58, Quality: models.ForestQualityDense, Biodiversity: models.BiodiversityHigh},
				Water:          models.WaterAssets{AreaHectares: 90, Sources: 7, Quality: models.WaterQualityGood, Seasonality: models.SeasonalityPerennial},
				Agriculture:    models.AgricultureAssets{AreaHectares: 950, Productivity: models.ProductivityMedium, Crops: "Rice, Tea", IrrigationPercent: 50},
				Settlement:     models.SettlementAssets{AreaHectares: 220, Population: 950, Density: models.SettlementDensityMedium, Infrastructure: models.SettlementInfrastructureGood},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 95, RoadsKm: 28, Connectivity: models.ConnectivityGood, Facilities: models.FacilitiesGood},
				Minerals:       models.MineralAssets{Deposits: "Limestone", Reserves: models.ReservesLow, Mining: models.MiningStatusLimited},
				Tribal:         models.TribalAssets{Population: 650, Groups: []string{"Tripuri", "Halam"}, Rights: models.RightsStatusRecognized},
			},
		},
		{
			State: "Madhya Pradesh", District: "Bhopal", Village: "Bhopal",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 980, Coverage: 35, Quality: models.ForestQualityMixed, Biodiversity: models.BiodiversityMedium},
				Water:          models.WaterAssets{AreaHectares: 160, Sources: 22, Quality: models.WaterQualityFair, Seasonality: models.SeasonalityPerennial},
				Agriculture:    models.AgricultureAssets{AreaHectares: 1050, Productivity: models.ProductivityMedium, Crops: "Wheat, Soybean", IrrigationPercent: 85},
				Settlement:     models.SettlementAssets{AreaHectares: 520, Population: 2800, Density: models.SettlementDensityHigh, Infrastructure: models.SettlementInfrastructureExcellent},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 220, RoadsKm: 85, Connectivity: models.ConnectivityExcellent, Facilities: models.FacilitiesComplete},
				Minerals:       models.MineralAssets{Deposits: "Sandstone", Reserves: models.ReservesMedium, Mining: models.MiningStatusLimited},
				Tribal:         models.TribalAssets{Population: 450, Groups: []string{"Gond", "Bhil"}, Rights: models.RightsStatusUrban},
			},
		},
		{
			State: "Madhya Pradesh", District: "Indore", Village: "Indore",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 720, Coverage: 28, Quality: models.ForestQualitySparse, Biodiversity: models.BiodiversityLow},
				Water:          models.WaterAssets{AreaHectares: 110, Sources: 15, Quality: models.WaterQualityFair, Seasonality: models.SeasonalitySeasonal},
				Agriculture:    models.AgricultureAssets{AreaHectares: 890, Productivity: models.ProductivityHigh, Crops: "Cotton, Wheat", IrrigationPercent: 90},
				Settlement:     models.SettlementAssets{AreaHectares: 680, Population: 3200, Density: models.SettlementDensityVeryHigh, Infrastructure: models.SettlementInfrastructureExcellent},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 280, RoadsKm: 95, Connectivity: models.ConnectivityExcellent, Facilities: models.FacilitiesComplete},
				Minerals:       models.MineralAssets{Deposits: "Black Soil", Reserves: models.ReservesHigh, Mining: models.MiningStatusNone},
				Tribal:         models.TribalAssets{Population: 300, Groups: []string{"Bhil"}, Rights: models.RightsStatusUrban},
			},
		},
		{
			State: "Odisha", District: "Angul", Village: "Angul",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 1750, Coverage: 62, Quality: models.ForestQualityDense, Biodiversity: models.BiodiversityHigh},
				Water:          models.WaterAssets{AreaHectares: 200, Sources: 11, Quality: models.WaterQualityGood, Seasonality: models.SeasonalityPerennial},
				Agriculture:    models.AgricultureAssets{AreaHectares: 1150, Productivity: models.ProductivityMedium, Crops: "Rice, Sugarcane", IrrigationPercent: 70},
				Settlement:     models.SettlementAssets{AreaHectares: 290, Population: 1350, Density: models.SettlementDensityMedium, Infrastructure: models.SettlementInfrastructureGood},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 110, RoadsKm: 42, Connectivity: models.ConnectivityGood, Facilities: models.FacilitiesGood},
				Minerals:       models.MineralAssets{Deposits: "Coal, Iron", Reserves: models.ReservesVeryHigh, Mining: models.MiningStatusActive},
				Tribal:         models.TribalAssets{Population: 850, Groups: []string{"Kol", "Gond"}, Rights: models.RightsStatusRecognized},
			},
		},
		{
			State: "Odisha", District: "Balangir", Village: "Balangir",
			Record: models.AssetRecord{
				Forest:         models.ForestAssets{AreaHectares: 1450, Coverage: 55, Quality: models.ForestQualityMixed, Biodiversity: models.BiodiversityMedium},
				Water:          models.WaterAssets{AreaHectares: 130, Sources: 9, Quality: models.WaterQualityGood, Seasonality: models.SeasonalitySeasonal},
				Agriculture:    models.AgricultureAssets{AreaHectares: 1280, Productivity: models.ProductivityHigh, Crops: "Rice, Turmeric", IrrigationPercent: 65},
				Settlement:     models.SettlementAssets{AreaHectares: 310, Population: 1250, Density: models.SettlementDensityMedium, Infrastructure: models.SettlementInfrastructureFair},
				Infrastructure: models.InfrastructureAssets{AreaHectares: 95, RoadsKm: 35, Connectivity: models.ConnectivityFair, Facilities: models.FacilitiesBasic},
				Minerals:       models.MineralAssets{Deposits: "Bauxite", Reserves: models.ReservesHigh, Mining: models.MiningStatusActive},
				Tribal:         models.TribalAssets{Population: 750, Groups: []string{"Kondh", "Gond"}, Rights: models.RightsStatusPending},
			},
		},
	}
}
