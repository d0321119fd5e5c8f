package models

// AssetRecord holds the land-asset statistics of one location. Areas are whole
// hectares; use Display for the unit-suffixed form.
type AssetRecord struct {
	Forest         ForestAssets         `json:"forest"`
	Water          WaterAssets          `json:"water"`
	Agriculture    AgricultureAssets    `json:"agriculture"`
	Settlement     SettlementAssets     `json:"settlement"`
	Infrastructure InfrastructureAssets `json:"infrastructure"`
	Minerals       MineralAssets        `json:"minerals"`
	Tribal         TribalAssets         `json:"tribal"`
	LastUpdated    string               `json:"lastUpdated,omitempty"`
	DataSource     string               `json:"dataSource,omitempty"`
}

type ForestAssets struct {
	AreaHectares int           `json:"areaHectares" validate:"gte=0"`
	Coverage     int           `json:"coverage" validate:"gte=0,lte=100"`
	Quality      ForestQuality `json:"quality" validate:"enum"`
	Biodiversity Biodiversity  `json:"biodiversity" validate:"enum"`
}

type WaterAssets struct {
	AreaHectares int          `json:"areaHectares" validate:"gte=0"`
	Sources      int          `json:"sources" validate:"gte=0"`
	Quality      WaterQuality `json:"quality" validate:"enum"`
	Seasonality  Seasonality  `json:"seasonality" validate:"enum"`
}

type AgricultureAssets struct {
	AreaHectares      int          `json:"areaHectares" validate:"gte=0"`
	Productivity      Productivity `json:"productivity" validate:"enum"`
	Crops             string       `json:"crops"`
	IrrigationPercent int          `json:"irrigationPercent" validate:"gte=0,lte=100"`
}

type SettlementAssets struct {
	AreaHectares   int                      `json:"areaHectares" validate:"gte=0"`
	Population     int                      `json:"population" validate:"gte=0"`
	Density        SettlementDensity        `json:"density" validate:"enum"`
	Infrastructure SettlementInfrastructure `json:"infrastructure" validate:"enum"`
}

type InfrastructureAssets struct {
	AreaHectares int          `json:"areaHectares" validate:"gte=0"`
	RoadsKm      int          `json:"roadsKm" validate:"gte=0"`
	Connectivity Connectivity `json:"connectivity" validate:"enum"`
	Facilities   Facilities   `json:"facilities" validate:"enum"`
}

type MineralAssets struct {
	Deposits string       `json:"deposits"`
	Reserves Reserves     `json:"reserves" validate:"enum"`
	Mining   MiningStatus `json:"mining" validate:"enum"`
}

type TribalAssets struct {
	Population int          `json:"population" validate:"gte=0"`
	Groups     []string     `json:"groups" validate:"min=1,dive,required"`
	Rights     RightsStatus `json:"rights" validate:"enum"`
}

// Validate checks every enum field against its set and the numeric bounds.
func (r AssetRecord) Validate() error {
	return validate.Struct(r)
}

// Clone returns a copy that shares no slices with r.
func (r AssetRecord) Clone() AssetRecord {
	out := r
	out.Tribal.Groups = append([]string(nil), r.Tribal.Groups...)
	return out
}

// TotalArea sums the five domain areas.
func (r AssetRecord) TotalArea() int {
	return r.Forest.AreaHectares +
		r.Water.AreaHectares +
		r.Agriculture.AreaHectares +
		r.Settlement.AreaHectares +
		r.Infrastructure.AreaHectares
}
