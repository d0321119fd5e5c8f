package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidEnum is wrapped by every enum parse failure.
var ErrInvalidEnum = errors.New("invalid enum value")

// enumValue is implemented by every categorical field of an AssetRecord.
type enumValue interface {
	IsValid() bool
	String() string
}

func parseEnum[T ~string](name string, s string, values []T) (T, error) {
	for _, v := range values {
		if string(v) == s {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrInvalidEnum, name, s)
}

func containsEnum[T ~string](v T, values []T) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func unmarshalEnum[T ~string](name string, data []byte, values []T, dst *T) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%s must be string: %w", name, err)
	}
	v, err := parseEnum(name, s, values)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

type ForestQuality string

const (
	ForestQualitySparse ForestQuality = "Sparse"
	ForestQualityMixed  ForestQuality = "Mixed"
	ForestQualityDense  ForestQuality = "Dense"
)

var ForestQualityValues = []ForestQuality{ForestQualitySparse, ForestQualityMixed, ForestQualityDense}

func (t ForestQuality) IsValid() bool  { return containsEnum(t, ForestQualityValues) }
func (t ForestQuality) String() string { return string(t) }
func (t *ForestQuality) UnmarshalJSON(b []byte) error {
	return unmarshalEnum("forest quality", b, ForestQualityValues, t)
}

type Biodiversity string

const (
	BiodiversityLow      Biodiversity = "Low"
	BiodiversityMedium   Biodiversity = "Medium"
	BiodiversityHigh     Biodiversity = "High"
	BiodiversityVeryHigh Biodiversity = "Very High"
)

var BiodiversityValues = []Biodiversity{BiodiversityLow, BiodiversityMedium, BiodiversityHigh, BiodiversityVeryHigh}

func (t Biodiversity) IsValid() bool  { return containsEnum(t, BiodiversityValues) }
func (t Biodiversity) String() string { return string(t) }
func (t *Biodiversity) UnmarshalJSON(b []byte) error {
	return unmarshalEnum("biodiversity", b, BiodiversityValues, t)
}

type WaterQuality string

const (
	WaterQualityFair      WaterQuality = "Fair"
	WaterQualityGood      WaterQuality = "Good"
	WaterQualityExcellent WaterQuality = "Excellent"
)

var WaterQualityValues = []WaterQuality{WaterQualityFair, WaterQualityGood, WaterQualityExcellent}

func (t WaterQuality) IsValid() bool  { return containsEnum(t, WaterQualityValues) }
func (t WaterQuality) String() string { return string(t) }
func (t *WaterQuality) UnmarshalJSON(b []byte) error {
	return unmarshalEnum("water quality", b, WaterQualityValues, t)
}

type Seasonality string

const (
	SeasonalitySeasonal  Seasonality = "Seasonal"
	SeasonalityPerennial Seasonality = "Perennial"
)

var SeasonalityValues = []Seasonality{SeasonalitySeasonal, SeasonalityPerennial}

func (t Seasonality) IsValid() bool  { return containsEnum(t, SeasonalityValues) }
func (t Seasonality) String() string { return string(t) }
func (t *Seasonality) UnmarshalJSON(b []byte) error {
	return unmarshalEnum("seasonality", b, SeasonalityValues, t)
}

type Productivity string

const (
	ProductivityLow    Productivity = "Low"
	ProductivityMedium Productivity = "Medium"
	ProductivityHigh   Productivity = "High"
)

var ProductivityValues = []Productivity{ProductivityLow, ProductivityMedium, ProductivityHigh}

func (t Productivity) IsValid() bool  { return containsEnum(t, ProductivityValues) }
func (t Productivity) String() string { return string(t) }
func (t *Productivity) UnmarshalJSON(b []byte) error {
	return unmarshalEnum("productivity", b, ProductivityValues, t)
}

type SettlementDensity string

const (
	SettlementDensityLow      SettlementDensity = "Low"
	SettlementDensityMedium   SettlementDensity = "Medium"
	SettlementDensityHigh     SettlementDensity = "High"
	SettlementDensityVeryHigh SettlementDensity = "Very High"
)

var SettlementDensityValues = []SettlementDensity{SettlementDensityLow, SettlementDensityMedium, SettlementDensityHigh, SettlementDensityVeryHigh}

func (t SettlementDensity) IsValid() bool  { return containsEnum(t, SettlementDensityValues) }
func (t SettlementDensity) String() string { return string(t) }
func (t *SettlementDensity) UnmarshalJSON(b []byte) error {
	return unmarshalEnum("settlement density", b, SettlementDensityValues, t)
}

type SettlementInfrastructure string

const (
	SettlementInfrastructureBasic     SettlementInfrastructure = "Basic"
	SettlementInfrastructureFair      SettlementInfrastructure = "Fair"
	SettlementInfrastructureGood      SettlementInfrastructure = "Good"
	SettlementInfrastructureExcellent SettlementInfrastructure = "Excellent"
)

var SettlementInfrastructureValues = []SettlementInfrastructure{
	SettlementInfrastructureBasic,
	SettlementInfrastructureFair,
	SettlementInfrastructureGood,
	SettlementInfrastructureExcellent,
}

func (t SettlementInfrastructure) IsValid() bool {
	return containsEnum(t, SettlementInfrastructureValues)
}
func (t SettlementInfrastructure) String() string { return string(t) }
func (t *SettlementInfrastructure) UnmarshalJSON(b []byte) error {
	return unmarshalEnum("settlement infrastructure", b, SettlementInfrastructureValues, t)
}

type Connectivity string

const (
	ConnectivityFair      Connectivity = "Fair"
	ConnectivityGood      Connectivity = "Good"
	ConnectivityExcellent Connectivity = "Excellent"
)

var ConnectivityValues = []Connectivity{ConnectivityFair, ConnectivityGood, ConnectivityExcellent}

func (t Connectivity) IsValid() bool  { return containsEnum(t, ConnectivityValues) }
func (t Connectivity) String() string { return string(t) }
func (t *Connectivity) UnmarshalJSON(b []byte) error {
	return unmarshalEnum("connectivity", b, ConnectivityValues, t)
}

type Facilities string

const (
	FacilitiesBasic    Facilities = "Basic"
	FacilitiesGood     Facilities = "Good"
	FacilitiesComplete Facilities = "Complete"
)

var FacilitiesValues = []Facilities{FacilitiesBasic, FacilitiesGood, FacilitiesComplete}

func (t Facilities) IsValid() bool  { return containsEnum(t, FacilitiesValues) }
func (t Facilities) String() string { return string(t) }
func (t *Facilities) UnmarshalJSON(b []byte) error {
	return unmarshalEnum("facilities", b, FacilitiesValues, t)
}

type Reserves string

const (
	ReservesLow      Reserves = "Low"
	ReservesMedium   Reserves = "Medium"
	ReservesHigh     Reserves = "High"
	ReservesVeryHigh Reserves = "Very High"
)

var ReservesValues = []Reserves{ReservesLow, ReservesMedium, ReservesHigh, ReservesVeryHigh}

func (t Reserves) IsValid() bool  { return containsEnum(t, ReservesValues) }
func (t Reserves) String() string { return string(t) }
func (t *Reserves) UnmarshalJSON(b []byte) error {
	return unmarshalEnum("reserves", b, ReservesValues, t)
}

type MiningStatus string

const (
	MiningStatusNone    MiningStatus = "None"
	MiningStatusLimited MiningStatus = "Limited"
	MiningStatusActive  MiningStatus = "Active"
)

var MiningStatusValues = []MiningStatus{MiningStatusNone, MiningStatusLimited, MiningStatusActive}

func (t MiningStatus) IsValid() bool  { return containsEnum(t, MiningStatusValues) }
func (t MiningStatus) String() string { return string(t) }
func (t *MiningStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum("mining status", b, MiningStatusValues, t)
}

type RightsStatus string

const (
	RightsStatusPending    RightsStatus = "Pending"
	RightsStatusRecognized RightsStatus = "Recognized"
	// Urban only occurs in curated city entries.
	RightsStatusUrban RightsStatus = "Urban"
)

var RightsStatusValues = []RightsStatus{RightsStatusPending, RightsStatusRecognized, RightsStatusUrban}

func (t RightsStatus) IsValid() bool  { return containsEnum(t, RightsStatusValues) }
func (t RightsStatus) String() string { return string(t) }
func (t *RightsStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum("rights status", b, RightsStatusValues, t)
}
