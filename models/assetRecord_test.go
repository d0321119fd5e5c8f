package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func sampleRecord() AssetRecord {
	return AssetRecord{
		Forest:         ForestAssets{AreaHectares: 1250, Coverage: 45, Quality: ForestQualityDense, Biodiversity: BiodiversityHigh},
		Water:          WaterAssets{AreaHectares: 180, Sources: 12, Quality: WaterQualityGood, Seasonality: SeasonalityPerennial},
		Agriculture:    AgricultureAssets{AreaHectares: 890, Productivity: ProductivityMedium, Crops: "Rice, Wheat", IrrigationPercent: 65},
		Settlement:     SettlementAssets{AreaHectares: 420, Population: 1850, Density: SettlementDensityHigh, Infrastructure: SettlementInfrastructureGood},
		Infrastructure: InfrastructureAssets{AreaHectares: 160, RoadsKm: 45, Connectivity: ConnectivityExcellent, Facilities: FacilitiesComplete},
		Minerals:       MineralAssets{Deposits: "Iron Ore", Reserves: ReservesHigh, Mining: MiningStatusActive},
		Tribal:         TribalAssets{Population: 1200, Groups: []string{"Ho", "Santhal"}, Rights: RightsStatusRecognized},
	}
}

func TestParseAreaValue(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"1,250 ha", 1250},
		{"500 ha", 500},
		{"0 ha", 0},
		{"45 km", 45},
		{"65%", 65},
		{"  12.9 ha", 12},
		{"12,345,678 ha", 12345678},
		{"", 0},
		{"ha", 0},
		{"abc", 0},
		{"-", 0},
		{"12abc34", 12},
		{"12abc", 12},
		{"+12 ha", 12},
		{"-12 ha", -12},
		{"1.2.3 ha", 1},
		{"+", 0},
		{"+-3", 0},
		{".5 ha", 0},
	}
	for _, tc := range cases {
		if got := ParseAreaValue(tc.in); got != tc.want {
			t.Fatalf("ParseAreaValue(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatThousands(t *testing.T) {
	cases := map[int]string{
		0:       "0",
		7:       "7",
		999:     "999",
		1000:    "1,000",
		1250:    "1,250",
		12345:   "12,345",
		1234567: "1,234,567",
		-4245:   "-4,245",
	}
	for in, want := range cases {
		if got := FormatThousands(in); got != want {
			t.Fatalf("FormatThousands(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayRoundTrip(t *testing.T) {
	rec := sampleRecord()
	d := rec.Display()
	if d.Forest.Area != "1,250 ha" || d.Infrastructure.Roads != "45 km" || d.Agriculture.Irrigation != "65%" {
		t.Fatalf("unexpected display %+v", d)
	}
	back := d.Record()
	if !reflect.DeepEqual(back, rec) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", back, rec)
	}
}

func TestValidateRejectsUnknownEnum(t *testing.T) {
	rec := sampleRecord()
	if err := rec.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	rec.Forest.Quality = ForestQuality("Thick")
	if err := rec.Validate(); err == nil {
		t.Fatalf("unknown forest quality accepted")
	}

	rec = sampleRecord()
	rec.Forest.Coverage = 101
	if err := rec.Validate(); err == nil {
		t.Fatalf("coverage above 100 accepted")
	}

	rec = sampleRecord()
	rec.Tribal.Groups = nil
	if err := rec.Validate(); err == nil {
		t.Fatalf("empty tribal groups accepted")
	}
}

func TestEnumUnmarshalRejectsUnknown(t *testing.T) {
	var d AssetDisplay
	body := `{"forest":{"area":"1 ha","coverage":1,"quality":"Dense","biodiversity":"Extreme"}}`
	err := json.Unmarshal([]byte(body), &d)
	if !errors.Is(err, ErrInvalidEnum) {
		t.Fatalf("expected ErrInvalidEnum, got %v", err)
	}

	var b Biodiversity
	if err := json.Unmarshal([]byte(`"Very High"`), &b); err != nil || b != BiodiversityVeryHigh {
		t.Fatalf("Very High not accepted: %v %q", err, b)
	}
}

func TestCloneDoesNotShareGroups(t *testing.T) {
	rec := sampleRecord()
	c := rec.Clone()
	c.Tribal.Groups[0] = "Munda"
	if rec.Tribal.Groups[0] != "Ho" {
		t.Fatalf("clone shares groups slice")
	}
}

func TestLocationKey(t *testing.T) {
	if err := (LocationKey{State: "Jharkhand", District: "Ranchi"}).Validate(); !errors.Is(err, ErrVillageRequired) {
		t.Fatalf("expected ErrVillageRequired, got %v", err)
	}
	l := LocationKey{State: " Jharkhand", District: "East Singhbhum ", Village: "Jamshedpur"}
	if err := l.Validate(); err != nil {
		t.Fatal(err)
	}
	if got := l.CacheKey(); got != "asset:jharkhand:east singhbhum:jamshedpur" {
		t.Fatalf("CacheKey = %q", got)
	}
	if got := l.String(); got != "Jamshedpur, East Singhbhum, Jharkhand" {
		t.Fatalf("String = %q", got)
	}
}

func TestCuratedVillageRecord(t *testing.T) {
	cv, err := NewCuratedVillage("Jharkhand", "East Singhbhum", "Jamshedpur", sampleRecord())
	if err != nil {
		t.Fatal(err)
	}
	rec, err := cv.AssetRecord()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rec, sampleRecord()) {
		t.Fatalf("decoded record differs")
	}

	if _, err := NewCuratedVillage("Jharkhand", "", " ", sampleRecord()); !errors.Is(err, ErrVillageRequired) {
		t.Fatalf("expected ErrVillageRequired, got %v", err)
	}
}
