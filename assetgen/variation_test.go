package assetgen

import (
	"testing"
	"time"
)

func TestApplyLiveVariationSharedFactor(t *testing.T) {
	base, _ := BuiltinCatalog().Lookup("Chaibasa")
	rng := NewSeededSource(5)
	now := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)

	for i := 0; i < 500; i++ {
		out := ApplyLiveVariation(base.Record, rng, now)
		orig := areas(base.Record.Forest.AreaHectares, base.Record.Water.AreaHectares,
			base.Record.Agriculture.AreaHectares, base.Record.Settlement.AreaHectares, base.Record.Infrastructure.AreaHectares)
		got := areas(out.Forest.AreaHectares, out.Water.AreaHectares,
			out.Agriculture.AreaHectares, out.Settlement.AreaHectares, out.Infrastructure.AreaHectares)

		for a := range orig {
			lo := float64(orig[a]) * 0.95
			hi := float64(orig[a]) * 1.05
			if float64(got[a]) < lo-0.5 || float64(got[a]) > hi+0.5 {
				t.Fatalf("area %d = %d outside ±5%% of %d", a, got[a], orig[a])
			}
			for b := range orig {
				// each rounding moves a value by at most 0.5
				cross := got[a]*orig[b] - got[b]*orig[a]
				if cross < 0 {
					cross = -cross
				}
				if float64(cross) > 0.5*float64(orig[a]+orig[b]) {
					t.Fatalf("ratio of areas %d/%d not preserved: %v -> %v", a, b, orig, got)
				}
			}
		}
		if out.DataSource != LiveDataSource {
			t.Fatalf("data source = %q", out.DataSource)
		}
		if out.LastUpdated != "1/2/2025, 3:04:05 PM" {
			t.Fatalf("last updated = %q", out.LastUpdated)
		}
	}
}

func TestApplyLiveVariationDoesNotMutateInput(t *testing.T) {
	base, _ := BuiltinCatalog().Lookup("Potka")
	before := base.Record.Clone()
	out := ApplyLiveVariation(base.Record, fixedSource{f: 0.99}, time.Now())
	out.Tribal.Groups[0] = "changed"
	if base.Record.Forest.AreaHectares != before.Forest.AreaHectares || base.Record.Tribal.Groups[0] != "Ho" {
		t.Fatalf("input record mutated")
	}
	if base.Record.DataSource != "" {
		t.Fatalf("input data source set")
	}
}

func TestScaleAreasRounding(t *testing.T) {
	base, _ := BuiltinCatalog().Lookup("Jamshedpur")
	out := ScaleAreas(base.Record, 1.04, time.Now())
	if out.Forest.AreaHectares != 1300 {
		t.Fatalf("forest = %d", out.Forest.AreaHectares)
	}
	if out.Water.AreaHectares != 187 {
		t.Fatalf("water = %d", out.Water.AreaHectares)
	}
	if out.Water.Sources != 12 || out.Forest.Coverage != 45 {
		t.Fatalf("non-area fields changed")
	}
}

func TestVariationFactorRange(t *testing.T) {
	rng := NewSeededSource(11)
	for i := 0; i < 10000; i++ {
		f := VariationFactor(rng)
		if f < 0.95 || f >= 1.05 {
			t.Fatalf("factor %v out of range", f)
		}
	}
}

func areas(v ...int) []int { return v }
