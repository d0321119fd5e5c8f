package reports

import "github.com/fra-atlas/asset_backend/models"

const (
	RecommendReforestation   = "Implement reforestation programs to improve forest density"
	RecommendWaterTreatment  = "Enhance water treatment and conservation measures"
	RecommendModernFarming   = "Introduce modern farming techniques and irrigation systems"
	RecommendInfrastructure  = "Upgrade infrastructure facilities for better living conditions"
	RecommendTribalRights    = "Expedite tribal land rights recognition process"
	RecommendSatelliteWatch  = "Regular monitoring through satellite imagery analysis"
	RecommendCommunityEngage = "Community engagement in sustainable resource management"
)

type recommendationRule struct {
	applies func(models.AssetRecord) bool
	text    string
}

// Rules are checked in order; each one only appends.
var recommendationRules = []recommendationRule{
	{func(r models.AssetRecord) bool { return r.Forest.Quality == models.ForestQualitySparse }, RecommendReforestation},
	{func(r models.AssetRecord) bool { return r.Water.Quality == models.WaterQualityFair }, RecommendWaterTreatment},
	{func(r models.AssetRecord) bool { return r.Agriculture.Productivity == models.ProductivityLow }, RecommendModernFarming},
	{func(r models.AssetRecord) bool {
		return r.Settlement.Infrastructure == models.SettlementInfrastructureBasic
	}, RecommendInfrastructure},
	{func(r models.AssetRecord) bool { return r.Tribal.Rights == models.RightsStatusPending }, RecommendTribalRights},
}

// Recommendations returns the matching rule texts followed by the two general items.
func Recommendations(rec models.AssetRecord) []string {
	out := make([]string, 0, len(recommendationRules)+2)
	for _, rule := range recommendationRules {
		if rule.applies(rec) {
			out = append(out, rule.text)
		}
	}
	return append(out, RecommendSatelliteWatch, RecommendCommunityEngage)
}
