package assetgen

// Factors scales the synthesized areas of a state. Minerals is carried for
// completeness; no synthesized field uses it.
type Factors struct {
	Forest      float64 `json:"forest"`
	Water       float64 `json:"water"`
	Agriculture float64 `json:"agriculture"`
	Minerals    float64 `json:"minerals"`
}

var defaultFactors = Factors{Forest: 1.0, Water: 1.0, Agriculture: 1.0, Minerals: 1.0}

var supportedStates = []string{
	"Jharkhand",
	"Telangana",
	"Tripura",
	"Madhya Pradesh",
	"Odisha",
}

var stateFactors = map[string]Factors{
	"Jharkhand":      {Forest: 1.2, Water: 0.8, Agriculture: 1.0, Minerals: 1.5},
	"Telangana":      {Forest: 0.9, Water: 1.1, Agriculture: 1.3, Minerals: 1.0},
	"Tripura":        {Forest: 1.4, Water: 1.2, Agriculture: 0.9, Minerals: 0.5},
	"Madhya Pradesh": {Forest: 1.1, Water: 0.9, Agriculture: 1.2, Minerals: 0.8},
	"Odisha":         {Forest: 1.3, Water: 1.0, Agriculture: 1.1, Minerals: 1.3},
}

func SupportedStates() []string {
	return append([]string(nil), supportedStates...)
}

// StateFactors returns the weighting of state, or all 1.0 for an unknown state.
func StateFactors(state string) Factors {
	if f, ok := stateFactors[state]; ok {
		return f
	}
	return defaultFactors
}
