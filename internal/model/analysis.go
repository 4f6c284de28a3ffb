package model

import (
	"strconv"
	"strings"
)

// Force ranges accepted by the analysis form.
const (
	MinFriendlyForces = 1
	MaxFriendlyForces = 10000
	MinEnemyForces    = 0
	MaxEnemyForces    = 10000
)

// AnalysisRequest is the battlefield scenario submitted for analysis.
// Numeric fields travel as strings, exactly as the form holds them.
type AnalysisRequest struct {
	FriendlyForces   string `json:"friendly_forces"`
	EnemyForces      string `json:"enemy_forces"`
	Terrain          string `json:"terrain"`
	Weather          string `json:"weather"`
	Visibility       string `json:"visibility"`
	IntelConfidence  string `json:"intel_confidence"`
	MissionType      string `json:"mission_type"`
	TimeConstraint   string `json:"time_constraint"`
	CivilianPresence string `json:"civilian_presence"`
}

// Fields returns the form as a flat field map, keyed by JSON name.
// CivilianPresence is left out because the form store never saves it.
func (r AnalysisRequest) Fields() map[string]string {
	return map[string]string{
		"friendly_forces":  r.FriendlyForces,
		"enemy_forces":     r.EnemyForces,
		"terrain":          r.Terrain,
		"weather":          r.Weather,
		"visibility":       r.Visibility,
		"intel_confidence": r.IntelConfidence,
		"mission_type":     r.MissionType,
		"time_constraint":  r.TimeConstraint,
	}
}

// ApplyFields copies non-empty values from a field map into the request.
func (r *AnalysisRequest) ApplyFields(fields map[string]string) {
	set := func(dst *string, key string) {
		if v := fields[key]; v != "" {
			*dst = v
		}
	}
	set(&r.FriendlyForces, "friendly_forces")
	set(&r.EnemyForces, "enemy_forces")
	set(&r.Terrain, "terrain")
	set(&r.Weather, "weather")
	set(&r.Visibility, "visibility")
	set(&r.IntelConfidence, "intel_confidence")
	set(&r.MissionType, "mission_type")
	set(&r.TimeConstraint, "time_constraint")
}

// InvalidFields returns the JSON names of fields that are missing or out
// of range, in form order. An empty result means the request can be sent.
func (r AnalysisRequest) InvalidFields() []string {
	var bad []string
	required := []struct {
		name  string
		value string
	}{
		{"friendly_forces", r.FriendlyForces},
		{"enemy_forces", r.EnemyForces},
		{"terrain", r.Terrain},
		{"weather", r.Weather},
		{"mission_type", r.MissionType},
		{"time_constraint", r.TimeConstraint},
		{"civilian_presence", r.CivilianPresence},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			bad = append(bad, f.name)
			continue
		}
		switch f.name {
		case "friendly_forces":
			if !inRange(f.value, MinFriendlyForces, MaxFriendlyForces) {
				bad = append(bad, f.name)
			}
		case "enemy_forces":
			if !inRange(f.value, MinEnemyForces, MaxEnemyForces) {
				bad = append(bad, f.name)
			}
		}
	}
	return bad
}

func inRange(s string, lo, hi int) bool {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil && n >= lo && n <= hi
}

// TacticalOption is one ranked course of action.
type TacticalOption struct {
	Rank                int     `json:"rank"`
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	SuccessProbability  float64 `json:"success_probability"`
	ConfidenceScore     float64 `json:"confidence_score"`
	RiskLevel           string  `json:"risk_level"`
	ExpectedCasualties  int     `json:"expected_casualties"`
	TimeRequired        string  `json:"time_required"`
	ResourceRequirement string  `json:"resource_requirement"`
}

// FogOfWar summarises uncertainty in the scenario.
type FogOfWar struct {
	UncertaintyFactor    float64 `json:"uncertainty_factor"`
	IntelligenceQuality  string  `json:"intelligence_quality"`
	VisibilityConditions string  `json:"visibility_conditions"`
}

// ForceAnalysis compares friendly and enemy strength.
type ForceAnalysis struct {
	ForceRatio string `json:"force_ratio"`
	Assessment string `json:"assessment"`
}

// Recommendation is the commander's recommended action.
type Recommendation struct {
	RecommendedAction string `json:"recommended_action"`
	Rationale         string `json:"rationale"`
	Confidence        string `json:"confidence"`
}

// AnalysisResult is the reply of the analysis endpoint.
type AnalysisResult struct {
	Envelope
	TacticalOptions         []TacticalOption `json:"tactical_options"`
	FogOfWar                FogOfWar         `json:"fog_of_war"`
	ForceAnalysis           ForceAnalysis    `json:"force_analysis"`
	CommanderRecommendation Recommendation   `json:"commander_recommendation"`
}
