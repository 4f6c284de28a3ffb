package view

import (
	"strconv"
	"strings"

	"github.com/nao1215/opsdash/internal/model"
)

// SuccessClass grades a success probability (0..100).
func SuccessClass(p float64) string {
	switch {
	case p >= 70:
		return "success-high"
	case p >= 50:
		return "success-medium"
	default:
		return "success-low"
	}
}

// RiskClass maps a risk level such as "High" to "risk-high". Unknown
// levels get no class.
func RiskClass(level string) string {
	switch l := strings.ToLower(level); l {
	case "low", "medium", "high", "critical":
		return "risk-" + l
	default:
		return ""
	}
}

// OptionView is one tactical option card.
type OptionView struct {
	Heading      string
	Name         string
	Description  string
	Success      string
	SuccessClass string
	Confidence   string
	Risk         string
	RiskClass    string
	Casualties   int
	Time         string
	Resources    string
}

// AnalysisView is the analysis result panel.
type AnalysisView struct {
	Options      []OptionView
	Uncertainty  string
	IntelQuality string
	Visibility   string
	ForceRatio   string
	Assessment   string
	Action       string
	Rationale    string
	Confidence   string
}

// NewAnalysisView builds the result panel.
func NewAnalysisView(r model.AnalysisResult) AnalysisView {
	v := AnalysisView{
		Uncertainty:  FormatNumber(r.FogOfWar.UncertaintyFactor) + "%",
		IntelQuality: r.FogOfWar.IntelligenceQuality,
		Visibility:   r.FogOfWar.VisibilityConditions,
		ForceRatio:   r.ForceAnalysis.ForceRatio,
		Assessment:   r.ForceAnalysis.Assessment,
		Action:       r.CommanderRecommendation.RecommendedAction,
		Rationale:    r.CommanderRecommendation.Rationale,
		Confidence:   r.CommanderRecommendation.Confidence,
	}
	// Options are numbered by position; the server's rank field is ignored.
	for i, o := range r.TacticalOptions {
		v.Options = append(v.Options, OptionView{
			Heading:      "OPTION #" + strconv.Itoa(i+1),
			Name:         o.Name,
			Description:  o.Description,
			Success:      FormatNumber(o.SuccessProbability) + "%",
			SuccessClass: SuccessClass(o.SuccessProbability),
			Confidence:   FormatNumber(o.ConfidenceScore) + "%",
			Risk:         o.RiskLevel,
			RiskClass:    RiskClass(o.RiskLevel),
			Casualties:   o.ExpectedCasualties,
			Time:         o.TimeRequired,
			Resources:    o.ResourceRequirement,
		})
	}
	return v
}

// AnalysisError is the inline error under the form.
func AnalysisError(msg string) Status {
	return ErrorStatus("⚠ ERROR: " + msg)
}
