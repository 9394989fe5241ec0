package domain

// PlanEntry is one day of a weekly training plan.
type PlanEntry struct {
	Day       string   `json:"day" validate:"required"`
	Focus     string   `json:"focus" validate:"required"`
	Exercises []string `json:"exercises" validate:"required"`
}

// AdviceRecommendation is a single goal-oriented block of training advice.
type AdviceRecommendation struct {
	Goal                string      `json:"goal" validate:"required"`
	Rationale           string      `json:"rationale" validate:"required"`
	WeeklyPlan          []PlanEntry `json:"weeklyPlan" validate:"required,dive"`
	RecoveryChecklist   []string    `json:"recoveryChecklist" validate:"required"`
	MonitoringChecklist []string    `json:"monitoringChecklist" validate:"required"`
}

// AdviceDocument is the structured training advice derived from workout history.
type AdviceDocument struct {
	Summary         string                 `json:"summary" validate:"required"`
	AnalyzedPeriod  string                 `json:"analyzedPeriod"`
	Strengths       []string               `json:"strengths" validate:"required"`
	Risks           []string               `json:"risks" validate:"required"`
	Recommendations []AdviceRecommendation `json:"recommendations" validate:"required,dive"`
}

// DegradedAdvice returns a well-formed document with empty lists and the
// given explanation as its summary.
func DegradedAdvice(summary string) AdviceDocument {
	return AdviceDocument{
		Summary:         summary,
		AnalyzedPeriod:  "",
		Strengths:       []string{},
		Risks:           []string{},
		Recommendations: []AdviceRecommendation{},
	}
}

// EquipmentClassification is what the image classifier reports for a photo.
type EquipmentClassification struct {
	Label      string                 `json:"label"`
	Category   string                 `json:"category,omitempty"`
	Brand      string                 `json:"brand,omitempty"`
	Confidence float64                `json:"confidence"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}
