package models

import "encoding/json"

// RiskLevel is the overall safety verdict of an analysis.
type RiskLevel string

const (
	RiskSafe    RiskLevel = "safe"
	RiskCaution RiskLevel = "caution"
	RiskDanger  RiskLevel = "danger"
)

// Valid reports whether the risk level is one of the three known values.
func (r RiskLevel) Valid() bool {
	return r == RiskSafe || r == RiskCaution || r == RiskDanger
}

// Medicine is a single medication recognized in an analysis.
type Medicine struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Dosage     string   `json:"dosage"`
	Frequency  string   `json:"frequency"`
	Components []string `json:"components"`
}

// Interaction describes a pairwise drug interaction.
type Interaction struct {
	Drug1          string `json:"drug1"`
	Drug2          string `json:"drug2"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// DoctorRating is an opaque aggregate of reviewer feedback. It is never
// recomputed locally.
type DoctorRating struct {
	TotalReviews   int     `json:"totalReviews"`
	AverageScore   float64 `json:"averageScore"`
	SafeRatings    int     `json:"safeRatings"`
	CautionRatings int     `json:"cautionRatings"`
	DangerRatings  int     `json:"dangerRatings"`
}

// SafetyTimeline tells the user how urgently to act on the analysis.
type SafetyTimeline struct {
	Urgency string `json:"urgency"` // Immediate | Soon | Routine
	Message string `json:"message"`
}

// CrossPrescription flags medications that appear to come from different
// prescribers.
type CrossPrescription struct {
	Detected    bool   `json:"detected"`
	SourceCount int    `json:"sourceCount"`
	Message     string `json:"message"`
}

// ClinicalStance summarizes how clinicians usually read this interaction class.
type ClinicalStance struct {
	Interpretation string `json:"interpretation"` // Review | Monitor | Caution
	Stance         string `json:"stance"`
	InsiderProcess string `json:"insiderProcess"`
}

// LifestyleWarning is a substance/activity warning attached to an analysis.
type LifestyleWarning struct {
	Type    string `json:"type"` // alcohol | food | sun | exercise
	Warning string `json:"warning"`
	Impact  string `json:"impact"`
}

// AnalysisResult is the normalized record describing one medication-safety
// analysis. The wire format is fixed by the AI contract (camelCase keys).
// Unknown top-level keys from richer AI payloads are preserved in Extra and
// round-trip through persistence without loss.
type AnalysisResult struct {
	ID                  string             `json:"id"`
	Timestamp           string             `json:"timestamp"`
	Medicines           []Medicine         `json:"medicines"`
	OverallRisk         RiskLevel          `json:"overallRisk"`
	Interactions        []Interaction      `json:"interactions"`
	AIExplanation       string             `json:"aiExplanation"`
	SimpleExplanation   string             `json:"simpleExplanation,omitempty"`
	DoctorRating        *DoctorRating      `json:"doctorRating,omitempty"`
	Recommendations     []string           `json:"recommendations"`
	SafetyTimeline      *SafetyTimeline    `json:"safetyTimeline,omitempty"`
	SideEffects         []string           `json:"sideEffects,omitempty"`
	EmergencySigns      []string           `json:"emergencySigns,omitempty"`
	CrossPrescription   *CrossPrescription `json:"crossPrescription,omitempty"`
	IsCaregiverMode     bool               `json:"isCaregiverMode"`
	ClinicalStance      *ClinicalStance    `json:"clinicalStance,omitempty"`
	LifestyleWarnings   []LifestyleWarning `json:"lifestyleWarnings,omitempty"`
	OCRConfidence       string             `json:"ocrConfidence,omitempty"`
	OCRConfidenceReason string             `json:"ocrConfidenceReason,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Explanation returns the simplified paraphrase when present, falling back to
// the full AI explanation.
func (r *AnalysisResult) Explanation() string {
	if r.SimpleExplanation != "" {
		return r.SimpleExplanation
	}
	return r.AIExplanation
}

// analysisResultAlias breaks the MarshalJSON/UnmarshalJSON recursion.
type analysisResultAlias AnalysisResult

var knownAnalysisKeys = map[string]struct{}{
	"id": {}, "timestamp": {}, "medicines": {}, "overallRisk": {},
	"interactions": {}, "aiExplanation": {}, "simpleExplanation": {},
	"doctorRating": {}, "recommendations": {}, "safetyTimeline": {},
	"sideEffects": {}, "emergencySigns": {}, "crossPrescription": {},
	"isCaregiverMode": {}, "clinicalStance": {}, "lifestyleWarnings": {},
	"ocrConfidence": {}, "ocrConfidenceReason": {},
}

func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*analysisResultAlias)(r)); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for key := range all {
		if _, known := knownAnalysisKeys[key]; known {
			delete(all, key)
		}
	}
	if len(all) > 0 {
		r.Extra = all
	}
	return nil
}

func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(analysisResultAlias(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, raw := range r.Extra {
		if _, known := knownAnalysisKeys[key]; known {
			continue
		}
		merged[key] = raw
	}
	return json.Marshal(merged)
}
