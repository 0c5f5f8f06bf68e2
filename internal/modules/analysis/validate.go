package analysis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zovida/core/internal/models"
)

// Normalize turns an untrusted parsed object into a well-formed
// AnalysisResult. Only an out-of-enum overallRisk is a hard failure; every
// other required field has a safe default. Coercions that lose information
// are reported as warnings. Unknown top-level keys are preserved, not
// stripped.
func Normalize(payload map[string]json.RawMessage, now time.Time) (*models.AnalysisResult, []string, error) {
	var warnings []string

	risk := decodeString(payload["overallRisk"])
	level := models.RiskLevel(risk)
	if !level.Valid() {
		return nil, warnings, fmt.Errorf("%w: overallRisk %q is not one of safe/caution/danger", ErrValidation, risk)
	}

	result := &models.AnalysisResult{
		OverallRisk:     level,
		Medicines:       []models.Medicine{},
		Interactions:    []models.Interaction{},
		Recommendations: []string{},
	}

	result.ID = decodeString(payload["id"])
	if result.ID == "" {
		result.ID = fmt.Sprintf("scan-%d", now.UnixMilli())
	}

	ts := decodeString(payload["timestamp"])
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		if ts != "" {
			warnings = append(warnings, fmt.Sprintf("timestamp %q is unparseable, synthesized", ts))
		}
		ts = now.UTC().Format(time.RFC3339)
	}
	result.Timestamp = ts

	medicines, w := decodeMedicines(payload["medicines"])
	warnings = append(warnings, w...)
	result.Medicines = medicines

	interactions, w := decodeInteractions(payload["interactions"])
	warnings = append(warnings, w...)
	result.Interactions = interactions

	result.AIExplanation = decodeString(payload["aiExplanation"])

	if raw, ok := payload["recommendations"]; ok {
		var recs []string
		if err := json.Unmarshal(raw, &recs); err != nil {
			warnings = append(warnings, "recommendations is not a list of strings, dropped")
		} else {
			result.Recommendations = recs
		}
	}

	warnings = append(warnings, decodeOptional(payload, "simpleExplanation", &result.SimpleExplanation)...)
	warnings = append(warnings, decodeOptional(payload, "doctorRating", &result.DoctorRating)...)
	warnings = append(warnings, decodeOptional(payload, "safetyTimeline", &result.SafetyTimeline)...)
	warnings = append(warnings, decodeOptional(payload, "sideEffects", &result.SideEffects)...)
	warnings = append(warnings, decodeOptional(payload, "emergencySigns", &result.EmergencySigns)...)
	warnings = append(warnings, decodeOptional(payload, "crossPrescription", &result.CrossPrescription)...)
	warnings = append(warnings, decodeOptional(payload, "isCaregiverMode", &result.IsCaregiverMode)...)
	warnings = append(warnings, decodeOptional(payload, "clinicalStance", &result.ClinicalStance)...)
	warnings = append(warnings, decodeOptional(payload, "lifestyleWarnings", &result.LifestyleWarnings)...)
	warnings = append(warnings, decodeOptional(payload, "ocrConfidence", &result.OCRConfidence)...)
	warnings = append(warnings, decodeOptional(payload, "ocrConfidenceReason", &result.OCRConfidenceReason)...)

	extra := make(map[string]json.RawMessage)
	for key, raw := range payload {
		if _, known := knownKeys[key]; known {
			continue
		}
		extra[key] = raw
	}
	if len(extra) > 0 {
		result.Extra = extra
	}

	return result, warnings, nil
}

var knownKeys = map[string]struct{}{
	"id": {}, "timestamp": {}, "medicines": {}, "overallRisk": {},
	"interactions": {}, "aiExplanation": {}, "simpleExplanation": {},
	"doctorRating": {}, "recommendations": {}, "safetyTimeline": {},
	"sideEffects": {}, "emergencySigns": {}, "crossPrescription": {},
	"isCaregiverMode": {}, "clinicalStance": {}, "lifestyleWarnings": {},
	"ocrConfidence": {}, "ocrConfidenceReason": {},
}

func decodeMedicines(raw json.RawMessage) ([]models.Medicine, []string) {
	entries, warnings := decodeList(raw, "medicines")
	medicines := make([]models.Medicine, 0, len(entries))
	for i, entry := range entries {
		var med models.Medicine
		if err := json.Unmarshal(entry, &med); err != nil {
			warnings = append(warnings, fmt.Sprintf("medicines[%d] is not an object, dropped", i))
			continue
		}
		if med.Name == "" {
			warnings = append(warnings, fmt.Sprintf("medicines[%d] has no name, dropped", i))
			continue
		}
		if med.ID == "" {
			med.ID = fmt.Sprintf("med-%d", i+1)
		}
		if med.Components == nil {
			med.Components = []string{}
		}
		medicines = append(medicines, med)
	}
	return medicines, warnings
}

func decodeInteractions(raw json.RawMessage) ([]models.Interaction, []string) {
	entries, warnings := decodeList(raw, "interactions")
	interactions := make([]models.Interaction, 0, len(entries))
	for i, entry := range entries {
		var inter models.Interaction
		if err := json.Unmarshal(entry, &inter); err != nil {
			warnings = append(warnings, fmt.Sprintf("interactions[%d] is not an object, dropped", i))
			continue
		}
		interactions = append(interactions, inter)
	}
	return interactions, warnings
}

// decodeList coerces a field to a list: absent or non-array values become an
// empty list with a warning so downstream consumers never see a bare object.
func decodeList(raw json.RawMessage, field string) ([]json.RawMessage, []string) {
	if len(raw) == 0 {
		return nil, []string{field + " is absent, defaulted to empty list"}
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, []string{field + " is not a list, defaulted to empty list"}
	}
	return entries, nil
}

func decodeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// decodeOptional decodes a pass-through field when present. An implausible
// shape is dropped with a warning rather than failing the whole record.
func decodeOptional(payload map[string]json.RawMessage, key string, out interface{}) []string {
	raw, ok := payload[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return []string{key + " has an implausible shape, dropped"}
	}
	return nil
}
