// Package safety classifies glucose readings against ADA thresholds and
// wraps every outgoing payload with the mandatory disclaimer. Escalation
// is an output field, not an error: an urgent level never blocks plan
// generation, it only annotates the response for the caller to surface.
package safety

import (
	"strings"

	"chroniccare/internal/models"
)

// Level is the safety classification of a set of glucose readings.
// Ordering matters: normal < caution < urgent, and the highest severity
// observed wins.
type Level string

const (
	LevelNormal  Level = "normal"
	LevelCaution Level = "caution"
	LevelUrgent  Level = "urgent"
)

// ADA-based thresholds, mg/dL. These are the hardcoded constants the
// planners branch on; guideline retrieval never overrides them.
const (
	FastingLow       = 70
	FastingTargetMin = 80
	FastingTargetMax = 130
	PostMealTarget   = 180
	RedFlag          = 250
)

// Disclaimer is attached verbatim to every output, including error
// responses. It must never be omitted.
const Disclaimer = "IMPORTANT DISCLAIMER: This is NOT medical advice. " +
	"This system provides educational information based on public clinical guidelines. " +
	"Always consult with your healthcare provider before making any changes to your " +
	"diabetes management plan. In case of emergency, contact your doctor or emergency services immediately."

const generatedNote = "This plan is generated based on clinical guidelines and your reported data."

// Result of one glucose safety check.
type Result struct {
	Level              Level    `json:"level"`
	Flags              []string `json:"flags"`
	EscalationRequired bool     `json:"escalation_required"`
	Message            string   `json:"message"`
}

// CheckGlucose runs the deterministic threshold ladder. Each check is
// independent; a later check may raise the severity but never lowers it.
func CheckGlucose(health models.HealthData) Result {
	result := Result{
		Level: LevelNormal,
		Flags: []string{},
	}

	fasting := health.AvgFastingGlucose
	postMeal := health.AvgPostMealGlucose

	if fasting > 0 {
		switch {
		case fasting >= RedFlag:
			result.Level = LevelUrgent
			result.EscalationRequired = true
			result.Flags = append(result.Flags, "CRITICAL: Fasting glucose extremely high")
			result.Message = "URGENT: Your average fasting glucose is critically high (>=250 mg/dL). " +
				"Contact your healthcare provider IMMEDIATELY."

		case fasting < FastingLow:
			result.Level = LevelUrgent
			result.EscalationRequired = true
			result.Flags = append(result.Flags, "CRITICAL: Hypoglycemia risk")
			result.Message = "URGENT: Your average fasting glucose is too low (<70 mg/dL). " +
				"This indicates hypoglycemia risk. Contact your healthcare provider."

		case fasting > FastingTargetMax:
			result.Level = LevelCaution
			result.Flags = append(result.Flags, "Fasting glucose above target range")
			result.Message = "Your fasting glucose is above the ADA target range (80-130 mg/dL). " +
				"Consider discussing this with your healthcare provider."
		}
	}

	if postMeal > 0 {
		switch {
		case postMeal >= RedFlag:
			result.Level = LevelUrgent
			result.EscalationRequired = true
			result.Flags = append(result.Flags, "CRITICAL: Post-meal glucose extremely high")

		case postMeal > PostMealTarget:
			// Caution only; never downgrade an existing urgent.
			if result.Level != LevelUrgent {
				result.Level = LevelCaution
			}
			result.Flags = append(result.Flags, "Post-meal glucose above target")
		}
	}

	return result
}

// SafeResponse is the outermost payload shape of every generated plan.
type SafeResponse struct {
	Safety      Result `json:"safety"`
	Plan        any    `json:"plan"`
	Disclaimer  string `json:"disclaimer"`
	GeneratedAt string `json:"generated_at"`
}

// WrapResponse attaches the safety result and the mandatory disclaimer to
// a plan. It works for every plan shape, error payloads included.
func WrapResponse(plan any, check Result) SafeResponse {
	return SafeResponse{
		Safety:      check,
		Plan:        plan,
		Disclaimer:  Disclaimer,
		GeneratedAt: generatedNote,
	}
}

var medicationKeywords = []string{
	"metformin", "insulin", "medication", "drug", "prescription",
	"dose", "dosage", "medicine", "pill", "tablet",
}

// MentionsMedication reports whether text contains medication-related
// terms. LLM-generated explanations are screened with this before being
// returned; the rule-based planners never produce such terms.
func MentionsMedication(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range medicationKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
