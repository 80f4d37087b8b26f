package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"chroniccare/internal/models"
)

// Free-text extraction patterns. Age accepts "52 years old", "52 yrs old",
// "52 yo". Glucose accepts the phrasings people actually type: "glucose is
// usually around 155", "fasting sugar: 145", "glucose of 160".
var (
	agePattern = regexp.MustCompile(`(\d{2,3})\s*(?:years?\s*old|yrs?\s*old|yo|year)`)

	glucosePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:fasting\s+)?glucose\s+is\s+(?:usually\s+)?(?:around\s+)?(\d{2,3})`),
		regexp.MustCompile(`(?:fasting\s+)?glucose[:\s]+(\d{2,3})`),
		regexp.MustCompile(`(?:fasting\s+)?sugar\s+is\s+(?:usually\s+)?(?:around\s+)?(\d{2,3})`),
		regexp.MustCompile(`my\s+(?:fasting\s+)?(?:glucose|sugar)\s+(?:is\s+)?(\d{2,3})`),
		regexp.MustCompile(`glucose\s+of\s+(\d{2,3})`),
	}
)

// ParseText extracts what it can from a natural-language description and
// feeds the result back through the structured path, so all the usual
// defaulting and validation applies.
func (h *Handler) ParseText(text string) models.NormalizedInput {
	lower := strings.ToLower(text)

	profile := map[string]any{}
	health := map[string]any{}

	if m := agePattern.FindStringSubmatch(lower); m != nil {
		if age, err := strconv.Atoi(m[1]); err == nil {
			profile["age"] = age
		}
	}

	for _, diet := range models.DietTypes {
		if strings.Contains(lower, diet) {
			profile["diet_type"] = diet
			break
		}
	}

	for _, region := range models.Regions {
		if strings.Contains(lower, region) || strings.Contains(lower, strings.ReplaceAll(region, "_", " ")) {
			profile["region"] = region
			break
		}
	}

	for _, pattern := range glucosePatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			if glucose, err := strconv.Atoi(m[1]); err == nil {
				health["avg_fasting_glucose"] = glucose
			}
			break
		}
	}

	return h.Process(map[string]any{
		"user_profile": profile,
		"health_data":  health,
		"preferences":  map[string]any{},
	})
}
