// Package normalize turns the heterogeneous input shapes the API accepts
// (nested, flat, or free text) into a canonical models.NormalizedInput.
// Processing never fails outright: problems are accumulated into a
// validation report the caller inspects after the call. Only a missing
// or unusable fasting glucose value blocks plan generation.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"chroniccare/internal/models"
)

// Report carries the validation side channel of one Process call.
// Errors block plan generation; warnings do not.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Handler normalizes one raw input at a time. It is cheap to construct;
// create a fresh one per request rather than sharing.
type Handler struct {
	errors   []string
	warnings []string
}

func NewHandler() *Handler {
	return &Handler{}
}

// bucketRule routes one flat-input key into a section of the canonical
// record. Rules are evaluated in order; the first match wins.
type bucketRule struct {
	match  func(key string) bool
	bucket string // "profile", "health" or "preferences"
}

var profileKeys = map[string]bool{
	"age": true, "diet_type": true, "region": true,
	"activity_level": true, "gender": true, "height": true, "weight": true,
}

var preferenceKeys = map[string]bool{
	"allergies": true, "dislikes": true, "liked_foods": true,
	"meal_timing_preference": true,
}

var bucketRules = []bucketRule{
	{func(k string) bool { return profileKeys[k] }, "profile"},
	{func(k string) bool {
		l := strings.ToLower(k)
		return strings.Contains(l, "glucose") || strings.Contains(l, "sugar") || strings.Contains(l, "hba1c")
	}, "health"},
	{func(k string) bool { return preferenceKeys[k] }, "preferences"},
	// Everything else lands in the profile, matching how callers tend to
	// mix demographic extras into flat payloads.
	{func(k string) bool { return true }, "profile"},
}

// Process normalizes raw input of any supported shape. It resets the
// validation report, so call Report right after.
func (h *Handler) Process(raw map[string]any) models.NormalizedInput {
	h.errors = nil
	h.warnings = nil

	profile := map[string]any{}
	health := map[string]any{}
	prefs := map[string]any{}

	if hasKey(raw, "user_profile") && hasKey(raw, "health_data") {
		// Already structured.
		profile = asMap(raw["user_profile"])
		health = asMap(raw["health_data"])
		prefs = asMap(raw["preferences"])
	} else {
		// Flat payload: route every key through the ordered rule table.
		for key, value := range raw {
			switch bucketFor(key) {
			case "health":
				health[key] = value
			case "preferences":
				prefs[key] = value
			default:
				profile[key] = value
			}
		}
	}

	return models.NormalizedInput{
		UserProfile: h.processProfile(profile),
		HealthData:  h.processHealth(health),
		Preferences: h.processPreferences(prefs),
	}
}

// Report returns the outcome of the most recent Process call.
func (h *Handler) Report() Report {
	return Report{
		Valid:    len(h.errors) == 0,
		Errors:   append([]string{}, h.errors...),
		Warnings: append([]string{}, h.warnings...),
	}
}

func bucketFor(key string) string {
	for _, rule := range bucketRules {
		if rule.match(key) {
			return rule.bucket
		}
	}
	return "profile"
}

/* ====================================================================
                        User profile coercion
==================================================================== */

func (h *Handler) processProfile(raw map[string]any) models.UserProfile {
	p := models.UserProfile{}

	// Age: invalid falls back to the default, out-of-range clamps.
	if v, ok := raw["age"]; ok && v != nil {
		age, err := toInt(v)
		switch {
		case err != nil:
			h.warnings = append(h.warnings, fmt.Sprintf("Invalid age %q, using default %d", fmt.Sprint(v), models.DefaultAge))
			p.Age = models.DefaultAge
		case age < 18 || age > 100:
			h.warnings = append(h.warnings, fmt.Sprintf("Age %d outside typical range (18-100)", age))
			p.Age = clampInt(age, 18, 100)
		default:
			p.Age = age
		}
	} else {
		h.warnings = append(h.warnings, fmt.Sprintf("Age not provided, using default %d", models.DefaultAge))
		p.Age = models.DefaultAge
	}

	p.DietType = h.coerceEnum("diet_type", lowerString(raw["diet_type"]), models.DefaultDietType, h.coerceDiet)
	p.Region = h.coerceEnum("region", lowerString(raw["region"]), models.DefaultRegion, h.coerceRegion)
	p.ActivityLevel = h.coerceEnum("activity_level", lowerString(raw["activity_level"]), models.DefaultActivityLevel, h.coerceActivity)

	if g := lowerString(raw["gender"]); g != "" {
		p.Gender = g
	}
	if v, ok := raw["height"]; ok {
		if f, err := toFloat(v); err == nil {
			p.Height = f
		}
	}
	if v, ok := raw["weight"]; ok {
		if f, err := toFloat(v); err == nil {
			p.Weight = f
		}
	}

	return p
}

// coerceEnum handles the absent-value case uniformly, then hands
// non-empty values to the field's own coercion logic.
func (h *Handler) coerceEnum(field, value, fallback string, coerce func(string) string) string {
	if value == "" {
		h.warnings = append(h.warnings, fmt.Sprintf("No %s provided, using default %s", field, fallback))
		return fallback
	}
	return coerce(value)
}

func (h *Handler) coerceDiet(diet string) string {
	for _, known := range models.DietTypes {
		if diet == known {
			return diet
		}
	}

	// Keyword inference for descriptive values like "plant-based".
	switch {
	case strings.Contains(diet, "veg") || strings.Contains(diet, "plant"):
		if strings.Contains(diet, "egg") || strings.Contains(diet, "dairy") {
			return "vegetarian"
		}
		return "vegan"
	case strings.Contains(diet, "fish") || strings.Contains(diet, "seafood"):
		return "pescatarian"
	}

	h.warnings = append(h.warnings, fmt.Sprintf("Unknown diet type %q, using %s", diet, models.DefaultDietType))
	return models.DefaultDietType
}

func (h *Handler) coerceRegion(region string) string {
	// Substring match lets "north indian" resolve to "indian".
	for _, known := range models.Regions {
		if strings.Contains(region, known) || strings.Contains(known, region) {
			return known
		}
	}

	h.warnings = append(h.warnings, fmt.Sprintf("Unknown region %q, using %s", region, models.DefaultRegion))
	return models.DefaultRegion
}

func (h *Handler) coerceActivity(activity string) string {
	for _, known := range models.ActivityLevels {
		if activity == known {
			return activity
		}
	}

	// Infer from descriptive text ("I mostly sit at a desk", "3-4 times a week").
	switch {
	case containsAny(activity, "none", "never", "rarely", "desk"):
		return "sedentary"
	case containsAny(activity, "little", "minimal", "1-2"):
		return "low"
	case containsAny(activity, "regular", "3-4", "moderate"):
		return "moderate"
	case containsAny(activity, "active", "5-6", "daily"):
		return "high"
	}

	h.warnings = append(h.warnings, fmt.Sprintf("Unknown activity level %q, using %s", activity, models.DefaultActivityLevel))
	return models.DefaultActivityLevel
}

/* ====================================================================
                        Health data coercion
==================================================================== */

// Synonym lists for the glucose fields. First match wins; later synonyms
// are ignored once one is found.
var (
	fastingKeys  = []string{"avg_fasting_glucose", "fasting_glucose", "fasting_sugar", "morning_glucose"}
	postMealKeys = []string{"avg_post_meal_glucose", "post_meal_glucose", "postprandial_glucose", "after_meal_glucose"}
)

const (
	glucoseMin = 40
	glucoseMax = 600
	hba1cMin   = 4
	hba1cMax   = 15
)

func (h *Handler) processHealth(raw map[string]any) models.HealthData {
	d := models.HealthData{}

	// Fasting glucose is the single hard validation gate.
	if v, found := firstMatch(raw, fastingKeys); found {
		f, err := toFloat(v)
		switch {
		case err != nil:
			h.errors = append(h.errors, fmt.Sprintf("Invalid fasting glucose value: %v", v))
		case f <= glucoseMin || f >= glucoseMax:
			h.errors = append(h.errors, fmt.Sprintf("Fasting glucose %.1f outside reasonable range", f))
		default:
			d.AvgFastingGlucose = f
		}
	}

	if v, found := firstMatch(raw, postMealKeys); found {
		f, err := toFloat(v)
		switch {
		case err != nil:
			h.warnings = append(h.warnings, fmt.Sprintf("Invalid post-meal glucose value: %v", v))
		case f > glucoseMin && f < glucoseMax:
			d.AvgPostMealGlucose = f
		}
	}

	if v, ok := raw["hba1c"]; ok {
		f, err := toFloat(v)
		switch {
		case err != nil:
			h.warnings = append(h.warnings, fmt.Sprintf("Invalid HbA1c value: %v", v))
		case f > hba1cMin && f < hba1cMax:
			d.HbA1c = f
		}
	}

	// A raw reading series can stand in for the missing average.
	if v, ok := raw["glucose_readings"]; ok {
		if readings := toFloatSlice(v); len(readings) > 0 {
			d.GlucoseReadings = readings
			if d.AvgFastingGlucose == 0 {
				var sum float64
				for _, r := range readings {
					sum += r
				}
				avg := sum / float64(len(readings))
				d.AvgFastingGlucose = avg
				h.warnings = append(h.warnings, fmt.Sprintf("Calculated average glucose from readings: %.1f", avg))
			}
		}
	}

	if d.AvgFastingGlucose == 0 {
		h.errors = append(h.errors, "Fasting glucose data required")
	}

	d.Conditions = toStringSlice(raw["conditions"])
	d.Medications = toStringSlice(raw["medications"])

	return d
}

/* ====================================================================
                        Preference coercion
==================================================================== */

func (h *Handler) processPreferences(raw map[string]any) models.Preferences {
	return models.Preferences{
		Allergies:            toLowerList(raw["allergies"]),
		Dislikes:             toLowerList(raw["dislikes"]),
		LikedFoods:           toLowerList(raw["liked_foods"]),
		MealTimingPreference: lowerString(raw["meal_timing_preference"]),
	}
}

// toLowerList accepts either a sequence or a comma-separated string and
// returns trimmed, lowercase, non-empty entries.
func toLowerList(v any) []string {
	var items []string
	switch t := v.(type) {
	case string:
		items = strings.Split(t, ",")
	case []string:
		items = t
	case []any:
		for _, e := range t {
			items = append(items, fmt.Sprint(e))
		}
	default:
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

/* ====================================================================
                        Conversion helpers
==================================================================== */

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func firstMatch(m map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lowerString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return strings.ToLower(fmt.Sprint(v))
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	}
	return 0, fmt.Errorf("cannot convert %T to int", v)
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	}
	return 0, fmt.Errorf("cannot convert %T to float", v)
}

func toFloatSlice(v any) []float64 {
	items, ok := v.([]any)
	if !ok {
		if fs, ok := v.([]float64); ok {
			return fs
		}
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		if f, err := toFloat(item); err == nil {
			out = append(out, f)
		}
	}
	return out
}

func toStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, fmt.Sprint(e))
		}
		return out
	}
	return nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
