// Package models holds the canonical domain records shared by the
// normalizer, safety checker, retriever and planners. These are pure
// data types: nothing here is mutated after construction, each request
// builds a fresh set.
package models

// Supported enum values. Unrecognized input falls back to the defaults
// below rather than failing (see internal/normalize).
var (
	DietTypes      = []string{"vegan", "vegetarian", "pescatarian", "omnivore", "keto", "paleo", "mediterranean"}
	Regions        = []string{"indian", "western", "asian", "mediterranean", "middle_eastern", "latin_american", "african"}
	ActivityLevels = []string{"sedentary", "low", "moderate", "high", "very_high"}
)

const (
	DefaultAge           = 45
	DefaultDietType      = "omnivore"
	DefaultRegion        = "western"
	DefaultActivityLevel = "low"
)

// UserProfile describes the patient as far as planning is concerned.
type UserProfile struct {
	Age           int    `json:"age"`
	DietType      string `json:"diet_type"`
	Region        string `json:"region"`
	ActivityLevel string `json:"activity_level"`

	// Optional pass-through demographics, kept when provided.
	Gender string  `json:"gender,omitempty"`
	Height float64 `json:"height,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

// HealthData carries the glucose metrics the planners branch on.
// AvgFastingGlucose is the single required field of the whole input;
// zero-valued optional fields mean "not provided".
type HealthData struct {
	AvgFastingGlucose  float64 `json:"avg_fasting_glucose"`
	AvgPostMealGlucose float64 `json:"avg_post_meal_glucose,omitempty"`
	HbA1c              float64 `json:"hba1c,omitempty"`

	// Raw reading series, when the caller supplies one instead of an average.
	GlucoseReadings []float64 `json:"glucose_readings,omitempty"`

	// Context only. Never used to prescribe.
	Conditions  []string `json:"conditions,omitempty"`
	Medications []string `json:"medications,omitempty"`
}

// Preferences are lowercase ingredient lists used by the food planner
// for exclusion (allergies, dislikes) and tie-breaking (liked foods).
type Preferences struct {
	Allergies  []string `json:"allergies"`
	Dislikes   []string `json:"dislikes"`
	LikedFoods []string `json:"liked_foods"`

	MealTimingPreference string `json:"meal_timing_preference,omitempty"`
}

// NormalizedInput is the canonical record every input shape is reduced to.
type NormalizedInput struct {
	UserProfile UserProfile `json:"user_profile"`
	HealthData  HealthData  `json:"health_data"`
	Preferences Preferences `json:"preferences"`
}
