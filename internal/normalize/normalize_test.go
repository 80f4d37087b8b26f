package normalize

import (
	"strings"
	"testing"
)

func TestProcessFlatInput(t *testing.T) {
	h := NewHandler()
	input := h.Process(map[string]any{
		"age":           "45",
		"fasting_sugar": 160,
	})
	report := h.Report()

	if !report.Valid {
		t.Fatalf("expected valid report, got errors: %v", report.Errors)
	}
	if input.UserProfile.Age != 45 {
		t.Fatalf("expected age 45, got %d", input.UserProfile.Age)
	}
	if input.HealthData.AvgFastingGlucose != 160 {
		t.Fatalf("expected fasting glucose 160, got %.1f", input.HealthData.AvgFastingGlucose)
	}
	if input.UserProfile.DietType != "omnivore" {
		t.Fatalf("expected default diet omnivore, got %q", input.UserProfile.DietType)
	}

	warned := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "diet_type") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected a default-diet warning, got %v", report.Warnings)
	}
}

func TestProcessStructuredInput(t *testing.T) {
	h := NewHandler()
	input := h.Process(map[string]any{
		"user_profile": map[string]any{
			"age":            35,
			"diet_type":      "vegan",
			"region":         "indian",
			"activity_level": "moderate",
		},
		"health_data": map[string]any{
			"avg_fasting_glucose":   170.0,
			"avg_post_meal_glucose": 220.0,
		},
		"preferences": map[string]any{
			"liked_foods": []any{"quinoa", "chickpeas"},
			"dislikes":    []any{"eggplant"},
		},
	})

	if !h.Report().Valid {
		t.Fatalf("expected valid report, got %v", h.Report().Errors)
	}
	if input.UserProfile.DietType != "vegan" || input.UserProfile.Region != "indian" {
		t.Fatalf("profile not carried through: %+v", input.UserProfile)
	}
	if input.HealthData.AvgPostMealGlucose != 220 {
		t.Fatalf("expected post-meal 220, got %.1f", input.HealthData.AvgPostMealGlucose)
	}
	if len(input.Preferences.LikedFoods) != 2 || input.Preferences.LikedFoods[0] != "quinoa" {
		t.Fatalf("unexpected liked foods: %v", input.Preferences.LikedFoods)
	}
}

func TestProcessAgeClamping(t *testing.T) {
	h := NewHandler()
	input := h.Process(map[string]any{
		"age":             150,
		"fasting_glucose": 120,
	})

	if input.UserProfile.Age != 100 {
		t.Fatalf("expected age clamped to 100, got %d", input.UserProfile.Age)
	}
	if len(h.Report().Warnings) == 0 {
		t.Fatal("expected a warning for out-of-range age")
	}
}

func TestProcessMissingFastingGlucose(t *testing.T) {
	h := NewHandler()
	h.Process(map[string]any{"age": 50})
	report := h.Report()

	if report.Valid {
		t.Fatal("expected invalid report when fasting glucose is missing")
	}
	found := false
	for _, e := range report.Errors {
		if e == "Fasting glucose data required" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected required-glucose error, got %v", report.Errors)
	}
}

func TestProcessGlucoseOutOfRange(t *testing.T) {
	h := NewHandler()
	h.Process(map[string]any{"fasting_glucose": 700})

	if h.Report().Valid {
		t.Fatal("expected invalid report for glucose of 700")
	}
}

func TestProcessReadingsFallback(t *testing.T) {
	h := NewHandler()
	input := h.Process(map[string]any{
		"glucose_readings": []any{150.0, 160.0},
	})
	report := h.Report()

	if !report.Valid {
		t.Fatalf("expected valid report, got %v", report.Errors)
	}
	if input.HealthData.AvgFastingGlucose != 155 {
		t.Fatalf("expected computed average 155, got %.1f", input.HealthData.AvgFastingGlucose)
	}

	warned := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "Calculated average glucose") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected computed-average warning, got %v", report.Warnings)
	}
}

func TestCommaSeparatedPreferenceLists(t *testing.T) {
	h := NewHandler()
	input := h.Process(map[string]any{
		"fasting_glucose": 145,
		"allergies":       "Nuts, Soy",
		"liked_foods":     "berries, oats, broccoli",
	})

	if len(input.Preferences.Allergies) != 2 || input.Preferences.Allergies[0] != "nuts" {
		t.Fatalf("unexpected allergies: %v", input.Preferences.Allergies)
	}
	if len(input.Preferences.LikedFoods) != 3 || input.Preferences.LikedFoods[2] != "broccoli" {
		t.Fatalf("unexpected liked foods: %v", input.Preferences.LikedFoods)
	}
}

func TestCoerceDescriptiveValues(t *testing.T) {
	h := NewHandler()
	input := h.Process(map[string]any{
		"fasting_glucose": 120,
		"diet_type":       "plant-based",
		"region":          "North Indian",
		"activity_level":  "mostly at my desk",
	})

	if input.UserProfile.DietType != "vegan" {
		t.Fatalf("expected plant-based to coerce to vegan, got %q", input.UserProfile.DietType)
	}
	if input.UserProfile.Region != "indian" {
		t.Fatalf("expected North Indian to coerce to indian, got %q", input.UserProfile.Region)
	}
	if input.UserProfile.ActivityLevel != "sedentary" {
		t.Fatalf("expected desk job to coerce to sedentary, got %q", input.UserProfile.ActivityLevel)
	}
}

func TestParseText(t *testing.T) {
	h := NewHandler()
	input := h.ParseText("I'm 38 years old, pescatarian from the mediterranean region, my fasting glucose is 155")
	report := h.Report()

	if !report.Valid {
		t.Fatalf("expected valid report, got %v", report.Errors)
	}
	if input.UserProfile.Age != 38 {
		t.Fatalf("expected age 38, got %d", input.UserProfile.Age)
	}
	if input.UserProfile.DietType != "pescatarian" {
		t.Fatalf("expected pescatarian, got %q", input.UserProfile.DietType)
	}
	if input.UserProfile.Region != "mediterranean" {
		t.Fatalf("expected mediterranean, got %q", input.UserProfile.Region)
	}
	if input.HealthData.AvgFastingGlucose != 155 {
		t.Fatalf("expected fasting glucose 155, got %.1f", input.HealthData.AvgFastingGlucose)
	}
}

func TestParseTextWithoutGlucose(t *testing.T) {
	h := NewHandler()
	h.ParseText("I'm 52 years old and vegetarian")

	if h.Report().Valid {
		t.Fatal("expected invalid report when text carries no glucose value")
	}
}
