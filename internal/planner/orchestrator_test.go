package planner

import (
	"context"
	"testing"

	"chroniccare/internal/models"
	"chroniccare/internal/rag"
	"chroniccare/internal/safety"
)

// stubGuidelines returns a fixed bundle without touching an index.
type stubGuidelines struct{}

func (stubGuidelines) ExtractGuidelines(_ context.Context, _ models.UserProfile, _ models.HealthData) (rag.Guidelines, error) {
	return rag.Guidelines{
		GlycemicTargets: rag.GlycemicTargets{Fasting: "80-130 mg/dL", HbA1c: "<7.0%"},
		Citations:       []string{"ADA Standards of Care"},
	}, nil
}

func newTestPlanner() *CarePlanner {
	return NewCarePlanner(stubGuidelines{})
}

func TestCreateCarePlan(t *testing.T) {
	result, err := newTestPlanner().CreateCarePlan(context.Background(), map[string]any{
		"age":           45,
		"diet_type":     "vegetarian",
		"region":        "indian",
		"fasting_sugar": 160,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wrapped, ok := result.(safety.SafeResponse)
	if !ok {
		t.Fatalf("expected SafeResponse, got %T", result)
	}
	if wrapped.Disclaimer != safety.Disclaimer {
		t.Fatal("disclaimer missing from wrapped plan")
	}
	if wrapped.Safety.Level != safety.LevelCaution {
		t.Fatalf("expected caution for fasting 160, got %s", wrapped.Safety.Level)
	}

	plan, ok := wrapped.Plan.(CarePlan)
	if !ok {
		t.Fatalf("expected CarePlan payload, got %T", wrapped.Plan)
	}
	if plan.UserProfile.DietType != "vegetarian" {
		t.Fatalf("profile lost: %+v", plan.UserProfile)
	}
	if len(plan.FoodPlan.RulesApplied) == 0 || len(plan.ActivityPlan.RulesApplied) == 0 {
		t.Fatal("expected both planners to record applied rules")
	}
	if len(plan.GuidelinesUsed.Citations) != 1 {
		t.Fatalf("expected citations carried through, got %v", plan.GuidelinesUsed.Citations)
	}
}

func TestCreateCarePlanValidationFailure(t *testing.T) {
	result, err := newTestPlanner().CreateCarePlan(context.Background(), map[string]any{"age": 50})
	if err != nil {
		t.Fatalf("validation failure must not be an error: %v", err)
	}

	failure, ok := result.(ValidationFailure)
	if !ok {
		t.Fatalf("expected ValidationFailure, got %T", result)
	}
	if failure.Error != "Invalid input data" {
		t.Fatalf("unexpected error message: %q", failure.Error)
	}
	if failure.Disclaimer != safety.Disclaimer {
		t.Fatal("disclaimer must be attached even to error responses")
	}
	if len(failure.Details) == 0 {
		t.Fatal("expected validation details")
	}
}

func TestCreatePlanFromText(t *testing.T) {
	result, err := newTestPlanner().CreatePlanFromText(context.Background(),
		"I'm 38 years old, vegan from the western region, my fasting glucose is 155")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wrapped, ok := result.(safety.SafeResponse)
	if !ok {
		t.Fatalf("expected SafeResponse, got %T", result)
	}
	plan := wrapped.Plan.(CarePlan)
	if plan.UserProfile.Age != 38 || plan.UserProfile.DietType != "vegan" {
		t.Fatalf("text parse lost profile: %+v", plan.UserProfile)
	}
}

func TestDetermineTrend(t *testing.T) {
	cases := []struct {
		readings []float64
		want     string
	}{
		{[]float64{180, 175, 160, 150}, "improving"},
		{[]float64{150, 160, 175, 180}, "worsening"},
		{[]float64{150, 152, 148, 151}, "stable"},
		{[]float64{150}, "insufficient_data"},
		{nil, "insufficient_data"},
	}
	for _, tc := range cases {
		if got := DetermineTrend(tc.readings); got != tc.want {
			t.Errorf("DetermineTrend(%v) = %q, want %q", tc.readings, got, tc.want)
		}
	}
}

func TestUpdateWeeklyPlan(t *testing.T) {
	input := models.NormalizedInput{
		UserProfile: models.UserProfile{Age: 45, DietType: "omnivore", Region: "western", ActivityLevel: "low"},
		HealthData:  models.HealthData{AvgFastingGlucose: 140},
	}
	progress := WeeklyProgress{
		FastingReadings: []float64{200, 190, 150, 140},
		MealAdherence:   80,
	}

	result, err := newTestPlanner().UpdateWeeklyPlan(context.Background(), input, progress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	weekly, ok := result.(WeeklyResponse)
	if !ok {
		t.Fatalf("expected WeeklyResponse, got %T", result)
	}
	if weekly.WeeklySummary.AverageFastingGlucose != 170 {
		t.Fatalf("expected weekly average 170, got %.1f", weekly.WeeklySummary.AverageFastingGlucose)
	}
	if weekly.WeeklySummary.Trend != "improving" {
		t.Fatalf("expected improving trend, got %q", weekly.WeeklySummary.Trend)
	}
	if weekly.WeeklySummary.Adherence.Meals != 80 {
		t.Fatalf("adherence lost: %+v", weekly.WeeklySummary.Adherence)
	}

	// The regenerated plan must reflect the new weekly average.
	plan := weekly.Plan.(CarePlan)
	if plan.HealthData.AvgFastingGlucose != 170 {
		t.Fatalf("expected plan regenerated with average 170, got %.1f", plan.HealthData.AvgFastingGlucose)
	}
}

func TestUpdatePlanWithFeedback(t *testing.T) {
	current := CarePlan{
		UserProfile: models.UserProfile{Age: 45, DietType: "omnivore", Region: "western", ActivityLevel: "moderate"},
		HealthData:  models.HealthData{AvgFastingGlucose: 120},
		Preferences: models.Preferences{LikedFoods: []string{"oats"}},
	}
	feedback := Feedback{
		DislikedMeals:        []string{"barley"},
		ExerciseTooDifficult: true,
	}

	result, err := newTestPlanner().UpdatePlanWithFeedback(context.Background(), current, feedback)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plan := result.(safety.SafeResponse).Plan.(CarePlan)
	if plan.UserProfile.ActivityLevel != "low" {
		t.Fatalf("expected activity stepped down to low, got %q", plan.UserProfile.ActivityLevel)
	}
	found := false
	for _, d := range plan.Preferences.Dislikes {
		if d == "barley" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected disliked meal merged into preferences, got %v", plan.Preferences.Dislikes)
	}
}

func TestStepDownFloorsAtSedentary(t *testing.T) {
	cases := []struct{ level, want string }{
		{"sedentary", "sedentary"},
		{"low", "sedentary"},
		{"moderate", "low"},
		{"high", "moderate"},
		{"very_high", "high"},
		{"unknown", "sedentary"},
	}
	for _, tc := range cases {
		if got := stepDown(tc.level); got != tc.want {
			t.Errorf("stepDown(%q) = %q, want %q", tc.level, got, tc.want)
		}
	}
}
