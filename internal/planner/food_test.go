package planner

import (
	"reflect"
	"strings"
	"testing"

	"chroniccare/internal/models"
	"chroniccare/internal/rag"
)

func testProfile() models.UserProfile {
	return models.UserProfile{
		Age:           45,
		DietType:      "omnivore",
		Region:        "western",
		ActivityLevel: "low",
	}
}

func TestPlanMealsDeterministic(t *testing.T) {
	profile := testProfile()
	health := models.HealthData{AvgFastingGlucose: 160, AvgPostMealGlucose: 210}

	a := PlanMeals(profile, health, rag.Guidelines{}, models.Preferences{})
	b := PlanMeals(profile, health, rag.Guidelines{}, models.Preferences{})

	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical plans for identical inputs")
	}
}

func TestAnalyzeHealthDataRules(t *testing.T) {
	analysis := AnalyzeHealthData(models.HealthData{AvgFastingGlucose: 170, AvgPostMealGlucose: 220})

	want := []string{
		"Elevated glucose → Prioritize low GI foods",
		"Significantly elevated glucose → Emphasize portion control",
		"ADA guideline → Minimum 25-30g fiber per day",
		"Post-meal glucose elevated → Limit refined carbohydrates",
	}
	if !reflect.DeepEqual(analysis.RulesApplied, want) {
		t.Fatalf("rules applied = %v, want %v", analysis.RulesApplied, want)
	}
	if !analysis.PortionControl {
		t.Fatal("expected portion control for fasting 170")
	}
}

func TestAnalyzeHealthDataNormalGlucose(t *testing.T) {
	analysis := AnalyzeHealthData(models.HealthData{AvgFastingGlucose: 110, AvgPostMealGlucose: 150})

	want := []string{"ADA guideline → Minimum 25-30g fiber per day"}
	if !reflect.DeepEqual(analysis.RulesApplied, want) {
		t.Fatalf("rules applied = %v, want %v", analysis.RulesApplied, want)
	}
	if analysis.PortionControl {
		t.Fatal("did not expect portion control for fasting 110")
	}
}

func TestPlanMealsVeganExcludesAnimalFoods(t *testing.T) {
	profile := testProfile()
	profile.DietType = "vegan"
	plan := PlanMeals(profile, models.HealthData{AvgFastingGlucose: 120}, rag.Guidelines{}, models.Preferences{})

	for _, item := range plan.ShoppingList {
		for _, banned := range []string{"chicken", "fish", "eggs", "paneer", "yogurt"} {
			if strings.Contains(item, banned) {
				t.Fatalf("vegan shopping list contains %q", item)
			}
		}
	}
}

func TestPlanMealsAllergyExclusion(t *testing.T) {
	plan := PlanMeals(testProfile(), models.HealthData{AvgFastingGlucose: 120}, rag.Guidelines{},
		models.Preferences{Allergies: []string{"nuts"}})

	for _, item := range plan.ShoppingList {
		if strings.Contains(item, "almonds") || strings.Contains(item, "walnuts") {
			t.Fatalf("allergy exclusion failed, shopping list contains %q", item)
		}
	}
}

func TestPlanMealsLikedFoodPreferred(t *testing.T) {
	plan := PlanMeals(testProfile(), models.HealthData{AvgFastingGlucose: 120}, rag.Guidelines{},
		models.Preferences{LikedFoods: []string{"oats"}})

	if !strings.Contains(plan.MealPlan.Breakfast.Description, "oats") {
		t.Fatalf("expected oats in breakfast, got %q", plan.MealPlan.Breakfast.Description)
	}
}

func TestPlanMealsVarietyAcrossMeals(t *testing.T) {
	plan := PlanMeals(testProfile(), models.HealthData{AvgFastingGlucose: 120}, rag.Guidelines{}, models.Preferences{})

	breakfast := plan.MealPlan.Breakfast.Components[0]
	lunch := plan.MealPlan.Lunch.Components[0]
	dinner := plan.MealPlan.Dinner.Components[0]

	if breakfast == lunch || lunch == dinner || breakfast == dinner {
		t.Fatalf("expected distinct grains across meals, got %q / %q / %q", breakfast, lunch, dinner)
	}
}

func TestPlanMealsPortionControl(t *testing.T) {
	plan := PlanMeals(testProfile(), models.HealthData{AvgFastingGlucose: 160}, rag.Guidelines{}, models.Preferences{})

	if !strings.Contains(plan.MealPlan.Breakfast.Components[0], "Small portion (1/2 cup)") {
		t.Fatalf("expected portion-controlled component, got %q", plan.MealPlan.Breakfast.Components[0])
	}
}

func TestShoppingListSplitsCompounds(t *testing.T) {
	plan := MealPlan{
		Lunch: Meal{Components: []string{"spinach and broccoli (1 cup)"}},
	}
	list := shoppingList(plan)

	want := []string{"broccoli", "spinach"}
	if !reflect.DeepEqual(list, want) {
		t.Fatalf("shopping list = %v, want %v", list, want)
	}
}

func TestShoppingListDeduplicatesAndSorts(t *testing.T) {
	plan := MealPlan{
		Breakfast:    Meal{Components: []string{"oats (1 cup)", "greek yogurt"}},
		Lunch:        Meal{Components: []string{"oats (Small portion (1/2 cup))"}},
		MorningSnack: Snack{Options: []string{"almonds"}},
	}
	list := shoppingList(plan)

	want := []string{"almonds", "greek yogurt", "oats"}
	if !reflect.DeepEqual(list, want) {
		t.Fatalf("shopping list = %v, want %v", list, want)
	}
}

func TestPlanMealsJustificationMentionsTarget(t *testing.T) {
	plan := PlanMeals(testProfile(), models.HealthData{AvgFastingGlucose: 160}, rag.Guidelines{}, models.Preferences{})

	if !strings.Contains(plan.Justification, "above the ADA target range (80-130 mg/dL)") {
		t.Fatalf("expected glucose context in justification, got %q", plan.Justification)
	}
	if !strings.HasSuffix(plan.Justification, "ADA nutritional guidelines for diabetes management.") {
		t.Fatalf("expected guideline boilerplate ending, got %q", plan.Justification)
	}
}

func TestPlanMealsFallbackWhenFiltersExhaust(t *testing.T) {
	profile := testProfile()
	profile.DietType = "vegan"
	// Excluding every snack and fruit candidate forces the fallback.
	prefs := models.Preferences{Dislikes: []string{
		"almonds", "walnuts", "chana", "hummus", "sprouts",
		"berries", "apples", "pears", "oranges", "guava", "papaya", "pomegranate",
	}}
	plan := PlanMeals(profile, models.HealthData{AvgFastingGlucose: 120}, rag.Guidelines{}, prefs)

	if plan.MealPlan.MorningSnack.Description != "Vegetable sticks with hummus" {
		t.Fatalf("expected snack fallback, got %q", plan.MealPlan.MorningSnack.Description)
	}
}
