package planner

import (
	"fmt"
	"sort"
	"strings"

	"chroniccare/internal/models"
	"chroniccare/internal/rag"
)

// foodItem carries the metadata the filters branch on. Regions lists the
// cuisines an item belongs to; "universal" matches any request region.
type foodItem struct {
	Name       string
	GI         string
	Regions    []string
	Vegan      bool
	Vegetarian bool
	Type       string
	Fiber      string
}

var foodTable = map[string][]foodItem{
	"grains": {
		{Name: "brown rice", GI: "medium", Regions: []string{"indian", "asian", "western"}, Vegan: true, Fiber: "medium"},
		{Name: "quinoa", GI: "low", Regions: []string{"western", "south_american"}, Vegan: true, Fiber: "high"},
		{Name: "whole wheat chapati", GI: "medium", Regions: []string{"indian"}, Vegan: true, Fiber: "high"},
		{Name: "oats", GI: "low", Regions: []string{"western", "indian"}, Vegan: true, Fiber: "high"},
		{Name: "millets (ragi, bajra)", GI: "low", Regions: []string{"indian"}, Vegan: true, Fiber: "high"},
		{Name: "barley", GI: "low", Regions: []string{"western", "middle_eastern"}, Vegan: true, Fiber: "high"},
		{Name: "whole wheat pasta", GI: "medium", Regions: []string{"western", "italian"}, Vegan: true, Fiber: "medium"},
	},
	"proteins": {
		{Name: "lentils (dal)", GI: "low", Regions: []string{"indian", "middle_eastern"}, Vegan: true, Type: "plant", Fiber: "high"},
		{Name: "chickpeas", GI: "low", Regions: []string{"indian", "middle_eastern", "mediterranean"}, Vegan: true, Type: "plant", Fiber: "high"},
		{Name: "black beans", GI: "low", Regions: []string{"latin_american", "western"}, Vegan: true, Type: "plant", Fiber: "high"},
		{Name: "tofu", GI: "low", Regions: []string{"asian", "western"}, Vegan: true, Type: "plant", Fiber: "low"},
		{Name: "paneer (low-fat)", GI: "low", Regions: []string{"indian"}, Vegetarian: true, Type: "dairy", Fiber: "none"},
		{Name: "greek yogurt", GI: "low", Regions: []string{"western", "mediterranean"}, Vegetarian: true, Type: "dairy", Fiber: "none"},
		{Name: "eggs", GI: "low", Regions: []string{"universal"}, Vegetarian: true, Type: "animal", Fiber: "none"},
		{Name: "chicken breast (grilled)", GI: "low", Regions: []string{"universal"}, Type: "meat", Fiber: "none"},
		{Name: "fish (salmon, mackerel)", GI: "low", Regions: []string{"universal"}, Type: "seafood", Fiber: "none"},
		{Name: "tempeh", GI: "low", Regions: []string{"asian"}, Vegan: true, Type: "plant", Fiber: "high"},
	},
	"vegetables": {
		{Name: "spinach", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "high", Type: "leafy_green"},
		{Name: "broccoli", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "high", Type: "cruciferous"},
		{Name: "cauliflower", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "high", Type: "cruciferous"},
		{Name: "bell peppers", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "medium", Type: "non_starchy"},
		{Name: "okra (bhindi)", GI: "low", Regions: []string{"indian", "southern_us"}, Vegan: true, Fiber: "high", Type: "non_starchy"},
		{Name: "eggplant (baingan)", GI: "low", Regions: []string{"indian", "mediterranean"}, Vegan: true, Fiber: "medium", Type: "non_starchy"},
		{Name: "tomatoes", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "medium", Type: "non_starchy"},
		{Name: "cucumber", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "low", Type: "non_starchy"},
		{Name: "carrots", GI: "medium", Regions: []string{"universal"}, Vegan: true, Fiber: "medium", Type: "root"},
		{Name: "green beans", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "medium", Type: "non_starchy"},
	},
	"fruits": {
		{Name: "berries (strawberries, blueberries)", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "high"},
		{Name: "apples", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "high"},
		{Name: "pears", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "high"},
		{Name: "oranges", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "medium"},
		{Name: "guava", GI: "low", Regions: []string{"indian", "tropical"}, Vegan: true, Fiber: "high"},
		{Name: "papaya (small portion)", GI: "medium", Regions: []string{"tropical"}, Vegan: true, Fiber: "medium"},
		{Name: "pomegranate", GI: "medium", Regions: []string{"indian", "middle_eastern"}, Vegan: true, Fiber: "medium"},
	},
	"snacks": {
		{Name: "almonds", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "high", Type: "nuts"},
		{Name: "walnuts", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "medium", Type: "nuts"},
		{Name: "roasted chana", GI: "low", Regions: []string{"indian"}, Vegan: true, Fiber: "high", Type: "legume"},
		{Name: "hummus with vegetables", GI: "low", Regions: []string{"middle_eastern", "western"}, Vegan: true, Fiber: "high", Type: "dip"},
		{Name: "sprouts", GI: "low", Regions: []string{"indian"}, Vegan: true, Fiber: "high", Type: "legume"},
		{Name: "greek yogurt (unsweetened)", GI: "low", Regions: []string{"western"}, Vegetarian: true, Fiber: "none", Type: "dairy"},
	},
	"fats": {
		{Name: "olive oil", GI: "low", Regions: []string{"mediterranean", "western"}, Vegan: true, Type: "oil"},
		{Name: "avocado", GI: "low", Regions: []string{"western", "latin_american"}, Vegan: true, Fiber: "high", Type: "fruit_fat"},
		{Name: "nuts and seeds", GI: "low", Regions: []string{"universal"}, Vegan: true, Fiber: "high", Type: "nuts_seeds"},
	},
}

// filterFoods narrows a category by diet compatibility, region (regional
// or universal), glycemic index, and excluded-ingredient substrings.
func filterFoods(category, dietType, region, giPreference string, exclude []string) []foodItem {
	items, ok := foodTable[category]
	if !ok {
		return nil
	}

	out := make([]foodItem, 0, len(items))
	for _, item := range items {
		if !dietAllows(dietType, item) {
			continue
		}
		if region != "" && !regionAllows(region, item) {
			continue
		}
		if giPreference != "" && item.GI != giPreference && item.GI != "low" {
			continue
		}
		if excluded(item.Name, exclude) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func dietAllows(dietType string, item foodItem) bool {
	switch dietType {
	case "vegan":
		return item.Vegan
	case "vegetarian":
		return item.Vegan || item.Vegetarian
	case "pescatarian":
		return item.Vegan || item.Vegetarian || item.Type == "seafood"
	default:
		return true
	}
}

func regionAllows(region string, item foodItem) bool {
	region = strings.ToLower(region)
	for _, r := range item.Regions {
		if strings.EqualFold(r, region) || r == "universal" {
			return true
		}
	}
	return false
}

func excluded(name string, exclude []string) bool {
	lower := strings.ToLower(name)
	for _, e := range exclude {
		if e != "" && strings.Contains(lower, strings.ToLower(e)) {
			return true
		}
	}
	return false
}

/* ====================================================================
                        Meal plan output
==================================================================== */

type Meal struct {
	Components  []string `json:"components"`
	Description string   `json:"description"`
}

type Snack struct {
	Options     []string `json:"options"`
	Description string   `json:"description"`
}

type MealPlan struct {
	Breakfast      Meal  `json:"breakfast"`
	MorningSnack   Snack `json:"morning_snack"`
	Lunch          Meal  `json:"lunch"`
	AfternoonSnack Snack `json:"afternoon_snack"`
	Dinner         Meal  `json:"dinner"`
}

type FoodPlan struct {
	MealPlan         MealPlan `json:"meal_plan"`
	ShoppingList     []string `json:"shopping_list"`
	RulesApplied     []string `json:"rules_applied"`
	Justification    string   `json:"justification"`
	NutritionalGoals []string `json:"nutritional_goals"`
	FoodsToEmphasize []string `json:"foods_to_emphasize"`
	FoodsToLimit     []string `json:"foods_to_limit"`
}

// HealthAnalysis holds the nutrition directives derived from glucose
// values. RulesApplied records each fired rule in order.
type HealthAnalysis struct {
	GIPreference   string
	FiberPriority  string
	PortionControl bool
	Goals          []string
	Emphasize      []string
	Limit          []string
	RulesApplied   []string
}

const (
	mealFallback  = "Whole grain with vegetables"
	snackFallback = "Vegetable sticks with hummus"
)

// AnalyzeHealthData maps glucose values onto nutrition directives.
func AnalyzeHealthData(health models.HealthData) HealthAnalysis {
	analysis := HealthAnalysis{
		GIPreference:  "low",
		FiberPriority: "high",
		Goals:         []string{},
		Emphasize:     []string{},
		Limit:         []string{},
		RulesApplied:  []string{},
	}

	fasting := health.AvgFastingGlucose
	postMeal := health.AvgPostMealGlucose

	if fasting > 130 || postMeal > 180 {
		analysis.Goals = append(analysis.Goals, "Lower glycemic index foods to improve glucose control")
		analysis.RulesApplied = append(analysis.RulesApplied, "Elevated glucose → Prioritize low GI foods")
	}

	if fasting > 150 {
		analysis.PortionControl = true
		analysis.Goals = append(analysis.Goals, "Portion control to manage blood sugar")
		analysis.RulesApplied = append(analysis.RulesApplied, "Significantly elevated glucose → Emphasize portion control")
	}

	analysis.Emphasize = append(analysis.Emphasize, "High fiber foods", "Non-starchy vegetables", "Legumes")
	analysis.RulesApplied = append(analysis.RulesApplied, "ADA guideline → Minimum 25-30g fiber per day")

	if postMeal > 180 {
		analysis.Limit = append(analysis.Limit, "Refined carbohydrates", "White bread", "White rice", "Sugary foods")
		analysis.RulesApplied = append(analysis.RulesApplied, "Post-meal glucose elevated → Limit refined carbohydrates")
	}

	return analysis
}

// foodPlanState is per-plan scratch. The used set gives meals within one
// plan different foods; it resets when a slot's candidates are all used.
type foodPlanState struct {
	dietType string
	region   string
	exclude  []string
	liked    []string
	analysis HealthAnalysis
	used     map[string]bool
}

// PlanMeals builds the full day of meals plus shopping list and
// justification. Deterministic given its inputs.
func PlanMeals(profile models.UserProfile, health models.HealthData, guidelines rag.Guidelines, prefs models.Preferences) FoodPlan {
	analysis := AnalyzeHealthData(health)

	state := &foodPlanState{
		dietType: profile.DietType,
		region:   profile.Region,
		exclude:  append(append([]string{}, prefs.Allergies...), prefs.Dislikes...),
		liked:    prefs.LikedFoods,
		analysis: analysis,
		used:     map[string]bool{},
	}

	plan := MealPlan{
		Breakfast:      state.buildMeal("breakfast"),
		MorningSnack:   state.buildSnack(),
		Lunch:          state.buildMeal("lunch"),
		AfternoonSnack: state.buildSnack(),
		Dinner:         state.buildMeal("dinner"),
	}

	return FoodPlan{
		MealPlan:         plan,
		ShoppingList:     shoppingList(plan),
		RulesApplied:     analysis.RulesApplied,
		Justification:    foodJustification(health, analysis),
		NutritionalGoals: analysis.Goals,
		FoodsToEmphasize: analysis.Emphasize,
		FoodsToLimit:     analysis.Limit,
	}
}

func (s *foodPlanState) buildMeal(slot string) Meal {
	meal := Meal{Components: []string{}}

	grains := filterFoods("grains", s.dietType, s.region, s.analysis.GIPreference, s.exclude)
	proteins := filterFoods("proteins", s.dietType, s.region, s.analysis.GIPreference, s.exclude)

	if grain, ok := s.pick(grains); ok {
		meal.Components = append(meal.Components, fmt.Sprintf("%s (%s)", grain.Name, s.portion()))
	}
	if protein, ok := s.pick(proteins); ok {
		meal.Components = append(meal.Components, protein.Name)
	}

	if slot == "lunch" || slot == "dinner" {
		vegetables := filterFoods("vegetables", s.dietType, s.region, "", s.exclude)
		veg1, ok1 := s.pick(vegetables)
		veg2, ok2 := s.pick(vegetables)
		switch {
		case ok1 && ok2:
			meal.Components = append(meal.Components, fmt.Sprintf("%s and %s", veg1.Name, veg2.Name))
		case ok1:
			meal.Components = append(meal.Components, veg1.Name)
		}
	}

	if len(meal.Components) == 0 {
		meal.Description = mealFallback
	} else {
		meal.Description = strings.Join(meal.Components, ", ")
	}
	return meal
}

func (s *foodPlanState) buildSnack() Snack {
	snack := Snack{Options: []string{}}

	snacks := filterFoods("snacks", s.dietType, s.region, "low", s.exclude)
	if item, ok := s.pick(snacks); ok {
		snack.Options = append(snack.Options, item.Name)
	}

	fruits := filterFoods("fruits", s.dietType, s.region, "low", s.exclude)
	if len(snack.Options) < 2 {
		if item, ok := s.pick(fruits); ok {
			snack.Options = append(snack.Options, fmt.Sprintf("%s (1 small)", item.Name))
		}
	}

	if len(snack.Options) == 0 {
		snack.Description = snackFallback
	} else {
		snack.Description = strings.Join(snack.Options, " OR ")
	}
	return snack
}

// pick selects the first unused candidate, preferring liked foods. When
// every candidate has already been used this plan, the used set is
// cleared for those candidates and selection restarts.
func (s *foodPlanState) pick(candidates []foodItem) (foodItem, bool) {
	if len(candidates) == 0 {
		return foodItem{}, false
	}

	fresh := make([]foodItem, 0, len(candidates))
	for _, item := range candidates {
		if !s.used[item.Name] {
			fresh = append(fresh, item)
		}
	}
	if len(fresh) == 0 {
		for _, item := range candidates {
			delete(s.used, item.Name)
		}
		fresh = candidates
	}

	for _, item := range fresh {
		for _, liked := range s.liked {
			if liked != "" && strings.Contains(strings.ToLower(item.Name), strings.ToLower(liked)) {
				s.used[item.Name] = true
				return item, true
			}
		}
	}

	chosen := fresh[0]
	s.used[chosen.Name] = true
	return chosen, true
}

func (s *foodPlanState) portion() string {
	if s.analysis.PortionControl {
		return "Small portion (1/2 cup)"
	}
	return "1 cup"
}

// shoppingList extracts the distinct base ingredients: portion text in
// parentheses is stripped and "X and Y" compounds become two entries.
func shoppingList(plan MealPlan) []string {
	seen := map[string]bool{}

	add := func(component string) {
		base := component
		if i := strings.Index(base, "("); i >= 0 {
			base = base[:i]
		}
		for _, part := range strings.Split(base, " and ") {
			part = strings.TrimSpace(part)
			if part != "" {
				seen[part] = true
			}
		}
	}

	for _, meal := range []Meal{plan.Breakfast, plan.Lunch, plan.Dinner} {
		for _, c := range meal.Components {
			add(c)
		}
	}
	for _, snack := range []Snack{plan.MorningSnack, plan.AfternoonSnack} {
		for _, o := range snack.Options {
			add(o)
		}
	}

	list := make([]string, 0, len(seen))
	for ingredient := range seen {
		list = append(list, ingredient)
	}
	sort.Strings(list)
	return list
}

func foodJustification(health models.HealthData, analysis HealthAnalysis) string {
	parts := []string{}

	if health.AvgFastingGlucose > 130 {
		parts = append(parts, fmt.Sprintf("Your average fasting glucose (%.0f mg/dL) is above the ADA target range (80-130 mg/dL)", health.AvgFastingGlucose))
	}
	parts = append(parts, analysis.Goals...)
	parts = append(parts, "All recommendations follow ADA nutritional guidelines for diabetes management")

	return strings.Join(parts, ". ") + "."
}
