package planner

import (
	"fmt"
	"strings"

	"chroniccare/internal/models"
	"chroniccare/internal/rag"
)

// Per-tier exercise options. The tier comes from glucose risk first and
// self-reported activity level second.
var aerobicOptions = map[string][]string{
	"beginner":     {"brisk walking", "cycling on flat terrain", "water aerobics"},
	"intermediate": {"jogging", "swimming", "cycling", "dance"},
	"advanced":     {"running", "cycling hills", "sports (tennis, basketball)"},
}

var resistanceOptions = map[string]string{
	"beginner":     "bodyweight exercises (wall push-ups, chair squats), resistance bands, light dumbbells (1-2 kg)",
	"intermediate": "moderate weight training, resistance band exercises, bodyweight circuits",
	"advanced":     "weight training, resistance exercises with heavier weights",
}

// Duration and frequency lookup for the glucose-normal branch, keyed by
// self-reported activity level.
var fitnessParams = map[string]struct {
	duration  int
	frequency int
}{
	"sedentary": {15, 3},
	"low":       {20, 4},
	"moderate":  {30, 5},
	"high":      {40, 5},
	"very_high": {40, 5},
}

type AerobicPlan struct {
	Activity        string   `json:"activity"`
	DurationMinutes int      `json:"duration_minutes"`
	Intensity       string   `json:"intensity"`
	Alternatives    []string `json:"alternatives"`
}

type WeeklySchedule struct {
	AerobicDays int    `json:"aerobic_days"`
	RestDays    int    `json:"rest_days"`
	Note        string `json:"note"`
}

type ResistancePlan struct {
	Exercises string `json:"exercises"`
	Frequency string `json:"frequency"`
	Focus     string `json:"focus"`
}

type FlexibilityPlan struct {
	Exercises string `json:"exercises"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

type BalancePlan struct {
	Exercises string `json:"exercises"`
	Frequency string `json:"frequency"`
}

type ActivityPlan struct {
	DailyAerobic       AerobicPlan       `json:"daily_aerobic"`
	WeeklySchedule     WeeklySchedule    `json:"weekly_schedule"`
	ResistanceTraining ResistancePlan    `json:"resistance_training"`
	Flexibility        FlexibilityPlan   `json:"flexibility"`
	Balance            *BalancePlan      `json:"balance,omitempty"`
	Progression        map[string]string `json:"progression"`
	RulesApplied       []string          `json:"rules_applied"`
	Justification      string            `json:"justification"`
	SafetyReminders    []string          `json:"safety_reminders"`
}

// PlanActivities produces the exercise plan. Glucose risk strictly
// overrides self-reported fitness: a high fasting average pins duration,
// frequency, intensity, and tier regardless of how active the patient
// says they are.
func PlanActivities(profile models.UserProfile, health models.HealthData, guidelines rag.Guidelines) ActivityPlan {
	fasting := health.AvgFastingGlucose
	level := strings.ToLower(profile.ActivityLevel)
	rules := []string{}

	var duration, frequency int
	var intensity, tier string
	startSlow := false

	switch {
	case fasting >= 250:
		duration, frequency = 10, 3
		intensity, tier = "very_light", "beginner"
		startSlow = true
		rules = append(rules, "Fasting glucose ≥250 mg/dL → Very light activity only, pending provider review")
	case fasting >= 180:
		duration, frequency = 15, 4
		intensity, tier = "light", "beginner"
		startSlow = true
		rules = append(rules, "Fasting glucose ≥180 mg/dL → Light activity with short sessions")
	case fasting >= 150:
		duration, frequency = 20, 4
		intensity, tier = "light_to_moderate", "intermediate"
		rules = append(rules, "Fasting glucose ≥150 mg/dL → Light-to-moderate activity, emphasize aerobic work for glucose control")
	default:
		params, ok := fitnessParams[level]
		if !ok {
			params = fitnessParams["low"]
		}
		duration, frequency = params.duration, params.frequency
		tier = fitnessTier(level)
		intensity = "moderate"
		if level == "sedentary" || level == "low" {
			intensity = "low"
			startSlow = true
			rules = append(rules, "Low activity level → Start with conservative plan and progress gradually")
		} else {
			rules = append(rules, "ADA guideline → Target 150 minutes/week spread over 5+ days")
		}
	}

	var balance *BalancePlan
	if profile.Age > 65 {
		if duration > 30 {
			duration = 30
		}
		balance = &BalancePlan{
			Exercises: "Standing on one foot, heel-to-toe walk, tai chi",
			Frequency: "2-3 times per week",
		}
		rules = append(rules, "Age >65 → Include balance exercises and cap session duration at 30 minutes")
	}

	aerobic := aerobicOptions[tier]

	plan := ActivityPlan{
		DailyAerobic: AerobicPlan{
			Activity:        aerobic[0],
			DurationMinutes: duration,
			Intensity:       intensity,
			Alternatives:    aerobic[1:],
		},
		WeeklySchedule: WeeklySchedule{
			AerobicDays: frequency,
			RestDays:    7 - frequency,
			Note:        "No more than 2 consecutive days without activity",
		},
		ResistanceTraining: ResistancePlan{
			Exercises: resistanceOptions[tier],
			Frequency: "2-3 days per week on non-consecutive days",
			Focus:     "All major muscle groups",
		},
		Flexibility: FlexibilityPlan{
			Exercises: "Stretching or yoga",
			Frequency: "2-3 times per week",
			Duration:  "10-15 minutes",
		},
		Balance:         balance,
		Progression:     progressionPlan(startSlow),
		RulesApplied:    rules,
		Justification:   activityJustification(level, fasting, guidelines),
		SafetyReminders: safetyReminders(fasting),
	}

	return plan
}

func fitnessTier(level string) string {
	switch level {
	case "sedentary", "low":
		return "beginner"
	case "moderate":
		return "intermediate"
	default:
		return "advanced"
	}
}

func progressionPlan(startSlow bool) map[string]string {
	if startSlow {
		return map[string]string{
			"week_1_2":    "Start with recommended duration and frequency",
			"week_3_4":    "Increase duration by 5 minutes per session",
			"week_5_6":    "Increase to 4 days per week if comfortable",
			"week_7_plus": "Progress toward 150 minutes per week (30 min x 5 days)",
			"principle":   "Increase by no more than 10% per week",
		}
	}
	return map[string]string{
		"current":   "Maintain current activity level",
		"next_step": "Gradually increase intensity or add variety",
		"principle": "Progress based on comfort and glucose response",
	}
}

func activityJustification(level string, fasting float64, guidelines rag.Guidelines) string {
	parts := []string{}

	if level == "sedentary" || level == "low" {
		parts = append(parts, "Starting with a conservative plan is important for building sustainable exercise habits and reducing injury risk")
	}
	if fasting > 150 {
		parts = append(parts, fmt.Sprintf("Regular physical activity can help improve glucose control (current average: %.0f mg/dL)", fasting))
	}

	target := guidelines.ActivityGuidelines.Aerobic
	if target == "" {
		target = "150 minutes per week"
	}
	parts = append(parts, fmt.Sprintf("This plan follows ADA recommendations of %s of moderate-intensity aerobic activity", target))

	return strings.Join(parts, ". ") + "."
}

func safetyReminders(fasting float64) []string {
	reminders := []string{
		"Check blood glucose before and after exercise",
		"Carry a fast-acting carbohydrate source (glucose tablets, juice)",
		"Stay well hydrated before, during, and after exercise",
		"Wear proper footwear to prevent foot injuries",
		"Stop exercising if you feel dizzy, short of breath, or experience chest pain",
	}

	switch {
	case fasting > 250:
		reminders = append([]string{"CAUTION: Avoid vigorous exercise if glucose is >250 mg/dL. Check with healthcare provider."}, reminders...)
	case fasting > 180:
		reminders = append([]string{"Keep sessions light until fasting glucose is back under 180 mg/dL"}, reminders...)
	}

	return reminders
}
