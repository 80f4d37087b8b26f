package planner

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"chroniccare/internal/models"
	"chroniccare/internal/normalize"
	"chroniccare/internal/rag"
	"chroniccare/internal/safety"
)

// GuidelineSource abstracts the retriever so plan generation can be
// tested without a real index.
type GuidelineSource interface {
	ExtractGuidelines(ctx context.Context, profile models.UserProfile, health models.HealthData) (rag.Guidelines, error)
}

// CarePlanner sequences normalization, safety checks, guideline
// retrieval, and the two planners. All collaborators are injected;
// the struct holds no mutable state and is safe for concurrent use.
type CarePlanner struct {
	guidelines GuidelineSource
}

func NewCarePlanner(guidelines GuidelineSource) *CarePlanner {
	return &CarePlanner{guidelines: guidelines}
}

// GuidelinesUsed is the citation slice of the retrieved bundle that is
// echoed back in the final plan.
type GuidelinesUsed struct {
	GlycemicTargets rag.GlycemicTargets `json:"glycemic_targets"`
	Citations       []string            `json:"citations"`
}

// CarePlan is the assembled plan before the safety wrapper is applied.
type CarePlan struct {
	UserProfile     models.UserProfile  `json:"user_profile"`
	HealthData      models.HealthData   `json:"health_data"`
	Preferences     models.Preferences  `json:"preferences"`
	GuidelinesUsed  GuidelinesUsed      `json:"guidelines_used"`
	FoodPlan        FoodPlan            `json:"food_plan"`
	ActivityPlan    ActivityPlan        `json:"activity_plan"`
	InputValidation normalize.Report    `json:"input_validation"`
}

// ValidationFailure is returned when input normalization rejects the
// request. It still carries the disclaimer.
type ValidationFailure struct {
	Error      string   `json:"error"`
	Details    []string `json:"details"`
	Disclaimer string   `json:"disclaimer"`
}

// CreateCarePlan accepts any supported input shape and produces the
// wrapped care plan. A validation failure short-circuits before any
// retrieval or planning work.
func (p *CarePlanner) CreateCarePlan(ctx context.Context, raw map[string]any) (any, error) {
	handler := normalize.NewHandler()
	input := handler.Process(raw)
	report := handler.Report()

	if !report.Valid {
		log.Warn().Strs("errors", report.Errors).Msg("Care plan input rejected")
		return ValidationFailure{
			Error:      "Invalid input data",
			Details:    report.Errors,
			Disclaimer: safety.Disclaimer,
		}, nil
	}

	return p.planFromNormalized(ctx, input, report)
}

// CreatePlanFromText parses a free-text description and re-enters the
// structured path.
func (p *CarePlanner) CreatePlanFromText(ctx context.Context, text string) (any, error) {
	handler := normalize.NewHandler()
	input := handler.ParseText(text)
	report := handler.Report()

	if !report.Valid {
		return ValidationFailure{
			Error:      "Invalid input data",
			Details:    report.Errors,
			Disclaimer: safety.Disclaimer,
		}, nil
	}

	return p.planFromNormalized(ctx, input, report)
}

func (p *CarePlanner) planFromNormalized(ctx context.Context, input models.NormalizedInput, report normalize.Report) (any, error) {
	check := safety.CheckGlucose(input.HealthData)
	log.Debug().Str("level", string(check.Level)).Strs("flags", check.Flags).Msg("Safety check complete")

	guidelines, err := p.guidelines.ExtractGuidelines(ctx, input.UserProfile, input.HealthData)
	if err != nil {
		return nil, err
	}

	// The planners share no state, so they run concurrently.
	var foodPlan FoodPlan
	var activityPlan ActivityPlan

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		foodPlan = PlanMeals(input.UserProfile, input.HealthData, guidelines, input.Preferences)
		return nil
	})
	g.Go(func() error {
		activityPlan = PlanActivities(input.UserProfile, input.HealthData, guidelines)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan := CarePlan{
		UserProfile: input.UserProfile,
		HealthData:  input.HealthData,
		Preferences: input.Preferences,
		GuidelinesUsed: GuidelinesUsed{
			GlycemicTargets: guidelines.GlycemicTargets,
			Citations:       guidelines.Citations,
		},
		FoodPlan:        foodPlan,
		ActivityPlan:    activityPlan,
		InputValidation: report,
	}

	return safety.WrapResponse(plan, check), nil
}

/* ====================================================================
                  Weekly update and feedback
==================================================================== */

type WeeklyProgress struct {
	FastingReadings   []float64 `json:"fasting_readings"`
	MealAdherence     float64   `json:"meal_adherence"`
	ActivityAdherence float64   `json:"activity_adherence"`
}

type WeeklySummary struct {
	AverageFastingGlucose float64 `json:"average_fasting_glucose"`
	Trend                 string  `json:"trend"`
	Adherence             struct {
		Meals    float64 `json:"meals"`
		Activity float64 `json:"activity"`
	} `json:"adherence"`
}

type WeeklyResponse struct {
	safety.SafeResponse
	WeeklySummary WeeklySummary `json:"weekly_summary"`
}

// UpdateWeeklyPlan folds a week of fasting readings into the health data
// and regenerates the plan, attaching a trend summary.
func (p *CarePlanner) UpdateWeeklyPlan(ctx context.Context, input models.NormalizedInput, progress WeeklyProgress) (any, error) {
	if len(progress.FastingReadings) > 0 {
		var total float64
		for _, r := range progress.FastingReadings {
			total += r
		}
		input.HealthData.AvgFastingGlucose = total / float64(len(progress.FastingReadings))
	}

	result, err := p.planFromNormalized(ctx, input, normalize.Report{Valid: true})
	if err != nil {
		return nil, err
	}

	wrapped, ok := result.(safety.SafeResponse)
	if !ok {
		return result, nil
	}

	summary := WeeklySummary{
		AverageFastingGlucose: input.HealthData.AvgFastingGlucose,
		Trend:                 DetermineTrend(progress.FastingReadings),
	}
	summary.Adherence.Meals = progress.MealAdherence
	summary.Adherence.Activity = progress.ActivityAdherence

	return WeeklyResponse{SafeResponse: wrapped, WeeklySummary: summary}, nil
}

// DetermineTrend compares the mean of the first and second halves of
// the readings. A shift of more than 10 mg/dL either way moves the
// trend out of "stable".
func DetermineTrend(readings []float64) string {
	if len(readings) < 2 {
		return "insufficient_data"
	}

	mid := len(readings) / 2
	var firstTotal, secondTotal float64
	for _, r := range readings[:mid] {
		firstTotal += r
	}
	for _, r := range readings[mid:] {
		secondTotal += r
	}
	firstHalf := firstTotal / float64(mid)
	secondHalf := secondTotal / float64(len(readings)-mid)

	switch {
	case secondHalf < firstHalf-10:
		return "improving"
	case secondHalf > firstHalf+10:
		return "worsening"
	default:
		return "stable"
	}
}

// Feedback carries post-plan user reactions that steer the next plan.
type Feedback struct {
	DislikedMeals        []string `json:"disliked_meals"`
	LikedMeals           []string `json:"liked_meals"`
	ExerciseTooDifficult bool     `json:"exercise_too_difficult"`
}

var activityLadder = []string{"sedentary", "low", "moderate", "high", "very_high"}

// UpdatePlanWithFeedback merges feedback into preferences, steps the
// activity level down one rung when exercise was reported too hard, and
// regenerates the plan.
func (p *CarePlanner) UpdatePlanWithFeedback(ctx context.Context, current CarePlan, feedback Feedback) (any, error) {
	input := models.NormalizedInput{
		UserProfile: current.UserProfile,
		HealthData:  current.HealthData,
		Preferences: current.Preferences,
	}

	input.Preferences.Dislikes = append(input.Preferences.Dislikes, feedback.DislikedMeals...)
	input.Preferences.LikedFoods = append(input.Preferences.LikedFoods, feedback.LikedMeals...)

	if feedback.ExerciseTooDifficult {
		input.UserProfile.ActivityLevel = stepDown(input.UserProfile.ActivityLevel)
		log.Info().Str("activity_level", input.UserProfile.ActivityLevel).Msg("Activity level adjusted down from feedback")
	}

	return p.planFromNormalized(ctx, input, normalize.Report{Valid: true})
}

func stepDown(level string) string {
	for i, l := range activityLadder {
		if l == level {
			if i == 0 {
				return level
			}
			return activityLadder[i-1]
		}
	}
	return "sedentary"
}
