/*
Package patient exposes the HTTP handlers for patient records, test
results, stored plans, and the care-plan generation endpoints.
*/
package patient

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"chroniccare/internal/database"
	"chroniccare/internal/models"
	"chroniccare/internal/planner"
	"chroniccare/internal/rag"
	"chroniccare/internal/safety"
)

// Generator produces free-text responses from the local LLM.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Handlers bundles the collaborators the patient endpoints need.
type Handlers struct {
	store   *database.Store
	planner *planner.CarePlanner
	llm     Generator
}

func NewHandlers(store *database.Store, carePlanner *planner.CarePlanner, llm Generator) *Handlers {
	return &Handlers{store: store, planner: carePlanner, llm: llm}
}

// errJSON matches the error envelope the API uses everywhere: a JSON
// object with an "error" key and HTTP 200.
func errJSON(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, map[string]string{"error": msg})
}

/* ====================================================================
                        Patient records
==================================================================== */

func (h *Handlers) AddPatient(c echo.Context) error {
	var p database.Patient
	if err := c.Bind(&p); err != nil {
		return errJSON(c, "invalid patient payload")
	}
	if p.PatientID == "" {
		return errJSON(c, "patient_id is required")
	}
	if err := h.store.InsertPatient(c.Request().Context(), p); err != nil {
		log.Error().Err(err).Msg("Failed to insert patient")
		return errJSON(c, "failed to save patient")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "Patient added"})
}

func (h *Handlers) GetPatient(c echo.Context) error {
	p, err := h.store.GetPatient(c.Request().Context(), c.Param("patient_id"))
	if errors.Is(err, database.ErrNotFound) {
		return errJSON(c, "Patient not found")
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch patient")
		return errJSON(c, "failed to fetch patient")
	}
	return c.JSON(http.StatusOK, p)
}

/* ====================================================================
                        Test results
==================================================================== */

func (h *Handlers) AddTest(c echo.Context) error {
	var t database.TestResult
	if err := c.Bind(&t); err != nil {
		return errJSON(c, "invalid test payload")
	}
	if t.PatientID == "" {
		return errJSON(c, "patient_id is required")
	}
	if err := h.store.InsertTestResult(c.Request().Context(), t); err != nil {
		log.Error().Err(err).Msg("Failed to insert test result")
		return errJSON(c, "failed to save test result")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "Test result saved"})
}

func (h *Handlers) GetLatestTest(c echo.Context) error {
	t, err := h.store.LatestTestResult(c.Request().Context(), c.Param("patient_id"))
	if errors.Is(err, database.ErrNotFound) {
		return errJSON(c, "No test results")
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch latest test result")
		return errJSON(c, "failed to fetch test result")
	}
	return c.JSON(http.StatusOK, t)
}

/* ====================================================================
                        Stored plans and logs
==================================================================== */

func (h *Handlers) SaveDiet(c echo.Context) error {
	var p database.DietPlan
	if err := c.Bind(&p); err != nil {
		return errJSON(c, "invalid diet plan payload")
	}
	if err := h.store.InsertDietPlan(c.Request().Context(), p); err != nil {
		log.Error().Err(err).Msg("Failed to insert diet plan")
		return errJSON(c, "failed to save diet plan")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "Diet plan saved"})
}

func (h *Handlers) GetDiet(c echo.Context) error {
	p, err := h.store.GetDietPlan(c.Request().Context(), c.Param("patient_id"), c.Param("day"))
	if errors.Is(err, database.ErrNotFound) {
		return errJSON(c, "Diet plan not found")
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch diet plan")
		return errJSON(c, "failed to fetch diet plan")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handlers) LogActivity(c echo.Context) error {
	var a database.DailyActivity
	if err := c.Bind(&a); err != nil {
		return errJSON(c, "invalid activity payload")
	}
	if err := h.store.InsertDailyActivity(c.Request().Context(), a); err != nil {
		log.Error().Err(err).Msg("Failed to insert activity log")
		return errJSON(c, "failed to save activity")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "Activity logged"})
}

func (h *Handlers) GetActivity(c echo.Context) error {
	a, err := h.store.GetDailyActivity(c.Request().Context(), c.Param("patient_id"), c.Param("date"))
	if errors.Is(err, database.ErrNotFound) {
		return errJSON(c, "No activity found")
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch activity log")
		return errJSON(c, "failed to fetch activity")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handlers) SaveMedication(c echo.Context) error {
	var p database.MedicationPlan
	if err := c.Bind(&p); err != nil {
		return errJSON(c, "invalid medication plan payload")
	}
	if err := h.store.InsertMedicationPlan(c.Request().Context(), p); err != nil {
		log.Error().Err(err).Msg("Failed to insert medication plan")
		return errJSON(c, "failed to save medication plan")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "Medication plan saved"})
}

func (h *Handlers) GetMedication(c echo.Context) error {
	p, err := h.store.LatestMedicationPlan(c.Request().Context(), c.Param("patient_id"))
	if errors.Is(err, database.ErrNotFound) {
		return errJSON(c, "No medication plan")
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch medication plan")
		return errJSON(c, "failed to fetch medication plan")
	}
	return c.JSON(http.StatusOK, p)
}

/* ====================================================================
                        Trend and alert
==================================================================== */

// GetTrend reports whether the patient's stored fasting readings are
// trending high. Mean above 160 mg/dL flags the trend.
func (h *Handlers) GetTrend(c echo.Context) error {
	results, err := h.store.ListTestResults(c.Request().Context(), c.Param("patient_id"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list test results")
		return errJSON(c, "failed to fetch test results")
	}
	if len(results) == 0 {
		return errJSON(c, "No data")
	}

	var total float64
	for _, t := range results {
		total += float64(t.FastingSugar)
	}
	mean := total / float64(len(results))

	trend := "Stable"
	if mean > 160 {
		trend = "Glucose trending high"
	}
	return c.JSON(http.StatusOK, map[string]string{"trend": trend})
}

// GetAlert runs the glucose safety ladder over the latest test result.
func (h *Handlers) GetAlert(c echo.Context) error {
	last, err := h.store.LatestTestResult(c.Request().Context(), c.Param("patient_id"))
	if errors.Is(err, database.ErrNotFound) {
		return errJSON(c, "No test data")
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch latest test result")
		return errJSON(c, "failed to fetch test result")
	}

	check := safety.CheckGlucose(models.HealthData{
		AvgFastingGlucose:  float64(last.FastingSugar),
		AvgPostMealGlucose: float64(last.PostMealSugar),
	})

	alert := check.Message
	if alert == "" {
		alert = "Normal"
	}
	return c.JSON(http.StatusOK, map[string]any{
		"alert": alert,
		"level": check.Level,
		"flags": check.Flags,
	})
}

/* ====================================================================
                        Care-plan generation
==================================================================== */

func (h *Handlers) CreatePlan(c echo.Context) error {
	var raw map[string]any
	if err := c.Bind(&raw); err != nil {
		return errJSON(c, "invalid plan input")
	}

	result, err := h.planner.CreateCarePlan(c.Request().Context(), raw)
	if err != nil {
		log.Error().Err(err).Msg("Care plan generation failed")
		return errJSON(c, "failed to generate care plan")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handlers) CreatePlanFromText(c echo.Context) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&body); err != nil || body.Text == "" {
		return errJSON(c, "text is required")
	}

	result, err := h.planner.CreatePlanFromText(c.Request().Context(), body.Text)
	if err != nil {
		log.Error().Err(err).Msg("Care plan generation from text failed")
		return errJSON(c, "failed to generate care plan")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handlers) UpdateWeeklyPlan(c echo.Context) error {
	var body struct {
		UserProfile models.UserProfile     `json:"user_profile"`
		HealthData  models.HealthData      `json:"health_data"`
		Preferences models.Preferences     `json:"preferences"`
		Progress    planner.WeeklyProgress `json:"weekly_progress"`
	}
	if err := c.Bind(&body); err != nil {
		return errJSON(c, "invalid weekly update payload")
	}

	// Plan generation requires a fasting glucose value. The weekly
	// readings can stand in for a missing average; nothing else can.
	if body.HealthData.AvgFastingGlucose == 0 && len(body.Progress.FastingReadings) == 0 {
		return c.JSON(http.StatusOK, planner.ValidationFailure{
			Error:      "Invalid input data",
			Details:    []string{"Fasting glucose data required"},
			Disclaimer: safety.Disclaimer,
		})
	}

	input := models.NormalizedInput{
		UserProfile: body.UserProfile,
		HealthData:  body.HealthData,
		Preferences: body.Preferences,
	}
	result, err := h.planner.UpdateWeeklyPlan(c.Request().Context(), input, body.Progress)
	if err != nil {
		log.Error().Err(err).Msg("Weekly plan update failed")
		return errJSON(c, "failed to update weekly plan")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handlers) UpdatePlanWithFeedback(c echo.Context) error {
	var body struct {
		CurrentPlan planner.CarePlan `json:"current_plan"`
		Feedback    planner.Feedback `json:"feedback"`
	}
	if err := c.Bind(&body); err != nil {
		return errJSON(c, "invalid feedback payload")
	}
	if body.CurrentPlan.HealthData.AvgFastingGlucose == 0 {
		return c.JSON(http.StatusOK, planner.ValidationFailure{
			Error:      "Invalid input data",
			Details:    []string{"Fasting glucose data required"},
			Disclaimer: safety.Disclaimer,
		})
	}

	result, err := h.planner.UpdatePlanWithFeedback(c.Request().Context(), body.CurrentPlan, body.Feedback)
	if err != nil {
		log.Error().Err(err).Msg("Feedback plan update failed")
		return errJSON(c, "failed to update plan")
	}
	return c.JSON(http.StatusOK, result)
}

// ExplainPlan asks the LLM for plain-language explanations of a
// generated care plan. When the plan's glucose values are in escalation
// territory the explanation is replaced by the escalation message.
func (h *Handlers) ExplainPlan(c echo.Context) error {
	var body struct {
		CurrentPlan planner.CarePlan `json:"current_plan"`
	}
	if err := c.Bind(&body); err != nil {
		return errJSON(c, "invalid plan payload")
	}
	plan := body.CurrentPlan

	ctx := c.Request().Context()
	check := safety.CheckGlucose(plan.HealthData)

	if check.EscalationRequired {
		message, err := h.generateScreened(ctx, planner.EscalationPrompt(plan.HealthData, check.Flags))
		if err != nil {
			log.Error().Err(err).Msg("Escalation message generation failed")
			return errJSON(c, "LLM unavailable")
		}
		return c.JSON(http.StatusOK, map[string]any{
			"escalation": message,
			"safety":     check,
			"disclaimer": safety.Disclaimer,
		})
	}

	guidelines := rag.Guidelines{GlycemicTargets: plan.GuidelinesUsed.GlycemicTargets}
	mealText, err := h.generateScreened(ctx, planner.MealExplanationPrompt(plan.UserProfile, plan.HealthData, plan.FoodPlan, guidelines))
	if err != nil {
		log.Error().Err(err).Msg("Meal explanation generation failed")
		return errJSON(c, "LLM unavailable")
	}
	activityText, err := h.generateScreened(ctx, planner.ActivityExplanationPrompt(plan.UserProfile, plan.HealthData, plan.ActivityPlan, guidelines))
	if err != nil {
		log.Error().Err(err).Msg("Activity explanation generation failed")
		return errJSON(c, "LLM unavailable")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"meal_explanation":     mealText,
		"activity_explanation": activityText,
		"disclaimer":           safety.Disclaimer,
	})
}

// generateScreened runs one LLM call under the system preamble and
// blanks the output if it strays into medication territory.
func (h *Handlers) generateScreened(ctx context.Context, prompt string) (string, error) {
	response, err := h.llm.Generate(ctx, planner.SystemPrompt()+"\n\n"+prompt)
	if err != nil {
		return "", err
	}
	if safety.MentionsMedication(response) {
		return "Please discuss your plan with your healthcare provider.", nil
	}
	return response, nil
}

// Ask proxies a free-form prompt to the local LLM. Medication questions
// are refused before the model is called.
func (h *Handlers) Ask(c echo.Context) error {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := c.Bind(&body); err != nil || body.Prompt == "" {
		return errJSON(c, "prompt is required")
	}

	if safety.MentionsMedication(body.Prompt) {
		return c.JSON(http.StatusOK, map[string]string{
			"response":   "I can't advise on medication. Please consult your healthcare provider.",
			"disclaimer": safety.Disclaimer,
		})
	}

	response, err := h.llm.Generate(c.Request().Context(), planner.SystemPrompt()+"\n\n"+body.Prompt)
	if err != nil {
		log.Error().Err(err).Msg("LLM generation failed")
		return errJSON(c, "LLM unavailable")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"response":   response,
		"disclaimer": safety.Disclaimer,
	})
}
