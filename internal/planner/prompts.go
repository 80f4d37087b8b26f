package planner

import (
	"encoding/json"
	"fmt"

	"chroniccare/internal/models"
	"chroniccare/internal/rag"
)

// Prompt templates sent to the local LLM for natural-language
// explanations. The planners themselves never consume LLM output; these
// templates feed the explanation and ask endpoints only.

const systemPrompt = `You are a healthcare AI assistant specializing in diabetes care planning. Your role is to:

1. FOLLOW CLINICAL GUIDELINES STRICTLY
   - Base all recommendations on ADA (American Diabetes Association) standards
   - Never contradict evidence-based guidelines
   - Always cite guideline sources

2. PRIORITIZE SAFETY
   - Never provide medication advice or dosage recommendations
   - Never diagnose conditions
   - Escalate concerning values to healthcare providers
   - Include appropriate disclaimers in all responses

3. BE CONSERVATIVE AND EXPLAINABLE
   - Explain reasoning behind each recommendation
   - Use deterministic rules when possible
   - Be transparent about limitations
   - Avoid overconfident claims

4. MAINTAIN APPROPRIATE BOUNDARIES
   - This is a care planning tool, not medical advice
   - Encourage users to consult healthcare providers
   - Do not create false sense of security

MANDATORY DISCLAIMER (include in all responses):
"This is not medical advice. Always consult your healthcare provider before making changes to your diabetes management plan."`

// SystemPrompt returns the shared system preamble for explanation calls.
func SystemPrompt() string {
	return systemPrompt
}

// MealExplanationPrompt asks the LLM to explain a generated meal plan in
// plain language.
func MealExplanationPrompt(profile models.UserProfile, health models.HealthData, plan FoodPlan, guidelines rag.Guidelines) string {
	planJSON, _ := json.MarshalIndent(plan.MealPlan, "", "  ")

	return fmt.Sprintf(`Based on the following information, provide a brief, supportive explanation of this meal plan:

USER PROFILE:
- Age: %d
- Diet Type: %s
- Region: %s

CURRENT HEALTH DATA:
- Average Fasting Glucose: %.0f mg/dL
- Average Post-Meal Glucose: %.0f mg/dL

MEAL PLAN GENERATED:
%s

GUIDELINES APPLIED:
- Target fasting glucose: %d-%d mg/dL
- Target post-meal glucose: <%d mg/dL
- Fiber recommendation: %s

INSTRUCTIONS:
1. Explain WHY this meal plan was created (based on glucose levels and guidelines)
2. Highlight 2-3 key benefits of the recommended foods
3. Be encouraging but realistic
4. Keep explanation under 150 words
5. Include the mandatory disclaimer
6. Do NOT suggest medication changes
7. Do NOT make medical diagnoses

Focus on: empowerment, education, and guideline adherence.`,
		profile.Age, profile.DietType, profile.Region,
		health.AvgFastingGlucose, health.AvgPostMealGlucose,
		planJSON,
		guidelines.SafetyThresholds.FastingGlucose.TargetMin,
		guidelines.SafetyThresholds.FastingGlucose.TargetMax,
		guidelines.SafetyThresholds.PostMealGlucose.Target,
		guidelines.DietGuidelines.Fiber,
	)
}

// ActivityExplanationPrompt asks the LLM to explain a generated activity plan.
func ActivityExplanationPrompt(profile models.UserProfile, health models.HealthData, plan ActivityPlan, guidelines rag.Guidelines) string {
	planJSON, _ := json.MarshalIndent(plan, "", "  ")

	return fmt.Sprintf(`Based on the following information, provide a brief, motivating explanation of this activity plan:

USER PROFILE:
- Age: %d
- Current Activity Level: %s

CURRENT HEALTH DATA:
- Average Fasting Glucose: %.0f mg/dL

ACTIVITY PLAN GENERATED:
%s

ADA GUIDELINES:
- Recommended: %s
- Resistance training: %s

INSTRUCTIONS:
1. Explain WHY this activity plan is appropriate for the user's current level
2. Emphasize the glucose control benefits of physical activity
3. Acknowledge starting point and progression plan
4. Be motivating but realistic about effort required
5. Keep explanation under 150 words
6. Include the mandatory disclaimer
7. Remind about safety precautions (glucose monitoring, hydration)

Focus on: motivation, safety, and achievable progression.`,
		profile.Age, profile.ActivityLevel,
		health.AvgFastingGlucose,
		planJSON,
		guidelines.ActivityGuidelines.Aerobic,
		guidelines.ActivityGuidelines.Strength,
	)
}

// EscalationPrompt asks the LLM for a calm, urgent message when glucose
// values hit red-flag territory.
func EscalationPrompt(health models.HealthData, flags []string) string {
	healthJSON, _ := json.MarshalIndent(health, "", "  ")
	flagsJSON, _ := json.MarshalIndent(flags, "", "  ")

	return fmt.Sprintf(`URGENT: Create a clear, calm message for a user with concerning glucose levels:

HEALTH DATA:
%s

SAFETY FLAGS TRIGGERED:
%s

INSTRUCTIONS:
1. Clearly state the concern without causing panic
2. Emphasize IMMEDIATE need to contact healthcare provider
3. List specific actions to take NOW:
   - Contact doctor/diabetes care team
   - Monitor glucose more frequently
   - Have emergency contact ready
4. Do NOT provide specific medical treatment advice
5. Keep message under 100 words
6. Be clear and direct while remaining supportive
7. Use urgent but not alarming tone

This is a safety-critical communication. Prioritize clarity and action.`,
		healthJSON, flagsJSON,
	)
}
