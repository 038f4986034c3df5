package workouts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "github.com/flexfitapp/flexfit-backend/pkg/errors"
	"github.com/flexfitapp/flexfit-backend/pkg/logger"
)

const (
	planTemperature = 0.7
	planMaxTokens   = 1500
)

// PlanRequest carries the user's training preferences.
type PlanRequest struct {
	WorkoutType       string `json:"workout_type" validate:"required"`
	FitnessGoal       string `json:"fitness_goal" validate:"required"`
	ExperienceLevel   string `json:"experience_level" validate:"required"`
	AgeRange          string `json:"age_range" validate:"required"`
	Equipment         string `json:"equipment" validate:"required"`
	Limitations       string `json:"limitations"`
	DaysPerWeek       int    `json:"days_per_week" validate:"required,min=1,max=7"`
	PreferredDuration int    `json:"preferred_duration" validate:"required,min=10,max=240"`
	IncludeCardio     bool   `json:"include_cardio"`
}

// DailyPlan is one day of the generated plan. Field names stay camelCase on
// the wire because that is what the model is instructed to emit and what the
// frontend renders.
type DailyPlan struct {
	Warmup      string `json:"warmup,omitempty"`
	MainWorkout string `json:"mainWorkout,omitempty"`
	Cooldown    string `json:"cooldown,omitempty"`
	Cardio      string `json:"cardio,omitempty"`
}

// completer is the model call the service depends on.
type completer interface {
	Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// Service generates personalized workout plans.
type Service interface {
	GeneratePlan(ctx context.Context, req PlanRequest) (map[string]DailyPlan, error)
}

// ServiceParams groups dependencies for the workout service.
type ServiceParams struct {
	Model  completer
	Logger *logger.Logger
}

type service struct {
	model completer
	logg  *logger.Logger
}

// NewService builds a workout plan service.
func NewService(params ServiceParams) (Service, error) {
	if params.Model == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "model client required")
	}
	return &service{model: params.Model, logg: params.Logger}, nil
}

// GeneratePlan asks the model for a day-keyed plan and decodes it. The model
// is told to answer with bare JSON; anything that does not decode is treated
// as an upstream failure, never a panic.
func (s *service) GeneratePlan(ctx context.Context, req PlanRequest) (map[string]DailyPlan, error) {
	if req.DaysPerWeek < 1 || req.DaysPerWeek > 7 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "days per week must be between 1 and 7")
	}

	raw, err := s.model.Complete(ctx, buildPrompt(req), planTemperature, planMaxTokens)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate workout plan")
	}

	plan, err := decodePlan(raw)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "workout plan response was not valid JSON")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse workout plan")
	}
	return plan, nil
}

func buildPrompt(req PlanRequest) string {
	limitations := req.Limitations
	if limitations == "" {
		limitations = "None"
	}
	cardio := "No"
	cardioKey := ""
	if req.IncludeCardio {
		cardio = "Yes"
		cardioKey = "\n- cardio"
	}

	return fmt.Sprintf(`You are a certified fitness trainer.
Generate a personalized %d-day workout plan for a user with the following preferences:
- Workout Type: %s
- Fitness Goal: %s
- Experience Level: %s
- Age: %s
- Equipment: %s
- Limitations: %s
- Days per week: %d
- Daily Duration: %d minutes
- Include Cardio: %s

Each day should include the following keys in camelCase format:
- warmup
- mainWorkout
- cooldown%s

Return the result as a JSON object where the keys are the days of the week starting from Monday, e.g. "Monday", "Tuesday", ..., up to the number of days requested.
- Dont workout if the user is giving more than 3 day availability, dont workout the same body part without a brake of 48 hours.
- Humanise the input so that a person understand.
- Words should have proper spacing
**Output only JSON. No markdown, no explanations.**`,
		req.DaysPerWeek,
		req.WorkoutType,
		req.FitnessGoal,
		req.ExperienceLevel,
		req.AgeRange,
		req.Equipment,
		limitations,
		req.DaysPerWeek,
		req.PreferredDuration,
		cardio,
		cardioKey,
	)
}

// decodePlan tolerates a fenced code block around the JSON body. Models slip
// into markdown despite instructions often enough that rejecting it outright
// would fail real traffic.
func decodePlan(raw string) (map[string]DailyPlan, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	var plan map[string]DailyPlan
	if err := json.Unmarshal([]byte(trimmed), &plan); err != nil {
		return nil, err
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("plan is empty")
	}
	return plan, nil
}
