package workouts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flexfitapp/flexfit-backend/pkg/config"
	pkgerrors "github.com/flexfitapp/flexfit-backend/pkg/errors"
)

type stubCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string, _ float64, _ int) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func validRequest() PlanRequest {
	return PlanRequest{
		WorkoutType:       "strength",
		FitnessGoal:       "muscle gain",
		ExperienceLevel:   "beginner",
		AgeRange:          "25-34",
		Equipment:         "dumbbells",
		DaysPerWeek:       3,
		PreferredDuration: 45,
		IncludeCardio:     true,
	}
}

func TestGeneratePlanDecodesModelReply(t *testing.T) {
	model := &stubCompleter{reply: `{
		"Monday": {"warmup": "5 min jog", "mainWorkout": "squats", "cooldown": "stretch", "cardio": "bike"},
		"Wednesday": {"warmup": "rowing", "mainWorkout": "bench press", "cooldown": "stretch"}
	}`}
	svc, err := NewService(ServiceParams{Model: model})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	plan, err := svc.GeneratePlan(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(plan) != 2 {
		t.Fatalf("expected two days, got %d", len(plan))
	}
	if plan["Monday"].MainWorkout != "squats" || plan["Monday"].Cardio != "bike" {
		t.Fatalf("unexpected monday: %+v", plan["Monday"])
	}
}

func TestGeneratePlanPromptCarriesPreferences(t *testing.T) {
	model := &stubCompleter{reply: `{"Monday": {"warmup": "x"}}`}
	svc, _ := NewService(ServiceParams{Model: model})

	req := validRequest()
	req.Limitations = "bad knee"
	if _, err := svc.GeneratePlan(context.Background(), req); err != nil {
		t.Fatalf("generate: %v", err)
	}

	prompt := model.prompts[0]
	for _, want := range []string{"strength", "muscle gain", "beginner", "25-34", "dumbbells", "bad knee", "45 minutes", "Include Cardio: Yes", "- cardio"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}

	// Without cardio the extra key must not be requested.
	model.prompts = nil
	req.IncludeCardio = false
	if _, err := svc.GeneratePlan(context.Background(), req); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if strings.Contains(model.prompts[0], "- cardio") {
		t.Fatal("cardio key requested despite include_cardio=false")
	}
}

func TestGeneratePlanToleratesFencedJSON(t *testing.T) {
	model := &stubCompleter{reply: "```json\n{\"Monday\": {\"warmup\": \"jog\"}}\n```"}
	svc, _ := NewService(ServiceParams{Model: model})

	plan, err := svc.GeneratePlan(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if plan["Monday"].Warmup != "jog" {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestGeneratePlanRejectsGarbageReply(t *testing.T) {
	model := &stubCompleter{reply: "Here is your plan! Monday: squats"}
	svc, _ := NewService(ServiceParams{Model: model})

	_, err := svc.GeneratePlan(context.Background(), validRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGeneratePlanModelFailure(t *testing.T) {
	model := &stubCompleter{err: errors.New("rate limited")}
	svc, _ := NewService(ServiceParams{Model: model})

	_, err := svc.GeneratePlan(context.Background(), validRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGeneratePlanValidatesDays(t *testing.T) {
	svc, _ := NewService(ServiceParams{Model: &stubCompleter{}})

	req := validRequest()
	req.DaysPerWeek = 8
	_, err := svc.GeneratePlan(context.Background(), req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOpenAIClientComplete(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "{\"Monday\":{}}"}, "finish_reason": "stop"}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL})
	content, err := client.Complete(context.Background(), "prompt", 0.7, 100)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if content != `{"Monday":{}}` {
		t.Fatalf("unexpected content %q", content)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
}

func TestOpenAIClientSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit exceeded", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), "prompt", 0.7, 100)
	if err == nil || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Fatalf("expected surfaced api error, got %v", err)
	}
}

func TestOpenAIClientEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), "prompt", 0.7, 100)
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}
