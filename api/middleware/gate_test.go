package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flexfitapp/flexfit-backend/pkg/config"
)

type stubFlagChecker struct {
	active bool
	err    error
	calls  int
}

func (s *stubFlagChecker) ActiveFlag(_ context.Context, _ string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.active, nil
}

func gateConfig() config.GateConfig {
	return config.GateConfig{
		SignUpPath:    "/sign-up",
		SubscribePath: "/subscribe",
		ContentPath:   "/workoutplan",
	}
}

func runGate(t *testing.T, flags *stubFlagChecker, path, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var reached bool
	handler := Gate(GateParams{Cfg: gateConfig(), Flags: flags})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userID != "" {
		req = req.WithContext(WithIdentity(req.Context(), userID, "a@example.com"))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code == http.StatusOK && !reached {
		t.Fatal("200 without reaching the handler")
	}
	return w
}

func TestGateRedirectsAnonymousToSignUp(t *testing.T) {
	flags := &stubFlagChecker{}
	w := runGate(t, flags, "/workoutplan", "")

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/sign-up" {
		t.Fatalf("unexpected redirect %q", got)
	}
	if flags.calls != 0 {
		t.Fatal("flag must not be consulted without identity")
	}
}

func TestGateRedirectsInactiveToSubscribe(t *testing.T) {
	w := runGate(t, &stubFlagChecker{active: false}, "/workoutplan", "user_1")

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/subscribe" {
		t.Fatalf("unexpected redirect %q", got)
	}
}

func TestGateFailsClosedOnLookupError(t *testing.T) {
	w := runGate(t, &stubFlagChecker{err: errors.New("store down")}, "/workoutplan", "user_1")

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/subscribe" {
		t.Fatalf("unexpected redirect %q", got)
	}
}

func TestGateGrantsActiveSubscriber(t *testing.T) {
	w := runGate(t, &stubFlagChecker{active: true}, "/workoutplan", "user_1")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGateOpenPathsPassThrough(t *testing.T) {
	flags := &stubFlagChecker{}
	for _, path := range []string{"/", "/subscribe"} {
		w := runGate(t, flags, path, "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected open path %s to pass, got %d", path, w.Code)
		}
	}
	if flags.calls != 0 {
		t.Fatal("open paths must not consult the flag")
	}
}

func TestGateBouncesSignedInFromSignUp(t *testing.T) {
	w := runGate(t, &stubFlagChecker{}, "/sign-up", "user_1")

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/workoutplan" {
		t.Fatalf("unexpected redirect %q", got)
	}
}

func TestGateAllowsAnonymousSignUp(t *testing.T) {
	w := runGate(t, &stubFlagChecker{}, "/sign-up", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
