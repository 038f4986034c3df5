package subscriptions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/flexfitapp/flexfit-backend/internal/plans"
	"github.com/flexfitapp/flexfit-backend/pkg/config"
	"github.com/flexfitapp/flexfit-backend/pkg/db/models"
	pkgerrors "github.com/flexfitapp/flexfit-backend/pkg/errors"
)

type stubProfileRepo struct {
	profile     *models.Profile
	activateErr error
	activations []activation
	cancelMarks []bool
	cancelErr   error
}

type activation struct {
	userID string
	email  string
	subID  string
	tier   string
}

func (r *stubProfileRepo) FindByUserID(_ context.Context, userID string) (*models.Profile, error) {
	if r.profile == nil || r.profile.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *r.profile
	return &copied, nil
}

func (r *stubProfileRepo) ActivateSubscription(_ context.Context, userID, email, subscriptionID string, tier *string) error {
	if r.activateErr != nil {
		return r.activateErr
	}
	var tierVal string
	if tier != nil {
		tierVal = *tier
	}
	r.activations = append(r.activations, activation{userID: userID, email: email, subID: subscriptionID, tier: tierVal})
	r.profile.StripeSubscriptionID = &subscriptionID
	r.profile.SubscriptionTier = tier
	r.profile.SubscriptionActive = true
	r.profile.CancelAtPeriodEnd = false
	return nil
}

func (r *stubProfileRepo) SetCancelAtPeriodEnd(_ context.Context, _ string, cancel bool) error {
	if r.cancelErr != nil {
		return r.cancelErr
	}
	r.cancelMarks = append(r.cancelMarks, cancel)
	r.profile.CancelAtPeriodEnd = cancel
	return nil
}

type stubStripe struct {
	sessions    []*stripe.CheckoutSessionParams
	sessionErr  error
	liveSub     *stripe.Subscription
	getErr      error
	updates     []*stripe.SubscriptionParams
	updatedSub  *stripe.Subscription
	updateErr   error
	updateCalls int
}

func (s *stubStripe) CreateCheckoutSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.sessions = append(s.sessions, params)
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/pay/cs_test_1"}, nil
}

func (s *stubStripe) GetSubscription(_ context.Context, _ string, _ *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.liveSub, nil
}

func (s *stubStripe) UpdateSubscription(_ context.Context, _ string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	s.updateCalls++
	s.updates = append(s.updates, params)
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.updatedSub, nil
}

type stubInvalidator struct {
	userIDs []string
}

func (s *stubInvalidator) InvalidateFlag(_ context.Context, userID string) {
	s.userIDs = append(s.userIDs, userID)
}

func testCatalog() *plans.Catalog {
	return plans.NewCatalog(config.StripeConfig{
		PriceWeekly:  "price_week",
		PriceMonthly: "price_month",
		PriceYearly:  "price_year",
	})
}

func newTestCoordinator(t *testing.T, repo *stubProfileRepo, gateway *stubStripe, flags *stubInvalidator) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Stripe:  gateway,
		Catalog: testCatalog(),
		Flags:   flags,
		AppCfg:  config.AppConfig{BaseURL: "https://flexfit.example"},
		GateCfg: config.GateConfig{SubscribePath: "/subscribe", ContentPath: "/workoutplan"},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func activeProfile(subID, tier string) *models.Profile {
	return &models.Profile{
		UserID:               "user_1",
		Email:                "a@example.com",
		StripeSubscriptionID: &subID,
		SubscriptionTier:     &tier,
		SubscriptionActive:   true,
	}
}

func TestInitiateCheckoutBuildsSession(t *testing.T) {
	gateway := &stubStripe{}
	svc := newTestCoordinator(t, &stubProfileRepo{}, gateway, nil)

	out, err := svc.InitiateCheckout(context.Background(), "user_1", "a@example.com", "month")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if out.ID != "cs_test_1" || out.URL == "" {
		t.Fatalf("unexpected session: %+v", out)
	}

	if len(gateway.sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(gateway.sessions))
	}
	params := gateway.sessions[0]
	if got := *params.LineItems[0].Price; got != "price_month" {
		t.Fatalf("unexpected price %q", got)
	}
	if params.Metadata["user_id"] != "user_1" || params.Metadata["plan_key"] != "month" {
		t.Fatalf("unexpected metadata %v", params.Metadata)
	}
	if !strings.Contains(*params.SuccessURL, "{CHECKOUT_SESSION_ID}") {
		t.Fatalf("success url must carry the session placeholder: %s", *params.SuccessURL)
	}
	if *params.CancelURL != "https://flexfit.example/subscribe" {
		t.Fatalf("unexpected cancel url %s", *params.CancelURL)
	}
	if *params.Mode != string(stripe.CheckoutSessionModeSubscription) {
		t.Fatalf("unexpected mode %s", *params.Mode)
	}
}

func TestInitiateCheckoutRejectsUnknownPlan(t *testing.T) {
	gateway := &stubStripe{}
	svc := newTestCoordinator(t, &stubProfileRepo{}, gateway, nil)

	_, err := svc.InitiateCheckout(context.Background(), "user_1", "a@example.com", "decade")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(gateway.sessions) != 0 {
		t.Fatal("gateway must not be called for an unknown plan")
	}
}

func TestInitiateCheckoutGatewayFailure(t *testing.T) {
	gateway := &stubStripe{sessionErr: errors.New("stripe down")}
	svc := newTestCoordinator(t, &stubProfileRepo{}, gateway, nil)

	_, err := svc.InitiateCheckout(context.Background(), "user_1", "a@example.com", "week")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestChangePlanPersistsRefreshedSubscription(t *testing.T) {
	repo := &stubProfileRepo{profile: activeProfile("sub_old", "month")}
	gateway := &stubStripe{
		liveSub: &stripe.Subscription{
			ID: "sub_old",
			Items: &stripe.SubscriptionItemList{
				Data: []*stripe.SubscriptionItem{{ID: "si_1"}},
			},
		},
		updatedSub: &stripe.Subscription{ID: "sub_new"},
	}
	flags := &stubInvalidator{}
	svc := newTestCoordinator(t, repo, gateway, flags)

	profile, err := svc.ChangePlan(context.Background(), "user_1", "year")
	if err != nil {
		t.Fatalf("change plan: %v", err)
	}

	if len(gateway.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(gateway.updates))
	}
	update := gateway.updates[0]
	if got := *update.Items[0].ID; got != "si_1" {
		t.Fatalf("unexpected item id %q", got)
	}
	if got := *update.Items[0].Price; got != "price_year" {
		t.Fatalf("unexpected price %q", got)
	}
	if *update.CancelAtPeriodEnd {
		t.Fatal("plan change must clear cancel_at_period_end")
	}
	if *update.ProrationBehavior != "create_prorations" {
		t.Fatalf("unexpected proration behavior %s", *update.ProrationBehavior)
	}

	if len(repo.activations) != 1 {
		t.Fatalf("expected one activation, got %d", len(repo.activations))
	}
	act := repo.activations[0]
	if act.subID != "sub_new" || act.tier != "year" {
		t.Fatalf("unexpected activation %+v", act)
	}
	if *profile.StripeSubscriptionID != "sub_new" {
		t.Fatalf("refreshed sub id not persisted: %+v", profile)
	}
	if len(flags.userIDs) != 1 || flags.userIDs[0] != "user_1" {
		t.Fatalf("gate flag not invalidated: %v", flags.userIDs)
	}
}

func TestChangePlanGatewayFailureLeavesProfileUntouched(t *testing.T) {
	repo := &stubProfileRepo{profile: activeProfile("sub_old", "month")}
	gateway := &stubStripe{
		liveSub: &stripe.Subscription{
			ID: "sub_old",
			Items: &stripe.SubscriptionItemList{
				Data: []*stripe.SubscriptionItem{{ID: "si_1"}},
			},
		},
		updateErr: errors.New("card declined"),
	}
	svc := newTestCoordinator(t, repo, gateway, nil)

	_, err := svc.ChangePlan(context.Background(), "user_1", "year")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(repo.activations) != 0 {
		t.Fatal("profile must not change when the gateway rejects the update")
	}
	if *repo.profile.SubscriptionTier != "month" {
		t.Fatalf("tier mutated: %+v", repo.profile)
	}
}

func TestChangePlanWithoutSubscription(t *testing.T) {
	repo := &stubProfileRepo{profile: &models.Profile{UserID: "user_1", Email: "a@example.com"}}
	gateway := &stubStripe{}
	svc := newTestCoordinator(t, repo, gateway, nil)

	_, err := svc.ChangePlan(context.Background(), "user_1", "year")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if gateway.updateCalls != 0 {
		t.Fatal("gateway must not be called without a subscription")
	}
}

func TestUnsubscribeSchedulesCancellation(t *testing.T) {
	repo := &stubProfileRepo{profile: activeProfile("sub_123", "month")}
	gateway := &stubStripe{updatedSub: &stripe.Subscription{ID: "sub_123", CancelAtPeriodEnd: true}}
	flags := &stubInvalidator{}
	svc := newTestCoordinator(t, repo, gateway, flags)

	profile, err := svc.Unsubscribe(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}

	if len(gateway.updates) != 1 || !*gateway.updates[0].CancelAtPeriodEnd {
		t.Fatalf("expected a cancel_at_period_end update, got %+v", gateway.updates)
	}

	// Soft cancel: access persists until the deletion webhook fires.
	if !profile.SubscriptionActive {
		t.Fatal("subscription must stay active until period end")
	}
	if *profile.StripeSubscriptionID != "sub_123" || *profile.SubscriptionTier != "month" {
		t.Fatalf("subscription fields must survive: %+v", profile)
	}
	if !profile.CancelAtPeriodEnd {
		t.Fatal("pending-cancellation marker not set")
	}
	if len(flags.userIDs) != 1 {
		t.Fatalf("gate flag not invalidated: %v", flags.userIDs)
	}
}

func TestUnsubscribeWithoutSubscription(t *testing.T) {
	repo := &stubProfileRepo{profile: &models.Profile{UserID: "user_1"}}
	gateway := &stubStripe{}
	svc := newTestCoordinator(t, repo, gateway, nil)

	_, err := svc.Unsubscribe(context.Background(), "user_1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if gateway.updateCalls != 0 {
		t.Fatal("gateway must not be called without a subscription")
	}
}

func TestUnsubscribeMissingProfile(t *testing.T) {
	svc := newTestCoordinator(t, &stubProfileRepo{}, &stubStripe{}, nil)

	_, err := svc.Unsubscribe(context.Background(), "user_ghost")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
