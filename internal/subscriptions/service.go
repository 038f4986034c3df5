package subscriptions

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/flexfitapp/flexfit-backend/internal/plans"
	"github.com/flexfitapp/flexfit-backend/pkg/config"
	"github.com/flexfitapp/flexfit-backend/pkg/db/models"
	pkgerrors "github.com/flexfitapp/flexfit-backend/pkg/errors"
	"github.com/flexfitapp/flexfit-backend/pkg/logger"
)

// profileRepository is the profile persistence surface the coordinator
// writes through. It is the only writer of subscription fields.
type profileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	ActivateSubscription(ctx context.Context, userID, email, subscriptionID string, tier *string) error
	SetCancelAtPeriodEnd(ctx context.Context, userID string, cancel bool) error
}

// flagInvalidator drops the cached gate flag after a subscription write.
type flagInvalidator interface {
	InvalidateFlag(ctx context.Context, userID string)
}

// CheckoutSession is the coordinator's view of a created checkout: the id the
// success page echoes back and the hosted payment URL to redirect to.
type CheckoutSession struct {
	ID  string `json:"session_id"`
	URL string `json:"checkout_url"`
}

// Service defines the subscription lifecycle surface.
type Service interface {
	InitiateCheckout(ctx context.Context, userID, email, planKey string) (*CheckoutSession, error)
	ChangePlan(ctx context.Context, userID, planKey string) (*models.Profile, error)
	Unsubscribe(ctx context.Context, userID string) (*models.Profile, error)
}

// ServiceParams groups dependencies for the subscription coordinator.
type ServiceParams struct {
	Repo    profileRepository
	Stripe  StripeBillingClient
	Catalog *plans.Catalog
	Flags   flagInvalidator
	AppCfg  config.AppConfig
	GateCfg config.GateConfig
	Logger  *logger.Logger
}

type service struct {
	repo    profileRepository
	stripe  StripeBillingClient
	catalog *plans.Catalog
	flags   flagInvalidator
	appCfg  config.AppConfig
	gateCfg config.GateConfig
	logg    *logger.Logger
}

// NewService builds a subscription coordinator with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "profile repo required")
	}
	if params.Stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "plan catalog required")
	}
	return &service{
		repo:    params.Repo,
		stripe:  params.Stripe,
		catalog: params.Catalog,
		flags:   params.Flags,
		appCfg:  params.AppCfg,
		gateCfg: params.GateCfg,
		logg:    params.Logger,
	}, nil
}

// InitiateCheckout validates the plan and opens a subscription-mode checkout
// session at Stripe. Nothing is written locally; the profile only changes when
// the checkout.session.completed webhook lands.
func (s *service) InitiateCheckout(ctx context.Context, userID, email, planKey string) (*CheckoutSession, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	priceID, ok := s.catalog.PriceID(planKey)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown plan")
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.appCfg.BaseURL + s.gateCfg.ContentPath + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.appCfg.BaseURL + s.gateCfg.SubscribePath),
		// Echoed back on checkout.session.completed; reconciliation keys
		// the profile write off this, not off the authed request.
		Metadata: map[string]string{
			"user_id":  userID,
			"plan_key": planKey,
		},
	}
	if email = strings.TrimSpace(email); email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	created, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, userID), "checkout session created")
	}
	return &CheckoutSession{ID: created.ID, URL: created.URL}, nil
}

// ChangePlan swaps the single line item of the user's live subscription to the
// new plan's price, prorating the difference. The local write happens only
// after the gateway accepts the update, so a gateway failure leaves the
// profile untouched.
func (s *service) ChangePlan(ctx context.Context, userID, planKey string) (*models.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	priceID, ok := s.catalog.PriceID(planKey)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown plan")
	}

	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.StripeSubscriptionID == nil || *profile.StripeSubscriptionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "no subscription to change")
	}
	subID := *profile.StripeSubscriptionID

	live, err := s.stripe.GetSubscription(ctx, subID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get subscription")
	}
	if live == nil || live.Items == nil || len(live.Items.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscription has no line items")
	}

	updated, err := s.stripe.UpdateSubscription(ctx, subID, &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(live.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
		CancelAtPeriodEnd: stripe.Bool(false),
		ProrationBehavior: stripe.String("create_prorations"),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
	}

	// Stripe may report a different subscription id after the update in some
	// migration paths; persist whatever the gateway answered with.
	refreshedID := subID
	if updated != nil && updated.ID != "" {
		refreshedID = updated.ID
	}

	tier := planKey
	if err := s.repo.ActivateSubscription(ctx, userID, profile.Email, refreshedID, &tier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist plan change")
	}
	s.invalidateFlag(ctx, userID)

	if s.logg != nil {
		s.logg.Info(s.logg.WithSubscriptionID(s.logg.WithUserID(ctx, userID), refreshedID), "plan changed")
	}
	return s.loadProfile(ctx, userID)
}

// Unsubscribe schedules cancellation at period end. The gateway keeps the
// subscription alive until then, so the local fields stay as they are and
// only the pending-cancellation marker flips; the eventual
// customer.subscription.deleted webhook clears the rest.
func (s *service) Unsubscribe(ctx context.Context, userID string) (*models.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.StripeSubscriptionID == nil || *profile.StripeSubscriptionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "no subscription to cancel")
	}
	subID := *profile.StripeSubscriptionID

	if _, err := s.stripe.UpdateSubscription(ctx, subID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel subscription")
	}

	if err := s.repo.SetCancelAtPeriodEnd(ctx, userID, true); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cancellation marker")
	}
	s.invalidateFlag(ctx, userID)

	if s.logg != nil {
		s.logg.Info(s.logg.WithSubscriptionID(s.logg.WithUserID(ctx, userID), subID), "subscription cancellation scheduled")
	}
	return s.loadProfile(ctx, userID)
}

func (s *service) loadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no profile found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}

func (s *service) invalidateFlag(ctx context.Context, userID string) {
	if s.flags != nil {
		s.flags.InvalidateFlag(ctx, userID)
	}
}
