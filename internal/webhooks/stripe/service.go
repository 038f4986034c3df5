package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/flexfitapp/flexfit-backend/pkg/db"
	"github.com/flexfitapp/flexfit-backend/pkg/db/models"
	pkgerrors "github.com/flexfitapp/flexfit-backend/pkg/errors"
	"github.com/flexfitapp/flexfit-backend/pkg/logger"
	"github.com/flexfitapp/flexfit-backend/pkg/metrics"
)

type profileRepository interface {
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Profile, error)
	ActivateSubscription(ctx context.Context, userID, email, subscriptionID string, tier *string) error
	DeactivateSubscription(ctx context.Context, userID string) error
	ClearSubscription(ctx context.Context, userID string) error
}

type flagInvalidator interface {
	InvalidateFlag(ctx context.Context, userID string)
}

type ServiceParams struct {
	Repo    profileRepository
	Flags   flagInvalidator
	Metrics *metrics.BillingMetrics
	Logger  *logger.Logger
}

// Service reconciles provider-pushed billing state into profiles. Every write
// is an absolute overwrite keyed by user id or subscription id, so replayed
// and out-of-order deliveries converge on the provider's state.
type Service struct {
	repo    profileRepository
	flags   flagInvalidator
	metrics *metrics.BillingMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "profile repo required")
	}
	return &Service{
		repo:    params.Repo,
		flags:   params.Flags,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// HandleEvent dispatches a verified Stripe event. A nil return acknowledges
// the delivery; an error tells the caller to fail the request so the provider
// retries. Lookup misses are acknowledged, not retried: redelivery cannot fix
// an event that references state this service never had.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.observe(event, s.handleCheckoutCompleted(ctx, event))
	case stripe.EventTypeInvoicePaymentFailed:
		return s.observe(event, s.handlePaymentFailed(ctx, event))
	case stripe.EventTypeCustomerSubscriptionDeleted:
		return s.observe(event, s.handleSubscriptionDeleted(ctx, event))
	default:
		s.observeOutcome(event, "ignored")
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}

	userID := session.Metadata["user_id"]
	planKey := session.Metadata["plan_key"]
	subscriptionID := ""
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}

	if userID == "" || subscriptionID == "" {
		// The session was not created by this service (or metadata was
		// stripped). Retrying cannot recover the missing linkage.
		if s.logg != nil {
			s.logg.Warn(ctx, "checkout completed without user or subscription linkage, acknowledging")
		}
		return nil
	}

	var tier *string
	if planKey != "" {
		tier = &planKey
	}
	email := session.CustomerEmail
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		email = session.CustomerDetails.Email
	}
	if err := s.repo.ActivateSubscription(ctx, userID, email, subscriptionID, tier); err != nil {
		if db.IsUniqueViolation(err, "") {
			// The subscription id is already bound to another profile.
			// Redelivery cannot resolve that, so acknowledge instead of
			// feeding the provider's retry loop.
			if s.logg != nil {
				s.logg.Warn(s.logg.WithSubscriptionID(s.logg.WithUserID(ctx, userID), subscriptionID), "subscription already bound to another profile, acknowledging")
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate subscription")
	}
	s.invalidateFlag(ctx, userID)

	if s.logg != nil {
		s.logg.Info(s.logg.WithSubscriptionID(s.logg.WithUserID(ctx, userID), subscriptionID), "subscription activated from checkout")
	}
	return nil
}

func (s *Service) handlePaymentFailed(ctx context.Context, event *stripe.Event) error {
	subscriptionID := event.GetObjectValue("subscription")
	if subscriptionID == "" {
		if s.logg != nil {
			s.logg.Warn(ctx, "payment failure without subscription id, acknowledging")
		}
		return nil
	}

	profile, err := s.repo.FindBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithSubscriptionID(ctx, subscriptionID), "payment failure for unknown subscription, acknowledging")
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup profile by subscription")
	}

	if err := s.repo.DeactivateSubscription(ctx, profile.UserID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate subscription")
	}
	s.invalidateFlag(ctx, profile.UserID)

	if s.logg != nil {
		s.logg.Warn(s.logg.WithSubscriptionID(s.logg.WithUserID(ctx, profile.UserID), subscriptionID), "subscription deactivated after failed payment")
	}
	return nil
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
	}
	if sub.ID == "" {
		if s.logg != nil {
			s.logg.Warn(ctx, "subscription deletion without id, acknowledging")
		}
		return nil
	}

	profile, err := s.repo.FindBySubscriptionID(ctx, sub.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Already cleared, or never tracked. Deletion is terminal either way.
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup profile by subscription")
	}

	if err := s.repo.ClearSubscription(ctx, profile.UserID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear subscription")
	}
	s.invalidateFlag(ctx, profile.UserID)

	if s.logg != nil {
		s.logg.Info(s.logg.WithSubscriptionID(s.logg.WithUserID(ctx, profile.UserID), sub.ID), "subscription cleared after deletion")
	}
	return nil
}

func (s *Service) invalidateFlag(ctx context.Context, userID string) {
	if s.flags != nil {
		s.flags.InvalidateFlag(ctx, userID)
	}
}

func (s *Service) observe(event *stripe.Event, err error) error {
	if err != nil {
		s.observeOutcome(event, "failed")
		return err
	}
	s.observeOutcome(event, "processed")
	return nil
}

func (s *Service) observeOutcome(event *stripe.Event, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveWebhookEvent(string(event.Type), outcome)
	}
}
