package profiles

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/flexfitapp/flexfit-backend/pkg/db/models"
)

// Repository exposes profile persistence. Every mutation is a single
// conditional UPDATE keyed by a unique column; cross-record consistency is
// delegated to the database, not to application locking.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a profiles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateIfAbsent inserts the profile unless one already exists for the user.
// The unique constraint on user_id is the concurrency guard: two racing first
// logins both succeed and exactly one row lands. Returns true when this call
// created the row.
func (r *Repository) CreateIfAbsent(ctx context.Context, profile *models.Profile) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(profile)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByUserID retrieves the profile for the identity provider's user id.
func (r *Repository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindBySubscriptionID resolves the profile owning a Stripe subscription id.
// Only webhook reconciliation uses this reverse lookup.
func (r *Repository) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("stripe_subscription_id = ?", subscriptionID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// ActivateSubscription upserts the active subscription state keyed by
// user_id. The row is created from the checkout's customer email when the
// webhook lands before the first authenticated visit; an existing row keeps
// its email and only the subscription fields are overwritten, so replays
// converge. Used by both checkout completion and plan changes.
func (r *Repository) ActivateSubscription(ctx context.Context, userID, email, subscriptionID string, tier *string) error {
	profile := &models.Profile{
		UserID:               userID,
		Email:                email,
		SubscriptionTier:     tier,
		StripeSubscriptionID: &subscriptionID,
		SubscriptionActive:   true,
		CancelAtPeriodEnd:    false,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"stripe_subscription_id",
				"subscription_tier",
				"subscription_active",
				"cancel_at_period_end",
				"updated_at",
			}),
		}).
		Create(profile).Error
}

// SetCancelAtPeriodEnd flips the pending-cancellation marker without touching
// the rest of the subscription state.
func (r *Repository) SetCancelAtPeriodEnd(ctx context.Context, userID string, cancel bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		UpdateColumn("cancel_at_period_end", cancel).Error
}

// DeactivateSubscription marks the subscription unpaid while it still exists
// provider-side: the active flag drops, the subscription id and tier stay.
func (r *Repository) DeactivateSubscription(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		UpdateColumn("subscription_active", false).Error
}

// ClearSubscription wipes all subscription state after the provider confirms
// the subscription is gone.
func (r *Repository) ClearSubscription(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"stripe_subscription_id": nil,
			"subscription_tier":      nil,
			"subscription_active":    false,
			"cancel_at_period_end":   false,
		}).Error
}
