package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the local record of a user's subscription state, keyed by the
// identity provider's user id. Subscription fields are written only by the
// subscription coordinator; everything else reads.
//
// StripeSubscriptionID carries a unique index so webhook events that only
// carry a subscription id resolve to exactly one profile.
type Profile struct {
	ID                   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID               string    `gorm:"column:user_id;not null;uniqueIndex"`
	Email                string    `gorm:"column:email;not null"`
	SubscriptionTier     *string   `gorm:"column:subscription_tier"`
	StripeSubscriptionID *string   `gorm:"column:stripe_subscription_id;uniqueIndex"`
	SubscriptionActive   bool      `gorm:"column:subscription_active;not null;default:false"`
	CancelAtPeriodEnd    bool      `gorm:"column:cancel_at_period_end;not null;default:false"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
