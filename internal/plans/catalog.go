package plans

import (
	"github.com/shopspring/decimal"

	"github.com/flexfitapp/flexfit-backend/pkg/config"
	"github.com/flexfitapp/flexfit-backend/pkg/enums"
)

// Plan is a static catalog entry. Nothing here is persisted; the catalog is
// wired from config at boot and immutable afterwards.
type Plan struct {
	Interval    enums.BillingInterval `json:"interval"`
	Name        string                `json:"name"`
	Amount      decimal.Decimal       `json:"amount"`
	Currency    string                `json:"currency"`
	IsPopular   bool                  `json:"is_popular,omitempty"`
	Description string                `json:"description"`
	Features    []string              `json:"features"`
}

// Catalog maps plan intervals to Stripe price ids and display metadata.
type Catalog struct {
	priceIDs map[enums.BillingInterval]string
	plans    []Plan
}

// NewCatalog builds the catalog from the configured Stripe price ids.
func NewCatalog(cfg config.StripeConfig) *Catalog {
	return &Catalog{
		priceIDs: map[enums.BillingInterval]string{
			enums.BillingIntervalWeek:  cfg.PriceWeekly,
			enums.BillingIntervalMonth: cfg.PriceMonthly,
			enums.BillingIntervalYear:  cfg.PriceYearly,
		},
		plans: availablePlans(),
	}
}

// PriceID resolves a plan key to the Stripe price id. The boolean is false for
// any key outside the closed interval set or any interval without a configured
// price; callers treat both as "invalid plan input", never as a panic.
func (c *Catalog) PriceID(planKey string) (string, bool) {
	interval, err := enums.ParseBillingInterval(planKey)
	if err != nil {
		return "", false
	}
	priceID, ok := c.priceIDs[interval]
	if !ok || priceID == "" {
		return "", false
	}
	return priceID, true
}

// Contains reports whether planKey names a sellable plan.
func (c *Catalog) Contains(planKey string) bool {
	_, ok := c.PriceID(planKey)
	return ok
}

// Available returns the display list for the subscribe page.
func (c *Catalog) Available() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

func availablePlans() []Plan {
	return []Plan{
		{
			Interval:    enums.BillingIntervalWeek,
			Name:        "Weekly Plan",
			Amount:      decimal.RequireFromString("0.99"),
			Currency:    "CAD",
			Description: "Perfect for getting started with personalized fitness",
			Features: []string{
				"Unlimited AI Workout Plans",
				"Personalized Weekly Schedules",
				"Cancel Anytime",
			},
		},
		{
			Interval:    enums.BillingIntervalMonth,
			Name:        "Monthly Plan",
			Amount:      decimal.RequireFromString("2.99"),
			Currency:    "CAD",
			IsPopular:   true,
			Description: "Great for building consistent habits",
			Features: []string{
				"Unlimited AI Workout Plans",
				"Personalized Monthly Schedules",
				"Daily Workout Structure",
				"Cancel Anytime",
			},
		},
		{
			Interval:    enums.BillingIntervalYear,
			Name:        "Yearly Plan",
			Amount:      decimal.RequireFromString("19.99"),
			Currency:    "CAD",
			Description: "Best value for serious fitness enthusiasts pushing limits",
			Features: []string{
				"Unlimited AI Workout Plans",
				"Personalized Monthly Schedules",
				"Daily Workout Structure",
				"Cancel Anytime",
			},
		},
	}
}
