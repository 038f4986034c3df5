package profiles

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/flexfitapp/flexfit-backend/pkg/config"
	"github.com/flexfitapp/flexfit-backend/pkg/db/models"
	pkgerrors "github.com/flexfitapp/flexfit-backend/pkg/errors"
	"github.com/flexfitapp/flexfit-backend/pkg/logger"
	"github.com/flexfitapp/flexfit-backend/pkg/redis"
)

// Service is the read surface over profiles plus lazy creation. Subscription
// writes live in the coordinator, which owns those fields exclusively.
type Service interface {
	EnsureProfile(ctx context.Context, userID, email string) (*models.Profile, bool, error)
	Status(ctx context.Context, userID string) (*models.Profile, error)
	ActiveFlag(ctx context.Context, userID string) (bool, error)
	InvalidateFlag(ctx context.Context, userID string)
}

// ProfileFinder is the minimal repo surface the service reads through.
type ProfileFinder interface {
	CreateIfAbsent(ctx context.Context, profile *models.Profile) (bool, error)
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
}

// ServiceParams groups dependencies for the profile service.
type ServiceParams struct {
	Repo      ProfileFinder
	FlagCache redis.FlagCache
	GateCfg   config.GateConfig
	Logger    *logger.Logger
}

type service struct {
	repo      ProfileFinder
	flagCache redis.FlagCache
	gateCfg   config.GateConfig
	logg      *logger.Logger
}

// NewService builds a profile service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "profile repo required")
	}
	return &service{
		repo:      params.Repo,
		flagCache: params.FlagCache,
		gateCfg:   params.GateCfg,
		logg:      params.Logger,
	}, nil
}

// EnsureProfile creates the profile on first authenticated login. The call is
// idempotent: concurrent duplicates race on the user_id unique constraint and
// every caller observes the same row afterwards.
func (s *service) EnsureProfile(ctx context.Context, userID, email string) (*models.Profile, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	created, err := s.repo.CreateIfAbsent(ctx, &models.Profile{
		UserID: userID,
		Email:  email,
	})
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
	}

	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, created, nil
}

// Status returns the profile for the given user.
func (s *service) Status(ctx context.Context, userID string) (*models.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no profile found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}

// ActiveFlag answers the gate's question: does this user have an active
// subscription right now. A short-TTL cache keeps the hot path off the
// database; cache failures fall through to the store, and store failures
// surface so the gate can fail closed.
func (s *service) ActiveFlag(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	if s.flagCache != nil {
		cached, err := s.flagCache.Get(ctx, s.flagCache.GateFlagKey(userID))
		if err == nil {
			return cached == "1", nil
		}
		if !errors.Is(err, redis.Nil) && s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, userID), "gate flag cache read failed")
		}
	}

	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No profile means no subscription; not an error for the gate.
			s.cacheFlag(ctx, userID, false)
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	s.cacheFlag(ctx, userID, profile.SubscriptionActive)
	return profile.SubscriptionActive, nil
}

// InvalidateFlag drops the cached gate flag after any subscription write.
func (s *service) InvalidateFlag(ctx context.Context, userID string) {
	if s.flagCache == nil || strings.TrimSpace(userID) == "" {
		return
	}
	if err := s.flagCache.Del(ctx, s.flagCache.GateFlagKey(userID)); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID), "gate flag cache invalidation failed")
	}
}

func (s *service) cacheFlag(ctx context.Context, userID string, active bool) {
	if s.flagCache == nil {
		return
	}
	value := "0"
	if active {
		value = "1"
	}
	ttl := s.gateCfg.FlagCacheTTL
	if ttl <= 0 {
		return
	}
	if err := s.flagCache.Set(ctx, s.flagCache.GateFlagKey(userID), value, ttl); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID), "gate flag cache write failed")
	}
}
