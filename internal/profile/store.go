// Package profile owns the single user profile: onboarding creates it, every
// other component only reads it.
package profile

import (
	"context"
	"fmt"
	"sync"
	"time"

	logpkg "github.com/benvon/fitness-buddy/internal/logger"
	"github.com/benvon/fitness-buddy/internal/models"
	"github.com/benvon/fitness-buddy/internal/storage"
	"github.com/benvon/fitness-buddy/internal/validation"
	"go.uber.org/zap"
)

// Store holds the current profile and writes it through to the gateway
type Store struct {
	gw     storage.Gateway
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *models.UserProfile
}

// NewStore creates a profile store backed by gw
func NewStore(gw storage.Gateway, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{gw: gw, logger: logger, now: time.Now}
}

// SetClock replaces the clock used to stamp join dates
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Load reads the stored profile. A missing or unreadable record leaves the
// store without a profile; the caller then shows onboarding.
func (s *Store) Load(ctx context.Context) *models.UserProfile {
	var p *models.UserProfile
	found, err := storage.LoadJSON(ctx, s.gw, storage.KeyProfile, &p)
	if err != nil {
		s.logger.Warn("profile_load_failed",
			zap.Bool("found", found),
			zap.Error(err))
		p = nil
	}
	if p != nil {
		p = s.checkLoaded(p)
	}

	s.mu.Lock()
	s.current = p
	s.mu.Unlock()

	if p != nil {
		s.logger.Debug("profile_loaded",
			zap.String("fitness_level", string(p.FitnessLevel)),
			zap.String("goal", string(p.Goal)))
	}
	return p.Clone()
}

// checkLoaded resets unknown enum values to the onboarding defaults and
// drops a profile whose required fields are missing.
func (s *Store) checkLoaded(p *models.UserProfile) *models.UserProfile {
	if err := validation.ValidateFitnessLevel(string(p.FitnessLevel)); err != nil {
		s.logger.Warn("profile_field_reset",
			zap.String("field", "fitnessLevel"),
			zap.String("value", logpkg.SanitizeString(string(p.FitnessLevel), 64)),
			zap.String("reason", logpkg.SanitizeError(err)))
		p.FitnessLevel = models.FitnessLevelBeginner
	}
	if err := validation.ValidateGoal(string(p.Goal)); err != nil {
		s.logger.Warn("profile_field_reset",
			zap.String("field", "goal"),
			zap.String("value", logpkg.SanitizeString(string(p.Goal), 64)),
			zap.String("reason", logpkg.SanitizeError(err)))
		p.Goal = models.GoalWeightLoss
	}
	if !p.Gender.Valid() {
		p.Gender = models.GenderMale
	}

	if err := validation.ValidateStruct(p); err != nil {
		s.logger.Warn("profile_invalid", zap.String("reason", logpkg.SanitizeError(err)))
		return nil
	}
	return p
}

// Create validates draft, stamps the join date and persists the resulting
// profile before accepting it.
func (s *Store) Create(ctx context.Context, draft models.ProfileDraft) (*models.UserProfile, error) {
	if err := validation.ValidateProfileDraft(&draft); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := draft.ToProfile(s.now().UTC())
	if err := storage.SaveJSON(ctx, s.gw, storage.KeyProfile, p); err != nil {
		s.logger.Error("profile_save_failed", zap.Error(err))
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	s.current = p

	s.logger.Info("profile_created",
		zap.String("fitness_level", string(p.FitnessLevel)),
		zap.String("goal", string(p.Goal)),
		zap.Int("equipment_count", len(p.Equipment)))
	return p.Clone(), nil
}

// Current returns a copy of the profile, or nil before onboarding
func (s *Store) Current() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}
