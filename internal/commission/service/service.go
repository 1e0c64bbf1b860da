// Package service implements commission resolution: the effective fee for a
// completed transaction, combining optional per-partner overrides with the
// cached system default.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"offermarket_backend/internal/commission/repository"
	"offermarket_backend/platform/apperr"
)

// Commission types.
const (
	TypePercentage = "percentage"
	TypeFixed      = "fixed"
)

// Hard-coded fallback used when stored values are missing or unparseable.
const (
	DefaultRate = 10.0
	DefaultType = TypePercentage
)

// Validation bounds. Percentage rates are whole percents; fixed fees are in
// currency units.
const (
	MinRate  = 0.0
	MaxRate  = 100.0
	MaxFixed = 100000.0
)

// Resolved is an effective commission: rate plus how to apply it.
type Resolved struct {
	Rate float64
	Type string
}

// SettingsStore is the persistence port for the system default.
type SettingsStore interface {
	Get(ctx context.Context) (repository.Setting, error)
	Update(ctx context.Context, s repository.Setting) error
}

// Service resolves commissions. The system default is cached process-wide;
// see Cache for the staleness contract.
type Service struct {
	store SettingsStore
	cache *Cache
}

// New creates a commission service with a 60 second default cache TTL.
func New(store SettingsStore) *Service {
	return &Service{
		store: store,
		cache: NewCache(DefaultTTL),
	}
}

// NewWithCache creates a commission service with an injected cache.
// Used by tests to control the clock.
func NewWithCache(store SettingsStore, cache *Cache) *Service {
	return &Service{store: store, cache: cache}
}

// Resolve combines per-partner overrides with the system default. Rate and
// type resolve independently: a partner may override only one of the two.
func Resolve(rateOverride *float64, typeOverride *string, systemRate float64, systemType string) Resolved {
	resolved := Resolved{Rate: systemRate, Type: systemType}
	if rateOverride != nil {
		resolved.Rate = *rateOverride
	}
	if typeOverride != nil {
		resolved.Type = *typeOverride
	}
	return resolved
}

// ResolveForPartner resolves the effective commission for a partner using
// the cached system default.
func (s *Service) ResolveForPartner(ctx context.Context, rateOverride *float64, typeOverride *string) (Resolved, error) {
	system, err := s.systemDefault(ctx)
	if err != nil {
		return Resolved{}, err
	}
	return Resolve(rateOverride, typeOverride, system.Rate, system.Type), nil
}

// SystemDefault returns the current system-wide commission, served from
// cache within the TTL.
func (s *Service) SystemDefault(ctx context.Context) (Resolved, error) {
	return s.systemDefault(ctx)
}

func (s *Service) systemDefault(ctx context.Context) (Resolved, error) {
	if cached, ok := s.cache.Get(); ok {
		return cached, nil
	}

	setting, err := s.store.Get(ctx)
	if errors.Is(err, repository.ErrNoSetting) {
		// Not seeded yet: serve (and cache) the hard-coded default.
		fallback := Resolved{Rate: DefaultRate, Type: DefaultType}
		s.cache.Set(fallback)
		return fallback, nil
	}
	if err != nil {
		return Resolved{}, apperr.Wrap(apperr.KindInternal, "failed to load commission setting", err)
	}

	// Stored types predating validation may be invalid; normalize on read.
	resolved := Resolved{Rate: setting.Rate, Type: normalizeType(setting.Type)}
	s.cache.Set(resolved)
	return resolved, nil
}

// UpdateSystemDefault validates and persists a new system default, then
// write-through updates the cache so readers see it immediately.
func (s *Service) UpdateSystemDefault(ctx context.Context, rate float64, commissionType string) (Resolved, error) {
	if err := Validate(rate, commissionType); err != nil {
		return Resolved{}, err
	}

	if err := s.store.Update(ctx, repository.Setting{Rate: rate, Type: commissionType}); err != nil {
		return Resolved{}, apperr.Wrap(apperr.KindInternal, "failed to update commission setting", err)
	}

	resolved := Resolved{Rate: rate, Type: commissionType}
	s.cache.Set(resolved)
	return resolved, nil
}

// Invalidate clears the cached system default, forcing the next read to
// re-fetch from the store.
func (s *Service) Invalidate() {
	s.cache.Invalidate()
}

// Validate checks a commission value against the bounds for its type.
func Validate(rate float64, commissionType string) error {
	switch commissionType {
	case TypePercentage:
		if rate < MinRate || rate > MaxRate {
			return apperr.Validation(fmt.Sprintf("percentage rate must be between %v and %v", MinRate, MaxRate))
		}
	case TypeFixed:
		if rate < MinRate || rate > MaxFixed {
			return apperr.Validation(fmt.Sprintf("fixed rate must be between %v and %v", MinRate, MaxFixed))
		}
	default:
		return apperr.Validation("commission type must be percentage or fixed")
	}
	return nil
}

// Normalize maps the legacy stored shapes onto a Resolved value:
// a {rate, type} object passes through (invalid type defaults to percentage),
// a bare number is a percentage rate, a numeric string is parsed, and
// anything else falls back to the hard-coded default.
func Normalize(raw any) Resolved {
	switch v := raw.(type) {
	case map[string]any:
		rate, ok := toFloat(v["rate"])
		if !ok {
			return Resolved{Rate: DefaultRate, Type: DefaultType}
		}
		commissionType, _ := v["type"].(string)
		return Resolved{Rate: rate, Type: normalizeType(commissionType)}
	case float64:
		return Resolved{Rate: v, Type: TypePercentage}
	case int:
		return Resolved{Rate: float64(v), Type: TypePercentage}
	case int64:
		return Resolved{Rate: float64(v), Type: TypePercentage}
	case string:
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			return Resolved{Rate: rate, Type: TypePercentage}
		}
		return Resolved{Rate: DefaultRate, Type: DefaultType}
	default:
		return Resolved{Rate: DefaultRate, Type: DefaultType}
	}
}

func normalizeType(commissionType string) string {
	if commissionType == TypeFixed {
		return TypeFixed
	}
	return TypePercentage
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
