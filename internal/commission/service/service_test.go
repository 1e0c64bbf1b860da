package service

import (
	"context"
	"testing"
	"time"

	"offermarket_backend/internal/commission/repository"
	"offermarket_backend/platform/apperr"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestResolveWithoutOverridesIsIdentity(t *testing.T) {
	resolved := Resolve(nil, nil, 15, TypeFixed)
	if resolved.Rate != 15 || resolved.Type != TypeFixed {
		t.Fatalf("expected {15 fixed}, got %+v", resolved)
	}
}

func TestResolveRateOverrideTakesPrecedence(t *testing.T) {
	resolved := Resolve(floatPtr(7), nil, 5, TypePercentage)
	if resolved.Rate != 7 {
		t.Fatalf("expected override rate 7, got %v", resolved.Rate)
	}
	if resolved.Type != TypePercentage {
		t.Fatalf("expected system type to survive, got %q", resolved.Type)
	}
}

func TestResolveFieldsResolveIndependently(t *testing.T) {
	resolved := Resolve(nil, strPtr(TypeFixed), 5, TypePercentage)
	if resolved.Rate != 5 {
		t.Fatalf("expected system rate 5, got %v", resolved.Rate)
	}
	if resolved.Type != TypeFixed {
		t.Fatalf("expected override type fixed, got %q", resolved.Type)
	}
}

func TestNormalizeBareNumber(t *testing.T) {
	resolved := Normalize(25.0)
	if resolved.Rate != 25 || resolved.Type != TypePercentage {
		t.Fatalf("expected {25 percentage}, got %+v", resolved)
	}
}

func TestNormalizeObjectPassesThrough(t *testing.T) {
	resolved := Normalize(map[string]any{"rate": 300.0, "type": "fixed"})
	if resolved.Rate != 300 || resolved.Type != TypeFixed {
		t.Fatalf("expected {300 fixed}, got %+v", resolved)
	}
}

func TestNormalizeObjectWithInvalidTypeDefaultsToPercentage(t *testing.T) {
	resolved := Normalize(map[string]any{"rate": 12.0, "type": "bogus"})
	if resolved.Rate != 12 || resolved.Type != TypePercentage {
		t.Fatalf("expected {12 percentage}, got %+v", resolved)
	}
}

func TestNormalizeNumericString(t *testing.T) {
	resolved := Normalize("17.5")
	if resolved.Rate != 17.5 || resolved.Type != TypePercentage {
		t.Fatalf("expected {17.5 percentage}, got %+v", resolved)
	}
}

func TestNormalizeGarbageFallsBackToDefault(t *testing.T) {
	resolved := Normalize("abc")
	if resolved.Rate != DefaultRate || resolved.Type != DefaultType {
		t.Fatalf("expected hard-coded default, got %+v", resolved)
	}

	resolved = Normalize(nil)
	if resolved.Rate != DefaultRate || resolved.Type != DefaultType {
		t.Fatalf("expected hard-coded default for nil, got %+v", resolved)
	}
}

func TestValidateBounds(t *testing.T) {
	if err := Validate(50, TypePercentage); err != nil {
		t.Fatalf("expected 50%% to be valid, got %v", err)
	}
	if err := Validate(101, TypePercentage); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for 101%%, got %v", err)
	}
	if err := Validate(100000, TypeFixed); err != nil {
		t.Fatalf("expected fixed 100000 to be valid, got %v", err)
	}
	if err := Validate(100001, TypeFixed); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for oversized fixed fee, got %v", err)
	}
	if err := Validate(-1, TypeFixed); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for negative rate, got %v", err)
	}
	if err := Validate(10, "weekly"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown type, got %v", err)
	}
}

// fakeStore counts reads so the cache behavior is observable.
type fakeStore struct {
	setting repository.Setting
	missing bool
	gets    int
	updates int
}

func (s *fakeStore) Get(ctx context.Context) (repository.Setting, error) {
	s.gets++
	if s.missing {
		return repository.Setting{}, repository.ErrNoSetting
	}
	return s.setting, nil
}

func (s *fakeStore) Update(ctx context.Context, setting repository.Setting) error {
	s.updates++
	s.setting = setting
	s.missing = false
	return nil
}

func TestSystemDefaultIsCachedWithinTTL(t *testing.T) {
	store := &fakeStore{setting: repository.Setting{Rate: 12, Type: TypePercentage}}
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCacheWithClock(DefaultTTL, func() time.Time { return clock })
	svc := NewWithCache(store, cache)

	for i := 0; i < 3; i++ {
		resolved, err := svc.SystemDefault(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resolved.Rate != 12 {
			t.Fatalf("expected rate 12, got %v", resolved.Rate)
		}
	}

	if store.gets != 1 {
		t.Fatalf("expected a single store read within TTL, got %d", store.gets)
	}
}

func TestSystemDefaultRefetchesAfterTTLExpiry(t *testing.T) {
	store := &fakeStore{setting: repository.Setting{Rate: 12, Type: TypePercentage}}
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCacheWithClock(DefaultTTL, func() time.Time { return clock })
	svc := NewWithCache(store, cache)

	if _, err := svc.SystemDefault(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock = clock.Add(DefaultTTL + time.Second)
	store.setting.Rate = 20

	resolved, err := svc.SystemDefault(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Rate != 20 {
		t.Fatalf("expected refetched rate 20, got %v", resolved.Rate)
	}
	if store.gets != 2 {
		t.Fatalf("expected 2 store reads, got %d", store.gets)
	}
}

func TestUpdateWritesThroughCache(t *testing.T) {
	store := &fakeStore{setting: repository.Setting{Rate: 12, Type: TypePercentage}}
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCacheWithClock(DefaultTTL, func() time.Time { return clock })
	svc := NewWithCache(store, cache)

	if _, err := svc.UpdateSystemDefault(context.Background(), 8, TypeFixed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolved, err := svc.SystemDefault(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Rate != 8 || resolved.Type != TypeFixed {
		t.Fatalf("expected cached {8 fixed}, got %+v", resolved)
	}
	if store.gets != 0 {
		t.Fatalf("expected no store read after write-through, got %d", store.gets)
	}
}

func TestUpdateRejectsInvalidRateBeforePersistence(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)

	_, err := svc.UpdateSystemDefault(context.Background(), 150, TypePercentage)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.updates != 0 {
		t.Fatalf("expected no persistence call on validation failure, got %d", store.updates)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	store := &fakeStore{setting: repository.Setting{Rate: 12, Type: TypePercentage}}
	svc := New(store)

	if _, err := svc.SystemDefault(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.Invalidate()
	if _, err := svc.SystemDefault(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.gets != 2 {
		t.Fatalf("expected refetch after invalidate, got %d reads", store.gets)
	}
}

func TestMissingSettingFallsBackToDefault(t *testing.T) {
	store := &fakeStore{missing: true}
	svc := New(store)

	resolved, err := svc.SystemDefault(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Rate != DefaultRate || resolved.Type != DefaultType {
		t.Fatalf("expected hard-coded default, got %+v", resolved)
	}
}
