package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pizzeria-backend/config"
	"pizzeria-backend/internal/domain"
	infracache "pizzeria-backend/internal/infrastructure/cache"
	"pizzeria-backend/internal/tariff"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu  sync.Mutex
	cfg domain.ZoneTableConfig
	err error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) LoadZones(context.Context) (domain.ZoneTableConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.err
}

func (s *stubSource) set(cfg domain.ZoneTableConfig, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg, s.err = cfg, err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func zoneTable(version string, fee string) domain.ZoneTableConfig {
	return domain.ZoneTableConfig{
		Version: version,
		Zones: []domain.ZoneRecord{
			{
				ID:                    "zone-1",
				DisplayName:           "Zone 1",
				PostalCodes:           []string{"44225", "44227"},
				MinimumOrderValue:     dec("12.00"),
				DeliveryFee:           dec(fee),
				FreeDeliveryThreshold: dec("50.00"),
				IsActive:              true,
				Priority:              10,
			},
			{
				ID:                    "campus",
				DisplayName:           "Campus",
				PostalCodes:           []string{"44149"},
				MinimumOrderValue:     dec("12.00"),
				DeliveryFee:           decimal.Zero,
				FreeDeliveryThreshold: decimal.Zero,
				IsActive:              true,
			},
		},
		Pickup: domain.PickupConfig{Sentinel: "pickup", DisplayName: "Abholung"},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		ZoneReloadTimeout:  time.Second,
		CacheTariffTTL:     30 * time.Minute,
		CacheValidationTTL: 30 * time.Minute,
		CacheMaxEntries:    500,
	}
}

func setupUsecase(t *testing.T) (*TariffUsecase, *stubSource) {
	t.Helper()
	src := &stubSource{cfg: zoneTable("v1", "1.00")}
	uc, err := NewTariffUsecase(context.Background(), src,
		infracache.NewMemoryCache(500), infracache.NewMemoryCache(500), testConfig())
	require.NoError(t, err)
	return uc, src
}

func statsByName(uc *TariffUsecase, name string) (hits, misses uint64, entries int) {
	for _, s := range uc.CacheStats() {
		if s.Name == name {
			return s.Hits, s.Misses, s.Entries
		}
	}
	return 0, 0, -1
}

func TestNewTariffUsecase_InvalidTableFails(t *testing.T) {
	cfg := zoneTable("v1", "1.00")
	cfg.Zones[1].PostalCodes = []string{"44225"}

	_, err := NewTariffUsecase(context.Background(), &stubSource{cfg: cfg},
		infracache.NewMemoryCache(10), infracache.NewMemoryCache(10), testConfig())
	assert.ErrorIs(t, err, tariff.ErrConfiguration)
}

func TestNewTariffUsecase_SourceErrorFails(t *testing.T) {
	_, err := NewTariffUsecase(context.Background(), &stubSource{err: errors.New("bucket missing")},
		infracache.NewMemoryCache(10), infracache.NewMemoryCache(10), testConfig())
	assert.ErrorContains(t, err, "load zones from stub: bucket missing")
}

func TestValidatePostalCode_CachesByNormalizedInput(t *testing.T) {
	uc, _ := setupUsecase(t)

	first := uc.ValidatePostalCode(" 44225 ")
	second := uc.ValidatePostalCode("44225")
	assert.Equal(t, first, second)
	assert.True(t, second.IsValid)

	hits, misses, entries := statsByName(uc, NamespaceValidation)
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 1, entries)

	// the pickup sentinel folds to one key regardless of case
	uc.ValidatePostalCode("PICKUP")
	res := uc.ValidatePostalCode("pickup")
	assert.True(t, res.IsValid)
	hits, _, _ = statsByName(uc, NamespaceValidation)
	assert.Equal(t, uint64(2), hits)
}

func TestCalculateFee_CachedResultIsIdentical(t *testing.T) {
	uc, _ := setupUsecase(t)

	first := uc.CalculateFee("44225", dec("20"))
	second := uc.CalculateFee("44225", dec("20.00"))
	assert.Equal(t, first, second)
	assert.Equal(t, "1.00", second.Fee.StringFixed(2))

	hits, misses, _ := statsByName(uc, NamespaceTariff)
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestCalculateFee_SubtotalRoundedBeforePricing(t *testing.T) {
	uc, _ := setupUsecase(t)

	// 49.995 rounds to 50.00 which reaches the free delivery threshold
	calc := uc.CalculateFee("44225", dec("49.995"))
	assert.True(t, calc.IsFreeDelivery)
	assert.Equal(t, "50.00", calc.Subtotal.StringFixed(2))

	again := uc.CalculateFee("44225", dec("50"))
	assert.Equal(t, calc, again)
}

func TestReload_InvalidTableKeepsCurrent(t *testing.T) {
	uc, src := setupUsecase(t)
	uc.CalculateFee("44225", dec("20"))

	bad := zoneTable("v2", "-1.00")
	src.set(bad, nil)

	info, err := uc.Reload(context.Background())
	require.ErrorIs(t, err, tariff.ErrConfiguration)
	assert.Equal(t, "v1", info.Version)
	assert.Equal(t, "v1", uc.Info().Version)

	calc := uc.CalculateFee("44225", dec("20"))
	assert.Equal(t, "1.00", calc.Fee.StringFixed(2))
	_, _, entries := statsByName(uc, NamespaceTariff)
	assert.Equal(t, 1, entries, "failed reload leaves caches alone")
}

func TestReload_SwapsTableAndInvalidates(t *testing.T) {
	uc, src := setupUsecase(t)
	uc.ValidatePostalCode("44225")
	uc.CalculateFee("44225", dec("20"))

	src.set(zoneTable("v2", "2.50"), nil)
	info, err := uc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", info.Version)
	assert.Equal(t, "stub", info.Source)
	assert.Equal(t, 2, info.ActiveZones)
	assert.Equal(t, 3, info.PostalCodes)

	for _, s := range uc.CacheStats() {
		assert.Zero(t, s.Entries, s.Name)
	}

	calc := uc.CalculateFee("44225", dec("20"))
	assert.Equal(t, "2.50", calc.Fee.StringFixed(2))
}

func TestQuote_Messages(t *testing.T) {
	uc, _ := setupUsecase(t)

	tests := []struct {
		name       string
		postalCode string
		subtotal   string
		wantCalc   bool
		want       []string
	}{
		{
			name:       "empty",
			postalCode: "  ",
			subtotal:   "10",
			want:       []string{"Bitte gib deine Postleitzahl ein."},
		},
		{
			name:       "wrong format",
			postalCode: "4422",
			subtotal:   "10",
			want:       []string{"Die Postleitzahl muss aus genau 5 Ziffern bestehen."},
		},
		{
			name:       "not covered",
			postalCode: "10115",
			subtotal:   "10",
			want:       []string{"Wir liefern leider nicht nach 10115. Du kannst deine Bestellung aber gerne bei uns abholen."},
		},
		{
			name:       "below minimum",
			postalCode: "44225",
			subtotal:   "10",
			wantCalc:   true,
			want: []string{
				"Der Mindestbestellwert für Zone 1 beträgt 12,00 €. Es fehlen noch 2,00 €.",
				"Noch 40,00 € bis zur kostenlosen Lieferung.",
			},
		},
		{
			name:       "free delivery",
			postalCode: "44225",
			subtotal:   "55",
			wantCalc:   true,
			want:       []string{},
		},
		{
			name:       "always free zone",
			postalCode: "44149",
			subtotal:   "15",
			wantCalc:   true,
			want:       []string{},
		},
		{
			name:       "pickup",
			postalCode: "Pickup",
			subtotal:   "5",
			wantCalc:   true,
			want:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := uc.Quote(tt.postalCode, dec(tt.subtotal))
			assert.Equal(t, tt.want, q.Messages)
			assert.Equal(t, tt.wantCalc, q.Calculation != nil)
		})
	}
}

func TestQuote_NotCoveredOffersPickup(t *testing.T) {
	uc, _ := setupUsecase(t)

	q := uc.Quote("10115", dec("30"))
	assert.False(t, q.Validation.IsValid)
	assert.Equal(t, domain.ReasonNotCovered, q.Validation.ErrorReason)
	assert.True(t, q.Validation.PickupAvailable)
	assert.Nil(t, q.Calculation)
}

func TestConcurrentReadsDuringReload(t *testing.T) {
	uc, src := setupUsecase(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				calc := uc.CalculateFee("44225", dec("20"))
				fee := calc.Fee.StringFixed(2)
				assert.Contains(t, []string{"1.00", "2.50"}, fee)
			}
		}()
	}

	src.set(zoneTable("v2", "2.50"), nil)
	_, err := uc.Reload(context.Background())
	require.NoError(t, err)
	wg.Wait()
}

func TestRedisBackedNamespaces(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	src := &stubSource{cfg: zoneTable("v1", "1.00")}
	uc, err := NewTariffUsecase(context.Background(), src,
		infracache.NewRedisCache(client, "tariff:validation", 500),
		infracache.NewRedisCache(client, "tariff:fees", 500),
		testConfig())
	require.NoError(t, err)

	first := uc.CalculateFee("44225", dec("20"))
	second := uc.CalculateFee("44225", dec("20"))

	require.NotNil(t, second.Zone)
	assert.Equal(t, "zone-1", second.Zone.ID)
	assert.Equal(t, first.Fee.StringFixed(2), second.Fee.StringFixed(2))
	assert.Equal(t, first.AmountToFreeDelivery.StringFixed(2), second.AmountToFreeDelivery.StringFixed(2))
	assert.Equal(t, first.ProgressToFreePercent, second.ProgressToFreePercent)

	hits, _, entries := statsByName(uc, NamespaceTariff)
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, 1, entries)

	v := uc.ValidatePostalCode("10115")
	again := uc.ValidatePostalCode("10115")
	assert.Equal(t, v, again)
	assert.True(t, again.PickupAvailable)
}
