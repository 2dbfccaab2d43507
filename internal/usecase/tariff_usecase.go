package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pizzeria-backend/config"
	"pizzeria-backend/internal/domain"
	"pizzeria-backend/internal/tariff"
	"pizzeria-backend/pkg/cache"
	"pizzeria-backend/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	NamespaceValidation = "validation"
	NamespaceTariff     = "tariff"
)

// TableInfo describes the zone table currently being served.
type TableInfo struct {
	Version     string    `json:"version"`
	Source      string    `json:"source"`
	ActiveZones int       `json:"activeZones"`
	PostalCodes int       `json:"postalCodes"`
	LoadedAt    time.Time `json:"loadedAt"`
}

type loadedTable struct {
	table *tariff.Table
	info  TableInfo
}

type TariffUsecase struct {
	source        domain.ZoneSource
	current       atomic.Pointer[loadedTable]
	reloadMu      sync.Mutex
	reloadTimeout time.Duration

	validation *cache.Namespace[domain.ValidationResult]
	fees       *cache.Namespace[domain.FeeCalculation]
}

// NewTariffUsecase loads the initial zone table from source. A table that fails
// validation is fatal here; later reloads keep serving the previous table instead.
func NewTariffUsecase(ctx context.Context, source domain.ZoneSource, validationStore, tariffStore cache.CacheService, cfg *config.Config) (*TariffUsecase, error) {
	uc := &TariffUsecase{
		source:        source,
		reloadTimeout: cfg.ZoneReloadTimeout,
		validation:    cache.NewNamespace[domain.ValidationResult](NamespaceValidation, validationStore, cfg.CacheValidationTTL),
		fees:          cache.NewNamespace[domain.FeeCalculation](NamespaceTariff, tariffStore, cfg.CacheTariffTTL),
	}

	loaded, err := uc.load(ctx)
	if err != nil {
		return nil, err
	}
	uc.current.Store(loaded)
	// a shared redis prefix may still hold results computed from an older table
	uc.InvalidateCaches()
	return uc, nil
}

func (uc *TariffUsecase) table() *tariff.Table {
	return uc.current.Load().table
}

func (uc *TariffUsecase) load(ctx context.Context) (*loadedTable, error) {
	if uc.reloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.reloadTimeout)
		defer cancel()
	}

	start := time.Now()
	cfg, err := uc.source.LoadZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("load zones from %s: %w", uc.source.Name(), err)
	}
	table, err := tariff.NewTable(cfg)
	if err != nil {
		return nil, err
	}

	info := TableInfo{
		Version:     table.Version(),
		Source:      uc.source.Name(),
		ActiveZones: len(table.ListActiveZones()),
		PostalCodes: len(table.AllCoveredPostalCodes()),
		LoadedAt:    time.Now(),
	}
	logger.ZoneTableLoaded(info.Source, info.Version, info.ActiveZones, info.PostalCodes, time.Since(start))
	return &loadedTable{table: table, info: info}, nil
}

// Reload re-reads the zone source. On failure the current table stays in place and
// the error (wrapping tariff.ErrConfiguration for invalid tables) is returned.
func (uc *TariffUsecase) Reload(ctx context.Context) (TableInfo, error) {
	uc.reloadMu.Lock()
	defer uc.reloadMu.Unlock()

	loaded, err := uc.load(ctx)
	if err != nil {
		logger.Error().Err(err).Str("source", uc.source.Name()).Msg("Zone table reload rejected, keeping current table")
		return uc.Info(), err
	}

	uc.current.Store(loaded)
	uc.InvalidateCaches()
	return loaded.info, nil
}

func (uc *TariffUsecase) Info() TableInfo {
	return uc.current.Load().info
}

// ResolveZone is uncached; resolution is a map lookup.
func (uc *TariffUsecase) ResolveZone(postalCode string) (domain.ZoneRecord, bool) {
	return uc.table().Resolve(postalCode)
}

func (uc *TariffUsecase) ValidatePostalCode(input string) domain.ValidationResult {
	t := uc.table()
	return cached(uc, uc.validation, t, t.Normalize(input), func() domain.ValidationResult {
		return t.Validate(input)
	})
}

// CalculateFee keys the cache by the subtotal rounded to cents. tariff.CalculateForZone
// applies the same rounding, so every subtotal sharing a key shares a result.
func (uc *TariffUsecase) CalculateFee(postalCode string, subtotal decimal.Decimal) domain.FeeCalculation {
	t := uc.table()
	subtotal = tariff.Round2(subtotal)
	key := t.Normalize(postalCode) + "|" + subtotal.StringFixed(2)
	return cached(uc, uc.fees, t, key, func() domain.FeeCalculation {
		return t.CalculateFee(postalCode, subtotal)
	})
}

// cached serves key from ns, computing it against t on a miss. A result computed
// from a table that was swapped out meanwhile is returned but not stored.
func cached[T any](uc *TariffUsecase, ns *cache.Namespace[T], t *tariff.Table, key string, compute func() T) T {
	if v, ok := ns.Get(key); ok {
		return v
	}
	v := compute()
	if uc.table() == t {
		ns.Put(key, v)
	}
	return v
}

func (uc *TariffUsecase) ListActiveZones() []domain.ZoneRecord {
	return uc.table().ListActiveZones()
}

func (uc *TariffUsecase) AllCoveredPostalCodes() []string {
	return uc.table().AllCoveredPostalCodes()
}

func (uc *TariffUsecase) Pickup() domain.ZoneRecord {
	return uc.table().Pickup()
}

// Quote validates postalCode and, when it is served, prices the cart.
func (uc *TariffUsecase) Quote(postalCode string, subtotal decimal.Decimal) domain.Quote {
	q := domain.Quote{
		Validation: uc.ValidatePostalCode(postalCode),
		Messages:   []string{},
	}

	switch q.Validation.ErrorReason {
	case domain.ReasonEmptyInput:
		q.Messages = append(q.Messages, "Bitte gib deine Postleitzahl ein.")
		return q
	case domain.ReasonWrongFormat:
		q.Messages = append(q.Messages, "Die Postleitzahl muss aus genau 5 Ziffern bestehen.")
		return q
	case domain.ReasonNotCovered:
		q.Messages = append(q.Messages, fmt.Sprintf(
			"Wir liefern leider nicht nach %s. Du kannst deine Bestellung aber gerne bei uns abholen.",
			q.Validation.NormalizedCode))
		return q
	}

	calc := uc.CalculateFee(postalCode, subtotal)
	q.Calculation = &calc

	if !calc.MeetsMinimum && calc.Zone != nil {
		q.Messages = append(q.Messages, fmt.Sprintf(
			"Der Mindestbestellwert für %s beträgt %s. Es fehlen noch %s.",
			calc.Zone.DisplayName, formatEuro(calc.Zone.MinimumOrderValue), formatEuro(calc.MissingAmount)))
	}
	if !calc.IsFreeDelivery && calc.AmountToFreeDelivery.IsPositive() {
		q.Messages = append(q.Messages, fmt.Sprintf(
			"Noch %s bis zur kostenlosen Lieferung.", formatEuro(calc.AmountToFreeDelivery)))
	}
	return q
}

// InvalidateCaches empties both namespaces.
func (uc *TariffUsecase) InvalidateCaches() {
	uc.validation.InvalidateAll()
	uc.fees.InvalidateAll()
}

func (uc *TariffUsecase) CacheStats() []cache.Stats {
	return []cache.Stats{uc.validation.Stats(), uc.fees.Stats()}
}

func formatEuro(d decimal.Decimal) string {
	return strings.Replace(tariff.Round2(d).StringFixed(2), ".", ",", 1) + " €"
}
