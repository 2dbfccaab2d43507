package tariff

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"pizzeria-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
)

// ErrConfiguration marks a zone table that violates its invariants.
// It is only ever returned while building a Table.
var ErrConfiguration = errors.New("zone table configuration error")

const (
	DefaultPickupSentinel    = "pickup"
	DefaultPickupDisplayName = "Abholung"
	PickupZoneID             = "pickup"
)

// Table is an immutable, validated zone table.
type Table struct {
	version string
	zones   []domain.ZoneRecord // active zones, ordered by priority then id
	index   map[string]int      // postal code -> position in zones
	pickup  domain.ZoneRecord
	// sentinel is stored lower-cased
	sentinel string
}

// NewTable validates cfg and builds a Table from it. All violations are reported together,
// wrapped in ErrConfiguration.
func NewTable(cfg domain.ZoneTableConfig) (*Table, error) {
	var errs *multierror.Error

	sentinel := strings.ToLower(strings.TrimSpace(cfg.Pickup.Sentinel))
	if sentinel == "" {
		sentinel = DefaultPickupSentinel
	}
	if isFiveDigits(sentinel) {
		errs = multierror.Append(errs, fmt.Errorf("pickup sentinel %q must not look like a postal code", sentinel))
	}
	if cfg.Pickup.MinimumOrderValue.IsNegative() {
		errs = multierror.Append(errs, fmt.Errorf("pickup: negative minimumOrderValue %s", cfg.Pickup.MinimumOrderValue))
	}

	seenIDs := make(map[string]bool, len(cfg.Zones))
	owner := make(map[string]string)
	active := make([]domain.ZoneRecord, 0, len(cfg.Zones))

	for i, z := range cfg.Zones {
		label := z.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			errs = multierror.Append(errs, fmt.Errorf("zone %s: missing id", label))
		} else if seenIDs[z.ID] {
			errs = multierror.Append(errs, fmt.Errorf("zone %s: duplicate id", label))
		}
		seenIDs[z.ID] = true

		if z.MinimumOrderValue.IsNegative() {
			errs = multierror.Append(errs, fmt.Errorf("zone %s: negative minimumOrderValue %s", label, z.MinimumOrderValue))
		}
		if z.DeliveryFee.IsNegative() {
			errs = multierror.Append(errs, fmt.Errorf("zone %s: negative deliveryFee %s", label, z.DeliveryFee))
		}
		if z.FreeDeliveryThreshold.IsNegative() {
			errs = multierror.Append(errs, fmt.Errorf("zone %s: negative freeDeliveryThreshold %s", label, z.FreeDeliveryThreshold))
		}

		codes := make([]string, 0, len(z.PostalCodes))
		inZone := make(map[string]bool, len(z.PostalCodes))
		for _, raw := range z.PostalCodes {
			code := strings.TrimSpace(raw)
			if !isFiveDigits(code) {
				errs = multierror.Append(errs, fmt.Errorf("zone %s: postal code %q is not 5 digits", label, raw))
				continue
			}
			if inZone[code] {
				continue
			}
			inZone[code] = true
			codes = append(codes, code)

			if !z.IsActive {
				continue
			}
			if other, dup := owner[code]; dup {
				errs = multierror.Append(errs, fmt.Errorf("postal code %s is listed in active zones %s and %s", code, other, label))
				continue
			}
			owner[code] = label
		}
		sort.Strings(codes)

		if !z.IsActive {
			continue
		}
		z.PostalCodes = codes
		z.IsPickup = false
		active = append(active, z)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority < active[j].Priority
		}
		return active[i].ID < active[j].ID
	})

	index := make(map[string]int)
	for i, z := range active {
		for _, code := range z.PostalCodes {
			index[code] = i
		}
	}

	displayName := strings.TrimSpace(cfg.Pickup.DisplayName)
	if displayName == "" {
		displayName = DefaultPickupDisplayName
	}

	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		version = uuid.NewString()
	}

	return &Table{
		version: version,
		zones:   active,
		index:   index,
		pickup: domain.ZoneRecord{
			ID:                    PickupZoneID,
			DisplayName:           displayName,
			MinimumOrderValue:     cfg.Pickup.MinimumOrderValue,
			DeliveryFee:           decimal.Zero,
			FreeDeliveryThreshold: decimal.Zero,
			IsActive:              true,
			IsPickup:              true,
		},
		sentinel: sentinel,
	}, nil
}

// Version identifies the loaded table.
func (t *Table) Version() string {
	return t.version
}

// ListActiveZones returns the active zones in stable order (priority, then id).
func (t *Table) ListActiveZones() []domain.ZoneRecord {
	out := make([]domain.ZoneRecord, len(t.zones))
	for i, z := range t.zones {
		out[i] = cloneZone(z)
	}
	return out
}

// AllCoveredPostalCodes returns every postal code served by an active zone, sorted.
// The pickup sentinel is not included.
func (t *Table) AllCoveredPostalCodes() []string {
	codes := make([]string, 0, len(t.index))
	for code := range t.index {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Pickup returns the pickup pseudo-zone.
func (t *Table) Pickup() domain.ZoneRecord {
	return t.pickup
}

// PickupSentinel returns the (lower-case) token that selects in-store pickup.
func (t *Table) PickupSentinel() string {
	return t.sentinel
}

func cloneZone(z domain.ZoneRecord) domain.ZoneRecord {
	z.PostalCodes = append([]string(nil), z.PostalCodes...)
	return z
}

func isFiveDigits(s string) bool {
	if len(s) != 5 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
