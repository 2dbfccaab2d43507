package postgres

import (
	"context"
	"errors"
	"fmt"

	"pizzeria-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	settingZoneTableVersion   = "zone_table_version"
	settingPickupSentinel     = "pickup_sentinel"
	settingPickupMinimumOrder = "pickup_minimum_order"
)

const selectZones = `
SELECT z.id,
       z.display_name,
       z.minimum_order_value::text,
       z.delivery_fee::text,
       z.free_delivery_threshold::text,
       z.is_active,
       z.priority,
       COALESCE(array_agg(pc.postal_code::text ORDER BY pc.postal_code)
                FILTER (WHERE pc.postal_code IS NOT NULL), '{}')
FROM delivery_zones z
LEFT JOIN delivery_zone_postal_codes pc ON pc.zone_id = z.id
GROUP BY z.id
ORDER BY z.priority, z.id`

const selectSettings = `SELECT key, value FROM delivery_settings WHERE key = ANY($1)`

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type zoneRepository struct {
	db     DBTX
	pickup domain.PickupConfig
}

// NewZoneRepository reads the zone table from the delivery_zones tables.
// pickup supplies defaults for settings missing from delivery_settings.
func NewZoneRepository(db DBTX, pickup domain.PickupConfig) domain.ZoneSource {
	return &zoneRepository{db: db, pickup: pickup}
}

func (r *zoneRepository) Name() string {
	return "postgres"
}

func (r *zoneRepository) LoadZones(ctx context.Context) (domain.ZoneTableConfig, error) {
	rows, err := r.db.Query(ctx, selectZones)
	if err != nil {
		return domain.ZoneTableConfig{}, fmt.Errorf("query delivery zones: %w", err)
	}
	zones, err := pgx.CollectRows(rows, scanZone)
	if err != nil {
		return domain.ZoneTableConfig{}, fmt.Errorf("scan delivery zones: %w", err)
	}

	settings, err := r.loadSettings(ctx)
	if err != nil {
		return domain.ZoneTableConfig{}, err
	}

	return buildConfig(zones, settings, r.pickup)
}

func (r *zoneRepository) loadSettings(ctx context.Context) (map[string]string, error) {
	keys := []string{settingZoneTableVersion, settingPickupSentinel, settingPickupMinimumOrder}
	rows, err := r.db.Query(ctx, selectSettings, keys)
	if err != nil {
		return nil, fmt.Errorf("query delivery settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan delivery setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

type zoneRow struct {
	ID, DisplayName         string
	Minimum, Fee, Threshold string
	IsActive                bool
	Priority                int32
	PostalCodes             []string
}

func scanZone(row pgx.CollectableRow) (zoneRow, error) {
	var z zoneRow
	err := row.Scan(&z.ID, &z.DisplayName, &z.Minimum, &z.Fee, &z.Threshold, &z.IsActive, &z.Priority, &z.PostalCodes)
	return z, err
}

func buildConfig(rows []zoneRow, settings map[string]string, pickup domain.PickupConfig) (domain.ZoneTableConfig, error) {
	cfg := domain.ZoneTableConfig{
		Version: settings[settingZoneTableVersion],
		Zones:   make([]domain.ZoneRecord, 0, len(rows)),
		Pickup:  pickup,
	}

	for _, z := range rows {
		minimum, err1 := decimal.NewFromString(z.Minimum)
		fee, err2 := decimal.NewFromString(z.Fee)
		threshold, err3 := decimal.NewFromString(z.Threshold)
		if err := errors.Join(err1, err2, err3); err != nil {
			return domain.ZoneTableConfig{}, fmt.Errorf("zone %s: invalid amount: %w", z.ID, err)
		}
		cfg.Zones = append(cfg.Zones, domain.ZoneRecord{
			ID:                    z.ID,
			DisplayName:           z.DisplayName,
			PostalCodes:           z.PostalCodes,
			MinimumOrderValue:     minimum,
			DeliveryFee:           fee,
			FreeDeliveryThreshold: threshold,
			IsActive:              z.IsActive,
			Priority:              int(z.Priority),
		})
	}

	if v, ok := settings[settingPickupSentinel]; ok && v != "" {
		cfg.Pickup.Sentinel = v
	}
	if v, ok := settings[settingPickupMinimumOrder]; ok && v != "" {
		minimum, err := decimal.NewFromString(v)
		if err != nil {
			return domain.ZoneTableConfig{}, fmt.Errorf("setting %s: %w", settingPickupMinimumOrder, err)
		}
		cfg.Pickup.MinimumOrderValue = minimum
	}

	return cfg, nil
}
