package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// ZoneRecord is one delivery zone of the tariff table.
type ZoneRecord struct {
	ID                    string          `json:"id"`
	DisplayName           string          `json:"displayName"`
	PostalCodes           []string        `json:"postalCodes"`
	MinimumOrderValue     decimal.Decimal `json:"minimumOrderValue"`
	DeliveryFee           decimal.Decimal `json:"deliveryFee"`
	FreeDeliveryThreshold decimal.Decimal `json:"freeDeliveryThreshold"`
	IsActive              bool            `json:"isActive"`
	Priority              int             `json:"priority"`
	IsPickup              bool            `json:"isPickup,omitempty"`
}

// AlwaysFree reports whether delivery in this zone never costs anything.
func (z ZoneRecord) AlwaysFree() bool {
	return z.IsPickup || z.DeliveryFee.IsZero()
}

// PickupConfig describes the in-store pickup pseudo-zone.
type PickupConfig struct {
	Sentinel          string          `json:"sentinel"`
	DisplayName       string          `json:"displayName"`
	MinimumOrderValue decimal.Decimal `json:"minimumOrderValue"`
}

// ZoneTableConfig is the raw, unvalidated content of a zone table source.
type ZoneTableConfig struct {
	Version string       `json:"version"`
	Zones   []ZoneRecord `json:"zones"`
	Pickup  PickupConfig `json:"pickup"`
}

// ZoneSource loads the zone table from wherever it is kept (file, database, bucket).
type ZoneSource interface {
	LoadZones(ctx context.Context) (ZoneTableConfig, error)
	Name() string
}
