package file

import (
	"fmt"
	"strings"

	"pizzeria-backend/internal/domain"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Money is kept as text in YAML so "12.00" and 12.00 both decode without float rounding.
type yamlZone struct {
	ID                    string   `yaml:"id"`
	DisplayName           string   `yaml:"displayName"`
	PostalCodes           []string `yaml:"postalCodes"`
	MinimumOrderValue     string   `yaml:"minimumOrderValue"`
	DeliveryFee           string   `yaml:"deliveryFee"`
	FreeDeliveryThreshold string   `yaml:"freeDeliveryThreshold"`
	IsActive              *bool    `yaml:"isActive"`
	Priority              int      `yaml:"priority"`
}

type yamlPickup struct {
	Sentinel          string `yaml:"sentinel"`
	DisplayName       string `yaml:"displayName"`
	MinimumOrderValue string `yaml:"minimumOrderValue"`
}

type yamlTable struct {
	Version string      `yaml:"version"`
	Pickup  *yamlPickup `yaml:"pickup"`
	Zones   []yamlZone  `yaml:"zones"`
}

// ParseYAML decodes a zone table document. pickupDefault fills the pickup block when the
// document does not carry one (or leaves a field empty).
func ParseYAML(data []byte, pickupDefault domain.PickupConfig) (domain.ZoneTableConfig, error) {
	var doc yamlTable
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.ZoneTableConfig{}, fmt.Errorf("decode zone table yaml: %w", err)
	}

	cfg := domain.ZoneTableConfig{
		Version: doc.Version,
		Zones:   make([]domain.ZoneRecord, 0, len(doc.Zones)),
		Pickup:  pickupDefault,
	}

	for i, z := range doc.Zones {
		minimum, err := parseMoney(z.MinimumOrderValue)
		if err != nil {
			return domain.ZoneTableConfig{}, fmt.Errorf("zone %d (%s) minimumOrderValue: %w", i, z.ID, err)
		}
		fee, err := parseMoney(z.DeliveryFee)
		if err != nil {
			return domain.ZoneTableConfig{}, fmt.Errorf("zone %d (%s) deliveryFee: %w", i, z.ID, err)
		}
		threshold, err := parseMoney(z.FreeDeliveryThreshold)
		if err != nil {
			return domain.ZoneTableConfig{}, fmt.Errorf("zone %d (%s) freeDeliveryThreshold: %w", i, z.ID, err)
		}

		active := true
		if z.IsActive != nil {
			active = *z.IsActive
		}

		cfg.Zones = append(cfg.Zones, domain.ZoneRecord{
			ID:                    z.ID,
			DisplayName:           z.DisplayName,
			PostalCodes:           z.PostalCodes,
			MinimumOrderValue:     minimum,
			DeliveryFee:           fee,
			FreeDeliveryThreshold: threshold,
			IsActive:              active,
			Priority:              z.Priority,
		})
	}

	if doc.Pickup != nil {
		if doc.Pickup.Sentinel != "" {
			cfg.Pickup.Sentinel = doc.Pickup.Sentinel
		}
		if doc.Pickup.DisplayName != "" {
			cfg.Pickup.DisplayName = doc.Pickup.DisplayName
		}
		if doc.Pickup.MinimumOrderValue != "" {
			minimum, err := parseMoney(doc.Pickup.MinimumOrderValue)
			if err != nil {
				return domain.ZoneTableConfig{}, fmt.Errorf("pickup minimumOrderValue: %w", err)
			}
			cfg.Pickup.MinimumOrderValue = minimum
		}
	}

	return cfg, nil
}

// ParseJSON decodes a zone table in the API's JSON shape.
func ParseJSON(data []byte, pickupDefault domain.PickupConfig) (domain.ZoneTableConfig, error) {
	cfg := domain.ZoneTableConfig{Pickup: pickupDefault}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.ZoneTableConfig{}, fmt.Errorf("decode zone table json: %w", err)
	}
	if cfg.Pickup.Sentinel == "" {
		cfg.Pickup.Sentinel = pickupDefault.Sentinel
	}
	if cfg.Pickup.DisplayName == "" {
		cfg.Pickup.DisplayName = pickupDefault.DisplayName
	}
	return cfg, nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
