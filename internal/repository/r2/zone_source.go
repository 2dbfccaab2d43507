package r2

import (
	"context"
	"fmt"
	"path"
	"strings"

	"pizzeria-backend/internal/domain"
	"pizzeria-backend/internal/repository/file"
)

// ObjectGetter is the slice of the R2 client the zone source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

type zoneSource struct {
	store  ObjectGetter
	key    string
	pickup domain.PickupConfig
}

// NewZoneSource reads the zone table document stored under key.
func NewZoneSource(store ObjectGetter, key string, pickup domain.PickupConfig) domain.ZoneSource {
	return &zoneSource{store: store, key: key, pickup: pickup}
}

func (s *zoneSource) Name() string {
	return "r2:" + s.key
}

func (s *zoneSource) LoadZones(ctx context.Context) (domain.ZoneTableConfig, error) {
	data, err := s.store.GetObject(ctx, s.key)
	if err != nil {
		return domain.ZoneTableConfig{}, fmt.Errorf("load zone table: %w", err)
	}
	if strings.EqualFold(path.Ext(s.key), ".json") {
		return file.ParseJSON(data, s.pickup)
	}
	return file.ParseYAML(data, s.pickup)
}
