package file

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pizzeria-backend/internal/domain"
)

//go:embed zones.yaml
var defaultZones []byte

// DefaultZoneTable returns the zone table compiled into the binary.
func DefaultZoneTable() []byte {
	return append([]byte(nil), defaultZones...)
}

type zoneSource struct {
	path   string
	pickup domain.PickupConfig
}

// NewZoneSource reads the zone table from path (.yaml, .yml or .json).
// An empty path serves the embedded default table.
func NewZoneSource(path string, pickup domain.PickupConfig) domain.ZoneSource {
	return &zoneSource{path: path, pickup: pickup}
}

func (s *zoneSource) Name() string {
	if s.path == "" {
		return "embedded"
	}
	return "file:" + s.path
}

func (s *zoneSource) LoadZones(ctx context.Context) (domain.ZoneTableConfig, error) {
	if err := ctx.Err(); err != nil {
		return domain.ZoneTableConfig{}, err
	}
	if s.path == "" {
		return ParseYAML(defaultZones, s.pickup)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.ZoneTableConfig{}, fmt.Errorf("read zone table: %w", err)
	}

	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".json":
		return ParseJSON(data, s.pickup)
	case ".yaml", ".yml":
		return ParseYAML(data, s.pickup)
	default:
		return domain.ZoneTableConfig{}, fmt.Errorf("unsupported zone table format %q", filepath.Ext(s.path))
	}
}
