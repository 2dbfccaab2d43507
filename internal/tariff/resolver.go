package tariff

import (
	"strings"

	"pizzeria-backend/internal/domain"
)

// Normalize trims the input and folds the pickup sentinel to lower case.
// Anything else is returned trimmed but otherwise untouched.
func (t *Table) Normalize(input string) string {
	trimmed := strings.TrimSpace(input)
	if t.IsPickup(trimmed) {
		return t.sentinel
	}
	return trimmed
}

// IsPickup reports whether input selects in-store pickup.
func (t *Table) IsPickup(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), t.sentinel)
}

// Resolve maps a raw postal code (or the pickup sentinel) to its zone.
// Malformed and uncovered input both yield ok == false; Validate tells them apart.
func (t *Table) Resolve(input string) (zone domain.ZoneRecord, ok bool) {
	code := strings.TrimSpace(input)
	if t.IsPickup(code) {
		return t.pickup, true
	}
	if !isFiveDigits(code) {
		return domain.ZoneRecord{}, false
	}
	i, found := t.index[code]
	if !found {
		return domain.ZoneRecord{}, false
	}
	return cloneZone(t.zones[i]), true
}
