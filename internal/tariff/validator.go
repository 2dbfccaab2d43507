package tariff

import (
	"strings"

	"pizzeria-backend/internal/domain"
)

const NotCoveredDisplayName = "Nicht im Liefergebiet"

// Validate layers format and coverage checks over Resolve. It never fails:
// every input, including the empty string, produces a result.
func (t *Table) Validate(input string) domain.ValidationResult {
	code := strings.TrimSpace(input)

	if code == "" {
		return domain.ValidationResult{ErrorReason: domain.ReasonEmptyInput}
	}

	if t.IsPickup(code) {
		pickup := t.pickup
		return domain.ValidationResult{
			IsValid:         true,
			NormalizedCode:  t.sentinel,
			MatchedZone:     &pickup,
			DisplayZoneName: pickup.DisplayName,
		}
	}

	if !isFiveDigits(code) {
		return domain.ValidationResult{
			NormalizedCode: code,
			ErrorReason:    domain.ReasonWrongFormat,
		}
	}

	zone, ok := t.Resolve(code)
	if !ok {
		return domain.ValidationResult{
			NormalizedCode:  code,
			ErrorReason:     domain.ReasonNotCovered,
			DisplayZoneName: NotCoveredDisplayName,
			PickupAvailable: true,
		}
	}

	return domain.ValidationResult{
		IsValid:         true,
		NormalizedCode:  code,
		MatchedZone:     &zone,
		DisplayZoneName: zone.DisplayName,
	}
}
