package tariff

import (
	"pizzeria-backend/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CalculateFee resolves postalCode and combines the zone with subtotal.
// Unresolvable codes and negative subtotals are ordinary inputs, not errors.
// subtotal is rounded to cents before any comparison, so 11.995 meets a 12.00 minimum.
func (t *Table) CalculateFee(postalCode string, subtotal decimal.Decimal) domain.FeeCalculation {
	zone, ok := t.Resolve(postalCode)
	if !ok {
		return domain.FeeCalculation{
			Subtotal:             Round2(subtotal),
			Fee:                  decimal.Zero,
			MissingAmount:        decimal.Zero,
			AmountToFreeDelivery: decimal.Zero,
		}
	}
	return CalculateForZone(zone, subtotal)
}

// CalculateForZone computes the fee breakdown for an already resolved zone.
// subtotal is rounded to cents first.
func CalculateForZone(zone domain.ZoneRecord, subtotal decimal.Decimal) domain.FeeCalculation {
	subtotal = Round2(subtotal)
	meetsMinimum := subtotal.GreaterThanOrEqual(zone.MinimumOrderValue)

	missing := decimal.Zero
	if !meetsMinimum {
		missing = Round2(zone.MinimumOrderValue.Sub(subtotal))
	}

	isFree := zone.AlwaysFree() || subtotal.GreaterThanOrEqual(zone.FreeDeliveryThreshold)

	fee := decimal.Zero
	toFree := decimal.Zero
	if !isFree {
		fee = Round2(zone.DeliveryFee)
		toFree = Round2(zone.FreeDeliveryThreshold.Sub(subtotal))
	}

	z := zone
	return domain.FeeCalculation{
		Zone:                  &z,
		Subtotal:              subtotal,
		Fee:                   fee,
		MeetsMinimum:          meetsMinimum,
		MissingAmount:         missing,
		IsFreeDelivery:        isFree,
		ProgressToFreePercent: progressToFree(zone, subtotal, isFree),
		AmountToFreeDelivery:  toFree,
	}
}

func progressToFree(zone domain.ZoneRecord, subtotal decimal.Decimal, isFree bool) int {
	if isFree || zone.FreeDeliveryThreshold.IsZero() {
		return 100
	}
	pct := subtotal.Div(zone.FreeDeliveryThreshold).Mul(hundred).Round(0).IntPart()
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return int(pct)
}
