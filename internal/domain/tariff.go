package domain

import "github.com/shopspring/decimal"

// ErrorReason tags why a postal code was rejected.
type ErrorReason string

const (
	ReasonNone        ErrorReason = ""
	ReasonEmptyInput  ErrorReason = "empty-input"
	ReasonWrongFormat ErrorReason = "wrong-format"
	ReasonNotCovered  ErrorReason = "not-covered"
)

// ValidationResult is the user-facing outcome of checking a postal code.
type ValidationResult struct {
	IsValid         bool        `json:"isValid"`
	NormalizedCode  string      `json:"normalizedCode"`
	MatchedZone     *ZoneRecord `json:"matchedZone"`
	ErrorReason     ErrorReason `json:"errorReason,omitempty"`
	DisplayZoneName string      `json:"displayZoneName"`
	// PickupAvailable is set for not-covered codes: the customer can still collect in store.
	PickupAvailable bool `json:"pickupAvailable"`
}

// FeeCalculation combines a resolved zone with a cart subtotal.
// Monetary values are already rounded to two places.
type FeeCalculation struct {
	Zone                  *ZoneRecord     `json:"zone"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	Fee                   decimal.Decimal `json:"fee"`
	MeetsMinimum          bool            `json:"meetsMinimum"`
	MissingAmount         decimal.Decimal `json:"missingAmount"`
	IsFreeDelivery        bool            `json:"isFreeDelivery"`
	ProgressToFreePercent int             `json:"progressToFreePercent"`
	// AmountToFreeDelivery is how much more the customer must add for free delivery (0 if free).
	AmountToFreeDelivery decimal.Decimal `json:"amountToFreeDelivery"`
}

// Total is subtotal plus delivery fee.
func (f FeeCalculation) Total() decimal.Decimal {
	return f.Subtotal.Add(f.Fee)
}

// Quote is what the storefront shows next to the cart: the validation outcome,
// the fee breakdown for covered codes and the messages derived from both.
type Quote struct {
	Validation  ValidationResult `json:"validation"`
	Calculation *FeeCalculation  `json:"calculation"`
	Messages    []string         `json:"messages"`
}
