package v1

import (
	"pizzeria-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Response shapes render money as fixed two-place strings ("12.50").

type zoneResponse struct {
	ID                    string   `json:"id"`
	DisplayName           string   `json:"displayName"`
	PostalCodes           []string `json:"postalCodes"`
	MinimumOrderValue     string   `json:"minimumOrderValue"`
	DeliveryFee           string   `json:"deliveryFee"`
	FreeDeliveryThreshold string   `json:"freeDeliveryThreshold"`
	IsActive              bool     `json:"isActive"`
	Priority              int      `json:"priority"`
	IsPickup              bool     `json:"isPickup"`
}

type validationResponse struct {
	IsValid         bool          `json:"isValid"`
	NormalizedCode  string        `json:"normalizedCode"`
	MatchedZone     *zoneResponse `json:"matchedZone"`
	ErrorReason     string        `json:"errorReason,omitempty"`
	DisplayZoneName string        `json:"displayZoneName"`
	PickupAvailable bool          `json:"pickupAvailable"`
}

type feeResponse struct {
	Zone                  *zoneResponse `json:"zone"`
	Subtotal              string        `json:"subtotal"`
	Fee                   string        `json:"fee"`
	Total                 string        `json:"total"`
	MeetsMinimum          bool          `json:"meetsMinimum"`
	MissingAmount         string        `json:"missingAmount"`
	IsFreeDelivery        bool          `json:"isFreeDelivery"`
	ProgressToFreePercent int           `json:"progressToFreePercent"`
	AmountToFreeDelivery  string        `json:"amountToFreeDelivery"`
}

type quoteResponse struct {
	Validation  validationResponse `json:"validation"`
	Calculation *feeResponse       `json:"calculation"`
	Messages    []string           `json:"messages"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toZoneResponse(z domain.ZoneRecord) zoneResponse {
	codes := z.PostalCodes
	if codes == nil {
		codes = []string{}
	}
	return zoneResponse{
		ID:                    z.ID,
		DisplayName:           z.DisplayName,
		PostalCodes:           codes,
		MinimumOrderValue:     money(z.MinimumOrderValue),
		DeliveryFee:           money(z.DeliveryFee),
		FreeDeliveryThreshold: money(z.FreeDeliveryThreshold),
		IsActive:              z.IsActive,
		Priority:              z.Priority,
		IsPickup:              z.IsPickup,
	}
}

func toZonePtr(z *domain.ZoneRecord) *zoneResponse {
	if z == nil {
		return nil
	}
	resp := toZoneResponse(*z)
	return &resp
}

func toValidationResponse(v domain.ValidationResult) validationResponse {
	return validationResponse{
		IsValid:         v.IsValid,
		NormalizedCode:  v.NormalizedCode,
		MatchedZone:     toZonePtr(v.MatchedZone),
		ErrorReason:     string(v.ErrorReason),
		DisplayZoneName: v.DisplayZoneName,
		PickupAvailable: v.PickupAvailable,
	}
}

func toFeeResponse(f domain.FeeCalculation) feeResponse {
	return feeResponse{
		Zone:                  toZonePtr(f.Zone),
		Subtotal:              money(f.Subtotal),
		Fee:                   money(f.Fee),
		Total:                 money(f.Total()),
		MeetsMinimum:          f.MeetsMinimum,
		MissingAmount:         money(f.MissingAmount),
		IsFreeDelivery:        f.IsFreeDelivery,
		ProgressToFreePercent: f.ProgressToFreePercent,
		AmountToFreeDelivery:  money(f.AmountToFreeDelivery),
	}
}

func toQuoteResponse(q domain.Quote) quoteResponse {
	resp := quoteResponse{
		Validation: toValidationResponse(q.Validation),
		Messages:   q.Messages,
	}
	if q.Calculation != nil {
		fee := toFeeResponse(*q.Calculation)
		resp.Calculation = &fee
	}
	return resp
}
