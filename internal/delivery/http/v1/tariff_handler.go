package v1

import (
	"errors"
	"net/http"

	"pizzeria-backend/internal/usecase"
	"pizzeria-backend/pkg/logger"
	"pizzeria-backend/pkg/utils"

	"github.com/shopspring/decimal"
)

type TariffHandler struct {
	tariffUC *usecase.TariffUsecase
}

func NewTariffHandler(uc *usecase.TariffUsecase) *TariffHandler {
	return &TariffHandler{tariffUC: uc}
}

// GET /api/v1/tariff/zones
func (h *TariffHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones := h.tariffUC.ListActiveZones()
	resp := make([]zoneResponse, 0, len(zones))
	for _, z := range zones {
		resp = append(resp, toZoneResponse(z))
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version": h.tariffUC.Info().Version,
		"zones":   resp,
		"pickup":  toZoneResponse(h.tariffUC.Pickup()),
	})
}

// GET /api/v1/tariff/postal-codes
func (h *TariffHandler) ListPostalCodes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"postalCodes": h.tariffUC.AllCoveredPostalCodes(),
	})
}

// GET /api/v1/tariff/resolve?postalCode=
func (h *TariffHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	zone, ok := h.tariffUC.ResolveZone(r.URL.Query().Get("postalCode"))
	if !ok {
		utils.WriteError(w, http.StatusNotFound, "No delivery zone for postal code")
		return
	}
	utils.WriteJSON(w, http.StatusOK, toZoneResponse(zone))
}

// GET /api/v1/tariff/validate?postalCode=
func (h *TariffHandler) Validate(w http.ResponseWriter, r *http.Request) {
	result := h.tariffUC.ValidatePostalCode(r.URL.Query().Get("postalCode"))
	utils.WriteJSON(w, http.StatusOK, toValidationResponse(result))
}

// GET /api/v1/tariff/quote?postalCode=&subtotal=
func (h *TariffHandler) Quote(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	subtotal, err := utils.ParseAmount(query.Get("subtotal"), decimal.Zero)
	if err != nil {
		logger.WithContext(r.Context()).Debug().Err(err).Msg("Rejected quote request")
		if errors.Is(err, utils.ErrAmountOutOfRange) {
			utils.WriteError(w, http.StatusBadRequest, "subtotal out of range")
			return
		}
		utils.WriteError(w, http.StatusBadRequest, "subtotal must be a number")
		return
	}

	quote := h.tariffUC.Quote(query.Get("postalCode"), subtotal)
	utils.WriteJSON(w, http.StatusOK, toQuoteResponse(quote))
}
