package v1

import (
	"errors"
	"net/http"

	"pizzeria-backend/internal/domain"
	"pizzeria-backend/internal/tariff"
	"pizzeria-backend/internal/usecase"
	"pizzeria-backend/pkg/logger"
	"pizzeria-backend/pkg/utils"
)

type AdminTariffHandler struct {
	tariffUC *usecase.TariffUsecase
}

func NewAdminTariffHandler(uc *usecase.TariffUsecase) *AdminTariffHandler {
	return &AdminTariffHandler{tariffUC: uc}
}

// POST /api/v1/admin/tariff/reload
func (h *AdminTariffHandler) Reload(w http.ResponseWriter, r *http.Request) {
	log := logger.WithContext(r.Context())

	info, err := h.tariffUC.Reload(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, tariff.ErrConfiguration) {
			status = http.StatusUnprocessableEntity
		}
		utils.WriteJSON(w, status, map[string]interface{}{
			"error":   err.Error(),
			"current": info,
		})
		return
	}

	if user, ok := r.Context().Value(domain.UserContextKey).(*domain.User); ok {
		log.Info().Str("admin", user.ID).Str("version", info.Version).Msg("Zone table reloaded")
	}
	utils.WriteJSON(w, http.StatusOK, info)
}

// POST /api/v1/admin/tariff/cache/invalidate
func (h *AdminTariffHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.tariffUC.InvalidateCaches()
	logger.WithContext(r.Context()).Info().Msg("Tariff caches invalidated")
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// GET /api/v1/admin/tariff/cache/stats
func (h *AdminTariffHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"table":      h.tariffUC.Info(),
		"namespaces": h.tariffUC.CacheStats(),
	})
}
