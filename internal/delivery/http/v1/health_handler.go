package v1

import (
	"net/http"

	"pizzeria-backend/internal/usecase"
	"pizzeria-backend/pkg/utils"
)

type HealthHandler struct {
	tariffUC *usecase.TariffUsecase
}

func NewHealthHandler(uc *usecase.TariffUsecase) *HealthHandler {
	return &HealthHandler{tariffUC: uc}
}

// GET /health and /api/v1/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	info := h.tariffUC.Info()
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"zoneTable":   info.Version,
		"zoneSource":  info.Source,
		"activeZones": info.ActiveZones,
		"tableLoaded": info.LoadedAt,
	})
}
