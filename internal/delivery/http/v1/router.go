package v1

import (
	"net/http"

	"pizzeria-backend/internal/delivery/http/middleware"
	"pizzeria-backend/internal/usecase"
)

// NewRouter registers the public tariff endpoints, the admin endpoints and health checks.
func NewRouter(tariffUC *usecase.TariffUsecase) *http.ServeMux {
	mux := http.NewServeMux()

	tariffHandler := NewTariffHandler(tariffUC)
	adminTariffHandler := NewAdminTariffHandler(tariffUC)
	healthHandler := NewHealthHandler(tariffUC)

	// Tariff (Public)
	mux.HandleFunc("GET /api/v1/tariff/zones", tariffHandler.ListZones)
	mux.HandleFunc("GET /api/v1/tariff/postal-codes", tariffHandler.ListPostalCodes)
	mux.HandleFunc("GET /api/v1/tariff/resolve", tariffHandler.Resolve)
	mux.HandleFunc("GET /api/v1/tariff/validate", tariffHandler.Validate)
	mux.HandleFunc("GET /api/v1/tariff/quote", tariffHandler.Quote)

	// Tariff (Admin)
	mux.Handle("POST /api/v1/admin/tariff/reload", middleware.RequireAdmin(adminTariffHandler.Reload))
	mux.Handle("POST /api/v1/admin/tariff/cache/invalidate", middleware.RequireAdmin(adminTariffHandler.InvalidateCache))
	mux.Handle("GET /api/v1/admin/tariff/cache/stats", middleware.RequireAdmin(adminTariffHandler.CacheStats))

	// Health Check
	mux.HandleFunc("GET /api/v1/health", healthHandler.Check)
	mux.HandleFunc("GET /health", healthHandler.Check) // Load balancers probe the root path

	return mux
}
