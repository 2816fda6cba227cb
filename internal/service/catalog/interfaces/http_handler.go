package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"teahouse/internal/pkg/logger"
	"teahouse/internal/service/catalog/application"
	"teahouse/internal/service/catalog/domain"
)

// CatalogHandler 封装了商品目录的 HTTP 处理器
type CatalogHandler struct {
	service *application.CatalogService
}

func NewCatalogHandler(service *application.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.handleList)
	mux.HandleFunc("GET /api/products/{id}", h.handleGet)
}

func (h *CatalogHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	resp, err := h.service.ListProducts(r.Context(), q.Get("category"), limit, offset)
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("list products failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetProduct(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		logger.Ctx(r.Context()).Error().Err(err).Msg("get product failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
