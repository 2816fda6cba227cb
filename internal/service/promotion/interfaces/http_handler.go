package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"teahouse/internal/pkg/auth"
	"teahouse/internal/pkg/logger"
	"teahouse/internal/service/promotion/application"
	"teahouse/internal/service/promotion/domain"
)

// PromotionHandler 封装了 promotion 服务的 HTTP 处理器
type PromotionHandler struct {
	service *application.PromotionService
}

// NewPromotionHandler 创建一个新的 HTTP 处理器实例
func NewPromotionHandler(service *application.PromotionService) *PromotionHandler {
	return &PromotionHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *PromotionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/coupons/validate", h.handleValidate)

	mux.HandleFunc("GET /api/admin/coupons", h.handleList)
	mux.HandleFunc("POST /api/admin/coupons", h.handleCreate)
	mux.HandleFunc("GET /api/admin/coupons/{id}", h.handleGet)
	mux.HandleFunc("PUT /api/admin/coupons/{id}", h.handleUpdate)
	mux.HandleFunc("POST /api/admin/coupons/{id}/deactivate", h.handleDeactivate)
}

// handleValidate 返回结构化的校验结果，拒绝也是 200
func (h *PromotionHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.FromContext(ctx)
	if err := auth.RequireRole(actor, auth.RoleCustomer); err != nil {
		writeError(w, r, err)
		return
	}

	var req application.ValidateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	// 顾客只能以自己的身份校验，后台可以代客校验
	if !actor.IsPrivileged() || req.CustomerID == "" {
		req.CustomerID = actor.UserID
	}

	resp, err := h.service.ValidateCoupon(ctx, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PromotionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ListFilter{ActiveOnly: q.Get("active") == "true"}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	resp, err := h.service.ListCoupons(r.Context(), actorOf(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PromotionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in application.CouponInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	resp, err := h.service.CreateCoupon(r.Context(), actorOf(r), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *PromotionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.service.GetCoupon(r.Context(), actorOf(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PromotionHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in application.CouponInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	resp, err := h.service.UpdateCoupon(r.Context(), actorOf(r), id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PromotionHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.service.DeactivateCoupon(r.Context(), actorOf(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func actorOf(r *http.Request) auth.Actor {
	actor, _ := auth.FromContext(r.Context())
	return actor
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid coupon id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// writeError 根据错误类型返回不同的 HTTP 状态码
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var statusCode int
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		statusCode = http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		statusCode = http.StatusForbidden
	case errors.Is(err, domain.ErrCouponNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCoupon):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrCouponCodeTaken):
		statusCode = http.StatusConflict
	default:
		logger.Ctx(r.Context()).Error().Err(err).Msg("promotion request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, statusCode, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
