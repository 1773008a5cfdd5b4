package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/notify"
	"github.com/chandruydv805026/my-web/internal/service"
)

func (h *Handler) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	var p entity.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := h.svc.Catalog.SaveProduct(r.Context(), &p); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAllBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.svc.Catalog.AllBanners(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, banners)
}

func (h *Handler) handleCreateBanner(w http.ResponseWriter, r *http.Request) {
	var req service.BannerInput
	if !decodeJSON(w, r, &req) {
		return
	}
	banner, err := h.svc.Catalog.CreateBanner(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, banner)
}

func (h *Handler) handleUpdateBanner(w http.ResponseWriter, r *http.Request) {
	var req service.BannerInput
	if !decodeJSON(w, r, &req) {
		return
	}
	banner, err := h.svc.Catalog.UpdateBanner(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, banner)
}

func (h *Handler) handleDeleteBanner(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Catalog.DeleteBanner(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRecentOrders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = n
	}
	orders, err := h.svc.Orders.RecentOrders(r.Context(), limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

type statusRequest struct {
	Status entity.OrderStatus `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.svc.Orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.Orders.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

type pushRequest struct {
	UserID string `json:"user_id"`
	notify.Notification
}

func (h *Handler) handlePushSend(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "user_id and title are required")
		return
	}
	res, err := h.svc.Push.SendToUser(r.Context(), req.UserID, req.Notification)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handlePushBroadcast(w http.ResponseWriter, r *http.Request) {
	var req notify.Notification
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	res, err := h.svc.Push.Broadcast(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
