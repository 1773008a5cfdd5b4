package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/service"
)

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupInput
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.svc.Auth.Signup(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

// handleRequestOTP serves both login and resend.
func (h *Handler) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Auth.RequestOTP(r.Context(), req.Phone); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "OTP sent to your registered email"})
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.svc.Auth.VerifyOTP(r.Context(), req.Phone, req.OTP)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type passwordLoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) handlePasswordLogin(w http.ResponseWriter, r *http.Request) {
	var req passwordLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.svc.Auth.LoginWithPassword(r.Context(), req.Phone, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Auth.Profile(r.Context(), userID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleGetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Catalog.GetProducts(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.svc.Catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) handleActiveBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.svc.Catalog.ActiveBanners(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, banners)
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.Carts.GetCart(r.Context(), userID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) handleSyncItem(w http.ResponseWriter, r *http.Request) {
	var req service.ItemInput
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, err := h.svc.Carts.SyncItem(r.Context(), userID(r), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req service.ItemInput
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, err := h.svc.Carts.AddItem(r.Context(), userID(r), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.Carts.RemoveItem(r.Context(), userID(r), chi.URLParam(r, "productId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.Carts.ClearCart(r.Context(), userID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderInput
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.svc.Orders.PlaceOrder(r.Context(), userID(r), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.ListOrders(r.Context(), userID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Orders.GetOrder(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Orders.CancelOrder(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleVAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.opts.VAPIDPublicKey == "" {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.opts.VAPIDPublicKey})
}

func (h *Handler) handlePushSubscribe(w http.ResponseWriter, r *http.Request) {
	var sub entity.PushSubscription
	if !decodeJSON(w, r, &sub) {
		return
	}
	if err := h.svc.Push.Subscribe(r.Context(), userID(r), sub); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Success: true, Message: "subscribed"})
}
