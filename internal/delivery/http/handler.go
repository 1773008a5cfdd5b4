package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chandruydv805026/my-web/internal/geocode"
	"github.com/chandruydv805026/my-web/internal/notify"
	"github.com/chandruydv805026/my-web/internal/service"
)

const maxBodyBytes = 1 << 20

// Geocoder resolves delivery addresses.
type Geocoder interface {
	Search(ctx context.Context, parts ...string) (*geocode.Place, error)
	Reverse(ctx context.Context, lat, lng float64) (*geocode.Place, error)
}

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth     *service.AuthService
	Carts    *service.CartService
	Orders   *service.OrderService
	Catalog  *service.CatalogService
	Geocoder Geocoder
	Push     notify.Pusher
}

type Options struct {
	AdminPassword  string
	AllowedOrigins []string
	RequestTimeout time.Duration
	VAPIDPublicKey string
}

// Handler handles HTTP requests for the application.
type Handler struct {
	svc  Services
	opts Options
}

func NewHandler(svc Services, opts Options) *Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	return &Handler{svc: svc, opts: opts}
}

// Routes builds the router with all public, customer and admin endpoints.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(EnableCORS(h.opts.AllowedOrigins))
	r.Use(middleware.Timeout(h.opts.RequestTimeout))

	r.Get("/health", h.handleHealth)

	r.Post("/signup", h.handleSignup)
	r.Post("/login", h.handleRequestOTP)
	r.Post("/resend-otp", h.handleRequestOTP)
	r.Post("/verify-otp", h.handleVerifyOTP)
	r.Post("/login/password", h.handlePasswordLogin)

	r.Get("/products", h.handleGetProducts)
	r.Get("/products/{id}", h.handleGetProduct)
	r.Get("/banners", h.handleActiveBanners)

	r.Post("/geocode", h.handleGeocode)
	r.Post("/reverse-geocode", h.handleReverseGeocode)

	r.Get("/push/vapid-public-key", h.handleVAPIDKey)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/profile", h.handleProfile)

		r.Get("/cart", h.handleGetCart)
		r.Put("/cart/items", h.handleSyncItem)
		r.Post("/cart/items", h.handleAddItem)
		r.Delete("/cart/items/{productId}", h.handleRemoveItem)
		r.Post("/cart/clear", h.handleClearCart)

		r.Post("/orders", h.handlePlaceOrder)
		r.Get("/orders", h.handleListOrders)
		r.Get("/orders/{id}", h.handleGetOrder)
		r.Post("/orders/{id}/cancel", h.handleCancelOrder)

		r.Post("/push/subscribe", h.handlePushSubscribe)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)

		r.Put("/products/{id}", h.handleSaveProduct)
		r.Delete("/products/{id}", h.handleDeleteProduct)

		r.Get("/banners", h.handleAllBanners)
		r.Post("/banners", h.handleCreateBanner)
		r.Put("/banners/{id}", h.handleUpdateBanner)
		r.Delete("/banners/{id}", h.handleDeleteBanner)

		r.Get("/orders", h.handleRecentOrders)
		r.Patch("/orders/{id}/status", h.handleUpdateStatus)
		r.Get("/orders/{id}/history", h.handleOrderHistory)

		r.Post("/push/send", h.handlePushSend)
		r.Post("/push/broadcast", h.handlePushBroadcast)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// EnableCORS lets the storefront and admin pages call the API from the browser.
func EnableCORS(allowed []string) func(http.Handler) http.Handler {
	anyOrigin := len(allowed) == 0
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			anyOrigin = true
		}
		set[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case anyOrigin:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case set[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Password")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

var geocodeErrors = []error{
	geocode.ErrInvalidQuery,
	geocode.ErrInvalidCoordinates,
	geocode.ErrNotFound,
	geocode.ErrUpstream,
}

// fail maps an error to its status code and a client-safe message.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := http.StatusText(status)

	var svcErr *service.Error
	switch {
	case errors.As(err, &svcErr):
		msg = svcErr.Msg
	case errors.Is(err, notify.ErrPushDisabled):
		msg = notify.ErrPushDisabled.Error()
	case errors.Is(err, notify.ErrInvalidSubscription):
		msg = notify.ErrInvalidSubscription.Error()
	default:
		for _, geoErr := range geocodeErrors {
			if errors.Is(err, geoErr) {
				msg = geoErr.Error()
			}
		}
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeError(w, status, strings.TrimSpace(msg))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, notify.ErrInvalidSubscription),
		errors.Is(err, geocode.ErrInvalidQuery),
		errors.Is(err, geocode.ErrInvalidCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound), errors.Is(err, geocode.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrUpstream), errors.Is(err, geocode.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, notify.ErrPushDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
