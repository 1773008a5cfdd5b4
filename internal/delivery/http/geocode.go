package http

import (
	"net/http"

	"github.com/chandruydv805026/my-web/internal/geocode"
)

type geocodeRequest struct {
	Address string `json:"address"`
	Area    string `json:"area"`
	Pincode string `json:"pincode"`
}

func (h *Handler) handleGeocode(w http.ResponseWriter, r *http.Request) {
	var req geocodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	place, err := h.svc.Geocoder.Search(r.Context(), req.Address, req.Area, req.Pincode)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}

type reverseGeocodeRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (h *Handler) handleReverseGeocode(w http.ResponseWriter, r *http.Request) {
	var req reverseGeocodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Lat == nil || req.Lng == nil {
		fail(w, r, geocode.ErrInvalidCoordinates)
		return
	}
	place, err := h.svc.Geocoder.Reverse(r.Context(), *req.Lat, *req.Lng)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}
