package geocode

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeNominatim(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", UserAgent: "grocery-test/1.0"})
}

func TestClient_Search(t *testing.T) {
	c := fakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "12 MG Road, Indiranagar, 560038", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "grocery-test/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"12.9716","lon":"77.6412","display_name":"MG Road, Bengaluru",
			"address":{"suburb":"Indiranagar","postcode":"560038","city":"Bengaluru"}}]`))
	})

	place, err := c.Search(context.Background(), "12 MG Road", " ", "Indiranagar", "560038")
	require.NoError(t, err)
	assert.InDelta(t, 12.9716, place.Lat, 1e-9)
	assert.InDelta(t, 77.6412, place.Lng, 1e-9)
	assert.Equal(t, "MG Road, Bengaluru", place.DisplayName)
	assert.Equal(t, "Indiranagar", place.Area)
	assert.Equal(t, "560038", place.Pincode)
	assert.Equal(t, "Bengaluru", place.Components["city"])
}

func TestClient_SearchErrors(t *testing.T) {
	empty := fakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	_, err := empty.Search(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = empty.Search(context.Background(), "", "  ")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	down := fakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err = down.Search(context.Background(), "MG Road")
	assert.ErrorIs(t, err, ErrUpstream)

	garbled := fakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	_, err = garbled.Search(context.Background(), "MG Road")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestClient_Reverse(t *testing.T) {
	c := fakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "23.35", r.URL.Query().Get("lat"))
		assert.Equal(t, "85.33", r.URL.Query().Get("lon"))
		_, _ = w.Write([]byte(`{"lat":"23.3501","lon":"85.3302","display_name":"Main Road, Ranchi",
			"address":{"neighbourhood":"Lalpur","postcode":"834001"}}`))
	})

	place, err := c.Reverse(context.Background(), 23.35, 85.33)
	require.NoError(t, err)
	assert.Equal(t, "Main Road, Ranchi", place.DisplayName)
	assert.Equal(t, "Lalpur", place.Area)
	assert.Equal(t, "834001", place.Pincode)
}

func TestClient_ReverseNotFound(t *testing.T) {
	c := fakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	})

	_, err := c.Reverse(context.Background(), 0.5, -0.5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_ReverseRejectsBadCoordinates(t *testing.T) {
	c := fakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for invalid coordinates")
	})

	for _, coords := range [][2]float64{{91, 0}, {0, 181}, {math.NaN(), 0}, {0, math.Inf(1)}} {
		_, err := c.Reverse(context.Background(), coords[0], coords[1])
		assert.ErrorIs(t, err, ErrInvalidCoordinates)
	}
}
