package httptransport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	derrors "usemy/pkg/domain-errors"
	"usemy/pkg/geo"
)

// handleRegistryLookup resolves a SIRET. When the caller passes its own
// coordinates (?lat=&lng=) and the establishment has geocoded ones, the
// response includes the great-circle distance.
func (h *Handler) handleRegistryLookup(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		writeError(w, derrors.New(derrors.CodeUnavailable, "company registry is not configured"))
		return
	}
	company, err := h.registry.Lookup(r.Context(), chi.URLParam(r, "siret"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{"company": company}
	if from, ok := parsePoint(r.URL.Query().Get("lat"), r.URL.Query().Get("lng")); ok &&
		company.Latitude != nil && company.Longitude != nil {
		km := geo.DistanceKm(from, geo.Point{
			Latitude:  *company.Latitude,
			Longitude: *company.Longitude,
		})
		resp["distance_km"] = km
	}
	writeJSON(w, http.StatusOK, resp)
}

func parsePoint(rawLat, rawLng string) (geo.Point, bool) {
	if rawLat == "" || rawLng == "" {
		return geo.Point{}, false
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil || lat < -90 || lat > 90 {
		return geo.Point{}, false
	}
	lng, err := strconv.ParseFloat(rawLng, 64)
	if err != nil || lng < -180 || lng > 180 {
		return geo.Point{}, false
	}
	return geo.Point{Latitude: lat, Longitude: lng}, true
}
