package api

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"foncier-search/internal/db"
	"foncier-search/internal/geo"
	"foncier-search/internal/models"
)

// Handlers contains HTTP handlers and their dependencies
type Handlers struct {
	db *db.DB
}

// NewHandlers creates a new Handlers instance
func NewHandlers(database *db.DB) *Handlers {
	return &Handlers{db: database}
}

// ListRecords handles GET /api/records
func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := db.RecordFilter{}

	// Parse status filter
	if v := q.Get("status"); v != "" {
		for _, s := range strings.Split(v, ",") {
			filter.Statuses = append(filter.Statuses, models.LandStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}

	// Parse price filters
	if v := q.Get("price_min"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			filter.PriceMin = &val
		}
	}
	if v := q.Get("price_max"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			filter.PriceMax = &val
		}
	}

	if v := q.Get("commune"); v != "" {
		filter.Commune = &v
	}

	// Parse map bounds (sw_lat,sw_lng,ne_lat,ne_lng)
	if v := q.Get("bounds"); v != "" {
		parts := strings.Split(v, ",")
		if len(parts) == 4 {
			swLat, _ := strconv.ParseFloat(parts[0], 64)
			swLng, _ := strconv.ParseFloat(parts[1], 64)
			neLat, _ := strconv.ParseFloat(parts[2], 64)
			neLng, _ := strconv.ParseFloat(parts[3], 64)
			filter.SWLat = &swLat
			filter.SWLng = &swLng
			filter.NELat = &neLat
			filter.NELng = &neLng
		}
	}

	// Parse radius search (lat, lng, radius_m)
	var centerLat, centerLng, radiusM float64
	radiusSearch := false
	if latStr, lngStr, radStr := q.Get("lat"), q.Get("lng"), q.Get("radius_m"); latStr != "" && lngStr != "" && radStr != "" {
		lat, err1 := strconv.ParseFloat(latStr, 64)
		lng, err2 := strconv.ParseFloat(lngStr, 64)
		rad, err3 := strconv.ParseFloat(radStr, 64)
		if err1 == nil && err2 == nil && err3 == nil && rad > 0 {
			centerLat, centerLng, radiusM = lat, lng, rad
			radiusSearch = true

			// Prefilter with the bounding box enclosing the radius.
			latDelta := radiusM / 111320.0
			lngDelta := radiusM / (111320.0 * math.Cos(centerLat*math.Pi/180))
			swLat, neLat := centerLat-latDelta, centerLat+latDelta
			swLng, neLng := centerLng-lngDelta, centerLng+lngDelta
			filter.SWLat = &swLat
			filter.SWLng = &swLng
			filter.NELat = &neLat
			filter.NELng = &neLng
		}
	}

	// Parse pagination
	if v := q.Get("limit"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 && val <= 500 {
			filter.Limit = val
		}
	}
	if v := q.Get("offset"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			filter.Offset = val
		}
	}

	records, err := h.db.ListLandRecords(filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if radiusSearch {
		records = filterByRadius(records, centerLat, centerLng, radiusM)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// filterByRadius keeps records within radiusM of the center, sorted by
// great-circle proximity.
func filterByRadius(records []models.LandRecordListItem, lat, lng, radiusM float64) []models.LandRecordListItem {
	filtered := make([]models.LandRecordListItem, 0, len(records))
	for _, rec := range records {
		d := geo.Haversine(lat, lng, rec.Latitude, rec.Longitude)
		if d <= radiusM {
			dist := d
			rec.DistanceM = &dist
			filtered = append(filtered, rec)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return *filtered[i].DistanceM < *filtered[j].DistanceM
	})
	return filtered
}

// GetRecord handles GET /api/records/{id}
func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid record ID", http.StatusBadRequest)
		return
	}

	record, err := h.db.GetLandRecord(id)
	if err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

// GetFilterOptions handles GET /api/filters/options
func (h *Handlers) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.db.GetFilterOptions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(options)
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.db.LandRecordCount()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"records": count,
	})
}
