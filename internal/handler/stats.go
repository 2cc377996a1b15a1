package handler

import (
	"net/http"

	"github.com/redactqc/redactqc/internal/queryapi"
)

// GlobalStats handles GET /api/stats.
func GlobalStats(api *queryapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := api.GlobalStats()
		if err != nil {
			respondErr(w, err)
			return
		}
		respondData(w, http.StatusOK, stats)
	}
}

// piiTypeRow is one row of GET /api/pii-types (spec.md §6 `[{pii_type,
// count, avg_confidence}]`).
type piiTypeRow struct {
	PIIType       string  `json:"pii_type"`
	Count         int     `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// PIITypeDistribution handles GET /api/pii-types.
func PIITypeDistribution(api *queryapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dist, err := api.PIITypeDistribution()
		if err != nil {
			respondErr(w, err)
			return
		}

		rows := make([]piiTypeRow, len(dist))
		for i, d := range dist {
			rows[i] = piiTypeRow{PIIType: d.PIIType, Count: d.Count, AvgConfidence: d.AvgConfidence}
		}
		respondData(w, http.StatusOK, rows)
	}
}
