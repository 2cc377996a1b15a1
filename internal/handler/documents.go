package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/redactqc/redactqc/internal/queryapi"
)

// GetDocument handles GET /api/documents/{id}.
func GetDocument(api *queryapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		doc, err := api.GetDocument(id)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondData(w, http.StatusOK, doc)
	}
}

// ListDocumentFindings handles GET /api/documents/{id}/findings.
func ListDocumentFindings(api *queryapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := chi.URLParam(r, "id")

		q := queryapi.FindingQuery{PIIType: r.URL.Query().Get("pii_type")}
		if v := r.URL.Query().Get("min_confidence"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				badRequest(w, "min_confidence must be a float")
				return
			}
			q.MinConfidence = &f
		}

		page, pageSize, err := parsePagination(r)
		if err != nil {
			badRequest(w, err.Error())
			return
		}

		result, err := api.ListFindings(docID, q, page, pageSize)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondData(w, http.StatusOK, pagedResponse{
			Items:    result.Items,
			Total:    result.Total,
			Page:     result.Page,
			PageSize: result.PageSize,
		})
	}
}
