package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/redactqc/redactqc/internal/batchmanager"
	"github.com/redactqc/redactqc/internal/queryapi"
)

// ListBatches handles GET /api/batches.
func ListBatches(api *queryapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batches, err := api.ListBatches()
		if err != nil {
			respondErr(w, err)
			return
		}
		respondData(w, http.StatusOK, batches)
	}
}

// GetBatch handles GET /api/batches/{id}.
func GetBatch(api *queryapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		batch, err := api.GetBatch(id)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondData(w, http.StatusOK, batch)
	}
}

// DeleteBatch handles DELETE /api/batches/{id}: cancels any in-flight scan
// then removes the batch and its documents/findings.
func DeleteBatch(bm *batchmanager.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := bm.DeleteBatch(id); err != nil {
			respondErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListBatchDocuments handles GET /api/batches/{id}/documents.
func ListBatchDocuments(api *queryapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID := chi.URLParam(r, "id")

		q := queryapi.DocumentQuery{PIIType: r.URL.Query().Get("pii_type")}
		if v := r.URL.Query().Get("min_confidence"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				q.MinConfidence = &f
			} else {
				badRequest(w, "min_confidence must be a float")
				return
			}
		}
		if v := r.URL.Query().Get("has_findings"); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				q.HasFindings = &b
			} else {
				badRequest(w, "has_findings must be a bool")
				return
			}
		}

		page, pageSize, err := parsePagination(r)
		if err != nil {
			badRequest(w, err.Error())
			return
		}

		result, err := api.ListDocuments(batchID, q, page, pageSize)
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

// pagedResponse is the `{items, total, page, page_size}` shape spec.md §6
// defines for list endpoints.
type pagedResponse struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func parsePagination(r *http.Request) (page, pageSize int, err error) {
	page = 1
	if v := r.URL.Query().Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, errInvalidParam("page")
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		pageSize, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, errInvalidParam("page_size")
		}
	}
	return page, pageSize, nil
}

type paramError string

func (e paramError) Error() string { return string(e) + " must be an integer" }

func errInvalidParam(name string) error {
	return paramError(name)
}
