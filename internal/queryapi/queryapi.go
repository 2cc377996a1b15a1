// Package queryapi is the read-only projection layer consumed by the HTTP
// surface and the report generator (spec.md §4.7). It adds nothing beyond
// Store's own query methods: page-size defaulting/clamping and a thin,
// stable surface the router can depend on without reaching into internal/store
// directly, mirroring how the teacher's internal/service layer sits in front
// of internal/repository.
package queryapi

import (
	"fmt"

	"github.com/redactqc/redactqc/internal/model"
	"github.com/redactqc/redactqc/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Page is a page of results plus the metadata the HTTP layer echoes back
// (spec.md §6 `{items, total, page, page_size}`).
type Page[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
}

// DocumentQuery narrows ListDocuments (spec.md §4.7).
type DocumentQuery struct {
	PIIType       string
	MinConfidence *float64
	HasFindings   *bool
}

// FindingQuery narrows ListFindings (spec.md §4.7).
type FindingQuery struct {
	PIIType       string
	MinConfidence *float64
}

// API is the read-only query surface, backed by one Store.
type API struct {
	store *store.Store
}

func New(st *store.Store) *API {
	return &API{store: st}
}

// GlobalStats returns store-wide totals for GET /api/stats.
func (a *API) GlobalStats() (*store.GlobalStats, error) {
	stats, err := a.store.GlobalStats()
	if err != nil {
		return nil, fmt.Errorf("queryapi.GlobalStats: %w", err)
	}
	return stats, nil
}

// PIITypeDistribution returns per-type counts for GET /api/pii-types.
func (a *API) PIITypeDistribution() ([]store.PIITypeStat, error) {
	dist, err := a.store.PIITypeDistribution()
	if err != nil {
		return nil, fmt.Errorf("queryapi.PIITypeDistribution: %w", err)
	}
	return dist, nil
}

// ListBatches returns every batch for GET /api/batches.
func (a *API) ListBatches() ([]model.Batch, error) {
	batches, err := a.store.ListBatches()
	if err != nil {
		return nil, fmt.Errorf("queryapi.ListBatches: %w", err)
	}
	return batches, nil
}

// GetBatch returns one batch for GET /api/batches/{id}.
func (a *API) GetBatch(id string) (*model.Batch, error) {
	b, err := a.store.GetBatch(id)
	if err != nil {
		return nil, fmt.Errorf("queryapi.GetBatch: %w", err)
	}
	return b, nil
}

// ListDocuments returns a page of Documents for GET /api/batches/{id}/documents.
func (a *API) ListDocuments(batchID string, q DocumentQuery, page, pageSize int) (Page[model.Document], error) {
	page, pageSize = normalizePage(page, pageSize)

	items, total, err := a.store.ListDocuments(batchID, store.DocumentFilter{
		PIIType:       q.PIIType,
		MinConfidence: q.MinConfidence,
		HasFindings:   q.HasFindings,
	}, page, pageSize)
	if err != nil {
		return Page[model.Document]{}, fmt.Errorf("queryapi.ListDocuments: %w", err)
	}

	return Page[model.Document]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetDocument returns one document for GET /api/documents/{id}.
func (a *API) GetDocument(id string) (*model.Document, error) {
	d, err := a.store.GetDocument(id)
	if err != nil {
		return nil, fmt.Errorf("queryapi.GetDocument: %w", err)
	}
	return d, nil
}

// ListFindings returns a page of Findings for GET /api/documents/{id}/findings.
func (a *API) ListFindings(docID string, q FindingQuery, page, pageSize int) (Page[model.Finding], error) {
	page, pageSize = normalizePage(page, pageSize)

	items, total, err := a.store.ListFindings(docID, store.FindingFilter{
		PIIType:       q.PIIType,
		MinConfidence: q.MinConfidence,
	}, page, pageSize)
	if err != nil {
		return Page[model.Finding]{}, fmt.Errorf("queryapi.ListFindings: %w", err)
	}

	return Page[model.Finding]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// normalizePage applies spec.md §4.7's default-50/max-500/1-based rules.
// Store's own normalizePage already enforces this for the count/select
// queries; this copy keeps the Page{} metadata returned to the caller
// consistent with what was actually applied.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
