package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/redactqc/redactqc/internal/ids"
	"github.com/redactqc/redactqc/internal/model"
	"github.com/redactqc/redactqc/internal/redactqcerr"
)

// DocInput is one row to insert via InsertDocuments.
type DocInput struct {
	Filename string
	Filepath string
}

// InsertDocuments inserts all docs for batchID in a single transaction and
// refreshes the batch's total_docs counter (spec.md §3 invariant 2).
func (s *Store) InsertDocuments(batchID string, docs []DocInput) ([]string, error) {
	docIDs := make([]string, len(docs))

	err := s.withWrite(0, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO documents (id, batch_id, filename, filepath, page_count, finding_count, status)
			VALUES (?, ?, ?, ?, 0, 0, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, d := range docs {
			id := ids.New().String()
			docIDs[i] = id
			if _, err := stmt.Exec(id, batchID, d.Filename, d.Filepath, string(model.DocumentPending)); err != nil {
				return err
			}
		}

		return refreshBatchCounters(tx, batchID)
	})
	if err != nil {
		return nil, fmt.Errorf("store.InsertDocuments: %w", err)
	}
	return docIDs, nil
}

// ClaimNextPending atomically claims the next unclaimed pending or error
// document in batchID (spec.md §4.1). A document is "unclaimed" until
// RecordDocumentResult or ReleaseClaim clears its claim; this lets
// BatchManager build a chunk of distinct jobs via repeated calls before any
// of them resolve (spec.md §4.5 "Chunking").
func (s *Store) ClaimNextPending(batchID string) (docID string, filepath string, ok bool, err error) {
	txErr := s.withWrite(0, func(tx *sql.Tx) error {
		row := tx.QueryRow(`
			SELECT id, filepath FROM documents
			WHERE batch_id = ? AND status IN (?, ?) AND claimed_at IS NULL
			ORDER BY rowid LIMIT 1`,
			batchID, string(model.DocumentPending), string(model.DocumentError))

		e := row.Scan(&docID, &filepath)
		if e == sql.ErrNoRows {
			ok = false
			return nil
		}
		if e != nil {
			return e
		}

		now := time.Now().UTC().Format(time.RFC3339Nano)
		if _, e := tx.Exec(`UPDATE documents SET claimed_at = ? WHERE id = ?`, now, docID); e != nil {
			return e
		}
		ok = true
		return nil
	})
	if txErr != nil {
		return "", "", false, fmt.Errorf("store.ClaimNextPending: %w", txErr)
	}
	return docID, filepath, ok, nil
}

// ReleaseClaim clears a document's claim without changing its status, used
// when a worker returns Cancelled (spec.md §4.5 "Cancellation"): the
// document must remain eligible for a future Resume.
func (s *Store) ReleaseClaim(docID string) error {
	err := s.withWrite(0, func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE documents SET claimed_at = NULL WHERE id = ?`, docID)
		return err
	})
	if err != nil {
		return fmt.Errorf("store.ReleaseClaim: %w", err)
	}
	return nil
}

// GetDocument returns one Document by id.
func (s *Store) GetDocument(id string) (*model.Document, error) {
	row := s.db.QueryRow(`
		SELECT id, batch_id, filename, filepath, page_count, finding_count, processed_at, status
		FROM documents WHERE id = ?`, id)

	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, redactqcerr.NewNotFound("document", id)
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetDocument: %w", err)
	}
	return d, nil
}

// DocumentFilter narrows ListDocuments results (spec.md §4.1).
type DocumentFilter struct {
	PIIType       string
	MinConfidence *float64
	HasFindings   *bool
}

// ListDocuments returns a page of Documents for batchID matching filter.
func (s *Store) ListDocuments(batchID string, filter DocumentFilter, page, pageSize int) ([]model.Document, int, error) {
	page, pageSize = normalizePage(page, pageSize)

	where := []string{"batch_id = ?"}
	args := []interface{}{batchID}

	if filter.PIIType != "" {
		where = append(where, "EXISTS (SELECT 1 FROM findings f WHERE f.document_id = documents.id AND f.pii_type = ?)")
		args = append(args, filter.PIIType)
	}
	if filter.MinConfidence != nil {
		where = append(where, "EXISTS (SELECT 1 FROM findings f WHERE f.document_id = documents.id AND f.confidence >= ?)")
		args = append(args, *filter.MinConfidence)
	}
	if filter.HasFindings != nil {
		if *filter.HasFindings {
			where = append(where, "finding_count > 0")
		} else {
			where = append(where, "finding_count = 0")
		}
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM documents WHERE " + whereClause
	if err := s.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store.ListDocuments: count: %w", err)
	}

	listQuery := `
		SELECT id, batch_id, filename, filepath, page_count, finding_count, processed_at, status
		FROM documents WHERE ` + whereClause + `
		ORDER BY rowid LIMIT ? OFFSET ?`
	listArgs := append(append([]interface{}{}, args...), pageSize, (page-1)*pageSize)

	rows, err := s.db.Query(listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store.ListDocuments: query: %w", err)
	}
	defer rows.Close()

	var out []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("store.ListDocuments: scan: %w", err)
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var d model.Document
	var status string
	var processedAt sql.NullString

	if err := row.Scan(&d.ID, &d.BatchID, &d.Filename, &d.Filepath, &d.PageCount,
		&d.FindingCount, &processedAt, &status); err != nil {
		return nil, err
	}
	d.Status = model.DocumentStatus(status)
	if processedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, processedAt.String)
		if err != nil {
			t, err = time.Parse(time.RFC3339, processedAt.String)
			if err != nil {
				return nil, err
			}
		}
		d.ProcessedAt = &t
	}
	return &d, nil
}

// refreshBatchCounters recomputes total_docs, processed_docs, and
// docs_with_findings from the documents table (spec.md §3 invariants 2-4).
// Must be called within the same transaction as any document mutation.
func refreshBatchCounters(tx *sql.Tx, batchID string) error {
	_, err := tx.Exec(`
		UPDATE batches SET
			total_docs = (SELECT COUNT(*) FROM documents WHERE batch_id = ?),
			processed_docs = (SELECT COUNT(*) FROM documents WHERE batch_id = ? AND status IN (?, ?)),
			docs_with_findings = (SELECT COUNT(*) FROM documents WHERE batch_id = ? AND finding_count > 0)
		WHERE id = ?`,
		batchID, batchID, string(model.DocumentCompleted), string(model.DocumentError), batchID, batchID)
	return err
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 500 {
		pageSize = 500
	}
	return page, pageSize
}
