package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/redactqc/redactqc/internal/ids"
	"github.com/redactqc/redactqc/internal/model"
)

// RecordDocumentResult persists one document's processing outcome: its new
// status, page count, and findings, replacing any findings from a prior
// attempt (spec.md §3 invariants 2-5, §4.4 "re-processing is idempotent").
// It always clears the document's claim, including on DocumentError, so a
// future Resume can reclaim it (spec.md §4.6 "retry policy").
func (s *Store) RecordDocumentResult(docID string, pageCount int, status model.DocumentStatus, findings []model.Finding) error {
	err := s.withWrite(0, func(tx *sql.Tx) error {
		var batchID string
		if err := tx.QueryRow(`SELECT batch_id FROM documents WHERE id = ?`, docID).Scan(&batchID); err != nil {
			return err
		}

		if _, err := tx.Exec(`DELETE FROM findings WHERE document_id = ?`, docID); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO findings (id, document_id, page_number, pii_type, confidence, char_offset, char_length, context_snippet)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, f := range findings {
			id := f.ID
			if id == "" {
				id = ids.New().String()
			}
			if _, err := stmt.Exec(id, docID, f.PageNumber, f.PIIType, f.Confidence,
				f.CharOffset, f.CharLength, f.ContextSnippet); err != nil {
				return err
			}
		}

		now := time.Now().UTC().Format(time.RFC3339Nano)
		_, err = tx.Exec(`
			UPDATE documents SET
				page_count = ?,
				finding_count = ?,
				processed_at = ?,
				status = ?,
				claimed_at = NULL
			WHERE id = ?`,
			pageCount, len(findings), now, string(status), docID)
		if err != nil {
			return err
		}

		return refreshBatchCounters(tx, batchID)
	})
	if err != nil {
		return fmt.Errorf("store.RecordDocumentResult: %w", err)
	}
	return nil
}

// FindingFilter narrows ListFindings results (spec.md §4.1).
type FindingFilter struct {
	PIIType       string
	MinConfidence *float64
}

// ListFindings returns a page of Findings for docID matching filter.
func (s *Store) ListFindings(docID string, filter FindingFilter, page, pageSize int) ([]model.Finding, int, error) {
	page, pageSize = normalizePage(page, pageSize)

	where := "document_id = ?"
	args := []interface{}{docID}

	if filter.PIIType != "" {
		where += " AND pii_type = ?"
		args = append(args, filter.PIIType)
	}
	if filter.MinConfidence != nil {
		where += " AND confidence >= ?"
		args = append(args, *filter.MinConfidence)
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM findings WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store.ListFindings: count: %w", err)
	}

	listArgs := append(append([]interface{}{}, args...), pageSize, (page-1)*pageSize)
	rows, err := s.db.Query(`
		SELECT id, document_id, page_number, pii_type, confidence, char_offset, char_length, context_snippet
		FROM findings WHERE `+where+`
		ORDER BY char_offset LIMIT ? OFFSET ?`, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store.ListFindings: query: %w", err)
	}
	defer rows.Close()

	var out []model.Finding
	for rows.Next() {
		var f model.Finding
		if err := rows.Scan(&f.ID, &f.DocumentID, &f.PageNumber, &f.PIIType, &f.Confidence,
			&f.CharOffset, &f.CharLength, &f.ContextSnippet); err != nil {
			return nil, 0, fmt.Errorf("store.ListFindings: scan: %w", err)
		}
		out = append(out, f)
	}
	return out, total, rows.Err()
}
