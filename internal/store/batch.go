package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/redactqc/redactqc/internal/ids"
	"github.com/redactqc/redactqc/internal/model"
	"github.com/redactqc/redactqc/internal/redactqcerr"
)

// CreateBatch inserts a new Batch row in status pending and returns its id.
func (s *Store) CreateBatch(name, sourcePath string) (string, error) {
	id := ids.New().String()
	now := time.Now().UTC()

	err := s.withWrite(0, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO batches (id, name, source_path, created_at, status, total_docs, processed_docs, docs_with_findings)
			VALUES (?, ?, ?, ?, ?, 0, 0, 0)`,
			id, name, sourcePath, now.Format(time.RFC3339), string(model.BatchPending))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("store.CreateBatch: %w", err)
	}
	return id, nil
}

// GetBatch returns the Batch row for id, or NotFound if absent.
func (s *Store) GetBatch(id string) (*model.Batch, error) {
	row := s.db.QueryRow(`
		SELECT id, name, source_path, created_at, status, total_docs, processed_docs, docs_with_findings
		FROM batches WHERE id = ?`, id)

	b, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, redactqcerr.NewNotFound("batch", id)
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetBatch: %w", err)
	}
	return b, nil
}

// ListBatches returns all batches ordered by creation time, most recent
// first.
func (s *Store) ListBatches() ([]model.Batch, error) {
	rows, err := s.db.Query(`
		SELECT id, name, source_path, created_at, status, total_docs, processed_docs, docs_with_findings
		FROM batches ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store.ListBatches: %w", err)
	}
	defer rows.Close()

	var out []model.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("store.ListBatches: scan: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// DeleteBatch removes a Batch and, via ON DELETE CASCADE, its Documents and
// Findings (spec.md §3 invariant 1).
func (s *Store) DeleteBatch(id string) error {
	err := s.withWrite(0, func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM batches WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return redactqcerr.NewNotFound("batch", id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store.DeleteBatch: %w", err)
	}
	return nil
}

// SetBatchStatus transitions a batch's status (spec.md §3 "Lifecycles").
func (s *Store) SetBatchStatus(id string, status model.BatchStatus) error {
	err := s.withWrite(0, func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE batches SET status = ? WHERE id = ?`, string(status), id)
		return err
	})
	if err != nil {
		return fmt.Errorf("store.SetBatchStatus: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBatch(row rowScanner) (*model.Batch, error) {
	var b model.Batch
	var status, createdAt string
	if err := row.Scan(&b.ID, &b.Name, &b.SourcePath, &createdAt, &status,
		&b.TotalDocs, &b.ProcessedDocs, &b.DocsWithFindings); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, err
	}
	b.CreatedAt = t
	b.Status = model.BatchStatus(status)
	return &b, nil
}
