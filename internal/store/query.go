package store

import "fmt"

// GlobalStats summarizes the whole store for the dashboard-level view
// (spec.md §4.7 "Query API").
type GlobalStats struct {
	TotalBatches     int
	TotalDocuments   int
	DocumentsWithPII int
	TotalFindings    int
}

// GlobalStats computes store-wide totals across all batches.
func (s *Store) GlobalStats() (*GlobalStats, error) {
	var g GlobalStats

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM batches`).Scan(&g.TotalBatches); err != nil {
		return nil, fmt.Errorf("store.GlobalStats: batches: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&g.TotalDocuments); err != nil {
		return nil, fmt.Errorf("store.GlobalStats: documents: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents WHERE finding_count > 0`).Scan(&g.DocumentsWithPII); err != nil {
		return nil, fmt.Errorf("store.GlobalStats: documents with pii: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM findings`).Scan(&g.TotalFindings); err != nil {
		return nil, fmt.Errorf("store.GlobalStats: findings: %w", err)
	}

	return &g, nil
}

// PIITypeStat is one row of the per-type distribution.
type PIITypeStat struct {
	PIIType       string
	Count         int
	AvgConfidence float64
	SeverityLevel int
}

// PIITypeDistribution returns finding counts and average confidence grouped
// by pii_type, joined against the seeded pii_categories severity table
// (spec.md §4.7, §4.2 severity table).
func (s *Store) PIITypeDistribution() ([]PIITypeStat, error) {
	rows, err := s.db.Query(`
		SELECT f.pii_type, COUNT(*), AVG(f.confidence), COALESCE(c.severity_level, 0)
		FROM findings f
		LEFT JOIN pii_categories c ON c.name = f.pii_type
		GROUP BY f.pii_type
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("store.PIITypeDistribution: %w", err)
	}
	defer rows.Close()

	var out []PIITypeStat
	for rows.Next() {
		var st PIITypeStat
		if err := rows.Scan(&st.PIIType, &st.Count, &st.AvgConfidence, &st.SeverityLevel); err != nil {
			return nil, fmt.Errorf("store.PIITypeDistribution: scan: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
