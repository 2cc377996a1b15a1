// Package model defines RedactQC's core entities (spec.md §3): Batch,
// Document, Finding, and PIICategory. JSON tags follow the teacher's
// camelCase convention so the entities serialize identically for the
// dashboard/report consumers described in spec.md §6.
package model

import "time"

// BatchStatus is a Batch's lifecycle state (spec.md §3 "Lifecycles").
type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchError      BatchStatus = "error"
)

// DocumentStatus is a Document's lifecycle state.
type DocumentStatus string

const (
	DocumentPending   DocumentStatus = "pending"
	DocumentCompleted DocumentStatus = "completed"
	DocumentError     DocumentStatus = "error"
)

// Batch is a scan job over one source folder.
type Batch struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	SourcePath       string      `json:"sourcePath"`
	CreatedAt        time.Time   `json:"createdAt"`
	Status           BatchStatus `json:"status"`
	TotalDocs        int         `json:"totalDocs"`
	ProcessedDocs    int         `json:"processedDocs"`
	DocsWithFindings int         `json:"docsWithFindings"`
}

// Document is one PDF file within a batch.
type Document struct {
	ID           string         `json:"id"`
	BatchID      string         `json:"batchId"`
	Filename     string         `json:"filename"`
	Filepath     string         `json:"filepath"`
	PageCount    int            `json:"pageCount"`
	FindingCount int            `json:"findingCount"`
	ProcessedAt  *time.Time     `json:"processedAt,omitempty"`
	Status       DocumentStatus `json:"status"`
}

// Finding is one detected PII instance on one page of one document.
type Finding struct {
	ID              string  `json:"id"`
	DocumentID      string  `json:"documentId"`
	PageNumber      int     `json:"pageNumber"`
	PIIType         string  `json:"piiType"`
	Confidence      float64 `json:"confidence"`
	CharOffset      int     `json:"charOffset"`
	CharLength      int     `json:"charLength"`
	ContextSnippet  string  `json:"contextSnippet"`
}

// PIICategory is the static reference table describing each pii_type.
type PIICategory struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	SeverityLevel int    `json:"severityLevel"`
}
