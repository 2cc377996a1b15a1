package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/redactqc/redactqc/internal/queryapi"
)

const csvPageSize = 500

// writeFindingsCSV pages through every document in batchID and every
// finding on each document, writing one CSV row per finding.
func writeFindingsCSV(ctx context.Context, w io.Writer, api *queryapi.API, batchID string) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"document_id", "filename", "page_number", "pii_type", "confidence", "char_offset", "char_length", "context_snippet"}); err != nil {
		return err
	}

	docPage := 1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		docs, err := api.ListDocuments(batchID, queryapi.DocumentQuery{}, docPage, csvPageSize)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		if len(docs.Items) == 0 {
			break
		}

		for _, doc := range docs.Items {
			if err := writeDocumentFindings(ctx, cw, api, doc.ID, doc.Filename); err != nil {
				return err
			}
		}

		if docPage*csvPageSize >= docs.Total {
			break
		}
		docPage++
	}

	cw.Flush()
	return cw.Error()
}

func writeDocumentFindings(ctx context.Context, cw *csv.Writer, api *queryapi.API, docID, filename string) error {
	page := 1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		findings, err := api.ListFindings(docID, queryapi.FindingQuery{}, page, csvPageSize)
		if err != nil {
			return fmt.Errorf("list findings for %s: %w", docID, err)
		}
		if len(findings.Items) == 0 {
			break
		}

		for _, f := range findings.Items {
			row := []string{
				docID,
				filename,
				fmt.Sprintf("%d", f.PageNumber),
				f.PIIType,
				fmt.Sprintf("%.4f", f.Confidence),
				fmt.Sprintf("%d", f.CharOffset),
				fmt.Sprintf("%d", f.CharLength),
				f.ContextSnippet,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}

		if page*csvPageSize >= findings.Total {
			break
		}
		page++
	}
	return nil
}
