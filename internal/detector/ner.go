package detector

import (
	"log/slog"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/redactqc/redactqc/internal/model"
)

// nerRecognizer wraps prose/v2's English tagger for PERSON/LOCATION spans
// (spec.md §4.3 "A named-entity model yielding PERSON, LOCATION"). prose is
// the pack's only pure-Go NER tagger (see DESIGN.md); it reports no
// per-entity confidence, so nerRecognizer assigns a fixed base confidence
// that context scoring then adjusts, matching the regex recognizers'
// baseConfidence convention.
type nerRecognizer struct {
	personBase   float64
	locationBase float64
}

func (n nerRecognizer) name() string { return "ner" }

// analyze never panics out of the detector: prose failures are logged and
// treated as "no entities" per spec.md §4.3 "Errors".
func (n nerRecognizer) analyze(text string) (matches []spanMatch) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("detector: ner recognizer panicked, skipping", "recover", r)
			matches = nil
		}
	}()

	doc, err := prose.NewDocument(text)
	if err != nil {
		slog.Warn("detector: ner recognizer failed, skipping", "error", err)
		return nil
	}

	for _, ent := range doc.Entities() {
		switch ent.Label {
		case "PERSON":
			matches = appendEntityMatch(matches, text, ent.Text, model.PIIPerson, n.personBase)
		case "GPE", "LOC":
			matches = appendEntityMatch(matches, text, ent.Text, model.PIILocation, n.locationBase)
		}
	}
	return matches
}

// appendEntityMatch locates every occurrence of an entity's surface text
// and records one spanMatch per occurrence. prose reports entities by
// surface text only, not by offset.
func appendEntityMatch(matches []spanMatch, text, surface, piiType string, base float64) []spanMatch {
	if surface == "" {
		return matches
	}
	start := 0
	for start < len(text) {
		idx := strings.Index(text[start:], surface)
		if idx < 0 {
			break
		}
		offset := start + idx
		matches = append(matches, spanMatch{
			PIIType:    piiType,
			Offset:     offset,
			Length:     len(surface),
			Confidence: base,
		})
		start = offset + len(surface)
	}
	return matches
}
