// Package detector finds PII spans in page text (spec.md §4.3), composing
// a fixed registry of structural regex recognizers and a named-entity
// recognizer, then applying context-aware confidence scoring and overlap
// resolution — generalized from the teacher's RedactorService.Scan
// (internal/service/redactor.go) from a single external DLP call onto an
// in-process, pluggable recognizer registry (spec.md §9).
package detector

import (
	"log/slog"

	"github.com/redactqc/redactqc/internal/ids"
	"github.com/redactqc/redactqc/internal/model"
)

// Config carries the detector's tunable knobs (spec.md §4.3 defaults,
// surfaced via config.Config).
type Config struct {
	ContextWindow  int
	ContextBoost   float64
	ContextPenalty float64
	ContextMax     int
	SnippetHardCap int
}

// Detector composes the recognizer registry and applies scoring rules.
type Detector struct {
	recognizers []recognizer
	cfg         scoringConfig
}

// New builds a Detector from cfg. Each Detector instance (and the
// recognizers it holds, including the NER model) is process-local — the
// WorkerPool gives every worker process its own Detector rather than
// sharing one across process boundaries (spec.md §4.5, §9).
func New(cfg Config) *Detector {
	sc := scoringConfig{
		ContextWindow:  cfg.ContextWindow,
		ContextBoost:   cfg.ContextBoost,
		ContextPenalty: cfg.ContextPenalty,
		ContextMax:     cfg.ContextMax,
		SnippetHardCap: cfg.SnippetHardCap,
	}

	registry := defaultRegistry(cfg.ContextWindow)
	registry = append(registry, nerRecognizer{personBase: 0.90, locationBase: 0.70})

	return &Detector{recognizers: registry, cfg: sc}
}

// Detect runs the full pipeline described in spec.md §4.3 for one page of
// text: collect → promote → score → filter → deduplicate → snippet.
func (d *Detector) Detect(pageText string, pageNumber int, minConfidence float64) []model.Finding {
	if pageText == "" {
		return nil
	}

	tokens := tokenize(pageText)

	raw := d.collect(pageText)
	promoted := promoteLegalRoles(tokens, raw, d.cfg.ContextWindow)

	scored := make([]spanMatch, 0, len(promoted))
	for _, m := range promoted {
		m.Confidence = applyContext(tokens, m, d.cfg)
		if m.Confidence < minConfidence {
			continue
		}
		scored = append(scored, m)
	}

	resolved := resolveOverlaps(scored)

	findings := make([]model.Finding, 0, len(resolved))
	for _, m := range resolved {
		findings = append(findings, model.Finding{
			ID:             ids.New().String(),
			PageNumber:     pageNumber,
			PIIType:        m.PIIType,
			Confidence:     m.Confidence,
			CharOffset:     m.Offset,
			CharLength:     m.Length,
			ContextSnippet: buildSnippet(pageText, m.Offset, m.Length, d.cfg),
		})
	}
	return findings
}

// collect runs every recognizer, isolating panics so one bad recognizer
// never fails the page (spec.md §4.3 "Errors").
func (d *Detector) collect(text string) []spanMatch {
	var all []spanMatch
	for _, r := range d.recognizers {
		all = append(all, runRecognizer(r, text)...)
	}
	return all
}

func runRecognizer(r recognizer, text string) (matches []spanMatch) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("detector: recognizer panicked, skipping", "recognizer", r.name(), "recover", rec)
			matches = nil
		}
	}()
	return r.analyze(text)
}

// promoteLegalRoles replaces a PERSON match with a LEGAL_ROLE_NAME match of
// the same span when a role keyword is within the context window
// (spec.md §4.3: "only one of the two is emitted").
func promoteLegalRoles(tokens []token, matches []spanMatch, window int) []spanMatch {
	out := make([]spanMatch, len(matches))
	copy(out, matches)
	for i, m := range out {
		if m.PIIType != model.PIIPerson {
			continue
		}
		if contextHitNear(tokens, m.Offset, m.end(), window, legalRoleKeywords) {
			out[i].PIIType = model.PIILegalRoleName
		}
	}
	return out
}
