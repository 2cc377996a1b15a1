package detector

import (
	"regexp"
	"strings"
)

// token is one whitespace-delimited word with its byte offsets in the
// original text, used for context-window scanning (spec.md §4.3) in the
// same "walk then group" style as service.ChunkerService's
// paragraph/segment walk (internal/service/chunker.go), generalized here
// from chunk-sizing to fixed-radius context lookup.
type token struct {
	text  string
	start int
	end   int
}

var tokenPattern = regexp.MustCompile(`\S+`)

func tokenize(text string) []token {
	locs := tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]token, len(locs))
	for i, loc := range locs {
		tokens[i] = token{text: text[loc[0]:loc[1]], start: loc[0], end: loc[1]}
	}
	return tokens
}

// contextWords lists, per pii_type, the words whose presence within the
// context window boosts confidence (spec.md §4.3 "Confidence scoring").
var contextWords = map[string][]string{
	"US_SSN":           {"ssn", "social", "security"},
	"US_ITIN":          {"itin", "taxpayer", "tin"},
	"CREDIT_CARD":      {"card", "visa", "mastercard", "amex", "credit"},
	"US_BANK_NUMBER":   {"account", "bank", "acct"},
	"US_PASSPORT":      {"passport"},
	"US_DRIVER_LICENSE": {"license", "driver", "dl"},
	"PHONE_NUMBER":     {"phone", "call", "tel", "mobile"},
	"EMAIL_ADDRESS":    {"email", "e-mail"},
	"IP_ADDRESS":       {"ip", "address"},
	"URL":              {"http", "www", "link"},
	"DATE_TIME":        {"date", "dated", "on"},
	"MAC_ADDRESS":      {"mac"},
	"DEVICE_ID":        {"imei", "device"},
	"ROUTING_NUMBER":   {"routing", "aba"},
	"BANK_ACCOUNT":     {"account", "acct", "bank", "routing"},
	"CASE_NUMBER":      {"case", "docket"},
	"MEDICAL_RECORD":   {"mrn", "medical", "patient"},
	"PERSON":           {"name", "mr", "mrs", "ms", "dr", "signed", "attention", "attn"},
	"LOCATION":         {"location", "address", "city"},
}

// legalRoleKeywords promote a PERSON span into LEGAL_ROLE_NAME
// (spec.md §4.3). Also registered in contextWords so the promoted
// finding's own boost (spec.md §4.3 "Confidence scoring") uses the same
// keyword list that triggered the promotion.
var legalRoleKeywords = []string{
	"judge", "attorney", "counsel", "victim", "witness",
	"minor", "defendant", "plaintiff", "petitioner", "respondent",
}

func init() {
	contextWords["LEGAL_ROLE_NAME"] = legalRoleKeywords
}

// negatingWords reduce confidence for any pii_type (spec.md §4.3).
var negatingWords = []string{"example", "sample", "redacted", "dummy", "test", "placeholder", "fake", "n/a"}

// contextHitNear reports whether any of words appears among the `window`
// tokens immediately before spanStart or immediately after spanEnd,
// excluding the matched span itself.
func contextHitNear(tokens []token, spanStart, spanEnd, window int, words []string) bool {
	if len(words) == 0 {
		return false
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}

	before, after := surroundingTokens(tokens, spanStart, spanEnd, window)
	for _, t := range append(before, after...) {
		clean := strings.ToLower(strings.Trim(t.text, ".,:;!?()\"'"))
		if set[clean] {
			return true
		}
	}
	return false
}

// surroundingTokens returns up to `window` tokens strictly before
// spanStart and up to `window` tokens strictly after spanEnd.
func surroundingTokens(tokens []token, spanStart, spanEnd, window int) (before, after []token) {
	var beforeIdx, afterIdx []int
	for i, t := range tokens {
		if t.end <= spanStart {
			beforeIdx = append(beforeIdx, i)
		} else if t.start >= spanEnd {
			afterIdx = append(afterIdx, i)
		}
	}

	if n := len(beforeIdx); n > 0 {
		start := n - window
		if start < 0 {
			start = 0
		}
		for _, i := range beforeIdx[start:] {
			before = append(before, tokens[i])
		}
	}
	if len(afterIdx) > 0 {
		end := window
		if end > len(afterIdx) {
			end = len(afterIdx)
		}
		for _, i := range afterIdx[:end] {
			after = append(after, tokens[i])
		}
	}
	return before, after
}

// scoringConfig carries the confidence-scoring knobs (spec.md §4.3/§4.2
// config defaults, surfaced via config.Config).
type scoringConfig struct {
	ContextWindow  int
	ContextBoost   float64
	ContextPenalty float64
	ContextMax     int
	SnippetHardCap int
}

// applyContext implements "boost first, then penalty", in that order
// (spec.md §4.3 "Ordering of these operations is deterministic").
func applyContext(tokens []token, m spanMatch, cfg scoringConfig) float64 {
	conf := m.Confidence

	if words, ok := contextWords[m.PIIType]; ok && contextHitNear(tokens, m.Offset, m.end(), cfg.ContextWindow, words) {
		conf *= 1 + cfg.ContextBoost
		if conf > 1.0 {
			conf = 1.0
		}
	}

	if contextHitNear(tokens, m.Offset, m.end(), cfg.ContextWindow, negatingWords) {
		conf *= 1 - cfg.ContextPenalty
	}

	return conf
}

// buildSnippet constructs the context_snippet for a finding
// (spec.md §4.3 "Context snippet").
func buildSnippet(text string, offset, length int, cfg scoringConfig) string {
	w := (cfg.ContextMax - length) / 2
	if w < 8 {
		w = 8
	}

	start := offset - w
	if start < 0 {
		start = 0
	}
	end := offset + length + w
	if end > len(text) {
		end = len(text)
	}

	snippet := text[start:end]
	snippet = strings.ReplaceAll(snippet, "\r\n", " ")
	snippet = strings.ReplaceAll(snippet, "\n", " ")
	snippet = strings.ReplaceAll(snippet, "\r", " ")

	if len(snippet) > cfg.SnippetHardCap {
		snippet = snippet[:cfg.SnippetHardCap]
	}
	return snippet
}
