package detector

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/redactqc/redactqc/internal/model"
)

// regexRecognizer matches a precompiled pattern and assigns baseConfidence
// to every match that passes validate (if set). This mirrors the teacher's
// static defaultInfoTypes/infoTypeToRedactLabel registry
// (internal/service/redactor.go), generalized from a fixed DLP info-type
// list to precompiled structural recognizers.
type regexRecognizer struct {
	piiType        string
	pattern        *regexp.Regexp
	baseConfidence float64
	validate       func(match string) bool
}

func (r regexRecognizer) name() string { return r.piiType }

func (r regexRecognizer) analyze(text string) []spanMatch {
	var matches []spanMatch
	for _, loc := range r.pattern.FindAllStringIndex(text, -1) {
		m := text[loc[0]:loc[1]]
		if r.validate != nil && !r.validate(m) {
			continue
		}
		matches = append(matches, spanMatch{
			PIIType:    r.piiType,
			Offset:     loc[0],
			Length:     loc[1] - loc[0],
			Confidence: r.baseConfidence,
		})
	}
	return matches
}

// defaultRegistry builds the structural recognizer set from spec.md §4.3.
// Base confidences are calibrated so that, combined with context scoring
// (context.go), the literal scenarios in spec.md §8 hold.
func defaultRegistry(contextWindow int) []recognizer {
	return []recognizer{
		bankAccountRecognizer{
			pattern:       regexp.MustCompile(`\b\d{8,17}\b`),
			contextWindow: contextWindow,
		},
		regexRecognizer{
			piiType:        model.PIIUSSSN,
			pattern:        regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			baseConfidence: 0.80,
		},
		regexRecognizer{
			piiType:        model.PIIUSITIN,
			pattern:        regexp.MustCompile(`\b9\d{2}-\d{2}-\d{4}\b`),
			baseConfidence: 0.80,
		},
		regexRecognizer{
			piiType:        model.PIICreditCard,
			pattern:        regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`),
			baseConfidence: 0.85,
			validate:       func(m string) bool { return luhnValid(digitsOnly(m)) },
		},
		regexRecognizer{
			piiType:        model.PIIUSBankNumber,
			pattern:        regexp.MustCompile(`\b\d{9,12}\b`),
			baseConfidence: 0.75,
			validate:       mod11Valid,
		},
		regexRecognizer{
			piiType:        model.PIIUSPassport,
			pattern:        regexp.MustCompile(`\b[A-Z]{1,2}\d{6,9}\b`),
			baseConfidence: 0.75,
		},
		regexRecognizer{
			piiType:        model.PIIUSDriverLicense,
			pattern:        regexp.MustCompile(`\b[A-Z]\d{7,12}\b`),
			baseConfidence: 0.70,
		},
		regexRecognizer{
			piiType:        model.PIIPhoneNumber,
			pattern:        regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}\b`),
			baseConfidence: 0.80,
		},
		regexRecognizer{
			piiType:        model.PIIEmailAddress,
			pattern:        regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`),
			baseConfidence: 0.90,
		},
		regexRecognizer{
			piiType:        model.PIIIPAddress,
			pattern:        regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			baseConfidence: 0.75,
			validate:       isValidIPv4,
		},
		regexRecognizer{
			piiType:        model.PIIURL,
			pattern:        regexp.MustCompile(`\bhttps?://[^\s<>"]+`),
			baseConfidence: 0.60,
		},
		regexRecognizer{
			piiType:        model.PIIDateTime,
			pattern:        regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
			baseConfidence: 0.55,
		},
		regexRecognizer{
			piiType:        model.PIIMACAddress,
			pattern:        regexp.MustCompile(`\b([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}\b`),
			baseConfidence: 0.80,
		},
		regexRecognizer{
			piiType:        model.PIIDeviceID,
			pattern:        regexp.MustCompile(`\b\d{15}\b`),
			baseConfidence: 0.80,
			validate:       func(m string) bool { return luhnValid(digitsOnly(m)) },
		},
		regexRecognizer{
			piiType:        model.PIIRoutingNumber,
			pattern:        regexp.MustCompile(`\b\d{9}\b`),
			baseConfidence: 0.75,
			validate:       abaValid,
		},
		regexRecognizer{
			piiType:        model.PIICaseNumber,
			pattern:        regexp.MustCompile(`(?i)\b(?:case\s+no\.?|case\s+number|\d{2}-[A-Z]{2}-\d{4,6})\b[:\s]*[A-Za-z0-9-]*`),
			baseConfidence: 0.60,
		},
		regexRecognizer{
			piiType:        model.PIIMedicalRecord,
			pattern:        regexp.MustCompile(`(?i)\bMRN[:\s#]*[A-Za-z0-9-]{4,15}\b`),
			baseConfidence: 0.55,
		},
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// luhnValid implements the Luhn mod-10 checksum used by CREDIT_CARD and
// DEVICE_ID (IMEI) recognizers. No ecosystem library in the pack implements
// Luhn; this is hand-rolled arithmetic (see DESIGN.md).
func luhnValid(digits string) bool {
	if len(digits) < 2 {
		return false
	}
	sum := 0
	alternate := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if alternate {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alternate = !alternate
	}
	return sum%10 == 0
}

// abaValid implements the ABA routing-number check-digit algorithm:
// weights 3,7,1 repeated over the 9 digits, sum must be divisible by 10.
func abaValid(digits string) bool {
	digits = digitsOnly(digits)
	if len(digits) != 9 {
		return false
	}
	weights := [9]int{3, 7, 1, 3, 7, 1, 3, 7, 1}
	sum := 0
	for i, w := range weights {
		d := int(digits[i] - '0')
		sum += d * w
	}
	return sum%10 == 0
}

// mod11Valid implements a mod-11 check digit (weights 2..N cycling, no
// ecosystem library in the pack performs this; see DESIGN.md) used as
// US_BANK_NUMBER's structural validator, distinguishing it from the
// context-only BANK_ACCOUNT recognizer below.
func mod11Valid(m string) bool {
	digits := digitsOnly(m)
	if len(digits) < 2 {
		return false
	}
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		sum += d * weight
		weight++
		if weight > 7 {
			weight = 2
		}
	}
	return sum%11 == 0
}

// bankAccountRecognizer implements BANK_ACCOUNT: an 8-17 digit run with no
// checksum, emitted only when a finance-context word is within the
// context window (spec.md §4.3 "near a finance context word") — unlike
// every other structural recognizer, the context requirement gates
// emission itself rather than merely boosting confidence afterward.
type bankAccountRecognizer struct {
	pattern       *regexp.Regexp
	contextWindow int
}

func (r bankAccountRecognizer) name() string { return model.PIIBankAccount }

func (r bankAccountRecognizer) analyze(text string) []spanMatch {
	tokens := tokenize(text)
	words := contextWords[model.PIIBankAccount]

	var matches []spanMatch
	for _, loc := range r.pattern.FindAllStringIndex(text, -1) {
		if !contextHitNear(tokens, loc[0], loc[1], r.contextWindow, words) {
			continue
		}
		matches = append(matches, spanMatch{
			PIIType:    model.PIIBankAccount,
			Offset:     loc[0],
			Length:     loc[1] - loc[0],
			Confidence: 0.55,
		})
	}
	return matches
}

func isValidIPv4(m string) bool {
	parts := strings.Split(m, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return false
		}
		if len(p) > 1 && p[0] == '0' {
			return false
		}
	}
	return true
}
