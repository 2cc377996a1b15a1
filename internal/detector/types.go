package detector

// spanMatch is a recognizer's raw hit before context scoring, filtering,
// and overlap resolution (spec.md §4.3).
type spanMatch struct {
	PIIType    string
	Offset     int
	Length     int
	Confidence float64
}

func (s spanMatch) end() int { return s.Offset + s.Length }

// recognizer is the fixed-registry capability described in spec.md §9
// "Dynamic/polymorphic dispatch": `{name, analyze(text) → [SpanMatch]}`.
type recognizer interface {
	name() string
	analyze(text string) []spanMatch
}
