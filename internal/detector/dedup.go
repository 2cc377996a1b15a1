package detector

import (
	"sort"

	"github.com/redactqc/redactqc/internal/model"
)

// resolveOverlaps implements spec.md §4.3 "Deduplication and overlap
// resolution": fully overlapping intervals of different pii_type keep the
// higher-severity one (ties by confidence, then lexicographic pii_type);
// partial overlaps are retained as separate findings.
func resolveOverlaps(matches []spanMatch) []spanMatch {
	if len(matches) <= 1 {
		return matches
	}

	sorted := make([]spanMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	keep := make([]bool, len(sorted))
	for i := range sorted {
		keep[i] = true
	}

	for i := 0; i < len(sorted); i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(sorted); j++ {
			if !keep[j] {
				continue
			}
			if sorted[j].Offset >= sorted[i].end() {
				break
			}
			if !fullyOverlaps(sorted[i], sorted[j]) {
				continue
			}
			if winner := pickWinner(sorted[i], sorted[j]); winner == 0 {
				keep[j] = false
			} else {
				keep[i] = false
				break
			}
		}
	}

	out := make([]spanMatch, 0, len(sorted))
	for i, k := range keep {
		if k {
			out = append(out, sorted[i])
		}
	}
	return out
}

func fullyOverlaps(a, b spanMatch) bool {
	return (a.Offset <= b.Offset && a.end() >= b.end()) ||
		(b.Offset <= a.Offset && b.end() >= a.end())
}

// pickWinner returns 0 if a wins, 1 if b wins.
func pickWinner(a, b spanMatch) int {
	sa, sb := model.SeverityOf(a.PIIType), model.SeverityOf(b.PIIType)
	if sa != sb {
		if sa > sb {
			return 0
		}
		return 1
	}
	if a.Confidence != b.Confidence {
		if a.Confidence > b.Confidence {
			return 0
		}
		return 1
	}
	if a.PIIType <= b.PIIType {
		return 0
	}
	return 1
}
