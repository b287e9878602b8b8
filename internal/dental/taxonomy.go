// Package dental holds the fixed tooth taxonomy, the macro-group resolver and
// the per-tooth custom-treatment overlay used by treatment forms.
package dental

import "fmt"

// Quadrant prefixes in canonical order: left-upper, right-upper, left-lower,
// right-lower. Positions run 1..8 from the midline.
var quadrants = []struct {
	Prefix string
	Label  string
}{
	{"LU", "Left Upper"},
	{"RU", "Right Upper"},
	{"LD", "Left Lower"},
	{"RD", "Right Lower"},
}

const positionsPerQuadrant = 8

// toothLabels maps every individual tooth code to its display label.
var toothLabels = buildToothLabels()

func buildToothLabels() map[string]string {
	labels := make(map[string]string, len(quadrants)*positionsPerQuadrant)
	for _, q := range quadrants {
		for pos := 1; pos <= positionsPerQuadrant; pos++ {
			code := fmt.Sprintf("%s%d", q.Prefix, pos)
			labels[code] = fmt.Sprintf("%s %d", q.Label, pos)
		}
	}
	return labels
}

// Label returns the display label for a tooth code. Unknown codes degrade to
// the code itself rather than failing.
func Label(code string) string {
	if label, ok := toothLabels[code]; ok {
		return label
	}
	return code
}

// IsToothCode reports whether code is one of the 32 individual positions.
func IsToothCode(code string) bool {
	_, ok := toothLabels[code]
	return ok
}

// canonicalRank orders codes ascending by quadrant (LU, RU, LD, RD) then
// position. Unknown codes sort after all known ones, keeping their relative
// insertion order stable.
func canonicalRank(code string) int {
	for qi, q := range quadrants {
		for pos := 1; pos <= positionsPerQuadrant; pos++ {
			if code == fmt.Sprintf("%s%d", q.Prefix, pos) {
				return qi*positionsPerQuadrant + pos
			}
		}
	}
	return len(quadrants)*positionsPerQuadrant + 1
}
