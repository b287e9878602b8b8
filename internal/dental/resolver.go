package dental

import (
	"sort"

	"github.com/madadental/clinic-api/internal/model"
)

// groupTable maps macro-group codes to their constituent tooth codes. Order is
// fixed: the four whole-quadrant macros, then the upper smile groups, then the
// lower ones.
var groupOrder = []string{"LUA", "RUA", "LDA", "RDA", "U6", "U8", "U10", "D6", "D8", "D10"}

var groupTable = map[string][]string{
	"LUA": {"LU1", "LU2", "LU3", "LU4", "LU5", "LU6", "LU7", "LU8"},
	"RUA": {"RU1", "RU2", "RU3", "RU4", "RU5", "RU6", "RU7", "RU8"},
	"LDA": {"LD1", "LD2", "LD3", "LD4", "LD5", "LD6", "LD7", "LD8"},
	"RDA": {"RD1", "RD2", "RD3", "RD4", "RD5", "RD6", "RD7", "RD8"},
	"U6":  {"LU1", "LU2", "LU3", "RU1", "RU2", "RU3"},
	"U8":  {"LU1", "LU2", "LU3", "LU4", "RU1", "RU2", "RU3", "RU4"},
	"U10": {"LU1", "LU2", "LU3", "LU4", "LU5", "RU1", "RU2", "RU3", "RU4", "RU5"},
	"D6":  {"LD1", "LD2", "LD3", "RD1", "RD2", "RD3"},
	"D8":  {"LD1", "LD2", "LD3", "LD4", "RD1", "RD2", "RD3", "RD4"},
	"D10": {"LD1", "LD2", "LD3", "LD4", "LD5", "RD1", "RD2", "RD3", "RD4", "RD5"},
}

// Groups returns the macro-group codes in their fixed lookup order.
func Groups() []string {
	out := make([]string, len(groupOrder))
	copy(out, groupOrder)
	return out
}

// Expand returns the constituent tooth codes of a macro-group code, or nil if
// code is not a group.
func Expand(code string) []string {
	teeth, ok := groupTable[code]
	if !ok {
		return nil
	}
	out := make([]string, len(teeth))
	copy(out, teeth)
	return out
}

// Resolve expands a mixed selection of individual and macro-group codes into
// the deduplicated list of individual teeth, annotated with taxonomy labels.
// Custom-treatment text survives only for teeth named individually in the
// input and still present after expansion; teeth reached through a macro start
// with an empty override. Output is in canonical order: ascending by quadrant
// (LU, RU, LD, RD) then position.
func Resolve(selected []model.ToothInput) []model.Tooth {
	if len(selected) == 0 {
		return []model.Tooth{}
	}

	overrides := make(map[string]string)
	seen := make(map[string]bool)
	codes := make([]string, 0, len(selected))

	for _, sel := range selected {
		expanded := groupTable[sel.Code]
		if expanded == nil {
			expanded = []string{sel.Code}
			// First individually-named occurrence wins.
			if sel.CustomTreatment != "" {
				if _, dup := overrides[sel.Code]; !dup {
					overrides[sel.Code] = sel.CustomTreatment
				}
			}
		}
		for _, code := range expanded {
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}

	sort.SliceStable(codes, func(i, j int) bool {
		return canonicalRank(codes[i]) < canonicalRank(codes[j])
	})

	teeth := make([]model.Tooth, len(codes))
	for i, code := range codes {
		teeth[i] = model.Tooth{
			Code:            code,
			Label:           Label(code),
			CustomTreatment: overrides[code],
		}
	}
	return teeth
}
