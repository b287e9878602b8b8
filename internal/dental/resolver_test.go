package dental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madadental/clinic-api/internal/model"
)

func codesOf(teeth []model.Tooth) []string {
	codes := make([]string, len(teeth))
	for i, t := range teeth {
		codes[i] = t.Code
	}
	return codes
}

func TestResolveSmileGroup(t *testing.T) {
	teeth := Resolve([]model.ToothInput{{Code: "U6"}})

	assert.Equal(t, []string{"LU1", "LU2", "LU3", "RU1", "RU2", "RU3"}, codesOf(teeth))
	for _, tooth := range teeth {
		assert.Empty(t, tooth.CustomTreatment)
		assert.NotEmpty(t, tooth.Label)
	}
}

func TestResolveQuadrantGroups(t *testing.T) {
	cases := map[string]int{
		"LUA": 8, "RUA": 8, "LDA": 8, "RDA": 8,
		"U6": 6, "U8": 8, "U10": 10,
		"D6": 6, "D8": 8, "D10": 10,
	}
	for group, want := range cases {
		teeth := Resolve([]model.ToothInput{{Code: group}})
		assert.Len(t, teeth, want, "group %s", group)

		seen := make(map[string]bool)
		for _, tooth := range teeth {
			assert.True(t, IsToothCode(tooth.Code), "group %s expanded to %s", group, tooth.Code)
			assert.False(t, seen[tooth.Code], "duplicate %s in group %s", tooth.Code, group)
			seen[tooth.Code] = true
		}
	}
}

func TestResolveDeduplicatesOverlap(t *testing.T) {
	// U6 already contains LU1..LU3; selecting them alongside must not
	// duplicate.
	teeth := Resolve([]model.ToothInput{{Code: "LU1"}, {Code: "U6"}, {Code: "LU2"}})
	assert.Equal(t, []string{"LU1", "LU2", "LU3", "RU1", "RU2", "RU3"}, codesOf(teeth))
}

func TestResolveCanonicalOrder(t *testing.T) {
	teeth := Resolve([]model.ToothInput{{Code: "RD5"}, {Code: "LU2"}, {Code: "RU7"}, {Code: "LD1"}})
	assert.Equal(t, []string{"LU2", "RU7", "LD1", "RD5"}, codesOf(teeth))
}

func TestResolveUnknownCodePassesThrough(t *testing.T) {
	teeth := Resolve([]model.ToothInput{{Code: "XX9"}, {Code: "LU1"}})
	require.Len(t, teeth, 2)

	// Known teeth sort before unknown codes.
	assert.Equal(t, "LU1", teeth[0].Code)
	assert.Equal(t, "XX9", teeth[1].Code)
	assert.Equal(t, "XX9", teeth[1].Label)
}

func TestResolvePreservesIndividualOverrides(t *testing.T) {
	teeth := Resolve([]model.ToothInput{
		{Code: "LU1", CustomTreatment: "deep cleaning"},
		{Code: "U6"},
	})

	require.Equal(t, []string{"LU1", "LU2", "LU3", "RU1", "RU2", "RU3"}, codesOf(teeth))
	assert.Equal(t, "deep cleaning", teeth[0].CustomTreatment)
	for _, tooth := range teeth[1:] {
		assert.Empty(t, tooth.CustomTreatment)
	}
}

func TestResolveEmptySelection(t *testing.T) {
	assert.Empty(t, Resolve(nil))
	assert.Empty(t, Resolve([]model.ToothInput{}))
}

func TestGroupOrderFixed(t *testing.T) {
	assert.Equal(t, []string{"LUA", "RUA", "LDA", "RDA", "U6", "U8", "U10", "D6", "D8", "D10"}, Groups())
}

func TestLabelFallsBackToCode(t *testing.T) {
	assert.Equal(t, "Left Upper 3", Label("LU3"))
	assert.Equal(t, "banana", Label("banana"))
}
