package dental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madadental/clinic-api/internal/model"
)

func TestOverlayAddPicksFirstFreeTooth(t *testing.T) {
	selection := Resolve([]model.ToothInput{{Code: "U6"}})
	o := NewOverlay()

	require.True(t, o.Add(selection))
	require.True(t, o.Add(selection))

	entries := o.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "LU1", entries[0].Code)
	assert.Equal(t, "LU2", entries[1].Code)
}

func TestOverlayAddNoopWhenSaturated(t *testing.T) {
	selection := Resolve([]model.ToothInput{{Code: "LU1"}, {Code: "LU2"}})
	o := NewOverlay()

	assert.True(t, o.Add(selection))
	assert.True(t, o.Add(selection))
	assert.False(t, o.Add(selection))
	assert.Len(t, o.Entries(), 2)
}

func TestOverlayRetargetKeepsText(t *testing.T) {
	selection := Resolve([]model.ToothInput{{Code: "U6"}})
	o := NewOverlay()
	require.True(t, o.Add(selection))
	o.SetText(0, "root canal")

	require.True(t, o.Retarget(0, "RU3", selection))

	entries := o.Entries()
	assert.Equal(t, "RU3", entries[0].Code)
	assert.Equal(t, "root canal", entries[0].Text)
}

func TestOverlayRetargetRefusesOutsideSelection(t *testing.T) {
	selection := Resolve([]model.ToothInput{{Code: "LU1"}})
	o := NewOverlay()
	require.True(t, o.Add(selection))

	assert.False(t, o.Retarget(0, "RD8", selection))
}

func TestOverlayRetargetRefusesOccupiedTooth(t *testing.T) {
	selection := Resolve([]model.ToothInput{{Code: "LU1"}, {Code: "LU2"}})
	o := NewOverlay()
	require.True(t, o.Add(selection))
	require.True(t, o.Add(selection))

	assert.False(t, o.Retarget(0, "LU2", selection))
}

func TestOverlaySyncCascadeDeletesDeselected(t *testing.T) {
	selection := Resolve([]model.ToothInput{{Code: "LU1"}, {Code: "LU2"}})
	o := NewOverlay()
	require.True(t, o.Add(selection))
	require.True(t, o.Add(selection))
	o.SetText(1, "crown")

	// Deselect LU1; its override must go with it.
	narrowed := Resolve([]model.ToothInput{{Code: "LU2"}})
	o.Sync(narrowed)

	entries := o.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "LU2", entries[0].Code)
	assert.Equal(t, "crown", entries[0].Text)
}

func TestOverlayApply(t *testing.T) {
	selection := Resolve([]model.ToothInput{{Code: "U6"}})
	o := NewOverlay()
	require.True(t, o.Add(selection))
	o.SetText(0, "filling")

	applied := o.Apply(selection)
	assert.Equal(t, "filling", applied[0].CustomTreatment)
	for _, tooth := range applied[1:] {
		assert.Empty(t, tooth.CustomTreatment)
	}
}
