package dental

import "github.com/madadental/clinic-api/internal/model"

// Override is one per-tooth free-text note layered on a resolved selection.
type Override struct {
	Code string
	Text string
}

// Overlay maintains a sparse set of per-tooth overrides on top of a resolved
// tooth selection. At most one override exists per tooth.
type Overlay struct {
	entries []Override
}

func NewOverlay() *Overlay {
	return &Overlay{}
}

func (o *Overlay) Entries() []Override {
	out := make([]Override, len(o.entries))
	copy(out, o.entries)
	return out
}

func (o *Overlay) has(code string) bool {
	for _, e := range o.entries {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Add attaches an empty override to the first tooth in the selection that is
// not already overridden. It is a no-op when every tooth has one; the return
// value reports whether an override was added.
func (o *Overlay) Add(selection []model.Tooth) bool {
	for _, tooth := range selection {
		if !o.has(tooth.Code) {
			o.entries = append(o.entries, Override{Code: tooth.Code})
			return true
		}
	}
	return false
}

// SetText updates the text of the override at index i.
func (o *Overlay) SetText(i int, text string) {
	if i < 0 || i >= len(o.entries) {
		return
	}
	o.entries[i].Text = text
}

// Retarget moves the override at index i to another selected tooth, keeping
// its text. The move is refused when the target is outside the selection or
// already carries a different override.
func (o *Overlay) Retarget(i int, code string, selection []model.Tooth) bool {
	if i < 0 || i >= len(o.entries) {
		return false
	}
	inSelection := false
	for _, tooth := range selection {
		if tooth.Code == code {
			inSelection = true
			break
		}
	}
	if !inSelection {
		return false
	}
	for j, e := range o.entries {
		if e.Code == code && j != i {
			return false
		}
	}
	o.entries[i].Code = code
	return true
}

// Sync drops overrides whose tooth is no longer in the selection. Deselecting
// a tooth cascade-deletes its override.
func (o *Overlay) Sync(selection []model.Tooth) {
	selected := make(map[string]bool, len(selection))
	for _, tooth := range selection {
		selected[tooth.Code] = true
	}
	kept := o.entries[:0]
	for _, e := range o.entries {
		if selected[e.Code] {
			kept = append(kept, e)
		}
	}
	o.entries = kept
}

// Apply writes the overlay texts onto the matching teeth of a resolved
// selection and returns it.
func (o *Overlay) Apply(selection []model.Tooth) []model.Tooth {
	for i := range selection {
		for _, e := range o.entries {
			if e.Code == selection[i].Code {
				selection[i].CustomTreatment = e.Text
			}
		}
	}
	return selection
}
