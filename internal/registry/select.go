package registry

// Selection operations hold no state of their own. Anchors for range
// selection and similar front-end state stay with the caller.

// SetSelected sets the selection flag of entry i.
func (r *Registry) SetSelected(i int, selected bool) bool {
	if i < 0 || i >= len(r.entries) {
		return false
	}
	r.entries[i].Selected = selected
	return true
}

// Toggle flips the selection flag of entry i.
func (r *Registry) Toggle(i int) bool {
	if i < 0 || i >= len(r.entries) {
		return false
	}
	r.entries[i].Selected = !r.entries[i].Selected
	return true
}

// SelectOnly clears every selection and selects entry i.
func (r *Registry) SelectOnly(i int) bool {
	if i < 0 || i >= len(r.entries) {
		return false
	}
	r.DeselectAll()
	r.entries[i].Selected = true
	return true
}

// SelectRange selects the visible entries between a and b inclusive, in
// either order. Without extend every other selection is cleared first.
// Indices are clamped to the registry.
func (r *Registry) SelectRange(a, b int, extend bool) bool {
	if len(r.entries) == 0 {
		return false
	}
	if a > b {
		a, b = b, a
	}
	if b < 0 || a >= len(r.entries) {
		return false
	}
	a = max(a, 0)
	b = min(b, len(r.entries)-1)

	if !extend {
		r.DeselectAll()
	}
	for i := a; i <= b; i++ {
		if r.entries[i].Visible() {
			r.entries[i].Selected = true
		}
	}
	return true
}

// SelectAll selects every visible entry.
func (r *Registry) SelectAll() {
	for i := range r.entries {
		if r.entries[i].Visible() {
			r.entries[i].Selected = true
		}
	}
}

// DeselectAll clears the selection of every entry, hidden ones included.
func (r *Registry) DeselectAll() {
	for i := range r.entries {
		r.entries[i].Selected = false
	}
}

// SelectedCount returns how many entries the next batch operation acts on.
func (r *Registry) SelectedCount() int {
	n := 0
	for _, e := range r.entries {
		if e.Eligible() {
			n++
		}
	}
	return n
}
