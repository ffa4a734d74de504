package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanned(t *testing.T, files map[string]string) *Registry {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, files)
	r := New(nil)
	r.Scan(root, false)
	return r
}

func filteredFlags(r *Registry) map[string]bool {
	out := map[string]bool{}
	for _, e := range r.Entries() {
		out[e.Name] = e.Filtered
	}
	return out
}

func selectedNames(r *Registry) []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Selected {
			out = append(out, e.Name)
		}
	}
	return out
}

func TestApplyFilter(t *testing.T) {
	r := scanned(t, map[string]string{"a.txt": "", "b.log": "", "sub/": "", "data/": ""})

	r.ApplyFilter("a")
	assert.Equal(t, map[string]bool{"a.txt": false, "b.log": true, "data": false, "sub": true}, filteredFlags(r))
	assert.Equal(t, "a", r.Pattern())

	// Idempotent
	first := filteredFlags(r)
	r.ApplyFilter("a")
	assert.Equal(t, first, filteredFlags(r))

	// Case-sensitive, literal
	r.ApplyFilter("A")
	assert.Equal(t, map[string]bool{"a.txt": true, "b.log": true, "data": true, "sub": true}, filteredFlags(r))
	r.ApplyFilter("*.txt")
	assert.Equal(t, map[string]bool{"a.txt": true, "b.log": true, "data": true, "sub": true}, filteredFlags(r))

	r.ApplyFilter("")
	assert.Equal(t, map[string]bool{"a.txt": false, "b.log": false, "data": false, "sub": false}, filteredFlags(r))
	assert.Len(t, r.Visible(), 4)
}

// TestFilterKeepsSelection verifies selection survives filtering but becomes inert
func TestFilterKeepsSelection(t *testing.T) {
	r := scanned(t, map[string]string{"a.txt": "", "b.log": ""})
	r.SelectAll()
	require.Equal(t, 2, r.SelectedCount())

	r.ApplyFilter("a")
	assert.Equal(t, []string{"a.txt", "b.log"}, selectedNames(r))
	assert.Equal(t, 1, r.SelectedCount())

	r.ApplyFilter("")
	assert.Equal(t, 2, r.SelectedCount())
}

func TestSelectAllSkipsFiltered(t *testing.T) {
	r := scanned(t, map[string]string{"a.txt": "", "b.log": "", "c.txt": ""})
	r.ApplyFilter(".txt")
	r.SelectAll()

	assert.Equal(t, []string{"a.txt", "c.txt"}, selectedNames(r))

	r.DeselectAll()
	assert.Empty(t, selectedNames(r))
}

// TestDeselectAllClearsHidden verifies hidden selections are cleared too
func TestDeselectAllClearsHidden(t *testing.T) {
	r := scanned(t, map[string]string{"a.txt": "", "b.log": ""})
	r.SelectAll()
	r.ApplyFilter("a")
	r.DeselectAll()
	r.ApplyFilter("")

	assert.Empty(t, selectedNames(r))
}

func TestSelectOnlyAndToggle(t *testing.T) {
	r := scanned(t, map[string]string{"a": "", "b": "", "c": ""})

	require.True(t, r.SelectOnly(0))
	require.True(t, r.SelectOnly(2))
	assert.Equal(t, []string{"c"}, selectedNames(r))

	require.True(t, r.Toggle(1))
	assert.Equal(t, []string{"b", "c"}, selectedNames(r))
	require.True(t, r.Toggle(2))
	assert.Equal(t, []string{"b"}, selectedNames(r))

	require.True(t, r.SetSelected(0, true))
	assert.Equal(t, []string{"a", "b"}, selectedNames(r))

	assert.False(t, r.Toggle(3))
	assert.False(t, r.SelectOnly(-1))
	assert.False(t, r.SetSelected(9, true))
	assert.Equal(t, []string{"a", "b"}, selectedNames(r))
}

func TestSelectRange(t *testing.T) {
	files := map[string]string{"a1": "", "b2": "", "a3": "", "b4": "", "a5": ""}

	tests := []struct {
		name     string
		filter   string
		preset   int
		from, to int
		extend   bool
		want     []string
	}{
		{"forward", "", -1, 1, 3, false, []string{"a3", "a5", "b2"}},
		{"backward", "", -1, 3, 1, false, []string{"a3", "a5", "b2"}},
		{"replaces", "", 4, 0, 1, false, []string{"a1", "a3"}},
		{"extends", "", 4, 0, 0, true, []string{"a1", "b4"}},
		{"skips hidden", "a", -1, 0, 4, false, []string{"a1", "a3", "a5"}},
		{"clamped", "", -1, -5, 1, false, []string{"a1", "a3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := scanned(t, files)
			// registry order: a1 a3 a5 b2 b4
			r.ApplyFilter(tt.filter)
			if tt.preset >= 0 {
				r.SetSelected(tt.preset, true)
			}
			require.True(t, r.SelectRange(tt.from, tt.to, tt.extend))
			assert.ElementsMatch(t, tt.want, selectedNames(r))
		})
	}
}

func TestSelectRangeOutOfBounds(t *testing.T) {
	r := scanned(t, map[string]string{"a": ""})
	assert.False(t, r.SelectRange(3, 7, false))
	assert.False(t, r.SelectRange(-4, -1, false))

	empty := New(nil)
	assert.False(t, empty.SelectRange(0, 1, false))
}
