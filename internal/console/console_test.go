package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedeck/internal/disk"
	"filedeck/internal/fsops"
	"filedeck/internal/registry"
)

// newConsole builds a console over an in-memory tree:
//
//	/data/a.txt  /data/b.log  /data/c.txt  /data/sub/d.txt
func newConsole(t *testing.T, opts ...Option) (*Console, *registry.Registry, *fsops.BillyFS, *bytes.Buffer) {
	t.Helper()
	m := fsops.NewMemFS()
	require.NoError(t, m.Raw().MkdirAll("/data/sub", 0o755))
	for path, body := range map[string]string{
		"/data/a.txt":     "aa",
		"/data/b.log":     "b",
		"/data/c.txt":     "ccc",
		"/data/sub/d.txt": "dddd",
	} {
		require.NoError(t, util.WriteFile(m.Raw(), path, []byte(body), 0o644))
	}

	reg := registry.New(m)
	out := &bytes.Buffer{}
	return New(reg, out, opts...), reg, m, out
}

func selected(reg *registry.Registry) []int {
	var idx []int
	for i, e := range reg.Entries() {
		if e.Selected {
			idx = append(idx, i)
		}
	}
	return idx
}

func TestScanAndList(t *testing.T) {
	c, reg, _, out := newConsole(t)

	c.Execute("scan /data")
	assert.Contains(t, out.String(), "Scanned /data: 4 entries, 4 visible.")
	assert.Equal(t, "/data", reg.CurrentPath())

	out.Reset()
	c.Execute("ls")
	listing := out.String()
	assert.Contains(t, listing, "a.txt")
	assert.Contains(t, listing, "Folder")
	assert.Contains(t, listing, "3 B")
	assert.Contains(t, listing, "0 selected.")
	assert.NotContains(t, listing, "d.txt")
}

func TestScanRelativeToCurrentFolder(t *testing.T) {
	c, reg, _, _ := newConsole(t)

	c.Execute("scan /data")
	c.Execute("scan sub")
	assert.Equal(t, "/data/sub", reg.CurrentPath())
	assert.Equal(t, 1, reg.Len())

	c.Execute("scan ..")
	assert.Equal(t, "/data", reg.CurrentPath())
}

func TestScanWithoutFolder(t *testing.T) {
	c, _, _, out := newConsole(t)
	c.Execute("scan")
	assert.Contains(t, out.String(), "No folder selected.")
}

func TestFilterSurvivesRescan(t *testing.T) {
	c, reg, _, out := newConsole(t)

	c.Execute("scan /data")
	c.Execute("filter .txt")
	assert.Contains(t, out.String(), "2 of 4 entries visible.")

	c.Execute("recursive on")
	assert.True(t, c.Recursive())
	assert.True(t, reg.Recursive())
	assert.Equal(t, ".txt", reg.Pattern())
	assert.Len(t, reg.Visible(), 3)

	out.Reset()
	c.Execute("ls")
	assert.Contains(t, out.String(), "sub/d.txt")

	c.Execute("filter")
	assert.Len(t, reg.Visible(), 5)
}

func TestRecursiveToggle(t *testing.T) {
	c, _, _, out := newConsole(t)

	c.Execute("recursive")
	assert.True(t, c.Recursive())
	c.Execute("recursive")
	assert.False(t, c.Recursive())
	c.Execute("recursive maybe")
	assert.Contains(t, out.String(), "usage: recursive")
}

func TestClickCtrlShift(t *testing.T) {
	c, reg, _, _ := newConsole(t)
	c.Execute("scan /data")

	c.Execute("click 0")
	assert.Equal(t, []int{0}, selected(reg))
	assert.Equal(t, 0, c.Anchor())

	c.Execute("ctrl 2")
	assert.Equal(t, []int{0, 2}, selected(reg))
	assert.Equal(t, 2, c.Anchor())

	c.Execute("shift 3")
	assert.Equal(t, []int{2, 3}, selected(reg))
	assert.Equal(t, 2, c.Anchor())

	c.Execute("ctrl-shift 0")
	assert.Equal(t, []int{0, 1, 2, 3}, selected(reg))

	c.Execute("ctrl 1")
	assert.Equal(t, []int{0, 2, 3}, selected(reg))

	c.Execute("none")
	assert.Empty(t, selected(reg))
	assert.Equal(t, -1, c.Anchor())
}

func TestShiftWithoutAnchor(t *testing.T) {
	c, reg, _, _ := newConsole(t)
	c.Execute("scan /data")
	c.Execute("click 3")
	c.Execute("scan")

	assert.Equal(t, -1, c.Anchor())
	c.Execute("shift 1")
	assert.Equal(t, []int{1}, selected(reg))
	assert.Equal(t, 1, c.Anchor())
}

func TestShiftSkipsHiddenEntries(t *testing.T) {
	c, reg, _, _ := newConsole(t)
	c.Execute("scan /data")
	c.Execute("filter .txt")

	c.Execute("click 0")
	c.Execute("shift 2")
	assert.Equal(t, []int{0, 2}, selected(reg))
}

func TestPickRejectsBadIndex(t *testing.T) {
	c, reg, _, out := newConsole(t)
	c.Execute("scan /data")
	c.Execute("filter .log")

	c.Execute("click 0")
	c.Execute("click 9")
	c.Execute("click x")
	c.Execute("click")

	s := out.String()
	assert.Contains(t, s, "Entry 0 is hidden by the filter.")
	assert.Contains(t, s, "No entry 9.")
	assert.Contains(t, s, "x: not an index")
	assert.Contains(t, s, "usage: click index")
	assert.Empty(t, selected(reg))
}

func TestAllSelectsVisibleOnly(t *testing.T) {
	c, reg, _, _ := newConsole(t)
	c.Execute("scan /data")
	c.Execute("filter .txt")
	c.Execute("all")
	assert.Equal(t, []int{0, 2}, selected(reg))
}

func TestDelete(t *testing.T) {
	c, reg, m, out := newConsole(t)
	c.Execute("scan /data")

	c.Execute("delete")
	assert.Contains(t, out.String(), "Nothing selected.")

	c.Execute("click 1")
	c.Execute("ctrl 3")
	c.Execute("delete")
	assert.Contains(t, out.String(), "Deleted 2 of 2 entries.")
	assert.Equal(t, -1, c.Anchor())
	assert.Equal(t, 2, reg.Len())

	_, err := m.Raw().Stat("/data/b.log")
	assert.Error(t, err)
	_, err = m.Raw().Stat("/data/sub/d.txt")
	assert.Error(t, err)
}

func TestRename(t *testing.T) {
	c, _, m, out := newConsole(t)
	c.Execute("scan /data")

	c.Execute("click 0")
	c.Execute("rename _bak")
	assert.Contains(t, out.String(), "Renamed 1 of 1 entries.")

	_, err := m.Raw().Stat("/data/a_bak.txt")
	assert.NoError(t, err)

	c.Execute("rename")
	assert.Contains(t, out.String(), "usage: rename suffix")
}

func TestRenameReportsFailures(t *testing.T) {
	c, _, m, out := newConsole(t)
	require.NoError(t, util.WriteFile(m.Raw(), "/data/c_x.txt", []byte("taken"), 0o644))
	c.Execute("scan /data")

	c.Execute("click 0")
	c.Execute("ctrl 2")
	c.Execute("rename _x")
	assert.Contains(t, out.String(), "Renamed 1 of 2 entries.")
	assert.Contains(t, out.String(), "c.txt: ")
	assert.Contains(t, out.String(), registry.ErrTargetExists.Error())
}

func TestPwdAndDf(t *testing.T) {
	usage := func(path string) (disk.Usage, error) {
		if path != "/data" {
			return disk.Usage{}, errors.New("unexpected path")
		}
		return disk.Usage{UsedPercent: 75, FreeBytes: 1 << 30, TotalBytes: 4 << 30}, nil
	}
	c, _, _, out := newConsole(t, WithDiskUsage(usage))

	c.Execute("pwd")
	c.Execute("df")
	assert.Contains(t, out.String(), "[No Folder Selected]")
	assert.Contains(t, out.String(), "No folder selected.")

	out.Reset()
	c.Execute("scan /data")
	c.Execute("pwd")
	c.Execute("df")
	assert.Contains(t, out.String(), "/data\n")
	assert.Contains(t, out.String(), "/data: 1.0 GiB free of 4.0 GiB (75.0% used)")
}

func TestStaleProbeSkipsScan(t *testing.T) {
	probe := func(string) error { return disk.ErrStale }
	c, reg, _, out := newConsole(t, WithProbe(probe))

	c.Execute("scan /data")
	assert.Empty(t, reg.CurrentPath())
	assert.Contains(t, out.String(), disk.ErrStale.Error())
}

func TestProbeErrorsOtherThanStaleStillScan(t *testing.T) {
	probe := func(string) error { return errors.New("permission denied") }
	c, reg, _, _ := newConsole(t, WithProbe(probe))

	c.Execute("scan /data")
	assert.Equal(t, "/data", reg.CurrentPath())
}

func TestInitialOptions(t *testing.T) {
	c, reg, _, _ := newConsole(t, WithFilter("d"), WithRecursive(true))
	c.Execute("scan /data")

	assert.Equal(t, "d", c.Filter())
	assert.True(t, reg.Recursive())
	var names []string
	for _, e := range reg.Visible() {
		names = append(names, e.RelPath)
	}
	assert.Equal(t, []string{"sub/d.txt"}, names)
}

func TestRun(t *testing.T) {
	c, reg, _, out := newConsole(t)

	err := c.Run(strings.NewReader("scan /data\n\nall\nbogus\nquit\nls\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, reg.SelectedCount())
	assert.Contains(t, out.String(), "bogus: unknown command")
	assert.NotContains(t, out.String(), "#  SEL")
}

func TestRunEOF(t *testing.T) {
	c, _, _, out := newConsole(t)
	require.NoError(t, c.Run(strings.NewReader("help")))
	assert.Contains(t, out.String(), "Commands:")
}

func TestScanPathWithBlanks(t *testing.T) {
	c, reg, m, _ := newConsole(t)
	require.NoError(t, m.Raw().MkdirAll("/data/my photos", 0o755))
	require.NoError(t, util.WriteFile(m.Raw(), "/data/my photos/cat.jpg", []byte("meow"), 0o644))

	c.Scan("/data/my photos")
	assert.Equal(t, "/data/my photos", reg.CurrentPath())
	assert.Equal(t, 1, reg.Len())

	c.Execute(`scan "/data/my photos/.."`)
	assert.Equal(t, "/data", reg.CurrentPath())
}
