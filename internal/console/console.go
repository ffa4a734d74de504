// Package console is the interactive front end of filedeck. It reads one
// command per line and drives a registry.Registry, keeping the transient
// state a file list widget would hold: the range-selection anchor, the
// filter text and the recursive toggle.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"filedeck/internal/disk"
	"filedeck/internal/registry"
)

const prompt = "filedeck> "

// Console drives one Registry from text commands.
type Console struct {
	reg    *registry.Registry
	out    io.Writer
	logger zerolog.Logger
	usage  func(path string) (disk.Usage, error)
	probe  func(path string) error

	anchor    int
	filter    string
	recursive bool
}

// Option configures a Console.
type Option func(*Console)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Console) { c.logger = logger }
}

// WithDiskUsage replaces the df source. The default is disk.GetDiskUsage.
func WithDiskUsage(fn func(path string) (disk.Usage, error)) Option {
	return func(c *Console) { c.usage = fn }
}

// WithProbe runs fn on a root before scanning it. A disk.ErrStale result
// aborts the scan so the console does not hang on a dead mount.
func WithProbe(fn func(path string) error) Option {
	return func(c *Console) { c.probe = fn }
}

// WithFilter sets the initial filter text.
func WithFilter(pattern string) Option {
	return func(c *Console) { c.filter = pattern }
}

// WithRecursive sets the initial recursive toggle.
func WithRecursive(on bool) Option {
	return func(c *Console) { c.recursive = on }
}

// New creates a console over reg writing to out.
func New(reg *registry.Registry, out io.Writer, opts ...Option) *Console {
	c := &Console{
		reg:    reg,
		out:    out,
		logger: zerolog.Nop(),
		usage:  disk.GetDiskUsage,
		anchor: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Anchor returns the index range selection starts from, or -1.
func (c *Console) Anchor() int { return c.anchor }

// Filter returns the current filter text.
func (c *Console) Filter() string { return c.filter }

// Recursive reports whether scans descend into subdirectories.
func (c *Console) Recursive() bool { return c.recursive }

// Scan lists dir with the console's recursive and filter settings, as the
// scan command does. Relative paths resolve against the current folder.
func (c *Console) Scan(dir string) {
	c.rescan(c.resolve(dir))
}

// Run reads commands from in until quit or end of input.
func (c *Console) Run(in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(c.out, prompt)
	for sc.Scan() {
		if c.Execute(sc.Text()) {
			return nil
		}
		fmt.Fprint(c.out, prompt)
	}
	fmt.Fprintln(c.out)
	return sc.Err()
}

// Execute runs one command line and reports whether the console should exit.
func (c *Console) Execute(line string) (quit bool) {
	args := tokenize(line)
	if len(args) == 0 {
		return false
	}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "scan", "cd":
		c.cmdScan(cmdArgs)
	case "recursive":
		c.cmdRecursive(cmdArgs)
	case "filter":
		c.cmdFilter(cmdArgs)
	case "ls":
		c.cmdList()
	case "click", "ctrl", "shift", "ctrl-shift":
		c.cmdPick(cmd, cmdArgs)
	case "all":
		c.reg.SelectAll()
		c.printf("Selected all visible entries (%d).\n", c.reg.SelectedCount())
	case "none":
		c.reg.DeselectAll()
		c.anchor = -1
		c.printf("Deselected all entries.\n")
	case "delete":
		c.cmdDelete()
	case "rename":
		c.cmdRename(cmdArgs)
	case "pwd":
		c.cmdPwd()
	case "df":
		c.cmdDf()
	case "help", "?":
		c.printf("%s", helpText)
	case "quit", "exit":
		return true
	default:
		c.printf("%s: unknown command (try help)\n", cmd)
	}
	return false
}

const helpText = `Commands:
  scan [dir]        list dir (default: current folder)
  recursive on|off  toggle recursive listing and rescan
  filter [text]     show only names containing text; no text clears
  ls                print visible entries
  click i           select only entry i
  ctrl i            toggle entry i
  shift i           select from the anchor to entry i
  ctrl-shift i      add anchor..i to the selection
  all | none        select all visible | clear selection
  delete            delete selected entries
  rename suffix     append suffix before each selected entry's extension
  pwd | df          current folder | free space on its filesystem
  quit
`

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) cmdScan(args []string) {
	if len(args) > 1 {
		c.printf("usage: scan [dir]\n")
		return
	}

	dir := c.reg.CurrentPath()
	if len(args) == 1 {
		dir = c.resolve(args[0])
	}
	if dir == "" {
		c.printf("No folder selected.\n")
		return
	}
	c.rescan(dir)
}

func (c *Console) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	if cur := c.reg.CurrentPath(); cur != "" {
		return filepath.Join(cur, dir)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func (c *Console) rescan(dir string) {
	if c.probe != nil {
		if err := c.probe(dir); errors.Is(err, disk.ErrStale) {
			c.logger.Warn().Str("root", dir).Err(err).Msg("Skipping scan of unresponsive path")
			c.printf("%s: %v\n", dir, err)
			return
		}
	}

	c.reg.Scan(dir, c.recursive)
	c.reg.ApplyFilter(c.filter)
	c.anchor = -1
	c.printf("Scanned %s: %d entries, %d visible.\n", c.reg.CurrentPath(), c.reg.Len(), len(c.reg.Visible()))
}

func (c *Console) cmdRecursive(args []string) {
	switch {
	case len(args) == 0:
		c.recursive = !c.recursive
	case len(args) == 1 && args[0] == "on":
		c.recursive = true
	case len(args) == 1 && args[0] == "off":
		c.recursive = false
	default:
		c.printf("usage: recursive [on|off]\n")
		return
	}

	state := "DISABLED"
	if c.recursive {
		state = "ENABLED"
	}
	c.printf("Recursive scan %s.\n", state)

	if dir := c.reg.CurrentPath(); dir != "" {
		c.rescan(dir)
	}
}

func (c *Console) cmdFilter(args []string) {
	c.filter = strings.Join(args, " ")
	c.reg.ApplyFilter(c.filter)
	c.printf("%d of %d entries visible.\n", len(c.reg.Visible()), c.reg.Len())
}

func (c *Console) cmdList() {
	if c.reg.CurrentPath() == "" {
		c.printf("No folder selected.\n")
		return
	}

	PrintEntries(c.out, c.reg)
}

func (c *Console) cmdPick(mode string, args []string) {
	if len(args) != 1 {
		c.printf("usage: %s index\n", mode)
		return
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		c.printf("%s: not an index\n", args[0])
		return
	}
	e, ok := c.reg.Entry(i)
	if !ok {
		c.printf("No entry %d.\n", i)
		return
	}
	if e.Filtered {
		c.printf("Entry %d is hidden by the filter.\n", i)
		return
	}

	switch mode {
	case "click":
		c.reg.SelectOnly(i)
		c.anchor = i
	case "ctrl":
		c.reg.Toggle(i)
		c.anchor = i
	default:
		if c.anchor < 0 {
			c.reg.SetSelected(i, true)
			c.anchor = i
		} else {
			c.reg.SelectRange(c.anchor, i, mode == "ctrl-shift")
		}
	}
	c.printf("%d selected.\n", c.reg.SelectedCount())
}

func (c *Console) cmdDelete() {
	n := c.reg.SelectedCount()
	if n == 0 {
		c.printf("Nothing selected.\n")
		return
	}
	c.report("Deleted", c.reg.DeleteSelected())
	c.anchor = -1
}

func (c *Console) cmdRename(args []string) {
	if len(args) != 1 {
		c.printf("usage: rename suffix\n")
		return
	}
	if c.reg.SelectedCount() == 0 {
		c.printf("Nothing selected.\n")
		return
	}
	c.report("Renamed", c.reg.RenameSelected(args[0]))
	c.anchor = -1
}

func (c *Console) report(verb string, results []registry.Result) {
	PrintResults(c.out, verb, results)
}

func (c *Console) cmdPwd() {
	if dir := c.reg.CurrentPath(); dir != "" {
		c.printf("%s\n", dir)
		return
	}
	c.printf("[No Folder Selected]\n")
}

func (c *Console) cmdDf() {
	dir := c.reg.CurrentPath()
	if dir == "" {
		c.printf("No folder selected.\n")
		return
	}
	u, err := c.usage(dir)
	if err != nil {
		c.printf("df: %v\n", err)
		return
	}
	c.printf("%s: %s free of %s (%.1f%% used)\n",
		dir, humanize.IBytes(uint64(u.FreeBytes)), humanize.IBytes(uint64(u.TotalBytes)), u.UsedPercent)
}
