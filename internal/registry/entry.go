package registry

// Entry is one filesystem object discovered by a scan.
type Entry struct {
	Path    string // absolute location, unique within one scan
	Name    string // leaf name at discovery time
	RelPath string // slash-separated path below the scan root
	Depth   int    // directory levels below the scan root, 0 for immediate children
	Size    int64  // byte length, always 0 for directories
	IsDir   bool

	Selected bool
	Filtered bool // hidden and excluded from every batch operation
}

// Visible reports whether the entry passes the current filter.
func (e Entry) Visible() bool {
	return !e.Filtered
}

// Eligible reports whether the next delete or rename will act on the entry.
func (e Entry) Eligible() bool {
	return e.Selected && !e.Filtered
}

// ObjectType returns "directory" or "file".
func (e Entry) ObjectType() string {
	if e.IsDir {
		return "directory"
	}
	return "file"
}
