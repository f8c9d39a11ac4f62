package issue

import "strings"

// Path is the location of a field in the document tree, one segment per key.
// Field names routinely contain dots ("Conductivity [S.m-1]"), so the
// segments are kept separate and only joined for display.
type Path []string

// NewPath builds a path from its segments.
func NewPath(segments ...string) Path {
	return Path(segments)
}

// Child returns a new path with seg appended. The receiver is never modified.
func (p Path) Child(seg string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// String joins the segments with '.'.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Last returns the final segment, or "" for the root.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}
