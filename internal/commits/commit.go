// Package commits classifies conventional commit messages into change categories.
package commits

import "strings"

// Commit is one commit in the range since the last release tag.
type Commit struct {
	Hash    string
	Message string
}

// Header returns the first line of the commit message.
func (c Commit) Header() string {
	header, _, _ := strings.Cut(strings.TrimLeft(c.Message, "\r\n"), "\n")
	return strings.TrimSpace(header)
}

// ShortHash returns the abbreviated commit identifier used in release notes.
func (c Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// Category is the severity class of a change.
type Category int

// Categories are ordered by severity, so the zero value is None and
// comparisons with < and > follow Major > Minor > Patch > None.
const (
	None Category = iota
	Patch
	Minor
	Major
)

func (c Category) String() string {
	switch c {
	case Major:
		return "Major"
	case Minor:
		return "Minor"
	case Patch:
		return "Patch"
	default:
		return "None"
	}
}

// Max returns the more severe of two categories.
func Max(a, b Category) Category {
	if a > b {
		return a
	}
	return b
}
