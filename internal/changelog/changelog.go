// Package changelog composes release notes from classified commits and keeps the
// changelog file, newest release first.
package changelog

import (
	"time"

	"github.com/rohankatakam/semrel/internal/commits"
	"github.com/rohankatakam/semrel/internal/version"
)

// DefaultFallback is the note used when no commit in the range qualifies.
const DefaultFallback = "Stable version"

// Section groups entries of one change category.
type Section int

const (
	BreakingChanges Section = iota
	Features
	Fixes
)

// Sections lists every section in rendering order.
var Sections = []Section{BreakingChanges, Features, Fixes}

// Title is the heading a section is rendered under.
func (s Section) Title() string {
	switch s {
	case BreakingChanges:
		return "Breaking Changes"
	case Features:
		return "Features"
	case Fixes:
		return "Bug Fixes"
	}
	return ""
}

func sectionFor(c commits.Category) (Section, bool) {
	switch c {
	case commits.Major:
		return BreakingChanges, true
	case commits.Minor:
		return Features, true
	case commits.Patch:
		return Fixes, true
	}
	return 0, false
}

// Entry is one line of release notes.
type Entry struct {
	Scope   string
	Subject string
	Hash    string
}

// Changelog is the set of notes for one release.
type Changelog struct {
	Previous version.Version
	Version  version.Version
	Date     time.Time
	Entries  map[Section][]Entry
}

// Empty reports whether no section has any entry.
func (c Changelog) Empty() bool {
	for _, s := range Sections {
		if len(c.Entries[s]) > 0 {
			return false
		}
	}
	return true
}

// Compose classifies each commit and files it under its section, keeping the order
// of the range. The boolean is false when every commit was None, in which case the
// caller is expected to fall back to fixed text.
func Compose(log []commits.Commit, previous, next version.Version, date time.Time) (Changelog, bool) {
	c := Changelog{
		Previous: previous,
		Version:  next,
		Date:     date,
		Entries:  make(map[Section][]Entry),
	}

	for _, commit := range log {
		section, ok := sectionFor(commits.Classify(commit.Message))
		if !ok {
			continue
		}
		p := commits.Parse(commit.Message)
		c.Entries[section] = append(c.Entries[section], Entry{
			Scope:   p.Scope,
			Subject: p.Subject,
			Hash:    commit.ShortHash(),
		})
	}

	return c, !c.Empty()
}
