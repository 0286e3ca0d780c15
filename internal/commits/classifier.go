package commits

import (
	"regexp"
	"strings"
)

var (
	// type(scope)!: subject
	headerPattern = regexp.MustCompile(`^([A-Za-z][\w-]*)(?:\(([^)]*)\))?(!)?:\s*(.*)$`)

	// Footer marker, checked against every line of the message.
	breakingPattern = regexp.MustCompile(`(?m)^\s*BREAKING[ -]CHANGE:`)
)

// Parsed is the conventional-commit view of a commit header.
type Parsed struct {
	Type     string
	Scope    string
	Subject  string
	Breaking bool
	// Conventional is false when the header does not follow type(scope): subject.
	Conventional bool
}

// Parse splits a commit message into its conventional parts. Headers that do not
// follow the convention come back with Conventional false and the raw header as Subject.
func Parse(message string) Parsed {
	header := Commit{Message: message}.Header()

	p := Parsed{Subject: header}
	if m := headerPattern.FindStringSubmatch(header); m != nil {
		p = Parsed{
			Type:         strings.ToLower(m[1]),
			Scope:        strings.TrimSpace(m[2]),
			Breaking:     m[3] == "!",
			Subject:      strings.TrimSpace(m[4]),
			Conventional: true,
		}
	}

	if breakingPattern.MatchString(message) {
		p.Breaking = true
	}
	return p
}

// Classify maps one commit message to its change category. It never fails:
// anything it does not recognise is None.
func Classify(message string) Category {
	p := Parse(message)
	if p.Breaking {
		return Major
	}
	if !p.Conventional {
		return None
	}

	switch p.Type {
	case "feat":
		return Minor
	case "fix":
		return Patch
	default:
		return None
	}
}
