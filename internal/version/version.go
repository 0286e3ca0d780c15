// Package version holds semantic version arithmetic and the release decision.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/rohankatakam/semrel/internal/commits"
	"github.com/rohankatakam/semrel/internal/errors"
)

// Version is a major.minor.patch triple.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// Parse reads a version from a manifest value or a release tag. A leading "v" is
// accepted. Pre-release and build metadata are dropped, so "1.4.0-rc.1" parses as 1.4.0.
func Parse(s string) (Version, error) {
	sv, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, errors.Wrap(err, errors.ErrorTypeValidation, errors.SeverityHigh,
			fmt.Sprintf("%q is not a valid semantic version", s))
	}
	return Version{Major: sv.Major(), Minor: sv.Minor(), Patch: sv.Patch()}, nil
}

// MustParse is Parse for literals in tests and defaults.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Tag returns the git tag name for this version.
func (v Version) Tag() string {
	return "v" + v.String()
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

// Bump applies one change category. None returns v unchanged and false.
func (v Version) Bump(c commits.Category) (Version, bool) {
	switch c {
	case commits.Major:
		return Version{Major: v.Major + 1}, true
	case commits.Minor:
		return Version{Major: v.Major, Minor: v.Minor + 1}, true
	case commits.Patch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}, true
	default:
		return v, false
	}
}
