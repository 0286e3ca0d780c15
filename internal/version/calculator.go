package version

import "github.com/rohankatakam/semrel/internal/commits"

// Decision is the outcome of analysing a commit range.
type Decision struct {
	Category commits.Category
	Current  Version
	// Next is nil when Category is None.
	Next *Version
}

// Releasable reports whether the range warrants a new version.
func (d Decision) Releasable() bool {
	return d.Next != nil
}

// Decide classifies every commit and bumps current by the most severe category seen.
func Decide(log []commits.Commit, current Version) Decision {
	aggregate := commits.None
	for _, c := range log {
		aggregate = commits.Max(aggregate, commits.Classify(c.Message))
		if aggregate == commits.Major {
			break
		}
	}

	d := Decision{Category: aggregate, Current: current}
	if next, ok := current.Bump(aggregate); ok {
		d.Next = &next
	}
	return d
}
