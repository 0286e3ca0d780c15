package changelog

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/rohankatakam/semrel/internal/version"
)

const dateLayout = "2006-01-02"

func heading(v version.Version, date time.Time) string {
	if date.IsZero() {
		return fmt.Sprintf("## %s", v.Tag())
	}
	return fmt.Sprintf("## %s (%s)", v.Tag(), date.Format(dateLayout))
}

// Markdown renders the changelog entry for this release.
func (c Changelog) Markdown() string {
	var sb strings.Builder
	sb.WriteString(heading(c.Version, c.Date))
	sb.WriteString("\n")

	for _, s := range Sections {
		entries := c.Entries[s]
		if len(entries) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n#### %s\n\n", s.Title()))
		for _, e := range entries {
			sb.WriteString("* ")
			if e.Scope != "" {
				sb.WriteString(fmt.Sprintf("**%s:** ", e.Scope))
			}
			sb.WriteString(e.Subject)
			if e.Hash != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", e.Hash))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Fallback renders the entry used when no commit qualified for the notes.
func Fallback(v version.Version, date time.Time, text string) string {
	if text == "" {
		text = DefaultFallback
	}
	return fmt.Sprintf("%s\n\n%s\n", heading(v, date), text)
}

// Release is one version block read back from a changelog document.
type Release struct {
	Heading string
	Entries map[Section][]string
}

// Count returns the number of entries in a section.
func (r Release) Count(s Section) int {
	return len(r.Entries[s])
}

// Parse reads a changelog document into its version blocks, newest first.
// Lines outside a known section are ignored.
func Parse(doc string) []Release {
	var (
		releases []Release
		current  *Release
		section  = Section(-1)
	)

	titles := make(map[string]Section, len(Sections))
	for _, s := range Sections {
		titles[s.Title()] = s
	}

	scanner := bufio.NewScanner(strings.NewReader(doc))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		switch {
		case strings.HasPrefix(line, "## "):
			releases = append(releases, Release{
				Heading: strings.TrimPrefix(line, "## "),
				Entries: make(map[Section][]string),
			})
			current = &releases[len(releases)-1]
			section = Section(-1)
		case strings.HasPrefix(line, "#### "):
			s, ok := titles[strings.TrimPrefix(line, "#### ")]
			if !ok {
				s = Section(-1)
			}
			section = s
		case strings.HasPrefix(line, "* ") && current != nil && section >= 0:
			current.Entries[section] = append(current.Entries[section], strings.TrimPrefix(line, "* "))
		}
	}
	return releases
}
