package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/rohankatakam/semrel/internal/pipeline"
)

// StandardFormatter outputs a human summary of the run (default)
type StandardFormatter struct{}

func (f *StandardFormatter) Format(result *pipeline.Result, w io.Writer) error {
	if result == nil {
		return nil
	}

	switch result.State {
	case pipeline.StateSkip:
		fmt.Fprintf(w, "Skipped: %s\n", result.SkipReason)
		return nil
	case pipeline.StateNoRelease:
		fmt.Fprintf(w, "No release: no feature, fix or breaking change since %s\n", result.Current.Tag())
		return nil
	}
	if result.Next == nil {
		return nil
	}

	fmt.Fprintf(w, "%s → %s", result.Current.String(), result.Next.String())
	switch result.State {
	case pipeline.StateDryRunReport:
		fmt.Fprintf(w, " (dry run)\n")
	default:
		fmt.Fprintf(w, "\n")
	}
	if result.Branch != "" {
		fmt.Fprintf(w, "Branch: %s\n", result.Branch)
	}

	if len(result.Steps) > 0 {
		names := make([]string, len(result.Steps))
		for i, s := range result.Steps {
			names[i] = string(s)
		}
		fmt.Fprintf(w, "Steps: %s\n", strings.Join(names, ", "))
	}
	if result.ReleaseURL != "" {
		fmt.Fprintf(w, "Release: %s\n", result.ReleaseURL)
	}

	if result.Notes != "" {
		fmt.Fprintf(w, "\n%s", result.Notes)
		if !strings.HasSuffix(result.Notes, "\n") {
			fmt.Fprintln(w)
		}
	}
	return nil
}
