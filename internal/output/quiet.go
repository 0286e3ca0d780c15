package output

import (
	"fmt"
	"io"

	"github.com/rohankatakam/semrel/internal/pipeline"
)

// QuietFormatter prints the next version and nothing else, so scripts can
// capture it. Runs without a release print nothing.
type QuietFormatter struct{}

func (f *QuietFormatter) Format(result *pipeline.Result, w io.Writer) error {
	if result == nil || result.Next == nil || result.State == pipeline.StateSkip {
		return nil
	}
	_, err := fmt.Fprintln(w, result.Next.String())
	return err
}
