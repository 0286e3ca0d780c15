package output

import (
	"encoding/json"
	"io"

	"github.com/rohankatakam/semrel/internal/pipeline"
)

// JSONFormatter outputs the run as one JSON object.
type JSONFormatter struct{}

type jsonResult struct {
	State      string   `json:"state"`
	SkipReason string   `json:"skip_reason,omitempty"`
	Branch     string   `json:"branch,omitempty"`
	Current    string   `json:"current,omitempty"`
	Next       string   `json:"next,omitempty"`
	Tag        string   `json:"tag,omitempty"`
	Notes      string   `json:"notes,omitempty"`
	Steps      []string `json:"steps,omitempty"`
	ReleaseURL string   `json:"release_url,omitempty"`
}

func (f *JSONFormatter) Format(result *pipeline.Result, w io.Writer) error {
	if result == nil {
		return nil
	}

	out := jsonResult{
		State:      string(result.State),
		SkipReason: result.SkipReason,
		Branch:     result.Branch,
		Tag:        result.Tag,
		Notes:      result.Notes,
		ReleaseURL: result.ReleaseURL,
	}
	if result.State != pipeline.StateSkip {
		out.Current = result.Current.String()
	}
	if result.Next != nil {
		out.Next = result.Next.String()
	}
	for _, s := range result.Steps {
		out.Steps = append(out.Steps, string(s))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
