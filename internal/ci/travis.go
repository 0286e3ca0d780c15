package ci

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultTravisAPI is the public Travis CI v3 endpoint.
const DefaultTravisAPI = "https://api.travis-ci.com"

// Travis reads the build from TRAVIS_* variables and polls the v3 API for
// the other jobs of the build.
type Travis struct {
	APIURL string
	Token  string
	HTTP   *http.Client
}

// NewTravis creates a Travis provider. An empty apiURL uses DefaultTravisAPI.
func NewTravis(apiURL, token string) *Travis {
	if apiURL == "" {
		apiURL = DefaultTravisAPI
	}
	return &Travis{
		APIURL: strings.TrimRight(apiURL, "/"),
		Token:  token,
		HTTP:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *Travis) Name() string { return "travis" }

func (t *Travis) Detect() bool { return envTrue("TRAVIS") }

func (t *Travis) Context() Context {
	return Context{
		Provider:    t.Name(),
		Branch:      os.Getenv("TRAVIS_BRANCH"),
		PullRequest: isTravisPullRequest(os.Getenv("TRAVIS_PULL_REQUEST")),
		JobID:       os.Getenv("TRAVIS_JOB_ID"),
	}
}

// TRAVIS_PULL_REQUEST holds the PR number, or "false" for push builds.
func isTravisPullRequest(v string) bool {
	return v != "" && v != "false"
}

// IsLeader holds for the first job of the build matrix ("<build>.1").
func (t *Travis) IsLeader() bool {
	return strings.HasSuffix(os.Getenv("TRAVIS_JOB_NUMBER"), ".1")
}

type travisJobs struct {
	Jobs []struct {
		ID           int64  `json:"id"`
		Number       string `json:"number"`
		State        string `json:"state"`
		AllowFailure bool   `json:"allow_failure"`
	} `json:"jobs"`
}

func (t *Travis) Siblings(ctx context.Context) ([]Job, error) {
	buildID := os.Getenv("TRAVIS_BUILD_ID")
	if buildID == "" {
		return nil, fmt.Errorf("TRAVIS_BUILD_ID is not set")
	}
	self := os.Getenv("TRAVIS_JOB_ID")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/build/%s/jobs", t.APIURL, buildID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Travis-API-Version", "3")
	req.Header.Set("Accept", "application/json")
	if t.Token != "" {
		req.Header.Set("Authorization", "token "+t.Token)
	}

	resp, err := t.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("travis api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("travis api: unexpected status %s", resp.Status)
	}

	var payload travisJobs
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode travis jobs: %w", err)
	}

	jobs := make([]Job, 0, len(payload.Jobs))
	for _, j := range payload.Jobs {
		id := strconv.FormatInt(j.ID, 10)
		if id == self {
			continue
		}
		jobs = append(jobs, Job{ID: id, Name: j.Number, State: travisState(j.State, j.AllowFailure)})
	}
	return jobs, nil
}

// Jobs marked allow_failure are waited for but never fail the build.
func travisState(state string, allowFailure bool) JobState {
	switch state {
	case "passed":
		return JobSucceeded
	case "failed", "errored", "canceled":
		if allowFailure {
			return JobSucceeded
		}
		return JobFailed
	}
	return JobPending
}
