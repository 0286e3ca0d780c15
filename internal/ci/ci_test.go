package ci

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/semrel/internal/errors"
	"github.com/rohankatakam/semrel/internal/github"
)

// scriptedProvider replays one sibling listing per poll and repeats the last.
type scriptedProvider struct {
	mu     sync.Mutex
	leader bool
	polls  [][]Job
	err    error
	calls  int
}

func (p *scriptedProvider) Name() string     { return "scripted" }
func (p *scriptedProvider) Detect() bool     { return true }
func (p *scriptedProvider) Context() Context { return Context{Provider: "scripted"} }
func (p *scriptedProvider) IsLeader() bool   { return p.leader }

func (p *scriptedProvider) Siblings(ctx context.Context) ([]Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	i := p.calls - 1
	if i >= len(p.polls) {
		i = len(p.polls) - 1
	}
	return p.polls[i], nil
}

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func TestBarrierNotLeaderDoesNotPoll(t *testing.T) {
	p := &scriptedProvider{leader: false}
	out, err := NewBarrier(p, time.Millisecond, time.Second, quietLogger()).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NotLeader, out)
	assert.Zero(t, p.calls)
}

func TestBarrierProceedsOnceSiblingsSucceed(t *testing.T) {
	p := &scriptedProvider{leader: true, polls: [][]Job{
		{{ID: "2", Name: "2.2", State: JobPending}, {ID: "3", Name: "2.3", State: JobSucceeded}},
		{{ID: "2", Name: "2.2", State: JobSucceeded}, {ID: "3", Name: "2.3", State: JobSucceeded}},
	}}

	out, err := NewBarrier(p, time.Millisecond, time.Second, quietLogger()).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LeaderProceed, out)
	assert.Equal(t, 2, p.calls)
}

func TestBarrierNoSiblings(t *testing.T) {
	p := &scriptedProvider{leader: true, polls: [][]Job{nil}}
	out, err := NewBarrier(p, time.Millisecond, time.Second, quietLogger()).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LeaderProceed, out)
}

func TestBarrierAbortsOnFailedSibling(t *testing.T) {
	p := &scriptedProvider{leader: true, polls: [][]Job{
		{{ID: "2", Name: "2.2", State: JobPending}, {ID: "3", Name: "2.3", State: JobFailed}},
	}}

	out, err := NewBarrier(p, time.Millisecond, time.Second, quietLogger()).Await(context.Background())
	assert.Equal(t, LeaderAbort, out)
	reason, ok := errors.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, errors.ReasonSiblingFailed, reason)
}

func TestBarrierTimesOut(t *testing.T) {
	p := &scriptedProvider{leader: true, polls: [][]Job{{{ID: "2", State: JobPending}}}}

	out, err := NewBarrier(p, 5*time.Millisecond, 30*time.Millisecond, quietLogger()).Await(context.Background())
	assert.Equal(t, LeaderAbort, out)
	reason, _ := errors.ReasonOf(err)
	assert.Equal(t, errors.ReasonTimeout, reason)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBarrierCancelledContextIsTimeout(t *testing.T) {
	p := &scriptedProvider{leader: true, polls: [][]Job{{{ID: "2", State: JobPending}}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := NewBarrier(p, time.Hour, time.Hour, quietLogger()).Await(ctx)
	assert.Equal(t, LeaderAbort, out)
	reason, _ := errors.ReasonOf(err)
	assert.Equal(t, errors.ReasonTimeout, reason)
}

func TestBarrierProviderError(t *testing.T) {
	p := &scriptedProvider{leader: true, err: fmt.Errorf("502 bad gateway")}
	out, err := NewBarrier(p, time.Millisecond, time.Second, quietLogger()).Await(context.Background())
	assert.Equal(t, LeaderAbort, out)
	reason, _ := errors.ReasonOf(err)
	assert.Equal(t, errors.ReasonEnvironmentUnavailable, reason)
}

func TestBarrierWithoutProvider(t *testing.T) {
	out, err := NewBarrier(nil, 0, 0, quietLogger()).Await(context.Background())
	assert.Equal(t, LeaderAbort, out)
	reason, _ := errors.ReasonOf(err)
	assert.Equal(t, errors.ReasonEnvironmentUnavailable, reason)
}

func TestDetect(t *testing.T) {
	t.Setenv("TRAVIS", "")
	t.Setenv("GITHUB_ACTIONS", "true")

	p, ok := Detect(NewTravis("", ""), NewGitHubActions(nil, ""))
	require.True(t, ok)
	assert.Equal(t, "github-actions", p.Name())

	t.Setenv("GITHUB_ACTIONS", "")
	_, ok = Detect(NewTravis("", ""), NewGitHubActions(nil, ""))
	assert.False(t, ok)
}

func TestTravisContext(t *testing.T) {
	t.Setenv("TRAVIS_BRANCH", "main")
	t.Setenv("TRAVIS_PULL_REQUEST", "false")
	t.Setenv("TRAVIS_JOB_NUMBER", "17.1")

	tr := NewTravis("", "")
	c := tr.Context()
	assert.Equal(t, "main", c.Branch)
	assert.False(t, c.PullRequest)
	assert.True(t, tr.IsLeader())

	t.Setenv("TRAVIS_PULL_REQUEST", "42")
	t.Setenv("TRAVIS_JOB_NUMBER", "17.2")
	assert.True(t, tr.Context().PullRequest)
	assert.False(t, tr.IsLeader())
}

func TestTravisSiblings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/build/99/jobs", r.URL.Path)
		assert.Equal(t, "3", r.Header.Get("Travis-API-Version"))
		assert.Equal(t, "token tt", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"jobs":[
			{"id":1,"number":"5.1","state":"started"},
			{"id":2,"number":"5.2","state":"passed"},
			{"id":3,"number":"5.3","state":"failed","allow_failure":true},
			{"id":4,"number":"5.4","state":"errored"},
			{"id":5,"number":"5.5","state":"queued"}
		]}`)
	}))
	defer srv.Close()

	t.Setenv("TRAVIS_BUILD_ID", "99")
	t.Setenv("TRAVIS_JOB_ID", "1")

	jobs, err := NewTravis(srv.URL, "tt").Siblings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Job{
		{ID: "2", Name: "5.2", State: JobSucceeded},
		{ID: "3", Name: "5.3", State: JobSucceeded},
		{ID: "4", Name: "5.4", State: JobFailed},
		{ID: "5", Name: "5.5", State: JobPending},
	}, jobs)
}

func TestTravisSiblingsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	t.Setenv("TRAVIS_BUILD_ID", "99")
	_, err := NewTravis(srv.URL, "").Siblings(context.Background())
	require.Error(t, err)
}

type staticJobs []github.Job

func (s staticJobs) ListRunJobs(ctx context.Context, owner, repo string, runID int64) ([]github.Job, error) {
	return s, nil
}

func TestGitHubActionsContext(t *testing.T) {
	t.Setenv("GITHUB_EVENT_NAME", "push")
	t.Setenv("GITHUB_REF_TYPE", "branch")
	t.Setenv("GITHUB_REF_NAME", "release")
	t.Setenv("SEMREL_JOB_INDEX", "")

	g := NewGitHubActions(nil, "")
	c := g.Context()
	assert.Equal(t, "release", c.Branch)
	assert.False(t, c.PullRequest)
	assert.True(t, g.IsLeader())

	t.Setenv("GITHUB_EVENT_NAME", "pull_request_target")
	t.Setenv("SEMREL_JOB_INDEX", "2")
	c = g.Context()
	assert.True(t, c.PullRequest)
	assert.Empty(t, c.Branch)
	assert.False(t, g.IsLeader())
}

func TestGitHubActionsSiblings(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY", "octo/widget")
	t.Setenv("GITHUB_RUN_ID", "42")
	t.Setenv("RUNNER_NAME", "runner-1")

	g := NewGitHubActions(staticJobs{
		{ID: 1, Name: "test (0)", RunnerName: "runner-1", Status: "in_progress"},
		{ID: 2, Name: "test (1)", RunnerName: "runner-2", Status: "completed", Conclusion: "success"},
		{ID: 3, Name: "test (2)", RunnerName: "runner-3", Status: "completed", Conclusion: "failure"},
		{ID: 4, Name: "lint", RunnerName: "runner-4", Status: "queued"},
	}, "test")

	jobs, err := g.Siblings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Job{
		{ID: "2", Name: "test (1)", State: JobSucceeded},
		{ID: "3", Name: "test (2)", State: JobFailed},
	}, jobs)
}

func TestGitHubActionsSiblingsMissingRun(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY", "octo/widget")
	t.Setenv("GITHUB_RUN_ID", "")

	_, err := NewGitHubActions(staticJobs{}, "").Siblings(context.Background())
	require.Error(t, err)
}
