package ci

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rohankatakam/semrel/internal/github"
)

// JobLister lists the jobs of a workflow run.
type JobLister interface {
	ListRunJobs(ctx context.Context, owner, repo string, runID int64) ([]github.Job, error)
}

// GitHubActions reads the run from GITHUB_* variables. Matrix jobs elect a
// leader through SEMREL_JOB_INDEX; a job without it is treated as the leader.
type GitHubActions struct {
	Jobs JobLister
	// JobPrefix restricts siblings to jobs whose name starts with it.
	JobPrefix string
}

func NewGitHubActions(jobs JobLister, jobPrefix string) *GitHubActions {
	return &GitHubActions{Jobs: jobs, JobPrefix: jobPrefix}
}

func (g *GitHubActions) Name() string { return "github-actions" }

func (g *GitHubActions) Detect() bool { return envTrue("GITHUB_ACTIONS") }

func (g *GitHubActions) Context() Context {
	event := os.Getenv("GITHUB_EVENT_NAME")
	ctx := Context{
		Provider:    g.Name(),
		PullRequest: strings.HasPrefix(event, "pull_request"),
		JobID:       os.Getenv("GITHUB_JOB"),
	}
	if event == "push" && os.Getenv("GITHUB_REF_TYPE") != "tag" {
		ctx.Branch = os.Getenv("GITHUB_REF_NAME")
	}
	return ctx
}

func (g *GitHubActions) IsLeader() bool {
	idx := strings.TrimSpace(os.Getenv("SEMREL_JOB_INDEX"))
	return idx == "" || idx == "0"
}

func (g *GitHubActions) Siblings(ctx context.Context) ([]Job, error) {
	if g.Jobs == nil {
		return nil, fmt.Errorf("no job lister configured")
	}

	owner, repo, ok := strings.Cut(os.Getenv("GITHUB_REPOSITORY"), "/")
	if !ok {
		return nil, fmt.Errorf("GITHUB_REPOSITORY is not set")
	}
	runID, err := strconv.ParseInt(os.Getenv("GITHUB_RUN_ID"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("GITHUB_RUN_ID: %w", err)
	}
	self := os.Getenv("RUNNER_NAME")

	listed, err := g.Jobs.ListRunJobs(ctx, owner, repo, runID)
	if err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(listed))
	for _, j := range listed {
		if self != "" && j.RunnerName == self {
			continue
		}
		if g.JobPrefix != "" && !strings.HasPrefix(j.Name, g.JobPrefix) {
			continue
		}
		jobs = append(jobs, Job{ID: strconv.FormatInt(j.ID, 10), Name: j.Name, State: actionsState(j)})
	}
	return jobs, nil
}

func actionsState(j github.Job) JobState {
	if j.Status != "completed" {
		return JobPending
	}
	switch j.Conclusion {
	case "success", "skipped", "neutral":
		return JobSucceeded
	}
	return JobFailed
}
