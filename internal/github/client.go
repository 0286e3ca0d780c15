package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/time/rate"
)

// Client wraps the GitHub API client with rate limiting
type Client struct {
	client      *github.Client
	rateLimiter *rate.Limiter
}

// Release is a release to publish on a repository.
type Release struct {
	TagName string
	Name    string
	Body    string
}

// Job is one job of a workflow run.
type Job struct {
	ID         int64
	Name       string
	RunnerName string
	Status     string // queued, in_progress, completed
	Conclusion string // success, failure, cancelled, skipped, ...
}

// NewClient creates a new GitHub client with rate limiting. A non-positive
// rateLimit disables throttling. baseURL points the client at another API root
// (GitHub Enterprise, test servers); empty keeps api.github.com.
func NewClient(token string, rateLimit int, baseURL string) (*Client, error) {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse api url %q: %w", baseURL, err)
		}
		client.BaseURL = u
	}

	limit := rate.Inf
	if rateLimit > 0 {
		limit = rate.Limit(rateLimit)
	}

	return &Client{
		client:      client,
		rateLimiter: rate.NewLimiter(limit, 1),
	}, nil
}

// CreateRelease publishes a release for an existing tag and returns its page URL.
func (c *Client) CreateRelease(ctx context.Context, owner, repo string, rel Release) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	created, _, err := c.client.Repositories.CreateRelease(ctx, owner, repo, &github.RepositoryRelease{
		TagName:    github.String(rel.TagName),
		Name:       github.String(rel.Name),
		Body:       github.String(rel.Body),
		Draft:      github.Bool(false),
		Prerelease: github.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("create release %s: %w", rel.TagName, err)
	}

	return created.GetHTMLURL(), nil
}

// ListRunJobs returns every job of a workflow run, following pagination.
func (c *Client) ListRunJobs(ctx context.Context, owner, repo string, runID int64) ([]Job, error) {
	opts := &github.ListWorkflowJobsOptions{
		Filter:      "latest",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []Job
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		jobs, resp, err := c.client.Actions.ListWorkflowJobs(ctx, owner, repo, runID, opts)
		if err != nil {
			return nil, fmt.Errorf("list jobs of run %d: %w", runID, err)
		}

		for _, j := range jobs.Jobs {
			all = append(all, Job{
				ID:         j.GetID(),
				Name:       j.GetName(),
				RunnerName: j.GetRunnerName(),
				Status:     j.GetStatus(),
				Conclusion: j.GetConclusion(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}
