package githubsync

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// Issue is the trimmed projection of a github.Issue this demo cares about.
type Issue struct {
	Number int
	Title  string
	State  string
}

// Client wraps go-github for the sync_issues task, grounded on the
// teacher's cmd/github-log-connector (deleted as app-specific, see
// DESIGN.md) which used the same go-github + oauth2 pairing to talk to
// GitHub's REST API.
type Client struct {
	gh *github.Client
}

// New builds a Client authenticated with a personal access token. An
// empty token still returns a usable (unauthenticated, rate-limited)
// client, matching go-github's own zero-value-friendly design.
func New(ctx context.Context, token string) *Client {
	if token == "" {
		return &Client{gh: github.NewClient(nil)}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{gh: github.NewClient(oauth2.NewClient(ctx, ts))}
}

// ListOpenIssues fetches the open issues for owner/repo.
func (c *Client) ListOpenIssues(ctx context.Context, owner, repo string) ([]Issue, error) {
	opts := &github.IssueListByRepoOptions{State: "open"}
	issues, _, err := c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
	if err != nil {
		return nil, fmt.Errorf("list issues for %s/%s: %w", owner, repo, err)
	}

	out := make([]Issue, 0, len(issues))
	for _, i := range issues {
		if i.IsPullRequest() {
			continue
		}
		out = append(out, Issue{
			Number: i.GetNumber(),
			Title:  i.GetTitle(),
			State:  i.GetState(),
		})
	}
	return out, nil
}
