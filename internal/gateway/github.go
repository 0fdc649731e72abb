// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/chesscom/workreport/internal/domain"
)

// StateOpen is the pull-request state the report cares about.
const StateOpen = "OPEN"

// Commit is a raw commit as the API returned it, before any client-side
// window filtering.
type Commit struct {
	SHA          string
	Message      string
	AuthorDate   time.Time
	URL          string
	CommentCount int
}

// PullRequest is a raw pull request as the API returned it.
type PullRequest struct {
	AuthorLogin string
	Title       string
	Body        string
	URL         string
	State       string
	CreatedAt   time.Time
	HeadRef     string
	BaseRef     string
	Assignee    string // empty when unassigned
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	UserEmail(ctx context.Context, login string) (string, error)
	BranchCommits(ctx context.Context, org, repo, branch, author string, since time.Time) ([]Commit, error)
	OpenPullRequests(ctx context.Context, org, repo string) ([]PullRequest, error)
}

// Credentials selects the authentication scheme. Exactly one of Token or
// Username/Password is expected; config validation enforces that.
type Credentials struct {
	Token    string
	Username string
	Password string
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// openPullsQuery pages through every open pull request of one repository.
// Open PRs cannot be filtered by author or date server-side, so the listing
// is deliberately unfiltered here.
type openPullsQuery struct {
	Repository struct {
		PullRequests struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				Author struct {
					Login githubv4.String
				}
				Title       githubv4.String
				Body        githubv4.String
				URL         githubv4.URI
				State       githubv4.PullRequestState
				CreatedAt   githubv4.DateTime
				HeadRefName githubv4.String
				BaseRefName githubv4.String
				Assignees   struct {
					Nodes []struct {
						Login githubv4.String
					}
				} `graphql:"assignees(first: 1)"`
			}
		} `graphql:"pullRequests(states: [OPEN], first: 100, after: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(creds Credentials, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var httpClient *http.Client
	if creds.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token})
		httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Base:   rateLimitWaiter,
				Source: ts,
			},
		}
	} else {
		httpClient = &http.Client{
			Transport: &github.BasicAuthTransport{
				Username:  creds.Username,
				Password:  creds.Password,
				Transport: rateLimitWaiter,
			},
		}
	}

	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// UserEmail looks up the public profile email of a login. It returns an
// empty string when the profile has none.
func (g *GitHubGateway) UserEmail(ctx context.Context, login string) (string, error) {
	g.logger.Printf("Looking up profile email for %s...", login)
	user, _, err := g.restClient.Users.Get(ctx, login)
	if err != nil {
		return "", fmt.Errorf("%w: get user %s: %v", domain.ErrRemoteQuery, login, err)
	}
	return user.GetEmail(), nil
}

// BranchCommits lists commits reachable from a branch, authored by the given
// user, using the API's since parameter as a coarse pre-filter. The caller
// must not trust that pre-filter; author dates are re-checked downstream.
func (g *GitHubGateway) BranchCommits(ctx context.Context, org, repo, branch, author string, since time.Time) ([]Commit, error) {
	g.logger.Printf("Fetching commits on %s/%s@%s...", org, repo, branch)
	opts := &github.CommitsListOptions{
		SHA:         branch,
		Author:      author,
		Since:       since,
		ListOptions: github.ListOptions{PerPage: 100},
	}
	var commits []Commit
	for {
		page, resp, err := g.restClient.Repositories.ListCommits(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: list commits on %s: %v", domain.ErrRemoteQuery, branch, err)
		}
		for _, rc := range page {
			commits = append(commits, Commit{
				SHA:          rc.GetSHA(),
				Message:      rc.GetCommit().GetMessage(),
				AuthorDate:   rc.GetCommit().GetAuthor().GetDate().Time,
				URL:          rc.GetHTMLURL(),
				CommentCount: rc.GetCommit().GetCommentCount(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Println("  Fetching next page of commits...")
	}
	g.logger.Printf("Fetched %d commit(s) on %s.", len(commits), branch)
	return commits, nil
}

// OpenPullRequests lists every open pull request of the repository via the
// GraphQL API, in API return order.
func (g *GitHubGateway) OpenPullRequests(ctx context.Context, org, repo string) ([]PullRequest, error) {
	g.logger.Printf("Fetching open pull requests for %s/%s...", org, repo)
	variables := map[string]interface{}{
		"owner":  githubv4.String(org),
		"name":   githubv4.String(repo),
		"cursor": (*githubv4.String)(nil),
	}

	var pulls []PullRequest
	for {
		var q openPullsQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("%w: list open pull requests: %v", domain.ErrRemoteQuery, err)
		}

		for _, node := range q.Repository.PullRequests.Nodes {
			pr := PullRequest{
				AuthorLogin: string(node.Author.Login),
				Title:       string(node.Title),
				Body:        string(node.Body),
				State:       string(node.State),
				CreatedAt:   node.CreatedAt.Time,
				HeadRef:     string(node.HeadRefName),
				BaseRef:     string(node.BaseRefName),
			}
			if node.URL.URL != nil {
				pr.URL = node.URL.String()
			}
			if len(node.Assignees.Nodes) > 0 {
				pr.Assignee = string(node.Assignees.Nodes[0].Login)
			}
			pulls = append(pulls, pr)
		}

		if !q.Repository.PullRequests.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Repository.PullRequests.PageInfo.EndCursor)
		g.logger.Println("  Fetching next page of pull requests...")
	}
	g.logger.Printf("Fetched %d open pull request(s).", len(pulls))
	return pulls, nil
}
