// Package usecase contains the selection and aggregation logic that decides
// what ends up in a report.
package usecase

import (
	"context"
	"log"
	"time"

	"github.com/chesscom/workreport/internal/domain"
	"github.com/chesscom/workreport/internal/gateway"
)

// Builder turns raw gateway data into report records.
type Builder struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
}

// NewBuilder creates a new Builder instance.
func NewBuilder(fetcher gateway.Fetcher, logger *log.Logger) *Builder {
	return &Builder{
		fetcher: fetcher,
		logger:  logger,
	}
}

// BranchFailure records a branch whose commit query failed. The report
// continues without that branch.
type BranchFailure struct {
	Branch string
	Err    error
}

const shortSHALen = 8

// CollectCommits fetches commits branch by branch, in input order, and keeps
// the ones authored inside the window.
//
// The server-side since parameter is only a coarse pre-filter: rebases,
// force-pushes and timezone skew let it return commits authored before the
// boundary, so every commit's author date is re-checked here before it is
// admitted. A branch whose query fails is recorded and skipped; the other
// branches still contribute.
func (b *Builder) CollectCommits(ctx context.Context, org, repo, author string, branches []string, since time.Time) (domain.BranchCommitMap, []BranchFailure) {
	var commits domain.BranchCommitMap
	var failures []BranchFailure

	for _, branch := range branches {
		raw, err := b.fetcher.BranchCommits(ctx, org, repo, branch, author, since)
		if err != nil {
			b.logger.Printf("Skipping branch %s: %v", branch, err)
			failures = append(failures, BranchFailure{Branch: branch, Err: err})
			continue
		}

		var records []domain.CommitRecord
		for _, rc := range raw {
			if rc.AuthorDate.Before(since) {
				continue
			}
			records = append(records, domain.CommitRecord{
				ShortSHA:     shortSHA(rc.SHA),
				Message:      rc.Message,
				CommentCount: rc.CommentCount,
				URL:          rc.URL,
				AuthorDate:   rc.AuthorDate,
			})
		}
		commits.Add(branch, records)
	}
	return commits, failures
}

func shortSHA(sha string) string {
	if len(sha) > shortSHALen {
		return sha[:shortSHALen]
	}
	return sha
}

// SelectPullRequests fetches every open pull request and filters it down to
// the ones matching the author and window. The open listing cannot filter by
// author or date server-side, so all of that happens here; the returned
// state is re-checked as well rather than trusted.
func (b *Builder) SelectPullRequests(ctx context.Context, org, repo, author string, since time.Time) ([]domain.PullRequestRecord, error) {
	raw, err := b.fetcher.OpenPullRequests(ctx, org, repo)
	if err != nil {
		return nil, err
	}

	var records []domain.PullRequestRecord
	for _, pr := range raw {
		if pr.State != gateway.StateOpen {
			continue
		}
		if author != "" && pr.AuthorLogin != author {
			continue
		}
		if pr.CreatedAt.Before(since) {
			continue
		}
		var assignee *string
		if pr.Assignee != "" {
			login := pr.Assignee
			assignee = &login
		}
		records = append(records, domain.PullRequestRecord{
			Title:      pr.Title,
			Body:       pr.Body,
			URL:        pr.URL,
			CreatedAt:  pr.CreatedAt,
			FromBranch: pr.HeadRef,
			ToBranch:   pr.BaseRef,
			Assignee:   assignee,
		})
	}
	return records, nil
}
