// Package domain contains the core data structures of the report pipeline.
package domain

import "time"

// BranchRef is a local branch name paired with its last-committer date.
// It only exists while branch selection runs.
type BranchRef struct {
	Name        string
	CommittedAt time.Time
}

// CommitRecord is one qualifying commit as it appears in the report.
// The message is kept verbatim, newlines included.
type CommitRecord struct {
	ShortSHA     string
	Message      string
	CommentCount int
	URL          string
	AuthorDate   time.Time
}

// PullRequestRecord is one qualifying open pull request.
type PullRequestRecord struct {
	Title      string
	Body       string
	URL        string
	CreatedAt  time.Time
	FromBranch string
	ToBranch   string
	// Assignee is nil when the pull request has no assignee.
	Assignee *string
}

// BranchCommitMap maps branch names to their qualifying commits while
// preserving the order in which branches were added.
type BranchCommitMap struct {
	order   []string
	commits map[string][]CommitRecord
}

// Add records the commits for a branch. Branches without commits are not
// recorded at all.
func (m *BranchCommitMap) Add(branch string, commits []CommitRecord) {
	if len(commits) == 0 {
		return
	}
	if m.commits == nil {
		m.commits = make(map[string][]CommitRecord)
	}
	if _, ok := m.commits[branch]; !ok {
		m.order = append(m.order, branch)
	}
	m.commits[branch] = commits
}

// Branches returns the recorded branch names in insertion order.
func (m *BranchCommitMap) Branches() []string { return m.order }

// Commits returns the commits recorded for a branch, in the order they were
// added.
func (m *BranchCommitMap) Commits(branch string) []CommitRecord { return m.commits[branch] }

// Empty reports whether no branch contributed any commit.
func (m *BranchCommitMap) Empty() bool { return len(m.order) == 0 }
