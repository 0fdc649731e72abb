// Package gitrepo answers one question about a local checkout: which
// branches exist and when were they last committed to.
package gitrepo

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/chesscom/workreport/internal/domain"
)

// Runner executes an external command and captures its stdout. It exists so
// tests can stub out git.
type Runner interface {
	Output(name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Selector enumerates the local branch refs of one repository directory.
type Selector struct {
	Dir string
	Run Runner
}

// NewSelector returns a Selector backed by the real git binary.
func NewSelector(dir string) Selector {
	return Selector{Dir: dir, Run: execRunner{}}
}

const refFormat = "%(refname:short)\x1f%(committerdate:unix)"

// Branches lists local branch refs with their last-committer dates, most
// recently committed first. A repository without branches yields an empty
// list, not an error.
func (s Selector) Branches() ([]domain.BranchRef, error) {
	out, err := s.Run.Output("git", "-C", s.Dir,
		"for-each-ref", "--sort=-committerdate", "--format="+refFormat, "refs/heads")
	if err != nil {
		return nil, fmt.Errorf("%w: git for-each-ref in %s: %v", domain.ErrRepoAccess, s.Dir, err)
	}

	var refs []domain.BranchRef
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		name, date, ok := strings.Cut(line, "\x1f")
		if !ok {
			return nil, fmt.Errorf("%w: unexpected ref line %q", domain.ErrRepoAccess, line)
		}
		epoch, err := strconv.ParseInt(strings.TrimSpace(date), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad committer date in %q", domain.ErrRepoAccess, line)
		}
		refs = append(refs, domain.BranchRef{Name: name, CommittedAt: time.Unix(epoch, 0)})
	}
	return refs, nil
}

// ActiveSince keeps the names of branches whose last commit is at or after
// the window boundary, preserving listing order.
func ActiveSince(refs []domain.BranchRef, since time.Time) []string {
	var names []string
	for _, ref := range refs {
		if !ref.CommittedAt.Before(since) {
			names = append(names, ref.Name)
		}
	}
	return names
}
