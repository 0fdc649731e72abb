package usecase

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chesscom/workreport/internal/gateway"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the GitHub gateway without making real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) UserEmail(ctx context.Context, login string) (string, error) {
	args := m.Called(ctx, login)
	return args.String(0), args.Error(1)
}

func (m *mockFetcher) BranchCommits(ctx context.Context, org, repo, branch, author string, since time.Time) ([]gateway.Commit, error) {
	args := m.Called(ctx, org, repo, branch, author, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.Commit), args.Error(1)
}

func (m *mockFetcher) OpenPullRequests(ctx context.Context, org, repo string) ([]gateway.PullRequest, error) {
	args := m.Called(ctx, org, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.PullRequest), args.Error(1)
}

func newTestBuilder(fetcher gateway.Fetcher) *Builder {
	return NewBuilder(fetcher, log.New(io.Discard, "", 0))
}

var boundary = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestBuilder_CollectCommits_RechecksAuthorDate(t *testing.T) {
	// Simulate a remote that ignores the since pre-filter and returns a
	// rebased commit authored before the boundary.
	fetcher := new(mockFetcher)
	fetcher.On("BranchCommits", mock.Anything, "ChessCom", "chess", "main", "magnus", boundary).Return([]gateway.Commit{
		{SHA: "0123456789abcdef", Message: "inside window", AuthorDate: boundary.Add(2 * time.Hour)},
		{SHA: "fedcba9876543210", Message: "rebased, authored before window", AuthorDate: boundary.Add(-26 * time.Hour)},
		{SHA: "aaaa111122223333", Message: "exactly at the boundary", AuthorDate: boundary},
	}, nil)

	commits, failures := newTestBuilder(fetcher).CollectCommits(context.Background(), "ChessCom", "chess", "magnus", []string{"main"}, boundary)

	assert.Empty(t, failures)
	require.Equal(t, []string{"main"}, commits.Branches())
	records := commits.Commits("main")
	require.Len(t, records, 2)
	assert.Equal(t, "01234567", records[0].ShortSHA)
	assert.Equal(t, "inside window", records[0].Message)
	assert.Equal(t, "aaaa1111", records[1].ShortSHA)
	fetcher.AssertExpectations(t)
}

func TestBuilder_CollectCommits_ShortSHAIsEightChars(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("BranchCommits", mock.Anything, "ChessCom", "chess", "main", "magnus", boundary).Return([]gateway.Commit{
		{SHA: "0123456789ab", AuthorDate: boundary},
		{SHA: "abc", AuthorDate: boundary},
	}, nil)

	commits, _ := newTestBuilder(fetcher).CollectCommits(context.Background(), "ChessCom", "chess", "magnus", []string{"main"}, boundary)

	records := commits.Commits("main")
	require.Len(t, records, 2)
	assert.Equal(t, "01234567", records[0].ShortSHA)
	// A sha shorter than eight characters is kept as-is.
	assert.Equal(t, "abc", records[1].ShortSHA)
}

func TestBuilder_CollectCommits_ContinuesPastFailedBranch(t *testing.T) {
	queryErr := errors.New("github api error")
	fetcher := new(mockFetcher)
	fetcher.On("BranchCommits", mock.Anything, "ChessCom", "chess", "broken", "magnus", boundary).Return(nil, queryErr)
	fetcher.On("BranchCommits", mock.Anything, "ChessCom", "chess", "healthy", "magnus", boundary).Return([]gateway.Commit{
		{SHA: "0123456789abcdef", Message: "still here", AuthorDate: boundary.Add(time.Hour)},
	}, nil)

	commits, failures := newTestBuilder(fetcher).CollectCommits(context.Background(), "ChessCom", "chess", "magnus", []string{"broken", "healthy"}, boundary)

	require.Len(t, failures, 1)
	assert.Equal(t, "broken", failures[0].Branch)
	assert.ErrorIs(t, failures[0].Err, queryErr)

	assert.Equal(t, []string{"healthy"}, commits.Branches())
	fetcher.AssertExpectations(t)
}

func TestBuilder_CollectCommits_OmitsBranchesWithoutSurvivors(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("BranchCommits", mock.Anything, "ChessCom", "chess", "stale", "magnus", boundary).Return([]gateway.Commit{
		{SHA: "0123456789abcdef", AuthorDate: boundary.Add(-time.Minute)},
	}, nil)
	fetcher.On("BranchCommits", mock.Anything, "ChessCom", "chess", "quiet", "magnus", boundary).Return([]gateway.Commit{}, nil)

	commits, failures := newTestBuilder(fetcher).CollectCommits(context.Background(), "ChessCom", "chess", "magnus", []string{"stale", "quiet"}, boundary)

	assert.Empty(t, failures)
	assert.True(t, commits.Empty())
}

func TestBuilder_SelectPullRequests(t *testing.T) {
	hikaru := "hikaru"
	testCases := []struct {
		name     string
		author   string
		raw      []gateway.PullRequest
		expected int
	}{
		{
			name:   "author mismatch is excluded when a filter is set",
			author: "magnus",
			raw: []gateway.PullRequest{
				{AuthorLogin: "judit", State: gateway.StateOpen, CreatedAt: boundary.Add(time.Hour)},
				{AuthorLogin: "magnus", State: gateway.StateOpen, CreatedAt: boundary.Add(time.Hour)},
			},
			expected: 1,
		},
		{
			name:   "no author filter keeps everyone",
			author: "",
			raw: []gateway.PullRequest{
				{AuthorLogin: "judit", State: gateway.StateOpen, CreatedAt: boundary.Add(time.Hour)},
				{AuthorLogin: "magnus", State: gateway.StateOpen, CreatedAt: boundary.Add(time.Hour)},
			},
			expected: 2,
		},
		{
			name:   "created before the boundary is excluded",
			author: "magnus",
			raw: []gateway.PullRequest{
				{AuthorLogin: "magnus", State: gateway.StateOpen, CreatedAt: boundary.Add(-time.Second)},
				{AuthorLogin: "magnus", State: gateway.StateOpen, CreatedAt: boundary},
			},
			expected: 1,
		},
		{
			name:   "non-open state is never included, regardless of filters",
			author: "magnus",
			raw: []gateway.PullRequest{
				{AuthorLogin: "magnus", State: "MERGED", CreatedAt: boundary.Add(time.Hour)},
				{AuthorLogin: "magnus", State: "CLOSED", CreatedAt: boundary.Add(time.Hour)},
			},
			expected: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := new(mockFetcher)
			fetcher.On("OpenPullRequests", mock.Anything, "ChessCom", "chess").Return(tc.raw, nil)

			records, err := newTestBuilder(fetcher).SelectPullRequests(context.Background(), "ChessCom", "chess", tc.author, boundary)

			require.NoError(t, err)
			assert.Len(t, records, tc.expected)
			fetcher.AssertExpectations(t)
		})
	}

	t.Run("record fields are carried over, absent assignee is nil", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("OpenPullRequests", mock.Anything, "ChessCom", "chess").Return([]gateway.PullRequest{
			{
				AuthorLogin: "magnus",
				Title:       "Add endgame tablebase",
				Body:        "Probes syzygy tables.",
				URL:         "https://github.com/ChessCom/chess/pull/42",
				State:       gateway.StateOpen,
				CreatedAt:   boundary.Add(time.Hour),
				HeadRef:     "feature/endgame",
				BaseRef:     "main",
				Assignee:    hikaru,
			},
			{
				AuthorLogin: "magnus",
				Title:       "Unassigned cleanup",
				State:       gateway.StateOpen,
				CreatedAt:   boundary.Add(2 * time.Hour),
			},
		}, nil)

		records, err := newTestBuilder(fetcher).SelectPullRequests(context.Background(), "ChessCom", "chess", "magnus", boundary)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Add endgame tablebase", records[0].Title)
		assert.Equal(t, "feature/endgame", records[0].FromBranch)
		assert.Equal(t, "main", records[0].ToBranch)
		require.NotNil(t, records[0].Assignee)
		assert.Equal(t, hikaru, *records[0].Assignee)
		assert.Nil(t, records[1].Assignee)
	})

	t.Run("listing failure is fatal", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("OpenPullRequests", mock.Anything, "ChessCom", "chess").Return(nil, errors.New("boom"))

		_, err := newTestBuilder(fetcher).SelectPullRequests(context.Background(), "ChessCom", "chess", "magnus", boundary)
		assert.Error(t, err)
	})
}

func TestBuilder_SelectionIsIdempotent(t *testing.T) {
	raw := []gateway.PullRequest{
		{AuthorLogin: "magnus", Title: "one", State: gateway.StateOpen, CreatedAt: boundary.Add(time.Hour)},
		{AuthorLogin: "magnus", Title: "two", State: gateway.StateOpen, CreatedAt: boundary.Add(2 * time.Hour)},
	}
	fetcher := new(mockFetcher)
	fetcher.On("OpenPullRequests", mock.Anything, "ChessCom", "chess").Return(raw, nil)

	b := newTestBuilder(fetcher)
	first, err := b.SelectPullRequests(context.Background(), "ChessCom", "chess", "magnus", boundary)
	require.NoError(t, err)
	second, err := b.SelectPullRequests(context.Background(), "ChessCom", "chess", "magnus", boundary)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
