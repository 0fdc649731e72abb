package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBranchCommitMap_PreservesInsertionOrder(t *testing.T) {
	var m BranchCommitMap
	m.Add("feature/endgame", []CommitRecord{{ShortSHA: "aaaaaaaa"}})
	m.Add("main", []CommitRecord{{ShortSHA: "bbbbbbbb"}, {ShortSHA: "cccccccc"}})

	assert.Equal(t, []string{"feature/endgame", "main"}, m.Branches())
	assert.Len(t, m.Commits("main"), 2)
	assert.False(t, m.Empty())
}

func TestBranchCommitMap_IgnoresEmptyBranches(t *testing.T) {
	var m BranchCommitMap
	m.Add("quiet", nil)

	assert.True(t, m.Empty())
	assert.Empty(t, m.Branches())
}
