package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectWinnersDrawsDistinctEntries(t *testing.T) {
	users := []string{"u1", "u2", "u3", "u4", "u5"}

	winners := SelectWinners(users, 3)
	assert.Len(t, winners, 3)

	seen := map[string]bool{}
	for _, w := range winners {
		assert.Contains(t, users, w)
		assert.False(t, seen[w], "winner %s drawn twice", w)
		seen[w] = true
	}
}

func TestSelectWinnersCapsAtParticipantCount(t *testing.T) {
	users := []string{"u1", "u2"}

	winners := SelectWinners(users, 10)
	assert.ElementsMatch(t, users, winners)
}

func TestSelectWinnersEmpty(t *testing.T) {
	assert.Empty(t, SelectWinners(nil, 3))
	assert.Empty(t, SelectWinners([]string{"u1"}, 0))
}
