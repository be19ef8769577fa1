package service

import "math/rand"

// SelectWinners draws min(len(users), count) distinct entries from users by
// uniform sampling without replacement. Each call is an independent draw.
func SelectWinners(users []string, count int) []string {
	if count > len(users) {
		count = len(users)
	}
	if count <= 0 {
		return []string{}
	}

	winners := make([]string, 0, count)
	for _, idx := range rand.Perm(len(users))[:count] {
		winners = append(winners, users[idx])
	}
	return winners
}
