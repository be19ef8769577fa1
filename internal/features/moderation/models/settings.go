package models

// Settings is the process-wide moderation state. It is owned by the
// moderation service and persisted as a single JSON document; nothing else
// mutates it.
type Settings struct {
	// RestrictMode limits moderation commands to the owner when set.
	RestrictMode  bool     `json:"restrict_mode"`
	Moderators    []string `json:"moderators"`
	VerifiedUsers []string `json:"verified_users"`
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func (s *Settings) IsModerator(userID string) bool {
	return contains(s.Moderators, userID)
}

func (s *Settings) IsVerified(userID string) bool {
	return contains(s.VerifiedUsers, userID)
}

// AddVerified appends a user to the verified list. Returns false when
// already present.
func (s *Settings) AddVerified(userID string) bool {
	if contains(s.VerifiedUsers, userID) {
		return false
	}
	s.VerifiedUsers = append(s.VerifiedUsers, userID)
	return true
}

// RemoveVerified drops a user from the verified list. Returns false when
// absent.
func (s *Settings) RemoveVerified(userID string) bool {
	for i, v := range s.VerifiedUsers {
		if v == userID {
			s.VerifiedUsers = append(s.VerifiedUsers[:i], s.VerifiedUsers[i+1:]...)
			return true
		}
	}
	return false
}
