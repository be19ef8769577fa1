// Package service owns the moderation settings (restrict mode, moderator
// and verified-user lists) and executes moderation actions through the
// gateway. Settings follow the same discipline as giveaway records: load on
// demand is replaced by a single in-memory copy flushed on every mutation.
package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sc-discord-bot/internal/common/apperrors"
	"sc-discord-bot/internal/common/logger"
	"sc-discord-bot/internal/features/moderation/models"
	"sc-discord-bot/internal/platform/discord"
)

type ModerationService struct {
	path    string
	ownerID string
	gateway discord.Gateway

	mu       sync.Mutex
	settings models.Settings
}

func NewModerationService(path, ownerID string, gateway discord.Gateway) *ModerationService {
	s := &ModerationService{
		path:    path,
		ownerID: ownerID,
		gateway: gateway,
	}
	s.settings = s.load()
	if ownerID != "" && !s.settings.IsModerator(ownerID) {
		s.settings.Moderators = append(s.settings.Moderators, ownerID)
	}
	return s
}

// load reads the settings file; missing or corrupt means defaults.
func (s *ModerationService) load() models.Settings {
	var settings models.Settings
	data, err := os.ReadFile(s.path)
	if err != nil {
		return settings
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		logger.Warn().Err(err).Str("path", s.path).Msg("corrupt settings file, using defaults")
		return models.Settings{}
	}
	return settings
}

// persist flushes the settings atomically. Callers hold s.mu.
func (s *ModerationService) persist() error {
	data, err := json.MarshalIndent(&s.settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

func (s *ModerationService) IsOwner(userID string) bool {
	return s.ownerID != "" && userID == s.ownerID
}

func (s *ModerationService) IsModerator(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.IsModerator(userID)
}

func (s *ModerationService) IsVerified(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.IsVerified(userID)
}

func (s *ModerationService) RestrictMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.RestrictMode
}

// SetRestrictMode toggles restrict mode. Owner only.
func (s *ModerationService) SetRestrictMode(actorID string, on bool) error {
	if !s.IsOwner(actorID) {
		return apperrors.NewForbidden("only the bot owner can change restrict mode")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.RestrictMode = on
	if err := s.persist(); err != nil {
		return apperrors.NewStorage("save settings", err)
	}
	logger.Info().Bool("restrict_mode", on).Msg("restrict mode changed")
	return nil
}

// AddVerified adds a user to the verified list. Moderators only.
func (s *ModerationService) AddVerified(actorID, userID string) (bool, error) {
	if !s.IsModerator(actorID) {
		return false, apperrors.NewForbidden("only moderators can manage verified users")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settings.AddVerified(userID) {
		return false, nil
	}
	if err := s.persist(); err != nil {
		s.settings.RemoveVerified(userID)
		return false, apperrors.NewStorage("save settings", err)
	}
	return true, nil
}

// RemoveVerified drops a user from the verified list. Moderators only.
func (s *ModerationService) RemoveVerified(actorID, userID string) (bool, error) {
	if !s.IsModerator(actorID) {
		return false, apperrors.NewForbidden("only moderators can manage verified users")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settings.RemoveVerified(userID) {
		return false, nil
	}
	if err := s.persist(); err != nil {
		s.settings.AddVerified(userID)
		return false, apperrors.NewStorage("save settings", err)
	}
	return true, nil
}

// VerifiedUsers returns a copy of the verified list.
func (s *ModerationService) VerifiedUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.settings.VerifiedUsers))
	copy(out, s.settings.VerifiedUsers)
	return out
}

// Kick removes a member from the guild. Moderators only.
func (s *ModerationService) Kick(actorID, guildID, userID string) error {
	if !s.IsModerator(actorID) {
		return apperrors.NewForbidden("only moderators can kick")
	}
	return s.gateway.Kick(guildID, userID, "Kicked by "+actorID)
}

// Ban bans a member from the guild. Moderators only.
func (s *ModerationService) Ban(actorID, guildID, userID string) error {
	if !s.IsModerator(actorID) {
		return apperrors.NewForbidden("only moderators can ban")
	}
	return s.gateway.Ban(guildID, userID, "Banned by "+actorID)
}

// Timeout mutes a member for the given number of minutes. Moderators only.
func (s *ModerationService) Timeout(actorID, guildID, userID string, minutes int) error {
	if !s.IsModerator(actorID) {
		return apperrors.NewForbidden("only moderators can time out members")
	}
	if minutes <= 0 {
		return apperrors.NewValidation("minutes", "must be a positive number")
	}
	until := time.Now().Add(time.Duration(minutes) * time.Minute)
	return s.gateway.Timeout(guildID, userID, until, "Restricted by "+actorID)
}
