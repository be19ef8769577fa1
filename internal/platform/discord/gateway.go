package discord

import "time"

// Gateway is the boundary between the bot's core and the chat platform.
// Services depend on this interface; tests substitute an in-memory fake.
type Gateway interface {
	// SendMessage posts a rendered message to a channel and returns the
	// created message id.
	SendMessage(channelID string, r Render) (string, error)

	// EditMessage replaces the rendered content of an existing message.
	EditMessage(channelID, messageID string, r Render) error

	// SendDM delivers a rendered message to a user's direct channel.
	// Fails when the recipient blocks DMs; callers treat that as
	// best-effort per recipient.
	SendDM(userID string, r Render) error

	// FetchUser resolves account data for a user id.
	FetchUser(userID string) (*User, error)

	Kick(guildID, userID, reason string) error
	Ban(guildID, userID, reason string) error
	Timeout(guildID, userID string, until time.Time, reason string) error
}
