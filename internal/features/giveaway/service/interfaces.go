package service

import (
	"context"

	"sc-discord-bot/internal/features/giveaway/models"
	"sc-discord-bot/internal/platform/discord"
)

// GiveawayService drives the giveaway lifecycle. Every operation re-reads
// the current record from the store, mutates, persists, and then updates
// the announcement message; the engine never caches records across calls.
type GiveawayService interface {
	// Create makes a new setup-state giveaway and posts its setup message
	// in the given channel.
	Create(ctx context.Context, creatorID, channelID string) (*models.Giveaway, error)

	// Setup adjustments, creator only.
	AdjustDays(ctx context.Context, actorID, giveawayID string, delta int) error
	AdjustWinners(ctx context.Context, actorID, giveawayID string, delta int) error
	SetReward(ctx context.Context, actorID, giveawayID, reward string) error
	SetTimeOfDay(ctx context.Context, actorID, giveawayID, value string) error

	// Transitions.
	Start(ctx context.Context, actorID, giveawayID string) error
	Cancel(ctx context.Context, actorID, giveawayID string) error
	ForceEnd(ctx context.Context, actorID, giveawayID string) error

	// Participation, any user.
	Join(ctx context.Context, actorID, giveawayID string) error
	Leave(ctx context.Context, actorID, giveawayID string) error

	// Participants renders one page of the participant list.
	Participants(ctx context.Context, giveawayID string, page int) (discord.Render, error)

	// List returns all live records.
	List(ctx context.Context) ([]*models.Giveaway, error)

	// Resume restarts countdown runners for persisted running giveaways.
	// Called once at startup.
	Resume(ctx context.Context) error

	// Stop cancels all countdown runners and waits for them to exit.
	Stop()
}
