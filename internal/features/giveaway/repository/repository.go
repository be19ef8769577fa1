package repository

import (
	"context"
	"errors"

	"sc-discord-bot/internal/features/giveaway/models"
)

var (
	ErrGiveawayNotFound = errors.New("giveaway not found")

	// ErrIDSpaceExhausted is returned when NewID cannot find a free id.
	ErrIDSpaceExhausted = errors.New("no free giveaway id after repeated draws")
)

// maxIDAttempts bounds the random draws in NewID. The id space holds ten
// thousand keys, so hitting the bound means the store is effectively full.
const maxIDAttempts = 100

// GiveawayRepository owns the durable copy of every live giveaway record.
// Terminal states carry no status field: ended and cancelled records are
// simply deleted, and Delete reports whether this caller removed the
// record. That report is the at-most-once guard for concurrent end paths.
type GiveawayRepository interface {
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)

	// Save upserts the record. The write is durable before Save returns.
	Save(ctx context.Context, giveaway *models.Giveaway) error

	// Delete removes the record, returning ErrGiveawayNotFound when it is
	// already gone. Exactly one of any set of racing deleters succeeds.
	Delete(ctx context.Context, id string) error

	Exists(ctx context.Context, id string) (bool, error)

	// List returns all live records in unspecified order.
	List(ctx context.Context) ([]*models.Giveaway, error)
}

// NewID generates a record id that does not collide with live store keys.
func NewID(ctx context.Context, repo GiveawayRepository) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := models.GenerateID()
		exists, err := repo.Exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", ErrIDSpaceExhausted
}
