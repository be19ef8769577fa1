package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sc-discord-bot/internal/features/giveaway/models"
)

// saturatedRepo reports every id as taken and counts the draws.
type saturatedRepo struct {
	checks int
}

func (r *saturatedRepo) GetByID(context.Context, string) (*models.Giveaway, error) {
	return nil, ErrGiveawayNotFound
}

func (r *saturatedRepo) Save(context.Context, *models.Giveaway) error { return nil }

func (r *saturatedRepo) Delete(context.Context, string) error { return ErrGiveawayNotFound }

func (r *saturatedRepo) Exists(context.Context, string) (bool, error) {
	r.checks++
	return true, nil
}

func (r *saturatedRepo) List(context.Context) ([]*models.Giveaway, error) { return nil, nil }

func TestNewIDFailsWhenStoreIsFull(t *testing.T) {
	repo := &saturatedRepo{}

	_, err := NewID(context.Background(), repo)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIDSpaceExhausted)
	assert.Equal(t, maxIDAttempts, repo.checks)
}

type failingExistsRepo struct {
	saturatedRepo
}

func (r *failingExistsRepo) Exists(context.Context, string) (bool, error) {
	return false, errors.New("store unavailable")
}

func TestNewIDPropagatesStoreErrors(t *testing.T) {
	_, err := NewID(context.Background(), &failingExistsRepo{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIDSpaceExhausted)
}
