// Package redis is an alternative store backend keeping one JSON value per
// record plus an id set for listing. Semantics match the file backend:
// terminal states are represented by key absence.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sc-discord-bot/internal/features/giveaway/models"
	"sc-discord-bot/internal/features/giveaway/repository"
	redisplatform "sc-discord-bot/internal/platform/redis"
)

const (
	keyPrefixGiveaway = "giveaway:"
	keyGiveawayIDs    = "giveaways:ids"
)

type redisRepository struct {
	client *redisplatform.Client
}

func NewRedisRepository(client *redisplatform.Client) repository.GiveawayRepository {
	return &redisRepository{client: client}
}

func makeGiveawayKey(id string) string {
	return keyPrefixGiveaway + id
}

func (r *redisRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	data, err := r.client.Get(ctx, makeGiveawayKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}

	var giveaway models.Giveaway
	if err := json.Unmarshal(data, &giveaway); err != nil {
		return nil, fmt.Errorf("unmarshal giveaway %s: %w", id, err)
	}
	return &giveaway, nil
}

func (r *redisRepository) Save(ctx context.Context, giveaway *models.Giveaway) error {
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("marshal giveaway: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeGiveawayKey(giveaway.ID), data, 0)
	pipe.SAdd(ctx, keyGiveawayIDs, giveaway.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) Delete(ctx context.Context, id string) error {
	// DEL's removed-key count decides which of any racing deleters wins.
	removed, err := r.client.Del(ctx, makeGiveawayKey(id)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return repository.ErrGiveawayNotFound
	}
	return r.client.SRem(ctx, keyGiveawayIDs, id).Err()
}

func (r *redisRepository) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, makeGiveawayKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisRepository) List(ctx context.Context) ([]*models.Giveaway, error) {
	ids, err := r.client.SMembers(ctx, keyGiveawayIDs).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*models.Giveaway, 0, len(ids))
	for _, id := range ids {
		g, err := r.GetByID(ctx, id)
		if err == repository.ErrGiveawayNotFound {
			// Id set can lag behind a concurrent delete.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
