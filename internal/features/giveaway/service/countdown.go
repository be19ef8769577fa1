package service

import (
	"context"
	"errors"
	"time"

	"sc-discord-bot/internal/common/logger"
	"sc-discord-bot/internal/features/giveaway/repository"
)

// Resume restarts countdown runners for running records found in the store
// at startup. Setup-state records keep waiting for their creator.
func (s *giveawayService) Resume(ctx context.Context) error {
	list, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	resumed := 0
	for _, g := range list {
		if g.Running() {
			s.spawnCountdown(g.ID)
			resumed++
		}
	}
	logger.Info().Int("total", len(list)).Int("resumed", resumed).Msg("giveaways restored from store")
	return nil
}

func (s *giveawayService) spawnCountdown(giveawayID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runCountdown(giveawayID)
	}()
}

// runCountdown is the per-giveaway timer loop. Each tick re-reads the
// record; a vanished record means another trigger already ended or
// cancelled it and the loop exits silently.
func (s *giveawayService) runCountdown(giveawayID string) {
	for {
		g, err := s.repo.GetByID(s.ctx, giveawayID)
		if err != nil {
			if !errors.Is(err, repository.ErrGiveawayNotFound) {
				logger.Error().Err(err).Str("giveaway_id", giveawayID).Msg("countdown read failed")
			}
			return
		}
		if !g.Running() {
			return
		}

		remaining := g.Remaining(s.now())
		if remaining <= 0 {
			if err := s.end(s.ctx, giveawayID); err != nil {
				logger.Error().Err(err).Str("giveaway_id", giveawayID).Msg("countdown end failed")
			}
			return
		}

		s.refresh(s.ctx, g)

		sleep := s.interval
		if remaining < sleep {
			sleep = remaining
		}
		if sleep < time.Second {
			sleep = time.Second
		}

		timer := time.NewTimer(sleep)
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			timer.Stop()
			return
		}
	}
}
