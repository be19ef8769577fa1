package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"sc-discord-bot/internal/common/apperrors"
	"sc-discord-bot/internal/common/logger"
	"sc-discord-bot/internal/features/giveaway/models"
	"sc-discord-bot/internal/features/giveaway/repository"
	"sc-discord-bot/internal/platform/discord"
)

var (
	ErrAlreadyJoined = errors.New("user already joined")
	ErrNotJoined     = errors.New("user has not joined")
)

type giveawayService struct {
	repo     repository.GiveawayRepository
	gateway  discord.Gateway
	loc      *time.Location
	interval time.Duration

	// locks serializes whole operations per giveaway id, see lockID.
	locks sync.Map

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

func NewGiveawayService(
	repo repository.GiveawayRepository,
	gateway discord.Gateway,
	loc *time.Location,
	countdownInterval time.Duration,
) GiveawayService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &giveawayService{
		repo:     repo,
		gateway:  gateway,
		loc:      loc,
		interval: countdownInterval,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.now = func() time.Time { return time.Now().In(loc) }
	return s
}

func (s *giveawayService) Stop() {
	s.cancel()
	s.wg.Wait()
}

// lockID takes the per-giveaway lock and returns its release func. Every
// mutation holds the lock across its full read-mutate-persist cycle, and
// the end paths take the same lock, so a deleted record can never be
// written back by an in-flight mutation and concurrent joins cannot lose
// each other's writes. Entries live for the process lifetime; the id space
// is four digits.
func (s *giveawayService) lockID(giveawayID string) func() {
	v, _ := s.locks.LoadOrStore(giveawayID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// get re-reads the current record; absence maps to the user-facing not
// found error.
func (s *giveawayService) get(ctx context.Context, id string) (*models.Giveaway, error) {
	g, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrGiveawayNotFound) {
		return nil, apperrors.NewNotFound("giveaway", id)
	}
	if err != nil {
		return nil, apperrors.NewStorage("get giveaway", err)
	}
	return g, nil
}

func (s *giveawayService) persist(ctx context.Context, g *models.Giveaway) error {
	if err := s.repo.Save(ctx, g); err != nil {
		return apperrors.NewStorage("save giveaway", err).WithContext("giveaway_id", g.ID)
	}
	return nil
}

func requireCreator(g *models.Giveaway, actorID string) error {
	if g.CreatorID != actorID {
		return apperrors.NewForbidden("only the giveaway creator can do this")
	}
	return nil
}

// refresh re-renders the announcement message. Display failures are logged
// and swallowed; the channel or message may be gone.
func (s *giveawayService) refresh(ctx context.Context, g *models.Giveaway) {
	if g.ChannelID == "" || g.MessageID == "" {
		return
	}
	creator, _ := s.gateway.FetchUser(g.CreatorID)
	if err := s.gateway.EditMessage(g.ChannelID, g.MessageID, g.Render(creator, s.now())); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", g.ID).Msg("failed to refresh giveaway message")
	}
}

func (s *giveawayService) Create(ctx context.Context, creatorID, channelID string) (*models.Giveaway, error) {
	id, err := repository.NewID(ctx, s.repo)
	if err != nil {
		return nil, apperrors.NewStorage("generate giveaway id", err)
	}

	g := models.New(id, creatorID)
	defer s.lockID(g.ID)()
	if err := s.persist(ctx, g); err != nil {
		return nil, err
	}

	creator, _ := s.gateway.FetchUser(creatorID)
	msgID, err := s.gateway.SendMessage(channelID, g.Render(creator, s.now()))
	if err != nil {
		// No announcement, no giveaway.
		_ = s.repo.Delete(ctx, g.ID)
		return nil, err
	}

	g.ChannelID = channelID
	g.MessageID = msgID
	if err := s.persist(ctx, g); err != nil {
		return nil, err
	}

	logger.Info().Str("giveaway_id", g.ID).Str("creator_id", creatorID).Msg("giveaway created")
	return g, nil
}

func (s *giveawayService) AdjustDays(ctx context.Context, actorID, giveawayID string, delta int) error {
	defer s.lockID(giveawayID)()
	g, err := s.get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if err := requireCreator(g, actorID); err != nil {
		return err
	}
	g.AdjustDays(delta)
	if err := s.persist(ctx, g); err != nil {
		return err
	}
	s.refresh(ctx, g)
	return nil
}

func (s *giveawayService) AdjustWinners(ctx context.Context, actorID, giveawayID string, delta int) error {
	defer s.lockID(giveawayID)()
	g, err := s.get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if err := requireCreator(g, actorID); err != nil {
		return err
	}
	g.AdjustWinners(delta)
	if err := s.persist(ctx, g); err != nil {
		return err
	}
	s.refresh(ctx, g)
	return nil
}

func (s *giveawayService) SetReward(ctx context.Context, actorID, giveawayID, reward string) error {
	defer s.lockID(giveawayID)()
	g, err := s.get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if err := requireCreator(g, actorID); err != nil {
		return err
	}
	reward = strings.TrimSpace(reward)
	if reward == "" {
		reward = models.DefaultReward
	}
	g.Reward = reward
	if err := s.persist(ctx, g); err != nil {
		return err
	}
	s.refresh(ctx, g)
	return nil
}

// SetTimeOfDay parses an "HH:MM" value and stores it as the scheduled end
// time-of-day. Rejected input leaves the record untouched.
func (s *giveawayService) SetTimeOfDay(ctx context.Context, actorID, giveawayID, value string) error {
	defer s.lockID(giveawayID)()
	g, err := s.get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if err := requireCreator(g, actorID); err != nil {
		return err
	}

	hour, minute, err := parseTimeOfDay(value)
	if err != nil {
		return apperrors.NewValidation("time", "use the HH:MM format, e.g. 18:30")
	}
	if err := g.SetTimeOfDay(hour, minute); err != nil {
		return apperrors.NewValidation("time", err.Error())
	}
	if err := s.persist(ctx, g); err != nil {
		return err
	}
	s.refresh(ctx, g)
	return nil
}

func parseTimeOfDay(value string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time of day out of range: %q", value)
	}
	return hour, minute, nil
}

func (s *giveawayService) Start(ctx context.Context, actorID, giveawayID string) error {
	defer s.lockID(giveawayID)()
	g, err := s.get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if err := requireCreator(g, actorID); err != nil {
		return err
	}
	if g.Running() {
		return apperrors.NewValidation("giveaway", "already running")
	}

	et := g.ComputeEndTime(s.now())
	g.EndTime = &et
	if err := s.persist(ctx, g); err != nil {
		return err
	}
	s.refresh(ctx, g)
	s.spawnCountdown(g.ID)

	logger.Info().Str("giveaway_id", g.ID).Time("end_time", et).Msg("giveaway started")
	return nil
}

func (s *giveawayService) Cancel(ctx context.Context, actorID, giveawayID string) error {
	defer s.lockID(giveawayID)()
	g, err := s.get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if err := requireCreator(g, actorID); err != nil {
		return err
	}

	// Delete before anything observable; a racing end path that finds the
	// record gone becomes a no-op.
	if err := s.repo.Delete(ctx, giveawayID); err != nil {
		if errors.Is(err, repository.ErrGiveawayNotFound) {
			return nil
		}
		return apperrors.NewStorage("delete giveaway", err)
	}

	if g.ChannelID != "" && g.MessageID != "" {
		if err := s.gateway.EditMessage(g.ChannelID, g.MessageID, models.CancelledRender(s.now())); err != nil {
			logger.Warn().Err(err).Str("giveaway_id", g.ID).Msg("failed to render cancellation notice")
		}
	}

	logger.Info().Str("giveaway_id", g.ID).Msg("giveaway cancelled")
	return nil
}

func (s *giveawayService) ForceEnd(ctx context.Context, actorID, giveawayID string) error {
	defer s.lockID(giveawayID)()
	g, err := s.get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if err := requireCreator(g, actorID); err != nil {
		return err
	}
	if !g.Running() {
		return apperrors.NewValidation("giveaway", "not running")
	}
	return s.endLocked(ctx, giveawayID)
}

func (s *giveawayService) Join(ctx context.Context, actorID, giveawayID string) error {
	defer s.lockID(giveawayID)()
	g, err := s.get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if !g.Running() {
		return apperrors.NewValidation("giveaway", "not running")
	}
	if !g.AddUser(actorID) {
		return ErrAlreadyJoined
	}
	if err := s.persist(ctx, g); err != nil {
		return err
	}
	s.refresh(ctx, g)
	return nil
}

func (s *giveawayService) Leave(ctx context.Context, actorID, giveawayID string) error {
	defer s.lockID(giveawayID)()
	g, err := s.get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if !g.Running() {
		return apperrors.NewValidation("giveaway", "not running")
	}
	if !g.RemoveUser(actorID) {
		return ErrNotJoined
	}
	if err := s.persist(ctx, g); err != nil {
		return err
	}
	s.refresh(ctx, g)
	return nil
}

func (s *giveawayService) Participants(ctx context.Context, giveawayID string, page int) (discord.Render, error) {
	g, err := s.get(ctx, giveawayID)
	if err != nil {
		return discord.Render{}, err
	}
	creator, _ := s.gateway.FetchUser(g.CreatorID)
	return g.ParticipantsRender(models.Paginate(g.Users, page), creator, s.now()), nil
}

func (s *giveawayService) List(ctx context.Context) ([]*models.Giveaway, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewStorage("list giveaways", err)
	}
	return list, nil
}

// end finishes a giveaway from outside an operation (the countdown timer).
func (s *giveawayService) end(ctx context.Context, giveawayID string) error {
	defer s.lockID(giveawayID)()
	return s.endLocked(ctx, giveawayID)
}

// endLocked finishes a giveaway exactly once: the record is deleted before
// any announcement, so whichever trigger (timer, force-end, racing
// duplicate) deletes it first owns the announcement and every other one
// no-ops. Callers hold the giveaway's lock.
func (s *giveawayService) endLocked(ctx context.Context, giveawayID string) error {
	g, err := s.repo.GetByID(ctx, giveawayID)
	if errors.Is(err, repository.ErrGiveawayNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.NewStorage("get giveaway", err)
	}

	if err := s.repo.Delete(ctx, giveawayID); err != nil {
		if errors.Is(err, repository.ErrGiveawayNotFound) {
			return nil
		}
		return apperrors.NewStorage("delete giveaway", err)
	}

	now := s.now()
	creator, _ := s.gateway.FetchUser(g.CreatorID)

	if len(g.Users) == 0 {
		if g.ChannelID != "" {
			if _, err := s.gateway.SendMessage(g.ChannelID, discord.Render{Content: g.NoWinnersContent()}); err != nil {
				logger.Warn().Err(err).Str("giveaway_id", g.ID).Msg("failed to announce empty giveaway")
			}
		}
		logger.Info().Str("giveaway_id", g.ID).Msg("giveaway ended with no participants")
		return nil
	}

	winners := SelectWinners(g.Users, g.NumWinners)
	mentions := make([]string, 0, len(winners))
	for _, uid := range winners {
		mentions = append(mentions, "<@"+uid+">")
	}
	ended := g.EndedRender(strings.Join(mentions, ", "), now)

	if g.ChannelID != "" {
		if _, err := s.gateway.SendMessage(g.ChannelID, ended); err != nil {
			logger.Warn().Err(err).Str("giveaway_id", g.ID).Msg("failed to announce winners")
		}
		if g.MessageID != "" {
			if err := s.gateway.EditMessage(g.ChannelID, g.MessageID, ended); err != nil {
				logger.Warn().Err(err).Str("giveaway_id", g.ID).Msg("failed to close giveaway message")
			}
		}
	}

	// DMs are best effort per recipient; one blocked inbox never aborts
	// the rest.
	for _, uid := range winners {
		winner, _ := s.gateway.FetchUser(uid)
		if err := s.gateway.SendDM(uid, g.WinnerDMRender(winner, creator, now)); err != nil {
			logger.Warn().Err(err).Str("giveaway_id", g.ID).Str("user_id", uid).Msg("failed to DM winner")
		}
	}

	logger.Info().
		Str("giveaway_id", g.ID).
		Int("participants", len(g.Users)).
		Int("winners", len(winners)).
		Msg("giveaway ended")
	return nil
}
