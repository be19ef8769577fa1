package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sc-discord-bot/internal/common/apperrors"
	"sc-discord-bot/internal/features/giveaway/models"
	"sc-discord-bot/internal/features/giveaway/repository"
	filerepo "sc-discord-bot/internal/features/giveaway/repository/file"
	"sc-discord-bot/internal/platform/discord"
)

type channelMessage struct {
	channelID string
	render    discord.Render
}

type messageEdit struct {
	channelID string
	messageID string
	render    discord.Render
}

// fakeGateway records every outbound call and can be told to fail DMs for
// specific users.
type fakeGateway struct {
	mu       sync.Mutex
	messages []channelMessage
	edits    []messageEdit
	dms      map[string][]discord.Render
	failDM   map[string]bool
	nextID   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		dms:    map[string][]discord.Render{},
		failDM: map[string]bool{},
	}
}

func (f *fakeGateway) SendMessage(channelID string, r discord.Render) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, channelMessage{channelID, r})
	f.nextID++
	return fmt.Sprintf("msg-%d", f.nextID), nil
}

func (f *fakeGateway) EditMessage(channelID, messageID string, r discord.Render) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, messageEdit{channelID, messageID, r})
	return nil
}

func (f *fakeGateway) SendDM(userID string, r discord.Render) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDM[userID] {
		return errors.New("cannot send messages to this user")
	}
	f.dms[userID] = append(f.dms[userID], r)
	return nil
}

func (f *fakeGateway) FetchUser(userID string) (*discord.User, error) {
	return &discord.User{ID: userID, Username: "user-" + userID}, nil
}

func (f *fakeGateway) Kick(guildID, userID, reason string) error    { return nil }
func (f *fakeGateway) Ban(guildID, userID, reason string) error     { return nil }
func (f *fakeGateway) Timeout(guildID, userID string, until time.Time, reason string) error {
	return nil
}

func (f *fakeGateway) dmCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dms[userID])
}

func (f *fakeGateway) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func newTestService(t *testing.T) (*giveawayService, repository.GiveawayRepository, *fakeGateway) {
	t.Helper()
	repo := filerepo.NewFileRepository(filepath.Join(t.TempDir(), "giveaways.json"))
	gw := newFakeGateway()
	svc := NewGiveawayService(repo, gw, time.UTC, 15*time.Second).(*giveawayService)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(svc.Stop)
	return svc, repo, gw
}

func TestCreatePersistsAndAnnounces(t *testing.T) {
	svc, repo, gw := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)
	assert.Regexp(t, `^G-\d{4}$`, g.ID)
	assert.Equal(t, "chan-1", g.ChannelID)
	assert.NotEmpty(t, g.MessageID)
	assert.Equal(t, 1, gw.messageCount())

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.MessageID, stored.MessageID)
	assert.False(t, stored.Running())
}

func TestSetupAdjustmentsRequireCreator(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)

	assert.True(t, apperrors.IsForbidden(svc.AdjustDays(ctx, "stranger", g.ID, 1)))
	assert.True(t, apperrors.IsForbidden(svc.SetReward(ctx, "stranger", g.ID, "Nitro")))
	assert.True(t, apperrors.IsForbidden(svc.Start(ctx, "stranger", g.ID)))
	assert.True(t, apperrors.IsForbidden(svc.Cancel(ctx, "stranger", g.ID)))

	require.NoError(t, svc.AdjustDays(ctx, "creator", g.ID, 2))
	require.NoError(t, svc.AdjustWinners(ctx, "creator", g.ID, 1))
	require.NoError(t, svc.SetReward(ctx, "creator", g.ID, "  Nitro  "))
	require.NoError(t, svc.SetTimeOfDay(ctx, "creator", g.ID, "20:30"))

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Days)
	assert.Equal(t, 2, stored.NumWinners)
	assert.Equal(t, "Nitro", stored.Reward)
	assert.Equal(t, 20, stored.Hour)
	assert.Equal(t, 30, stored.Minute)
}

func TestSetTimeOfDayRejectsBadInput(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)

	assert.True(t, apperrors.IsValidation(svc.SetTimeOfDay(ctx, "creator", g.ID, "25:00")))
	assert.True(t, apperrors.IsValidation(svc.SetTimeOfDay(ctx, "creator", g.ID, "half past six")))

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultHour, stored.Hour)
}

func TestStartSetsEndTime(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)
	require.NoError(t, svc.SetTimeOfDay(ctx, "creator", g.ID, "18:30"))

	require.NoError(t, svc.Start(ctx, "creator", g.ID))

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	require.True(t, stored.Running())
	assert.Equal(t, time.Date(2025, 3, 11, 18, 30, 0, 0, time.UTC), stored.EndTime.UTC())

	// Starting twice is rejected.
	assert.True(t, apperrors.IsValidation(svc.Start(ctx, "creator", g.ID)))
}

func TestJoinLeaveLifecycle(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)

	// Participation opens only once running.
	assert.True(t, apperrors.IsValidation(svc.Join(ctx, "u1", g.ID)))

	require.NoError(t, svc.Start(ctx, "creator", g.ID))
	require.NoError(t, svc.Join(ctx, "u1", g.ID))
	assert.ErrorIs(t, svc.Join(ctx, "u1", g.ID), ErrAlreadyJoined)

	require.NoError(t, svc.Leave(ctx, "u1", g.ID))
	assert.ErrorIs(t, svc.Leave(ctx, "u1", g.ID), ErrNotJoined)

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Users)
}

// markRunning flips a stored record to running without spawning the
// countdown goroutine.
func markRunning(t *testing.T, repo repository.GiveawayRepository, id string, end time.Time) {
	t.Helper()
	ctx := context.Background()
	g, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	g.EndTime = &end
	require.NoError(t, repo.Save(ctx, g))
}

func TestForceEndPicksWinnersAndClearsRecord(t *testing.T) {
	svc, repo, gw := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)
	require.NoError(t, svc.AdjustWinners(ctx, "creator", g.ID, 1))
	markRunning(t, repo, g.ID, svc.now().Add(time.Hour))

	require.NoError(t, svc.Join(ctx, "u1", g.ID))
	require.NoError(t, svc.Join(ctx, "u2", g.ID))

	before := gw.messageCount()
	require.NoError(t, svc.ForceEnd(ctx, "creator", g.ID))

	// Record gone, winner announcement posted, both winners DMed.
	_, err = repo.GetByID(ctx, g.ID)
	assert.ErrorIs(t, err, repository.ErrGiveawayNotFound)
	assert.Equal(t, before+1, gw.messageCount())
	assert.Equal(t, 1, gw.dmCount("u1"))
	assert.Equal(t, 1, gw.dmCount("u2"))
}

func TestForceEndRequiresRunning(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)

	assert.True(t, apperrors.IsValidation(svc.ForceEnd(ctx, "creator", g.ID)))
}

func TestEndWithNoParticipants(t *testing.T) {
	svc, repo, gw := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)
	markRunning(t, repo, g.ID, svc.now().Add(time.Hour))

	before := gw.messageCount()
	require.NoError(t, svc.ForceEnd(ctx, "creator", g.ID))

	_, err = repo.GetByID(ctx, g.ID)
	assert.ErrorIs(t, err, repository.ErrGiveawayNotFound)

	gw.mu.Lock()
	last := gw.messages[len(gw.messages)-1]
	gw.mu.Unlock()
	assert.Equal(t, before+1, gw.messageCount())
	assert.Contains(t, last.render.Content, "no participants")
}

func TestEndTwiceIsSilent(t *testing.T) {
	svc, repo, gw := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)
	markRunning(t, repo, g.ID, svc.now().Add(time.Hour))
	require.NoError(t, svc.Join(ctx, "u1", g.ID))

	require.NoError(t, svc.ForceEnd(ctx, "creator", g.ID))
	sent := gw.messageCount()

	// A racing end path that finds the record gone does nothing.
	require.NoError(t, svc.end(ctx, g.ID))
	assert.Equal(t, sent, gw.messageCount())
	assert.Equal(t, 1, gw.dmCount("u1"))
}

func TestOneBlockedInboxDoesNotStopOtherDMs(t *testing.T) {
	svc, repo, gw := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)
	require.NoError(t, svc.AdjustWinners(ctx, "creator", g.ID, 1))
	markRunning(t, repo, g.ID, svc.now().Add(time.Hour))
	require.NoError(t, svc.Join(ctx, "u1", g.ID))
	require.NoError(t, svc.Join(ctx, "u2", g.ID))

	gw.failDM["u1"] = true
	require.NoError(t, svc.ForceEnd(ctx, "creator", g.ID))

	assert.Equal(t, 0, gw.dmCount("u1"))
	assert.Equal(t, 1, gw.dmCount("u2"))
}

func TestCancelDeletesBeforeAnnouncing(t *testing.T) {
	svc, repo, gw := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, "creator", g.ID))

	_, err = repo.GetByID(ctx, g.ID)
	assert.ErrorIs(t, err, repository.ErrGiveawayNotFound)

	gw.mu.Lock()
	last := gw.edits[len(gw.edits)-1]
	gw.mu.Unlock()
	require.NotNil(t, last.render.Embed)
	assert.Contains(t, last.render.Embed.Title, "cancelled")

	// Cancelling again reports not found.
	assert.True(t, apperrors.IsNotFound(svc.Cancel(ctx, "creator", g.ID)))
}

func TestParticipantsPage(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)
	markRunning(t, repo, g.ID, svc.now().Add(time.Hour))
	require.NoError(t, svc.Join(ctx, "u1", g.ID))

	r, err := svc.Participants(ctx, g.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, r.Embed)
	assert.Contains(t, r.Embed.Description, "<@u1>")

	_, err = svc.Participants(ctx, "G-9999", 1)
	assert.True(t, apperrors.IsNotFound(err))
}

// hookedRepo runs a one-shot hook after the next GetByID, letting a test
// inject work into another operation's read-modify-write window.
type hookedRepo struct {
	repository.GiveawayRepository

	mu   sync.Mutex
	hook func()
}

func (r *hookedRepo) setHook(hook func()) {
	r.mu.Lock()
	r.hook = hook
	r.mu.Unlock()
}

func (r *hookedRepo) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	g, err := r.GiveawayRepository.GetByID(ctx, id)
	r.mu.Lock()
	hook := r.hook
	r.hook = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return g, err
}

func TestEndDuringJoinDoesNotResurrectRecord(t *testing.T) {
	base := filerepo.NewFileRepository(filepath.Join(t.TempDir(), "giveaways.json"))
	repo := &hookedRepo{GiveawayRepository: base}
	gw := newFakeGateway()
	svc := NewGiveawayService(repo, gw, time.UTC, 15*time.Second).(*giveawayService)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(svc.Stop)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)
	markRunning(t, repo, g.ID, svc.now().Add(time.Hour))

	// Fire a force-end while Join is between its read and its write. The
	// end must wait for the join to finish, never interleave with it.
	endDone := make(chan error, 1)
	repo.setHook(func() {
		go func() { endDone <- svc.ForceEnd(ctx, "creator", g.ID) }()
		time.Sleep(100 * time.Millisecond)
	})

	require.NoError(t, svc.Join(ctx, "joiner", g.ID))
	require.NoError(t, <-endDone)

	// The record stays gone and the completed join made the joiner win.
	_, err = base.GetByID(ctx, g.ID)
	assert.ErrorIs(t, err, repository.ErrGiveawayNotFound)
	assert.Equal(t, 1, gw.dmCount("joiner"))
}

func TestEndDuringCancelLeavesRecordDeleted(t *testing.T) {
	base := filerepo.NewFileRepository(filepath.Join(t.TempDir(), "giveaways.json"))
	repo := &hookedRepo{GiveawayRepository: base}
	gw := newFakeGateway()
	svc := NewGiveawayService(repo, gw, time.UTC, 15*time.Second).(*giveawayService)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(svc.Stop)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)
	markRunning(t, repo, g.ID, svc.now().Add(time.Hour))

	endDone := make(chan error, 1)
	repo.setHook(func() {
		go func() { endDone <- svc.end(ctx, g.ID) }()
		time.Sleep(100 * time.Millisecond)
	})

	require.NoError(t, svc.Cancel(ctx, "creator", g.ID))
	require.NoError(t, <-endDone)

	// Cancel won the record; the racing end found it gone and no winner
	// announcement or DM went out.
	_, err = base.GetByID(ctx, g.ID)
	assert.ErrorIs(t, err, repository.ErrGiveawayNotFound)
	assert.Equal(t, 1, gw.messageCount())
	assert.Equal(t, 0, gw.dmCount("creator"))
}

func TestConcurrentJoinsAllRecorded(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "creator", "chan-1")
	require.NoError(t, err)
	markRunning(t, repo, g.ID, svc.now().Add(time.Hour))

	const joiners = 20
	var wg sync.WaitGroup
	for n := 0; n < joiners; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, svc.Join(ctx, fmt.Sprintf("user-%02d", n), g.ID))
		}(n)
	}
	wg.Wait()

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Users, joiners)
}
