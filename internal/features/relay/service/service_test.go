package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sc-discord-bot/internal/platform/discord"
)

type fakeGateway struct {
	mu     sync.Mutex
	dms    map[string][]discord.Render
	failDM map[string]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		dms:    map[string][]discord.Render{},
		failDM: map[string]bool{},
	}
}

func (f *fakeGateway) SendMessage(channelID string, r discord.Render) (string, error) {
	return "", nil
}

func (f *fakeGateway) EditMessage(channelID, messageID string, r discord.Render) error {
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

func (f *fakeGateway) Kick(guildID, userID, reason string) error { return nil }
func (f *fakeGateway) Ban(guildID, userID, reason string) error  { return nil }
func (f *fakeGateway) Timeout(guildID, userID string, until time.Time, reason string) error {
	return nil
}

func (f *fakeGateway) lastDM(userID string) (discord.Render, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dms := f.dms[userID]
	if len(dms) == 0 {
		return discord.Render{}, false
	}
	return dms[len(dms)-1], true
}

func (f *fakeGateway) dmCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dms[userID])
}

func newTestRelay(t *testing.T) (*RelayService, *fakeGateway) {
	t.Helper()
	gw := newFakeGateway()
	svc := NewRelayService(gw, 5*time.Minute, time.Minute)
	t.Cleanup(svc.Stop)
	return svc, gw
}

func TestInviteSendsRequestDM(t *testing.T) {
	svc, gw := newTestRelay(t)

	require.NoError(t, svc.Invite("alice", "bob"))

	dm, ok := gw.lastDM("bob")
	require.True(t, ok)
	require.NotNil(t, dm.Embed)
	require.Len(t, dm.Rows, 1)
	assert.Equal(t, "relay|accept|alice", dm.Rows[0][0].CustomID)
	assert.Equal(t, "relay|decline|alice", dm.Rows[0][1].CustomID)
}

func TestInviteRejectsSelf(t *testing.T) {
	svc, _ := newTestRelay(t)
	assert.ErrorIs(t, svc.Invite("alice", "alice"), ErrSelfChat)
}

func TestAcceptPairsBothUsers(t *testing.T) {
	svc, gw := newTestRelay(t)

	require.NoError(t, svc.Accept("alice", "bob"))
	assert.Equal(t, 1, svc.ActiveSessions())

	partner, ok := svc.PartnerOf("alice")
	require.True(t, ok)
	assert.Equal(t, "bob", partner)

	partner, ok = svc.PartnerOf("bob")
	require.True(t, ok)
	assert.Equal(t, "alice", partner)

	// Both sides got the connect notice.
	assert.Equal(t, 1, gw.dmCount("alice"))
	assert.Equal(t, 1, gw.dmCount("bob"))
}

func TestBusyUsersCannotPairAgain(t *testing.T) {
	svc, _ := newTestRelay(t)

	require.NoError(t, svc.Accept("alice", "bob"))

	assert.ErrorIs(t, svc.Invite("alice", "carol"), ErrBusy)
	assert.ErrorIs(t, svc.Invite("carol", "bob"), ErrBusy)
	assert.ErrorIs(t, svc.Accept("carol", "alice"), ErrBusy)
}

func TestRelayForwardsAnonymously(t *testing.T) {
	svc, gw := newTestRelay(t)
	require.NoError(t, svc.Accept("alice", "bob"))

	sentAt := time.Date(2025, 3, 10, 14, 30, 5, 0, time.UTC)
	require.NoError(t, svc.Relay("alice", "hello there", sentAt))

	dm, ok := gw.lastDM("bob")
	require.True(t, ok)
	require.NotNil(t, dm.Embed)
	assert.Equal(t, "hello there", dm.Embed.Description)
	assert.NotContains(t, dm.Embed.Title, "alice")
	assert.Contains(t, dm.Embed.FooterText, "14:30:05")
}

func TestRelayWithoutSession(t *testing.T) {
	svc, _ := newTestRelay(t)
	assert.ErrorIs(t, svc.Relay("alice", "hello", time.Now()), ErrNoSession)
}

func TestRelayDeliveryFailureNotifiesSender(t *testing.T) {
	svc, gw := newTestRelay(t)
	require.NoError(t, svc.Accept("alice", "bob"))

	gw.failDM["bob"] = true
	err := svc.Relay("alice", "hello", time.Now())
	require.Error(t, err)

	dm, ok := gw.lastDM("alice")
	require.True(t, ok)
	assert.Contains(t, dm.Content, "Could not deliver")
}

func TestEndTearsDownAndNotifiesBoth(t *testing.T) {
	svc, gw := newTestRelay(t)
	require.NoError(t, svc.Accept("alice", "bob"))

	require.NoError(t, svc.End("alice"))
	assert.Equal(t, 0, svc.ActiveSessions())

	_, ok := svc.PartnerOf("bob")
	assert.False(t, ok)

	dm, ok := gw.lastDM("bob")
	require.True(t, ok)
	assert.Contains(t, dm.Content, "ended the chat session")

	assert.ErrorIs(t, svc.End("alice"), ErrNoSession)
}

func TestIdleSessionsAreSwept(t *testing.T) {
	svc, gw := newTestRelay(t)

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	current := base
	svc.now = func() time.Time { return current }

	require.NoError(t, svc.Accept("alice", "bob"))

	// Under the idle limit nothing happens.
	current = base.Add(4 * time.Minute)
	svc.sweepIdle()
	assert.Equal(t, 1, svc.ActiveSessions())

	// Activity pushes expiry out.
	require.NoError(t, svc.Relay("alice", "still here", current))
	current = base.Add(8 * time.Minute)
	svc.sweepIdle()
	assert.Equal(t, 1, svc.ActiveSessions())

	current = base.Add(20 * time.Minute)
	svc.sweepIdle()
	assert.Equal(t, 0, svc.ActiveSessions())

	dm, ok := gw.lastDM("alice")
	require.True(t, ok)
	assert.Contains(t, dm.Content, "inactivity")
}
