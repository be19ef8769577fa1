// Package service manages anonymous chat sessions: invite, accept, relay,
// teardown, and an idle sweeper. Sessions are in-memory only; a restart
// simply drops them.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"sc-discord-bot/internal/common/logger"
	"sc-discord-bot/internal/platform/discord"
)

var (
	ErrBusy      = errors.New("a chat session already exists for one of the users")
	ErrNoSession = errors.New("no active chat session")
	ErrSelfChat  = errors.New("cannot open a chat session with yourself")
)

// session pairs two users. LastActivity drives idle expiry.
type session struct {
	id           string
	a, b         string
	lastActivity time.Time
}

func (s *session) partnerOf(userID string) string {
	if s.a == userID {
		return s.b
	}
	return s.a
}

type RelayService struct {
	gateway     discord.Gateway
	idleTimeout time.Duration
	sweepEvery  time.Duration

	mu       sync.Mutex
	byUser   map[string]*session
	sessions map[string]*session

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

func NewRelayService(gateway discord.Gateway, idleTimeout, sweepInterval time.Duration) *RelayService {
	ctx, cancel := context.WithCancel(context.Background())
	return &RelayService{
		gateway:     gateway,
		idleTimeout: idleTimeout,
		sweepEvery:  sweepInterval,
		byUser:      make(map[string]*session),
		sessions:    make(map[string]*session),
		ctx:         ctx,
		cancel:      cancel,
		now:         time.Now,
	}
}

// Start launches the idle-session sweeper.
func (s *RelayService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweepIdle()
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

func (s *RelayService) Stop() {
	s.cancel()
	s.wg.Wait()
}

// InviteRender is the DM asking the target to accept an anonymous chat.
// The buttons carry the inviter id as data.
func InviteRender(senderID string) discord.Render {
	return discord.Render{
		Embed: &discord.Embed{
			Title:       "📩 Anonymous chat request",
			Description: "Do you want to receive anonymous messages?\n\nUse **`/endcall`** to end the conversation.",
			Color:       discord.ColorBlue,
		},
		Rows: [][]discord.Button{{
			{Label: "Accept ✅", Style: discord.ButtonSuccess, CustomID: "relay|accept|" + senderID},
			{Label: "Decline ❌", Style: discord.ButtonDanger, CustomID: "relay|decline|" + senderID},
		}},
	}
}

// Invite sends a chat request DM to the target user.
func (s *RelayService) Invite(senderID, targetID string) error {
	if senderID == targetID {
		return ErrSelfChat
	}

	s.mu.Lock()
	_, senderBusy := s.byUser[senderID]
	_, targetBusy := s.byUser[targetID]
	s.mu.Unlock()
	if senderBusy || targetBusy {
		return ErrBusy
	}

	return s.gateway.SendDM(targetID, InviteRender(senderID))
}

// Accept pairs the two users. Called when the invited user accepts.
func (s *RelayService) Accept(senderID, receiverID string) error {
	s.mu.Lock()
	if _, busy := s.byUser[senderID]; busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if _, busy := s.byUser[receiverID]; busy {
		s.mu.Unlock()
		return ErrBusy
	}
	sess := &session{
		id:           uuid.New().String(),
		a:            senderID,
		b:            receiverID,
		lastActivity: s.now(),
	}
	s.sessions[sess.id] = sess
	s.byUser[senderID] = sess
	s.byUser[receiverID] = sess
	s.mu.Unlock()

	notice := discord.Render{Content: "🔗 You are connected! Send messages through the bot."}
	for _, uid := range []string{senderID, receiverID} {
		if err := s.gateway.SendDM(uid, notice); err != nil {
			logger.Warn().Err(err).Str("user_id", uid).Msg("failed to send connect notice")
		}
	}

	logger.Info().Str("session_id", sess.id).Msg("chat session opened")
	return nil
}

// Decline notifies the inviter that the request was refused.
func (s *RelayService) Decline(senderID string) {
	if err := s.gateway.SendDM(senderID, discord.Render{Content: "❌ The other user declined the connection."}); err != nil {
		logger.Warn().Err(err).Str("user_id", senderID).Msg("failed to send decline notice")
	}
}

// End tears down the caller's session and notifies both sides.
func (s *RelayService) End(userID string) error {
	sess, ok := s.remove(userID)
	if !ok {
		return ErrNoSession
	}

	partnerID := sess.partnerOf(userID)
	if err := s.gateway.SendDM(partnerID, discord.Render{Content: "⚠️ The other user ended the chat session."}); err != nil {
		logger.Warn().Err(err).Str("user_id", partnerID).Msg("failed to send end notice")
	}
	if err := s.gateway.SendDM(userID, discord.Render{Content: "⚠️ You ended the chat session."}); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("failed to send end notice")
	}

	logger.Info().Str("session_id", sess.id).Msg("chat session closed")
	return nil
}

// PartnerOf reports the caller's current chat partner.
func (s *RelayService) PartnerOf(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byUser[userID]
	if !ok {
		return "", false
	}
	return sess.partnerOf(userID), true
}

// Relay forwards a DM from a session member to their partner, anonymized.
func (s *RelayService) Relay(senderID, content string, sentAt time.Time) error {
	s.mu.Lock()
	sess, ok := s.byUser[senderID]
	if ok {
		sess.lastActivity = s.now()
	}
	s.mu.Unlock()
	if !ok {
		return ErrNoSession
	}

	partnerID := sess.partnerOf(senderID)
	r := discord.Render{
		Embed: &discord.Embed{
			Title:       "💬 Anonymous message",
			Description: content,
			Color:       discord.ColorBlurple,
			FooterText:  "⏰ " + sentAt.Format("15:04:05 - 02/01/2006"),
		},
	}
	if err := s.gateway.SendDM(partnerID, r); err != nil {
		// Tell the sender their message did not get through.
		_ = s.gateway.SendDM(senderID, discord.Render{Content: "❌ Could not deliver the message to the other user."})
		return err
	}
	return nil
}

// remove unlinks the session of userID and returns it.
func (s *RelayService) remove(userID string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byUser[userID]
	if !ok {
		return nil, false
	}
	delete(s.byUser, sess.a)
	delete(s.byUser, sess.b)
	delete(s.sessions, sess.id)
	return sess, true
}

// sweepIdle expires sessions without activity for longer than idleTimeout
// and notifies both sides.
func (s *RelayService) sweepIdle() {
	now := s.now()

	s.mu.Lock()
	var expired []*session
	for _, sess := range s.sessions {
		if now.Sub(sess.lastActivity) > s.idleTimeout {
			expired = append(expired, sess)
		}
	}
	for _, sess := range expired {
		delete(s.byUser, sess.a)
		delete(s.byUser, sess.b)
		delete(s.sessions, sess.id)
	}
	s.mu.Unlock()

	for _, sess := range expired {
		notice := discord.Render{
			Content: fmt.Sprintf("⏰ The chat session ended after %s of inactivity.", s.idleTimeout),
		}
		for _, uid := range []string{sess.a, sess.b} {
			if err := s.gateway.SendDM(uid, notice); err != nil {
				logger.Warn().Err(err).Str("user_id", uid).Msg("failed to send expiry notice")
			}
		}
		logger.Info().Str("session_id", sess.id).Msg("chat session expired")
	}
}

// ActiveSessions reports how many sessions are open.
func (s *RelayService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
