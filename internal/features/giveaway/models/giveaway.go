package models

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	// DefaultReward is the placeholder shown until the creator sets one.
	DefaultReward = "Not set yet"

	DefaultDays = 1
	DefaultHour = 18
)

// Giveaway is the sole persisted entity. A record without an end time is in
// setup; a record with one is running. Ended and cancelled giveaways exist
// only as the record's absence from the store.
type Giveaway struct {
	ID         string     `json:"id"`
	CreatorID  string     `json:"creator_id"`
	Reward     string     `json:"reward"`
	Days       int        `json:"days"`
	Hour       int        `json:"hour"`
	Minute     int        `json:"minute"`
	NumWinners int        `json:"num_winners"`
	Users      []string   `json:"users"`
	ChannelID  string     `json:"channel_id,omitempty"`
	MessageID  string     `json:"message_id,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`
}

// New returns a fresh setup-state giveaway for the given creator. The id is
// assigned by the caller after a store collision check.
func New(id, creatorID string) *Giveaway {
	return &Giveaway{
		ID:         id,
		CreatorID:  creatorID,
		Reward:     DefaultReward,
		Days:       DefaultDays,
		Hour:       DefaultHour,
		Minute:     0,
		NumWinners: 1,
		Users:      []string{},
	}
}

// GenerateID produces a candidate id in the G-NNNN format. Uniqueness is
// enforced by the caller against live store keys.
func GenerateID() string {
	return fmt.Sprintf("G-%04d", rand.Intn(10000))
}

// Running reports whether the giveaway has an active countdown.
func (g *Giveaway) Running() bool {
	return g.EndTime != nil
}

// Remaining returns the time left until expiry. Non-positive means expired.
func (g *Giveaway) Remaining(now time.Time) time.Duration {
	if g.EndTime == nil {
		return 0
	}
	return g.EndTime.Sub(now)
}

// AdjustDays shifts the scheduled day count, clamping at zero.
func (g *Giveaway) AdjustDays(delta int) {
	g.Days += delta
	if g.Days < 0 {
		g.Days = 0
	}
}

// AdjustWinners shifts the winner count, clamping at one.
func (g *Giveaway) AdjustWinners(delta int) {
	g.NumWinners += delta
	if g.NumWinners < 1 {
		g.NumWinners = 1
	}
}

// SetTimeOfDay sets the scheduled end time-of-day.
func (g *Giveaway) SetTimeOfDay(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("time of day out of range: %02d:%02d", hour, minute)
	}
	g.Hour = hour
	g.Minute = minute
	return nil
}

// ComputeEndTime resolves the scheduled (days, hour, minute) into an
// absolute end time: now + days, clamped to the configured time-of-day.
// When the result has already passed (days=0 and the time-of-day elapsed
// today), it rolls forward to the next occurrence.
func (g *Giveaway) ComputeEndTime(now time.Time) time.Time {
	et := now.AddDate(0, 0, g.Days)
	et = time.Date(et.Year(), et.Month(), et.Day(), g.Hour, g.Minute, 0, 0, now.Location())
	if !et.After(now) {
		et = et.AddDate(0, 0, 1)
	}
	return et
}

// AddUser appends a participant. Returns false when already joined.
func (g *Giveaway) AddUser(userID string) bool {
	for _, u := range g.Users {
		if u == userID {
			return false
		}
	}
	g.Users = append(g.Users, userID)
	return true
}

// RemoveUser removes a participant. Returns false when not joined.
func (g *Giveaway) RemoveUser(userID string) bool {
	for i, u := range g.Users {
		if u == userID {
			g.Users = append(g.Users[:i], g.Users[i+1:]...)
			return true
		}
	}
	return false
}

// HasUser reports participant membership.
func (g *Giveaway) HasUser(userID string) bool {
	for _, u := range g.Users {
		if u == userID {
			return true
		}
	}
	return false
}
