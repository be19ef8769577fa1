package discord

import "time"

// Colors used across the bot's embeds.
const (
	ColorBlurple = 0x5865F2
	ColorGold    = 0xFFD700
	ColorGreen   = 0x57F287
	ColorRed     = 0xED4245
	ColorPurple  = 0x9B59B6
	ColorBlue    = 0x3498DB
)

type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

type Embed struct {
	Title         string
	Description   string
	Color         int
	Fields        []EmbedField
	FooterText    string
	FooterIconURL string
	ThumbnailURL  string
	Timestamp     time.Time
}

type Button struct {
	Label    string
	Emoji    string
	Style    ButtonStyle
	CustomID string
}

// Render is the transport-neutral message representation the core hands to
// the gateway: optional plain content, optional embed, button rows.
type Render struct {
	Content string
	Embed   *Embed
	Rows    [][]Button
	// ClearRows removes all components on edit even when Rows is empty.
	ClearRows bool
}

// User is the subset of account data the core cares about.
type User struct {
	ID        string
	Username  string
	AvatarURL string
	Bot       bool
}

func (u *User) DisplayName() string {
	if u == nil {
		return "unknown"
	}
	return u.Username
}
