package models

import (
	"fmt"
	"strings"
	"time"

	"sc-discord-bot/internal/platform/discord"
)

// Statuses shown in the giveaway embed title.
const (
	StatusSetup   = "🛠️ Setup"
	StatusRunning = "🔥 Running"
)

// Component custom ids are "<giveaway id>|<action>" so every interaction
// carries the record id as data and handlers re-fetch current state.
const (
	ActionPlusDay      = "plusday"
	ActionMinusDay     = "minusday"
	ActionSetHour      = "sethour"
	ActionSetReward    = "setreward"
	ActionPlusWinner   = "pluswin"
	ActionMinusWinner  = "minuswin"
	ActionStart        = "start"
	ActionCancel       = "cancel"
	ActionJoin         = "join"
	ActionLeave        = "leave"
	ActionForceEnd     = "forceend"
	ActionParticipants = "participants"
)

func ControlID(giveawayID, action string) string {
	return giveawayID + "|" + action
}

// ParseControlID splits a component custom id into giveaway id and action
// parts. The third part, when present, is the participants page number.
func ParseControlID(customID string) (id string, parts []string, ok bool) {
	fields := strings.Split(customID, "|")
	if len(fields) < 2 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "Processing..."
	}
	total := int(d.Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))
	return strings.Join(parts, " ")
}

// BuildEmbed composes the giveaway display for the given status.
func (g *Giveaway) BuildEmbed(creator *discord.User, status string, now time.Time) *discord.Embed {
	remaining := "Not started"
	if g.EndTime != nil {
		remaining = formatRemaining(g.Remaining(now))
	}

	desc := fmt.Sprintf(
		"**ID:** `%s`\n"+
			"**Reward:** %s\n"+
			"**Winners:** %d\n"+
			"**Ends:** in %d day(s), at %02d:%02d\n"+
			"**Participants:** %d\n"+
			"**Time left:** %s",
		g.ID, g.Reward, g.NumWinners, g.Days, g.Hour, g.Minute, len(g.Users), remaining,
	)

	embed := &discord.Embed{
		Title:       "🎉 Giveaway · " + status,
		Description: desc,
		Color:       discord.ColorBlurple,
		Timestamp:   now,
	}
	if creator != nil {
		embed.FooterText = "Created by " + creator.DisplayName()
		embed.FooterIconURL = creator.AvatarURL
		embed.ThumbnailURL = creator.AvatarURL
	}
	return embed
}

// SetupRows returns the configuration controls shown while in setup.
func (g *Giveaway) SetupRows() [][]discord.Button {
	return [][]discord.Button{
		{
			{Label: "+Day", Style: discord.ButtonSuccess, CustomID: ControlID(g.ID, ActionPlusDay)},
			{Label: "-Day", Style: discord.ButtonDanger, CustomID: ControlID(g.ID, ActionMinusDay)},
			{Label: "⏰ Set time", Style: discord.ButtonPrimary, CustomID: ControlID(g.ID, ActionSetHour)},
		},
		{
			{Label: "🎁 Set reward", Style: discord.ButtonSecondary, CustomID: ControlID(g.ID, ActionSetReward)},
			{Label: "+Winner", Style: discord.ButtonSuccess, CustomID: ControlID(g.ID, ActionPlusWinner)},
			{Label: "-Winner", Style: discord.ButtonDanger, CustomID: ControlID(g.ID, ActionMinusWinner)},
		},
		{
			{Label: "🚀 Start giveaway", Style: discord.ButtonSuccess, CustomID: ControlID(g.ID, ActionStart)},
			{Label: "❌ Cancel giveaway", Style: discord.ButtonDanger, CustomID: ControlID(g.ID, ActionCancel)},
		},
	}
}

// JoinRows returns the participation controls shown while running.
func (g *Giveaway) JoinRows() [][]discord.Button {
	return [][]discord.Button{
		{
			{Label: "🎉 Join", Style: discord.ButtonSuccess, CustomID: ControlID(g.ID, ActionJoin)},
			{Label: "🚪 Leave", Style: discord.ButtonDanger, CustomID: ControlID(g.ID, ActionLeave)},
			{Label: "🛑 End (creator only)", Style: discord.ButtonSecondary, CustomID: ControlID(g.ID, ActionForceEnd)},
		},
	}
}

// Render composes the full message for the giveaway's current state.
func (g *Giveaway) Render(creator *discord.User, now time.Time) discord.Render {
	if g.Running() {
		return discord.Render{
			Embed: g.BuildEmbed(creator, StatusRunning, now),
			Rows:  g.JoinRows(),
		}
	}
	return discord.Render{
		Embed: g.BuildEmbed(creator, StatusSetup, now),
		Rows:  g.SetupRows(),
	}
}

// CancelledRender is the replacement message after cancellation.
func CancelledRender(now time.Time) discord.Render {
	return discord.Render{
		Embed: &discord.Embed{
			Title:     "❌ Giveaway cancelled",
			Color:     discord.ColorRed,
			Timestamp: now,
		},
		ClearRows: true,
	}
}

// EndedRender is the replacement message after winners are drawn.
func (g *Giveaway) EndedRender(mentions string, now time.Time) discord.Render {
	return discord.Render{
		Embed: &discord.Embed{
			Title:       "🎊 Giveaway ended",
			Description: fmt.Sprintf("**Reward:** %s\n**Winners:** %s", g.Reward, mentions),
			Color:       discord.ColorGold,
			Timestamp:   now,
		},
		ClearRows: true,
	}
}

// WinnerDMRender is the congratulation message sent to each winner.
func (g *Giveaway) WinnerDMRender(winner, creator *discord.User, now time.Time) discord.Render {
	embed := &discord.Embed{
		Title:       "🎉 Congratulations! You won a giveaway",
		Description: fmt.Sprintf("**Reward:** %s\n**Giveaway ID:** `%s`", g.Reward, g.ID),
		Color:       discord.ColorGreen,
		Timestamp:   now,
	}
	if winner != nil {
		embed.ThumbnailURL = winner.AvatarURL
	}
	if creator != nil {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name: "Created by", Value: creator.DisplayName(), Inline: true,
		})
		embed.FooterText = "Created by " + creator.DisplayName()
		embed.FooterIconURL = creator.AvatarURL
	}
	return discord.Render{Embed: embed}
}

// ParticipantsRender composes one page of the participant list with paging
// buttons carrying the target page in the custom id.
func (g *Giveaway) ParticipantsRender(page Page, creator *discord.User, now time.Time) discord.Render {
	var lines []string
	offset := (page.Number - 1) * PageSize
	for i, uid := range page.Users {
		lines = append(lines, fmt.Sprintf("%d. <@%s> (`%s`)", offset+i+1, uid, uid))
	}
	desc := "No participants."
	if len(lines) > 0 {
		desc = strings.Join(lines, "\n")
	}

	embed := &discord.Embed{
		Title:       fmt.Sprintf("📋 Participants · %s (page %d/%d)", g.ID, page.Number, page.Total),
		Description: desc,
		Color:       discord.ColorBlurple,
		Timestamp:   now,
	}
	if creator != nil {
		embed.FooterText = "Created by " + creator.DisplayName()
		embed.FooterIconURL = creator.AvatarURL
	}

	var row []discord.Button
	if page.HasPrev {
		row = append(row, discord.Button{
			Label:    "◀ Prev",
			Style:    discord.ButtonSecondary,
			CustomID: fmt.Sprintf("%s|%s|%d", g.ID, ActionParticipants, page.Number-1),
		})
	}
	if page.HasNext {
		row = append(row, discord.Button{
			Label:    "Next ▶",
			Style:    discord.ButtonSecondary,
			CustomID: fmt.Sprintf("%s|%s|%d", g.ID, ActionParticipants, page.Number+1),
		})
	}

	r := discord.Render{Embed: embed}
	if len(row) > 0 {
		r.Rows = [][]discord.Button{row}
	}
	return r
}

// NoWinnersContent is the channel notice when a giveaway expires without
// participants.
func (g *Giveaway) NoWinnersContent() string {
	return fmt.Sprintf("❌ Giveaway `%s` ended with no participants.", g.ID)
}
