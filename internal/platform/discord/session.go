package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"sc-discord-bot/internal/common/apperrors"
)

// Session implements Gateway on top of a discordgo session.
type Session struct {
	dg *discordgo.Session
}

func NewSession(token string) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	return &Session{dg: dg}, nil
}

// Raw exposes the underlying discordgo session for handler registration
// and interaction responses in the delivery layer.
func (s *Session) Raw() *discordgo.Session {
	return s.dg
}

func (s *Session) Open() error {
	return s.dg.Open()
}

func (s *Session) Close() error {
	return s.dg.Close()
}

func (s *Session) SendMessage(channelID string, r Render) (string, error) {
	msg, err := s.dg.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    r.Content,
		Embeds:     toEmbeds(r.Embed),
		Components: toComponents(r.Rows),
	})
	if err != nil {
		return "", apperrors.NewDelivery("send message", err).WithContext("channel_id", channelID)
	}
	return msg.ID, nil
}

func (s *Session) EditMessage(channelID, messageID string, r Render) error {
	embeds := toEmbeds(r.Embed)
	components := toComponents(r.Rows)
	if components == nil && r.ClearRows {
		components = []discordgo.MessageComponent{}
	}
	edit := discordgo.NewMessageEdit(channelID, messageID)
	if r.Content != "" {
		edit.SetContent(r.Content)
	}
	edit.Embeds = &embeds
	if components != nil {
		edit.Components = &components
	}
	if _, err := s.dg.ChannelMessageEditComplex(edit); err != nil {
		return apperrors.NewDelivery("edit message", err).WithContext("message_id", messageID)
	}
	return nil
}

func (s *Session) SendDM(userID string, r Render) error {
	ch, err := s.dg.UserChannelCreate(userID)
	if err != nil {
		return apperrors.NewDelivery("open dm channel", err).WithContext("user_id", userID)
	}
	if _, err := s.dg.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
		Content:    r.Content,
		Embeds:     toEmbeds(r.Embed),
		Components: toComponents(r.Rows),
	}); err != nil {
		return apperrors.NewDelivery("send dm", err).WithContext("user_id", userID)
	}
	return nil
}

func (s *Session) FetchUser(userID string) (*User, error) {
	u, err := s.dg.User(userID)
	if err != nil {
		return nil, apperrors.NewDelivery("fetch user", err).WithContext("user_id", userID)
	}
	return &User{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL(""),
		Bot:       u.Bot,
	}, nil
}

func (s *Session) Kick(guildID, userID, reason string) error {
	if err := s.dg.GuildMemberDeleteWithReason(guildID, userID, reason); err != nil {
		return apperrors.NewDelivery("kick member", err).WithContext("user_id", userID)
	}
	return nil
}

func (s *Session) Ban(guildID, userID, reason string) error {
	if err := s.dg.GuildBanCreateWithReason(guildID, userID, reason, 0); err != nil {
		return apperrors.NewDelivery("ban member", err).WithContext("user_id", userID)
	}
	return nil
}

func (s *Session) Timeout(guildID, userID string, until time.Time, reason string) error {
	if err := s.dg.GuildMemberTimeout(guildID, userID, &until); err != nil {
		return apperrors.NewDelivery("timeout member", err).WithContext("user_id", userID)
	}
	return nil
}

func toEmbeds(e *Embed) []*discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if !e.Timestamp.IsZero() {
		out.Timestamp = e.Timestamp.Format(time.RFC3339)
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if e.FooterText != "" {
		out.Footer = &discordgo.MessageEmbedFooter{
			Text:    e.FooterText,
			IconURL: e.FooterIconURL,
		}
	}
	if e.ThumbnailURL != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.ThumbnailURL}
	}
	return []*discordgo.MessageEmbed{out}
}

func toComponents(rows [][]Button) []discordgo.MessageComponent {
	if len(rows) == 0 {
		return nil
	}
	var out []discordgo.MessageComponent
	for _, row := range rows {
		ar := discordgo.ActionsRow{}
		for _, b := range row {
			btn := discordgo.Button{
				Label:    b.Label,
				Style:    toStyle(b.Style),
				CustomID: b.CustomID,
			}
			if b.Emoji != "" {
				btn.Emoji = &discordgo.ComponentEmoji{Name: b.Emoji}
			}
			ar.Components = append(ar.Components, btn)
		}
		out = append(out, ar)
	}
	return out
}

func toStyle(s ButtonStyle) discordgo.ButtonStyle {
	switch s {
	case ButtonSecondary:
		return discordgo.SecondaryButton
	case ButtonSuccess:
		return discordgo.SuccessButton
	case ButtonDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}
