// Package discord wires the anonymous chat commands and the DM relay.
package discord

import (
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"

	"sc-discord-bot/internal/common/logger"
	"sc-discord-bot/internal/features/relay/service"
	platform "sc-discord-bot/internal/platform/discord"
)

type Handler struct {
	svc *service.RelayService
}

func NewHandler(svc *service.RelayService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "scchat",
			Description: "Connect anonymously with another user",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Who to chat with anonymously",
					Required:    true,
				},
			},
		},
		{
			Name:        "endcall",
			Description: "End your anonymous chat session",
		},
	}
}

func (h *Handler) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "scchat":
		h.invite(s, i)
		return true
	case "endcall":
		h.end(s, i)
		return true
	}
	return false
}

func (h *Handler) invite(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		h.reply(s, i, "❌ This command only works inside a server.")
		return
	}

	target := i.ApplicationCommandData().Options[0].UserValue(s)
	if target == nil {
		h.reply(s, i, "❌ Unknown user.")
		return
	}
	if target.Bot {
		h.reply(s, i, "❌ You cannot chat with a bot.")
		return
	}

	actorID := platform.InteractionUserID(i)
	switch err := h.svc.Invite(actorID, target.ID); {
	case err == nil:
		h.reply(s, i, "✅ Request sent to <@"+target.ID+">")
	case errors.Is(err, service.ErrBusy):
		h.reply(s, i, "⚠️ One of you already has an open chat session.")
	case errors.Is(err, service.ErrSelfChat):
		h.reply(s, i, "❌ You cannot chat with yourself.")
	default:
		h.reply(s, i, "❌ Could not send a DM to this user.")
	}
}

func (h *Handler) end(s *discordgo.Session, i *discordgo.InteractionCreate) {
	actorID := platform.InteractionUserID(i)
	switch err := h.svc.End(actorID); {
	case err == nil:
		h.reply(s, i, "✅ Chat session ended.")
	case errors.Is(err, service.ErrNoSession):
		h.reply(s, i, "❌ You have no open chat session.")
	default:
		h.reply(s, i, platform.ErrorContent(err))
	}
}

// HandleComponent answers the invite's accept/decline buttons. The custom
// id is "relay|<verb>|<inviter id>"; the clicking user is the invitee.
func (h *Handler) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	customID := i.MessageComponentData().CustomID
	parts := strings.Split(customID, "|")
	if len(parts) != 3 || parts[0] != "relay" {
		return false
	}

	inviterID := parts[2]
	actorID := platform.InteractionUserID(i)

	switch parts[1] {
	case "accept":
		if err := h.svc.Accept(inviterID, actorID); err != nil {
			h.update(s, i, "⚠️ Could not open the session, someone is already in a chat.")
			return true
		}
		h.update(s, i, "✅ You accepted!")
	case "decline":
		h.svc.Decline(inviterID)
		h.update(s, i, "You declined.")
	default:
		return false
	}
	return true
}

// HandleMessage relays direct messages between paired users.
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID != "" {
		return
	}

	content := m.Content
	// Forward attachments by URL; the partner still never learns who sent
	// them.
	for _, a := range m.Attachments {
		if content != "" {
			content += "\n"
		}
		content += a.URL
	}
	if content == "" {
		return
	}

	if err := h.svc.Relay(m.Author.ID, content, m.Timestamp); err != nil && !errors.Is(err, service.ErrNoSession) {
		logger.Warn().Err(err).Str("user_id", m.Author.ID).Msg("relay failed")
	}
}

// update edits the invite message in place, dropping its buttons.
func (h *Handler) update(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to update invite message")
	}
}

func (h *Handler) reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if err := platform.RespondEphemeral(s, i, content); err != nil {
		logger.Warn().Err(err).Msg("failed to respond to interaction")
	}
}
