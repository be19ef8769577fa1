// Package discord renders the help menu. Members get a single page; the
// bot owner gets a second admin page behind prev/next buttons.
package discord

import (
	"github.com/bwmarrin/discordgo"

	"sc-discord-bot/internal/common/logger"
	platform "sc-discord-bot/internal/platform/discord"
)

type Handler struct {
	ownerID string
}

func NewHandler(ownerID string) *Handler {
	return &Handler{ownerID: ownerID}
}

func (h *Handler) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "schelp",
			Description: "Show how to use the bot",
		},
	}
}

func memberEmbed(botAvatarURL, requester string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "📖 Bot guide: Members",
		Color:     platform.ColorGold,
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: botAvatarURL},
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "💬 Anonymous chat",
				Value: "`/scchat <user>` - Send an anonymous chat invite\n" +
					"`/endcall` - End your chat session",
			},
			{
				Name: "🎉 Giveaways",
				Value: "`/scgiveaway` - Create a giveaway and open its setup menu\n" +
					"`/scgiveawaycheck <ID>` - Show a giveaway's participant list",
			},
			{
				Name: "🔎 User check",
				Value: "`/sccheck [user]` - Show a user's basic info\n" +
					"*(moderators also get kick/ban/timeout controls)*",
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Requested by " + requester},
	}
}

func adminEmbed(botAvatarURL string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "🛡 Bot guide: Owner",
		Color:     platform.ColorRed,
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: botAvatarURL},
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "🔧 Owner commands",
				Value: "`/scsetting on|off` - Toggle restrict mode\n" +
					"`/scaddtick <user>` / `/scremovetick <user>` - Manage verified users\n" +
					"`/scchecktick` - List verified users",
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Only the bot owner sees this page"},
	}
}

func pagerRow() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "◀️", Style: discordgo.SecondaryButton, CustomID: "help|member"},
			discordgo.Button{Label: "▶️", Style: discordgo.SecondaryButton, CustomID: "help|admin"},
		}},
	}
}

func (h *Handler) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.ApplicationCommandData().Name != "schelp" {
		return false
	}

	botAvatar := ""
	if s.State != nil && s.State.User != nil {
		botAvatar = s.State.User.AvatarURL("")
	}
	requester := platform.InteractionUserID(i)
	embed := memberEmbed(botAvatar, "<@"+requester+">")

	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if h.ownerID != "" && requester == h.ownerID {
		data.Components = pagerRow()
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to send help menu")
	}
	return true
}

func (h *Handler) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	customID := i.MessageComponentData().CustomID
	if customID != "help|member" && customID != "help|admin" {
		return false
	}

	actorID := platform.InteractionUserID(i)
	if h.ownerID == "" || actorID != h.ownerID {
		if err := platform.RespondEphemeral(s, i, "❌ Only the bot owner can switch pages."); err != nil {
			logger.Warn().Err(err).Msg("failed to respond to help pager")
		}
		return true
	}

	botAvatar := ""
	if s.State != nil && s.State.User != nil {
		botAvatar = s.State.User.AvatarURL("")
	}
	embed := memberEmbed(botAvatar, "<@"+actorID+">")
	if customID == "help|admin" {
		embed = adminEmbed(botAvatar)
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: pagerRow(),
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to update help page")
	}
	return true
}
