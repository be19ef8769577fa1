// Package discord wires the moderation commands: the user info card with
// kick/ban/timeout buttons, restrict mode, and the verified-user list.
package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"sc-discord-bot/internal/common/logger"
	"sc-discord-bot/internal/features/moderation/service"
	platform "sc-discord-bot/internal/platform/discord"
)

const (
	modalPrefixMute = "modmute|"
	modalInputMins  = "minutes"
)

type Handler struct {
	svc *service.ModerationService
}

func NewHandler(svc *service.ModerationService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Commands() []*discordgo.ApplicationCommand {
	userOption := func(desc string, required bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: desc,
			Required:    required,
		}
	}
	return []*discordgo.ApplicationCommand{
		{
			Name:        "sccheck",
			Description: "Show a user's info card with moderation controls",
			Options:     []*discordgo.ApplicationCommandOption{userOption("User to inspect (defaults to you)", false)},
		},
		{
			Name:        "scsetting",
			Description: "Toggle restrict mode (owner only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "on or off; empty shows the current state",
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "on", Value: "on"},
						{Name: "off", Value: "off"},
					},
				},
			},
		},
		{
			Name:        "scaddtick",
			Description: "Add a user to the verified list",
			Options:     []*discordgo.ApplicationCommandOption{userOption("User to verify", true)},
		},
		{
			Name:        "scremovetick",
			Description: "Remove a user from the verified list",
			Options:     []*discordgo.ApplicationCommandOption{userOption("User to unverify", true)},
		},
		{
			Name:        "scchecktick",
			Description: "List verified users",
		},
	}
}

func (h *Handler) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "sccheck":
		h.check(s, i)
	case "scsetting":
		h.setting(s, i)
	case "scaddtick":
		h.addVerified(s, i)
	case "scremovetick":
		h.removeVerified(s, i)
	case "scchecktick":
		h.listVerified(s, i)
	default:
		return false
	}
	return true
}

func (h *Handler) check(s *discordgo.Session, i *discordgo.InteractionCreate) {
	actorID := platform.InteractionUserID(i)
	if h.svc.RestrictMode() && !h.svc.IsOwner(actorID) {
		h.reply(s, i, "❌ Restrict mode is on; only the owner can use this command.")
		return
	}

	target := i.ApplicationCommandData().Options
	targetID := actorID
	if len(target) > 0 {
		targetID = target[0].UserValue(s).ID
	}

	user, err := s.User(targetID)
	if err != nil {
		h.reply(s, i, "❌ Could not fetch that user.")
		return
	}

	tick := ""
	if h.svc.IsVerified(targetID) {
		tick = " ✅"
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Info for %s%s", user.Username, tick),
		Color: platform.ColorPurple,
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: user.AvatarURL(""),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👤 Username", Value: fmt.Sprintf("%s (%s)", user.Username, user.ID)},
		},
	}
	if created, err := discordgo.SnowflakeTimestamp(user.ID); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "📅 Joined Discord", Value: fmt.Sprintf("<t:%d:F>", created.Unix()),
		})
	}
	if i.GuildID != "" {
		if member, err := s.GuildMember(i.GuildID, targetID); err == nil {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "📌 Joined server", Value: fmt.Sprintf("<t:%d:F>", member.JoinedAt.Unix()),
			})
			roles := "No roles"
			if len(member.Roles) > 0 {
				var mentions []string
				for _, rid := range member.Roles {
					mentions = append(mentions, "<@&"+rid+">")
				}
				roles = strings.Join(mentions, " ")
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "🎭 Roles", Value: roles,
			})
		}
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "⚠️ Kick", Style: discordgo.DangerButton, CustomID: "mod|kick|" + targetID},
			discordgo.Button{Label: "⛔ Ban", Style: discordgo.DangerButton, CustomID: "mod|ban|" + targetID},
			discordgo.Button{Label: "🔇 Timeout", Style: discordgo.SecondaryButton, CustomID: "mod|mute|" + targetID},
		}},
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to send user info card")
	}
}

func (h *Handler) setting(s *discordgo.Session, i *discordgo.InteractionCreate) {
	actorID := platform.InteractionUserID(i)
	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 {
		state := "OFF"
		if h.svc.RestrictMode() {
			state = "ON"
		}
		h.reply(s, i, "⚙️ Restrict mode is currently: "+state)
		return
	}

	on := opts[0].StringValue() == "on"
	if err := h.svc.SetRestrictMode(actorID, on); err != nil {
		h.reply(s, i, platform.ErrorContent(err))
		return
	}
	if on {
		h.reply(s, i, "✅ Restrict mode enabled; only the owner can use moderation commands.")
	} else {
		h.reply(s, i, "✅ Restrict mode disabled.")
	}
}

func (h *Handler) addVerified(s *discordgo.Session, i *discordgo.InteractionCreate) {
	actorID := platform.InteractionUserID(i)
	userID := i.ApplicationCommandData().Options[0].UserValue(s).ID

	added, err := h.svc.AddVerified(actorID, userID)
	if err != nil {
		h.reply(s, i, platform.ErrorContent(err))
		return
	}
	if !added {
		h.reply(s, i, "⚠️ <@"+userID+"> is already verified.")
		return
	}
	h.reply(s, i, "✅ Added <@"+userID+"> to verified users.")
}

func (h *Handler) removeVerified(s *discordgo.Session, i *discordgo.InteractionCreate) {
	actorID := platform.InteractionUserID(i)
	userID := i.ApplicationCommandData().Options[0].UserValue(s).ID

	removed, err := h.svc.RemoveVerified(actorID, userID)
	if err != nil {
		h.reply(s, i, platform.ErrorContent(err))
		return
	}
	if !removed {
		h.reply(s, i, "⚠️ <@"+userID+"> is not on the verified list.")
		return
	}
	h.reply(s, i, "🗑️ Removed <@"+userID+"> from verified users.")
}

func (h *Handler) listVerified(s *discordgo.Session, i *discordgo.InteractionCreate) {
	actorID := platform.InteractionUserID(i)
	if !h.svc.IsModerator(actorID) {
		h.reply(s, i, "❌ Only moderators can view the verified list.")
		return
	}

	users := h.svc.VerifiedUsers()
	if len(users) == 0 {
		h.reply(s, i, "📭 No verified users yet.")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "📋 Verified users",
		Color: platform.ColorGreen,
	}
	for _, uid := range users {
		name := uid
		if user, err := s.User(uid); err == nil {
			name = user.Username
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  name,
			Value: "✅ <@" + uid + ">",
		})
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to send verified list")
	}
}

// HandleComponent answers the info card's kick/ban/timeout buttons. Custom
// id is "mod|<verb>|<target user id>".
func (h *Handler) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	customID := i.MessageComponentData().CustomID
	parts := strings.Split(customID, "|")
	if len(parts) != 3 || parts[0] != "mod" {
		return false
	}

	actorID := platform.InteractionUserID(i)
	targetID := parts[2]

	switch parts[1] {
	case "kick":
		if err := h.svc.Kick(actorID, i.GuildID, targetID); err != nil {
			h.reply(s, i, platform.ErrorContent(err))
		} else {
			h.reply(s, i, "✅ <@"+targetID+"> was kicked.")
		}
	case "ban":
		if err := h.svc.Ban(actorID, i.GuildID, targetID); err != nil {
			h.reply(s, i, platform.ErrorContent(err))
		} else {
			h.reply(s, i, "✅ <@"+targetID+"> was banned.")
		}
	case "mute":
		if !h.svc.IsModerator(actorID) {
			h.reply(s, i, "❌ Only moderators can time out members.")
			return true
		}
		err := platform.RespondModal(s, i, modalPrefixMute+targetID, "🔇 Timeout duration", []platform.ModalInput{
			{CustomID: modalInputMins, Label: "Minutes", Placeholder: "e.g. 10", MaxLength: 5},
		})
		if err != nil {
			logger.Warn().Err(err).Msg("failed to open timeout modal")
		}
	default:
		return false
	}
	return true
}

// HandleModal applies the timeout entered in the duration modal.
func (h *Handler) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	data := i.ModalSubmitData()
	if !strings.HasPrefix(data.CustomID, modalPrefixMute) {
		return false
	}

	targetID := strings.TrimPrefix(data.CustomID, modalPrefixMute)
	actorID := platform.InteractionUserID(i)

	minutes, err := strconv.Atoi(strings.TrimSpace(platform.ModalValue(data, modalInputMins)))
	if err != nil {
		h.reply(s, i, "❌ Enter the duration as a whole number of minutes.")
		return true
	}

	if err := h.svc.Timeout(actorID, i.GuildID, targetID, minutes); err != nil {
		h.reply(s, i, platform.ErrorContent(err))
		return true
	}
	h.reply(s, i, fmt.Sprintf("✅ <@%s> was restricted for %d minute(s).", targetID, minutes))
	return true
}

func (h *Handler) reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if err := platform.RespondEphemeral(s, i, content); err != nil {
		logger.Warn().Err(err).Msg("failed to respond to interaction")
	}
}
