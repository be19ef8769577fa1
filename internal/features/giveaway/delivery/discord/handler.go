// Package discord wires giveaway slash commands, buttons and modals to the
// lifecycle service. Every control id carries the giveaway id as data; the
// handler never holds a record between interactions.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"sc-discord-bot/internal/common/logger"
	"sc-discord-bot/internal/features/giveaway/models"
	"sc-discord-bot/internal/features/giveaway/service"
	platform "sc-discord-bot/internal/platform/discord"
)

const (
	modalPrefixHour   = "gwhour|"
	modalPrefixReward = "gwreward|"

	modalInputTime   = "time"
	modalInputReward = "reward"
)

type Handler struct {
	svc service.GiveawayService
}

func NewHandler(svc service.GiveawayService) *Handler {
	return &Handler{svc: svc}
}

// Commands returns the slash commands this feature registers.
func (h *Handler) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "scgiveaway",
			Description: "Create a new giveaway and open its setup menu",
		},
		{
			Name:        "scgiveawaycheck",
			Description: "Show the participant list of a giveaway by ID",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "giveaway_id",
					Description: "Giveaway ID (e.g. G-1234)",
					Required:    true,
				},
			},
		},
	}
}

// HandleCommand dispatches giveaway slash commands. Returns false when the
// command belongs to another feature.
func (h *Handler) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "scgiveaway":
		h.create(s, i)
		return true
	case "scgiveawaycheck":
		h.participants(s, i, data.Options[0].StringValue(), 1)
		return true
	}
	return false
}

func (h *Handler) create(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	actorID := platform.InteractionUserID(i)

	g, err := h.svc.Create(ctx, actorID, i.ChannelID)
	if err != nil {
		logger.Error().Err(err).Str("actor_id", actorID).Msg("giveaway create failed")
		h.reply(s, i, platform.ErrorContent(err))
		return
	}
	h.reply(s, i, fmt.Sprintf("✅ Giveaway `%s` created. Check the setup message in this channel.", g.ID))
}

func (h *Handler) participants(s *discordgo.Session, i *discordgo.InteractionCreate, giveawayID string, page int) {
	render, err := h.svc.Participants(context.Background(), giveawayID, page)
	if err != nil {
		h.reply(s, i, platform.ErrorContent(err))
		return
	}
	if err := platform.RespondRender(s, i, render, true); err != nil {
		logger.Warn().Err(err).Msg("failed to respond with participant list")
	}
}

// HandleComponent dispatches button clicks whose custom id matches the
// "<giveaway id>|<action>" scheme. Returns false for foreign ids.
func (h *Handler) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	customID := i.MessageComponentData().CustomID
	giveawayID, parts, ok := models.ParseControlID(customID)
	if !ok || !strings.HasPrefix(giveawayID, "G-") {
		return false
	}

	// Participants paging: "<id>|participants|<page>".
	if parts[0] == models.ActionParticipants && len(parts) == 2 {
		page, err := strconv.Atoi(parts[1])
		if err != nil {
			page = 1
		}
		h.participants(s, i, giveawayID, page)
		return true
	}

	ctx := context.Background()
	actorID := platform.InteractionUserID(i)

	switch parts[0] {
	case models.ActionPlusDay:
		h.silent(s, i, h.svc.AdjustDays(ctx, actorID, giveawayID, 1))
	case models.ActionMinusDay:
		h.silent(s, i, h.svc.AdjustDays(ctx, actorID, giveawayID, -1))
	case models.ActionPlusWinner:
		h.silent(s, i, h.svc.AdjustWinners(ctx, actorID, giveawayID, 1))
	case models.ActionMinusWinner:
		h.silent(s, i, h.svc.AdjustWinners(ctx, actorID, giveawayID, -1))
	case models.ActionSetHour:
		h.openModal(s, i, modalPrefixHour+giveawayID, "End time (HH:MM)", platform.ModalInput{
			CustomID: modalInputTime, Label: "Time", Placeholder: "18:30", MaxLength: 5,
		})
	case models.ActionSetReward:
		h.openModal(s, i, modalPrefixReward+giveawayID, "Reward", platform.ModalInput{
			CustomID: modalInputReward, Label: "Reward", Placeholder: "Nitro / gift card / ...", MaxLength: 200,
		})
	case models.ActionStart:
		if err := h.svc.Start(ctx, actorID, giveawayID); err != nil {
			h.reply(s, i, platform.ErrorContent(err))
		} else {
			h.reply(s, i, fmt.Sprintf("🚀 Giveaway `%s` started.", giveawayID))
		}
	case models.ActionCancel:
		if err := h.svc.Cancel(ctx, actorID, giveawayID); err != nil {
			h.reply(s, i, platform.ErrorContent(err))
		} else {
			h.reply(s, i, "❌ Giveaway cancelled and removed.")
		}
	case models.ActionForceEnd:
		if err := h.svc.ForceEnd(ctx, actorID, giveawayID); err != nil {
			h.reply(s, i, platform.ErrorContent(err))
		} else {
			h.reply(s, i, fmt.Sprintf("🛑 Giveaway `%s` ended by its creator.", giveawayID))
		}
	case models.ActionJoin:
		switch err := h.svc.Join(ctx, actorID, giveawayID); {
		case err == nil:
			h.reply(s, i, "🎉 You joined the giveaway!")
		case errors.Is(err, service.ErrAlreadyJoined):
			h.reply(s, i, "ℹ️ You already joined.")
		default:
			h.reply(s, i, platform.ErrorContent(err))
		}
	case models.ActionLeave:
		switch err := h.svc.Leave(ctx, actorID, giveawayID); {
		case err == nil:
			h.reply(s, i, "🚪 You left the giveaway.")
		case errors.Is(err, service.ErrNotJoined):
			h.reply(s, i, "ℹ️ You have not joined this giveaway.")
		default:
			h.reply(s, i, platform.ErrorContent(err))
		}
	default:
		return false
	}
	return true
}

// HandleModal dispatches modal submissions for hour and reward edits.
func (h *Handler) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	data := i.ModalSubmitData()
	ctx := context.Background()
	actorID := platform.InteractionUserID(i)

	switch {
	case strings.HasPrefix(data.CustomID, modalPrefixHour):
		giveawayID := strings.TrimPrefix(data.CustomID, modalPrefixHour)
		value := platform.ModalValue(data, modalInputTime)
		if err := h.svc.SetTimeOfDay(ctx, actorID, giveawayID, value); err != nil {
			h.reply(s, i, platform.ErrorContent(err))
		} else {
			h.reply(s, i, "✅ End time updated.")
		}
		return true

	case strings.HasPrefix(data.CustomID, modalPrefixReward):
		giveawayID := strings.TrimPrefix(data.CustomID, modalPrefixReward)
		value := platform.ModalValue(data, modalInputReward)
		if err := h.svc.SetReward(ctx, actorID, giveawayID, value); err != nil {
			h.reply(s, i, platform.ErrorContent(err))
		} else {
			h.reply(s, i, "✅ Reward updated.")
		}
		return true
	}
	return false
}

// silent acknowledges a +/- button without a visible reply; the embed edit
// is the feedback. Errors still surface to the requester.
func (h *Handler) silent(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	if err != nil {
		h.reply(s, i, platform.ErrorContent(err))
		return
	}
	if err := platform.DeferUpdate(s, i); err != nil {
		logger.Warn().Err(err).Msg("failed to defer component interaction")
	}
}

func (h *Handler) reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if err := platform.RespondEphemeral(s, i, content); err != nil {
		logger.Warn().Err(err).Msg("failed to respond to interaction")
	}
}

func (h *Handler) openModal(s *discordgo.Session, i *discordgo.InteractionCreate, customID, title string, input platform.ModalInput) {
	if err := platform.RespondModal(s, i, customID, title, []platform.ModalInput{input}); err != nil {
		logger.Warn().Err(err).Msg("failed to open modal")
	}
}
