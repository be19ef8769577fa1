package discord

import (
	"github.com/bwmarrin/discordgo"

	"sc-discord-bot/internal/common/apperrors"
)

// RespondEphemeral replies to an interaction with a message only the
// requester can see.
func RespondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// RespondRender replies to an interaction with a full rendered message.
func RespondRender(s *discordgo.Session, i *discordgo.InteractionCreate, r Render, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Content:    r.Content,
		Embeds:     toEmbeds(r.Embed),
		Components: toComponents(r.Rows),
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// DeferUpdate acknowledges a component interaction without a visible reply.
func DeferUpdate(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// ModalInput describes one short text field of a modal form.
type ModalInput struct {
	CustomID    string
	Label       string
	Placeholder string
	MaxLength   int
}

// RespondModal opens a modal form. The custom id carries the record id the
// submission applies to, so the submit handler re-fetches current state
// instead of closing over it.
func RespondModal(s *discordgo.Session, i *discordgo.InteractionCreate, customID, title string, inputs []ModalInput) error {
	var rows []discordgo.MessageComponent
	for _, in := range inputs {
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    in.CustomID,
					Label:       in.Label,
					Style:       discordgo.TextInputShort,
					Placeholder: in.Placeholder,
					MaxLength:   in.MaxLength,
					Required:    true,
				},
			},
		})
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	})
}

// ModalValue extracts a submitted text input value by its custom id.
func ModalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, component := range data.Components {
		row, ok := component.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range row.Components {
			if input, ok := comp.(*discordgo.TextInput); ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}

// InteractionUserID resolves the acting user for guild and DM contexts.
func InteractionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// ErrorContent maps an operation error to the ephemeral reply shown to the
// requester.
func ErrorContent(err error) string {
	switch {
	case apperrors.IsNotFound(err):
		return "❌ Not found. It may have ended or been removed."
	case apperrors.IsForbidden(err):
		return "❌ You are not allowed to do that."
	case apperrors.IsValidation(err):
		if appErr, ok := apperrors.AsAppError(err); ok {
			return "❌ " + appErr.Message
		}
		return "❌ Invalid input."
	default:
		return "❌ Something went wrong. Try again later."
	}
}
