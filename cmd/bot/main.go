package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"sc-discord-bot/internal/common/config"
	"sc-discord-bot/internal/common/logger"
	giveawaydelivery "sc-discord-bot/internal/features/giveaway/delivery/discord"
	"sc-discord-bot/internal/features/giveaway/repository"
	filerepo "sc-discord-bot/internal/features/giveaway/repository/file"
	redisrepo "sc-discord-bot/internal/features/giveaway/repository/redis"
	giveawayservice "sc-discord-bot/internal/features/giveaway/service"
	helpdelivery "sc-discord-bot/internal/features/help/delivery/discord"
	moderationdelivery "sc-discord-bot/internal/features/moderation/delivery/discord"
	moderationservice "sc-discord-bot/internal/features/moderation/service"
	relaydelivery "sc-discord-bot/internal/features/relay/delivery/discord"
	relayservice "sc-discord-bot/internal/features/relay/service"
	opshttp "sc-discord-bot/internal/http"
	platformdiscord "sc-discord-bot/internal/platform/discord"
	platformredis "sc-discord-bot/internal/platform/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init("sc-discord-bot", cfg.Debug)
	logger.Info().Bool("debug", cfg.Debug).Msg("starting bot")

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.Giveaway.Timezone).Msg("failed to load timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := buildRepository(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Giveaway.StoreBackend).Msg("failed to open giveaway store")
	}
	logger.Info().Str("backend", cfg.Giveaway.StoreBackend).Msg("giveaway store ready")

	session, err := platformdiscord.NewSession(cfg.Discord.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session")
	}

	giveawaySvc := giveawayservice.NewGiveawayService(repo, session, loc, cfg.Giveaway.CountdownInterval)
	relaySvc := relayservice.NewRelayService(session, cfg.Relay.IdleTimeout, cfg.Relay.SweepInterval)
	moderationSvc := moderationservice.NewModerationService(cfg.Moderation.SettingsFile, cfg.Discord.OwnerID, session)

	giveawayHandler := giveawaydelivery.NewHandler(giveawaySvc)
	relayHandler := relaydelivery.NewHandler(relaySvc)
	moderationHandler := moderationdelivery.NewHandler(moderationSvc)
	helpHandler := helpdelivery.NewHandler(cfg.Discord.OwnerID)

	raw := session.Raw()
	raw.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("gateway ready")
	})
	raw.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			_ = giveawayHandler.HandleCommand(s, i) ||
				relayHandler.HandleCommand(s, i) ||
				moderationHandler.HandleCommand(s, i) ||
				helpHandler.HandleCommand(s, i)
		case discordgo.InteractionMessageComponent:
			_ = giveawayHandler.HandleComponent(s, i) ||
				relayHandler.HandleComponent(s, i) ||
				moderationHandler.HandleComponent(s, i) ||
				helpHandler.HandleComponent(s, i)
		case discordgo.InteractionModalSubmit:
			_ = giveawayHandler.HandleModal(s, i) ||
				moderationHandler.HandleModal(s, i)
		}
	})
	raw.AddHandler(relayHandler.HandleMessage)

	if err := session.Open(); err != nil {
		logger.Fatal().Err(err).Msg("failed to open gateway connection")
	}
	defer session.Close()

	registerCommands(raw, cfg.Discord.GuildID,
		giveawayHandler.Commands(),
		relayHandler.Commands(),
		moderationHandler.Commands(),
		helpHandler.Commands(),
	)

	relaySvc.Start()
	if err := giveawaySvc.Resume(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to resume giveaway countdowns")
	}

	var ops *opshttp.Server
	if cfg.Ops.Port != 0 {
		ops = opshttp.NewServer(cfg, giveawaySvc, relaySvc)
		go func() {
			if err := ops.Run(); err != nil {
				logger.Error().Err(err).Msg("ops server failed")
			}
		}()
	}

	logger.Info().Msg("bot is running, press ctrl+c to exit")
	<-ctx.Done()

	logger.Info().Msg("shutting down")
	giveawaySvc.Stop()
	relaySvc.Stop()
	if ops != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ops.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("ops server shutdown failed")
		}
	}
	logger.Info().Msg("bot exited")
}

func buildRepository(ctx context.Context, cfg *config.Config) (repository.GiveawayRepository, error) {
	switch cfg.Giveaway.StoreBackend {
	case "redis":
		client, err := platformredis.Open(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return redisrepo.NewRedisRepository(client), nil
	default:
		return filerepo.NewFileRepository(cfg.Giveaway.DataFile), nil
	}
}

// registerCommands bulk-overwrites the slash command set. With a guild id
// configured the commands show up immediately in that guild; otherwise they
// are registered globally and take up to an hour to propagate.
func registerCommands(s *discordgo.Session, guildID string, groups ...[]*discordgo.ApplicationCommand) {
	var commands []*discordgo.ApplicationCommand
	for _, g := range groups {
		commands = append(commands, g...)
	}

	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, commands)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register slash commands")
	}
	logger.Info().Int("count", len(commands)).Str("guild", guildID).Msg("slash commands registered")
}
