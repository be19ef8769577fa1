package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Discord struct {
		BotToken string `env:"DISCORD_TOKEN,required"`
		// Guild to sync slash commands against immediately. Empty means
		// global registration only.
		GuildID string `env:"DISCORD_GUILD_ID" envDefault:""`
		OwnerID string `env:"OWNER_ID" envDefault:""`
	}

	Giveaway struct {
		// Backing store for giveaway records.
		StoreBackend string `env:"STORE_BACKEND" envDefault:"file"` // file, redis
		DataFile     string `env:"GIVEAWAYS_FILE" envDefault:"giveaways.json"`
		// How often running countdown embeds are refreshed.
		CountdownInterval time.Duration `env:"COUNTDOWN_INTERVAL" envDefault:"15s"`
		Timezone          string        `env:"GIVEAWAY_TZ" envDefault:"Asia/Ho_Chi_Minh"`
	}

	Moderation struct {
		SettingsFile string `env:"SETTINGS_FILE" envDefault:"settings.json"`
	}

	Relay struct {
		IdleTimeout   time.Duration `env:"RELAY_IDLE_TIMEOUT" envDefault:"5m"`
		SweepInterval time.Duration `env:"RELAY_SWEEP_INTERVAL" envDefault:"1m"`
	}

	Ops struct {
		// Port for the ops HTTP server. 0 disables it.
		Port   int    `env:"OPS_PORT" envDefault:"0"`
		Origin string `env:"OPS_ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Giveaway.Timezone)
}

func Load() (*Config, error) {
	// Missing .env is fine; in production the variables are set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}
