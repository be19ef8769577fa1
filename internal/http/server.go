// Package http exposes a small read-only ops server next to the bot:
// health endpoints and a listing of live giveaway records. It is disabled
// unless an ops port is configured.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"sc-discord-bot/internal/common/config"
	"sc-discord-bot/internal/common/logger"
	giveawayservice "sc-discord-bot/internal/features/giveaway/service"
	relayservice "sc-discord-bot/internal/features/relay/service"
)

type Server struct {
	srv      *http.Server
	giveaway giveawayservice.GiveawayService
	relay    *relayservice.RelayService
}

func NewServer(cfg *config.Config, giveaway giveawayservice.GiveawayService, relay *relayservice.RelayService) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Ops.Origin}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		giveaway: giveaway,
		relay:    relay,
	}
	s.routes(router)

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Ops.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "sc-discord-bot",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if _, err := s.giveaway.List(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "store unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "sc-discord-bot",
		})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/giveaways", s.listGiveaways)
		v1.GET("/stats", s.stats)
	}
}

func (s *Server) listGiveaways(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	giveaways, err := s.giveaway.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list giveaways"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":     len(giveaways),
		"giveaways": giveaways,
	})
}

func (s *Server) stats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	giveaways, err := s.giveaway.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list giveaways"})
		return
	}

	running := 0
	for _, g := range giveaways {
		if g.Running() {
			running++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"giveaways_total":   len(giveaways),
		"giveaways_running": running,
		"chat_sessions":     s.relay.ActiveSessions(),
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

// Run blocks until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	logger.Info().Str("addr", s.srv.Addr).Msg("ops server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
