package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lalith-99/slackbridge/internal/api"
	"github.com/lalith-99/slackbridge/internal/config"
	"github.com/lalith-99/slackbridge/internal/hub"
	"github.com/lalith-99/slackbridge/internal/observ"
	"github.com/lalith-99/slackbridge/internal/relay"
	"github.com/lalith-99/slackbridge/internal/slack"
	"github.com/lalith-99/slackbridge/internal/state"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load(".env")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// All relay state is process-lifetime by design: the ring buffers,
	// the channel registry, and the connection count reset on restart.
	st := state.New(cfg.BufferCapacity)

	// Slack is optional. Without a bot token every flow still works and
	// Slack side effects report {success:false} so the UI can show a
	// "local only" indicator.
	var slackClient *slack.Client
	var slackAPI slack.API
	if cfg.SlackBotToken != "" {
		slackClient = slack.NewClient(cfg.SlackBotToken, cfg.SlackAppToken, cfg.SlackTimeout, logger)
		slackAPI = slackClient
	} else {
		logger.Warn("SLACK_BOT_TOKEN not set, running without slack integration")
	}

	defaultUsers := relay.NewDefaultUsers(cfg.SlackDefaultUsers)
	broadcaster := relay.NewBroadcaster(relay.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		CapDelay:    cfg.RetryCapDelay,
	}, nil, logger)
	provisioner := relay.NewProvisioner(slackAPI, st.Bindings, cfg.SlackFallbackChannel, defaultUsers, logger)
	dispatcher := relay.NewDispatcher(st, broadcaster, provisioner, slackAPI, logger)

	h := hub.New(st, dispatcher, logger)
	go h.Run()
	broadcaster.AttachSink(h)

	// Socket Mode is the persistent event subscription that replaced the
	// signed webhook; both ingress paths feed the same dispatcher.
	socketMode := slackClient != nil && cfg.SlackAppToken != ""
	if socketMode {
		runner := slack.NewSocketModeRunner(slackClient, dispatcher, logger)
		go func() {
			if err := runner.Run(context.Background()); err != nil {
				logger.Error("socket mode runner stopped", zap.Error(err))
			}
		}()
	}

	messageHandler := api.NewMessageHandler(st, dispatcher, logger)
	userChannelHandler := api.NewUserChannelHandler(st, provisioner, slackAPI, logger)
	webhookHandler := api.NewWebhookHandler(cfg.SlackSigningSecret, dispatcher, logger)
	statusHandler := api.NewStatusHandler(st, h, socketMode)
	defaultUsersHandler := api.NewDefaultUsersHandler(defaultUsers)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	logger.Info("starting slackbridge",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.Bool("socket_mode", socketMode),
	)

	srv.GET("/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	srv.GET("/metrics", gin.WrapH(promhttp.Handler()))
	srv.GET("/ws", h.HandleWS)

	apiGroup := srv.Group("/api")
	{
		apiGroup.GET("/messages", messageHandler.List)
		apiGroup.POST("/messages", messageHandler.Create)
		apiGroup.GET("/user-channel", userChannelHandler.Get)
		apiGroup.DELETE("/user-channel", userChannelHandler.Delete)
		apiGroup.POST("/slack/events", webhookHandler.Handle)
		apiGroup.GET("/status", statusHandler.Get)
		apiGroup.GET("/default-users", defaultUsersHandler.Get)
		apiGroup.POST("/default-users", defaultUsersHandler.Set)
	}

	return srv.Run(":" + cfg.Port)
}
