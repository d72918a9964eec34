package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"coach-service/internal/agent"
	"coach-service/internal/config"
	"coach-service/internal/db"
	"coach-service/internal/handlers"
	"coach-service/internal/middleware"
	"coach-service/internal/notify"
	"coach-service/internal/observability"
	"coach-service/internal/presence"
	"coach-service/internal/rabbitmq"
	"coach-service/internal/repositories"
	"coach-service/internal/telegram"
	"coach-service/internal/telemetry"
	"coach-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, "coach-service", cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
		log.Printf("session event publishing disabled: %v", err)
	} else {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	audit := telemetry.NewAuditEmitter(auditPublisher, "audit.logs", "coach-service", cfg.Environment)

	convRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	subRepo := repositories.NewPushSubscriptionRepo(database)
	linkRepo := repositories.NewBotLinkRepo(database)
	userRepo := repositories.NewUserRepo(database)

	hub := ws.NewHub()
	tracker := presence.NewTracker()
	verifier := middleware.NewVerifier(cfg.JWTSecret)

	var channels []notify.Channel
	if cfg.VAPIDPrivateKey != "" {
		sender := notify.NewVAPIDSender(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
		channels = append(channels, notify.NewPushChannel(subRepo, sender, "/icons/icon-192.png", "/icons/badge-72.png"))
	}
	botClient, err := telegram.NewClient(cfg.TelegramToken)
	if err != nil {
		log.Printf("bot relay channel disabled: %v", err)
	} else {
		channels = append(channels, notify.NewBotChannel(linkRepo, botClient))
	}
	notifier := notify.NewService(channels...)

	gateway := agent.NewGateway(agent.GatewayConfig{
		Version:   cfg.CacheVersion,
		AppOrigin: cfg.AppOrigin,
		APIPrefix: cfg.APIPrefix,
		Fetcher:   &http.Client{Timeout: 10 * time.Second},
	})
	installCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := gateway.Install(installCtx); err != nil {
		// Without a precached shell there is nothing to roll over to;
		// leave the gateway inactive so /agent/status reports degraded.
		log.Printf("offline gateway install failed, serving network-only: %v", err)
	} else {
		gateway.Activate()
	}
	cancel()
	agentNotifier := agent.NewNotifier(agent.LogPresenter{}, agent.NoWindows{}, cfg.AppOrigin)

	staffID := config.GetEnvInt("STAFF_USER_ID", 1)
	conversationHandler := handlers.NewConversationHandler(convRepo, messageRepo, hub, notifier, staffID)
	notificationHandler := handlers.NewNotificationHandler(notifier, subRepo, audit)
	agentHandler := handlers.NewAgentHandler(agentNotifier, gateway)
	userHandler := handlers.NewUserHandler(userRepo)
	conversationWS := ws.NewConversationWSHandler(hub, convRepo, verifier, tracker)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("coach-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/me", authMiddleware, userHandler.Me)

	router.POST("/conversations/start", authMiddleware, conversationHandler.StartConversation)
	router.GET("/conversations", authMiddleware, conversationHandler.ListConversations)
	router.GET("/conversations/:conversation_id/messages", authMiddleware, conversationHandler.GetMessages)
	router.POST("/conversations/:conversation_id/messages", authMiddleware, conversationHandler.PostMessage)
	router.POST("/conversations/:conversation_id/read", authMiddleware, conversationHandler.MarkRead)

	router.POST("/push/subscriptions", authMiddleware, notificationHandler.Subscribe)
	router.DELETE("/push/subscriptions", authMiddleware, notificationHandler.Unsubscribe)
	router.POST("/notifications/dispatch", authMiddleware, notificationHandler.Dispatch)

	router.POST("/agent/push", agentHandler.Push)
	router.POST("/agent/clicks/:tag", agentHandler.Click)
	router.GET("/agent/status", agentHandler.Status)

	if botClient != nil {
		webhookHandler := telegram.NewWebhookHandler(userRepo, linkRepo, botClient)
		router.POST(cfg.TelegramWebhookPath, webhookHandler.Handle)
	}

	router.GET("/ws/conversations/:conversation_id", conversationWS.Handle)

	handlers.RegisterDebugRoutes(router, convRepo, messageRepo, cfg.Environment != "production")

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.NoRoute(gin.WrapH(gateway))

	log.Printf("coach-service listening on :%s env=%s", cfg.Port, cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
