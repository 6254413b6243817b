package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/visionline/api-middleware/internal/alarm"
	"github.com/visionline/api-middleware/internal/auth"
	"github.com/visionline/api-middleware/internal/config"
	"github.com/visionline/api-middleware/internal/db"
	"github.com/visionline/api-middleware/internal/forward"
	"github.com/visionline/api-middleware/internal/handlers"
	"github.com/visionline/api-middleware/internal/ingest"
	"github.com/visionline/api-middleware/internal/metrics"
	"github.com/visionline/api-middleware/internal/middleware"
	"github.com/visionline/api-middleware/internal/models"
	"github.com/visionline/api-middleware/internal/scheduler"
)

func main() {
	// A local .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment")
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	client, err := db.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	log.Info("connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	setupCtx, cancelSetup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(setupCtx, database); err != nil {
		log.WithError(err).Fatal("failed to create indexes")
	}
	cancelSetup()

	positions := &db.MongoPositionCollection{Collection: database.Collection(db.PositionsCollection)}
	alarms := &db.MongoAlarmCollection{Collection: database.Collection(db.AlarmsCollection)}
	migtraAudit := &db.MongoAuditCollection{Collection: database.Collection(db.MigtraAuditCol)}
	gaussAudit := &db.MongoAuditCollection{Collection: database.Collection(db.GaussAuditCol)}
	gaussAlarmAudit := &db.MongoAuditCollection{Collection: database.Collection(db.GaussAlarmAuditCol)}

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Delivery clients.
	migtraClient := forward.NewMigtraClient(cfg.Migtra.URL, cfg.Migtra.Enabled, migtraAudit, cfg.HTTPTimeout)
	tokens := forward.NewTokenSource(cfg.Gauss.TokenURL, cfg.Gauss.Username, cfg.Gauss.Password, cfg.HTTPTimeout)
	gaussClient := forward.NewGaussClient(cfg.Gauss.URL, cfg.Gauss.AlarmURL, cfg.Gauss.Enabled, tokens, gaussAudit, gaussAlarmAudit, cfg.HTTPTimeout)

	// Forwarding pipelines, one per target, each with its own run lock.
	migtraPipeline := forward.NewPipeline(models.TargetMigtra, positions,
		forward.SelectForMigtra, migtraClient.SendPositions, 0, cfg.Migtra.MarkWhenDisabled)
	gaussPipeline := forward.NewPipeline(models.TargetGauss, positions,
		forward.NewGaussSelector(cfg.Gauss.Window), gaussClient.SendPositions,
		cfg.Gauss.Window, cfg.Gauss.MarkWhenDisabled)

	sched := scheduler.New(
		scheduler.Job{Pipeline: migtraPipeline, OffsetSeconds: cfg.Migtra.OffsetSeconds},
		scheduler.Job{Pipeline: gaussPipeline, OffsetSeconds: cfg.Gauss.OffsetSeconds},
	)
	sched.Start(ctx)

	// Alarm correlation.
	correlator := alarm.NewCorrelator(cfg.AlarmTTL)
	correlator.StartSweeper(ctx)

	ingestService := &ingest.Service{
		Positions:  positions,
		Alarms:     alarms,
		Correlator: correlator,
		Gauss:      gaussClient,
	}

	// Optional MQTT ingest alongside the webhooks.
	if cfg.MQTTBrokerURL != "" {
		source := &ingest.MQTTSource{
			Service:    ingestService,
			BrokerURL:  cfg.MQTTBrokerURL,
			ClientID:   cfg.MQTTClientID,
			GPSTopic:   cfg.MQTTGPSTopic,
			AlarmTopic: cfg.MQTTAlarmTopic,
		}
		if err := source.Start(); err != nil {
			log.WithError(err).Fatal("failed to start mqtt ingest")
		}
		defer source.Stop()
	}

	// HTTP surface.
	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	authMiddleware := middleware.NewAuthMiddleware(authService)
	authHandler := handlers.NewAuthHandler(authService, cfg.PlatformUser, cfg.PlatformPasswordHash)
	webhookHandler := handlers.NewWebhookHandler(ingestService)
	reportHandler := handlers.NewReportHandler(positions, alarms, migtraAudit, gaussAudit)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"message": "Welcome to Visionline API-Middleware"}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/webhook/gps", webhookHandler.ReceiveGPS)
	mux.HandleFunc("/webhook/alarm", webhookHandler.ReceiveAlarm)
	mux.HandleFunc("/api/positions", reportHandler.Positions)
	mux.HandleFunc("/api/alarms", reportHandler.Alarms)
	mux.HandleFunc("/api/audit/migtra", reportHandler.Audit(models.TargetMigtra))
	mux.HandleFunc("/api/audit/gauss", reportHandler.Audit(models.TargetGauss))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: authMiddleware.Authenticate(mux),
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP shutdown failed")
	}
	sched.Wait()
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.WithError(err).Error("mongo disconnect failed")
	}
}
