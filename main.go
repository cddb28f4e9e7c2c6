package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookline/config"
	"bookline/cron"
	"bookline/database"
	alertRepo "bookline/database/repository/alert"
	apptRepo "bookline/database/repository/appointment"
	contactRepo "bookline/database/repository/contact"
	tenantRepo "bookline/database/repository/tenant"
	"bookline/handlers"
	"bookline/routes"
	"bookline/services/booking"
	"bookline/services/breaker"
	"bookline/services/channel"
	"bookline/services/concierge"
	"bookline/services/governor"
	"bookline/services/notification"
	"bookline/services/speech"
	"bookline/services/switchboard"
	"bookline/services/tasks"
	"bookline/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()

	ctx := context.Background()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	tenants := tenantRepo.NewMongoTenantRepo()
	contacts := contactRepo.NewMongoContactRepo()
	appointments := apptRepo.NewMongoAppointmentRepo()
	alerts := alertRepo.NewMongoAlertRepo()

	// services.
	notifier := &notification.DefaultService{Tenants: tenants}

	reminderClient := tasks.NewClient()
	defer reminderClient.Close()

	bookingEngine := &booking.DefaultEngine{
		Appointments: appointments,
		Contacts:     contacts,
		Tenants:      tenants,
		Reminders:    reminderClient,
	}

	resolver := &switchboard.DefaultResolver{
		Contacts:        contacts,
		Tenants:         tenants,
		DefaultTenantID: config.AppConfig.DefaultTenantID,
	}

	budgetGovernor := &governor.DefaultGovernor{
		Contacts: contacts,
		Alerts:   alerts,
		Notifier: notifier,
	}

	circuitBreaker := &breaker.DefaultBreaker{
		Contacts: contacts,
		Alerts:   alerts,
		Notifier: notifier,
	}

	llm, err := concierge.NewGeminiClient(ctx, config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize the Gemini client: %v", err)
	}

	var transcriber speech.Transcriber
	if config.AppConfig.GoogleCredentialsFile != "" {
		t, err := speech.NewGoogleTranscriber(ctx)
		if err != nil {
			logger.Sugar().Warnf("main: speech transcription disabled: %v", err)
		} else {
			transcriber = t
		}
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Webhook: handlers.NewWebhookHandler(handlers.WebhookHandler{
			Resolver:    resolver,
			Governor:    budgetGovernor,
			Engine:      bookingEngine,
			LLM:         llm,
			History:     concierge.NewHistoryStore(utils.GetHistoryClient()),
			Breaker:     circuitBreaker,
			Transcriber: transcriber,
			Tenants:     tenants,
			Contacts:    contacts,
			Alerts:      alerts,
		}),
		Auth:  &handlers.AuthHandler{Tenants: tenants},
		Admin: &handlers.AdminHandler{
			Engine:   bookingEngine,
			Governor: budgetGovernor,
			Alerts:   alerts,
			Contacts: contacts,
			Tenants:  tenants,
		},
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the reminder worker in the background.
	go cron.InitReminderWorker(appointments, channel.NewTwilioSender())

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
