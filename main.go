package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/api"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/api/handler"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/api/middleware"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/config"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/iot"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/repository/postgresql"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func main() {
	cfg := config.Load()
	log.Println("configuration loaded")

	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}
	defer db.Close()
	log.Println("database connection established")

	awsSDKCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("could not load AWS SDK config: %v", err)
	}

	sqsClient := sqs.NewFromConfig(awsSDKCfg)
	iotDataPlaneClient := iotdataplane.NewFromConfig(awsSDKCfg, func(o *iotdataplane.Options) {
		if cfg.IoTMQTTEndpoint != "" {
			endpoint := cfg.IoTMQTTEndpoint
			if !strings.HasPrefix(endpoint, "https://") && !strings.HasPrefix(endpoint, "http://") {
				endpoint = "https://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	rekognitionClient := rekognition.NewFromConfig(awsSDKCfg)

	userRepo := postgresql.NewPgUserRepository(db)
	spaceRepo := postgresql.NewPgParkingSpaceRepository(db)
	sessionRepo := postgresql.NewPgParkingSessionRepository(db)
	rateRepo := postgresql.NewPgParkingRateRepository(db)

	webSocketManager := handler.NewWebSocketManager()
	go webSocketManager.Start()
	log.Println("websocket manager started")

	var printer service.Printer
	if cfg.PrinterDevice != "" {
		printer = &service.DevicePrinter{DevicePath: cfg.PrinterDevice}
	} else {
		log.Println("PRINTER_DEVICE not configured, tickets will not be printed")
	}
	ticketService := service.NewTicketService(printer, cfg.FacilityName)

	barrierCommander := iot.NewBarrierCommander(iotDataPlaneClient, cfg.IoTTopicPrefix)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiration)
	parkingService := service.NewParkingService(spaceRepo, sessionRepo, rateRepo,
		webSocketManager, barrierCommander, ticketService)

	photoStorage, err := service.NewPhotoStorage(cfg.PhotoStorageDir)
	if err != nil {
		log.Printf("photo storage unavailable, photo-assisted entry disabled: %v", err)
	} else {
		parkingService.EnablePhotoEntry(service.NewLPRService(rekognitionClient), photoStorage)
	}

	retentionService := service.NewRetentionService(sessionRepo, rateRepo)

	authMiddleware := middleware.NewAuthMiddleware(authService)

	var wg sync.WaitGroup
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())

	if cfg.SQSGateQueueURL == "" {
		log.Println("SQS_GATE_QUEUE_URL not configured, gate queue consumer will not run")
	} else {
		sqsConsumer := iot.NewSQSConsumer(sqsClient, cfg.SQSGateQueueURL, parkingService)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sqsConsumer.Start(consumerCtx)
			log.Println("SQS consumer stopped")
		}()
	}

	router := api.SetupRouter(authService, parkingService, retentionService, authMiddleware, webSocketManager)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("server listening on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	cancelConsumer()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	if cfg.SQSGateQueueURL != "" {
		done := make(chan struct{})
		go func() {
			defer close(done)
			wg.Wait()
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			log.Println("SQS consumer did not stop in time")
		}
	}

	log.Println("server stopped")
}
