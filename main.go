package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"pothole-service/capture"
	"pothole-service/config"
	"pothole-service/database"
	"pothole-service/dedup"
	"pothole-service/detector"
	"pothole-service/geocoder"
	"pothole-service/gps"
	"pothole-service/handlers"
	"pothole-service/pipeline"
	"pothole-service/severity"
	"pothole-service/telegram"
)

func main() {
	// Optional .env file for local runs
	godotenv.Load()

	cfg := config.Load()

	log.Info("Starting the pothole service...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	store, err := database.NewReportStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	// Initialize database schema
	if err := database.InitSchema(store.DB()); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	// Position source: simulated route or serial GPS receiver
	track := gps.NewTrack(cfg.TrackSize)
	var provider gps.Provider
	if cfg.SimulateGPS {
		log.Info("Using simulated GPS route")
		provider = gps.NewSimulator(track, gps.DefaultRoute(), cfg.GPSSpeedKMH)
	} else {
		log.Infof("Using serial GPS receiver on %s", cfg.SerialPort)
		provider = gps.NewSerialReceiver(track, cfg.SerialPort, cfg.BaudRate)
	}
	go func() {
		if err := provider.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("Position provider stopped: %v", err)
		}
	}()

	// Reverse geocoding with cache and bounded wait
	geocodeTimeout := time.Duration(cfg.GeocodeTimeoutSec) * time.Second
	nominatim := geocoder.NewNominatimClient(cfg.GeocoderURL, geocodeTimeout)
	resolver, err := geocoder.NewResolver(nominatim, cfg.GeocodeCacheFile, cfg.GeocodeWorkers, geocodeTimeout)
	if err != nil {
		log.Fatalf("Failed to initialize geocoding resolver: %v", err)
	}
	defer resolver.Close()

	// Telegram bot is optional; without a token the service only serves HTTP
	var notifier pipeline.Notifier
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID, store)
		if err != nil {
			log.Fatalf("Failed to initialize telegram bot: %v", err)
		}
		notifier = bot
		go func() {
			if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("Telegram bot stopped: %v", err)
			}
		}()
	} else {
		log.Warn("TELEGRAM_TOKEN not set, notifications disabled")
	}

	// Camera capture; without the gocv build tag this reports once and the
	// service keeps serving stored reports
	slot := capture.NewSlot()
	camera := capture.NewCamera(cfg.VideoSource, cfg.FrameSkip, slot)
	go func() {
		if err := camera.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warnf("Camera capture unavailable: %v", err)
		}
	}()

	pipe := pipeline.New(pipeline.Options{
		Slot:       slot,
		Detector:   detector.NewContourDetector(),
		Track:      track,
		Dedup:      dedup.NewWindow(cfg.DedupRadiusMeters, time.Duration(cfg.DedupWindowSec)*time.Second),
		Classifier: severity.NewClassifier(severity.DefaultParams()),
		Resolver:   resolver,
		Store:      store,
		Notifier:   notifier,
		ImageDir:   cfg.ImageDir,
	})
	go func() {
		if err := pipe.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("Detection pipeline stopped: %v", err)
		}
	}()

	go runRetentionSweep(ctx, store, cfg.RetentionDays)

	// HTTP API
	router := handlers.SetupRouter(handlers.NewReportsHandler(store))
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		log.Infof("Pothole service listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown failed: %v", err)
	}
}

// runRetentionSweep deletes reports older than retentionDays once a day.
func runRetentionSweep(ctx context.Context, store *database.ReportStore, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := store.CleanupOldReports(ctx, retentionDays); err != nil {
				log.Errorf("Retention sweep failed: %v", err)
			}
		}
	}
}
