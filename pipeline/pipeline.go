package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"pothole-service/capture"
	"pothole-service/dedup"
	"pothole-service/detector"
	"pothole-service/gps"
	"pothole-service/models"
	"pothole-service/severity"
)

const (
	// pollInterval is how often the slot is checked for a fresh frame.
	pollInterval = 200 * time.Millisecond

	// DefaultMinConfidence drops detections too weak to report.
	DefaultMinConfidence = 0.5
)

// Store persists confirmed reports.
type Store interface {
	SaveReport(ctx context.Context, r *models.Report, d models.Detection) (bool, error)
	MarkNotified(ctx context.Context, seq int64) error
}

// Resolver turns coordinates into place names.
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) models.PlaceInfo
}

// Notifier delivers alerts for newly saved reports.
type Notifier interface {
	NotifyReport(ctx context.Context, r *models.Report) error
}

// Pipeline drives one detection cycle: frame in, deduplicated and
// geocoded report out.
type Pipeline struct {
	slot       *capture.Slot
	detector   detector.Detector
	track      *gps.Track
	dedup      *dedup.Window
	classifier *severity.Classifier
	resolver   Resolver
	store      Store
	notifier   Notifier

	imageDir      string
	minConfidence float64
}

type Options struct {
	Slot       *capture.Slot
	Detector   detector.Detector
	Track      *gps.Track
	Dedup      *dedup.Window
	Classifier *severity.Classifier
	Resolver   Resolver
	Store      Store
	Notifier   Notifier // optional

	ImageDir      string  // optional; empty disables frame snapshots
	MinConfidence float64 // zero means DefaultMinConfidence
}

func New(opts Options) *Pipeline {
	minConfidence := opts.MinConfidence
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Pipeline{
		slot:          opts.Slot,
		detector:      opts.Detector,
		track:         opts.Track,
		dedup:         opts.Dedup,
		classifier:    opts.Classifier,
		resolver:      opts.Resolver,
		store:         opts.Store,
		notifier:      opts.Notifier,
		imageDir:      opts.ImageDir,
		minConfidence: minConfidence,
	}
}

// Run polls the frame slot until the context is cancelled. Per-frame
// failures are logged and skipped; the loop never stops on them.
func (p *Pipeline) Run(ctx context.Context) error {
	log.Info("Detection pipeline started")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			frame, ok := p.slot.Take()
			if !ok {
				continue
			}
			if err := p.ProcessFrame(ctx, frame); err != nil {
				log.Errorf("Failed to process frame: %v", err)
			}
		}
	}
}

// ProcessFrame runs detection on one frame and reports every accepted
// candidate.
func (p *Pipeline) ProcessFrame(ctx context.Context, frame capture.Frame) error {
	detections, err := p.detector.Detect(ctx, frame.Data)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	for _, d := range detections {
		if err := p.processDetection(ctx, frame, d); err != nil {
			log.Errorf("Failed to process detection: %v", err)
		}
	}
	return nil
}

func (p *Pipeline) processDetection(ctx context.Context, frame capture.Frame, d models.Detection) error {
	if d.Confidence < p.minConfidence {
		return nil
	}

	point, ok := p.track.Nearest(frame.CapturedAt)
	if !ok {
		log.Warn("Dropping detection: no position fix available")
		return nil
	}
	if !point.Valid() {
		log.Warnf("Dropping detection: invalid fix %.6f,%.6f", point.Latitude, point.Longitude)
		return nil
	}

	if p.dedup.IsDuplicate(point, frame.CapturedAt) {
		log.Debugf("Skipping duplicate pothole near %s", point.CacheKey())
		return nil
	}

	sev := p.classifier.Classify(d.Area, d.DepthProxy)
	place := p.resolver.Resolve(ctx, point.Latitude, point.Longitude)

	report := &models.Report{
		Location:   point,
		Severity:   sev,
		Place:      place,
		Confidence: d.Confidence,
		DetectedAt: frame.CapturedAt,
		ImageRef:   p.saveSnapshot(frame),
	}

	saved, err := p.store.SaveReport(ctx, report, d)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	p.dedup.Record(point, frame.CapturedAt)
	if !saved {
		// Already persisted in an earlier run; nothing to announce.
		return nil
	}

	log.Infof("Reported %s pothole (score %.2f) at %s, %s",
		report.Severity.Level, report.Severity.Score, place.Street, place.City)

	if p.notifier != nil {
		if err := p.notifier.NotifyReport(ctx, report); err != nil {
			log.Warnf("Failed to send notification for report %d: %v", report.Seq, err)
		} else if err := p.store.MarkNotified(ctx, report.Seq); err != nil {
			log.Warnf("Failed to mark report %d notified: %v", report.Seq, err)
		}
	}
	return nil
}

// saveSnapshot writes the frame to the image directory and returns its
// file name, or empty when snapshots are disabled or the write fails.
func (p *Pipeline) saveSnapshot(frame capture.Frame) string {
	if p.imageDir == "" || len(frame.Data) == 0 {
		return ""
	}
	if err := os.MkdirAll(p.imageDir, 0o755); err != nil {
		log.Warnf("Failed to create image dir: %v", err)
		return ""
	}
	name := uuid.New().String() + ".jpg"
	if err := os.WriteFile(filepath.Join(p.imageDir, name), frame.Data, 0o644); err != nil {
		log.Warnf("Failed to write snapshot: %v", err)
		return ""
	}
	return name
}
