package gps

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"go.bug.st/serial"

	"pothole-service/models"
)

// SerialReceiver reads position samples from a serial GPS receiver.
// The wire format is one CSV line per fix:
//
//	lat,lon,speed_kmh,altitude,satellites,HHMMSS
//
// Malformed lines are skipped with a warning; the receiver never feeds
// invalid coordinates into the track.
type SerialReceiver struct {
	track    *Track
	portName string
	baudRate int
}

// NewSerialReceiver creates a receiver for the given port.
func NewSerialReceiver(track *Track, portName string, baudRate int) *SerialReceiver {
	if baudRate <= 0 {
		baudRate = 9600
	}
	return &SerialReceiver{track: track, portName: portName, baudRate: baudRate}
}

// Run reads fixes until the context is cancelled or the port fails.
func (r *SerialReceiver) Run(ctx context.Context) error {
	port, err := serial.Open(r.portName, &serial.Mode{BaudRate: r.baudRate})
	if err != nil {
		return fmt.Errorf("opening GPS port %s: %w", r.portName, err)
	}
	log.Infof("Connected to GPS on %s at %d baud", r.portName, r.baudRate)

	// Unblock the reader when the context is cancelled.
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		p, err := ParseFixLine(line, time.Now())
		if err != nil {
			log.Warnf("Skipping malformed GPS line %q: %v", line, err)
			continue
		}
		r.track.Record(p)
	}

	if ctx.Err() != nil {
		log.Info("GPS serial receiver stopped")
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading GPS port %s: %w", r.portName, err)
	}
	return nil
}

// ParseFixLine parses one CSV fix line. The trailing HHMMSS field carries
// no date, so the sample is stamped with the supplied receive time.
func ParseFixLine(line string, receivedAt time.Time) (models.GPSPoint, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return models.GPSPoint{}, fmt.Errorf("expected at least 2 fields, got %d", len(fields))
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return models.GPSPoint{}, fmt.Errorf("parsing latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return models.GPSPoint{}, fmt.Errorf("parsing longitude: %w", err)
	}

	p := models.GPSPoint{Latitude: lat, Longitude: lon, CapturedAt: receivedAt}
	if !p.Valid() {
		return models.GPSPoint{}, fmt.Errorf("coordinates out of range: %f,%f", lat, lon)
	}

	if len(fields) >= 4 {
		if alt, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64); err == nil {
			p.Altitude = alt
		}
	}
	return p, nil
}
