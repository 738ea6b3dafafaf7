package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pothole-service/capture"
	"pothole-service/dedup"
	"pothole-service/detector"
	"pothole-service/gps"
	"pothole-service/models"
	"pothole-service/severity"
)

type fakeStore struct {
	saved     []models.Report
	saveAgain bool // report true even for repeats
	notified  []int64
	nextSeq   int64
}

func (s *fakeStore) SaveReport(ctx context.Context, r *models.Report, d models.Detection) (bool, error) {
	for _, prev := range s.saved {
		if prev.Location == r.Location && prev.DetectedAt.Equal(r.DetectedAt) && !s.saveAgain {
			return false, nil
		}
	}
	s.nextSeq++
	r.Seq = s.nextSeq
	s.saved = append(s.saved, *r)
	return true, nil
}

func (s *fakeStore) MarkNotified(ctx context.Context, seq int64) error {
	s.notified = append(s.notified, seq)
	return nil
}

type fakeResolver struct {
	place models.PlaceInfo
	calls int
}

func (r *fakeResolver) Resolve(ctx context.Context, lat, lon float64) models.PlaceInfo {
	r.calls++
	return r.place
}

type fakeNotifier struct {
	reports []models.Report
}

func (n *fakeNotifier) NotifyReport(ctx context.Context, r *models.Report) error {
	n.reports = append(n.reports, *r)
	return nil
}

func strongDetection() models.Detection {
	return models.Detection{
		X1: 100, Y1: 200, X2: 220, Y2: 290,
		Area: 10800, Confidence: 0.82, DepthProxy: 0.65,
	}
}

func newTestPipeline(det detector.Detector, store *fakeStore, notifier Notifier) (*Pipeline, *gps.Track) {
	track := gps.NewTrack(10)
	p := New(Options{
		Slot:       capture.NewSlot(),
		Detector:   det,
		Track:      track,
		Dedup:      dedup.NewWindow(dedup.DefaultRadiusMeters, dedup.DefaultWindow),
		Classifier: severity.NewClassifier(severity.DefaultParams()),
		Resolver:   &fakeResolver{place: models.PlaceInfo{Street: "Takovska", City: "Belgrade"}},
		Store:      store,
		Notifier:   notifier,
	})
	return p, track
}

func TestPipeline_ReportsDeduplicatesAndReportsAgain(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	det := detector.NewStaticDetector(
		[]models.Detection{strongDetection()},
		[]models.Detection{strongDetection()},
		[]models.Detection{strongDetection()},
	)
	p, track := newTestPipeline(det, store, notifier)
	ctx := context.Background()

	// First sighting.
	track.Record(models.GPSPoint{Latitude: 44.786600, Longitude: 20.448900, CapturedAt: t0})
	require.NoError(t, p.ProcessFrame(ctx, capture.Frame{Data: []byte("f1"), CapturedAt: t0}))
	require.Len(t, store.saved, 1)

	// Second sighting ~0.1 m away, 10 s later: the same hole.
	t1 := t0.Add(10 * time.Second)
	track.Record(models.GPSPoint{Latitude: 44.786601, Longitude: 20.448901, CapturedAt: t1})
	require.NoError(t, p.ProcessFrame(ctx, capture.Frame{Data: []byte("f2"), CapturedAt: t1}))
	require.Len(t, store.saved, 1)

	// Third sighting >10 km away: a different hole.
	t2 := t0.Add(20 * time.Second)
	track.Record(models.GPSPoint{Latitude: 44.900000, Longitude: 20.600000, CapturedAt: t2})
	require.NoError(t, p.ProcessFrame(ctx, capture.Frame{Data: []byte("f3"), CapturedAt: t2}))
	require.Len(t, store.saved, 2)

	// Both saved reports were announced and flagged as such.
	require.Len(t, notifier.reports, 2)
	require.Equal(t, []int64{1, 2}, store.notified)
	require.Equal(t, "Takovska", store.saved[0].Place.Street)
	require.Equal(t, models.SeverityHigh, store.saved[0].Severity.Level)
}

func TestPipeline_DropsLowConfidenceDetections(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	weak := strongDetection()
	weak.Confidence = 0.2
	det := detector.NewStaticDetector([]models.Detection{weak})
	p, track := newTestPipeline(det, store, nil)

	track.Record(models.GPSPoint{Latitude: 44.7866, Longitude: 20.4489, CapturedAt: t0})
	require.NoError(t, p.ProcessFrame(context.Background(), capture.Frame{CapturedAt: t0}))
	require.Empty(t, store.saved)
}

func TestPipeline_DropsDetectionsWithoutFix(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	det := detector.NewStaticDetector([]models.Detection{strongDetection()})
	p, _ := newTestPipeline(det, store, nil)

	// Empty track: no fix to attach the detection to.
	require.NoError(t, p.ProcessFrame(context.Background(), capture.Frame{CapturedAt: t0}))
	require.Empty(t, store.saved)
}

func TestPipeline_AlreadyPersistedReportIsNotReannounced(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	ctx := context.Background()
	frame := capture.Frame{CapturedAt: t0}
	fix := models.GPSPoint{Latitude: 44.7866, Longitude: 20.4489, CapturedAt: t0}

	p1, track1 := newTestPipeline(detector.NewStaticDetector([]models.Detection{strongDetection()}), store, notifier)
	track1.Record(fix)
	require.NoError(t, p1.ProcessFrame(ctx, frame))

	// A restarted pipeline replays the frame with an empty dedup window,
	// but the database already holds the report.
	p2, track2 := newTestPipeline(detector.NewStaticDetector([]models.Detection{strongDetection()}), store, notifier)
	track2.Record(fix)
	require.NoError(t, p2.ProcessFrame(ctx, frame))

	require.Len(t, store.saved, 1)
	require.Len(t, notifier.reports, 1)
}

func TestPipeline_UsesNearestFixInTime(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	det := detector.NewStaticDetector([]models.Detection{strongDetection()})
	p, track := newTestPipeline(det, store, nil)

	track.Record(models.GPSPoint{Latitude: 44.10, Longitude: 20.10, CapturedAt: t0})
	track.Record(models.GPSPoint{Latitude: 44.20, Longitude: 20.20, CapturedAt: t0.Add(5 * time.Second)})

	// Frame at t0+8s sits closest to the second fix.
	frame := capture.Frame{CapturedAt: t0.Add(8 * time.Second)}
	require.NoError(t, p.ProcessFrame(context.Background(), frame))
	require.Len(t, store.saved, 1)
	require.Equal(t, 44.20, store.saved[0].Location.Latitude)
}
