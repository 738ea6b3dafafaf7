package geocoder

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pothole-service/models"
)

// fakeGeocoder counts calls and plays one of three roles: succeed, fail,
// or hang until the context is cancelled.
type fakeGeocoder struct {
	calls int64
	fail  bool
	hang  bool
	place models.PlaceInfo
}

func (f *fakeGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (models.PlaceInfo, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.hang {
		<-ctx.Done()
		return models.PlaceInfo{}, ctx.Err()
	}
	if f.fail {
		return models.PlaceInfo{}, errors.New("service unavailable")
	}
	return f.place, nil
}

func (f *fakeGeocoder) callCount() int64 {
	return atomic.LoadInt64(&f.calls)
}

func belgradePlace() models.PlaceInfo {
	return models.PlaceInfo{
		Street:  "Knez Mihailova",
		City:    "Belgrade",
		Region:  "Central Serbia",
		Country: "Serbia",
	}
}

func TestResolver_SuccessIsCached(t *testing.T) {
	g := &fakeGeocoder{place: belgradePlace()}
	r, err := NewResolver(g, "", 2, time.Second)
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	place := r.Resolve(ctx, 44.7866, 20.4489)
	require.Equal(t, belgradePlace(), place)

	// Second lookup for the same coordinate hits the cache.
	place = r.Resolve(ctx, 44.7866, 20.4489)
	require.Equal(t, belgradePlace(), place)
	require.Equal(t, int64(1), g.callCount())
	require.Equal(t, 1, r.CachedPlaces())
}

func TestResolver_TimeoutReturnsPlaceholderWithoutPoisoningCache(t *testing.T) {
	g := &fakeGeocoder{hang: true}
	r, err := NewResolver(g, "", 1, 50*time.Millisecond)
	require.NoError(t, err)
	defer r.Close()

	start := time.Now()
	place := r.Resolve(context.Background(), 44.7866, 20.4489)
	elapsed := time.Since(start)

	require.Equal(t, models.ResolvingPlace(), place)
	require.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	require.Equal(t, 0, r.CachedPlaces())
}

func TestResolver_FailureReturnsUnknownAndRetriesLater(t *testing.T) {
	g := &fakeGeocoder{fail: true}
	r, err := NewResolver(g, "", 1, time.Second)
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	place := r.Resolve(ctx, 44.7866, 20.4489)
	require.Equal(t, models.UnknownPlace(), place)
	require.Equal(t, 0, r.CachedPlaces())

	// The collaborator recovers; the next resolve goes out again.
	g.fail = false
	g.place = belgradePlace()
	place = r.Resolve(ctx, 44.7866, 20.4489)
	require.Equal(t, belgradePlace(), place)
	require.Equal(t, int64(2), g.callCount())
}

func TestResolver_CacheSurvivesRestart(t *testing.T) {
	cacheFile := filepath.Join(t.TempDir(), "geocoding_cache.json")

	g := &fakeGeocoder{place: belgradePlace()}
	r, err := NewResolver(g, cacheFile, 1, time.Second)
	require.NoError(t, err)
	r.Resolve(context.Background(), 44.7866, 20.4489)
	r.Close()

	// A fresh resolver reloads the confirmed resolution from disk.
	g2 := &fakeGeocoder{fail: true}
	r2, err := NewResolver(g2, cacheFile, 1, time.Second)
	require.NoError(t, err)
	defer r2.Close()

	place := r2.Resolve(context.Background(), 44.7866, 20.4489)
	require.Equal(t, belgradePlace(), place)
	require.Equal(t, int64(0), g2.callCount())
}

func TestResolver_DistinctCoordinatesAreDistinctKeys(t *testing.T) {
	g := &fakeGeocoder{place: belgradePlace()}
	r, err := NewResolver(g, "", 2, time.Second)
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	r.Resolve(ctx, 44.786600, 20.448900)
	r.Resolve(ctx, 44.786601, 20.448901) // differs at the 6th decimal
	require.Equal(t, int64(2), g.callCount())
}
