package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pothole-service/models"
)

func reportAt(lat, lon float64) models.Report {
	return models.Report{Location: models.GPSPoint{Latitude: lat, Longitude: lon}}
}

func TestPointURL(t *testing.T) {
	u := pointURL(44.7866, 20.4489)
	require.Equal(t, "https://www.google.com/maps/search/?api=1&query=44.786600,20.448900", u)
}

func TestRouteURL_SingleReport(t *testing.T) {
	u := routeURL([]models.Report{reportAt(44.7866, 20.4489)})
	require.Equal(t, "https://www.google.com/maps/dir/?api=1&destination=44.786600,20.448900", u)
}

func TestRouteURL_WaypointsAreEscaped(t *testing.T) {
	u := routeURL([]models.Report{
		reportAt(44.7866, 20.4489),
		reportAt(44.8000, 20.4600),
		reportAt(44.8100, 20.4700),
	})
	require.True(t, strings.HasPrefix(u, "https://www.google.com/maps/dir/?api=1&destination=44.786600,20.448900&waypoints="))
	// The pipe separator must survive as %7C, not a raw pipe.
	require.Contains(t, u, "%7C")
	require.NotContains(t, u, "|")
}
