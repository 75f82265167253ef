package streetview

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"streetview-pano-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixtureServiceScriptThenFixtures(t *testing.T) {
	origin := domain.Coordinate{Lat: 45.5, Lng: -73.5}
	// Roughly 22m north of origin.
	near := FixturePanorama{PanoID: "near", Location: domain.Coordinate{Lat: 45.5002, Lng: -73.5}, ImageDate: "2020-5"}

	svc := NewFixtureService(
		[]FixturePanorama{near},
		ScriptedResponse{Err: errors.New("network down")},
	)
	ctx := context.Background()

	_, _, err := svc.GetPanorama(ctx, domain.PanoRequest{Location: origin, Radius: 10})
	require.Error(t, err)

	_, status, err := svc.GetPanorama(ctx, domain.PanoRequest{Location: origin, Radius: 10})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusZeroResults, status)

	data, status, err := svc.GetPanorama(ctx, domain.PanoRequest{Location: origin, Radius: 35})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, status)
	assert.Equal(t, "near", data.Location.PanoID)

	data, status, err = svc.GetPanorama(ctx, domain.PanoRequest{PanoID: "near"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, status)
	assert.Equal(t, "2020-5", data.ImageDate)

	radii := []float64{}
	for _, c := range svc.Calls() {
		radii = append(radii, c.Radius)
	}
	assert.Equal(t, []float64{10, 10, 35, 0}, radii)
}

func TestLoadFixtureService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.json")
	body := `[{"pano_id": "p1", "location": {"lat": 1, "lng": 2}, "date": "2021-7",
		"time": [{"pano": "p0", "date": "2015-3"}]}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	svc, err := LoadFixtureService(path)
	require.NoError(t, err)

	data, status, err := svc.GetPanorama(context.Background(), domain.PanoRequest{PanoID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, status)
	require.Len(t, data.Time, 1)
	assert.Equal(t, "2015-3", data.Time[0]["date"])

	require.NoError(t, os.WriteFile(path, []byte(`[{"location": {"lat": 1, "lng": 2}}]`), 0o644))
	_, err = LoadFixtureService(path)
	assert.Error(t, err)
}
