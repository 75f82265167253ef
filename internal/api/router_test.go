package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"streetview-pano-service/internal/adapters/cache"
	"streetview-pano-service/internal/adapters/repositories"
	"streetview-pano-service/internal/adapters/storage"
	"streetview-pano-service/internal/adapters/streetview"
	"streetview-pano-service/internal/config"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/platform/db"
	"streetview-pano-service/internal/ports"
	"streetview-pano-service/internal/services"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler  http.Handler
	svc      *streetview.FixtureService
	shotsDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, repositories.InitSchema(ctx, conn))

	seed := filepath.Join(t.TempDir(), "cases.json")
	require.NoError(t, os.WriteFile(seed, []byte(`[
		{"case_id": "0", "lat": 45.52716794325363, "lng": -73.6249246727188},
		{"case_id": "1", "lat": 10, "lng": 10}
	]`), 0o644))
	require.NoError(t, repositories.SeedFromJSON(ctx, conn, seed))

	svc := streetview.NewFixtureService([]streetview.FixturePanorama{
		{
			PanoID:    "pano-near-0",
			Location:  domain.Coordinate{Lat: 45.52726794325363, Lng: -73.6249246727188},
			ImageDate: "2021-7",
			Time: []ports.CaptureRecord{
				{"pano": "pano-2009", "date": "2009-1"},
			},
		},
	})

	finder, err := services.NewPanoramaFinder(svc, config.DefaultFinder(), nil)
	require.NoError(t, err)

	shotsDir := t.TempDir()
	store, err := storage.NewLocalScreenshotStore(shotsDir)
	require.NoError(t, err)

	h := NewRouter(Deps{
		Finder:      finder,
		Cases:       repositories.NewSqliteCaseRepository(conn),
		Results:     cache.NewSqliteResultCache(conn, nil),
		Screenshots: store,
		MapsKey:     "test-key",
	})

	return &testServer{handler: h, svc: svc, shotsDir: shotsDir}
}

func (s *testServer) do(method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndCases(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(http.MethodGet, "/cases", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Cases []struct {
			CaseID string `json:"case_id"`
		} `json:"cases"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Cases, 2)
	assert.Equal(t, "0", res.Cases[0].CaseID)

	rec = s.do(http.MethodPost, "/cases", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestViewDefaultCase(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `<span id="initial-pano">pano-near-0</span>`)
	assert.Contains(t, body, `<span id="current-date">Jul 2021</span>`)
	assert.Contains(t, body, "pano-2009")
	assert.Contains(t, body, "key=test-key")

	// The fixture is ~11m away: the 10m attempt misses, the 35m attempt hits.
	assert.Len(t, s.svc.Calls(), 2)
}

func TestViewNoPanorama(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/?id=1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "alert(")
	assert.Len(t, s.svc.Calls(), 4)
}

func TestViewUnknownCase(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/?id=404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown case id")
	assert.Empty(t, s.svc.Calls())

	rec = s.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPanoByID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/pano?pano_id=pano-near-0&lat=45.52716794325363&lng=-73.6249246727188", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<span id="initial-pano">pano-near-0</span>`)

	calls := s.svc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "pano-near-0", calls[0].PanoID)

	rec = s.do(http.MethodGet, "/pano?pano_id=x&lat=abc&lng=1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPanoramaJSONUsesCache(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/panorama?id=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var first struct {
		CaseID string            `json:"case_id"`
		Result domain.PanoResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, "0", first.CaseID)
	assert.Equal(t, "pano-near-0", first.Result.PanoID)
	assert.Equal(t, 35.0, first.Result.Radius)
	assert.Equal(t, "Jul 2021", first.Result.CaptureDate.String())

	callsAfterFirst := len(s.svc.Calls())

	rec = s.do(http.MethodGet, "/panorama?id=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pano-near-0")
	assert.Len(t, s.svc.Calls(), callsAfterFirst, "second request should be served from the cache")
}

func TestPanoramaJSONByCoordinate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/panorama?lat=10&lng=10", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"no panorama found"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/panorama", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/panorama?id=404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpload(t *testing.T) {
	s := newTestServer(t)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	body, err := json.Marshal(map[string]string{
		"id":   "0",
		"pano": "pano-near-0",
		"date": "Jul 2021",
		"img":  "data:image/png;base64," + base64.StdEncoding.EncodeToString(img.Bytes()),
	})
	require.NoError(t, err)

	rec := s.do(http.MethodPost, "/upload", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	_, err = os.Stat(filepath.Join(s.shotsDir, "0", "0_0_Jul 2021_pano-near-0.jpg"))
	assert.NoError(t, err)
}

func TestUploadRejectsBadRequests(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/upload", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))

	rec = s.do(http.MethodPost, "/upload", []byte(`{"id": "0"`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/upload", []byte(`{"id": "0", "extra": true}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/upload", []byte(`{"id":"../x","pano":"p","date":"d","img":"data:image/png;base64,AA=="}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "invalid screenshot"))
}

func TestNonFiniteCoordinatesAreRejected(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/panorama?lat=NaN&lng=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/pano?pano_id=pano-near-0&lat=NaN&lng=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/panorama?lat=0&lng=Inf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, s.svc.Calls())
}

func TestUploadRejectsOversizedImage(t *testing.T) {
	s := newTestServer(t)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 9000, 1))))
	body, err := json.Marshal(map[string]string{
		"id":   "0",
		"pano": "pano-near-0",
		"date": "Jul 2021",
		"img":  "data:image/png;base64," + base64.StdEncoding.EncodeToString(img.Bytes()),
	})
	require.NoError(t, err)

	rec := s.do(http.MethodPost, "/upload", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid screenshot")

	_, err = os.Stat(filepath.Join(s.shotsDir, "0"))
	assert.True(t, os.IsNotExist(err))
}
