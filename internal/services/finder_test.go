package services

import (
	"context"
	"errors"
	"math"
	"streetview-pano-service/internal/adapters/streetview"
	"streetview-pano-service/internal/config"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/ports"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingSink captures everything reported to it.
type recordingSink struct {
	mu       sync.Mutex
	rendered []*domain.PanoResult
	failures []error
}

func (s *recordingSink) Render(_ context.Context, _ domain.Session, r *domain.PanoResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rendered = append(s.rendered, r)
	return nil
}

func (s *recordingSink) Fail(_ context.Context, _ domain.Session, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, err)
	return nil
}

var origin = domain.Coordinate{Lat: 45.5317, Lng: -73.5592}

func okData() *ports.PanoData {
	return &ports.PanoData{
		Location: ports.PanoLocation{
			PanoID: "pano-ok",
			LatLng: domain.Coordinate{Lat: 45.5318, Lng: -73.5592},
		},
		ImageDate: "2021-7",
		Time: []ports.CaptureRecord{
			{"pano": "old-1", "date": "2009-9"},
			{"pano": "old-2", "date": "2019-12"},
		},
	}
}

func miss() streetview.ScriptedResponse {
	return streetview.ScriptedResponse{Status: domain.StatusZeroResults}
}

func newFinder(t *testing.T, svc ports.PanoramaService) *PanoramaFinder {
	t.Helper()
	f, err := NewPanoramaFinder(svc, config.DefaultFinder(), nil)
	require.NoError(t, err)
	return f
}

func radii(calls []domain.PanoRequest) []float64 {
	out := make([]float64, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Radius)
	}
	return out
}

func TestFindPanoramaGivesUpAtCeiling(t *testing.T) {
	svc := streetview.NewFixtureService(nil, miss(), miss(), miss(), miss(), miss(), miss())
	sink := &recordingSink{}
	session := domain.Session{CaseID: "1", Origin: origin}

	result, err := newFinder(t, svc).Find(context.Background(), session, sink)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNoPanorama)
	assert.Equal(t, []float64{10, 35, 60, 85}, radii(svc.Calls()))
	assert.Len(t, sink.failures, 1)
	assert.Empty(t, sink.rendered)
}

func TestFindPanoramaFirstAttemptSucceeds(t *testing.T) {
	svc := streetview.NewFixtureService(nil, streetview.ScriptedResponse{Data: okData(), Status: domain.StatusOK})
	sink := &recordingSink{}

	result, err := newFinder(t, svc).Find(context.Background(), domain.Session{Origin: origin}, sink)

	require.NoError(t, err)
	assert.Len(t, svc.Calls(), 1)
	require.Len(t, sink.rendered, 1)
	assert.Same(t, result, sink.rendered[0])
	assert.Empty(t, sink.failures)

	assert.Equal(t, "pano-ok", result.PanoID)
	assert.Equal(t, "Jul 2021", result.CaptureDate.String())
	assert.Equal(t, 10.0, result.Radius)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, []domain.Capture{
		{PanoID: "old-1", Date: domain.YearMonth{Year: 2009, Month: time.September}},
		{PanoID: "old-2", Date: domain.YearMonth{Year: 2019, Month: time.December}},
	}, result.OtherCaptures)
	// Pano sits ~11m north of the origin, so the view faces south.
	assert.InDelta(t, 180, math.Abs(result.Heading), 0.01)
	assert.InDelta(t, 11.1, result.DistanceMeters, 0.5)
}

func TestFindPanoramaRecoversAfterMisses(t *testing.T) {
	svc := streetview.NewFixtureService(nil,
		miss(),
		streetview.ScriptedResponse{Err: errors.New("connection reset")},
		streetview.ScriptedResponse{Data: okData(), Status: domain.StatusOK},
	)
	sink := &recordingSink{}

	result, err := newFinder(t, svc).Find(context.Background(), domain.Session{Origin: origin}, sink)

	require.NoError(t, err)
	assert.Equal(t, []float64{10, 35, 60}, radii(svc.Calls()))
	assert.Equal(t, 60.0, result.Radius)
	assert.Equal(t, 3, result.Attempts)
	assert.Len(t, sink.rendered, 1)
}

func TestFindPanoramaTreatsMalformedDataAsMiss(t *testing.T) {
	bad := okData()
	bad.ImageDate = "sometime"

	svc := streetview.NewFixtureService(nil,
		streetview.ScriptedResponse{Data: bad, Status: domain.StatusOK},
		streetview.ScriptedResponse{Data: nil, Status: domain.StatusOK},
		streetview.ScriptedResponse{Data: okData(), Status: domain.StatusOK},
	)

	result, err := newFinder(t, svc).Find(context.Background(), domain.Session{Origin: origin}, &recordingSink{})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Attempts)
}

func TestFindPanoramaDoesNotMutateRequest(t *testing.T) {
	svc := streetview.NewFixtureService(nil, miss(), miss(), miss(), miss())
	f := newFinder(t, svc)

	req := f.NewRequest(origin)
	_, err := f.FindPanorama(context.Background(), domain.Session{Origin: origin}, req, &recordingSink{})

	require.ErrorIs(t, err, ErrNoPanorama)
	assert.Equal(t, 10.0, req.Radius)
	for _, c := range svc.Calls() {
		assert.Equal(t, domain.PreferenceNearest, c.Preference)
		assert.Equal(t, domain.SourceOutdoor, c.Source)
		assert.Equal(t, origin, c.Location)
	}
}

func TestFindPanoramaStopsOnCancelledContext(t *testing.T) {
	svc := streetview.NewFixtureService(nil, miss(), miss())
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newFinder(t, svc).Find(ctx, domain.Session{Origin: origin}, sink)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, svc.Calls())
	assert.Empty(t, sink.failures)
}

func TestFindPanoramaCustomTuning(t *testing.T) {
	svc := streetview.NewFixtureService(nil, miss(), miss(), miss())
	cfg := config.Finder{InitialRadius: 50, RadiusStep: 50, MaxRadius: 200}

	f, err := NewPanoramaFinder(svc, cfg, nil)
	require.NoError(t, err)

	_, err = f.Find(context.Background(), domain.Session{Origin: origin}, &recordingSink{})
	require.ErrorIs(t, err, ErrNoPanorama)
	assert.Equal(t, []float64{50, 100, 150}, radii(svc.Calls()))
}

func TestLookupPanorama(t *testing.T) {
	fixtures := []streetview.FixturePanorama{{
		PanoID:    "known",
		Location:  domain.Coordinate{Lat: 45.5316, Lng: -73.5592},
		ImageDate: "2018-3",
	}}
	svc := streetview.NewFixtureService(fixtures)
	f := newFinder(t, svc)
	sink := &recordingSink{}

	result, err := f.LookupPanorama(context.Background(), domain.Session{Origin: origin}, "known", sink)
	require.NoError(t, err)
	assert.Equal(t, "known", result.PanoID)
	assert.Equal(t, "Mar 2018", result.CaptureDate.String())
	assert.Empty(t, result.OtherCaptures)
	// Pano is south of the origin, so the view faces north.
	assert.InDelta(t, 0, result.Heading, 0.01)

	_, err = f.LookupPanorama(context.Background(), domain.Session{Origin: origin}, "unknown", sink)
	assert.ErrorIs(t, err, ErrNoPanorama)
	assert.Len(t, sink.failures, 1)
	assert.Len(t, svc.Calls(), 2)
}

func TestNewPanoramaFinderValidates(t *testing.T) {
	_, err := NewPanoramaFinder(nil, config.DefaultFinder(), nil)
	assert.Error(t, err)

	_, err = NewPanoramaFinder(streetview.NewFixtureService(nil), config.Finder{InitialRadius: 10, RadiusStep: 0, MaxRadius: 100}, nil)
	assert.Error(t, err)
}

func TestFindPanoramaLogsMissKind(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := streetview.NewFixtureService(nil,
		streetview.ScriptedResponse{Err: errors.New("connection reset")},
		miss(),
		streetview.ScriptedResponse{Status: domain.StatusOK},
		streetview.ScriptedResponse{Status: domain.StatusOverQueryLimit},
	)
	finder, err := NewPanoramaFinder(svc, config.DefaultFinder(), zap.New(core))
	require.NoError(t, err)

	_, err = finder.Find(context.Background(), domain.Session{Origin: origin}, &recordingSink{})
	require.ErrorIs(t, err, ErrNoPanorama)

	var kinds []string
	for _, e := range logs.FilterMessage("panorama miss, widening radius").All() {
		kinds = append(kinds, e.ContextMap()["miss"].(string))
	}
	assert.Equal(t, []string{"transport", "status", "malformed"}, kinds)

	giveUp := logs.FilterMessage("could not find panorama, giving up").All()
	require.Len(t, giveUp, 1)
	assert.Equal(t, "status", giveUp[0].ContextMap()["miss"])
	assert.Equal(t, string(domain.StatusOverQueryLimit), giveUp[0].ContextMap()["status"])
}
