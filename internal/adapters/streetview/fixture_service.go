package streetview

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/ports"
	"sync"

	"github.com/paulmach/orb/geo"
)

// A canned reply, consumed in order before fixtures are consulted.
type ScriptedResponse struct {
	Data   *ports.PanoData
	Status domain.ServiceStatus
	Err    error
}

// A panorama the fixture service knows about.
type FixturePanorama struct {
	PanoID    string                `json:"pano_id"`
	Location  domain.Coordinate     `json:"location"`
	ImageDate string                `json:"date"`
	Time      []ports.CaptureRecord `json:"time"`
}

// FixtureService is an in-memory PanoramaService for tests and offline runs.
//
// Scripted responses are returned first, one per call. Once they run out,
// a request is answered with the fixture closest to its location within its
// radius (or by id), else ZERO_RESULTS. It is safe for concurrent use.
type FixtureService struct {
	mu       sync.Mutex
	script   []ScriptedResponse
	fixtures []FixturePanorama
	calls    []domain.PanoRequest
}

func NewFixtureService(fixtures []FixturePanorama, script ...ScriptedResponse) *FixtureService {
	return &FixtureService{
		script:   script,
		fixtures: fixtures,
	}
}

// LoadFixtureService reads a JSON array of FixturePanorama.
func LoadFixtureService(path string) (*FixtureService, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load fixtures: read %q: %w", path, err)
	}

	var fixtures []FixturePanorama
	if err := json.Unmarshal(b, &fixtures); err != nil {
		return nil, fmt.Errorf("load fixtures: parse json: %w", err)
	}

	for i, f := range fixtures {
		if f.PanoID == "" {
			return nil, fmt.Errorf("load fixtures: entry %d: pano_id cannot be empty", i+1)
		}
	}

	return NewFixtureService(fixtures), nil
}

func (s *FixtureService) GetPanorama(ctx context.Context, req domain.PanoRequest) (*ports.PanoData, domain.ServiceStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, req)

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	if len(s.script) > 0 {
		r := s.script[0]
		s.script = s.script[1:]
		return r.Data, r.Status, r.Err
	}

	best := -1
	bestDist := math.Inf(1)
	for i, f := range s.fixtures {
		if req.PanoID != "" {
			if f.PanoID == req.PanoID {
				best = i
				break
			}
			continue
		}

		d := geo.Distance(f.Location.Point(), req.Location.Point())
		if d <= req.Radius && d < bestDist {
			best, bestDist = i, d
		}
	}

	if best < 0 {
		return nil, domain.StatusZeroResults, nil
	}

	f := s.fixtures[best]
	return &ports.PanoData{
		Location:  ports.PanoLocation{PanoID: f.PanoID, LatLng: f.Location},
		ImageDate: f.ImageDate,
		Time:      f.Time,
	}, domain.StatusOK, nil
}

// Calls returns a copy of every request received, in order.
func (s *FixtureService) Calls() []domain.PanoRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.PanoRequest, len(s.calls))
	copy(out, s.calls)
	return out
}
