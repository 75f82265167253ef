package streetview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/platform/obs"
	"streetview-pano-service/internal/ports"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com"
	metadataPath   = "/maps/api/streetview/metadata"
)

type metadataResponse struct {
	Status   string `json:"status"`
	PanoID   string `json:"pano_id"`
	Date     string `json:"date"`
	Location *struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
	Time         []map[string]any `json:"time"`
	ErrorMessage string           `json:"error_message"`
}

// GoogleStreetView implements PanoramaService using the Street View
// metadata endpoint.
//
// The endpoint has no "preference" parameter: it always answers with the
// panorama nearest to the location within the radius. The client is safe
// for concurrent use.
type GoogleStreetView struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	maxAttempts int
	backoff     time.Duration
	log         *zap.Logger
}

type Option func(*GoogleStreetView)

// WithBaseURL points the client at another host (tests, proxies).
func WithBaseURL(u string) Option {
	return func(g *GoogleStreetView) { g.baseURL = u }
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *GoogleStreetView) { g.session = c }
}

// WithRetry sets the transport attempt budget and the first backoff delay.
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(g *GoogleStreetView) {
		g.maxAttempts = maxAttempts
		g.backoff = backoff
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(g *GoogleStreetView) { g.log = log }
}

func NewGoogleStreetView(apiKey string, opts ...Option) (*GoogleStreetView, error) {
	if apiKey == "" {
		return nil, errors.New("street view api key is empty")
	}

	g := &GoogleStreetView{
		session:     &http.Client{Timeout: 10 * time.Second},
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.maxAttempts < 1 {
		g.maxAttempts = 1
	}

	return g, nil
}

// query builds the metadata query string for a request.
func (g *GoogleStreetView) query(req domain.PanoRequest) url.Values {
	q := url.Values{}
	if req.PanoID != "" {
		q.Set("pano", req.PanoID)
	} else {
		q.Set("location", req.Location.String())
		q.Set("radius", strconv.FormatFloat(req.Radius, 'f', -1, 64))
		if req.Source != "" {
			q.Set("source", string(req.Source))
		}
	}
	q.Set("key", g.apiKey)
	return q
}

func (g *GoogleStreetView) GetPanorama(
	ctx context.Context,
	req domain.PanoRequest,
) (_ *ports.PanoData, _ domain.ServiceStatus, err error) {
	defer obs.Time(ctx, g.log, "streetview.GetPanorama")(&err)

	endpoint := g.baseURL + metadataPath + "?" + g.query(req).Encode()

	resp, err := g.doWithRetry(ctx, func() (*http.Request, error) {
		return g.newRequest(ctx, endpoint)
	})
	if err != nil {
		return nil, "", fmt.Errorf("metadata request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, "", fmt.Errorf("decode metadata response: %w", err)
	}

	status := domain.ParseServiceStatus(decoded.Status)
	if !status.OK() {
		if decoded.ErrorMessage != "" {
			g.log.Debug("street view status",
				zap.String("status", decoded.Status),
				zap.String("error_message", decoded.ErrorMessage),
			)
		}
		return nil, status, nil
	}

	if decoded.Location == nil {
		return nil, status, fmt.Errorf("metadata response for %q has no location", decoded.PanoID)
	}

	records := make([]ports.CaptureRecord, 0, len(decoded.Time))
	for _, t := range decoded.Time {
		records = append(records, ports.CaptureRecord(t))
	}

	return &ports.PanoData{
		Location: ports.PanoLocation{
			PanoID: decoded.PanoID,
			LatLng: domain.Coordinate{Lat: decoded.Location.Lat, Lng: decoded.Location.Lng},
		},
		ImageDate: decoded.Date,
		Time:      records,
	}, status, nil
}
