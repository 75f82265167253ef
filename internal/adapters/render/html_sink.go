package render

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"streetview-pano-service/internal/domain"
)

//go:embed templates/view.html
var templateFS embed.FS

var viewTemplate = template.Must(template.ParseFS(templateFS, "templates/view.html"))

// Message shown in the blocking alert when no panorama could be found.
const alertMessage = "ERROR"

type viewData struct {
	CaseID     string
	PanoID     string
	Date       string
	OtherPanos string
	Heading    float64
	Origin     domain.Coordinate
	MapsKey    string
	Error      string
}

// HTMLSink renders the panorama viewer page to an HTTP response.
// The page exposes the pano id, capture date and the JSON list of other
// captures in the initial-pano, current-date and other-panos slots, which
// screenshot clients read. One sink serves one response.
type HTMLSink struct {
	w       http.ResponseWriter
	mapsKey string
}

func NewHTMLSink(w http.ResponseWriter, mapsKey string) *HTMLSink {
	return &HTMLSink{w: w, mapsKey: mapsKey}
}

func (s *HTMLSink) Render(_ context.Context, session domain.Session, result *domain.PanoResult) error {
	others, err := json.Marshal(result.OtherCaptures)
	if err != nil {
		return fmt.Errorf("render html: marshal other captures: %w", err)
	}

	return s.write(http.StatusOK, viewData{
		CaseID:     session.CaseID,
		PanoID:     result.PanoID,
		Date:       result.CaptureDate.String(),
		OtherPanos: string(others),
		Heading:    result.Heading,
		Origin:     session.Origin,
		MapsKey:    s.mapsKey,
	})
}

func (s *HTMLSink) Fail(_ context.Context, session domain.Session, _ error) error {
	return s.write(http.StatusNotFound, viewData{
		CaseID: session.CaseID,
		Origin: session.Origin,
		Error:  alertMessage,
	})
}

// write renders into a buffer first so template errors never leave a half-written page.
func (s *HTMLSink) write(status int, data viewData) error {
	var buf bytes.Buffer
	if err := viewTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render html: execute template: %w", err)
	}

	s.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.w.WriteHeader(status)
	if _, err := buf.WriteTo(s.w); err != nil {
		return fmt.Errorf("render html: write response: %w", err)
	}
	return nil
}
