package render

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"streetview-pano-service/internal/domain"
)

type panoramaResponse struct {
	CaseID string             `json:"case_id,omitempty"`
	Origin domain.Coordinate  `json:"origin"`
	Pitch  float64            `json:"pitch"`
	Result *domain.PanoResult `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// JSONSink writes the lookup outcome as a JSON API response.
type JSONSink struct {
	w http.ResponseWriter
}

func NewJSONSink(w http.ResponseWriter) *JSONSink {
	return &JSONSink{w: w}
}

func (s *JSONSink) Render(_ context.Context, session domain.Session, result *domain.PanoResult) error {
	return s.write(http.StatusOK, panoramaResponse{
		CaseID: session.CaseID,
		Origin: session.Origin,
		Result: result,
	})
}

func (s *JSONSink) Fail(_ context.Context, _ domain.Session, _ error) error {
	return s.write(http.StatusNotFound, errorResponse{Error: "no panorama found"})
}

func (s *JSONSink) write(status int, v any) error {
	s.w.Header().Set("Content-Type", "application/json")
	s.w.WriteHeader(status)
	if err := json.NewEncoder(s.w).Encode(v); err != nil {
		return fmt.Errorf("render json: encode: %w", err)
	}
	return nil
}
