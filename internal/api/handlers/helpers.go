package handlers

import (
	"encoding/json"
	"net/http"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/platform/obs"
	"strings"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// Parse the lat/lng query parameters. ok is false when neither is present.
func queryCoordinate(r *http.Request) (c domain.Coordinate, ok bool, err error) {
	lat, lng := strings.TrimSpace(r.URL.Query().Get("lat")), strings.TrimSpace(r.URL.Query().Get("lng"))
	if lat == "" && lng == "" {
		return domain.Coordinate{}, false, nil
	}
	c, err = domain.ParseCoordinate(lat, lng)
	return c, true, err
}

func logger(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.L()
	}
	return log
}
