package handlers

import (
	"errors"
	"net/http"
	"streetview-pano-service/internal/adapters/render"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/platform/obs"
	"streetview-pano-service/internal/ports"
	"streetview-pano-service/internal/services"
	"strings"

	"go.uber.org/zap"
)

// Case shown by the viewer when no id is given.
const defaultCaseID = "0"

// PanoramaHandler serves panorama lookups, either as the viewer page read by
// screenshot clients or as JSON.
type PanoramaHandler struct {
	Finder  *services.PanoramaFinder
	Cases   ports.CaseRepository
	Results ports.ResultCache
	MapsKey string
	Log     *zap.Logger
}

// View renders the viewer page for a case: GET /?id=<case>.
func (h *PanoramaHandler) View(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		id = defaultCaseID
	}

	c, ok := h.lookupCase(w, r, id, false)
	if !ok {
		return
	}

	session := domain.Session{CaseID: c.CaseID, Origin: c.Location}
	_, err := h.Finder.Find(r.Context(), session, render.NewHTMLSink(w, h.MapsKey))
	h.finish(w, r, "view", err, false)
}

// Pano renders the viewer page for a known panorama facing lat/lng:
// GET /pano?pano_id=&lat=&lng=. Without pano_id the nearest panorama is looked up.
func (h *PanoramaHandler) Pano(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	origin, ok, err := queryCoordinate(r)
	if err != nil || !ok {
		http.Error(w, "lat and lng must be valid coordinates", http.StatusBadRequest)
		return
	}

	session := domain.Session{Origin: origin}
	sink := render.NewHTMLSink(w, h.MapsKey)

	if panoID := strings.TrimSpace(r.URL.Query().Get("pano_id")); panoID != "" {
		_, err = h.Finder.LookupPanorama(r.Context(), session, panoID, sink)
	} else {
		_, err = h.Finder.Find(r.Context(), session, sink)
	}
	h.finish(w, r, "pano", err, false)
}

// Lookup returns the panorama for a case or a coordinate as JSON:
// GET /panorama?id=<case> or GET /panorama?lat=&lng=.
// Case lookups are served from the result cache when possible.
func (h *PanoramaHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()
	sink := render.NewJSONSink(w)

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		origin, ok, err := queryCoordinate(r)
		if err != nil || !ok {
			writeError(w, r, http.StatusBadRequest, "either id or valid lat and lng are required")
			return
		}
		_, err = h.Finder.Find(ctx, domain.Session{Origin: origin}, sink)
		h.finish(w, r, "panorama", err, true)
		return
	}

	c, ok := h.lookupCase(w, r, id, true)
	if !ok {
		return
	}
	session := domain.Session{CaseID: c.CaseID, Origin: c.Location}

	if h.Results != nil {
		cached, err := h.Results.GetMany(ctx, []string{c.CaseID})
		if err != nil {
			logger(h.Log).Warn("result cache read failed", zap.String("req_id", obs.RequestID(ctx)), zap.Error(err))
		} else if res, hit := cached[c.CaseID]; hit {
			if err := sink.Render(ctx, session, res); err != nil {
				logger(h.Log).Warn("render cached result failed", zap.String("req_id", obs.RequestID(ctx)), zap.Error(err))
			}
			return
		}
	}

	res, err := h.Finder.Find(ctx, session, sink)
	if err != nil {
		h.finish(w, r, "panorama", err, true)
		return
	}

	if h.Results != nil {
		if err := h.Results.PutMany(ctx, map[string]*domain.PanoResult{c.CaseID: res}); err != nil {
			logger(h.Log).Warn("result cache write failed",
				zap.String("req_id", obs.RequestID(ctx)),
				zap.String("case_id", c.CaseID),
				zap.Error(err),
			)
		}
	}
}

func (h *PanoramaHandler) lookupCase(w http.ResponseWriter, r *http.Request, id string, asJSON bool) (*domain.Case, bool) {
	c, err := h.Cases.GetCase(r.Context(), id)
	if err == nil {
		return c, true
	}

	status, msg := http.StatusInternalServerError, "internal server error"
	if errors.Is(err, ports.ErrNotFound) {
		status, msg = http.StatusNotFound, "unknown case id"
	} else {
		logger(h.Log).Error("get case failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("case_id", id),
			zap.Error(err),
		)
	}

	if asJSON {
		writeError(w, r, status, msg)
	} else {
		http.Error(w, msg, status)
	}
	return nil, false
}

// finish handles errors returned by the finder. The sink has already written
// the response for ErrNoPanorama; anything else failed before a response was
// written.
func (h *PanoramaHandler) finish(w http.ResponseWriter, r *http.Request, op string, err error, asJSON bool) {
	if err == nil || errors.Is(err, services.ErrNoPanorama) {
		return
	}

	logger(h.Log).Error(op+" failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
	if r.Context().Err() != nil {
		return
	}

	if asJSON {
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	} else {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
