package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"streetview-pano-service/internal/api/dto"
	"streetview-pano-service/internal/platform/obs"
	"streetview-pano-service/internal/ports"
	"streetview-pano-service/internal/services"

	"go.uber.org/zap"
)

// Screenshots are full-page captures; 20 MiB leaves room for base64 overhead.
const maxUploadBytes = 20 << 20

// UploadHandler accepts screenshots posted by screenshot clients.
type UploadHandler struct {
	Store ports.ScreenshotStore
	Log   *zap.Logger
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.UploadRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "body too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	key, err := services.SaveScreenshot(r.Context(), h.Store, services.ScreenshotUpload{
		CaseID:  req.ID,
		PanoID:  req.Pano,
		Date:    req.Date,
		DataURI: req.Img,
	})
	if errors.Is(err, services.ErrInvalidScreenshot) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		logger(h.Log).Error("save screenshot failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.UploadResponse{Status: "ok", Key: key})
}
