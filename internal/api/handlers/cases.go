package handlers

import (
	"net/http"
	"streetview-pano-service/internal/api/dto"
	"streetview-pano-service/internal/platform/obs"
	"streetview-pano-service/internal/ports"

	"go.uber.org/zap"
)

// CaseHandler exposes read-only case retrieval endpoints.
type CaseHandler struct {
	Repo ports.CaseRepository
	Log  *zap.Logger
}

func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	cases, err := h.Repo.ListCases(r.Context())
	if err != nil {
		logger(h.Log).Error("list cases failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListCasesResponse{
		Cases: make([]dto.CaseResponse, 0, len(cases)),
	}
	for _, c := range cases {
		res.Cases = append(res.Cases, dto.CaseResponse{
			CaseID: c.CaseID,
			Lat:    c.Location.Lat,
			Lng:    c.Location.Lng,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
