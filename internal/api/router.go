package api

import (
	"net/http"
	"streetview-pano-service/internal/api/handlers"
	"streetview-pano-service/internal/ports"
	"streetview-pano-service/internal/services"

	"go.uber.org/zap"
)

type Deps struct {
	Finder      *services.PanoramaFinder
	Cases       ports.CaseRepository
	Results     ports.ResultCache
	Screenshots ports.ScreenshotStore
	MapsKey     string
	Log         *zap.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	mux := http.NewServeMux()

	caseHandler := &handlers.CaseHandler{Repo: d.Cases, Log: log}
	panoHandler := &handlers.PanoramaHandler{
		Finder:  d.Finder,
		Cases:   d.Cases,
		Results: d.Results,
		MapsKey: d.MapsKey,
		Log:     log,
	}
	uploadHandler := &handlers.UploadHandler{Store: d.Screenshots, Log: log}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/cases", caseHandler.List)
	mux.HandleFunc("/", panoHandler.View)
	mux.HandleFunc("/pano", panoHandler.Pano)
	mux.HandleFunc("/panorama", panoHandler.Lookup)
	mux.HandleFunc("/upload", uploadHandler.Upload)

	return requestIDMiddleware(loggingMiddleware(log, mux))
}
