package handlers

import (
	"net/http"

	"go-marketplace/internal/common/clientprotocol"
	"go-marketplace/internal/marketplace/feature"
	"go-marketplace/internal/marketplace/location"
	"go-marketplace/pkg/logging"

	"github.com/go-chi/chi/v5"
)

type LocationRegistry interface {
	Entries() []location.Entry
	Lookup(loc location.Location) (location.Entry, bool)
}

type LocationsHandler struct {
	registry LocationRegistry
	logger   *logging.ZapLogger
}

func NewLocationsHandler(registry LocationRegistry, logger *logging.ZapLogger) *LocationsHandler {
	return &LocationsHandler{
		registry: registry,
		logger:   logger,
	}
}

func (h *LocationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entries := h.registry.Entries()
	res := make([]clientprotocol.Location, 0, len(entries))
	for _, e := range entries {
		res = append(res, locationDTO(e))
	}
	writeResponse(r.Context(), w, h.logger, http.StatusOK, res)
}

type LocationHandler struct {
	registry LocationRegistry
	logger   *logging.ZapLogger
}

func NewLocationHandler(registry LocationRegistry, logger *logging.ZapLogger) *LocationHandler {
	return &LocationHandler{
		registry: registry,
		logger:   logger,
	}
}

func (h *LocationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	loc, err := location.Parse(chi.URLParam(r, "location"))
	if err != nil {
		WriteError(r.Context(), w, h.logger, http.StatusNotFound, err.Error())
		return
	}
	entry, ok := h.registry.Lookup(loc)
	if !ok {
		WriteError(r.Context(), w, h.logger, http.StatusNotFound, "location is not configured")
		return
	}
	writeResponse(r.Context(), w, h.logger, http.StatusOK, locationDTO(entry))
}

func locationDTO(e location.Entry) clientprotocol.Location {
	return clientprotocol.Location{
		Location:        string(e.Location),
		Country:         e.Country,
		DefaultCurrency: string(e.DefaultCurrency),
		Features:        featureNames(e.Features.Sorted()),
	}
}

func featureNames(names []feature.Name) []string {
	res := make([]string, 0, len(names))
	for _, n := range names {
		res = append(res, string(n))
	}
	return res
}
