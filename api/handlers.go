package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/skycarbon/skycarbon/types"
)

type healthResponse struct {
	Status    string     `json:"status"`
	Store     bool       `json:"store"`
	Heartbeat *time.Time `json:"heartbeat,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type startupResponse struct {
	Startup int64 `json:"startup"`
}

type totalResponse struct {
	Airspace string  `json:"airspace"`
	CO2      float64 `json:"co2"`
}

type hourlyResponse struct {
	Airspace string           `json:"airspace"`
	Hourly   []types.Snapshot `json:"hourly"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleHealth is not cached: a 304 on a health probe would hide staleness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	resp := healthResponse{Status: "ok", Store: true}
	if err := s.reader.IsRunning(ctx); err != nil {
		resp = healthResponse{Status: "unavailable", Error: err.Error()}
		s.writeJSON(w, r, http.StatusServiceUnavailable, resp, false)

		return
	}

	hb, err := s.reader.GetHeartbeat(ctx)
	if err == nil && !hb.IsZero() {
		resp.Heartbeat = &hb
	}

	s.writeJSON(w, r, http.StatusOK, resp, false)
}

func (s *Server) handleStartup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	t, err := s.reader.GetStartupTime(ctx)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if t.IsZero() {
		s.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "startup time not recorded"}, false)
		return
	}

	s.writeJSON(w, r, http.StatusOK, startupResponse{Startup: t.Unix()}, true)
}

func (s *Server) handleAirspaces(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	airspaces, err := s.reader.GetAirspaces(ctx)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, airspaces, true)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	airspaces, err := s.reader.GetAirspaces(ctx)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	totals := make(map[string]float64, len(airspaces))
	for name := range airspaces {
		v, err := s.reader.GetTotalCarbon(ctx, name)
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		totals[name] = v
	}

	s.writeJSON(w, r, http.StatusOK, totals, true)
}

func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	id := r.PathValue("id")
	if err := s.requireAirspace(ctx, id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	v, err := s.reader.GetTotalCarbon(ctx, id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, totalResponse{Airspace: id, CO2: v}, true)
}

func (s *Server) handleHourly(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	id := r.PathValue("id")
	if err := s.requireAirspace(ctx, id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	snaps, err := s.reader.GetHourlySnapshots(ctx, id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, hourlyResponse{Airspace: id, Hourly: snaps}, true)
}

func (s *Server) requireAirspace(ctx context.Context, id string) error {
	airspaces, err := s.reader.GetAirspaces(ctx)
	if err != nil {
		return err
	}
	if _, ok := airspaces[id]; !ok {
		return fmt.Errorf("%w: %s", types.ErrUnknownAirspace, id)
	}

	return nil
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrUnknownAirspace):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status != http.StatusNotFound {
		s.logger.Warn("api request failed", "path", r.URL.Path, "error", err)
	}

	s.writeJSON(w, r, status, errorResponse{Error: err.Error()}, false)
}

// writeJSON encodes v; cacheable responses get an ETag and honour If-None-Match.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any, cacheable bool) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("api encode failed", "path", r.URL.Path, "error", err)
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)

		return
	}
	body = append(body, '\n')

	h := w.Header()
	h.Set("Content-Type", "application/json")

	if cacheable {
		etag := fmt.Sprintf(`"%016x"`, xxh3.Hash(body))
		h.Set("ETag", etag)
		h.Set("Cache-Control", "no-cache")
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	} else {
		h.Set("Cache-Control", "no-store")
	}

	w.WriteHeader(status)
	_, _ = w.Write(body)
}
