package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/synop-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// ReportService encodes reports on request. It is implemented by pipeline.Service.
type ReportService interface {
	HandleCard(ctx context.Context, source string, card domain.ObservationCard) (domain.SynopticReport, bool, error)
	StationReport(ctx context.Context, station string, at time.Time) (domain.SynopticReport, error)
	EncodeReadings(met *domain.MeteorologicalReading, obs *domain.WeatherObservation, station string, observedAt time.Time) (domain.SynopticReport, error)
}

// Server exposes health, readiness, metrics, and the report API.
type Server struct {
	httpServer *http.Server
	svc        ReportService
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the probe routes and the /v1 report routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, svc ReportService, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/synop", s.handleEncode)
	mux.HandleFunc("POST /v1/cards", s.handleCard)
	mux.HandleFunc("GET /v1/stations/{station}/synop", s.handleStationReport)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// encodeRequest carries both cards of one station inline.
type encodeRequest struct {
	StationNumber  domain.FieldValue             `json:"station_number"`
	ObservedAt     time.Time                     `json:"observed_at"`
	Meteorological *domain.MeteorologicalReading `json:"meteorological"`
	Weather        *domain.WeatherObservation    `json:"weather"`
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var req encodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	report, err := s.svc.EncodeReadings(req.Meteorological, req.Weather, req.StationNumber.String(), req.ObservedAt)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", domain.ErrInvalidCard, err))
		return
	}
	card, err := domain.ParseObservationCard(domain.RawEvent{Value: body, Timestamp: domain.Now()})
	if err != nil {
		s.writeError(w, err)
		return
	}

	report, complete, err := s.svc.HandleCard(r.Context(), "http", card)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !complete {
		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":         "pending",
			"station_number": card.StationNumber,
			"observing_time": card.ObservingTime(),
		})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStationReport(w http.ResponseWriter, r *http.Request) {
	var at time.Time
	if v := r.URL.Query().Get("at"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "at must be an RFC 3339 timestamp"})
			return
		}
		at = parsed
	}

	report, err := s.svc.StationReport(r.Context(), r.PathValue("station"), at)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

var errMalformedBody = errors.New("malformed request body")

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errMalformedBody, err)
	}
	return nil
}

// writeError maps domain errors to status codes. Unexpected errors are logged
// and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrObservationNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": domain.ErrObservationNotFound.Error()})
	case errors.Is(err, domain.ErrStationNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCard),
		errors.Is(err, domain.ErrInvalidStation),
		errors.Is(err, errMalformedBody):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client gone
}
