// Package httpapi exposes the booking service over HTTP. Each calendar is
// one session of the action runner; requests and payment outcomes become
// inputs, snapshots and slot searches are read only. Incoming requests are
// validated against the embedded OpenAPI document before handlers run.
package httpapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"

	"github.com/aretw0/perennial"
	"github.com/aretw0/perennial/internal/logging"
	"github.com/aretw0/perennial/pkg/booking"
	"github.com/aretw0/perennial/pkg/ports"
)

//go:embed openapi.yaml
var specYAML []byte

// Host is the part of the action runner the HTTP surface drives.
type Host interface {
	Handle(ctx context.Context, sessionID string, input booking.Input) (*booking.System, error)
	Snapshot(ctx context.Context, sessionID string) (*booking.System, error)
	Sessions(ctx context.Context) ([]string, error)
}

var _ Host = (*booking.Runner)(nil)

// Server holds the handler dependencies.
type Server struct {
	host   Host
	doc    *openapi3.T
	logger *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger used for request and error logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewHandler builds the HTTP handler for the booking service.
func NewHandler(host Host, opts ...Option) (http.Handler, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}

	s := &Server{host: host, doc: doc, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	validate, err := validationMiddleware(doc)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))
	r.Use(validate)

	r.Get("/healthz", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/openapi.yaml", s.getSpec)
	r.Get("/swagger", s.getSwaggerUI)
	r.Get("/calendars", s.listCalendars)
	r.Route("/calendars/{calendarID}", func(r chi.Router) {
		r.Get("/", s.getCalendar)
		r.Get("/slots", s.findSlot)
		r.Post("/requests", s.createRequest)
		r.Post("/payments/{requestID}", s.resolvePayment)
	})

	return enableCORS(r), nil
}

// createRequest handles POST /calendars/{calendarID}/requests.
func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	calendarID := chi.URLParam(r, "calendarID")

	var body BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		s.logger.Warn("createRequest: invalid body", "err", err, "calendar_id", calendarID)
		return
	}
	req, err := body.toDomain()
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	state, err := s.host.Handle(r.Context(), calendarID, booking.NormalInput(req))
	if err != nil {
		s.writeTransitionError(w, calendarID, err)
		return
	}

	id := state.NextID - 1
	record, ok := state.Pending[id]
	if !ok {
		http.Error(w, "Request record missing after accept", http.StatusInternalServerError)
		s.logger.Error("createRequest: minted id has no record", "calendar_id", calendarID, "request_id", uint64(id))
		return
	}
	s.writeJSON(w, http.StatusCreated, recordFromDomain(id, record))
}

// resolvePayment handles POST /calendars/{calendarID}/payments/{requestID}.
func (s *Server) resolvePayment(w http.ResponseWriter, r *http.Request) {
	calendarID := chi.URLParam(r, "calendarID")
	rawID := chi.URLParam(r, "requestID")
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request id %q", rawID), http.StatusBadRequest)
		return
	}

	var body PaymentOutcome
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		s.logger.Warn("resolvePayment: invalid body", "err", err, "calendar_id", calendarID)
		return
	}
	result, err := body.toDomain()
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	state, err := s.host.Handle(r.Context(), calendarID, booking.CompletionInput(booking.RequestID(id), result))
	if err != nil {
		s.writeTransitionError(w, calendarID, err)
		return
	}

	record, ok := state.Pending[booking.RequestID(id)]
	if !ok {
		http.Error(w, fmt.Sprintf("Request %d not found", id), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, recordFromDomain(booking.RequestID(id), record))
}

// getCalendar handles GET /calendars/{calendarID}.
func (s *Server) getCalendar(w http.ResponseWriter, r *http.Request) {
	calendarID := chi.URLParam(r, "calendarID")
	state, err := s.snapshot(w, r, calendarID)
	if err != nil {
		return
	}
	s.writeJSON(w, http.StatusOK, calendarFromDomain(calendarID, state))
}

// findSlot handles GET /calendars/{calendarID}/slots.
func (s *Server) findSlot(w http.ResponseWriter, r *http.Request) {
	calendarID := chi.URLParam(r, "calendarID")

	service, err := booking.ParseService(r.URL.Query().Get("service"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	days, err := booking.ParseDays(splitList(r.URL.Query().Get("days")))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	windows, err := booking.ParseWindows(splitList(r.URL.Query().Get("windows")))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	state, err := s.snapshot(w, r, calendarID)
	if err != nil {
		return
	}

	resp := SlotQuery{Service: string(service)}
	if slot, ok := state.FindSlot(days, windows, service.DurationMinutes()); ok {
		resp.Found = true
		resp.Slot = ptr(slotFromDomain(slot))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// listCalendars handles GET /calendars.
func (s *Server) listCalendars(w http.ResponseWriter, r *http.Request) {
	ids, err := s.host.Sessions(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("listCalendars failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	slices.Sort(ids)
	s.writeJSON(w, http.StatusOK, CalendarList{Calendars: ids})
}

// getHealth handles GET /healthz.
func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getInfo handles GET /info.
func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.doc.Info != nil {
		apiVersion = s.doc.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "perennial-http",
		"version":     strings.TrimSpace(perennial.Version),
		"api_version": apiVersion,
	})
}

// getSpec serves the embedded OpenAPI document.
func (s *Server) getSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	w.Write(specYAML)
}

// getSwaggerUI serves a Swagger UI page pointed at the embedded document.
func (s *Server) getSwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(swaggerHTML))
}

// snapshot loads a calendar and writes the error response itself when the
// calendar is missing or the load fails.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request, calendarID string) (*booking.System, error) {
	state, err := s.host.Snapshot(r.Context(), calendarID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			http.Error(w, fmt.Sprintf("Calendar %q not found", calendarID), http.StatusNotFound)
			return nil, err
		}
		http.Error(w, fmt.Sprintf("Snapshot error: %v", err), http.StatusInternalServerError)
		s.logger.Error("snapshot failed", "err", err, "calendar_id", calendarID)
		return nil, err
	}
	return state, nil
}

// writeTransitionError maps machine errors onto HTTP statuses.
func (s *Server) writeTransitionError(w http.ResponseWriter, calendarID string, err error) {
	switch {
	case errors.Is(err, booking.ErrSlotNotAvailable), errors.Is(err, booking.ErrNoSlotFound):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrUnknownService):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrUnknownRequest):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, fmt.Sprintf("Transition error: %v", err), http.StatusInternalServerError)
		s.logger.Error("transition failed", "err", err, "calendar_id", calendarID)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Perennial API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`
