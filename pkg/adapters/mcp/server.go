// Package mcp exposes the booking service as a Model Context Protocol
// server so agents can check availability, place holds, and deliver
// payment outcomes as tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/perennial"
	"github.com/aretw0/perennial/internal/logging"
	"github.com/aretw0/perennial/pkg/booking"
	"github.com/aretw0/perennial/pkg/ports"
)

// Host is the part of the action runner the MCP tools drive.
type Host interface {
	Handle(ctx context.Context, sessionID string, input booking.Input) (*booking.System, error)
	Snapshot(ctx context.Context, sessionID string) (*booking.System, error)
	Sessions(ctx context.Context) ([]string, error)
}

var _ Host = (*booking.Runner)(nil)

// SlotReport is the structured result of an availability check.
type SlotReport struct {
	Service string `json:"service" jsonschema_description:"Service the search was for"`
	Found   bool   `json:"found" jsonschema_description:"Whether a free slot was found"`
	Day     string `json:"day,omitempty" jsonschema_description:"Day of the first free slot"`
	Time    string `json:"time,omitempty" jsonschema_description:"Start time of the first free slot"`
}

// BookingReport is the structured result of a booking or payment tool call.
type BookingReport struct {
	RequestID uint64 `json:"request_id" jsonschema_description:"Identity of the booking request"`
	Status    string `json:"status" jsonschema_description:"Lifecycle status of the request"`
	Service   string `json:"service" jsonschema_description:"Requested service"`
	Day       string `json:"day" jsonschema_description:"Day of the held slot"`
	Time      string `json:"time" jsonschema_description:"Start time of the held slot"`
	Customer  string `json:"customer" jsonschema_description:"Customer the request is for"`
}

// Server wraps the booking host and exposes it as an MCP server.
type Server struct {
	host      Host
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger used by the SSE transport and tool handlers.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates an MCP server around the booking host.
func NewServer(host Host, opts ...Option) *Server {
	s := &Server{
		host:      host,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("perennial-mcp", strings.TrimSpace(perennial.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: check_availability
	checkTool := mcp.NewTool("check_availability",
		mcp.WithDescription("Find the first free slot for a service without placing a hold."),
		mcp.WithString("calendar_id", mcp.Required(), mcp.Description("Calendar to search")),
		mcp.WithString("service", mcp.Required(), mcp.Description("Service name: consultation, maintenance, planting, or landscaping")),
		mcp.WithString("days", mcp.Description("Comma separated day names in preference order (optional, default any day)")),
		mcp.WithString("windows", mcp.Description("Comma separated HH:MM-HH:MM windows in preference order (optional, default any time)")),
		mcp.WithOutputSchema[SlotReport](),
	)
	s.mcpServer.AddTool(checkTool, mcp.NewStructuredToolHandler(s.handleCheckAvailability))

	// TOOL: request_booking
	requestTool := mcp.NewTool("request_booking",
		mcp.WithDescription("Ask for an appointment. Places a payment hold; the booking is final once the payment resolves."),
		mcp.WithString("calendar_id", mcp.Required(), mcp.Description("Calendar to book on")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("\"exact\" for one specific slot, \"auto\" to search preferences")),
		mcp.WithNumber("customer_id", mcp.Required(), mcp.Description("Numeric customer identity")),
		mcp.WithString("customer_name", mcp.Required(), mcp.Description("Customer display name")),
		mcp.WithString("customer_email", mcp.Description("Customer email (optional)")),
		mcp.WithString("service", mcp.Required(), mcp.Description("Service name")),
		mcp.WithString("day", mcp.Description("Slot day for exact requests")),
		mcp.WithString("time", mcp.Description("Slot start HH:MM for exact requests")),
		mcp.WithString("days", mcp.Description("Comma separated day preferences for auto requests")),
		mcp.WithString("windows", mcp.Description("Comma separated window preferences for auto requests")),
		mcp.WithOutputSchema[BookingReport](),
	)
	s.mcpServer.AddTool(requestTool, mcp.NewStructuredToolHandler(s.handleRequestBooking))

	// TOOL: resolve_payment
	resolveTool := mcp.NewTool("resolve_payment",
		mcp.WithDescription("Deliver a payment outcome for a booking request, as the gateway would."),
		mcp.WithString("calendar_id", mcp.Required(), mcp.Description("Calendar the request belongs to")),
		mcp.WithNumber("request_id", mcp.Required(), mcp.Description("Booking request identity")),
		mcp.WithString("outcome", mcp.Required(), mcp.Description("One of success, failed, released, pending")),
		mcp.WithNumber("amount_cents", mcp.Description("Authorized amount in cents for success outcomes")),
		mcp.WithString("reason", mcp.Description("Decline reason for failed outcomes")),
		mcp.WithOutputSchema[BookingReport](),
	)
	s.mcpServer.AddTool(resolveTool, mcp.NewStructuredToolHandler(s.handleResolvePayment))

	// TOOL: get_calendar
	s.mcpServer.AddTool(mcp.NewTool("get_calendar",
		mcp.WithDescription("Get the full state of one calendar: schedule, bookings, and the request ledger."),
		mcp.WithString("calendar_id", mcp.Required(), mcp.Description("Calendar to fetch")),
	), s.handleGetCalendar)
}

// Handler methods for structured tools

type availabilityArgs struct {
	CalendarID string `mapstructure:"calendar_id"`
	Service    string `mapstructure:"service"`
	Days       string `mapstructure:"days"`
	Windows    string `mapstructure:"windows"`
}

func (s *Server) handleCheckAvailability(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SlotReport, error) {
	var in availabilityArgs
	if err := mapstructure.Decode(args, &in); err != nil {
		return SlotReport{}, fmt.Errorf("decode arguments: %w", err)
	}

	service, err := booking.ParseService(in.Service)
	if err != nil {
		return SlotReport{}, err
	}
	days, err := booking.ParseDays(splitList(in.Days))
	if err != nil {
		return SlotReport{}, err
	}
	windows, err := booking.ParseWindows(splitList(in.Windows))
	if err != nil {
		return SlotReport{}, err
	}

	state, err := s.host.Snapshot(ctx, in.CalendarID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return SlotReport{}, fmt.Errorf("calendar %q not found", in.CalendarID)
		}
		return SlotReport{}, fmt.Errorf("snapshot failed: %w", err)
	}

	report := SlotReport{Service: string(service)}
	if slot, ok := state.FindSlot(days, windows, service.DurationMinutes()); ok {
		report.Found = true
		report.Day = slot.Day.String()
		report.Time = slot.Time.String()
	}
	return report, nil
}

type bookingArgs struct {
	CalendarID    string `mapstructure:"calendar_id"`
	Kind          string `mapstructure:"kind"`
	CustomerID    uint64 `mapstructure:"customer_id"`
	CustomerName  string `mapstructure:"customer_name"`
	CustomerEmail string `mapstructure:"customer_email"`
	Service       string `mapstructure:"service"`
	Day           string `mapstructure:"day"`
	Time          string `mapstructure:"time"`
	Days          string `mapstructure:"days"`
	Windows       string `mapstructure:"windows"`
}

func (s *Server) handleRequestBooking(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (BookingReport, error) {
	var in bookingArgs
	if err := mapstructure.Decode(args, &in); err != nil {
		return BookingReport{}, fmt.Errorf("decode arguments: %w", err)
	}

	req, err := in.toRequest()
	if err != nil {
		return BookingReport{}, err
	}

	state, err := s.host.Handle(ctx, in.CalendarID, booking.NormalInput(req))
	if err != nil {
		return BookingReport{}, fmt.Errorf("booking request failed: %w", err)
	}

	id := state.NextID - 1
	record, ok := state.Pending[id]
	if !ok {
		return BookingReport{}, fmt.Errorf("request record missing after accept")
	}
	s.logger.Info("booking requested", "calendar_id", in.CalendarID, "request_id", uint64(id))
	return reportFrom(id, record), nil
}

func (in bookingArgs) toRequest() (booking.Request, error) {
	service, err := booking.ParseService(in.Service)
	if err != nil {
		return booking.Request{}, err
	}
	customer := booking.Customer{ID: in.CustomerID, Name: in.CustomerName, Email: in.CustomerEmail}

	switch in.Kind {
	case string(booking.RequestExact):
		day, err := booking.ParseDay(in.Day)
		if err != nil {
			return booking.Request{}, err
		}
		start, err := booking.ParseTime(in.Time)
		if err != nil {
			return booking.Request{}, err
		}
		return booking.ExactRequest(customer, service, booking.Slot{Day: day, Time: start}), nil
	case string(booking.RequestAuto):
		days, err := booking.ParseDays(splitList(in.Days))
		if err != nil {
			return booking.Request{}, err
		}
		windows, err := booking.ParseWindows(splitList(in.Windows))
		if err != nil {
			return booking.Request{}, err
		}
		return booking.AutoRequest(customer, service, days, windows), nil
	default:
		return booking.Request{}, fmt.Errorf("unknown request kind %q", in.Kind)
	}
}

type resolveArgs struct {
	CalendarID  string `mapstructure:"calendar_id"`
	RequestID   uint64 `mapstructure:"request_id"`
	Outcome     string `mapstructure:"outcome"`
	AmountCents int64  `mapstructure:"amount_cents"`
	Reason      string `mapstructure:"reason"`
}

func (s *Server) handleResolvePayment(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (BookingReport, error) {
	var in resolveArgs
	if err := mapstructure.Decode(args, &in); err != nil {
		return BookingReport{}, fmt.Errorf("decode arguments: %w", err)
	}

	kind, err := booking.ParseResultKind(in.Outcome)
	if err != nil {
		return BookingReport{}, err
	}
	result := booking.PaymentResult{Kind: kind, AmountCents: in.AmountCents, Reason: in.Reason}

	id := booking.RequestID(in.RequestID)
	state, err := s.host.Handle(ctx, in.CalendarID, booking.CompletionInput(id, result))
	if err != nil {
		return BookingReport{}, fmt.Errorf("payment resolution failed: %w", err)
	}

	record, ok := state.Pending[id]
	if !ok {
		return BookingReport{}, fmt.Errorf("request %d not found", in.RequestID)
	}
	s.logger.Info("payment resolved", "calendar_id", in.CalendarID, "request_id", in.RequestID, "outcome", in.Outcome)
	return reportFrom(id, record), nil
}

func (s *Server) handleGetCalendar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	calendarID, _ := args["calendar_id"].(string)
	if calendarID == "" {
		return mcp.NewToolResultError("calendar_id is required"), nil
	}

	state, err := s.host.Snapshot(ctx, calendarID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("calendar %q not found", calendarID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("snapshot failed: %v", err)), nil
	}

	jsonBytes, err := json.Marshal(state)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode calendar: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func reportFrom(id booking.RequestID, record booking.PendingRequest) BookingReport {
	return BookingReport{
		RequestID: uint64(id),
		Status:    string(record.Status),
		Service:   string(record.Service),
		Day:       record.Slot.Day.String(),
		Time:      record.Slot.Time.String(),
		Customer:  record.Customer.Name,
	}
}

func (s *Server) registerResources() {
	// EXPOSE: perennial://calendars
	s.mcpServer.AddResource(mcp.NewResource("perennial://calendars", "Known Calendars",
		mcp.WithMIMEType("application/json"),
	), s.handleCalendarsResource)
}

func (s *Server) handleCalendarsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.host.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	slices.Sort(ids)
	jsonBytes, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode calendar list: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "perennial://calendars",
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
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
