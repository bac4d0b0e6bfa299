package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/perennial/internal/logging"
	"github.com/aretw0/perennial/internal/presentation/tui"
	filestore "github.com/aretw0/perennial/pkg/adapters/file"
	"github.com/aretw0/perennial/pkg/adapters/gateway"
	"github.com/aretw0/perennial/pkg/booking"
	"github.com/aretw0/perennial/pkg/ports"
	"github.com/aretw0/perennial/pkg/runner"
)

// demoCmd walks through the durable booking lifecycle one invocation at a
// time. State lives on disk, so holds placed by one process run are still
// awaiting their payment outcome in the next.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through a durable booking on the file store",
	Long: `Runs one step of a booking walkthrough against a calendar stored on
disk. Place a hold with --request or --auto, exit, then deliver the payment
outcome with --resolve in a fresh process: recovery re-checks every hold
that was still in flight before the booking resolves.

  perennial demo --request "monday 09:00 maintenance" --name Ada
  perennial demo --resolve 1=success
  perennial demo --status`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDemo(cmd); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().String("dir", ".perennial/demo", "Directory holding the demo checkpoints")
	demoCmd.Flags().String("calendar", "garden", "Calendar to book on")
	demoCmd.Flags().String("request", "", "Exact slot request: \"day HH:MM service\"")
	demoCmd.Flags().String("auto", "", "Automatic request for the named service")
	demoCmd.Flags().String("days", "", "Day preferences for --auto, comma separated")
	demoCmd.Flags().String("windows", "", "Window preferences for --auto, comma separated HH:MM-HH:MM")
	demoCmd.Flags().String("resolve", "", "Payment outcome: \"id=success|failed|released\"")
	demoCmd.Flags().Bool("status", false, "Print the calendar without changing anything")
	demoCmd.Flags().String("name", "Ada", "Customer display name")
	demoCmd.Flags().Uint64("customer", 1, "Numeric customer identity")
	demoCmd.Flags().String("email", "", "Customer email")
	demoCmd.Flags().Bool("verbose", false, "Show effect dispatch logs")
}

func runDemo(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("dir")
	calendarID, _ := cmd.Flags().GetString("calendar")
	request, _ := cmd.Flags().GetString("request")
	auto, _ := cmd.Flags().GetString("auto")
	resolve, _ := cmd.Flags().GetString("resolve")
	status, _ := cmd.Flags().GetBool("status")
	verbose, _ := cmd.Flags().GetBool("verbose")

	steps := 0
	for _, set := range []bool{request != "", auto != "", resolve != "", status} {
		if set {
			steps++
		}
	}
	if steps == 0 {
		return errors.New("nothing to do: pass --request, --auto, --resolve or --status")
	}
	if steps > 1 {
		return errors.New("pass exactly one of --request, --auto, --resolve or --status")
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	logger := logging.New(level)

	store := booking.NewStore(filestore.New(dir))
	gw := gateway.New(gateway.WithLogger(logger))
	host := booking.NewRunner(store, gw, booking.NewSystemWithDefaultSchedule,
		runner.WithLogger(logger))

	ctx := cmd.Context()

	if status {
		return printStatus(ctx, host, calendarID)
	}
	if resolve != "" {
		return resolveStep(ctx, host, gw, calendarID, resolve)
	}

	customer := demoCustomer(cmd)
	req, err := demoRequest(cmd, customer, request, auto)
	if err != nil {
		return err
	}
	return requestStep(ctx, host, gw, calendarID, req)
}

func demoCustomer(cmd *cobra.Command) booking.Customer {
	name, _ := cmd.Flags().GetString("name")
	id, _ := cmd.Flags().GetUint64("customer")
	email, _ := cmd.Flags().GetString("email")
	return booking.Customer{ID: id, Name: name, Email: email}
}

func demoRequest(cmd *cobra.Command, customer booking.Customer, request, auto string) (booking.Request, error) {
	if request != "" {
		return parseExactSpec(request, customer)
	}

	service, err := booking.ParseService(auto)
	if err != nil {
		return booking.Request{}, err
	}
	rawDays, _ := cmd.Flags().GetString("days")
	rawWindows, _ := cmd.Flags().GetString("windows")
	days, err := booking.ParseDays(splitList(rawDays))
	if err != nil {
		return booking.Request{}, err
	}
	windows, err := booking.ParseWindows(splitList(rawWindows))
	if err != nil {
		return booking.Request{}, err
	}
	return booking.AutoRequest(customer, service, days, windows), nil
}

// parseExactSpec parses a "monday 09:00 maintenance" style slot spec.
func parseExactSpec(spec string, customer booking.Customer) (booking.Request, error) {
	fields := strings.Fields(spec)
	if len(fields) != 3 {
		return booking.Request{}, fmt.Errorf("invalid request %q, want \"day HH:MM service\"", spec)
	}
	day, err := booking.ParseDay(fields[0])
	if err != nil {
		return booking.Request{}, err
	}
	start, err := booking.ParseTime(fields[1])
	if err != nil {
		return booking.Request{}, err
	}
	service, err := booking.ParseService(fields[2])
	if err != nil {
		return booking.Request{}, err
	}
	return booking.ExactRequest(customer, service, booking.Slot{Day: day, Time: start}), nil
}

func requestStep(ctx context.Context, host *booking.Runner, gw *gateway.Gateway, calendarID string, req booking.Request) error {
	state, err := host.Handle(ctx, calendarID, booking.NormalInput(req))
	switch {
	case errors.Is(err, booking.ErrSlotNotAvailable), errors.Is(err, booking.ErrNoSlotFound):
		fmt.Printf("Request rejected: %v\n", err)
		return nil
	case err != nil:
		return err
	}

	if err := pumpAnswers(ctx, host, gw, calendarID); err != nil {
		return err
	}

	id := state.NextID - 1
	rec := state.Pending[id]
	fmt.Printf("Request #%d placed: %s on %s for %s (hold %s)\n",
		id, rec.Service, rec.Slot, rec.Customer.Name, tui.Money(rec.Service.PriceCents()))
	fmt.Printf("The hold is in flight. Deliver its outcome with:\n")
	fmt.Printf("  perennial demo --resolve %d=success\n", id)

	fmt.Println()
	fmt.Print(tui.CalendarGrid(state))
	return nil
}

func resolveStep(ctx context.Context, host *booking.Runner, gw *gateway.Gateway, calendarID, spec string) error {
	id, kind, err := parseResolveSpec(spec)
	if err != nil {
		return err
	}

	result, err := resultFor(ctx, host, calendarID, id, kind)
	if err != nil {
		return err
	}

	// Route the outcome through the gateway so its ledger settles too.
	state, err := host.Handle(ctx, calendarID, gw.Resolve(id, result))
	if err != nil {
		return err
	}
	if err := pumpAnswers(ctx, host, gw, calendarID); err != nil {
		return err
	}

	rec, ok := state.Pending[id]
	if !ok {
		return fmt.Errorf("request %d has no record", id)
	}
	switch rec.Status {
	case booking.StatusConfirmed:
		paid := rec.Service.PriceCents()
		if b, ok := state.BookingAt(rec.Slot); ok {
			paid = b.AmountPaidCents
		}
		fmt.Printf("Request #%d confirmed: %s on %s, paid %s\n", id, rec.Service, rec.Slot, tui.Money(paid))
	case booking.StatusSlotTaken:
		fmt.Printf("Request #%d lost the race for %s; the hold was released\n", id, rec.Slot)
	case booking.StatusNoSlot:
		fmt.Printf("Request #%d declined; no booking was made\n", id)
	default:
		fmt.Printf("Request #%d is still awaiting confirmation\n", id)
	}

	fmt.Println()
	fmt.Print(tui.CalendarGrid(state))
	return nil
}

// parseResolveSpec parses an "id=outcome" payment resolution spec.
func parseResolveSpec(spec string) (booking.RequestID, booking.ResultKind, error) {
	rawID, outcome, ok := strings.Cut(spec, "=")
	if !ok {
		return 0, "", fmt.Errorf("invalid resolve %q, want \"id=success|failed|released\"", spec)
	}
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid request id %q", rawID)
	}
	kind, err := booking.ParseResultKind(outcome)
	if err != nil {
		return 0, "", err
	}
	return booking.RequestID(id), kind, nil
}

// resultFor assembles the payment result. Successful authorizations carry
// the amount the hold was placed for.
func resultFor(ctx context.Context, host *booking.Runner, calendarID string, id booking.RequestID, kind booking.ResultKind) (booking.PaymentResult, error) {
	switch kind {
	case booking.ResultSuccess:
		var amount int64
		if snap, err := host.Snapshot(ctx, calendarID); err == nil {
			if rec, ok := snap.Pending[id]; ok {
				amount = rec.Service.PriceCents()
			}
		}
		return booking.SuccessResult(amount), nil
	case booking.ResultFailed:
		return booking.FailedResult("card declined"), nil
	case booking.ResultReleased:
		return booking.ReleasedResult(), nil
	case booking.ResultPending:
		return booking.PendingResult(), nil
	default:
		return booking.PaymentResult{}, fmt.Errorf("unknown outcome %q", string(kind))
	}
}

func printStatus(ctx context.Context, host *booking.Runner, calendarID string) error {
	state, err := host.Snapshot(ctx, calendarID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			fmt.Println("No demo session yet. Place a request first:")
			fmt.Println("  perennial demo --request \"monday 09:00 maintenance\"")
			return nil
		}
		return err
	}

	render := tui.NewRenderer()
	out, err := render(tui.BookingSummary(calendarID, state))
	if err != nil {
		return err
	}
	fmt.Print(out)

	fmt.Println()
	fmt.Print(tui.CalendarGrid(state))
	return nil
}

// pumpAnswers feeds queued gateway answers (release acks, recovery status
// probes) back into the machine until the queue drains.
func pumpAnswers(ctx context.Context, host *booking.Runner, gw *gateway.Gateway, calendarID string) error {
	for {
		answers := gw.DrainAnswers()
		if len(answers) == 0 {
			return nil
		}
		for _, in := range answers {
			if _, err := host.Handle(ctx, calendarID, in); err != nil {
				return err
			}
		}
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
