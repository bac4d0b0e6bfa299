// Package sim is a deterministic property harness for the booking machine.
// A seeded generator drives a mix of requests and payment completions
// against one calendar, checking after every operation that the structural
// invariants hold, that a rejected input left the state byte-identical,
// and that the whole trajectory is reproducible from the seed.
package sim

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/aretw0/perennial/pkg/booking"
)

// Config controls a simulation run.
type Config struct {
	// Seed is the base RNG seed. In budget mode consecutive seeds count
	// up from it.
	Seed uint64
	// Ops is the number of operations per seed. Zero means 1000.
	Ops int
	// Budget, when positive, keeps starting fresh seeds until the wall
	// clock budget is spent. Time only gates the outer loop; none of it
	// reaches the machine.
	Budget time.Duration
}

// Stats counts what a run observed.
type Stats struct {
	Seeds           int
	Ops             int
	Requests        int // accepted requests, one payment hold each
	Rejected        int // conflicts and empty searches refused up front
	Confirmed       int
	SlotTaken       int
	PaymentFailures int
	Outstanding     int // holds still unresolved when the run ended
}

// Reconciled checks the ledger arithmetic: every accepted request must be
// resolved one way or still outstanding.
func (s Stats) Reconciled() error {
	resolved := s.Confirmed + s.SlotTaken + s.PaymentFailures
	if s.Requests != resolved+s.Outstanding {
		return fmt.Errorf("requests %d != resolved %d + outstanding %d",
			s.Requests, resolved, s.Outstanding)
	}
	return nil
}

func (s *Stats) add(o Stats) {
	s.Seeds += o.Seeds
	s.Ops += o.Ops
	s.Requests += o.Requests
	s.Rejected += o.Rejected
	s.Confirmed += o.Confirmed
	s.SlotTaken += o.SlotTaken
	s.PaymentFailures += o.PaymentFailures
	s.Outstanding += o.Outstanding
}

// String renders the stats as the table the simulate command prints.
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "seeds              %d\n", s.Seeds)
	fmt.Fprintf(&b, "operations         %d\n", s.Ops)
	fmt.Fprintf(&b, "requests accepted  %d\n", s.Requests)
	fmt.Fprintf(&b, "requests rejected  %d\n", s.Rejected)
	fmt.Fprintf(&b, "confirmed          %d\n", s.Confirmed)
	fmt.Fprintf(&b, "slot races lost    %d\n", s.SlotTaken)
	fmt.Fprintf(&b, "payments failed    %d\n", s.PaymentFailures)
	fmt.Fprintf(&b, "still outstanding  %d\n", s.Outstanding)
	return b.String()
}

// Result is the outcome of a run.
type Result struct {
	Stats Stats
	// Digest fingerprints the trajectory: every post-transition state and
	// every emitted action feeds the hash, so two runs with the same
	// config match exactly when they behaved identically.
	Digest string
}

// Run executes the simulation. With a zero budget it runs exactly one seed
// for cfg.Ops operations; with a positive budget it accumulates whole
// seeds (Seed, Seed+1, ...) until the budget is spent.
func Run(cfg Config) (Result, error) {
	if cfg.Ops <= 0 {
		cfg.Ops = 1000
	}

	if cfg.Budget <= 0 {
		return runSeed(cfg.Seed, cfg.Ops)
	}

	var total Result
	digests := sha256.New()
	start := time.Now()
	for seed := cfg.Seed; time.Since(start) < cfg.Budget; seed++ {
		res, err := runSeed(seed, cfg.Ops)
		if err != nil {
			return Result{}, fmt.Errorf("seed %d: %w", seed, err)
		}
		total.Stats.add(res.Stats)
		digests.Write([]byte(res.Digest))
	}
	total.Digest = hex.EncodeToString(digests.Sum(nil))
	return total, nil
}

func runSeed(seed uint64, ops int) (Result, error) {
	r := &run{
		rng:    newRNG(seed),
		system: booking.NewSystemWithDefaultSchedule(),
		hash:   sha256.New(),
	}
	r.stats.Seeds = 1

	for i := 0; i < ops; i++ {
		if err := r.step(); err != nil {
			return Result{}, fmt.Errorf("op %d: %w", i, err)
		}
	}

	r.stats.Ops = ops
	r.stats.Outstanding = len(r.outstanding)
	if err := r.system.CheckInvariants(); err != nil {
		return Result{}, err
	}
	if err := r.stats.Reconciled(); err != nil {
		return Result{}, err
	}
	return Result{Stats: r.stats, Digest: hex.EncodeToString(r.hash.Sum(nil))}, nil
}

// newRNG builds the seeded ChaCha8 generator: the seed sits little-endian
// in the first word of the 32-byte key, the rest stays zero.
func newRNG(seed uint64) *rand.Rand {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	return rand.New(rand.NewChaCha8(key))
}

// replayEvery is the sampling interval for the clone-replay determinism
// check. Prime, so the sample drifts across the operation mix.
const replayEvery = 101

type run struct {
	rng         *rand.Rand
	system      *booking.System
	outstanding []booking.RequestID
	nextUser    uint64
	opIndex     int
	stats       Stats
	hash        hash.Hash
}

// step picks and executes one operation: 40% resolve an outstanding hold
// when there is one, 35% exact-slot request, 25% auto request.
func (r *run) step() error {
	p := r.rng.IntN(100)
	switch {
	case p < 40 && len(r.outstanding) > 0:
		return r.resolveOne()
	case p < 75:
		return r.requestExact()
	default:
		return r.requestAuto()
	}
}

func (r *run) requestExact() error {
	slot := booking.Slot{Day: r.randomWeekday(), Time: r.randomTime()}
	return r.request(booking.ExactRequest(r.nextCustomer(), r.randomService(), slot))
}

func (r *run) requestAuto() error {
	return r.request(booking.AutoRequest(r.nextCustomer(), r.randomService(), r.randomDays(), r.randomWindows()))
}

func (r *run) request(req booking.Request) error {
	err := r.apply(booking.NormalInput(req))
	switch {
	case err == nil:
		r.outstanding = append(r.outstanding, r.system.NextID-1)
		r.stats.Requests++
		return nil
	case errors.Is(err, booking.ErrSlotNotAvailable), errors.Is(err, booking.ErrNoSlotFound):
		r.stats.Rejected++
		return nil
	default:
		return err
	}
}

// resolveOne answers a random outstanding hold: 85% success with the
// held amount, 15% declined.
func (r *run) resolveOne() error {
	idx := r.rng.IntN(len(r.outstanding))
	id := r.outstanding[idx]
	r.outstanding = append(r.outstanding[:idx], r.outstanding[idx+1:]...)

	if r.rng.Float64() < 0.85 {
		amount := r.system.Pending[id].Service.PriceCents()
		if err := r.apply(booking.CompletionInput(id, booking.SuccessResult(amount))); err != nil {
			return err
		}
		switch status := r.system.Pending[id].Status; status {
		case booking.StatusConfirmed:
			r.stats.Confirmed++
		case booking.StatusSlotTaken:
			r.stats.SlotTaken++
		default:
			return fmt.Errorf("request %d: success left status %q", id, status)
		}
		return nil
	}

	if err := r.apply(booking.CompletionInput(id, booking.FailedResult("insufficient funds"))); err != nil {
		return err
	}
	if status := r.system.Pending[id].Status; status != booking.StatusNoSlot {
		return fmt.Errorf("request %d: failure left status %q", id, status)
	}
	r.stats.PaymentFailures++
	return nil
}

// apply runs one input through the machine. On a transition error the
// state must be byte-identical to before; on success the invariants must
// hold. Either way the post-state and emitted actions feed the trajectory
// hash.
func (r *run) apply(in booking.Input) error {
	before, err := json.Marshal(r.system)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	buf, err := booking.NewBuffer()
	if err != nil {
		return err
	}

	terr := r.system.Transition(context.Background(), in, buf)

	after, err := json.Marshal(r.system)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	acts := buf.Drain()

	if terr != nil {
		if !bytes.Equal(before, after) {
			return fmt.Errorf("state changed across failed transition: %w", terr)
		}
	} else if err := r.system.CheckInvariants(); err != nil {
		return fmt.Errorf("invariant violated: %w", err)
	}

	if r.opIndex%replayEvery == 0 {
		if err := replayCheck(before, after, in, terr, acts); err != nil {
			return err
		}
	}
	r.opIndex++

	r.hash.Write(after)
	for _, act := range acts {
		encoded, err := json.Marshal(act)
		if err != nil {
			return fmt.Errorf("marshal action: %w", err)
		}
		r.hash.Write(encoded)
	}
	return terr
}

// replayCheck reruns the input against a clone built from the pre-call
// snapshot: the machine must be a pure function of state and input, so the
// clone has to land on the same state and emit the same actions.
func replayCheck(before, after []byte, in booking.Input, terr error, acts []booking.Action) error {
	clone := new(booking.System)
	if err := json.Unmarshal(before, clone); err != nil {
		return fmt.Errorf("unmarshal clone: %w", err)
	}
	buf, err := booking.NewBuffer()
	if err != nil {
		return err
	}

	cerr := clone.Transition(context.Background(), in, buf)
	if (cerr == nil) != (terr == nil) {
		return fmt.Errorf("replay diverged: got %v, want %v", cerr, terr)
	}

	cloneAfter, err := json.Marshal(clone)
	if err != nil {
		return fmt.Errorf("marshal clone: %w", err)
	}
	if !bytes.Equal(after, cloneAfter) {
		return errors.New("replay produced a different state")
	}

	cloneActs := buf.Drain()
	if len(cloneActs) != len(acts) {
		return fmt.Errorf("replay produced %d actions, want %d", len(cloneActs), len(acts))
	}
	for i := range acts {
		got, err := json.Marshal(cloneActs[i])
		if err != nil {
			return fmt.Errorf("marshal action: %w", err)
		}
		want, err := json.Marshal(acts[i])
		if err != nil {
			return fmt.Errorf("marshal action: %w", err)
		}
		if !bytes.Equal(got, want) {
			return fmt.Errorf("replay action %d differs", i)
		}
	}
	return nil
}

func (r *run) nextCustomer() booking.Customer {
	r.nextUser++
	return booking.Customer{
		ID:    r.nextUser,
		Name:  fmt.Sprintf("user-%d", r.nextUser),
		Email: fmt.Sprintf("user%d@example.com", r.nextUser),
	}
}

func (r *run) randomService() booking.Service {
	services := booking.Services()
	return services[r.rng.IntN(len(services))]
}

func (r *run) randomWeekday() booking.Day {
	weekdays := booking.Weekdays()
	return weekdays[r.rng.IntN(len(weekdays))]
}

// randomTime picks a quarter-hour start between 09:00 and 16:45.
func (r *run) randomTime() booking.Time {
	return booking.NewTime(uint8(9+r.rng.IntN(8)), uint8(r.rng.IntN(4)*15))
}

// randomDays picks one to three weekdays, duplicates allowed: preference
// lists with repeats are legal input.
func (r *run) randomDays() []booking.Day {
	count := 1 + r.rng.IntN(3)
	days := make([]booking.Day, 0, count)
	for i := 0; i < count; i++ {
		days = append(days, r.randomWeekday())
	}
	return days
}

// randomWindows picks one or two windows of one to four hours, dropping
// candidates that run past 18:00. An empty draw falls back to the whole
// working day.
func (r *run) randomWindows() []booking.TimeRange {
	count := 1 + r.rng.IntN(2)
	var windows []booking.TimeRange
	for i := 0; i < count; i++ {
		start := r.randomTime()
		end := start.AddMinutes(60 + r.rng.IntN(180))
		if end.Hour < 18 {
			windows = append(windows, booking.TimeRange{Start: start, End: end})
		}
	}
	if len(windows) == 0 {
		windows = append(windows, booking.TimeRange{Start: booking.NewTime(9, 0), End: booking.NewTime(17, 0)})
	}
	return windows
}
