package booking

import "fmt"

// PaymentKind discriminates the requests the machine sends to the payment
// gateway through tracked actions.
type PaymentKind string

const (
	// PaymentPreauth asks the gateway to place a hold on the customer's
	// card for the service price.
	PaymentPreauth PaymentKind = "preauth"
	// PaymentRelease asks the gateway to drop a hold that will not be
	// captured, typically after losing a slot race.
	PaymentRelease PaymentKind = "release"
	// PaymentCheckStatus asks the gateway for the current outcome of an
	// operation whose answer was lost, typically after a crash.
	PaymentCheckStatus PaymentKind = "check_status"
)

// PaymentRequest is the tracked request payload. RequestID always names the
// booking request the operation belongs to; CustomerID and AmountCents are
// only meaningful for preauthorizations.
type PaymentRequest struct {
	Kind        PaymentKind `json:"kind"`
	CustomerID  uint64      `json:"customer_id,omitempty"`
	AmountCents int64       `json:"amount_cents,omitempty"`
	RequestID   RequestID   `json:"request_id"`
}

// PreauthRequest builds a hold request for the given customer and amount.
func PreauthRequest(customerID uint64, amountCents int64, id RequestID) PaymentRequest {
	return PaymentRequest{Kind: PaymentPreauth, CustomerID: customerID, AmountCents: amountCents, RequestID: id}
}

// ReleaseRequest builds a hold release for the given request.
func ReleaseRequest(id RequestID) PaymentRequest {
	return PaymentRequest{Kind: PaymentRelease, RequestID: id}
}

// CheckStatusRequest builds a status probe for the given request.
func CheckStatusRequest(id RequestID) PaymentRequest {
	return PaymentRequest{Kind: PaymentCheckStatus, RequestID: id}
}

// ResultKind discriminates the answers the gateway sends back as
// completions.
type ResultKind string

const (
	// ResultSuccess reports the hold was placed; AmountCents carries what
	// was actually authorized.
	ResultSuccess ResultKind = "success"
	// ResultFailed reports the hold was declined; Reason says why.
	ResultFailed ResultKind = "failed"
	// ResultReleased acknowledges a release request.
	ResultReleased ResultKind = "released"
	// ResultPending reports the operation has no outcome yet.
	ResultPending ResultKind = "pending"
)

// PaymentResult is the completion payload answering a tracked payment
// request.
type PaymentResult struct {
	Kind        ResultKind `json:"kind"`
	AmountCents int64      `json:"amount_cents,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// SuccessResult builds a successful authorization answer.
func SuccessResult(amountCents int64) PaymentResult {
	return PaymentResult{Kind: ResultSuccess, AmountCents: amountCents}
}

// FailedResult builds a declined authorization answer.
func FailedResult(reason string) PaymentResult {
	return PaymentResult{Kind: ResultFailed, Reason: reason}
}

// ReleasedResult builds a release acknowledgement.
func ReleasedResult() PaymentResult {
	return PaymentResult{Kind: ResultReleased}
}

// PendingResult builds a "no outcome yet" answer.
func PendingResult() PaymentResult {
	return PaymentResult{Kind: ResultPending}
}

// ParseResultKind validates a payment result name from external input.
func ParseResultKind(s string) (ResultKind, error) {
	kind := ResultKind(s)
	switch kind {
	case ResultSuccess, ResultFailed, ResultReleased, ResultPending:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown payment result %q", s)
	}
}

// EventKind discriminates the fire-and-forget effects the machine emits.
type EventKind string

const (
	// EventNotify delivers a message to a customer.
	EventNotify EventKind = "notify"
	// EventLog records an operational message with no addressee.
	EventLog EventKind = "log"
)

// UntrackedAction is the fire-and-forget payload: customer notifications
// and log lines. The machine keeps no state for these and never learns
// whether they were delivered.
type UntrackedAction struct {
	Kind       EventKind `json:"kind"`
	CustomerID uint64    `json:"customer_id,omitempty"`
	Message    string    `json:"message"`
}

// Notify builds a customer notification.
func Notify(customerID uint64, message string) UntrackedAction {
	return UntrackedAction{Kind: EventNotify, CustomerID: customerID, Message: message}
}

// LogEvent builds an operational log line.
func LogEvent(message string) UntrackedAction {
	return UntrackedAction{Kind: EventLog, Message: message}
}

// RequestKind discriminates how a booking request names its slot.
type RequestKind string

const (
	// RequestExact asks for one specific slot, take it or leave it.
	RequestExact RequestKind = "exact"
	// RequestAuto asks the system to find the first slot matching the
	// given day and window preferences.
	RequestAuto RequestKind = "auto"
)

// Request is the normal input payload: a customer asking for an
// appointment. Slot is meaningful for exact requests; Days and Windows for
// automatic ones.
type Request struct {
	Kind     RequestKind `json:"kind"`
	Customer Customer    `json:"customer"`
	Service  Service     `json:"service"`
	Slot     Slot        `json:"slot"`
	Days     []Day       `json:"days,omitempty"`
	Windows  []TimeRange `json:"windows,omitempty"`
}

// ExactRequest builds a request for one specific slot.
func ExactRequest(customer Customer, service Service, slot Slot) Request {
	return Request{Kind: RequestExact, Customer: customer, Service: service, Slot: slot}
}

// AutoRequest builds a request that searches days and windows in the given
// preference order.
func AutoRequest(customer Customer, service Service, days []Day, windows []TimeRange) Request {
	return Request{Kind: RequestAuto, Customer: customer, Service: service, Days: days, Windows: windows}
}
