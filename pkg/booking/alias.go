package booking

import "github.com/aretw0/perennial"

// The booking protocol instantiated over the generic engine types. These
// aliases pin the four type parameters once so call sites stay readable.
type (
	// Input is the union of booking requests and payment completions.
	Input = perennial.Input[Request, RequestID, PaymentResult]
	// Action is the union of notifications and tracked payment requests.
	Action = perennial.Action[UntrackedAction, RequestID, PaymentRequest]
	// Actions is the container interface the machine writes through.
	Actions = perennial.Actions[UntrackedAction, RequestID, PaymentRequest]
	// Buffer is the in-memory actions container.
	Buffer = perennial.Buffer[UntrackedAction, RequestID, PaymentRequest]
)

// NormalInput wraps a booking request as machine input.
func NormalInput(req Request) Input {
	return perennial.NewNormal[Request, RequestID, PaymentResult](req)
}

// CompletionInput wraps a gateway answer as machine input.
func CompletionInput(id RequestID, result PaymentResult) Input {
	return perennial.NewCompletion[Request](id, result)
}

// NewBuffer returns an empty booking action buffer.
func NewBuffer() (*Buffer, error) {
	return perennial.NewBuffer[UntrackedAction, RequestID, PaymentRequest]()
}

// NewBufferCap returns an empty booking action buffer with the given
// capacity hint.
func NewBufferCap(capacity int) (*Buffer, error) {
	return perennial.NewBufferCap[UntrackedAction, RequestID, PaymentRequest](capacity)
}

// TrackedAction assembles a tracked payment action, mainly for tests and
// hosts that compare dispatched actions.
func TrackedAction(id RequestID, req PaymentRequest) Action {
	return perennial.NewTracked[UntrackedAction](id, req)
}

// UntrackedActionOf assembles an untracked action.
func UntrackedActionOf(payload UntrackedAction) Action {
	return perennial.NewUntracked[UntrackedAction, RequestID, PaymentRequest](payload)
}
