package perennial

// InputKind discriminates the two input variants a machine can consume.
type InputKind uint8

const (
	// InputNormal carries a domain request originated by the outside world.
	InputNormal InputKind = iota
	// InputCompletion carries the result of a previously emitted tracked
	// action, addressed by the identity the machine minted for it.
	InputCompletion
)

// String returns the lowercase name of the kind.
func (k InputKind) String() string {
	switch k {
	case InputNormal:
		return "normal"
	case InputCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

// Completion is the answer to a tracked action. ID must match the identity
// of an operation the machine still has recorded in state; Result is the
// domain-specific outcome payload.
type Completion[ID comparable, Res any] struct {
	ID     ID  `json:"id"`
	Result Res `json:"result"`
}

// Input is a closed union of the two input variants. Kind selects which
// payload field is meaningful; the other is left at its zero value.
type Input[N any, ID comparable, Res any] struct {
	Kind       InputKind           `json:"kind"`
	Normal     N                   `json:"normal"`
	Completion Completion[ID, Res] `json:"completion"`
}

// NewNormal wraps a domain request in an Input.
func NewNormal[N any, ID comparable, Res any](req N) Input[N, ID, Res] {
	return Input[N, ID, Res]{Kind: InputNormal, Normal: req}
}

// NewCompletion wraps a tracked action result in an Input.
func NewCompletion[N any, ID comparable, Res any](id ID, result Res) Input[N, ID, Res] {
	return Input[N, ID, Res]{Kind: InputCompletion, Completion: Completion[ID, Res]{ID: id, Result: result}}
}
