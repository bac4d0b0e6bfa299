package perennial

// Kind discriminates the two action variants a machine can emit.
type Kind uint8

const (
	// KindUntracked marks a fire-and-forget effect. The host executes it
	// without reporting back and the machine holds no state for it.
	KindUntracked Kind = iota
	// KindTracked marks a request/response operation. The machine records
	// the operation in state under the same identity before emitting it,
	// and later consumes its result as a completion input.
	KindTracked
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUntracked:
		return "untracked"
	case KindTracked:
		return "tracked"
	default:
		return "unknown"
	}
}

// Tracked pairs a request payload with the identity the machine minted for
// it. The identity is the join key between the action, the state record it
// belongs to, and the completion that eventually answers it.
type Tracked[ID comparable, Req any] struct {
	ID  ID  `json:"id"`
	Req Req `json:"req"`
}

// Action is a closed union of the two effect variants. Kind selects which
// payload field is meaningful; the other is left at its zero value.
type Action[U any, ID comparable, Req any] struct {
	Kind      Kind             `json:"kind"`
	Untracked U                `json:"untracked"`
	Tracked   Tracked[ID, Req] `json:"tracked"`
}

// NewUntracked wraps a fire-and-forget payload in an Action.
func NewUntracked[U any, ID comparable, Req any](payload U) Action[U, ID, Req] {
	return Action[U, ID, Req]{Kind: KindUntracked, Untracked: payload}
}

// NewTracked wraps a request payload and its identity in an Action.
func NewTracked[U any, ID comparable, Req any](id ID, req Req) Action[U, ID, Req] {
	return Action[U, ID, Req]{Kind: KindTracked, Tracked: Tracked[ID, Req]{ID: id, Req: req}}
}
