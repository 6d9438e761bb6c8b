package inter

// Kind classifies protocol failures. Each kind has a stable reason string so
// off-chain callers can tell "try later" from "never with these arguments".
type Kind uint8

const (
	PhaseError Kind = iota + 1
	ChallengePeriodError
	EmptyClaimError
	NotValidatorError
	NotDisputeManagerError
	NotInputError
	AlreadyClaimedError
	NoClaimError
	UnknownDisputeError
)

var kindNames = map[Kind]string{
	PhaseError:             "PhaseError",
	ChallengePeriodError:   "ChallengePeriodError",
	EmptyClaimError:        "EmptyClaimError",
	NotValidatorError:      "NotValidatorError",
	NotDisputeManagerError: "NotDisputeManagerError",
	NotInputError:          "NotInputError",
	AlreadyClaimedError:    "AlreadyClaimedError",
	NoClaimError:           "NoClaimError",
	UnknownDisputeError:    "UnknownDisputeError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UnknownError"
}

// Error is a protocol failure. A failed operation never leaves partial state behind.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

// Is matches another *Error of the same kind. A target without a reason
// matches every error of its kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

// Retryable reports whether the same call may succeed once the protocol state moves on.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case PhaseError, ChallengePeriodError, NoClaimError:
		return true
	default:
		return false
	}
}

// Kind-wide targets for errors.Is.
var (
	ErrPhase = &Error{Kind: PhaseError}
)

// Errors with their reason strings.
var (
	ErrClaimPhase        = &Error{PhaseError, "Phase != AwaitingConsensus"}
	ErrFinalizePhase     = &Error{PhaseError, "Phase != Awaiting Consensus"}
	ErrResolvePhase      = &Error{PhaseError, "Phase != AwaitingDispute"}
	ErrChallengePeriod   = &Error{ChallengePeriodError, "Challenge period is not over"}
	ErrEmptyClaim        = &Error{EmptyClaimError, "claim cannot be 0x00"}
	ErrNotValidator      = &Error{NotValidatorError, "sender was not allowed to claim"}
	ErrNotDisputeManager = &Error{NotDisputeManagerError, "msg.sender != dispute manager contract"}
	ErrNotInput          = &Error{NotInputError, "msg.sender != input contract"}
	ErrAlreadyClaimed    = &Error{AlreadyClaimedError, "sender already claimed in this round"}
	ErrNoClaim           = &Error{NoClaimError, "No Claim to be finalized"}
	ErrUnknownDispute    = &Error{UnknownDisputeError, "claimants and hash do not match the open dispute"}
)
