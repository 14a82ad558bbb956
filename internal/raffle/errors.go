package raffle

type ErrorKind string

const (
	ValidationError    ErrorKind = "validation"
	StateError         ErrorKind = "state"
	AuthorizationError ErrorKind = "authorization"
	IntegrityError     ErrorKind = "integrity"
)

// Error is a typed rejection of a raffle instruction. The instruction aborts with no
// partial mutation.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// validation
var (
	ErrEndTimeInPast    = newError(ValidationError, "EndTimeInPast", "raffle end time must be in the future")
	ErrDurationTooLong  = newError(ValidationError, "DurationTooLong", "raffle end time exceeds the maximum raffle duration")
	ErrZeroCapacity     = newError(ValidationError, "ZeroCapacity", "raffle capacity must be at least one ticket")
	ErrPriceTooLow      = newError(ValidationError, "PriceTooLow", "ticket price is below the minimum")
	ErrCapacityOverflow = newError(ValidationError, "CapacityOverflow", "ticket_price * capacity exceeds u64")
	ErrPriceOverflow    = newError(ValidationError, "PriceOverflow", "ticket_price * count exceeds u64")
	ErrZeroTickets      = newError(ValidationError, "ZeroTickets", "ticket count must be positive")
)

// state
var (
	ErrRaffleEnded          = newError(StateError, "RaffleEnded", "raffle has ended")
	ErrRaffleNotOver        = newError(StateError, "RaffleNotOver", "raffle has not ended")
	ErrInsufficientCapacity = newError(StateError, "InsufficientCapacity", "too few tickets left to fulfill request")
	ErrNoEntrants           = newError(StateError, "NoEntrants", "raffle has no entrants")
	ErrWinnerAlreadyDrawn   = newError(StateError, "WinnerAlreadyDrawn", "winner already drawn")
	ErrDrawNotStarted       = newError(StateError, "DrawNotStarted", "winner draw has not been requested")
	ErrDrawAlreadyRequested = newError(StateError, "DrawAlreadyRequested", "randomness already requested")
	ErrWinnerNotYetDrawn    = newError(StateError, "WinnerNotYetDrawn", "winner not yet drawn")
	ErrPrizeAlreadyClaimed  = newError(StateError, "PrizeAlreadyClaimed", "prize already claimed")
	ErrCannotCloseActive    = newError(StateError, "CannotCloseActive", "raffle with unclaimed ticket sales cannot be closed")
	ErrRaffleNotFound       = newError(StateError, "RaffleNotFound", "raffle record does not exist")
)

// authorization
var (
	ErrUnauthorized                  = newError(AuthorizationError, "Unauthorized", "unauthorized")
	ErrNotWinner                     = newError(AuthorizationError, "NotWinner", "account is not the raffle winner")
	ErrOnlyManagerOrUpgradeAuthority = newError(AuthorizationError, "OnlyManagerOrUpgradeAuthority", "only the raffle manager or the upgrade authority can close the raffle")
)

// integrity
var (
	ErrRecordInvalid     = newError(IntegrityError, "RecordInvalid", "raffle record data is invalid")
	ErrAccountTooSmall   = newError(IntegrityError, "AccountTooSmall", "raffle record does not fit its storage account")
	ErrRandomnessExpired = newError(IntegrityError, "RandomnessExpired", "randomness does not match the pending request")
)
