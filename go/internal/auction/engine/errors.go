package engine

import "errors"

// Validation errors. They are returned before any state is touched.
var (
	ErrBidTooLow         = errors.New("bid must be higher than the current bid")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRosterFull        = errors.New("roster is full")
	ErrAlreadyHighBidder = errors.New("already the highest bidder")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrItemNotFound      = errors.New("player not found")
	ErrManagerNotFound   = errors.New("manager not found")
	ErrDuplicateManager  = errors.New("manager already exists")
	ErrInvalidCap        = errors.New("cap must be positive and fit every roster")
	ErrWrongPhase        = errors.New("action not allowed in the current phase")
	ErrAlreadyRetained   = errors.New("manager already retained a player")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidName       = errors.New("name must not be empty")
	ErrCatalogEmpty      = errors.New("no players left to auction")
	ErrDraftNotTriggered = errors.New("draft conditions not met")
)

// IsValidation reports whether err is a user-correctable validation error.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrBidTooLow, ErrInsufficientFunds, ErrRosterFull, ErrAlreadyHighBidder,
		ErrNotYourTurn, ErrItemNotFound, ErrManagerNotFound, ErrDuplicateManager,
		ErrInvalidCap, ErrWrongPhase, ErrAlreadyRetained, ErrInvalidAmount,
		ErrInvalidName, ErrCatalogEmpty, ErrDraftNotTriggered,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
