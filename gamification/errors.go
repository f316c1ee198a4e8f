package gamification

import "errors"

// Domain failures. Controllers translate these to HTTP status codes with
// errors.Is; the engine never formats user-facing messages.
var (
	ErrSessionNotFound = errors.New("activity session not found")
	ErrNotSessionOwner = errors.New("session belongs to another user")
	ErrSessionNotOpen  = errors.New("session already completed or closed")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")

	ErrActivityNotFound = errors.New("activity not found")
	ErrPremiumLocked    = errors.New("insufficient coins to unlock premium activity")

	ErrSkipLimitReached    = errors.New("daily skip limit reached")
	ErrInsufficientCoins   = errors.New("insufficient coins")
	ErrInvalidSpendType    = errors.New("unknown spend item type")
	ErrBonusAlreadyClaimed = errors.New("daily bonus already claimed")

	ErrInvalidInviteCode = errors.New("invalid invitation code")
	ErrSelfLink          = errors.New("cannot link to yourself")
	ErrAlreadyLinked     = errors.New("user already has a partner")
	ErrPartnerTaken      = errors.New("invited user already has a partner")
	ErrNoPartner         = errors.New("no partner linked")
)
