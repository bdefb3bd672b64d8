package domain

import "errors"

// Sentinel errors for domain-level error handling. Validation failures
// reject a single request and mutate nothing; ErrPriceFloor is reported
// by the engine but never unwinds a completed trade.
var (
	ErrOrderNotFound        = errors.New("order_not_found")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrInsufficientBalance  = errors.New("insufficient_balance")
	ErrInsufficientHoldings = errors.New("insufficient_holdings")
	ErrParticipantNotFound  = errors.New("participant_not_found")
	ErrInstrumentNotFound   = errors.New("instrument_not_found")
	ErrPriceFloor           = errors.New("price_floor_violation")
)
