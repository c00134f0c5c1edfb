package market

// Code is the machine-readable identifier attached to every engine error.
// Codes are gap-numbered per category so new entries can be added without
// renumbering existing ones or breaking client-side mappings.
type Code uint32

const (
	// Initialization & configuration (1-2)
	CodeNotInitialized     Code = 1
	CodeAlreadyInitialized Code = 2

	// Authorization (10-11)
	CodeUnauthorized            Code = 10
	CodeInsufficientPermissions Code = 11

	// Pool state (20-26)
	CodePoolNotFound        Code = 20
	CodePoolAlreadyResolved Code = 21
	CodePoolNotResolved     Code = 22
	CodePoolNotExpired      Code = 23
	CodeInvalidPoolState    Code = 24
	CodeInvalidOutcome      Code = 25
	CodeInvalidOptionsCount Code = 26

	// Prediction (40-44)
	CodePredictionNotFound Code = 40
	CodePredictionExists   Code = 41
	CodeInvalidAmount      Code = 42
	CodePredictionTooLate  Code = 43
	CodeStakeLimit         Code = 44

	// Claiming & reward (60-62)
	CodeAlreadyClaimed   Code = 60
	CodeNotAWinner       Code = 61
	CodeWinningStakeZero Code = 62

	// Timestamp (80-81)
	CodeInvalidTimestamp Code = 80
	CodeEndTimeNotFuture Code = 81

	// Data & validation (90-93)
	CodeInvalidData       Code = 90
	CodeInvalidToken      Code = 91
	CodeInvalidPagination Code = 92
	CodeInvalidFeeBps     Code = 93

	// Arithmetic (110-111)
	CodeArithmetic       Code = 110
	CodeFeeExceedsAmount Code = 111

	// Storage & state integrity (120-122)
	CodeStorage         Code = 120
	CodeConsistency     Code = 121
	CodeBalanceMismatch Code = 122

	// Token & transfer (150-151)
	CodeTokenTransfer    Code = 150
	CodeTreasuryTransfer Code = 151

	// Oracle & resolution (160-161)
	CodePriceFeedNotFound Code = 160
	CodePriceDataInvalid  Code = 161

	// Emergency & admin (180)
	CodePaused Code = 180
)

// Error is the typed error returned by every engine entry point. Sentinels
// below are compared with errors.Is; the code and category are intended for
// the query layer and alerting rules, never for control flow inside the
// engine.
type Error struct {
	code Code
	msg  string
}

func newError(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "market: " + e.msg
}

// Code returns the machine-readable error code.
func (e *Error) Code() Code {
	if e == nil {
		return 0
	}
	return e.code
}

// Category groups errors for logging and analytics.
func (e *Error) Category() string {
	if e == nil {
		return ""
	}
	switch {
	case e.code < 10:
		return "initialization"
	case e.code < 20:
		return "authorization"
	case e.code < 40:
		return "pool_state"
	case e.code < 60:
		return "prediction"
	case e.code < 80:
		return "claiming"
	case e.code < 90:
		return "timestamp"
	case e.code < 110:
		return "validation"
	case e.code < 120:
		return "arithmetic"
	case e.code < 150:
		return "storage"
	case e.code < 160:
		return "token"
	case e.code < 180:
		return "oracle"
	default:
		return "admin"
	}
}

// Critical reports whether the error signals corrupted engine state rather
// than bad input. Critical errors are logged and counted for alerting in
// addition to being returned.
func (e *Error) Critical() bool {
	if e == nil {
		return false
	}
	switch e.code {
	case CodeWinningStakeZero, CodeStorage, CodeConsistency, CodeBalanceMismatch:
		return true
	default:
		return false
	}
}

// Recoverable reports whether the caller can fix the failure by changing
// input or waiting. Non-recoverable errors indicate system issues.
func (e *Error) Recoverable() bool {
	if e == nil {
		return true
	}
	switch e.code {
	case CodeNotInitialized, CodeAlreadyInitialized:
		return false
	default:
		return !e.Critical()
	}
}

var (
	ErrNotInitialized     = newError(CodeNotInitialized, "engine not initialized")
	ErrAlreadyInitialized = newError(CodeAlreadyInitialized, "engine already initialized")

	ErrUnauthorized            = newError(CodeUnauthorized, "caller not authorized")
	ErrInsufficientPermissions = newError(CodeInsufficientPermissions, "role not found or insufficient permissions")

	ErrPoolNotFound        = newError(CodePoolNotFound, "pool not found")
	ErrPoolAlreadyResolved = newError(CodePoolAlreadyResolved, "pool already resolved")
	ErrPoolNotResolved     = newError(CodePoolNotResolved, "pool not resolved")
	ErrPoolNotExpired      = newError(CodePoolNotExpired, "pool end time not reached")
	ErrInvalidPoolState    = newError(CodeInvalidPoolState, "pool state invalid for this operation")
	ErrInvalidOutcome      = newError(CodeInvalidOutcome, "outcome out of bounds")
	ErrInvalidOptionsCount = newError(CodeInvalidOptionsCount, "pool requires at least two options")

	ErrPredictionNotFound = newError(CodePredictionNotFound, "prediction not found")
	ErrPredictionExists   = newError(CodePredictionExists, "prediction already exists")
	ErrInvalidAmount      = newError(CodeInvalidAmount, "amount must be positive")
	ErrPredictionTooLate  = newError(CodePredictionTooLate, "pool end time passed")
	ErrMinStakeNotMet     = newError(CodeStakeLimit, "stake below pool minimum")
	ErrMaxStakeExceeded   = newError(CodeStakeLimit, "stake above pool maximum")
	ErrInsufficientBalance = newError(CodeStakeLimit, "insufficient balance")

	ErrAlreadyClaimed   = newError(CodeAlreadyClaimed, "winnings already claimed")
	ErrNotAWinner       = newError(CodeNotAWinner, "user did not win")
	ErrWinningStakeZero = newError(CodeWinningStakeZero, "winning outcome stake is zero despite winning prediction")
	ErrOverDistribution = newError(CodeWinningStakeZero, "distributed payouts exceed pool balance")

	ErrInvalidTimestamp = newError(CodeInvalidTimestamp, "invalid timestamp")
	ErrEndTimeNotFuture = newError(CodeEndTimeNotFuture, "end time must be in the future")

	ErrInvalidData       = newError(CodeInvalidData, "invalid data")
	ErrInvalidToken      = newError(CodeInvalidToken, "token not whitelisted")
	ErrInvalidPagination = newError(CodeInvalidPagination, "invalid pagination offset or limit")
	ErrInvalidFeeBps     = newError(CodeInvalidFeeBps, "fee basis points out of range")

	ErrArithmetic       = newError(CodeArithmetic, "arithmetic overflow, underflow, or division by zero")
	ErrFeeExceedsAmount = newError(CodeFeeExceedsAmount, "calculated fee exceeds amount")

	ErrStorage         = newError(CodeStorage, "storage key missing or corrupted")
	ErrConsistency     = newError(CodeConsistency, "stake or index inconsistency detected")
	ErrBalanceMismatch = newError(CodeBalanceMismatch, "custody balance mismatch")

	ErrTokenTransfer    = newError(CodeTokenTransfer, "token transfer failed")
	ErrTreasuryTransfer = newError(CodeTreasuryTransfer, "treasury transfer failed")

	ErrPriceFeedNotFound = newError(CodePriceFeedNotFound, "price feed not found")
	ErrPriceDataInvalid  = newError(CodePriceDataInvalid, "price data stale or invalid")

	ErrPaused = newError(CodePaused, "engine is paused")
)
