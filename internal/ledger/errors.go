package ledger

import (
	"errors"
	"fmt"
)

// Kind groups failure codes by the precondition they guard.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state"
	KindBalance       Kind = "balance"
	KindArithmetic    Kind = "arithmetic"
	KindAvailability  Kind = "availability"
	KindNotFound      Kind = "not_found"
)

// Code is a machine-readable failure reason surfaced to callers.
type Code string

const (
	CodeInvalidAmount      Code = "INVALID_AMOUNT"
	CodeInvalidMultiplier  Code = "INVALID_MULTIPLIER"
	CodeInvalidMetadata    Code = "INVALID_METADATA"
	CodeLengthMismatch     Code = "LENGTH_MISMATCH"
	CodeBatchTooLarge      Code = "BATCH_TOO_LARGE"
	CodeBatchEmpty         Code = "BATCH_EMPTY"
	CodeInvalidAccount     Code = "INVALID_ACCOUNT"
	CodeUndeclaredAccount  Code = "UNDECLARED_ACCOUNT"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeGamesInProgress    Code = "GAMES_IN_PROGRESS"
	CodeNoActiveGame       Code = "NO_ACTIVE_GAME"
	CodeSettlementMismatch Code = "SETTLEMENT_MISMATCH"
	CodeAccountExists      Code = "ACCOUNT_EXISTS"
	CodeInsufficientFunds  Code = "INSUFFICIENT_FUNDS"
	CodeHouseInsufficient  Code = "HOUSE_INSUFFICIENT"
	CodeOverflow           Code = "OVERFLOW"
	CodeMaintenancePaused  Code = "MAINTENANCE_PAUSED"
	CodeEmergencyPaused    Code = "EMERGENCY_PAUSED"
	CodeAccountNotFound    Code = "ACCOUNT_NOT_FOUND"
)

type Error struct {
	Code    Code
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Code so detailed copies still satisfy errors.Is against
// the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) withf(format string, args ...any) *Error {
	return &Error{Code: e.Code, Kind: e.Kind, Message: e.Message + ": " + fmt.Sprintf(format, args...)}
}

func newError(code Code, kind Kind, msg string) *Error {
	return &Error{Code: code, Kind: kind, Message: msg}
}

var (
	ErrInvalidAmount      = newError(CodeInvalidAmount, KindValidation, "invalid amount specified")
	ErrInvalidMultiplier  = newError(CodeInvalidMultiplier, KindValidation, "invalid multiplier specified (must be 50-300)")
	ErrInvalidMetadata    = newError(CodeInvalidMetadata, KindValidation, "malformed bet metadata")
	ErrLengthMismatch     = newError(CodeLengthMismatch, KindValidation, "batch lists differ in length")
	ErrBatchTooLarge      = newError(CodeBatchTooLarge, KindValidation, "batch size too large")
	ErrBatchEmpty         = newError(CodeBatchEmpty, KindValidation, "batch is empty")
	ErrInvalidAccount     = newError(CodeInvalidAccount, KindValidation, "account has the wrong type")
	ErrUndeclaredAccount  = newError(CodeUndeclaredAccount, KindValidation, "account not declared by the invocation")
	ErrUnauthorized       = newError(CodeUnauthorized, KindAuthorization, "unauthorized caller")
	ErrGamesInProgress    = newError(CodeGamesInProgress, KindState, "withdrawal not allowed: games in progress")
	ErrNoActiveGame       = newError(CodeNoActiveGame, KindState, "no active game to settle")
	ErrSettlementMismatch = newError(CodeSettlementMismatch, KindState, "mismatched locked amount for settlement")
	ErrAccountExists      = newError(CodeAccountExists, KindState, "account already initialized")
	ErrInsufficientFunds  = newError(CodeInsufficientFunds, KindBalance, "insufficient funds for this operation")
	ErrHouseInsufficient  = newError(CodeHouseInsufficient, KindBalance, "house vault has insufficient funds")
	ErrOverflow           = newError(CodeOverflow, KindArithmetic, "arithmetic overflow")
	ErrMaintenancePaused  = newError(CodeMaintenancePaused, KindAvailability, "maintenance pause is active")
	ErrEmergencyPaused    = newError(CodeEmergencyPaused, KindAvailability, "emergency pause is active")
	ErrAccountNotFound    = newError(CodeAccountNotFound, KindNotFound, "account not found")
)

// AsError extracts the ledger failure from err, if any.
func AsError(err error) (*Error, bool) {
	var le *Error
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}
