package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses. Detail carries
// the numeric inputs behind funds decisions so clients can display them.
type AppError struct {
	Code       string         `json:"error_code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Detail     map[string]any `json:"detail,omitempty"`
	Err        error          `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithDetail attaches client-visible detail fields.
func (e *AppError) WithDetail(detail map[string]any) *AppError {
	e.Detail = detail
	return e
}

// ---- Validation & Identity ----

func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrUnauthorized() *AppError {
	return New("AUTH_001", "Missing or invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_003", "Email already registered", http.StatusConflict)
}

// ---- Resources ----

func ErrNotFound(entity string) *AppError {
	return New("RES_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrCardInactive() *AppError {
	return New("RES_002", "Card is not active", http.StatusBadRequest)
}

// ---- Funds ----

// ErrInsufficientFunds means balance plus staked value cannot cover the
// required amount. The detail echoes the inputs behind the decision.
func ErrInsufficientFunds(balance, staked, required float64) *AppError {
	return New("FUND_001", "Insufficient funds including staked balance", http.StatusBadRequest).
		WithDetail(map[string]any{
			"balance":       balance,
			"staked_amount": staked,
			"required":      required,
		})
}

// ErrAutoUnstakeFailed means the funds were nominally sufficient but the pool
// could not redeem the shares. Distinct from FUND_001 so clients can tell
// "you don't have enough" from "we failed to convert what you have".
func ErrAutoUnstakeFailed(balance, staked, required float64) *AppError {
	return New("FUND_002", "Failed to convert staked funds to cover purchase", http.StatusBadRequest).
		WithDetail(map[string]any{
			"balance":       balance,
			"staked_amount": staked,
			"required":      required,
		})
}

func ErrRefundAmountExceedsOriginal() *AppError {
	return New("FUND_003", "Refund amount exceeds original transaction amount", http.StatusBadRequest)
}

// ---- Point of sale ----

func ErrExternalDeclined(status string) *AppError {
	return New("POS_001", "Card network declined the authorization", http.StatusBadRequest).
		WithDetail(map[string]any{"network_status": status})
}

func ErrInvalidRefund() *AppError {
	return New("POS_002", "Original transaction not eligible for refund", http.StatusBadRequest)
}

// ---- Yield ----

func ErrInvalidAPR() *AppError {
	return New("YLD_001", "APR must be between 0 and 1", http.StatusBadRequest)
}

// ---- Rate limiting ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System ----

// InternalError wraps an unexpected error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
