package apperrors

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrClientNotFound      = errors.New("client not found")
	ErrClientInactive      = errors.New("client is inactive")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountInactive     = errors.New("account is inactive")
	ErrCurrencyMismatch    = errors.New("accounts span more than one currency")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyResolved     = errors.New("action already resolved")
	ErrSelfApproval        = errors.New("approver must differ from proposer")
	ErrEmptyRejectionNotes = errors.New("rejection notes must not be empty")
	ErrActionNotFound      = errors.New("action not found")
	ErrRequestNotFound     = errors.New("top-up request not found")
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrWithdrawalBlocked   = errors.New("withdrawal blocked until next top-up")
	ErrNoMatch             = errors.New("no pending request matches the transfer")
	ErrAmbiguousMatch      = errors.New("transfer matches more than one pending request")
	ErrDuplicateSubmission = errors.New("duplicate submission")
	ErrDuplicateSettlement = errors.New("transfer already settled")
	ErrInvalidAuthHeader   = errors.New("invalid or missing Authorization header")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrForbidden           = errors.New("operation not permitted for this role")
	ErrInternalServer      = errors.New("internal server error")
)
