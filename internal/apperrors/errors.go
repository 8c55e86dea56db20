package apperrors

import "errors"

// Input and permission errors
var (
	ErrValidation    = errors.New("validation failed")    // Malformed or missing input
	ErrAuthorization = errors.New("not authorized")       // Caller lacks role or ownership
	ErrNotFound      = errors.New("not found")            // Referenced entity is absent
)

// State and ledger errors
var (
	ErrConflict          = errors.New("conflict")            // Precondition violated: wrong state, duplicate pending swap, self-swap
	ErrInsufficientFunds = errors.New("insufficient points") // Points below the required threshold
	ErrTransaction       = errors.New("transaction failed")  // Atomic commit failed
)

// kinds lists every sentinel in classification order
var kinds = []error{
	ErrValidation,
	ErrAuthorization,
	ErrNotFound,
	ErrConflict,
	ErrInsufficientFunds,
	ErrTransaction,
}

// Kind returns the sentinel err wraps, or nil when err is unclassified
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
