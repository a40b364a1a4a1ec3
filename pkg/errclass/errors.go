package errclass

import "fmt"

// CoreError is a stable, machine-readable error class.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new CoreError with the same Code but a specific message.
func (e *CoreError) WithMessage(msg string) *CoreError {
	return &CoreError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new CoreError with a formatted message.
func (e *CoreError) WithMessagef(format string, args ...any) *CoreError {
	return &CoreError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// All stable error classes.
var (
	ErrCredentialRejected  = &CoreError{Code: "E_CREDENTIAL_REJECTED"}
	ErrIdentityNotFound    = &CoreError{Code: "E_IDENTITY_NOT_FOUND"}
	ErrIdentityExists      = &CoreError{Code: "E_IDENTITY_EXISTS"}
	ErrDuressCodeCollision = &CoreError{Code: "E_DURESS_CODE_COLLISION"}
	ErrNameInvalid         = &CoreError{Code: "E_NAME_INVALID"}
	ErrSwitchNotFound      = &CoreError{Code: "E_SWITCH_NOT_FOUND"}
	ErrSwitchExists        = &CoreError{Code: "E_SWITCH_EXISTS"}
	ErrAlreadyTriggered    = &CoreError{Code: "E_ALREADY_TRIGGERED"}
	ErrInvalidInterval     = &CoreError{Code: "E_INVALID_INTERVAL"}
	ErrWalletNotFound      = &CoreError{Code: "E_WALLET_NOT_FOUND"}
	ErrNotifyFailed        = &CoreError{Code: "E_NOTIFY_FAILED"}
)
