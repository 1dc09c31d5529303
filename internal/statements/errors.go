package statements

import "errors"

var (
	ErrNoFile         = errors.New("no_file")
	ErrNoStatementIDs = errors.New("No statement IDs")
	ErrStorageWrite   = errors.New("storage write failed")
	ErrSave           = errors.New("statement save failed")
)

// VerifyError is a passcode verification failure. Message is safe to show to
// the resident; Code lets clients render specific guidance.
type VerifyError struct {
	Code    string
	Message string
}

func (e *VerifyError) Error() string {
	return e.Message
}

var (
	ErrMissingInputs   = &VerifyError{Code: "missing_inputs", Message: "Missing inputs"}
	ErrNoOTPSet        = &VerifyError{Code: "no_otp_set", Message: "No OTP set"}
	ErrInvalidOTP      = &VerifyError{Code: "invalid_otp", Message: "Invalid OTP"}
	ErrOTPExpired      = &VerifyError{Code: "otp_expired", Message: "OTP expired"}
	ErrTooManyAttempts = &VerifyError{Code: "too_many_attempts", Message: "Too many attempts"}
)
