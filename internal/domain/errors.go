package domain

import "errors"

// Sentinel errors classify every failure a payment can end with.
var (
	// ErrInvalidParams is returned when a request or config misses required fields.
	ErrInvalidParams = errors.New("invalid params")

	// ErrNotInitialized is returned when a payment is opened before Initialize.
	ErrNotInitialized = errors.New("SDK not initialized")

	// ErrTransportFailure is returned when the token request fails on the wire.
	ErrTransportFailure = errors.New("token request failed")

	// ErrTokenMissing is returned when the token endpoint answers without a token.
	ErrTokenMissing = errors.New("PaymentToken not received")

	// ErrParseFailure is returned when a host callback cannot be decoded.
	ErrParseFailure = errors.New("malformed payment result")

	// ErrLaunchFailure is returned when the launcher cannot open a surface.
	ErrLaunchFailure = errors.New("failed to open payment surface")

	// ErrSessionBusy is returned when Initialize is called while a payment is in flight.
	ErrSessionBusy = errors.New("payment in progress")
)

// ErrorCode is the classification attached to Failed and Cancelled results.
type ErrorCode string

const (
	ErrCodeInvalidParams    ErrorCode = "INVALID_PARAMS"
	ErrCodeNotInitialized   ErrorCode = "NOT_INITIALIZED"
	ErrCodeTransportFailure ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeTokenMissing     ErrorCode = "TOKEN_MISSING"
	ErrCodeParseFailure     ErrorCode = "PARSE_FAILURE"
	ErrCodeLaunchFailure    ErrorCode = "LAUNCH_FAILURE"
	ErrCodeUserCancelled    ErrorCode = "USER_CANCELLED"
	ErrCodeSuperseded       ErrorCode = "SUPERSEDED"

	// Codes the wallet reports in the deep-link error parameter.
	ErrCodePaymentFailed       ErrorCode = "PAYMENT_FAILED"
	ErrCodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeTransactionRejected ErrorCode = "TRANSACTION_REJECTED"
	ErrCodeNetworkError        ErrorCode = "NETWORK_ERROR"
	ErrCodeSessionExpired      ErrorCode = "SESSION_EXPIRED"
	ErrCodeInvalidMerchant     ErrorCode = "INVALID_MERCHANT"
)

var walletErrorCodes = map[string]ErrorCode{
	string(ErrCodeUserCancelled):       ErrCodeUserCancelled,
	string(ErrCodePaymentFailed):       ErrCodePaymentFailed,
	string(ErrCodeInsufficientBalance): ErrCodeInsufficientBalance,
	string(ErrCodeTransactionRejected): ErrCodeTransactionRejected,
	string(ErrCodeNetworkError):        ErrCodeNetworkError,
	string(ErrCodeSessionExpired):      ErrCodeSessionExpired,
	string(ErrCodeInvalidParams):       ErrCodeInvalidParams,
	string(ErrCodeInvalidMerchant):     ErrCodeInvalidMerchant,
}

// ParseErrorCode looks up a wallet-reported error code.
func ParseErrorCode(s string) (ErrorCode, bool) {
	code, ok := walletErrorCodes[s]
	return code, ok
}

// DefaultMessage is the human-readable text used when no message was supplied.
func (c ErrorCode) DefaultMessage() string {
	switch c {
	case ErrCodeUserCancelled:
		return "The payment was cancelled by the user."
	case ErrCodeInsufficientBalance:
		return "Insufficient balance."
	case ErrCodeTransactionRejected:
		return "The transaction was rejected."
	case ErrCodeNetworkError:
		return "A network error occurred."
	case ErrCodeSessionExpired:
		return "The payment session has expired."
	case ErrCodeInvalidParams:
		return "Invalid payment parameters."
	case ErrCodeInvalidMerchant:
		return "Invalid merchant."
	case ErrCodeNotInitialized:
		return ErrNotInitialized.Error()
	case ErrCodeTokenMissing:
		return ErrTokenMissing.Error()
	case ErrCodeSuperseded:
		return "The payment was replaced by a newer payment."
	default:
		return "The payment failed."
	}
}

// PaymentError wraps a sentinel error with a caller-facing message and code.
type PaymentError struct {
	Err     error
	Message string
	Code    ErrorCode
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with PaymentError.
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new PaymentError.
func NewPaymentError(err error, message string, code ErrorCode) *PaymentError {
	return &PaymentError{Err: err, Message: message, Code: code}
}

// CodeOf returns the code of the first PaymentError in err's chain.
func CodeOf(err error) ErrorCode {
	var perr *PaymentError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}

// MessageOf returns the caller-facing message of err. For a PaymentError it is
// the message without the sentinel suffix.
func MessageOf(err error) string {
	var perr *PaymentError
	if errors.As(err, &perr) && perr.Message != "" {
		return perr.Message
	}
	return err.Error()
}
