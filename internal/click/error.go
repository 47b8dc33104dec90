package click

import (
	"errors"
	"fmt"
)

// Operational error codes returned to callers as error_code.
const (
	ErrInternalSystem        = -32400
	ErrInsufficientPrivilege = -32504
	ErrInvalidJSONRPCObject  = -32600
	ErrMethodNotFound        = -32601
	ErrTransactionNotFound   = -31003
	ErrCouldNotPerform       = -31008
)

// CodePaymentInProcessing is returned, not raised, when a new invoice or
// card token is requested for a payment already past input.
const CodePaymentInProcessing = -31300

// Error is an operational failure carrying the code and note the caller
// receives as {error_code, error_note}.
type Error struct {
	Code int
	Note string
}

func NewError(code int, note string) *Error {
	return &Error{Code: code, Note: note}
}

func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Note: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("click error %d: %s", e.Code, e.Note)
}

// Body renders the error the way the gateway and merchant clients expect.
// error_note is omitted when empty.
func (e *Error) Body() map[string]any {
	body := map[string]any{"error_code": e.Code}
	if e.Note != "" {
		body["error_note"] = e.Note
	}
	return body
}

func AsError(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

var (
	errNoProvider         = NewError(ErrCouldNotPerform, "Could not perform the request without provider")
	errNoToken            = NewError(ErrCouldNotPerform, "Could not make a payment without payment_id or token")
	errTransactionMissing = NewError(ErrTransactionNotFound, "Transaction does not exist")
	errIncorrectPhone     = NewError(ErrCouldNotPerform, "Incorrect phone number")
	errIncorrectCard      = NewError(ErrCouldNotPerform, "Incorrect card number")
	errIncorrectCardToken = NewError(ErrCouldNotPerform, "Incorrect card token")
	errIncorrectInvoice   = NewError(ErrCouldNotPerform, "Incorrect invoice id")
	errNotStable          = NewError(ErrCouldNotPerform, "Payment is not stable to perform")
	errUndetectedMethod   = NewError(ErrInsufficientPrivilege, "Could not detect the method")
)
