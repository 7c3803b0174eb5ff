// Package apperr defines the error taxonomy shared by the ordering pipeline
// and its transport layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindRateLimited      Kind = "RateLimited"
	KindInvalidInput     Kind = "InvalidInput"
	KindItemNotFound     Kind = "ItemNotFound"
	KindTenantNotFound   Kind = "TenantNotFound"
	KindOrderNotFound    Kind = "OrderNotFound"
	KindCouponInvalid    Kind = "CouponInvalid"
	KindOrderPersistence Kind = "OrderPersistenceError"
	KindDestockFailure   Kind = "DestockFailure"
	KindNotification     Kind = "NotificationFailure"
	KindInternal         Kind = "Internal"
)

// Machine-readable codes
const (
	CodeRateLimited     = "RATE_LIMITED"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeEmptyCart       = "EMPTY_CART"
	CodeInvalidQuantity = "INVALID_QUANTITY"
	CodeTooManyLines    = "TOO_MANY_LINES"
	CodeItemNotFound    = "ITEM_NOT_FOUND"
	CodeTenantNotFound  = "TENANT_NOT_FOUND"
	CodeCouponInvalid   = "COUPON_INVALID"
	CodeOrderNotFound   = "ORDER_NOT_FOUND"
	CodePersistence     = "ORDER_PERSISTENCE_ERROR"
	CodeDestock         = "DESTOCK_FAILURE"
	CodeNotification    = "NOTIFICATION_FAILURE"
	CodeInternal        = "INTERNAL"
)

// Error is a classified failure. Message is safe to show to a guest.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// Invalid builds an InvalidInput error carrying a single field detail.
func Invalid(code, field, message string) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Code:    code,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As is a shorthand for errors.As with *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// HTTPStatus maps a kind to the status surfaced by the order API.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindItemNotFound, KindCouponInvalid:
		return http.StatusUnprocessableEntity
	case KindTenantNotFound, KindOrderNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
