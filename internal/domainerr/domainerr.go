// Package domainerr defines the typed error taxonomy of the roll lifecycle.
// Every business-rule violation surfaced by a service is one of these kinds,
// so handlers can map errors to HTTP statuses and the UI can decide whether
// a failure blocks the workflow or merely resets the current form.
package domainerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a lifecycle error.
type Kind int

const (
	KindValidation Kind = iota // bad input shape/range; re-prompt
	KindCapacityExceeded
	KindSequencing
	KindMalformedBarcode
	KindNotFound // fatal for the current operation
	KindDuplicateConfirmation
	KindDuplicateScan
	KindAlreadyDispatched
	KindInvalidWeight
	KindNegativeNetWeight
	KindWrongLot
	KindLotComplete
	KindNetwork // transient remote/store failure
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindSequencing:
		return "sequencing"
	case KindMalformedBarcode:
		return "malformed_barcode"
	case KindNotFound:
		return "not_found"
	case KindDuplicateConfirmation:
		return "duplicate_confirmation"
	case KindDuplicateScan:
		return "duplicate_scan"
	case KindAlreadyDispatched:
		return "already_dispatched"
	case KindInvalidWeight:
		return "invalid_weight"
	case KindNegativeNetWeight:
		return "negative_net_weight"
	case KindWrongLot:
		return "wrong_lot"
	case KindLotComplete:
		return "lot_complete"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is the single error type carried across the lifecycle services.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new Error of the given kind.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf extracts the kind from err, or (0, false) when err is not a
// lifecycle error.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// Is reports whether err is a lifecycle error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Blocking reports whether the kind is a precondition violation that must
// stop the workflow (error-level notification). Non-blocking kinds reset
// the scan form or surface as warnings.
func (k Kind) Blocking() bool {
	switch k {
	case KindDuplicateConfirmation, KindDuplicateScan, KindAlreadyDispatched:
		return false
	default:
		return true
	}
}

// HTTPStatus maps a kind to the status the handler layer responds with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidWeight, KindNegativeNetWeight:
		return http.StatusUnprocessableEntity
	case KindMalformedBarcode:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindCapacityExceeded, KindSequencing, KindDuplicateConfirmation,
		KindDuplicateScan, KindAlreadyDispatched, KindWrongLot, KindLotComplete:
		return http.StatusConflict
	case KindNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
