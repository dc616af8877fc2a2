package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrDeviceNotFound   = errors.New("requested device not found")
	ErrDeviceBusy       = errors.New("device busy")
	ErrOverconstrained  = errors.New("constraints cannot be satisfied")
	ErrAborted          = errors.New("acquisition aborted")
)

type ErrorKind uint8

const (
	ErrorKindUnknown          = ErrorKind(0)
	ErrorKindPermissionDenied = ErrorKind(1)
	ErrorKindNotFound         = ErrorKind(2)
	ErrorKindBusy             = ErrorKind(3)
	ErrorKindOverconstrained  = ErrorKind(4)
	ErrorKindAborted          = ErrorKind(5)
)

func (this ErrorKind) String() string {
	switch this {
	case ErrorKindUnknown:
		return "unknown"
	case ErrorKindPermissionDenied:
		return "permission-denied"
	case ErrorKindNotFound:
		return "not-found"
	case ErrorKindBusy:
		return "busy"
	case ErrorKindOverconstrained:
		return "overconstrained"
	case ErrorKindAborted:
		return "aborted"
	default:
		return fmt.Sprintf("illegal-error-kind-%d", this)
	}
}

func (this ErrorKind) sentinel() error {
	switch this {
	case ErrorKindPermissionDenied:
		return ErrPermissionDenied
	case ErrorKindNotFound:
		return ErrDeviceNotFound
	case ErrorKindBusy:
		return ErrDeviceBusy
	case ErrorKindOverconstrained:
		return ErrOverconstrained
	case ErrorKindAborted:
		return ErrAborted
	default:
		return nil
	}
}

// AcquisitionError is the only kind of failure a capture provider reports.
// Its message is the message of the cause, unchanged.
type AcquisitionError struct {
	Kind  ErrorKind
	Cause error
}

func NewAcquisitionError(kind ErrorKind, cause error) *AcquisitionError {
	return &AcquisitionError{kind, cause}
}

func (this *AcquisitionError) Error() string {
	if v := this.Cause; v != nil {
		return v.Error()
	}
	if v := this.Kind.sentinel(); v != nil {
		return v.Error()
	}
	return ""
}

func (this *AcquisitionError) Unwrap() error {
	return this.Cause
}

func (this *AcquisitionError) Is(target error) bool {
	if s := this.Kind.sentinel(); s != nil && s == target {
		return true
	}
	return false
}

// ClassifyError wraps err into an AcquisitionError guessing the kind from
// the platform's message. Errors which already are AcquisitionErrors are
// returned as they are.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var ae *AcquisitionError
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &AcquisitionError{ErrorKindAborted, err}
	}
	for _, s := range []error{ErrPermissionDenied, ErrDeviceNotFound, ErrDeviceBusy, ErrOverconstrained, ErrAborted} {
		if errors.Is(err, s) {
			return &AcquisitionError{kindOfSentinel(s), err}
		}
	}

	msg := strings.ToLower(err.Error())
	kind := ErrorKindUnknown
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "not allowed"), strings.Contains(msg, "denied"):
		kind = ErrorKindPermissionDenied
	case strings.Contains(msg, "busy"), strings.Contains(msg, "in use"):
		kind = ErrorKindBusy
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no such"), strings.Contains(msg, "failed to find"):
		kind = ErrorKindNotFound
	case strings.Contains(msg, "constraint"):
		kind = ErrorKindOverconstrained
	}
	return &AcquisitionError{kind, err}
}

func kindOfSentinel(s error) ErrorKind {
	switch s {
	case ErrPermissionDenied:
		return ErrorKindPermissionDenied
	case ErrDeviceNotFound:
		return ErrorKindNotFound
	case ErrDeviceBusy:
		return ErrorKindBusy
	case ErrOverconstrained:
		return ErrorKindOverconstrained
	case ErrAborted:
		return ErrorKindAborted
	default:
		return ErrorKindUnknown
	}
}
