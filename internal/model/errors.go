package model

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable is the fatal load-time condition: the provider failed or
// returned no usable price rows.
var ErrDataUnavailable = errors.New("price data unavailable")

// DataUnavailableError names the instrument whose history could not be loaded.
type DataUnavailableError struct {
	InstrumentID string
	Err          error
}

func (e *DataUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("instrument %q: %v", e.InstrumentID, ErrDataUnavailable)
	}
	return fmt.Sprintf("instrument %q: %v: %v", e.InstrumentID, ErrDataUnavailable, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

// NewDataUnavailable wraps cause (which may be nil) for instrumentID.
func NewDataUnavailable(instrumentID string, cause error) error {
	return &DataUnavailableError{InstrumentID: instrumentID, Err: cause}
}
