package core

import "fmt"

// BundleError reports an unrecoverable archive or structural problem:
// an unopenable or oversized archive, a damaged entry, a bundle with no
// HTML entry point, or a request for a snippet that does not exist.
type BundleError struct {
	TransformID string
	Msg         string
	Err         error
}

// NewBundleError builds a BundleError with a formatted message.
func NewBundleError(transformID, format string, args ...any) *BundleError {
	return &BundleError{TransformID: transformID, Msg: fmt.Sprintf(format, args...)}
}

func (e *BundleError) Error() string {
	if e.TransformID == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s (transform %s)", e.Msg, e.TransformID)
}

func (e *BundleError) Unwrap() error { return e.Err }

// ConverterError reports that a matched tool-specific converter could not
// find a structural marker it depends on (runtime signature, generated
// script tag, composition loader call). It is fatal for the snippet's
// conversion; no other converter is tried.
type ConverterError struct {
	TransformID string
	Msg         string
}

// NewConverterError builds a ConverterError with a formatted message.
func NewConverterError(transformID, format string, args ...any) *ConverterError {
	return &ConverterError{TransformID: transformID, Msg: fmt.Sprintf(format, args...)}
}

func (e *ConverterError) Error() string {
	if e.TransformID == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s (transform %s)", e.Msg, e.TransformID)
}
