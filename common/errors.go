package common

import "errors"

var (
	ErrorInvalidValue = errors.New("invalid value")

	// ErrorNotConfigured is returned when an estimate is requested before
	// bandwidth, derivative order and error bound have all been set.
	ErrorNotConfigured = errors.New("estimator not configured")

	// ErrorEmptyInput is returned for an empty sample or evaluation sequence.
	ErrorEmptyInput = errors.New("empty input")

	// ErrorTruncationDiverged is returned when no truncation number below the
	// configured limit satisfies the error bound.
	ErrorTruncationDiverged = errors.New("truncation number search diverged")

	// ErrorNaN is returned when a NaN or Inf shows up in the input or in an
	// intermediate coefficient.
	ErrorNaN = errors.New("non-finite value")
)
