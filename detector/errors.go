package detector

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error codes reported across the foreign function boundary. The
// values match the numbering used by the embedding database extension.
const (
	CodeSuccess          = 0
	CodeInvalidInput     = 2
	CodeComputationError = 3
	CodeInsufficientData = 6
	CodeInvalidParameter = 9
	CodeInternalError    = 10
)

// InsufficientDataError is returned when a detector needs more
// observations than it was given.
type InsufficientDataError struct {
	Needed int
	Got    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d observations, got %d", e.Needed, e.Got)
}

// InvalidInputError reports malformed input data, such as non-finite
// values that should have been imputed upstream.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return "invalid input: " + e.Reason }

// InvalidParameterError reports a parameter outside of its accepted
// domain.
type InvalidParameterError struct {
	Param  string
	Value  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter '%s' = '%s': %s", e.Param, e.Value, e.Reason)
}

// ErrorCode maps an error, possibly wrapped, to its numeric code. Errors
// outside of the package taxonomy are reported as internal errors.
func ErrorCode(err error) int {
	if err == nil {
		return CodeSuccess
	}

	switch errors.Cause(err).(type) {
	case *InvalidInputError:
		return CodeInvalidInput
	case *InsufficientDataError:
		return CodeInsufficientData
	case *InvalidParameterError:
		return CodeInvalidParameter
	default:
		return CodeInternalError
	}
}

// IsUserError returns true for errors caused by the caller's input
// rather than by a failure inside the detectors.
func IsUserError(err error) bool {
	switch ErrorCode(err) {
	case CodeInvalidInput, CodeInsufficientData, CodeInvalidParameter:
		return true
	default:
		return false
	}
}
