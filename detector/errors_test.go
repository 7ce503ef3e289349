package detector

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorCodes(t *testing.T) {
	for name, test := range map[string]struct {
		err      error
		code     int
		userErr  bool
		contains string
	}{
		"Nil": {
			code: CodeSuccess,
		},
		"InsufficientData": {
			err:      &InsufficientDataError{Needed: 3, Got: 1},
			code:     CodeInsufficientData,
			userErr:  true,
			contains: "need at least 3 observations, got 1",
		},
		"InvalidInput": {
			err:      &InvalidInputError{Reason: "NaN at index 4"},
			code:     CodeInvalidInput,
			userErr:  true,
			contains: "invalid input: NaN at index 4",
		},
		"InvalidParameter": {
			err:      &InvalidParameterError{Param: "cost", Value: "poisson", Reason: "unsupported"},
			code:     CodeInvalidParameter,
			userErr:  true,
			contains: "invalid parameter 'cost' = 'poisson': unsupported",
		},
		"Wrapped": {
			err:      errors.Wrap(&InsufficientDataError{Needed: 3, Got: 0}, "running detector"),
			code:     CodeInsufficientData,
			userErr:  true,
			contains: "running detector",
		},
		"Unknown": {
			err:      errors.New("disk on fire"),
			code:     CodeInternalError,
			contains: "disk on fire",
		},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.code, ErrorCode(test.err))
			assert.Equal(t, test.userErr, IsUserError(test.err))
			if test.err != nil {
				assert.Contains(t, test.err.Error(), test.contains)
			}
		})
	}
}
