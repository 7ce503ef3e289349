package operations

import (
	"os"

	"github.com/evergreen-ci/changepoint/model"
	"github.com/pkg/errors"
)

// writeResult writes the result to fn, choosing the format by extension,
// or as JSON to standard output when fn is empty.
func writeResult(fn string, result *model.DetectionResult) error {
	if fn == "" {
		return errors.WithStack(model.WriteResult(os.Stdout, model.FormatJSON, result))
	}

	format, err := model.FormatFromPath(fn)
	if err != nil {
		return errors.WithStack(err)
	}

	f, err := os.Create(fn)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	if err = model.WriteResult(f, format, result); err != nil {
		return errors.Wrapf(err, "problem writing result to '%s'", fn)
	}

	return errors.WithStack(f.Sync())
}
