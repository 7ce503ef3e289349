package data

import (
	"context"

	"github.com/evergreen-ci/changepoint/rest/model"
)

// Connector abstracts the link between the service's detection layer and
// the API layer, allowing for changes in how detections are scheduled
// without forcing changes to the API.
type Connector interface {
	// DetectChangepoints runs a single detection in the request
	// goroutine.
	DetectChangepoints(context.Context, model.APIDetectionRequest) (*model.APIDetectionResult, error)
	// DetectBatch runs one detection per series on the service's queue
	// and returns the results in request order.
	DetectBatch(context.Context, model.APIBatchRequest) ([]model.APIDetectionResult, error)
}
