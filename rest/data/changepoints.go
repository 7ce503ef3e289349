package data

import (
	"context"
	"net/http"

	"github.com/evergreen-ci/changepoint/detector"
	dbmodel "github.com/evergreen-ci/changepoint/model"
	"github.com/evergreen-ci/changepoint/rest/model"
	"github.com/evergreen-ci/changepoint/units"
	"github.com/evergreen-ci/gimlet"
	"github.com/pkg/errors"
)

//////////////////////////////
// EnvConnector Implementation
//////////////////////////////

// DetectChangepoints runs the requested detection directly.
func (ec *EnvConnector) DetectChangepoints(ctx context.Context, req model.APIDetectionRequest) (*model.APIDetectionResult, error) {
	series, err := exportSeries(req.Series)
	if err != nil {
		return nil, err
	}

	result, err := req.Options.Detect(ctx, series)
	if err != nil {
		return nil, detectionErrorResponse(err)
	}

	apiResult := &model.APIDetectionResult{}
	if err = apiResult.Import(result); err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrap(err, "converting result to API model").Error(),
		}
	}

	return apiResult, nil
}

// DetectBatch validates every series up front and then runs the batch
// on the environment's queue.
func (ec *EnvConnector) DetectBatch(ctx context.Context, req model.APIBatchRequest) ([]model.APIDetectionResult, error) {
	if len(req.Series) == 0 {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    "batch request contains no series",
		}
	}

	opts := req.Options
	if err := opts.Validate(); err != nil {
		return nil, detectionErrorResponse(err)
	}

	series := make([]dbmodel.Series, 0, len(req.Series))
	for _, apiSeries := range req.Series {
		s, err := exportSeries(apiSeries)
		if err != nil {
			return nil, err
		}
		if err = s.Validate(); err != nil {
			return nil, detectionErrorResponse(errors.Wrapf(err, "series '%s'", s.ID))
		}
		series = append(series, s)
	}

	q, err := ec.env.GetQueue()
	if err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrap(err, "getting queue").Error(),
		}
	}

	results, err := units.RunBatch(ctx, q, series, opts)
	if err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrap(err, "running batch").Error(),
		}
	}

	out := make([]model.APIDetectionResult, len(results))
	for idx := range results {
		if err = out[idx].Import(results[idx]); err != nil {
			return nil, gimlet.ErrorResponse{
				StatusCode: http.StatusInternalServerError,
				Message:    errors.Wrap(err, "converting result to API model").Error(),
			}
		}
	}

	return out, nil
}

func exportSeries(apiSeries model.APISeries) (dbmodel.Series, error) {
	out, err := apiSeries.Export()
	if err != nil {
		return dbmodel.Series{}, gimlet.ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    err.Error(),
		}
	}
	return out.(dbmodel.Series), nil
}

// detectionErrorResponse reports caller mistakes, such as too few points
// or an out of range parameter, as bad requests.
func detectionErrorResponse(err error) error {
	status := http.StatusInternalServerError
	if detector.IsUserError(err) {
		status = http.StatusBadRequest
	}

	return gimlet.ErrorResponse{
		StatusCode: status,
		Message:    err.Error(),
	}
}

///////////////////////////////
// MockConnector Implementation
///////////////////////////////

func (mc *MockConnector) DetectChangepoints(_ context.Context, req model.APIDetectionRequest) (*model.APIDetectionResult, error) {
	mc.Requests = append(mc.Requests, req)
	if mc.Err != nil {
		return nil, mc.Err
	}
	return mc.Result, nil
}

func (mc *MockConnector) DetectBatch(_ context.Context, req model.APIBatchRequest) ([]model.APIDetectionResult, error) {
	mc.Batches = append(mc.Batches, req)
	if mc.Err != nil {
		return nil, mc.Err
	}
	return mc.Batch, nil
}
