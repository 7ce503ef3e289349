package data

import (
	"github.com/evergreen-ci/changepoint"
	"github.com/evergreen-ci/changepoint/rest/model"
)

// EnvConnector implements Connector on top of a service environment.
type EnvConnector struct {
	env changepoint.Environment
}

func CreateEnvConnector(env changepoint.Environment) Connector {
	return &EnvConnector{
		env: env,
	}
}

// MockConnector returns canned results, or Err when it is set. Requests
// are recorded for inspection.
type MockConnector struct {
	Result   *model.APIDetectionResult
	Batch    []model.APIDetectionResult
	Err      error
	Requests []model.APIDetectionRequest
	Batches  []model.APIBatchRequest
}
