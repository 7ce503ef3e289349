package data

import (
	"context"
	"math"
	"net/http"
	"testing"

	"github.com/evergreen-ci/changepoint"
	dbmodel "github.com/evergreen-ci/changepoint/model"
	"github.com/evergreen-ci/changepoint/rest/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ChangepointConnectorSuite struct {
	ctx    context.Context
	cancel context.CancelFunc
	sc     Connector

	suite.Suite
}

func TestChangepointConnectorSuite(t *testing.T) {
	suite.Run(t, new(ChangepointConnectorSuite))
}

func (s *ChangepointConnectorSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	env, err := changepoint.NewEnvironment("connector-test", &changepoint.Configuration{NumWorkers: 2})
	s.Require().NoError(err)
	s.sc = CreateEnvConnector(env)
}

func (s *ChangepointConnectorSuite) TearDownTest() {
	s.cancel()
}

func stepSeries(id string, each int, levels ...float64) model.APISeries {
	series := model.APISeries{ID: id}
	for _, level := range levels {
		for i := 0; i < each; i++ {
			series.Values = append(series.Values, level)
		}
	}
	return series
}

func errorStatus(t *testing.T, err error) int {
	resp, ok := err.(gimlet.ErrorResponse)
	require.True(t, ok, "%T", err)
	return resp.StatusCode
}

func (s *ChangepointConnectorSuite) TestDetectChangepoints() {
	result, err := s.sc.DetectChangepoints(s.ctx, model.APIDetectionRequest{
		Series: stepSeries("foo", 20, 10, 50),
	})
	s.Require().NoError(err)
	s.Require().NotNil(result)
	s.Equal("foo", result.SeriesID)
	s.Equal("pelt", result.Algorithm)
	s.Equal([]int{20}, result.Changepoints)
	s.Len(result.Points, 40)
}

func (s *ChangepointConnectorSuite) TestDetectChangepointsUserErrors() {
	for name, req := range map[string]model.APIDetectionRequest{
		"InsufficientData": {
			Series:  model.APISeries{Values: []float64{1, 2}},
			Options: dbmodel.DetectionOptions{Algorithm: dbmodel.AlgorithmBOCPD},
		},
		"InvalidInput": {
			Series: model.APISeries{Values: []float64{1, math.NaN(), 3, 4}},
		},
		"InvalidParameter": {
			Series:  stepSeries("foo", 10, 1, 2),
			Options: dbmodel.DetectionOptions{Algorithm: dbmodel.AlgorithmBOCPD, Threshold: 1.5},
		},
		"UnknownCost": {
			Series:  stepSeries("foo", 10, 1, 2),
			Options: dbmodel.DetectionOptions{Cost: "l3"},
		},
	} {
		s.Run(name, func() {
			result, err := s.sc.DetectChangepoints(s.ctx, req)
			s.Require().Error(err)
			s.Nil(result)
			s.Equal(http.StatusBadRequest, errorStatus(s.T(), err))
		})
	}
}

func (s *ChangepointConnectorSuite) TestDetectBatch() {
	results, err := s.sc.DetectBatch(s.ctx, model.APIBatchRequest{
		Series: []model.APISeries{
			stepSeries("one", 20, 10, 50),
			stepSeries("two", 15, 3, 9, 3),
		},
	})
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Equal("one", results[0].SeriesID)
	s.Equal([]int{20}, results[0].Changepoints)
	s.Equal("two", results[1].SeriesID)
	s.Equal([]int{15, 30}, results[1].Changepoints)
}

func (s *ChangepointConnectorSuite) TestDetectBatchRejectsBadRequests() {
	_, err := s.sc.DetectBatch(s.ctx, model.APIBatchRequest{})
	s.Require().Error(err)
	s.Equal(http.StatusBadRequest, errorStatus(s.T(), err))

	bad := stepSeries("bad", 5, 1, 2)
	bad.Values[2] = math.Inf(-1)
	_, err = s.sc.DetectBatch(s.ctx, model.APIBatchRequest{
		Series: []model.APISeries{stepSeries("good", 5, 1, 2), bad},
	})
	s.Require().Error(err)
	s.Equal(http.StatusBadRequest, errorStatus(s.T(), err))
	s.Contains(err.Error(), "bad")
}

func TestMockConnector(t *testing.T) {
	ctx := context.Background()
	mc := &MockConnector{Result: &model.APIDetectionResult{SeriesID: "foo"}}

	result, err := mc.DetectChangepoints(ctx, model.APIDetectionRequest{Series: stepSeries("foo", 2, 1)})
	require.NoError(t, err)
	assert.Equal(t, "foo", result.SeriesID)
	assert.Len(t, mc.Requests, 1)

	mc.Err = gimlet.ErrorResponse{StatusCode: http.StatusTeapot, Message: "nope"}
	_, err = mc.DetectBatch(ctx, model.APIBatchRequest{})
	assert.Error(t, err)
	assert.Len(t, mc.Batches, 1)
}
