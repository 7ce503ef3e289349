package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	dbmodel "github.com/evergreen-ci/changepoint/model"
	"github.com/evergreen-ci/changepoint/rest/data"
	"github.com/evergreen-ci/changepoint/rest/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/stretchr/testify/suite"
)

type ChangepointRoutesSuite struct {
	sc *data.MockConnector
	rh map[string]gimlet.RouteHandler

	suite.Suite
}

func TestChangepointRoutesSuite(t *testing.T) {
	suite.Run(t, new(ChangepointRoutesSuite))
}

func (s *ChangepointRoutesSuite) SetupTest() {
	s.sc = &data.MockConnector{
		Result: &model.APIDetectionResult{SeriesID: "foo", Changepoints: []int{3}},
		Batch:  []model.APIDetectionResult{{SeriesID: "one"}, {SeriesID: "two"}},
	}
	s.rh = map[string]gimlet.RouteHandler{
		"pelt":     makeDetectChangepoints(s.sc, dbmodel.AlgorithmPELT),
		"bocpd":    makeDetectChangepoints(s.sc, dbmodel.AlgorithmBOCPD),
		"bayesian": makeDetectChangepoints(s.sc, dbmodel.AlgorithmBayesian),
		"batch":    makeDetectBatch(s.sc),
	}
}

func (s *ChangepointRoutesSuite) newRequest(url string, body interface{}) *http.Request {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(payload))
	s.Require().NoError(err)
	return req
}

func (s *ChangepointRoutesSuite) TestFactoryKeepsAlgorithm() {
	for name, rh := range s.rh {
		s.Run(name, func() {
			next := rh.Factory()
			s.NotNil(next)
			s.NotSame(rh, next)
			if h, ok := next.(*detectChangepointsHandler); ok {
				s.Equal(dbmodel.AlgorithmName(name), h.algorithm)
				s.Equal(s.sc, h.sc)
			}
		})
	}
}

func (s *ChangepointRoutesSuite) TestParseSetsAlgorithmFromRoute() {
	for _, algo := range dbmodel.Algorithms() {
		s.Run(string(algo), func() {
			rh := s.rh[string(algo)].Factory().(*detectChangepointsHandler)
			req := s.newRequest("/changepoints/"+string(algo), model.APIDetectionRequest{
				Series:  model.APISeries{ID: "foo", Values: []float64{1, 2, 3}},
				Options: dbmodel.DetectionOptions{Algorithm: "something-else", MinSize: 4},
			})

			s.Require().NoError(rh.Parse(context.TODO(), req))
			s.Equal(algo, rh.req.Options.Algorithm)
			s.Equal(4, rh.req.Options.MinSize)
			s.Equal("foo", rh.req.Series.ID)
			s.Equal([]float64{1, 2, 3}, rh.req.Series.Values)
		})
	}
}

func (s *ChangepointRoutesSuite) TestParseFailsWithInvalidJSON() {
	rh := s.rh["pelt"].Factory()
	req, err := http.NewRequest(http.MethodPost, "/changepoints/pelt", bytes.NewBufferString("{not json"))
	s.Require().NoError(err)
	s.Error(rh.Parse(context.TODO(), req))
}

func (s *ChangepointRoutesSuite) TestRunReturnsResult() {
	rh := s.rh["bocpd"].Factory().(*detectChangepointsHandler)
	rh.req = model.APIDetectionRequest{Series: model.APISeries{ID: "foo"}}

	resp := rh.Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusOK, resp.Status())
	s.Equal(s.sc.Result, resp.Data())
	s.Len(s.sc.Requests, 1)
}

func (s *ChangepointRoutesSuite) TestRunPropagatesErrorStatus() {
	s.sc.Err = gimlet.ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Message:    "insufficient data",
	}
	rh := s.rh["pelt"].Factory()

	resp := rh.Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusBadRequest, resp.Status())
}

func (s *ChangepointRoutesSuite) TestBatch() {
	rh := s.rh["batch"].Factory().(*detectBatchHandler)
	req := s.newRequest("/changepoints/batch", model.APIBatchRequest{
		Series: []model.APISeries{
			{ID: "one", Values: []float64{1, 2}},
			{ID: "two", Values: []float64{3, 4}},
		},
		Options: dbmodel.DetectionOptions{Algorithm: dbmodel.AlgorithmBayesian},
	})
	s.Require().NoError(rh.Parse(context.TODO(), req))
	s.Len(rh.req.Series, 2)
	s.Equal(dbmodel.AlgorithmBayesian, rh.req.Options.Algorithm)

	resp := rh.Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusOK, resp.Status())
	s.Equal(s.sc.Batch, resp.Data())

	s.sc.Err = gimlet.ErrorResponse{
		StatusCode: http.StatusInternalServerError,
		Message:    "queue failure",
	}
	resp = rh.Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusInternalServerError, resp.Status())
}
