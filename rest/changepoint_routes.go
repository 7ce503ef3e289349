package rest

import (
	"context"
	"fmt"
	"net/http"

	dbmodel "github.com/evergreen-ci/changepoint/model"
	"github.com/evergreen-ci/changepoint/rest/data"
	"github.com/evergreen-ci/changepoint/rest/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

///////////////////////////////////////////////////////////////////////////////
//
// POST /changepoints/{pelt,bocpd,bayesian}

type detectChangepointsHandler struct {
	algorithm dbmodel.AlgorithmName
	req       model.APIDetectionRequest
	sc        data.Connector
}

func makeDetectChangepoints(sc data.Connector, algorithm dbmodel.AlgorithmName) gimlet.RouteHandler {
	return &detectChangepointsHandler{
		algorithm: algorithm,
		sc:        sc,
	}
}

// Factory returns a pointer to a new detectChangepointsHandler.
func (h *detectChangepointsHandler) Factory() gimlet.RouteHandler {
	return &detectChangepointsHandler{
		algorithm: h.algorithm,
		sc:        h.sc,
	}
}

// Parse reads the series and options from the request body. The route
// decides the algorithm.
func (h *detectChangepointsHandler) Parse(_ context.Context, r *http.Request) error {
	body := utility.NewRequestReader(r)
	defer body.Close()

	if err := utility.ReadJSON(body, &h.req); err != nil {
		return errors.Wrap(err, "argument read error")
	}
	h.req.Options.Algorithm = h.algorithm

	return nil
}

// Run detects changepoints in the requested series.
func (h *detectChangepointsHandler) Run(ctx context.Context) gimlet.Responder {
	result, err := h.sc.DetectChangepoints(ctx, h.req)
	if err != nil {
		logRequestError(errors.Wrapf(err, "problem detecting changepoints in series '%s'", h.req.Series.ID), message.Fields{
			"request":   gimlet.GetRequestID(ctx),
			"method":    "POST",
			"route":     fmt.Sprintf("/changepoints/%s", h.algorithm),
			"series":    h.req.Series.ID,
			"algorithm": h.algorithm,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}

	return gimlet.NewJSONResponse(result)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /changepoints/batch

type detectBatchHandler struct {
	req model.APIBatchRequest
	sc  data.Connector
}

func makeDetectBatch(sc data.Connector) gimlet.RouteHandler {
	return &detectBatchHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new detectBatchHandler.
func (h *detectBatchHandler) Factory() gimlet.RouteHandler {
	return &detectBatchHandler{
		sc: h.sc,
	}
}

func (h *detectBatchHandler) Parse(_ context.Context, r *http.Request) error {
	body := utility.NewRequestReader(r)
	defer body.Close()

	if err := utility.ReadJSON(body, &h.req); err != nil {
		return errors.Wrap(err, "argument read error")
	}

	return nil
}

// Run schedules one detection per series and waits for all of them.
func (h *detectBatchHandler) Run(ctx context.Context) gimlet.Responder {
	results, err := h.sc.DetectBatch(ctx, h.req)
	if err != nil {
		logRequestError(errors.Wrap(err, "problem running changepoint batch"), message.Fields{
			"request":   gimlet.GetRequestID(ctx),
			"method":    "POST",
			"route":     "/changepoints/batch",
			"series":    len(h.req.Series),
			"algorithm": h.req.Options.Algorithm,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}

	return gimlet.NewJSONResponse(results)
}
