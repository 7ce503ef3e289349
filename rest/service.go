package rest

import (
	"context"

	"github.com/evergreen-ci/changepoint"
	"github.com/evergreen-ci/changepoint/model"
	"github.com/evergreen-ci/changepoint/rest/data"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/amboy"
	"github.com/pkg/errors"
	"github.com/rs/cors"
)

type Service struct {
	Port        int
	Prefix      string
	CORSOrigins []string
	Environment changepoint.Environment

	// internal settings
	queue amboy.Queue
	app   *gimlet.APIApp
	sc    data.Connector
}

func (s *Service) Validate() error {
	var err error

	if s.Environment == nil {
		return errors.New("must specify an environment")
	}

	if s.queue == nil {
		s.queue, err = s.Environment.GetQueue()
		if err != nil {
			return errors.Wrap(err, "problem getting queue")
		}
		if s.queue == nil {
			return errors.New("no queue defined")
		}
	}

	if s.sc == nil {
		s.sc = data.CreateEnvConnector(s.Environment)
	}

	if s.app == nil {
		s.app = gimlet.NewApp()
	}

	if s.Port == 0 {
		s.Port = changepoint.DefaultServicePort
	}

	if err := s.app.SetPort(s.Port); err != nil {
		return errors.WithStack(err)
	}

	if s.Prefix != "" {
		s.app.SetPrefix(s.Prefix)
	}

	if len(s.CORSOrigins) > 0 {
		s.app.AddMiddleware(cors.New(cors.Options{
			AllowedOrigins: s.CORSOrigins,
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type"},
		}))
	}

	return nil
}

func (s *Service) Start(ctx context.Context) error {
	if s.queue == nil || s.app == nil {
		return errors.New("application is not valid")
	}

	s.addRoutes()

	if !s.queue.Info().Started {
		if err := s.queue.Start(ctx); err != nil {
			return errors.Wrap(err, "problem starting queue")
		}
	}

	if err := s.app.Resolve(); err != nil {
		return errors.Wrap(err, "problem resolving routes")
	}

	return s.app.Run(ctx)
}

func (s *Service) addRoutes() {
	s.app.AddRoute("/status").Version(1).Get().Handler(s.statusHandler)

	s.app.AddRoute("/changepoints/pelt").Version(1).Post().RouteHandler(makeDetectChangepoints(s.sc, model.AlgorithmPELT))
	s.app.AddRoute("/changepoints/bocpd").Version(1).Post().RouteHandler(makeDetectChangepoints(s.sc, model.AlgorithmBOCPD))
	s.app.AddRoute("/changepoints/bayesian").Version(1).Post().RouteHandler(makeDetectChangepoints(s.sc, model.AlgorithmBayesian))
	s.app.AddRoute("/changepoints/batch").Version(1).Post().RouteHandler(makeDetectBatch(s.sc))
}
