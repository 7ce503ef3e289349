package rest

import (
	"net/http"

	"github.com/evergreen-ci/changepoint"
	"github.com/evergreen-ci/changepoint/model"
	"github.com/evergreen-ci/gimlet"
)

////////////////////////////////////////////////////////////////////////
//
// GET /status

type StatusResponse struct {
	Revision   string      `json:"revision"`
	Algorithms []string    `json:"algorithms"`
	QueueStats *amboyStats `json:"queue,omitempty"`
}

type amboyStats struct {
	Running   int `json:"running"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// statusHandler reports the build revision, the available algorithms, and
// the state of the detection queue.
func (s *Service) statusHandler(w http.ResponseWriter, r *http.Request) {
	resp := &StatusResponse{
		Revision: changepoint.BuildRevision,
	}
	for _, name := range model.Algorithms() {
		resp.Algorithms = append(resp.Algorithms, string(name))
	}

	if s.queue != nil {
		stats := s.queue.Stats(r.Context())
		resp.QueueStats = &amboyStats{
			Running:   stats.Running,
			Pending:   stats.Pending,
			Completed: stats.Completed,
		}
	}

	gimlet.WriteJSON(w, resp)
}
