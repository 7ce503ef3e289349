package units

import (
	"context"
	"fmt"

	"github.com/evergreen-ci/changepoint"
	"github.com/evergreen-ci/changepoint/model"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	detectChangepointsJobName = "detect-changepoints"
)

// DetectChangepointsJob runs one detection. The series is either carried
// by the job or, when only SeriesKey is set, read from the environment's
// store.
type DetectChangepointsJob struct {
	Series     *model.Series          `bson:"series,omitempty" json:"series,omitempty" yaml:"series,omitempty"`
	SeriesKey  string                 `bson:"series_key,omitempty" json:"series_key,omitempty" yaml:"series_key,omitempty"`
	Options    model.DetectionOptions `bson:"options" json:"options" yaml:"options"`
	SaveResult bool                   `bson:"save_result" json:"save_result" yaml:"save_result"`
	Result     *model.DetectionResult `bson:"result,omitempty" json:"result,omitempty" yaml:"result,omitempty"`

	job.Base `bson:"metadata" json:"metadata" yaml:"metadata"`
	env      changepoint.Environment
}

func init() {
	registry.AddJobType(detectChangepointsJobName, func() amboy.Job { return makeDetectChangepointsJob() })
}

func makeDetectChangepointsJob() *DetectChangepointsJob {
	j := &DetectChangepointsJob{
		Base: job.Base{
			JobType: amboy.JobType{
				Name:    detectChangepointsJobName,
				Version: 1,
			},
		},
	}

	j.SetDependency(dependency.NewAlways())
	return j
}

// NewDetectChangepointsJob creates a job for a series held in memory.
func NewDetectChangepointsJob(series model.Series, opts model.DetectionOptions) (amboy.Job, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "failed to create new detect changepoints job")
	}

	j := makeDetectChangepointsJob()
	j.Series = &series
	j.Options = opts
	j.SetID(fmt.Sprintf("%s.%s.%s.%d", detectChangepointsJobName, series.ID, opts.Algorithm, job.GetNumber()))

	return j, nil
}

// NewStoredSeriesJob creates a job for a series in the configured store
// that writes its result back to the store.
func NewStoredSeriesJob(key string, opts model.DetectionOptions) (amboy.Job, error) {
	if key == "" {
		return nil, errors.New("no series key given")
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "failed to create new detect changepoints job")
	}

	j := makeDetectChangepointsJob()
	j.SeriesKey = key
	j.Options = opts
	j.SaveResult = true
	j.SetID(fmt.Sprintf("%s.%s.%s.%d", detectChangepointsJobName, key, opts.Algorithm, job.GetNumber()))

	return j, nil
}

func (j *DetectChangepointsJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.env == nil {
		j.env = changepoint.GetEnvironment()
	}

	var store *model.SeriesStore
	if j.Series == nil || j.SaveResult {
		var err error
		store, err = j.env.GetStore(ctx)
		if err != nil {
			j.AddError(errors.Wrap(err, "problem resolving series store"))
			return
		}
	}

	if j.Series == nil {
		series, err := store.Get(ctx, j.SeriesKey, model.ReadOptions{})
		if err != nil {
			j.AddError(errors.Wrap(err, "problem fetching series"))
			return
		}
		j.Series = series
	}

	result, err := j.Options.Detect(ctx, *j.Series)
	if err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message":   "changepoint detection failed",
			"job":       j.ID(),
			"series":    j.Series.ID,
			"algorithm": j.Options.Algorithm,
		}))
		j.AddError(err)
		return
	}
	j.Result = result

	if j.SaveResult {
		key, err := store.PutResult(ctx, result)
		if err != nil {
			j.AddError(errors.Wrap(err, "problem saving result"))
			return
		}

		grip.Info(message.Fields{
			"message":      "saved changepoint result",
			"job":          j.ID(),
			"series":       j.Series.ID,
			"key":          key,
			"changepoints": len(result.Changepoints),
		})
	}
}
