package benchmarks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/evergreen-ci/changepoint/model"
	"github.com/evergreen-ci/changepoint/units"
	"github.com/evergreen-ci/poplar"
	"github.com/mongodb/amboy/queue"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	regimesPerSeries = 8
	batchSeriesCount = 16
	batchWorkers     = 4
)

// RunDetectorBenchmark runs a poplar benchmark suite for each detector
// and the batch runner over synthetic series of increasing length,
// writing a combined report to results.txt under prefix.
func RunDetectorBenchmark(ctx context.Context, prefix string) error {
	prefix = filepath.Join(prefix, fmt.Sprintf("detector_benchmark_report_%d", time.Now().Unix()))
	if err := os.MkdirAll(prefix, os.ModePerm); err != nil {
		return errors.Wrap(err, "problem creating top level directory")
	}

	seriesSizes := []int{1e3, 1e4}
	var combinedReports string
	for _, size := range seriesSizes {
		suitePrefix := filepath.Join(prefix, fmt.Sprintf("%d", size))
		if err := os.Mkdir(suitePrefix, os.ModePerm); err != nil {
			return errors.Wrap(err, "problem creating subdirectory")
		}

		suite := getDetectorSuite(size)
		results, err := suite.Run(ctx, suitePrefix)
		if err != nil {
			combinedReports += fmt.Sprintf("Series Size: %d\n===============\nError:\n%s\n", size, err)
			continue
		}

		combinedReports += fmt.Sprintf("Series Size: %d\n===============\n%s\n", size, results.Report())
		grip.Info(message.Fields{
			"message": "completed detector benchmark suite",
			"size":    size,
			"prefix":  suitePrefix,
		})
	}

	f, err := os.Create(filepath.Join(prefix, "results.txt"))
	if err != nil {
		return errors.Wrap(err, "problem creating new file")
	}
	defer f.Close()

	_, err = f.WriteString(combinedReports)
	if err != nil {
		return errors.Wrap(err, "problem writing to file")
	}

	return nil
}

func getDetectorSuite(size int) poplar.BenchmarkSuite {
	suite := poplar.BenchmarkSuite{}
	for _, cost := range []string{"l1", "l2", "normal"} {
		suite = append(suite, detectorCase(
			fmt.Sprintf("PELT-%s", cost),
			getDetectorBenchmark(size, model.DetectionOptions{Algorithm: model.AlgorithmPELT, Cost: cost}),
		))
	}
	suite = append(suite,
		detectorCase("BOCPD", getDetectorBenchmark(size, model.DetectionOptions{Algorithm: model.AlgorithmBOCPD})),
		detectorCase("Bayesian", getDetectorBenchmark(size, model.DetectionOptions{Algorithm: model.AlgorithmBayesian})),
		detectorCase("Batch", getBatchBenchmark(size, model.DetectionOptions{Algorithm: model.AlgorithmPELT})),
	)

	return suite
}

func detectorCase(name string, bench poplar.Benchmark) *poplar.BenchmarkCase {
	return &poplar.BenchmarkCase{
		CaseName:         name,
		Bench:            bench,
		MinRuntime:       time.Millisecond,
		MaxRuntime:       5 * time.Minute,
		Timeout:          10 * time.Minute,
		IterationTimeout: 5 * time.Minute,
		Count:            1,
		MinIterations:    1,
		MaxIterations:    5,
		Recorder:         poplar.RecorderPerf,
	}
}

func getDetectorBenchmark(size int, opts model.DetectionOptions) poplar.Benchmark {
	series := RegimeSeries("benchmark", size, regimesPerSeries, int64(size))

	return func(ctx context.Context, r poplar.Recorder, _ int) error {
		startAt := time.Now()
		r.Begin()
		result, err := opts.Detect(ctx, series)
		r.End(time.Since(startAt))
		if err != nil {
			r.IncError(1)
			return errors.Wrap(err, "problem running detector")
		}
		r.IncOps(int64(len(series.Values)))
		r.IncSize(int64(len(result.Changepoints)))

		return nil
	}
}

func getBatchBenchmark(size int, opts model.DetectionOptions) poplar.Benchmark {
	series := regimeSeriesBatch(batchSeriesCount, size, regimesPerSeries)

	return func(ctx context.Context, r poplar.Recorder, _ int) error {
		q := queue.NewLocalLimitedSize(batchWorkers, len(series))

		startAt := time.Now()
		r.Begin()
		results, err := units.RunBatch(ctx, q, series, opts)
		r.End(time.Since(startAt))
		if err != nil {
			r.IncError(1)
			return errors.Wrap(err, "problem running batch")
		}
		r.IncOps(int64(len(results)))

		return nil
	}
}
