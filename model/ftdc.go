package model

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/mongodb/ftdc"
	"github.com/mongodb/ftdc/events"
	"github.com/pkg/errors"
)

const defaultPointsPerChunk = 10 * 1000

// readFTDC extracts a single metric from every chunk of an FTDC stream.
// FTDC samples are integers, so values are divided by the configured
// scale; "ts" samples, when present, become the series' timestamps.
func readFTDC(ctx context.Context, r io.Reader, opts ReadOptions) (*Series, error) {
	column := opts.column(FormatFTDC)
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	iter := ftdc.ReadChunks(ctx, r)
	defer iter.Close()

	series := &Series{Values: []float64{}}
	found := false
	chunks := 0
	for iter.Next() {
		chunk := iter.Chunk()
		chunks++

		var timestamps []time.Time
		for _, metric := range chunk.Metrics {
			switch metric.Key() {
			case column:
				found = true
				for _, v := range metric.Values {
					series.Values = append(series.Values, float64(v)/scale)
				}
			case "ts":
				for _, ms := range metric.Values {
					timestamps = append(timestamps, time.Unix(0, ms*int64(time.Millisecond)).UTC())
				}
			}
		}
		series.Timestamps = append(series.Timestamps, timestamps...)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "reading ftdc chunks")
	}
	if chunks > 0 && !found {
		return nil, errors.Errorf("ftdc data has no metric named '%s'", column)
	}
	if len(series.Timestamps) != len(series.Values) {
		series.Timestamps = nil
	}

	return series, nil
}

// WriteSeriesFTDC records the series as the state gauge of a sequence of
// performance events, scaling each value before rounding it to an
// integer. Reading it back with the same scale and the default metric
// returns the series.
func WriteSeriesFTDC(ctx context.Context, w io.Writer, s Series, scale float64) error {
	if scale == 0 {
		scale = 1
	}

	collector := ftdc.NewBatchCollector(defaultPointsPerChunk)
	startAt := time.Now().Truncate(time.Second)

	for idx, v := range s.Values {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "operation canceled")
		}

		ts := s.timestamp(idx)
		if ts.IsZero() {
			ts = startAt.Add(time.Duration(idx) * time.Second)
		}

		point := events.Performance{
			Timestamp: ts,
			ID:        int64(idx),
		}
		point.Counters.Number = int64(idx + 1)
		point.Gauges.State = int64(math.Round(v * scale))

		if err := collector.Add(point); err != nil {
			return errors.Wrap(err, "adding document to FTDC")
		}
	}

	payload, err := collector.Resolve()
	if err != nil {
		return errors.Wrap(err, "dumping FTDC data")
	}

	n, err := w.Write(payload)
	if err != nil {
		return errors.Wrap(err, "writing data")
	}
	if n != len(payload) {
		return errors.New("data improperly flushed")
	}

	return nil
}
