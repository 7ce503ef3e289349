package model

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	yaml "gopkg.in/yaml.v2"
)

const (
	defaultValueColumn = "value"
	defaultFTDCMetric  = "gauges.state"
)

// ReadOptions controls how columnar and metric formats are mapped onto a
// series.
type ReadOptions struct {
	// ID names the series when the source does not. Files default to
	// their base name.
	ID string
	// Column is the CSV or Parquet column, or the FTDC metric key,
	// holding the values.
	Column string
	// TimestampColumn is the optional Parquet column of unix
	// millisecond timestamps.
	TimestampColumn string
	// Scale divides integer FTDC samples.
	Scale float64
}

func (o *ReadOptions) column(format Format) string {
	if o.Column != "" {
		return o.Column
	}
	if format == FormatFTDC {
		return defaultFTDCMetric
	}
	return defaultValueColumn
}

// ReadSeriesFile reads a series from a file, inferring the format from
// its extension.
func ReadSeriesFile(ctx context.Context, path string, opts ReadOptions) (*Series, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening '%s'", path)
	}
	defer f.Close()

	if opts.ID == "" {
		opts.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	series, err := ReadSeries(ctx, f, format, opts)
	return series, errors.Wrapf(err, "reading '%s'", path)
}

// ReadSeries decodes a series in the given format. JSON and YAML accept
// either a series document or a bare list of values.
func ReadSeries(ctx context.Context, r io.Reader, format Format, opts ReadOptions) (*Series, error) {
	if err := format.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	var (
		series *Series
		err    error
	)

	switch format {
	case FormatFTDC:
		series, err = readFTDC(ctx, r, opts)
	case FormatCSV:
		series, err = readCSV(r, opts)
	default:
		var data []byte
		data, err = ioutil.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, "reading data")
		}

		switch format {
		case FormatJSON:
			series, err = readJSON(data)
		case FormatYAML:
			series, err = readYAML(data)
		case FormatBSON:
			series = &Series{}
			err = errors.Wrap(bson.Unmarshal(data, series), "decoding bson series")
		case FormatParquet:
			series, err = readParquet(bytes.NewReader(data), opts)
		}
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if series.ID == "" {
		series.ID = opts.ID
	}
	if series.Values == nil {
		series.Values = []float64{}
	}

	return series, nil
}

func readJSON(data []byte) (*Series, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		values := []float64{}
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return nil, errors.Wrap(err, "decoding json values")
		}
		return &Series{Values: values}, nil
	}

	series := &Series{}
	if err := json.Unmarshal(data, series); err != nil {
		return nil, errors.Wrap(err, "decoding json series")
	}
	return series, nil
}

func readYAML(data []byte) (*Series, error) {
	values := []float64{}
	if err := yaml.Unmarshal(data, &values); err == nil {
		return &Series{Values: values}, nil
	}

	series := &Series{}
	if err := yaml.Unmarshal(data, series); err != nil {
		return nil, errors.Wrap(err, "decoding yaml series")
	}
	return series, nil
}

// readCSV accepts an optional header row. Without a header, a single
// column holds values and two columns hold a timestamp and a value.
func readCSV(r io.Reader, opts ReadOptions) (*Series, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parsing csv")
	}

	series := &Series{Values: []float64{}}
	if len(records) == 0 {
		return series, nil
	}

	valueIdx, timestampIdx := len(records[0])-1, -1
	if len(records[0]) > 1 {
		timestampIdx = 0
	}

	if isHeader(records[0]) {
		header := records[0]
		records = records[1:]

		valueIdx, timestampIdx = -1, -1
		column := opts.column(FormatCSV)
		for idx, name := range header {
			switch strings.TrimSpace(name) {
			case column:
				valueIdx = idx
			case "timestamp", "ts", "time":
				timestampIdx = idx
			}
		}
		if valueIdx < 0 {
			return nil, errors.Errorf("csv has no column named '%s'", column)
		}
	}

	for row, record := range records {
		if valueIdx >= len(record) {
			return nil, errors.Errorf("csv row %d has %d fields", row, len(record))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[valueIdx]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing value on csv row %d", row)
		}
		series.Values = append(series.Values, v)

		if timestampIdx >= 0 {
			ts, err := parseTimestamp(record[timestampIdx])
			if err != nil {
				return nil, errors.Wrapf(err, "parsing timestamp on csv row %d", row)
			}
			series.Timestamps = append(series.Timestamps, ts)
		}
	}

	return series, nil
}

func isHeader(record []string) bool {
	for _, field := range record {
		if _, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err != nil {
			if _, err = parseTimestamp(field); err != nil {
				return true
			}
		}
	}
	return false
}

// parseTimestamp accepts RFC 3339 strings or unix seconds.
func parseTimestamp(field string) (time.Time, error) {
	field = strings.TrimSpace(field)
	if secs, err := strconv.ParseInt(field, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}

	ts, err := time.Parse(time.RFC3339, field)
	return ts, errors.WithStack(err)
}
