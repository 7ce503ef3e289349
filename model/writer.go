package model

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	yaml "gopkg.in/yaml.v2"
)

// WriteSeries encodes a series in any readable format. FTDC output uses
// a scale of one.
func WriteSeries(ctx context.Context, w io.Writer, format Format, s Series) error {
	switch format {
	case FormatJSON:
		return errors.WithStack(writeJSON(w, s))
	case FormatYAML:
		return errors.WithStack(writeYAML(w, s))
	case FormatBSON:
		payload, err := bson.Marshal(s)
		if err != nil {
			return errors.Wrap(err, "encoding bson")
		}
		_, err = w.Write(payload)
		return errors.WithStack(err)
	case FormatCSV:
		return errors.WithStack(writeSeriesCSV(w, s))
	case FormatParquet:
		return errors.WithStack(WriteSeriesParquet(w, s))
	case FormatFTDC:
		return errors.WithStack(WriteSeriesFTDC(ctx, w, s, 1))
	default:
		return errors.Errorf("cannot write series as '%s'", format)
	}
}

// WriteResult encodes a detection result as a JSON or YAML document, or
// as CSV with one row per point.
func WriteResult(w io.Writer, format Format, result *DetectionResult) error {
	switch format {
	case FormatJSON:
		return errors.WithStack(writeJSON(w, result))
	case FormatYAML:
		return errors.WithStack(writeYAML(w, result))
	case FormatCSV:
		return errors.WithStack(writeResultCSV(w, result))
	default:
		return errors.Errorf("cannot write results as '%s'", format)
	}
}

func writeJSON(w io.Writer, data interface{}) error {
	out, err := json.MarshalIndent(data, "", "   ")
	if err != nil {
		return errors.Wrap(err, "problem writing data")
	}

	if _, err = w.Write(append(out, '\n')); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func writeYAML(w io.Writer, data interface{}) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encoding yaml")
	}

	_, err = w.Write(out)
	return errors.WithStack(err)
}

func writeSeriesCSV(w io.Writer, s Series) error {
	cw := csv.NewWriter(w)

	header := []string{defaultValueColumn}
	if len(s.Timestamps) > 0 {
		header = []string{"timestamp", defaultValueColumn}
	}
	if err := cw.Write(header); err != nil {
		return errors.WithStack(err)
	}

	for idx, v := range s.Values {
		record := []string{formatFloat(v)}
		if len(s.Timestamps) > 0 {
			record = []string{s.timestamp(idx).Format(time.RFC3339), formatFloat(v)}
		}
		if err := cw.Write(record); err != nil {
			return errors.WithStack(err)
		}
	}

	cw.Flush()
	return errors.WithStack(cw.Error())
}

func writeResultCSV(w io.Writer, result *DetectionResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{
		pointAnnotationIndexKey,
		pointAnnotationTimestampKey,
		pointAnnotationValueKey,
		pointAnnotationIsChangepointKey,
		pointAnnotationProbabilityKey,
	}); err != nil {
		return errors.WithStack(err)
	}

	for _, point := range result.Points {
		ts := ""
		if !point.Timestamp.IsZero() {
			ts = point.Timestamp.Format(time.RFC3339)
		}
		if err := cw.Write([]string{
			strconv.Itoa(point.Index),
			ts,
			formatFloat(point.Value),
			strconv.FormatBool(point.IsChangepoint),
			formatFloat(point.ChangepointProbability),
		}); err != nil {
			return errors.WithStack(err)
		}
	}

	cw.Flush()
	return errors.WithStack(cw.Error())
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
