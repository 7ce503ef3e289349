package model

import (
	"fmt"
	"io"
	"time"

	goparquet "github.com/fraugster/parquet-go"
	"github.com/fraugster/parquet-go/parquet"
	"github.com/fraugster/parquet-go/parquetschema"
	"github.com/pkg/errors"
)

func readParquet(r io.ReadSeeker, opts ReadOptions) (*Series, error) {
	column := opts.column(FormatParquet)
	columns := []string{column}
	if opts.TimestampColumn != "" {
		columns = append(columns, opts.TimestampColumn)
	}

	fr, err := goparquet.NewFileReader(r, columns...)
	if err != nil {
		return nil, errors.Wrap(err, "opening parquet file")
	}

	series := &Series{Values: []float64{}}
	for row := 0; ; row++ {
		data, err := fr.NextRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading parquet row %d", row)
		}

		v, err := parquetFloat(data[column])
		if err != nil {
			return nil, errors.Wrapf(err, "column '%s' on parquet row %d", column, row)
		}
		series.Values = append(series.Values, v)

		if opts.TimestampColumn != "" {
			ms, ok := data[opts.TimestampColumn].(int64)
			if !ok {
				return nil, errors.Errorf("column '%s' on parquet row %d is not an int64", opts.TimestampColumn, row)
			}
			series.Timestamps = append(series.Timestamps, time.Unix(0, ms*int64(time.Millisecond)).UTC())
		}
	}

	return series, nil
}

func parquetFloat(in interface{}) (float64, error) {
	switch v := in.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case nil:
		return 0, errors.New("missing value")
	default:
		return 0, errors.Errorf("unsupported type %T", in)
	}
}

// WriteSeriesParquet writes the series as a snappy compressed Parquet
// file with a double "value" column and, when the series has
// timestamps, an int64 "timestamp" column of unix milliseconds.
func WriteSeriesParquet(w io.Writer, s Series) error {
	schema := "message series {\n  required double value;\n"
	if len(s.Timestamps) > 0 {
		schema += "  required int64 timestamp;\n"
	}
	schema += "}"

	sd, err := parquetschema.ParseSchemaDefinition(schema)
	if err != nil {
		return errors.Wrap(err, "parsing parquet schema")
	}

	fw := goparquet.NewFileWriter(w,
		goparquet.WithSchemaDefinition(sd),
		goparquet.WithCompressionCodec(parquet.CompressionCodec_SNAPPY),
		goparquet.WithCreator(fmt.Sprintf("changepoint series '%s'", s.ID)),
	)

	for idx, v := range s.Values {
		row := map[string]interface{}{defaultValueColumn: v}
		if len(s.Timestamps) > 0 {
			row["timestamp"] = s.timestamp(idx).UnixNano() / int64(time.Millisecond)
		}
		if err = fw.AddData(row); err != nil {
			return errors.Wrapf(err, "adding row %d", idx)
		}
	}

	return errors.Wrap(fw.Close(), "flushing parquet file")
}
