package model

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Format names an on-disk encoding of a series or result.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatCSV     Format = "csv"
	FormatBSON    Format = "bson"
	FormatParquet Format = "parquet"
	FormatFTDC    Format = "ftdc"
)

func (f Format) Validate() error {
	switch f {
	case FormatJSON, FormatYAML, FormatCSV, FormatBSON, FormatParquet, FormatFTDC:
		return nil
	default:
		return errors.Errorf("invalid data format '%s'", f)
	}
}

// FormatFromPath picks a format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "bson":
		return FormatBSON, nil
	case "parquet":
		return FormatParquet, nil
	case "ftdc":
		return FormatFTDC, nil
	default:
		return "", errors.Errorf("cannot determine format of '%s'", path)
	}
}
