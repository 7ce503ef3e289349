package model

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/evergreen-ci/pail"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// StoreType describes the name of the blob storage backing a pail Bucket
// implementation.
type StoreType string

const (
	StoreS3    StoreType = "s3"
	StoreLocal StoreType = "local"

	defaultS3Region = "us-east-1"

	seriesPrefix  = "series"
	resultsPrefix = "results"
)

func (t StoreType) Validate() error {
	switch t {
	case StoreS3, StoreLocal:
		return nil
	default:
		return errors.Errorf("invalid store type '%s'", t)
	}
}

// StoreOptions locates a bucket. For local stores Bucket is a directory.
type StoreOptions struct {
	Type      StoreType `bson:"type" json:"type" yaml:"type"`
	Bucket    string    `bson:"bucket" json:"bucket" yaml:"bucket"`
	Prefix    string    `bson:"prefix" json:"prefix" yaml:"prefix"`
	Region    string    `bson:"region" json:"region" yaml:"region"`
	AWSKey    string    `bson:"aws_key" json:"aws_key" yaml:"aws_key"`
	AWSSecret string    `bson:"aws_secret" json:"aws_secret" yaml:"aws_secret"`
}

func (o *StoreOptions) Validate() error {
	catcher := grip.NewBasicCatcher()

	if o.Type == "" {
		o.Type = StoreLocal
	}
	catcher.Add(o.Type.Validate())
	catcher.NewWhen(o.Bucket == "", "must specify a bucket")
	if o.Region == "" {
		o.Region = defaultS3Region
	}

	return catcher.Resolve()
}

// Create returns a pail Bucket backed by the configured store.
func (o StoreOptions) Create(ctx context.Context) (pail.Bucket, error) {
	if err := o.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid store options")
	}

	var (
		b   pail.Bucket
		err error
	)

	switch o.Type {
	case StoreS3:
		opts := pail.S3Options{
			Name:        o.Bucket,
			Prefix:      o.Prefix,
			Region:      o.Region,
			Credentials: pail.CreateAWSCredentials(o.AWSKey, o.AWSSecret, ""),
			MaxRetries:  10,
		}
		b, err = pail.NewS3Bucket(opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	case StoreLocal:
		opts := pail.LocalOptions{
			Path:   o.Bucket,
			Prefix: o.Prefix,
		}
		b, err = pail.NewLocalBucket(opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if err = b.Check(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return b, nil
}

// SeriesStore keeps series documents under "series/" and detection
// results under "results/" in a bucket.
type SeriesStore struct {
	bucket pail.Bucket
}

func NewSeriesStore(bucket pail.Bucket) *SeriesStore { return &SeriesStore{bucket: bucket} }

// List returns the keys of every series document in a readable format.
func (s *SeriesStore) List(ctx context.Context) ([]string, error) {
	iter, err := s.bucket.List(ctx, seriesPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "listing bucket contents")
	}

	keys := []string{}
	for iter.Next(ctx) {
		key := iter.Item().Name()
		if _, err = FormatFromPath(key); err != nil {
			grip.Debug(message.Fields{
				"message": "skipping unreadable object",
				"key":     key,
			})
			continue
		}
		keys = append(keys, key)
	}
	if err = iter.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating bucket contents")
	}

	return keys, nil
}

// Get reads the series at key. Series without an ID are named after
// their key.
func (s *SeriesStore) Get(ctx context.Context, key string, opts ReadOptions) (*Series, error) {
	format, err := FormatFromPath(key)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	r, err := s.bucket.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "getting series '%s'", key)
	}
	defer func() {
		grip.Error(message.WrapError(r.Close(), message.Fields{
			"message": "could not close bucket reader",
			"key":     key,
		}))
	}()

	if opts.ID == "" {
		opts.ID = SeriesIDFromKey(key)
	}

	series, err := ReadSeries(ctx, r, format, opts)
	return series, errors.Wrapf(err, "reading series '%s'", key)
}

// PutSeries writes the series under its ID in the given format.
func (s *SeriesStore) PutSeries(ctx context.Context, format Format, series Series) (string, error) {
	if series.ID == "" {
		return "", errors.New("cannot store a series without an id")
	}

	buf := &bytes.Buffer{}
	if err := WriteSeries(ctx, buf, format, series); err != nil {
		return "", errors.Wrapf(err, "encoding series '%s'", series.ID)
	}

	key := path.Join(seriesPrefix, series.ID+"."+string(format))
	return key, errors.Wrapf(s.bucket.Put(ctx, key, buf), "writing series '%s'", key)
}

// PutResult writes the result as JSON under "results/<series id>.json".
func (s *SeriesStore) PutResult(ctx context.Context, result *DetectionResult) (string, error) {
	if result == nil || result.SeriesID == "" {
		return "", errors.New("cannot store a result without a series id")
	}

	buf := &bytes.Buffer{}
	if err := WriteResult(buf, FormatJSON, result); err != nil {
		return "", errors.Wrapf(err, "encoding result for '%s'", result.SeriesID)
	}

	key := path.Join(resultsPrefix, result.SeriesID+".json")
	return key, errors.Wrapf(s.bucket.Put(ctx, key, buf), "writing result '%s'", key)
}

// SeriesIDFromKey strips the directory and extension from a key.
func SeriesIDFromKey(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, path.Ext(base))
}
