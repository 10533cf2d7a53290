package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config contains minimal configuration for the archive client. Empty
// values fall back to the standard AWS config/credential chain.
type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Profile      string
	UsePathStyle bool
}

// Archiver writes a JSON record of each computed analysis to S3. Archival
// is fire-and-forget; a nil *Archiver is a no-op.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	log    *slog.Logger
}

// NewArchiver builds an archiver, or returns nil when no bucket is set.
func NewArchiver(ctx context.Context, cfg S3Config, log *slog.Logger) (*Archiver, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	return &Archiver{client: client, bucket: cfg.Bucket, prefix: prefix, log: log}, nil
}

// Archive uploads one analysis record under analyses/<id>.json.
func (a *Archiver) Archive(ctx context.Context, rec AnalysisRecord) {
	if a == nil {
		return
	}

	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		a.log.Warn("archive marshal failed", "id", rec.ID, "error", err)
		return
	}

	key := a.prefix + "analyses/" + rec.ID + ".json"
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		a.log.Warn("archive upload failed", "id", rec.ID, "error", err)
	}
}
