// Package archive writes expired signals and their receipts to S3 (or any
// S3-compatible store such as MinIO) as one JSON document per signal.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/dmitrijs2005/bowwow/internal/server/config"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
)

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Record is the archived document.
type Record struct {
	Signal     models.Signal          `json:"signal"`
	Receipts   []models.SignalReceipt `json:"receipts"`
	ArchivedAt time.Time              `json:"archived_at"`
}

type S3Archiver struct {
	bucket string
	client objectPutter
	now    func() time.Time
}

// NewS3Archiver builds an archiver from the S3 settings of cfg.
func NewS3Archiver(ctx context.Context, cfg *sc.Config) (*S3Archiver, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.S3Region)}
	if cfg.S3User != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3User, cfg.S3Password, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			// MinIO serves buckets on the path, not as subdomains.
			o.UsePathStyle = true
		}
	})

	return newS3Archiver(cfg.S3Bucket, client), nil
}

func newS3Archiver(bucket string, client objectPutter) *S3Archiver {
	return &S3Archiver{bucket: bucket, client: client, now: time.Now}
}

// Key is signals/YYYY/MM/DD/<id>.json, dated by the UTC send time.
func Key(s *models.Signal) string {
	return fmt.Sprintf("signals/%s/%s.json", s.SentAt.UTC().Format("2006/01/02"), s.ID)
}

func (a *S3Archiver) Archive(ctx context.Context, s *models.Signal, receipts []models.SignalReceipt) error {
	if receipts == nil {
		receipts = []models.SignalReceipt{}
	}
	body, err := json.Marshal(Record{Signal: *s, Receipts: receipts, ArchivedAt: a.now().UTC()})
	if err != nil {
		return err
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(Key(s)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", Key(s), err)
	}
	return nil
}
