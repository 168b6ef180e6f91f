package aws

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog/log"
)

type Client struct {
	session  *session.Session
	bucket   string
	region   string
	uploader *s3manager.Uploader
}

func NewClient(region, bucket string) *Client {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create AWS session")
	}

	log.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("AWS session created successfully")

	return &Client{
		session:  sess,
		bucket:   bucket,
		region:   region,
		uploader: s3manager.NewUploader(sess),
	}
}

// PutJSON stores body under key as a private JSON object.
func (c *Client) PutJSON(ctx context.Context, key string, body []byte) error {
	uploadInput := &s3manager.UploadInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}

	result, err := c.uploader.UploadWithContext(ctx, uploadInput)
	if err != nil {
		log.Error().
			Err(err).
			Str("bucket", c.bucket).
			Str("region", c.region).
			Str("key", key).
			Msg("S3 upload failed")
		return fmt.Errorf("aws: upload %s: %w", key, err)
	}

	log.Debug().
		Str("s3_location", result.Location).
		Str("key", key).
		Int("content_size", len(body)).
		Msg("Object uploaded to S3")

	return nil
}
