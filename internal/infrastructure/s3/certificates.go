package s3infra

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/notifica-api/internal/config"
)

// CertificateStore persists dispatch-certificate documents in S3. The stored
// object is the downloadable evidence artifact referenced by a notification's
// certificate URL.
type CertificateStore struct {
	client *s3.Client
	bucket string
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(cfg *config.Config) *s3.Client {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}

	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		panic("failed to load AWS config for S3: " + err.Error())
	}

	clientOpts := []func(*s3.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, clientOpts...)
}

// NewCertificateStore creates a CertificateStore backed by the given bucket.
func NewCertificateStore(client *s3.Client, bucket string) *CertificateStore {
	return &CertificateStore{client: client, bucket: bucket}
}

// PutCertificate uploads a rendered certificate document under
// certificates/<notificationID>.json and returns the object URL.
func (s *CertificateStore) PutCertificate(ctx context.Context, notificationID string, doc []byte) (string, error) {
	key := fmt.Sprintf("certificates/%s.json", notificationID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(doc),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put certificate: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// PresignedCertificateURL generates a time-limited download URL for a
// notification's certificate.
func (s *CertificateStore) PresignedCertificateURL(ctx context.Context, notificationID string, ttl time.Duration) (string, error) {
	key := fmt.Sprintf("certificates/%s.json", notificationID)
	presigner := s3.NewPresignClient(s.client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign certificate: %w", err)
	}
	return req.URL, nil
}
