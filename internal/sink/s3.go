package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// ObjectPutter is the part of the S3 client the sink needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 publishes the text as a text/plain object.
type S3 struct {
	Client ObjectPutter
	Bucket string
	Key    string
}

func NewS3(client ObjectPutter, bucket, prefix, docID string) *S3 {
	return &S3{Client: client, Bucket: bucket, Key: ObjectKey(prefix, docID)}
}

// ObjectKey builds "<prefix>/<docID>.txt".
func ObjectKey(prefix, docID string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return docID + ".txt"
	}
	return prefix + "/" + docID + ".txt"
}

// NewS3Client builds an S3 client for region. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain.
func NewS3Client(ctx context.Context, region, accessKey, secretKey string) (*s3.Client, error) {
	if region == "" {
		return nil, errors.New("AWS_REGION not set")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

func (s *S3) Name() string { return "s3" }

var throttleCodes = map[string]bool{
	"SlowDown":                 true,
	"ServiceUnavailable":       true,
	"RequestLimitExceeded":     true,
	"Throttling":               true,
	"ThrottlingException":      true,
	"TooManyRequestsException": true,
}

func (s *S3) Publish(ctx context.Context, text string) error {
	if s.Bucket == "" {
		return errors.New("s3 sink: no bucket configured")
	}
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.Key),
		Body:        strings.NewReader(text),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && throttleCodes[apiErr.ErrorCode()] {
		return &BusyError{Transport: s.Name(), Err: err}
	}
	return fmt.Errorf("s3 put object: %w", err)
}
