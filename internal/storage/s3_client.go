package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"clip-share/internal/domain/upload"
	"clip-share/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Config struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PublicBase string
	PresignTTL time.Duration
}

// objectAPI is the subset of *s3.Client used here.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Client struct {
	cfg     S3Config
	s3      objectAPI
	presign *s3.PresignClient
	logger  *logger.Logger
}

func NewClient(ctx context.Context, cfg S3Config, l *logger.Logger) (*Client, error) {
	if cfg.Region == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 region and bucket are required")
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			if parsed, err := url.Parse(endpoint); err == nil {
				endpoint = parsed.String()
			}
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	if l == nil {
		l = logger.NewNop()
	}

	return &Client{
		cfg:     cfg,
		s3:      s3Client,
		presign: s3.NewPresignClient(s3Client),
		logger:  l,
	}, nil
}

// Upload starts a PutObject in the background and returns its transfer handle.
func (c *Client) Upload(ctx context.Context, key string, blob *upload.Blob) *Transfer {
	ctx, cancel := context.WithCancel(ctx)
	t := NewTransfer(cancel)

	if c == nil || c.s3 == nil {
		go t.Finish(errors.New("s3 client not initialized"))
		return t
	}
	if key == "" || blob == nil {
		go t.Finish(errors.New("object key and body are required"))
		return t
	}

	body := newProgressReader(blob.Data, func(read, total int64) {
		t.Report(percentOf(read, total))
	})

	go func() {
		defer cancel()
		t.Report(0)
		_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(c.cfg.Bucket),
			Key:           aws.String(key),
			Body:          body,
			ContentType:   aws.String(blob.ContentType),
			ContentLength: aws.Int64(blob.Size()),
		})
		if err != nil {
			c.logger.Warnf("s3 put %s failed: %v", key, err)
			t.Finish(fmt.Errorf("put object %s: %w", key, err))
			return
		}
		c.logger.Debugf("uploaded s3://%s/%s (%d bytes)", c.cfg.Bucket, key, blob.Size())
		t.Finish(nil)
	}()

	return t
}

// URL resolves a readable URL for an uploaded object. It fails for objects that do not exist.
func (c *Client) URL(ctx context.Context, key string) (string, error) {
	if c == nil || c.s3 == nil {
		return "", errors.New("s3 client not initialized")
	}
	if key == "" {
		return "", errors.New("object key is required")
	}
	if _, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return "", fmt.Errorf("head object %s: %w", key, err)
	}

	if fileURL := c.FileURL(key); fileURL != "" {
		return fileURL, nil
	}
	if c.presign == nil {
		return "", errors.New("no public base configured and presigning unavailable")
	}
	presigned, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		if c.cfg.PresignTTL > 0 {
			po.Expires = c.cfg.PresignTTL
		}
	})
	if err != nil {
		return "", err
	}
	return presigned.URL, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.s3 == nil {
		return errors.New("s3 client not initialized")
	}
	if key == "" {
		return errors.New("object key is required")
	}
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil
		}
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (c *Client) FileURL(key string) string {
	if c == nil || key == "" {
		return ""
	}
	if c.cfg.PublicBase != "" {
		return strings.TrimRight(c.cfg.PublicBase, "/") + "/" + key
	}
	return ""
}
