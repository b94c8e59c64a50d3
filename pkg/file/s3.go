package file

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// PresignClient is the subset of *s3.PresignClient used here.
type PresignClient interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// HeadClient is the subset of *s3.Client used here.
type HeadClient interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Upload is a presigned direct-to-bucket PUT.
type Upload struct {
	Key       string      `json:"key"`
	Method    string      `json:"method"`
	URL       string      `json:"url"`
	Headers   http.Header `json:"headers"`
	PublicURL string      `json:"publicUrl"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// S3Presigner hands out presigned upload URLs so clients send file bytes
// straight to the bucket. It is safe for concurrent use.
type S3Presigner struct {
	presign   PresignClient
	head      HeadClient
	bucket    string
	publicURL string
	ttl       time.Duration
	maxSize   int64
	allowed   []string
	now       func() time.Time
}

type S3Option func(*s3Options)

type s3Options struct {
	httpClient *http.Client
	presign    PresignClient
	head       HeadClient
	allowed    []string
	now        func() time.Time
}

// WithClients replaces the SDK clients, for tests.
func WithClients(presign PresignClient, head HeadClient) S3Option {
	return func(o *s3Options) {
		o.presign = presign
		o.head = head
	}
}

// WithHTTPClient sets the client used for S3 API calls such as HeadObject.
func WithHTTPClient(client *http.Client) S3Option {
	return func(o *s3Options) {
		o.httpClient = client
	}
}

// WithAllowedTypes restricts upload content types. Default: common images.
func WithAllowedTypes(types ...string) S3Option {
	return func(o *s3Options) {
		o.allowed = o.allowed[:0:0]
		for _, t := range types {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				o.allowed = append(o.allowed, t)
			}
		}
	}
}

func WithClock(now func() time.Time) S3Option {
	return func(o *s3Options) {
		o.now = now
	}
}

var defaultAllowedTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

func NewS3Presigner(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Presigner, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &s3Options{allowed: defaultAllowedTypes, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	if o.presign == nil || o.head == nil {
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		if o.httpClient != nil {
			loadOpts = append(loadOpts, config.WithHTTPClient(o.httpClient))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToLoadConfig, err)
		}

		client := s3.NewFromConfig(awsCfg, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
		if o.presign == nil {
			o.presign = s3.NewPresignClient(client)
		}
		if o.head == nil {
			o.head = client
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		if cfg.Endpoint != "" {
			publicURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &S3Presigner{
		presign:   o.presign,
		head:      o.head,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/") + "/",
		ttl:       ttl,
		maxSize:   cfg.MaxUploadBytes,
		allowed:   o.allowed,
		now:       o.now,
	}, nil
}

// PresignUpload returns a PUT request the client can replay as-is to store
// size bytes of contentType under key. Type and length are part of the
// signature.
func (p *S3Presigner) PresignUpload(ctx context.Context, key, contentType string, size int64) (*Upload, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if !slices.Contains(p.allowed, strings.ToLower(contentType)) {
		return nil, fmt.Errorf("%w: %s", ErrMIMETypeNotAllowed, contentType)
	}
	if size <= 0 || (p.maxSize > 0 && size > p.maxSize) {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSize, size)
	}

	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return nil, errors.Join(ErrFailedToPresign, classifyS3Error(err, "presign"))
	}

	return &Upload{
		Key:       key,
		Method:    req.Method,
		URL:       req.URL,
		Headers:   req.SignedHeader,
		PublicURL: p.PublicURL(key),
		ExpiresAt: p.now().Add(p.ttl),
	}, nil
}

// PublicURL is where an uploaded object is served from.
func (p *S3Presigner) PublicURL(key string) string {
	return p.publicURL + key
}

// KeyFromURL returns the object key when u points into this bucket.
func (p *S3Presigner) KeyFromURL(u string) (string, bool) {
	key, ok := strings.CutPrefix(u, p.publicURL)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// Exists reports whether key is present in the bucket.
func (p *S3Presigner) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	_, err := p.head.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, classifyS3Error(err, "head")
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.ContainsAny(key, "\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}

func classifyS3Error(err error, operation string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s operation", ErrOperationTimeout, operation)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s operation", ErrOperationCanceled, operation)
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return ErrBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch code := apiErr.ErrorCode(); code {
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %s operation", ErrAccessDenied, operation)
		case "SlowDown", "ServiceUnavailable", "RequestTimeout":
			return fmt.Errorf("%w: %s operation", ErrServiceUnavailable, operation)
		case "NoSuchBucket":
			return ErrBucketNotFound
		default:
			return fmt.Errorf("%s operation failed (code: %s): %w", operation, code, err)
		}
	}
	return fmt.Errorf("%s operation failed: %w", operation, err)
}
