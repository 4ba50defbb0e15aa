package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

// Blob is media held in memory.
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileName returns Name, or a generated name with an extension matching the
// content type.
func (b Blob) FileName() string {
	if b.Name != "" {
		return b.Name
	}
	name := "upload-" + uuid.NewString()
	if exts, _ := mime.ExtensionsByType(b.ContentType); len(exts) > 0 {
		return name + exts[0]
	}
	if i := strings.IndexByte(b.ContentType, '/'); i >= 0 && !strings.ContainsAny(b.ContentType[i+1:], ";+ ") {
		return name + "." + b.ContentType[i+1:]
	}
	return name
}

// ObjectGetter is the slice of the S3 API the resolver uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type S3Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewS3Getter builds an S3 client for S3-compatible storage. Static
// credentials are used when both keys are set, the default chain otherwise.
func NewS3Getter(ctx context.Context, o S3Options) (ObjectGetter, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKey != "" && o.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	}
	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newS3ClientFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	}), nil
}

// BlobResolver loads a reference into memory. Supported: plain paths and
// file://, http(s)://, data: and s3://bucket/key.
type BlobResolver struct {
	http *resty.Client
	s3   ObjectGetter
	log  logging.Logger
}

// NewBlobResolver returns a resolver. s3 may be nil, in which case s3://
// references are rejected.
func NewBlobResolver(httpc *resty.Client, s3 ObjectGetter, log logging.Logger) *BlobResolver {
	if httpc == nil {
		httpc = resty.New()
	}
	return &BlobResolver{http: httpc, s3: s3, log: log}
}

func (r *BlobResolver) Resolve(ctx context.Context, ref Ref) (Blob, error) {
	var (
		blob Blob
		err  error
	)
	switch ref.scheme() {
	case "", "file":
		blob, err = r.file(ref)
	case "http", "https":
		blob, err = r.fetch(ctx, ref)
	case "data":
		blob, err = parseDataURI(string(ref))
	case "s3":
		blob, err = r.object(ctx, ref)
	default:
		return Blob{}, fmt.Errorf("%w: %s", ErrUnsupportedRef, ref)
	}
	if err != nil {
		return Blob{}, err
	}
	if blob.ContentType == "" {
		blob.ContentType = http.DetectContentType(blob.Data)
	}
	r.log.Debug(ctx, "blob resolved", "name", blob.Name, "type", blob.ContentType, "size", len(blob.Data))
	return blob, nil
}

func (r *BlobResolver) file(ref Ref) (Blob, error) {
	p, _ := ref.localPath()
	data, err := os.ReadFile(p)
	if err != nil {
		return Blob{}, fmt.Errorf("read media: %w", err)
	}
	return Blob{Name: ref.Name(), Data: data}, nil
}

func (r *BlobResolver) fetch(ctx context.Context, ref Ref) (Blob, error) {
	resp, err := r.http.R().SetContext(ctx).Get(string(ref))
	if err != nil {
		return Blob{}, fmt.Errorf("fetch media: %w", err)
	}
	if resp.IsError() {
		return Blob{}, fmt.Errorf("fetch media: status %d", resp.StatusCode())
	}
	return Blob{
		Name:        ref.Name(),
		ContentType: resp.Header().Get("Content-Type"),
		Data:        resp.Body(),
	}, nil
}

func (r *BlobResolver) object(ctx context.Context, ref Ref) (Blob, error) {
	if r.s3 == nil {
		return Blob{}, fmt.Errorf("%w: s3 storage not configured", ErrUnsupportedRef)
	}
	u, err := url.Parse(string(ref))
	if err != nil || u.Host == "" || strings.Trim(u.Path, "/") == "" {
		return Blob{}, fmt.Errorf("%w: %s", ErrUnsupportedRef, ref)
	}
	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")

	out, err := r.s3.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return Blob{}, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Blob{}, fmt.Errorf("read object: %w", err)
	}
	return Blob{
		Name:        ref.Name(),
		ContentType: aws.ToString(out.ContentType),
		Data:        data,
	}, nil
}

// parseDataURI handles data:[<mediatype>][;base64],<data>.
func parseDataURI(s string) (Blob, error) {
	rest := strings.TrimPrefix(s, "data:")
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Blob{}, fmt.Errorf("%w: malformed data uri", ErrUnsupportedRef)
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta, isBase64 = m, true
	}

	var data []byte
	if isBase64 {
		d, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return Blob{}, fmt.Errorf("%w: %w", ErrUnsupportedRef, err)
		}
		data = d
	} else {
		d, err := url.PathUnescape(payload)
		if err != nil {
			return Blob{}, fmt.Errorf("%w: %w", ErrUnsupportedRef, err)
		}
		data = []byte(d)
	}

	ct, _, _ := strings.Cut(meta, ";")
	return Blob{ContentType: ct, Data: data}, nil
}
