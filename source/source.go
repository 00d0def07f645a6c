// Package source fetches and decodes raster images from paths, URLs, S3 objects,
// byte slices and readers.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupported is returned for source values the loader does not know how to read.
var ErrUnsupported = errors.New("unsupported source")

// Loader resolves a source value to a decoded image. Accepted sources:
//   - image.Image, returned as is
//   - []byte and io.Reader, decoded directly
//   - "http://" and "https://" URLs, fetched with HTTPClient
//   - "s3://bucket/key" URLs, fetched with the AWS SDK
//   - anything else given as a string is a file path
//
// Formats: PNG, JPEG, GIF, BMP, TIFF and WebP.
type Loader struct {
	HTTPClient *http.Client
	// S3Region overrides the region from the environment / shared config.
	S3Region string
	Log      zerolog.Logger

	s3Once     sync.Once
	downloader *s3manager.Downloader
	s3Err      error
}

// NewLoader returns a loader using http.DefaultClient and a silent logger.
func NewLoader() *Loader {
	return &Loader{
		HTTPClient: http.DefaultClient,
		Log:        zerolog.Nop(),
	}
}

// Decode reads src and decodes it.
func (l *Loader) Decode(ctx context.Context, src any) (image.Image, error) {
	switch v := src.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrUnsupported)
	case image.Image:
		return v, nil
	case []byte:
		return decode(bytes.NewReader(v))
	case io.Reader:
		return decode(v)
	case string:
		return l.decodeString(ctx, v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, src)
	}
}

func (l *Loader) decodeString(ctx context.Context, s string) (image.Image, error) {
	switch {
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return l.fetchHTTP(ctx, s)
	case strings.HasPrefix(s, "s3://"):
		return l.fetchS3(ctx, s)
	}
	f, err := os.Open(s)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s, err)
	}
	defer f.Close()
	l.Log.Debug().Str("path", s).Msg("decoding file")
	return decode(f)
}

func (l *Loader) fetchHTTP(ctx context.Context, rawurl string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawurl, err)
	}
	client := l.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawurl, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", rawurl, resp.Status)
	}
	l.Log.Debug().Str("url", rawurl).Msg("decoding http response")
	return decode(resp.Body)
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(rawurl string) (bucket, key string, err error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", "", fmt.Errorf("parse %s: %w", rawurl, err)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if u.Scheme != "s3" || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s is not an s3://bucket/key url", ErrUnsupported, rawurl)
	}
	return bucket, key, nil
}

func (l *Loader) s3Downloader() (*s3manager.Downloader, error) {
	l.s3Once.Do(func() {
		cfg := &aws.Config{}
		if l.S3Region != "" {
			cfg.Region = aws.String(l.S3Region)
		}
		sess, err := session.NewSession(cfg)
		if err != nil {
			l.s3Err = fmt.Errorf("set up aws session: %w", err)
			return
		}
		l.downloader = s3manager.NewDownloader(sess)
	})
	return l.downloader, l.s3Err
}

func (l *Loader) fetchS3(ctx context.Context, rawurl string) (image.Image, error) {
	bucket, key, err := ParseS3URL(rawurl)
	if err != nil {
		return nil, err
	}
	dl, err := l.s3Downloader()
	if err != nil {
		return nil, err
	}
	buf := aws.NewWriteAtBuffer(nil)
	_, err = dl.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawurl, err)
	}
	l.Log.Debug().Str("bucket", bucket).Str("key", key).Msg("decoding s3 object")
	return decode(bytes.NewReader(buf.Bytes()))
}

func decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}
