// Package descriptor loads index settings/mappings descriptors from the local
// filesystem or from S3-compatible object storage.
package descriptor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kailas-cloud/igsrindex/internal/domain"
)

const s3Scheme = "s3://"

// ObjectGetter is the subset of the S3 client used by Loader.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader resolves a kind to its descriptor location and reads it.
type Loader struct {
	dir       string
	locations map[domain.Kind]string
	objects   ObjectGetter
}

// Option configures a Loader.
type Option func(*Loader)

// WithLocation overrides the descriptor location of one kind. The location is
// a filesystem path or an s3://bucket/key url.
func WithLocation(kind domain.Kind, location string) Option {
	return func(l *Loader) {
		if location != "" {
			l.locations[kind] = location
		}
	}
}

// WithObjectStore sets the client used for s3:// locations.
func WithObjectStore(g ObjectGetter) Option {
	return func(l *Loader) { l.objects = g }
}

// New creates a loader. Kinds without an explicit location read <dir>/<kind>.json,
// where dir may itself be an s3://bucket/prefix url.
func New(dir string, opts ...Option) *Loader {
	l := &Loader{dir: dir, locations: make(map[domain.Kind]string)}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Location returns where the descriptor of kind is read from.
func (l *Loader) Location(kind domain.Kind) string {
	if loc, ok := l.locations[kind]; ok {
		return loc
	}
	if strings.HasPrefix(l.dir, s3Scheme) {
		return strings.TrimSuffix(l.dir, "/") + "/" + string(kind) + ".json"
	}
	return filepath.Join(l.dir, string(kind)+".json")
}

// Load reads and checks the descriptor of kind. Any failure, including a
// missing object, is reported as domain.ErrInvalidDescriptor.
func (l *Loader) Load(ctx context.Context, kind domain.Kind) ([]byte, error) {
	loc := l.Location(kind)

	var (
		raw []byte
		err error
	)
	if strings.HasPrefix(loc, s3Scheme) {
		raw, err = l.loadObject(ctx, loc)
	} else {
		raw, err = os.ReadFile(loc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidDescriptor, loc, err)
	}
	if err := check(raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidDescriptor, loc, err)
	}
	return raw, nil
}

func (l *Loader) loadObject(ctx context.Context, loc string) ([]byte, error) {
	if l.objects == nil {
		return nil, fmt.Errorf("no object store configured")
	}
	bucket, key, err := ParseS3URL(loc)
	if err != nil {
		return nil, err
	}
	out, err := l.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(u string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(u, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("not an s3 url: %q", u)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url needs bucket and key: %q", u)
	}
	return bucket, key, nil
}

// check requires a JSON object carrying both settings and mappings objects.
func check(raw []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return err
	}
	for _, k := range []string{"settings", "mappings"} {
		v, ok := top[k]
		if !ok {
			return fmt.Errorf("missing %q", k)
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err != nil || obj == nil {
			return fmt.Errorf("%q is not an object", k)
		}
	}
	return nil
}
