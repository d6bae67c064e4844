// Package source loads statement documents from the local filesystem or
// Google Cloud Storage.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/extract"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/pipeline"
)

const gcsScheme = "gs://"

// ObjectOpener opens a cloud storage object for reading.
type ObjectOpener interface {
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// Loader resolves document references into pipeline documents.
type Loader struct {
	objects  ObjectOpener
	maxBytes int64
}

// NewLoader creates a loader. objects may be nil when only local paths are used.
func NewLoader(objects ObjectOpener, maxBytes int64) *Loader {
	return &Loader{objects: objects, maxBytes: maxBytes}
}

// IsRemote reports whether ref names a Cloud Storage object.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, gcsScheme)
}

// Load reads ref, which is either a local path or gs://bucket/object.
func (l *Loader) Load(ctx context.Context, ref string) (pipeline.Document, error) {
	var (
		data []byte
		name string
		err  error
	)
	if IsRemote(ref) {
		data, name, err = l.loadObject(ctx, ref)
	} else {
		data, name, err = l.loadFile(ref)
	}
	if err != nil {
		return pipeline.Document{}, err
	}

	return pipeline.Document{
		Data:     data,
		Filename: name,
		MIMEType: DetectMIMEType(name, data),
	}, nil
}

func (l *Loader) loadFile(p string) ([]byte, string, error) {
	f, err := os.Open(p) //nolint:gosec // user supplied statement path
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer func() { _ = f.Close() }()

	data, err := l.readLimited(f, p)
	return data, filepath.Base(p), err
}

func (l *Loader) loadObject(ctx context.Context, ref string) ([]byte, string, error) {
	bucket, object, err := ParseGCSURI(ref)
	if err != nil {
		return nil, "", err
	}
	if l.objects == nil {
		return nil, "", fmt.Errorf("%w: cloud storage client for %s", common.ErrMissingConfig, ref)
	}

	r, err := l.objects.Open(ctx, bucket, object)
	if err != nil {
		return nil, "", fmt.Errorf("open GCS object reader: %w", err)
	}
	defer func() { _ = r.Close() }()

	data, err := l.readLimited(r, ref)
	return data, path.Base(object), err
}

// readLimited reads at most maxBytes+1 bytes so oversized documents fail
// without being fully buffered.
func (l *Loader) readLimited(r io.Reader, name string) ([]byte, error) {
	if l.maxBytes > 0 {
		r = io.LimitReader(r, l.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if l.maxBytes > 0 && int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", name, l.maxBytes, common.ErrDocumentTooLarge)
	}
	return data, nil
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(uri, gcsScheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if !IsRemote(uri) || len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: malformed GCS URI %q", common.ErrInvalidConfig, uri)
	}
	return parts[0], parts[1], nil
}

// DetectMIMEType guesses the MIME type from the file extension, then from content.
func DetectMIMEType(name string, data []byte) string {
	if f, err := extract.DetectFormat("", name); err == nil {
		if f == extract.FormatImage && strings.EqualFold(filepath.Ext(name), ".png") {
			return "image/png"
		}
		if f == extract.FormatImage {
			return "image/jpeg"
		}
		return f.MIMEType()
	}
	return http.DetectContentType(data)
}

// GCSOpener reads objects through a Cloud Storage client.
type GCSOpener struct {
	client *storage.Client
}

// NewGCSOpener creates a Cloud Storage client. An empty credentialsFile uses
// application default credentials.
func NewGCSOpener(ctx context.Context, credentialsFile string) (*GCSOpener, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSOpener{client: client}, nil
}

// Open returns a reader for bucket/object.
func (g *GCSOpener) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	return g.client.Bucket(bucket).Object(object).NewReader(ctx)
}

// Close releases the client.
func (g *GCSOpener) Close() error {
	return g.client.Close()
}
