package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	FileSystem     fs.FS
	HTTPClient     *http.Client
	AllowHTTP      bool
	RequestTimeout time.Duration
}

// Loader reads schema documents from files, an fs.FS or HTTP and parses them
// with ParseAny.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// NewLoader constructs a Loader. HTTP is only enabled when a client is
// supplied or AllowHTTP is set.
func NewLoader(options LoaderOptions) *Loader {
	var client *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if options.RequestTimeout > 0 && clone.Timeout == 0 {
			clone.Timeout = options.RequestTimeout
		}
		client = &clone
	case options.AllowHTTP:
		client = &http.Client{Timeout: options.RequestTimeout}
	}
	return &Loader{fs: options.FileSystem, http: client, timeout: options.RequestTimeout}
}

// Read returns the raw bytes behind src.
func (l *Loader) Read(ctx context.Context, src Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("schema loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch src.Kind() {
	case SourceKindFile:
		abs, err := filepath.Abs(src.Location())
		if err != nil {
			return nil, err
		}
		return os.ReadFile(abs)
	case SourceKindFS:
		if l.fs == nil {
			return nil, errors.New("schema loader: fs is nil")
		}
		return fs.ReadFile(l.fs, src.Location())
	case SourceKindURL:
		if l.http == nil {
			return nil, errors.New("schema loader: http support disabled")
		}
		return l.fetch(ctx, src.Location())
	default:
		return nil, errors.New("schema loader: unsupported source kind")
	}
}

// Load reads and parses the document behind src.
func (l *Loader) Load(ctx context.Context, src Source) (model.FormSchema, error) {
	data, err := l.Read(ctx, src)
	if err != nil {
		return model.FormSchema{}, fmt.Errorf("schema loader: read %s: %w", src.Location(), err)
	}
	parsed, err := ParseAny(data)
	if err != nil {
		return model.FormSchema{}, fmt.Errorf("schema loader: %s: %w", src.Location(), err)
	}
	return parsed, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	reqCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("schema loader: unexpected status " + resp.Status)
	}
	return io.ReadAll(resp.Body)
}
