// Package loader implements source.Loader over files, fs.FS and HTTP.
package loader

import (
	"context"
	"errors"
	"net/http"
	"time"

	packerrors "github.com/goliatone/go-packgen/pkg/errors"
	"github.com/goliatone/go-packgen/pkg/source"
)

// Loader delegates to the file, fs.FS or HTTP strategy matching the source.
type Loader struct {
	options   source.LoaderOptions
	http      *http.Client
	allowHTTP bool
}

var _ source.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options source.LoaderOptions) *Loader {
	if options.MaxBytes <= 0 {
		options.MaxBytes = source.DefaultMaxBytes
	}
	timeout := options.RequestTimeout

	var httpClient *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		httpClient = &clone
	case options.AllowHTTPFallback:
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Loader{
		options:   options,
		http:      httpClient,
		allowHTTP: httpClient != nil,
	}
}

// Load fetches a document from the provided source. Failures carry the io
// error code and the source location as path.
func (l *Loader) Load(ctx context.Context, src source.Source) (source.Document, error) {
	if src == nil {
		return source.Document{}, errors.New("loader: source is nil")
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case source.KindFile:
		data, err = loadFile(ctx, src.Location(), l.options.MaxBytes)
	case source.KindFS:
		data, err = loadFromFS(ctx, l.options.FileSystem, src.Location(), l.options.MaxBytes)
	case source.KindURL:
		if !l.allowHTTP {
			return source.Document{}, packerrors.New(packerrors.CodeIO, src.Location(), "http support disabled")
		}
		data, err = loadHTTP(ctx, l.http, src.Location(), l.options.RequestTimeout, l.options.MaxBytes)
	default:
		err = errors.New("unsupported source kind " + string(src.Kind()))
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return source.Document{}, err
		}
		return source.Document{}, packerrors.Wrap(packerrors.CodeIO, src.Location(), "load document", err)
	}

	return source.NewDocument(src, data)
}

// Timeout reports the configured remote request timeout.
func (l *Loader) Timeout() time.Duration {
	return l.options.RequestTimeout
}
