package packgen

import (
	"github.com/goliatone/go-packgen/internal/loader"
	"github.com/goliatone/go-packgen/pkg/source"
)

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...source.LoaderOption) source.Loader {
	return loader.New(source.NewLoaderOptions(options...))
}
