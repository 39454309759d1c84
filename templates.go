package packgen

import (
	"io/fs"

	"github.com/goliatone/go-packgen/pkg/renderers/typescript"
)

// EmbeddedTemplates exposes the built-in TypeScript file templates so callers
// can copy and shadow them with typescript.WithTemplatesFS.
func EmbeddedTemplates() fs.FS {
	return typescript.TemplatesFS()
}
