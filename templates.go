package formbuilder

import (
	"io/fs"

	"github.com/goliatone/go-formbuilder/pkg/outline"
)

// OutlineTemplates exposes the built-in outline templates so callers can reuse
// or extend them without importing the outline package directly.
func OutlineTemplates() fs.FS {
	return outline.TemplatesFS()
}
