package render

import "github.com/goliatone/go-packgen/pkg/typegen"

// RenderOptions describe per-run output choices shared by every renderer.
type RenderOptions struct {
	// Export selects `export type` declarations instead of ambient ones.
	Export bool
	// DocComments emits field labels and descriptions as doc comments.
	DocComments bool
	// ImportFrom, when set, makes TypeScript artifacts import the reference
	// types they use from this module specifier.
	ImportFrom string
	// Banner replaces the generated-file header line.
	Banner string
	// Subset limits which sections are rendered. Settings are always rendered.
	Subset SectionSubset
}

// DefaultBanner heads every generated TypeScript file.
const DefaultBanner = "Code generated by packgen. DO NOT EDIT."

// BannerText returns the configured banner or DefaultBanner.
func (o RenderOptions) BannerText() string {
	if o.Banner != "" {
		return o.Banner
	}
	return DefaultBanner
}

// PrintOptions maps render options onto typegen print options. The sanitize
// hook is supplied by the renderer.
func (o RenderOptions) PrintOptions(sanitize func(string) string) typegen.PrintOptions {
	return typegen.PrintOptions{
		Export:      o.Export,
		DocComments: o.DocComments,
		Sanitize:    sanitize,
	}
}
