// Package template defines the engine contract renderers use to wrap
// generated declarations in file templates. The pongo subpackage provides the
// pongo2-backed implementation; callers can swap templates through an fs.FS.
package template
