// Package config loads packgen run configuration from JSON or YAML files.
// Command-line flags layer on top of the loaded values.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-packgen/pkg/packschema"
	"github.com/goliatone/go-packgen/pkg/render"
)

// DefaultFileNames are probed, in order, when no explicit config is given.
var DefaultFileNames = []string{"packgen.yaml", "packgen.yml", "packgen.json"}

// Config describes one compilation run.
type Config struct {
	// Input is a combined document with "constants" and "template" keys.
	Input string `json:"input" yaml:"input"`
	// Template and Constants load the two halves from separate documents.
	Template  string `json:"template" yaml:"template"`
	Constants string `json:"constants" yaml:"constants"`

	Out       string   `json:"out" yaml:"out"`
	Renderers []string `json:"renderers" yaml:"renderers"`

	Types    TypesConfig    `json:"types" yaml:"types"`
	Resolver ResolverConfig `json:"resolver" yaml:"resolver"`
	Subset   SubsetConfig   `json:"subset" yaml:"subset"`
	OpenAPI  OpenAPIConfig  `json:"openapi" yaml:"openapi"`
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Store    StoreConfig    `json:"store" yaml:"store"`

	// Templates points at a directory of shadowing TypeScript templates.
	Templates string `json:"templates" yaml:"templates"`
}

// TypesConfig controls type synthesis and printing.
type TypesConfig struct {
	Suffix         string            `json:"suffix" yaml:"suffix"`
	Export         bool              `json:"export" yaml:"export"`
	DocComments    bool              `json:"docComments" yaml:"docComments"`
	ImportFrom     string            `json:"importFrom" yaml:"importFrom"`
	Banner         string            `json:"banner" yaml:"banner"`
	ReferenceTypes map[string]string `json:"referenceTypes" yaml:"referenceTypes"`
	MaxDepth       int               `json:"maxDepth" yaml:"maxDepth"`
}

// ResolverConfig controls constant resolution.
type ResolverConfig struct {
	Marker          string `json:"marker" yaml:"marker"`
	MaxDepth        int    `json:"maxDepth" yaml:"maxDepth"`
	AllowUnresolved bool   `json:"allowUnresolved" yaml:"allowUnresolved"`
}

// SubsetConfig limits generation to some sections.
type SubsetConfig struct {
	Sections   []string `json:"sections" yaml:"sections"`
	Categories []string `json:"categories" yaml:"categories"`
}

// OpenAPIConfig sets the info block of the OpenAPI artifact.
type OpenAPIConfig struct {
	Title   string `json:"title" yaml:"title"`
	Version string `json:"version" yaml:"version"`
}

// HTTPConfig enables remote inputs.
type HTTPConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Timeout Duration `json:"timeout" yaml:"timeout"`
}

// StoreConfig mirrors artifacts into a database.
type StoreConfig struct {
	SQLite   string `json:"sqlite" yaml:"sqlite"`
	Postgres string `json:"postgres" yaml:"postgres"`
	Table    string `json:"table" yaml:"table"`
}

// Duration accepts Go duration strings ("10s") in config files.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.set(raw)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.set(raw)
}

func (d *Duration) set(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Out:       "dist",
		Renderers: []string{"typescript", "schema"},
	}
}

// Parse decodes a JSON or YAML document over Default(). JSON is tried first;
// YAML is a superset so it catches everything else.
func Parse(data []byte, source string) (Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Config{}, fmt.Errorf("config: file %s is empty", source)
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		cfg = Default()
		if yamlErr := yaml.Unmarshal(data, &cfg); yamlErr != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", source, yamlErr)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", source, err)
	}
	return cfg, nil
}

// Load reads and parses a config file from disk.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Discover loads the first of DefaultFileNames present in files. It returns
// Default() and an empty name when none exists.
func Discover(files fs.FS) (Config, string, error) {
	if files == nil {
		return Default(), "", nil
	}
	for _, name := range DefaultFileNames {
		data, err := fs.ReadFile(files, name)
		if err != nil {
			continue
		}
		cfg, err := Parse(data, name)
		if err != nil {
			return Config{}, name, err
		}
		return cfg, name, nil
	}
	return Default(), "", nil
}

// Validate checks the combination of inputs and names.
func (c Config) Validate() error {
	if c.Input != "" && (c.Template != "" || c.Constants != "") {
		return fmt.Errorf("input cannot be combined with template or constants")
	}
	if c.Constants != "" && c.Template == "" {
		return fmt.Errorf("constants requires template")
	}
	for kind := range c.Types.ReferenceTypes {
		if !isReferenceKind(packschema.Kind(kind)) {
			return fmt.Errorf("referenceTypes: %q is not a reference component", kind)
		}
	}
	if c.Types.MaxDepth < 0 || c.Resolver.MaxDepth < 0 {
		return fmt.Errorf("maxDepth must not be negative")
	}
	if c.Store.SQLite != "" && c.Store.Postgres != "" {
		return fmt.Errorf("store: choose sqlite or postgres, not both")
	}
	return nil
}

// HasInput reports whether an input document is configured.
func (c Config) HasInput() bool {
	return c.Input != "" || c.Template != ""
}

// RenderOptions maps the types and subset sections onto render options.
func (c Config) RenderOptions() render.RenderOptions {
	return render.RenderOptions{
		Export:      c.Types.Export,
		DocComments: c.Types.DocComments,
		ImportFrom:  c.Types.ImportFrom,
		Banner:      c.Types.Banner,
		Subset: render.SectionSubset{
			Keys:       append([]string(nil), c.Subset.Sections...),
			Categories: append([]string(nil), c.Subset.Categories...),
		},
	}
}

// ReferenceTypeMap returns ReferenceTypes keyed by component kind.
func (c Config) ReferenceTypeMap() map[packschema.Kind]string {
	if len(c.Types.ReferenceTypes) == 0 {
		return nil
	}
	out := make(map[packschema.Kind]string, len(c.Types.ReferenceTypes))
	for kind, name := range c.Types.ReferenceTypes {
		out[packschema.Kind(kind)] = name
	}
	return out
}

func isReferenceKind(kind packschema.Kind) bool {
	switch kind {
	case packschema.KindImage, packschema.KindProductSearch, packschema.KindCollections,
		packschema.KindProductBundles, packschema.KindLink:
		return true
	}
	return false
}
