package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-packgen/internal/loader"
	"github.com/goliatone/go-packgen/pkg/config"
	"github.com/goliatone/go-packgen/pkg/orchestrator"
	"github.com/goliatone/go-packgen/pkg/render"
	"github.com/goliatone/go-packgen/pkg/renderers/openapi"
	"github.com/goliatone/go-packgen/pkg/renderers/schemajson"
	"github.com/goliatone/go-packgen/pkg/renderers/typescript"
	"github.com/goliatone/go-packgen/pkg/resolver"
	"github.com/goliatone/go-packgen/pkg/sink"
	"github.com/goliatone/go-packgen/pkg/sink/fsys"
	"github.com/goliatone/go-packgen/pkg/sink/sqlstore"
	"github.com/goliatone/go-packgen/pkg/source"
	"github.com/goliatone/go-packgen/pkg/typegen"
)

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, surveyConfirmer{}); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("packgen: %v", err)
	}
}

type cliFlags struct {
	configPath string
	yes        bool
	stdout     bool
	verbose    bool
	presets    string
	list       bool

	input, template, constants string
	out, renderers             string
	suffix, importFrom, banner string
	sections, categories       string
	templates                  string
	sqlite, postgres           string
	export, docs               bool
	allowUnresolved, http      bool
	httpTimeout                time.Duration
}

func run(ctx context.Context, args []string, stdout io.Writer, prompt confirmer) error {
	fs := flag.NewFlagSet("packgen", flag.ContinueOnError)
	fs.SetOutput(stdout)

	var f cliFlags
	fs.StringVar(&f.configPath, "config", "", "config file (defaults to packgen.yaml, packgen.yml or packgen.json when present)")
	fs.StringVar(&f.input, "input", "", "combined {constants, template} document path or URL")
	fs.StringVar(&f.template, "template", "", "template document path or URL")
	fs.StringVar(&f.constants, "constants", "", "constants document path or URL")
	fs.StringVar(&f.out, "out", "", "output directory")
	fs.StringVar(&f.renderers, "renderers", "", "comma separated renderers (typescript, schema, openapi)")
	fs.BoolVar(&f.export, "export", false, "emit `export type` declarations")
	fs.StringVar(&f.suffix, "suffix", "", "type name suffix (default Cms)")
	fs.BoolVar(&f.docs, "docs", false, "emit labels and descriptions as doc comments")
	fs.StringVar(&f.importFrom, "import-from", "", "module that exports the reference types")
	fs.StringVar(&f.banner, "banner", "", "header comment of generated TypeScript files")
	fs.StringVar(&f.sections, "sections", "", "comma separated section keys to render")
	fs.StringVar(&f.categories, "categories", "", "comma separated section categories to render")
	fs.StringVar(&f.templates, "templates", "", "directory of templates shadowing the built-in TypeScript templates")
	fs.StringVar(&f.presets, "presets", "", "section preset document overriding labels and categories")
	fs.StringVar(&f.sqlite, "sqlite", "", "also store artifacts in this SQLite database")
	fs.StringVar(&f.postgres, "postgres", "", "also store artifacts in this Postgres database (DSN)")
	fs.BoolVar(&f.allowUnresolved, "allow-unresolved", false, "drop references to missing constants instead of failing")
	fs.BoolVar(&f.http, "http", false, "allow http(s) inputs")
	fs.DurationVar(&f.httpTimeout, "http-timeout", 0, "timeout for remote inputs")
	fs.BoolVar(&f.yes, "yes", false, "overwrite a non-empty output directory without asking")
	fs.BoolVar(&f.stdout, "stdout", false, "print artifacts instead of writing the output directory")
	fs.BoolVar(&f.verbose, "v", false, "log pipeline stages")
	fs.BoolVar(&f.list, "list-renderers", false, "print the available renderers and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return err
	}
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	applyFlags(&cfg, f, set)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	gen, err := newOrchestrator(cfg, f)
	if err != nil {
		return err
	}
	if f.list {
		for _, name := range gen.Registry().List() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}
	result, err := gen.Compile(ctx, req)
	if err != nil {
		return err
	}

	if f.stdout {
		return printArtifacts(stdout, result.Artifacts)
	}

	sinks, closers, err := buildSinks(ctx, cfg, f, prompt)
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()
	if err != nil {
		return err
	}
	if len(sinks) == 0 {
		fmt.Fprintln(stdout, "nothing written")
		return nil
	}
	if err := gen.Write(ctx, result, sinks...); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d artifacts to %s\n", len(result.Artifacts), cfg.Out)
	return nil
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, name, err := config.Discover(os.DirFS("."))
	if err != nil {
		return config.Config{}, err
	}
	if name != "" {
		log.Printf("using config %s", name)
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, f cliFlags, set map[string]bool) {
	if set["input"] {
		cfg.Input, cfg.Template, cfg.Constants = f.input, "", ""
	}
	if set["template"] {
		cfg.Input, cfg.Template = "", f.template
	}
	if set["constants"] {
		cfg.Constants = f.constants
	}
	if set["out"] {
		cfg.Out = f.out
	}
	if set["renderers"] {
		cfg.Renderers = splitList(f.renderers)
	}
	if set["export"] {
		cfg.Types.Export = f.export
	}
	if set["suffix"] {
		cfg.Types.Suffix = f.suffix
	}
	if set["docs"] {
		cfg.Types.DocComments = f.docs
	}
	if set["import-from"] {
		cfg.Types.ImportFrom = f.importFrom
	}
	if set["banner"] {
		cfg.Types.Banner = f.banner
	}
	if set["sections"] {
		cfg.Subset.Sections = splitList(f.sections)
	}
	if set["categories"] {
		cfg.Subset.Categories = splitList(f.categories)
	}
	if set["templates"] {
		cfg.Templates = f.templates
	}
	if set["sqlite"] {
		cfg.Store.SQLite = f.sqlite
	}
	if set["postgres"] {
		cfg.Store.Postgres = f.postgres
	}
	if set["allow-unresolved"] {
		cfg.Resolver.AllowUnresolved = f.allowUnresolved
	}
	if set["http"] {
		cfg.HTTP.Enabled = f.http
	}
	if set["http-timeout"] {
		cfg.HTTP.Timeout = config.Duration(f.httpTimeout)
	}
}

func newOrchestrator(cfg config.Config, f cliFlags) (*orchestrator.Orchestrator, error) {
	loaderOptions := []source.LoaderOption{}
	if cfg.HTTP.Enabled {
		loaderOptions = append(loaderOptions, source.WithHTTPFallback(cfg.HTTP.Timeout.Std()))
	}

	suffix := cfg.Types.Suffix
	if suffix == "" {
		suffix = typegen.DefaultSuffix
	}

	ts, err := typescript.New(typescript.WithTemplatesDir(cfg.Templates))
	if err != nil {
		return nil, err
	}
	registry := render.NewRegistry()
	registry.MustRegister(ts)
	registry.MustRegister(schemajson.New())
	registry.MustRegister(openapi.New(openapi.WithTitle(cfg.OpenAPI.Title), openapi.WithVersion(cfg.OpenAPI.Version)))

	options := []orchestrator.Option{
		orchestrator.WithLoader(loader.New(source.NewLoaderOptions(loaderOptions...))),
		orchestrator.WithResolver(resolver.New(
			resolver.WithMarker(cfg.Resolver.Marker),
			resolver.WithMaxDepth(cfg.Resolver.MaxDepth),
			resolver.WithAllowUnresolved(cfg.Resolver.AllowUnresolved),
		)),
		orchestrator.WithSynthesizer(typegen.New(
			typegen.WithSuffix(suffix),
			typegen.WithReferenceTypes(cfg.ReferenceTypeMap()),
			typegen.WithMaxDepth(cfg.Types.MaxDepth),
		)),
		orchestrator.WithRegistry(registry),
		orchestrator.WithRenderers(cfg.Renderers...),
	}
	if f.verbose {
		options = append(options, orchestrator.WithLogger(log.New(os.Stderr, "packgen: ", log.LstdFlags)))
	}
	if f.presets != "" {
		data, err := os.ReadFile(f.presets)
		if err != nil {
			return nil, fmt.Errorf("presets: %w", err)
		}
		preset, err := orchestrator.NewSectionPresetTransformer(data)
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithTransformer(preset))
	}
	return orchestrator.New(options...), nil
}

func buildRequest(cfg config.Config) (orchestrator.Request, error) {
	req := orchestrator.Request{RenderOptions: cfg.RenderOptions()}
	switch {
	case cfg.Input != "":
		src, err := source.Parse(cfg.Input)
		if err != nil {
			return req, err
		}
		req.Source = src
	case cfg.Template != "":
		src, err := source.Parse(cfg.Template)
		if err != nil {
			return req, err
		}
		req.Template = src
		if cfg.Constants != "" {
			consts, err := source.Parse(cfg.Constants)
			if err != nil {
				return req, err
			}
			req.Constants = consts
		}
	default:
		return req, errors.New("an -input or -template document is required")
	}
	return req, nil
}

func buildSinks(ctx context.Context, cfg config.Config, f cliFlags, prompt confirmer) ([]sink.Sink, []func() error, error) {
	var (
		sinks   []sink.Sink
		closers []func() error
	)

	if cfg.Out != "" {
		empty, err := fsys.IsEmptyDir(cfg.Out)
		if err != nil {
			return nil, nil, err
		}
		if !empty && !f.yes {
			ok, err := prompt.Confirm(ctx, fmt.Sprintf("%s is not empty. Overwrite generated files?", cfg.Out), false)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				return nil, nil, errAborted
			}
		}
		writer, err := fsys.New(cfg.Out)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, writer)
	}

	var storeOptions []sqlstore.Option
	if cfg.Store.Table != "" {
		storeOptions = append(storeOptions, sqlstore.WithTable(cfg.Store.Table))
	}
	switch {
	case cfg.Store.SQLite != "":
		store, err := sqlstore.OpenSQLite(ctx, cfg.Store.SQLite, storeOptions...)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, store.Close)
		sinks = append(sinks, store)
	case cfg.Store.Postgres != "":
		store, err := sqlstore.OpenPostgres(ctx, cfg.Store.Postgres, storeOptions...)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, store.Close)
		sinks = append(sinks, store)
	}
	return sinks, closers, nil
}

func printArtifacts(w io.Writer, artifacts []sink.Artifact) error {
	for i, artifact := range artifacts {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "==> %s <==\n%s", artifact.Path, artifact.Data); err != nil {
			return err
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
