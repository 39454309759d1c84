package resolver

import (
	"fmt"
	"strings"

	packerrors "github.com/goliatone/go-packgen/pkg/errors"
	"github.com/goliatone/go-packgen/pkg/jsonvalue"
)

const (
	// DefaultMarker prefixes constant references inside template strings.
	DefaultMarker = "$constants."

	defaultMaxDepth   = 64
	defaultMaxNesting = 256
)

// Context carries the constant table used during one resolution pass. It is
// never mutated by the resolver.
type Context struct {
	Constants map[string]any
}

// Options configures constant resolution.
type Options struct {
	// Marker is the prefix identifying constant references.
	Marker string
	// MaxDepth caps the length of constant reference chains.
	MaxDepth int
	// MaxNesting caps the container depth of the resolved tree.
	MaxNesting int
	// AllowUnresolved replaces references to missing constants with
	// jsonvalue.Undefined instead of failing the run.
	AllowUnresolved bool
}

// Option mutates Options prior to construction.
type Option func(*Options)

// WithMarker overrides the constant reference prefix.
func WithMarker(marker string) Option {
	return func(opts *Options) {
		if marker != "" {
			opts.Marker = marker
		}
	}
}

// WithMaxDepth caps constant reference chains.
func WithMaxDepth(depth int) Option {
	return func(opts *Options) {
		opts.MaxDepth = depth
	}
}

// WithMaxNesting caps container nesting in the resolved tree.
func WithMaxNesting(depth int) Option {
	return func(opts *Options) {
		opts.MaxNesting = depth
	}
}

// WithAllowUnresolved toggles the permissive policy for missing constants.
func WithAllowUnresolved(allow bool) Option {
	return func(opts *Options) {
		opts.AllowUnresolved = allow
	}
}

// Resolver expands constant references in JSON-like trees. A Resolver holds
// no per-run state and is safe for concurrent use.
type Resolver struct {
	opts Options
}

// New constructs a Resolver applying the supplied options over the defaults.
func New(options ...Option) *Resolver {
	opts := Options{Marker: DefaultMarker}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&opts)
	}
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	if opts.MaxNesting <= 0 {
		opts.MaxNesting = defaultMaxNesting
	}
	return &Resolver{opts: opts}
}

// Options returns the effective configuration.
func (r *Resolver) Options() Options {
	return r.opts
}

// Resolve returns a copy of template with every constant reference replaced
// by the referenced value, itself resolved against the same table. Objects and
// arrays are rebuilt so the result never aliases the template or the table.
func (r *Resolver) Resolve(template any, ctx Context) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("resolver: resolver is nil")
	}
	state := &resolveState{inStack: make(map[string]struct{})}
	return r.resolveNode(template, ctx, jsonvalue.RootPath, 0, state)
}

type resolveState struct {
	stack   []string
	inStack map[string]struct{}
}

func (s *resolveState) push(name string) {
	s.stack = append(s.stack, name)
	s.inStack[name] = struct{}{}
}

func (s *resolveState) pop(name string) {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	delete(s.inStack, name)
}

func (s *resolveState) contains(name string) bool {
	_, ok := s.inStack[name]
	return ok
}

func (s *resolveState) chain(next string) string {
	return strings.Join(append(append([]string(nil), s.stack...), next), " -> ")
}

func (r *Resolver) resolveNode(node any, ctx Context, path string, nesting int, state *resolveState) (any, error) {
	switch typed := node.(type) {
	case string:
		name, ok := r.reference(typed)
		if !ok {
			return typed, nil
		}
		return r.resolveConstant(name, ctx, path, nesting, state)
	case *jsonvalue.Object:
		if typed == nil {
			return typed, nil
		}
		if nesting >= r.opts.MaxNesting {
			return nil, packerrors.Newf(packerrors.CodeRecursionLimit, path, "nesting exceeds %d levels", r.opts.MaxNesting)
		}
		resolved := jsonvalue.NewObject(typed.Len())
		var err error
		typed.Range(func(key string, value any) bool {
			var child any
			child, err = r.resolveNode(value, ctx, jsonvalue.JoinKey(path, key), nesting+1, state)
			if err != nil {
				return false
			}
			resolved.Set(key, child)
			return true
		})
		if err != nil {
			return nil, err
		}
		return resolved, nil
	case []any:
		if nesting >= r.opts.MaxNesting {
			return nil, packerrors.Newf(packerrors.CodeRecursionLimit, path, "nesting exceeds %d levels", r.opts.MaxNesting)
		}
		out := make([]any, 0, len(typed))
		for i, entry := range typed {
			child, err := r.resolveNode(entry, ctx, jsonvalue.JoinIndex(path, i), nesting+1, state)
			if err != nil {
				return nil, err
			}
			out = append(out, child)
		}
		return out, nil
	case map[string]any:
		return r.resolveNode(jsonvalue.FromGo(typed), ctx, path, nesting, state)
	default:
		return node, nil
	}
}

func (r *Resolver) resolveConstant(name string, ctx Context, path string, nesting int, state *resolveState) (any, error) {
	if state.contains(name) {
		return nil, packerrors.Newf(packerrors.CodeRecursionLimit, path, "constant cycle %s", state.chain(name))
	}
	if len(state.stack) >= r.opts.MaxDepth {
		return nil, packerrors.Newf(packerrors.CodeRecursionLimit, path, "constant chain exceeds %d references: %s", r.opts.MaxDepth, state.chain(name))
	}

	value, ok := ctx.Constants[name]
	if !ok {
		if r.opts.AllowUnresolved {
			return jsonvalue.Undefined, nil
		}
		return nil, packerrors.Newf(packerrors.CodeUnresolvedConstant, path, "constant %q is not defined", name)
	}

	state.push(name)
	resolved, err := r.resolveNode(value, ctx, path, nesting, state)
	state.pop(name)
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (r *Resolver) reference(value string) (string, bool) {
	if !strings.HasPrefix(value, r.opts.Marker) {
		return "", false
	}
	return strings.TrimPrefix(value, r.opts.Marker), true
}

// IsReference reports whether value is a constant reference under the default
// marker.
func IsReference(value string) bool {
	return strings.HasPrefix(value, DefaultMarker)
}
