package jsonvalue

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DecodeYAML parses the first YAML document in data. Mappings become ordered
// Objects, anchors, aliases and merge keys are expanded, and numeric scalars
// become json.Number so YAML and JSON inputs produce identical trees.
//
// Alias expansion is bounded: a document may expand to at most
// MinYAMLNodeBudget values, or 16 values per source node for larger documents.
func DecodeYAML(data []byte) (any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("jsonvalue: empty document")
		}
		return nil, fmt.Errorf("jsonvalue: parse yaml: %w", err)
	}
	budget := countNodes(&root) * yamlNodeBudgetRatio
	if budget < MinYAMLNodeBudget {
		budget = MinYAMLNodeBudget
	}
	d := &yamlDecoder{budget: budget}
	return d.value(&root, 0)
}

// MinYAMLNodeBudget is the smallest number of values a YAML document may
// expand to once aliases are followed.
const MinYAMLNodeBudget = 1 << 20

const (
	yamlNodeBudgetRatio = 16
	maxAliasDepth       = 64
	mergeTag            = "!!merge"
)

// ErrYAMLExpansion reports a document whose aliases expand past the node
// budget.
var ErrYAMLExpansion = errors.New("jsonvalue: yaml aliases expand past the node budget")

type yamlDecoder struct {
	budget   int
	produced int
}

func countNodes(n *yaml.Node) int {
	total := 1
	for _, child := range n.Content {
		total += countNodes(child)
	}
	return total
}

func (d *yamlDecoder) value(n *yaml.Node, aliasDepth int) (any, error) {
	if n.Kind != yaml.DocumentNode && n.Kind != yaml.AliasNode {
		d.produced++
		if d.produced > d.budget {
			return nil, fmt.Errorf("%w (%d values)", ErrYAMLExpansion, d.budget)
		}
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.value(n.Content[0], aliasDepth)
	case yaml.AliasNode:
		if aliasDepth >= maxAliasDepth || n.Alias == nil {
			return nil, fmt.Errorf("jsonvalue: yaml alias at %d:%d cannot be expanded", n.Line, n.Column)
		}
		return d.value(n.Alias, aliasDepth+1)
	case yaml.MappingNode:
		return d.mapping(n, aliasDepth)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			value, err := d.value(child, aliasDepth)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case yaml.ScalarNode:
		return scalarValue(n), nil
	default:
		return nil, nil
	}
}

// mapping decodes a mapping node. Explicit keys win over merged ones, and
// among merged mappings the first to supply a key wins.
func (d *yamlDecoder) mapping(n *yaml.Node, aliasDepth int) (*Object, error) {
	explicit := make(map[string]struct{}, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode := n.Content[i]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("jsonvalue: yaml key at %d:%d must be a scalar", keyNode.Line, keyNode.Column)
		}
		if !isMergeKey(keyNode) {
			explicit[keyNode.Value] = struct{}{}
		}
	}

	obj := NewObject(len(n.Content) / 2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode := n.Content[i]
		valueNode := n.Content[i+1]
		if isMergeKey(keyNode) {
			if err := d.merge(obj, explicit, valueNode, aliasDepth); err != nil {
				return nil, err
			}
			continue
		}
		value, err := d.value(valueNode, aliasDepth)
		if err != nil {
			return nil, err
		}
		obj.Set(keyNode.Value, value)
	}
	return obj, nil
}

func (d *yamlDecoder) merge(obj *Object, explicit map[string]struct{}, n *yaml.Node, aliasDepth int) error {
	sources := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode {
		sources = n.Content
	}
	for _, src := range sources {
		value, err := d.value(src, aliasDepth)
		if err != nil {
			return err
		}
		merged, ok := value.(*Object)
		if !ok {
			return fmt.Errorf("jsonvalue: yaml merge key at %d:%d must reference a mapping or a list of mappings", src.Line, src.Column)
		}
		merged.Range(func(key string, v any) bool {
			if _, own := explicit[key]; own {
				return true
			}
			if _, seen := obj.Get(key); seen {
				return true
			}
			obj.Set(key, v)
			return true
		})
	}
	return nil
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Value == "<<" && n.ShortTag() == mergeTag
}

func scalarValue(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		switch n.Value {
		case "true", "True", "TRUE":
			return true
		case "false", "False", "FALSE":
			return false
		}
		return n.Value
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return json.Number(strconv.FormatInt(i, 10))
		}
		return n.Value
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return n.Value
		}
		return json.Number(strconv.FormatFloat(f, 'g', -1, 64))
	default:
		return n.Value
	}
}
