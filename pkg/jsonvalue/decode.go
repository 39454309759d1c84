package jsonvalue

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
)

// DecodeJSON parses a JSON document into the canonical model, keeping object
// key order and number literals (as json.Number).
func DecodeJSON(data []byte) (any, error) {
	return DecodeJSONReader(bytes.NewReader(data))
}

// DecodeJSONReader parses exactly one JSON document from r.
func DecodeJSONReader(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("jsonvalue: empty document")
		}
		return nil, fmt.Errorf("jsonvalue: read token: %w", err)
	}
	value, err := decodeToken(dec, tok)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("jsonvalue: unexpected data after top-level value")
	}
	return value, nil
}

func decodeToken(dec *json.Decoder, tok any) (any, error) {
	switch typed := tok.(type) {
	case json.Delim:
		switch typed {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("jsonvalue: unexpected delimiter %q", typed)
		}
	case string, bool, json.Number, float64, nil:
		return typed, nil
	default:
		return nil, fmt.Errorf("jsonvalue: unexpected token %T", tok)
	}
}

func decodeObject(dec *json.Decoder) (*Object, error) {
	obj := NewObject()
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("jsonvalue: read object: %w", err)
		}
		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("jsonvalue: expected object key, got %T", tok)
		}
		valueTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("jsonvalue: read value for %q: %w", key, err)
		}
		value, err := decodeToken(dec, valueTok)
		if err != nil {
			return nil, err
		}
		obj.Set(key, value)
	}
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	out := make([]any, 0)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("jsonvalue: read array: %w", err)
		}
		if delim, ok := tok.(json.Delim); ok && delim == ']' {
			return out, nil
		}
		value, err := decodeToken(dec, tok)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
}

// Decode sniffs the payload and parses it as JSON when it starts with an
// object or array delimiter, falling back to YAML otherwise. A hint ending in
// .yaml or .yml forces YAML.
func Decode(data []byte, hint string) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("jsonvalue: empty document")
	}
	lower := strings.ToLower(hint)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return DecodeYAML(data)
	}
	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '{' || trimmed[0] == '[' {
		value, err := DecodeJSON(data)
		if err == nil {
			return value, nil
		}
		if strings.HasSuffix(lower, ".json") {
			return nil, err
		}
	}
	return DecodeYAML(data)
}
