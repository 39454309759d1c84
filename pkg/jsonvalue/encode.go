package jsonvalue

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
)

// Marshal encodes a value tree as compact JSON, preserving object key order.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalIndent encodes a value tree with the supplied indentation, matching
// the layout of JSON.stringify(value, null, indent).
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	compact, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, prefix, indent); err != nil {
		return nil, fmt.Errorf("jsonvalue: indent: %w", err)
	}
	return out.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch typed := v.(type) {
	case nil:
		buf.WriteString("null")
	case undefined:
		// Only reachable for array elements and the root; objects skip it.
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(typed))
	case string:
		encoded, err := json.MarshalNoEscape(typed)
		if err != nil {
			return fmt.Errorf("jsonvalue: encode string: %w", err)
		}
		buf.Write(encoded)
	case *Object:
		if typed == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		first := true
		for _, key := range typed.keys {
			value := typed.values[key]
			if IsUndefined(value) {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			encodedKey, err := json.MarshalNoEscape(key)
			if err != nil {
				return fmt.Errorf("jsonvalue: encode key %q: %w", key, err)
			}
			buf.Write(encodedKey)
			buf.WriteByte(':')
			if err := encode(buf, value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range typed {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case json.Number:
		if _, ok := canonicalNumber(string(typed)); !ok {
			return fmt.Errorf("jsonvalue: invalid number %q", string(typed))
		}
		buf.WriteString(string(typed))
	default:
		num, ok := numberString(v)
		if !ok {
			return fmt.Errorf("jsonvalue: unsupported value of type %T", v)
		}
		buf.WriteString(num)
	}
	return nil
}

// numberString returns the canonical decimal representation of numeric
// values. Non-finite floats are rejected because JSON cannot carry them.
func numberString(v any) (string, bool) {
	switch typed := v.(type) {
	case json.Number:
		return canonicalNumber(string(typed))
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return "", false
		}
		return strconv.FormatFloat(typed, 'g', -1, 64), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case int:
		return strconv.Itoa(typed), true
	default:
		return "", false
	}
}

func canonicalNumber(raw string) (string, bool) {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return strconv.FormatInt(i, 10), true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatFloat(f, 'g', -1, 64), true
}
