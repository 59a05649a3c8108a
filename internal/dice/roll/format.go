package roll

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// Format selects an export encoding.
type Format int

const (
	// FormatJSON is a JSON string.
	FormatJSON Format = iota
	// FormatBase64 is the standard base64 encoding of the JSON string.
	FormatBase64
	// FormatObject is the decoded JSON value, a map[string]any.
	FormatObject
	// FormatYAML is a YAML document with the same fields as the JSON form.
	FormatYAML
)

var formatNames = map[Format]string{
	FormatJSON:   "json",
	FormatBase64: "base64",
	FormatObject: "object",
	FormatYAML:   "yaml",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if strings.EqualFold(s, name) {
			return f, nil
		}
	}
	return 0, errs.TypeMismatch("unknown export format %q", s)
}

func export(v json.Marshaler, format Format) (any, error) {
	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	switch format {
	case FormatJSON:
		return string(raw), nil
	case FormatBase64:
		return base64.StdEncoding.EncodeToString(raw), nil
	case FormatObject, FormatYAML:
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("decoding export: %w", err)
		}
		if format == FormatObject {
			return obj, nil
		}
		out, err := yaml.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("encoding yaml export: %w", err)
		}
		return string(out), nil
	}
	return nil, errs.TypeMismatch("unknown export format %v", format)
}

// decodeValue turns import data into a structural value: a map for a single
// object or a slice for a bare list. Text is tried as JSON, then as base64 of
// JSON, then as YAML.
func decodeValue(data any) (any, error) {
	switch v := data.(type) {
	case nil:
		return nil, errs.RequiredArgument("data")
	case map[string]any, []any:
		return v, nil
	case json.Marshaler:
		raw, err := v.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encoding import data: %w", err)
		}
		return decodeText(raw)
	case string:
		return decodeText([]byte(v))
	case []byte:
		return decodeText(v)
	}
	return nil, errs.DataFormat("unsupported import data %T", data)
}

func decodeText(raw []byte) (any, error) {
	text := bytes.TrimSpace(raw)
	if len(text) == 0 {
		return nil, errs.RequiredArgument("data")
	}
	if v, ok := decodeJSON(text); ok {
		return v, nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(string(text)); err == nil {
		if v, ok := decodeJSON(bytes.TrimSpace(decoded)); ok {
			return v, nil
		}
	}
	var v any
	if err := yaml.Unmarshal(text, &v); err == nil {
		switch v.(type) {
		case map[string]any, []any:
			return v, nil
		}
	}
	return nil, errs.DataFormat("import data is not JSON, base64 encoded JSON or YAML")
}

func decodeJSON(text []byte) (any, bool) {
	if len(text) == 0 || (text[0] != '{' && text[0] != '[') {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(text, &v); err != nil {
		return nil, false
	}
	return v, true
}

// decodeObject is decodeValue restricted to a single object.
func decodeObject(data any) (map[string]any, error) {
	v, err := decodeValue(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errs.DataFormat("expected an object, got %T", v)
	}
	return obj, nil
}
