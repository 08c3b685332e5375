package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

type paramSchema struct {
	Properties map[string]struct {
		Type string `json:"type"`
	} `json:"properties"`
	Required []string `json:"required"`
}

// BindInput maps the raw "Action Input" text to tool arguments.
//
// A JSON object naming at least one declared property is used as the
// argument map, repairing it first when it is slightly malformed. Any other
// text is bound to the tool's single required parameter. Required string
// parameters must end up non-empty.
func BindInput(parameters json.RawMessage, raw string) (map[string]any, error) {
	var ps paramSchema
	if err := json.Unmarshal(parameters, &ps); err != nil {
		return nil, fmt.Errorf("%w: bad parameter schema: %v", ErrInvalidInput, err)
	}

	raw = strings.TrimSpace(raw)
	params, ok := objectInput(raw, ps)
	if !ok {
		if len(ps.Required) != 1 {
			return nil, fmt.Errorf("%w: expected a JSON object with %s", ErrInvalidInput, strings.Join(ps.Required, ", "))
		}
		params = map[string]any{ps.Required[0]: raw}
	}

	for _, name := range ps.Required {
		v, present := params[name]
		if !present {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidInput, name)
		}
		if ps.Properties[name].Type == "string" {
			s, isString := v.(string)
			if !isString {
				return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidInput, name)
			}
			if strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("%w: %s is empty", ErrInvalidInput, name)
			}
		}
	}
	return params, nil
}

func objectInput(raw string, ps paramSchema) (map[string]any, bool) {
	if !strings.HasPrefix(raw, "{") {
		return nil, false
	}
	var m map[string]any
	if err := tryUnmarshal(raw, &m); err != nil || m == nil {
		return nil, false
	}
	for k := range m {
		if _, declared := ps.Properties[k]; declared {
			return m, true
		}
	}
	return nil, false
}

// tryUnmarshal unmarshals data into v, repairing it first if needed.
func tryUnmarshal(data string, v any) error {
	err := json.Unmarshal([]byte(data), v)
	if err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(data)
	if err != nil {
		return fmt.Errorf("failed to repair JSON: %v", err)
	}
	return json.Unmarshal([]byte(repaired), v)
}
