// Package jsonutil decodes model-produced JSON that drifts from the requested shape.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// models return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// StringList is a []string that also accepts a bare string or an array of
// mixed scalars. Models often answer `"hashtags": "#one"` when asked for a list.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*l = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return fmt.Errorf("decode string list: %w", err)
		}
		out := make([]string, 0, len(raws))
		for _, raw := range raws {
			if v := strings.TrimSpace(FlexibleStringValue(raw)); v != "" {
				out = append(out, v)
			}
		}
		*l = out
		return nil
	}

	if strings.HasPrefix(trimmed, "{") {
		return fmt.Errorf("decode string list: got object")
	}

	v := strings.TrimSpace(FlexibleStringValue(json.RawMessage(trimmed)))
	if v == "" {
		*l = nil
		return nil
	}
	*l = StringList{v}
	return nil
}
