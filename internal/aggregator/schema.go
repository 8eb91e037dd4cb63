package aggregator

import "github.com/mark3labs/mcp-go/mcp"

// knownTypes are the JSON-Schema primitive/structural types this translator
// understands field-by-field. Anything else degrades to "any".
var knownTypes = map[string]bool{
	"string": true, "number": true, "integer": true, "boolean": true,
	"null": true, "array": true, "object": true,
}

// TranslateSchema converts a child-provider's declared, JSON-Schema-ish
// input schema into the host's native mcp.ToolInputSchema representation.
// It is a pure function with no hidden state: the same input always
// produces the same output, and every input — including nil, an empty map,
// or a non-object root — produces a valid schema rather than an error. A
// schema that is empty or not object-typed surfaces as a tool taking no
// arguments.
func TranslateSchema(raw map[string]interface{}) mcp.ToolInputSchema {
	out := mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	}

	if raw == nil {
		return out
	}
	if t, ok := raw["type"].(string); !ok || t != "object" {
		return out
	}

	rawProps, _ := raw["properties"].(map[string]interface{})
	for name, def := range rawProps {
		out.Properties[name] = translateProperty(def)
	}

	if rawRequired, ok := raw["required"].([]interface{}); ok {
		required := make([]string, 0, len(rawRequired))
		for _, r := range rawRequired {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
		out.Required = required
	}

	return out
}

// translateProperty normalizes one property definition field-by-field,
// preserving nested objects and arrays and degrading anything it doesn't
// recognize (including type unions with no recognized member) to an
// untyped "any" property. A union with several recognized types keeps them
// all as a list.
func translateProperty(def interface{}) map[string]interface{} {
	m, ok := def.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}

	out := map[string]interface{}{}
	if desc, ok := m["description"].(string); ok {
		out["description"] = desc
	}

	switch t := m["type"].(type) {
	case string:
		if knownTypes[t] {
			out["type"] = t
		}
	case []interface{}:
		// A union-of-types ("type": ["string", "null"]) keeps whichever
		// named types are recognized; an empty or fully-unknown union
		// degrades to "any" (no "type" key at all).
		var kept []interface{}
		for _, v := range t {
			if s, ok := v.(string); ok && knownTypes[s] {
				kept = append(kept, s)
			}
		}
		if len(kept) == 1 {
			out["type"] = kept[0]
		} else if len(kept) > 1 {
			out["type"] = kept
		}
	}

	if out["type"] == "object" {
		nestedProps, _ := m["properties"].(map[string]interface{})
		props := map[string]interface{}{}
		for name, nested := range nestedProps {
			props[name] = translateProperty(nested)
		}
		out["properties"] = props
		if req, ok := m["required"].([]interface{}); ok {
			required := make([]string, 0, len(req))
			for _, r := range req {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
			out["required"] = required
		}
	}

	if out["type"] == "array" {
		if items, ok := m["items"]; ok {
			out["items"] = translateProperty(items)
		} else {
			out["items"] = map[string]interface{}{}
		}
	}

	if enum, ok := m["enum"].([]interface{}); ok {
		out["enum"] = enum
	}

	return out
}
