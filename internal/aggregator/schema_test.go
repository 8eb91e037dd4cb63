package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateSchemaNil(t *testing.T) {
	out := TranslateSchema(nil)
	assert.Equal(t, "object", out.Type)
	assert.Empty(t, out.Properties)
	assert.Empty(t, out.Required)
}

func TestTranslateSchemaNonObjectRoot(t *testing.T) {
	out := TranslateSchema(map[string]interface{}{"type": "string"})
	assert.Equal(t, "object", out.Type)
	assert.Empty(t, out.Properties)
}

func TestTranslateSchemaBasicProperties(t *testing.T) {
	raw := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path":  map[string]interface{}{"type": "string", "description": "target path"},
			"count": map[string]interface{}{"type": "integer"},
		},
		"required": []interface{}{"path"},
	}
	out := TranslateSchema(raw)
	assert.Equal(t, []string{"path"}, out.Required)

	path, ok := out.Properties["path"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "string", path["type"])
	assert.Equal(t, "target path", path["description"])

	count, ok := out.Properties["count"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "integer", count["type"])
}

func TestTranslateSchemaNestedObjectAndArray(t *testing.T) {
	raw := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"filter": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{"type": "string"},
				},
				"required": []interface{}{"name"},
			},
			"tags": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
	}
	out := TranslateSchema(raw)

	filter := out.Properties["filter"].(map[string]interface{})
	assert.Equal(t, "object", filter["type"])
	nestedProps := filter["properties"].(map[string]interface{})
	assert.Contains(t, nestedProps, "name")

	tags := out.Properties["tags"].(map[string]interface{})
	assert.Equal(t, "array", tags["type"])
	items := tags["items"].(map[string]interface{})
	assert.Equal(t, "string", items["type"])
}

func TestTranslateSchemaUnresolvableUnionDegradesToAny(t *testing.T) {
	raw := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"weird": map[string]interface{}{"type": []interface{}{"unknown_type", 42}},
		},
	}
	out := TranslateSchema(raw)
	weird := out.Properties["weird"].(map[string]interface{})
	_, hasType := weird["type"]
	assert.False(t, hasType)
}

func TestTranslateSchemaTwoTypeUnionKeepsBoth(t *testing.T) {
	raw := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"maybe": map[string]interface{}{"type": []interface{}{"string", "null"}},
		},
	}
	out := TranslateSchema(raw)
	maybe := out.Properties["maybe"].(map[string]interface{})
	assert.ElementsMatch(t, []interface{}{"string", "null"}, maybe["type"])
}

func TestSplitNamespaced(t *testing.T) {
	child, original, ok := splitNamespaced("fs:read_file")
	assert.True(t, ok)
	assert.Equal(t, "fs", child)
	assert.Equal(t, "read_file", original)

	_, _, ok = splitNamespaced("no-colon-here")
	assert.False(t, ok)

	child, original, ok = splitNamespaced("fs:weird:name")
	assert.True(t, ok)
	assert.Equal(t, "fs", child)
	assert.Equal(t, "weird:name", original)
}
