package blocks

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaBaseURL = "https://lodge.local/schemas/blocks/"

func shapeDocument(shape Shape) map[string]any {
	doc := objectDocument(shape.Fields)
	doc["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	doc["$id"] = schemaBaseURL + shape.Type + ".json"
	if shape.Label != "" {
		doc["title"] = shape.Label
	}
	if shape.Description != "" {
		doc["description"] = shape.Description
	}
	return doc
}

func objectDocument(fields []Field) map[string]any {
	properties := make(map[string]any, len(fields))
	required := make([]any, 0)
	for _, field := range fields {
		properties[field.Name] = fieldDocument(field)
		if field.Required {
			required = append(required, field.Name)
		}
	}
	doc := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func fieldDocument(field Field) map[string]any {
	var doc map[string]any
	switch field.Kind {
	case KindText, KindRichText, KindMedia:
		doc = map[string]any{"type": "string"}
		if field.NonEmpty {
			doc["pattern"] = `\S`
		}
		if field.MaxLength > 0 {
			doc["maxLength"] = field.MaxLength
		}
		if field.Kind == KindRichText {
			doc["contentMediaType"] = "text/markdown"
		}
		if field.Kind == KindMedia {
			doc["x-media-reference"] = true
		}
	case KindEnum:
		options := make([]any, len(field.Options))
		for i, option := range field.Options {
			options[i] = option
		}
		if !field.Required && !field.NonEmpty {
			options = append(options, "")
		}
		doc = map[string]any{"type": "string", "enum": options}
	case KindNumber:
		kind := "number"
		if field.Integer {
			kind = "integer"
		}
		doc = map[string]any{"type": kind}
		if field.Min != nil {
			doc["minimum"] = *field.Min
		}
		if field.Max != nil {
			doc["maximum"] = *field.Max
		}
	case KindBoolean:
		doc = map[string]any{"type": "boolean"}
	case KindObject:
		doc = objectDocument(field.Fields)
	case KindArray:
		doc = map[string]any{"type": "array", "items": objectDocument(field.Fields)}
		if field.MinItems > 0 {
			doc["minItems"] = field.MinItems
		}
		if field.MaxItems > 0 {
			doc["maxItems"] = field.MaxItems
		}
	default:
		doc = map[string]any{}
	}
	if !field.Required {
		if kind, ok := doc["type"].(string); ok {
			doc["type"] = []any{kind, "null"}
		}
	}
	if field.Label != "" {
		doc["title"] = field.Label
	}
	if field.Description != "" {
		doc["description"] = field.Description
	}
	if field.Default != nil {
		doc["default"] = cloneValue(field.Default)
	}
	return doc
}

func compileDocument(blockType string, document map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(document)
	if err != nil {
		return nil, err
	}
	url := schemaBaseURL + blockType + ".json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(url, bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}
