package importer

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
)

const documentSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "node": {
      "type": "object",
      "required": ["section"],
      "properties": {
        "id": {"type": "string"},
        "section": {"type": "string"},
        "heading": {"type": "string"},
        "text": {"type": "string"},
        "important": {"type": "integer"},
        "dependencies": {"type": "array", "items": {"type": "string"}},
        "effort": {"type": ["integer", "null"]},
        "children": {"type": "array", "items": {"$ref": "#/definitions/node"}}
      }
    },
    "nodes": {"type": "array", "items": {"$ref": "#/definitions/node"}}
  },
  "oneOf": [
    {"$ref": "#/definitions/nodes"},
    {
      "type": "object",
      "required": ["requirements"],
      "properties": {
        "name": {"type": "string"},
        "description": {"type": "string"},
        "prefix": {"type": "string"},
        "requirements": {"$ref": "#/definitions/nodes"}
      }
    }
  ]
}`

var documentSchemaLoader = gojsonschema.NewStringLoader(documentSchemaJSON)

func decodeJSON(data []byte) (*Document, error) {
	result, err := gojsonschema.Validate(documentSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaError{Problems: []catalog.ValidationError{{Message: err.Error()}}}
	}
	if !result.Valid() {
		problems := make([]catalog.ValidationError, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, catalog.ValidationError{
				Path:    desc.Field(),
				Message: desc.Description(),
			})
		}
		return nil, &SchemaError{Problems: problems}
	}

	var shape interface{}
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if _, isArray := shape.([]interface{}); isArray {
		var nodes []catalog.Node
		if err := json.Unmarshal(data, &nodes); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		return &Document{Requirements: nodes}, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// decodeYAML converts YAML to JSON and validates it like a JSON document.
// Section, id and dependency scalars stay strings so "2.10" is not read as 2.1.
func decodeYAML(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &SchemaError{Problems: []catalog.ValidationError{{Message: err.Error()}}}
	}
	if len(root.Content) == 0 {
		return nil, &SchemaError{Problems: []catalog.ValidationError{{Message: "document is empty"}}}
	}

	value, err := yamlValue(root.Content[0], "")
	if err != nil {
		return nil, &SchemaError{Problems: []catalog.ValidationError{{Message: err.Error()}}}
	}
	converted, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to convert yaml: %w", err)
	}
	return decodeJSON(converted)
}

func yamlValue(n *yaml.Node, key string) (interface{}, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return yamlValue(n.Alias, key)
	case yaml.MappingNode:
		out := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i].Value
			v, err := yamlValue(n.Content[i+1], k)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]interface{}, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c, key)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		switch {
		case key == "section" || key == "id" || key == "dependencies":
			return n.Value, nil
		case n.Tag == "!!null":
			return nil, nil
		case n.Tag == "!!int":
			return strconv.ParseInt(n.Value, 10, 64)
		case n.Tag == "!!float":
			return strconv.ParseFloat(n.Value, 64)
		case n.Tag == "!!bool":
			return strconv.ParseBool(n.Value)
		default:
			return n.Value, nil
		}
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
	}
}
