package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaBase = "https://tada.local/schema/"

const todoSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "title", "completed"],
  "properties": {
    "id": {"type": ["integer", "string"]},
    "title": {"type": "string"},
    "description": {"type": ["string", "null"]},
    "completed": {"type": "boolean"}
  }
}`

const listSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {"$ref": "todo.json"}
}`

var (
	todoSchema *jsonschema.Schema
	listSchema *jsonschema.Schema
)

func init() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(schemaBase+"todo.json", strings.NewReader(todoSchemaJSON)); err != nil {
		panic(err)
	}
	if err := c.AddResource(schemaBase+"list.json", strings.NewReader(listSchemaJSON)); err != nil {
		panic(err)
	}
	todoSchema = c.MustCompile(schemaBase + "todo.json")
	listSchema = c.MustCompile(schemaBase + "list.json")
}

// decodeValidated checks body against schema, then decodes it into v.
func decodeValidated(body []byte, schema *jsonschema.Schema, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return schemaError(err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// schemaError flattens a validation error to its first leaf cause.
func schemaError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Errorf("%s: %s", loc, ve.Message)
}
