package storage

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
	"github.com/xeipuuv/gojsonschema"
)

// logSourceSchema accepts any subset of the projected fields as long as each
// one is a scalar.
const logSourceSchema = `{
	"type": "object",
	"properties": {
		"api_name":      {"type": ["string", "number", "boolean", "null"]},
		"status":        {"type": ["string", "number", "boolean", "null"]},
		"response_time": {"type": ["string", "number", "boolean", "null"]},
		"error":         {"type": ["string", "number", "boolean", "null"]},
		"timestamp":     {"type": ["string", "number", "null"]}
	}
}`

type sourceSchema struct {
	schema *gojsonschema.Schema
}

func newSourceSchema() (*sourceSchema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(logSourceSchema))
	if err != nil {
		return nil, errors.Wrap(err, "compile log source schema")
	}
	return &sourceSchema{schema: schema}, nil
}

// validate checks a hit's _source. A missing _source is an empty document.
func (s *sourceSchema) validate(src *fastjson.Value) error {
	doc := []byte("{}")
	if src != nil {
		doc = src.MarshalTo(nil)
	}
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return errors.Wrap(err, "schema validation error")
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return errors.Errorf("document invalid against schema: %s", strings.Join(errs, "; "))
	}
	return nil
}
