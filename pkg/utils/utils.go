package utils

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// SchemaVersion is the JSON schema draft every generated schema declares.
const SchemaVersion = "http://json-schema.org/draft-07/schema#"

// SchemaMapper describes a type the reflector cannot derive on its own. It returns nil
// for types it does not handle.
type SchemaMapper func(t reflect.Type) *jsonschema.Schema

var decimalType = reflect.TypeOf(decimal.Decimal{})

// DecimalMapper renders decimal.Decimal as the numeric string it marshals to.
func DecimalMapper(t reflect.Type) *jsonschema.Schema {
	if t != decimalType {
		return nil
	}

	return &jsonschema.Schema{
		Type:    "string",
		Pattern: `^-?[0-9]+(\.[0-9]+)?$`,
	}
}

// ReflectSchema builds the schema of config with its metadata set. Mappers are tried
// in order, DecimalMapper always last.
func ReflectSchema(config any, title string, description string, mappers ...SchemaMapper) *jsonschema.Schema {
	mappers = append(mappers, DecimalMapper)

	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			for _, mapper := range mappers {
				if schema := mapper(t); schema != nil {
					return schema
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(config)
	schema.Title = title
	schema.Description = description
	schema.Version = SchemaVersion

	return schema
}

// GetSchemaFromConfig returns the indented JSON schema of config.
func GetSchemaFromConfig(config any, title string, description string, mappers ...SchemaMapper) (string, error) {
	schema := ReflectSchema(config, title, description, mappers...)

	jsonSchemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
