package utils

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

type Level string

// TestConfig is a sample config struct for testing
type TestConfig struct {
	Name      string          `json:"name" jsonschema:"description=The name of the config,required"`
	Tolerance decimal.Decimal `json:"tolerance"`
	Level     Level           `json:"level"`
	Tags      []string        `json:"tags,omitempty"`
}

func (suite *UtilsTestSuite) decode(schema string) map[string]any {
	var result map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &result))

	return result
}

func (suite *UtilsTestSuite) TestMetadata() {
	schema, err := GetSchemaFromConfig(TestConfig{}, "test-config", "A config used in tests")
	suite.Require().NoError(err)

	result := suite.decode(schema)
	suite.Equal("test-config", result["title"])
	suite.Equal("A config used in tests", result["description"])
	suite.Equal(SchemaVersion, result["$schema"])
	suite.Equal([]any{"name"}, result["required"])
}

func (suite *UtilsTestSuite) TestDecimalIsString() {
	schema := ReflectSchema(TestConfig{}, "test-config", "")

	tolerance, ok := schema.Properties.Get("tolerance")
	suite.Require().True(ok)
	suite.Equal("string", tolerance.Type)
	suite.NotEmpty(tolerance.Pattern)
}

func (suite *UtilsTestSuite) TestCustomMapperWins() {
	levels := func(t reflect.Type) *jsonschema.Schema {
		if t != reflect.TypeOf(Level("")) {
			return nil
		}

		return &jsonschema.Schema{Type: "string", Enum: []any{"debug", "info"}}
	}

	schema := ReflectSchema(TestConfig{}, "test-config", "", levels)

	level, ok := schema.Properties.Get("level")
	suite.Require().True(ok)
	suite.Equal([]any{"debug", "info"}, level.Enum)
}

func (suite *UtilsTestSuite) TestDecimalMapperIgnoresOtherTypes() {
	suite.Nil(DecimalMapper(reflect.TypeOf("")))
	suite.Nil(DecimalMapper(reflect.TypeOf(TestConfig{})))
	suite.NotNil(DecimalMapper(reflect.TypeOf(decimal.Zero)))
}
