// Package config loads the YAML configuration of argo-pnl.
package config

import (
	"os"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-pnl/internal/commission_fee"
	"github.com/rxtech-lab/argo-pnl/internal/feed"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
	"github.com/rxtech-lab/argo-pnl/pkg/utils"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	EnvBinanceApiKey    = "BINANCE_API_KEY"
	EnvBinanceSecretKey = "BINANCE_SECRET_KEY"

	SchemaName = "argo-pnl-config"
)

type FeedKind string

const (
	FeedKindCSV     FeedKind = "csv"
	FeedKindBinance FeedKind = "binance"
)

type Config struct {
	Log       LogConfig       `yaml:"log" json:"log" jsonschema:"title=Log,description=Logging options"`
	Store     StoreConfig     `yaml:"store" json:"store" jsonschema:"title=Store,description=Where fill histories are kept"`
	Feed      FeedConfig      `yaml:"feed" json:"feed" jsonschema:"title=Feed,description=Where fills come from,required"`
	Reconcile ReconcileConfig `yaml:"reconcile" json:"reconcile" jsonschema:"title=Reconcile,description=Position size reconciliation"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level" jsonschema:"title=Level,enum=debug,enum=info,enum=warn,enum=error" validate:"omitempty,oneof=debug info warn error"`
}

type StoreConfig struct {
	// Path of the DuckDB file. Empty or :memory: keeps the store in memory.
	Path string `yaml:"path" json:"path" jsonschema:"title=Path,description=DuckDB database file"`
	// ParquetDir receives fills.parquet and fill_results.parquet after every sync when set.
	ParquetDir string `yaml:"parquet_dir,omitempty" json:"parquet_dir,omitempty" jsonschema:"title=Parquet Directory,description=Directory the store is exported to after a sync"`
}

type FeedConfig struct {
	Kind FeedKind `yaml:"kind" json:"kind" jsonschema:"title=Kind,enum=csv,enum=binance,required" validate:"required,oneof=csv binance"`
	// Account names the positions of this feed. CSV rows may override it per row.
	Account string                `yaml:"account" json:"account" jsonschema:"title=Account,required" validate:"required"`
	Broker  commission_fee.Broker `yaml:"broker,omitempty" json:"broker,omitempty" jsonschema:"title=Broker,description=Fee schedule for CSV rows without commission" validate:"omitempty,oneof=interactive_broker binance_spot zero_commission"`

	CSV     *CSVFeedConfig            `yaml:"csv,omitempty" json:"csv,omitempty" jsonschema:"title=CSV" validate:"required_if=Kind csv"`
	Binance *feed.BinanceSourceConfig `yaml:"binance,omitempty" json:"binance,omitempty" jsonschema:"title=Binance" validate:"required_if=Kind binance"`
}

type CSVFeedConfig struct {
	Path string `yaml:"path" json:"path" jsonschema:"title=Path,description=CSV export to read,required" validate:"required"`
}

type ReconcileConfig struct {
	Enabled   bool            `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled,description=Compare computed sizes with the sizes the feed reports"`
	Tolerance decimal.Decimal `yaml:"tolerance" json:"tolerance" jsonschema:"title=Tolerance,description=Largest size difference that is not reported"`
}

// Default returns a configuration reading fills.csv into a local store.
func Default() Config {
	return Config{
		Log:   LogConfig{Level: "info"},
		Store: StoreConfig{Path: "argo-pnl.duckdb"},
		Feed: FeedConfig{
			Kind:    FeedKindCSV,
			Account: "default",
			CSV:     &CSVFeedConfig{Path: "fills.csv"},
		},
		Reconcile: ReconcileConfig{Tolerance: decimal.Zero},
	}
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return Parse(data)
}

// Parse decodes YAML on top of Default, applies the environment overrides and validates the result.
func Parse(data []byte) (*Config, error) {
	config := Default()
	// a feed section in the file replaces the default csv feed entirely
	config.Feed = FeedConfig{}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyEnv lets secrets live outside the config file.
func (c *Config) applyEnv() {
	if c.Feed.Kind != FeedKindBinance {
		return
	}

	if c.Feed.Binance == nil {
		c.Feed.Binance = &feed.BinanceSourceConfig{}
	}

	if key := os.Getenv(EnvBinanceApiKey); key != "" {
		c.Feed.Binance.ApiKey = key
	}

	if secret := os.Getenv(EnvBinanceSecretKey); secret != "" {
		c.Feed.Binance.SecretKey = secret
	}
}

func (c *Config) Validate() error {
	if err := types.Validator().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if c.Reconcile.Tolerance.IsNegative() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "reconcile tolerance %s is negative", c.Reconcile.Tolerance)
	}

	return nil
}

func brokerMapper(t reflect.Type) *jsonschema.Schema {
	if t != reflect.TypeOf(commission_fee.Broker("")) {
		return nil
	}

	return &jsonschema.Schema{
		Type: "string",
		Enum: commission_fee.AllBrokers,
	}
}

// GenerateSchema generates the JSON schema of Config.
func (c *Config) GenerateSchema() *jsonschema.Schema {
	return utils.ReflectSchema(c, SchemaName, "Configuration schema for argo-pnl", brokerMapper)
}

// GenerateSchemaJSON generates the indented JSON schema of Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	return utils.GetSchemaFromConfig(c, SchemaName, "Configuration schema for argo-pnl", brokerMapper)
}

// SampleYAML renders c with a yaml-language-server header pointing at schemaFile.
func (c *Config) SampleYAML(schemaFile string) ([]byte, error) {
	body, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal config", err)
	}

	return append([]byte("# yaml-language-server: $schema="+schemaFile+"\n"), body...), nil
}
