/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

package introspectionserver

import (
	"fmt"

	"github.com/acronis/go-appkit/config"

	"github.com/datahive/introspection-server/jwt"
)

const cfgDefaultKeyPrefix = "introspection"

const (
	cfgKeyServerAddress             = "server.address"
	cfgKeyServerPathPrefix          = "server.pathPrefix"
	cfgKeyJWTPublicKeyFile          = "jwt.publicKeyFile"
	cfgKeyJWTRequireAudience        = "jwt.requireAudience"
	cfgKeyJWTExpectedAudience       = "jwt.expectedAudience"
	cfgKeyStorageType               = "storage.type"
	cfgKeyStorageSQLitePath         = "storage.sqlite.path"
	cfgKeyStorageSQLiteRunMigration = "storage.sqlite.runMigrations"
)

// Default configuration values.
const (
	DefaultServerAddress  = ":8080"
	DefaultPathPrefix     = "/oauth"
	DefaultStorageSQLite  = "introspection.db"
	DefaultStorageBackend = StorageTypeMemory
)

// Supported storage backends.
const (
	StorageTypeMemory = "memory"
	StorageTypeSQLite = "sqlite"
)

// Config represents a set of configuration parameters for the introspection server.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
	JWT     JWTConfig     `mapstructure:"jwt" yaml:"jwt" json:"jwt"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage" json:"storage"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ServerConfig is a configuration of the HTTP listener and routing.
type ServerConfig struct {
	Address    string `mapstructure:"address" yaml:"address" json:"address"`
	PathPrefix string `mapstructure:"pathPrefix" yaml:"pathPrefix" json:"pathPrefix"`
}

// JWTConfig is a configuration of how bearer tokens will be verified.
type JWTConfig struct {
	PublicKeyFile    string   `mapstructure:"publicKeyFile" yaml:"publicKeyFile" json:"publicKeyFile"`
	RequireAudience  bool     `mapstructure:"requireAudience" yaml:"requireAudience" json:"requireAudience"`
	ExpectedAudience []string `mapstructure:"expectedAudience" yaml:"expectedAudience" json:"expectedAudience"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Type   string              `mapstructure:"type" yaml:"type" json:"type"`
	SQLite StorageSQLiteConfig `mapstructure:"sqlite" yaml:"sqlite" json:"sqlite"`
}

// StorageSQLiteConfig is a configuration of the SQLite backend.
type StorageSQLiteConfig struct {
	Path          string `mapstructure:"path" yaml:"path" json:"path"`
	RunMigrations bool   `mapstructure:"runMigrations" yaml:"runMigrations" json:"runMigrations"`
}

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
// This prefix will be used by config.Loader.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{
		keyPrefix: opts.keyPrefix,
		Server: ServerConfig{
			Address:    DefaultServerAddress,
			PathPrefix: DefaultPathPrefix,
		},
		JWT: JWTConfig{
			PublicKeyFile: jwt.DefaultPublicKeyFile,
		},
		Storage: StorageConfig{
			Type: DefaultStorageBackend,
			SQLite: StorageSQLiteConfig{
				Path:          DefaultStorageSQLite,
				RunMigrations: true,
			},
		},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyServerAddress, DefaultServerAddress)
	dp.SetDefault(cfgKeyServerPathPrefix, DefaultPathPrefix)
	dp.SetDefault(cfgKeyJWTPublicKeyFile, jwt.DefaultPublicKeyFile)
	dp.SetDefault(cfgKeyStorageType, DefaultStorageBackend)
	dp.SetDefault(cfgKeyStorageSQLitePath, DefaultStorageSQLite)
	dp.SetDefault(cfgKeyStorageSQLiteRunMigration, true)
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Server.Address, err = dp.GetString(cfgKeyServerAddress); err != nil {
		return err
	}
	if c.Server.PathPrefix, err = dp.GetString(cfgKeyServerPathPrefix); err != nil {
		return err
	}

	if c.JWT.PublicKeyFile, err = dp.GetString(cfgKeyJWTPublicKeyFile); err != nil {
		return err
	}
	if c.JWT.RequireAudience, err = dp.GetBool(cfgKeyJWTRequireAudience); err != nil {
		return err
	}
	if c.JWT.ExpectedAudience, err = dp.GetStringSlice(cfgKeyJWTExpectedAudience); err != nil {
		return err
	}

	if c.Storage.Type, err = dp.GetString(cfgKeyStorageType); err != nil {
		return err
	}
	switch c.Storage.Type {
	case StorageTypeMemory, StorageTypeSQLite:
	default:
		return dp.WrapKeyErr(cfgKeyStorageType, fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}
	if c.Storage.SQLite.Path, err = dp.GetString(cfgKeyStorageSQLitePath); err != nil {
		return err
	}
	if c.Storage.SQLite.RunMigrations, err = dp.GetBool(cfgKeyStorageSQLiteRunMigration); err != nil {
		return err
	}

	return nil
}
