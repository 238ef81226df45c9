// Package config provides a reusable loader for the client's
// configuration files and environment variables, modeled on the
// teacher's pkg/config loader.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/nttrelay/ntt/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the external configuration surface spec.md §6 names, plus
// the ambient knobs SPEC_FULL.md §2 adds (compression toggle, pack size
// limits) and the logging level the ambient stack needs everywhere
// else.
type Config struct {
	Network struct {
		RelayHost     string `mapstructure:"relay_host" json:"relay_host"`
		RelayPort     int    `mapstructure:"relay_port" json:"relay_port"`
		ProtocolMagic uint32 `mapstructure:"protocol_magic" json:"protocol_magic"`
	} `mapstructure:"network" json:"network"`

	Store struct {
		RootPath    string `mapstructure:"root_path" json:"root_path"`
		NetworkName string `mapstructure:"network_name" json:"network_name"`

		CompressBlobs     bool   `mapstructure:"compress_blobs" json:"compress_blobs"`
		PackLimitNbBlobs  uint32 `mapstructure:"pack_limit_nb_blobs" json:"pack_limit_nb_blobs"`
		PackLimitSizeMB   uint64 `mapstructure:"pack_limit_size_mb" json:"pack_limit_size_mb"`
		PackScheduleCron  string `mapstructure:"pack_schedule_cron" json:"pack_schedule_cron"`
		DeleteBlobsOnPack bool   `mapstructure:"delete_blobs_on_pack" json:"delete_blobs_on_pack"`
	} `mapstructure:"store" json:"store"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`

	Metrics struct {
		Enabled    bool   `mapstructure:"enabled" json:"enabled"`
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"metrics" json:"metrics"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment-specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is
// loaded.
func Load(env string) (*Config, error) {
	setDefaults()

	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
			}
		}
	}

	viper.SetEnvPrefix("ntt")
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the NTT_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("NTT_ENV", ""))
}

func setDefaults() {
	viper.SetDefault("network.relay_port", 3000)
	viper.SetDefault("network.protocol_magic", 764824073)
	viper.SetDefault("store.root_path", "./data")
	viper.SetDefault("store.network_name", "mainnet")
	viper.SetDefault("store.compress_blobs", true)
	viper.SetDefault("store.pack_schedule_cron", "@every 1h")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen_addr", "127.0.0.1:9100")
}
