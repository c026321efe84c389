package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. CUSHION_LOG_LEVEL.
const EnvPrefix = "CUSHION"

var searchPaths = []string{"./configs", "."}

// defaults seeds every key the commands read.
var defaults = map[string]any{
	"log.level":              "info",
	"server.host":            "0.0.0.0",
	"server.port":            8080,
	"server.upstream":        "",
	"server.watch":           false,
	"plugins.request_logger": false,
	"plugins.redact.enabled": false,
	"plugins.redact.paths":   []string{},
	RulesKey:                 []any{},
}

// Init loads .env and the config file into the global viper instance.
// Errors other than a missing config file are reported on stderr.
func Init(cfgFile string) {
	if err := Load(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
	}
}

// Load prepares v with defaults and CUSHION_* environment overrides, then
// reads cfgFile, or config.yaml from ./configs or the working directory
// when cfgFile is empty. Not finding a config file is not an error.
func Load(v *viper.Viper, cfgFile string) error {
	_ = godotenv.Load()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range searchPaths {
			v.AddConfigPath(dir)
		}
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) {
		return nil
	}
	return err
}
