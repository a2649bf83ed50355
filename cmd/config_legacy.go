package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	yamlv2 "gopkg.in/yaml.v2"
)

// legacyConfig is the shape of a pre-drgo ".cucaracha.yaml" config file.
// drgo's own config format moved to yaml.v3-backed viper decoding
// (initConfig); this is a one-time migration read for a user who still has
// the old dotfile lying around, using yaml.v2 the way the teacher's own
// config predates yaml.v3 in its dependency history.
type legacyConfig struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	Shards   int    `yaml:"shards"`
}

// tryLegacyConfig looks for "<home>/.cucaracha.yaml" and, if present,
// decodes it and seeds viper's in-memory settings from it. Returns the path
// found and true on success; a missing or malformed legacy file is not an
// error, just a no-op, since the new config format takes precedence
// whenever it's present (initConfig only calls this on that format's
// absence).
func tryLegacyConfig(home string) (string, bool) {
	if home == "" {
		return "", false
	}
	path := filepath.Join(home, ".cucaracha.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	var cfg legacyConfig
	if err := yamlv2.Unmarshal(data, &cfg); err != nil {
		return "", false
	}

	if cfg.LogLevel != "" {
		viper.Set("log-level", cfg.LogLevel)
	}
	if cfg.LogFile != "" {
		viper.Set("log-file", cfg.LogFile)
	}
	if cfg.Shards != 0 {
		viper.Set("shards", cfg.Shards)
	}
	return path, true
}
