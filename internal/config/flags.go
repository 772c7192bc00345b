package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Keys for settings that may be overridden by flags and environment.
const (
	KeyLogLevel          = "logging.level"
	KeyLogFile           = "logging.log_file"
	KeyOutputFormat      = "output.format"
	KeyOutputVersion     = "output.version"
	KeyOutputEndianness  = "output.endianness"
	KeyValidateTriangles = "filters.validate_triangles"
	KeyConvertJobs       = "convert.jobs"
)

// NewViper returns a viper instance reading SMF_* environment variables,
// e.g. SMF_OUTPUT_FORMAT for output.format. Callers bind command flags to
// the same keys.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("smf")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyOverrides copies every setting explicitly set in v into cfg.
func ApplyOverrides(cfg *Config, v *viper.Viper) {
	if v.IsSet(KeyLogLevel) {
		cfg.Logging.Level = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyLogFile) {
		cfg.Logging.LogFile = v.GetString(KeyLogFile)
	}
	if v.IsSet(KeyOutputFormat) {
		cfg.Output.Format = v.GetString(KeyOutputFormat)
	}
	if v.IsSet(KeyOutputVersion) {
		cfg.Output.Version = v.GetString(KeyOutputVersion)
	}
	if v.IsSet(KeyOutputEndianness) {
		cfg.Output.Endianness = v.GetString(KeyOutputEndianness)
	}
	if v.IsSet(KeyValidateTriangles) {
		cfg.Filters.ValidateTriangles = v.GetBool(KeyValidateTriangles)
	}
	if v.IsSet(KeyConvertJobs) {
		cfg.Convert.Jobs = v.GetInt(KeyConvertJobs)
	}
}
