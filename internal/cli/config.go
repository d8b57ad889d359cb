package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/itemtranslate/internal/translation"
)

// Config keys
const (
	KeyProvider       = "translation.default_provider"
	KeyTargetLanguage = "translation.target_language"
	KeySourceLanguage = "translation.source_language"
	KeyFallbackOrder  = "translation.fallback_order"
	KeyBulkRate       = "translation.bulk_rate"
	KeyStorePath      = "store.path"
	KeyServerAddr     = "server.addr"
	KeyBreaker        = "server.breaker"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
)

// Persistent flags backed by a config key
var flagKeys = map[string]string{
	"provider":       KeyProvider,
	"target":         KeyTargetLanguage,
	"source":         KeySourceLanguage,
	"fallback-order": KeyFallbackOrder,
	"rate":           KeyBulkRate,
	"store":          KeyStorePath,
	"log-level":      KeyLogLevel,
	"log-format":     KeyLogFormat,
}

func bindFlagsToViper(cmd *cobra.Command) {
	cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			viper.BindPFlag(key, f)
		}
	})
}

// InitConfig loads an optional .env file, then the viper configuration
func InitConfig(cfgFile, envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", envFile, err)
		}
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".itemtranslate" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".itemtranslate")
	}

	// ITEMTRANSLATE_TRANSLATION_DEFAULT_PROVIDER and friends
	viper.SetEnvPrefix("ITEMTRANSLATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// ConfigKeys resolves provider API keys from the configuration file first
// (providers.<name>.api_key) and the provider's environment variable second
type ConfigKeys struct{}

// APIKey implements translation.KeySource
func (ConfigKeys) APIKey(provider string) string {
	name := strings.ToLower(strings.TrimSpace(provider))
	if name == "" {
		return ""
	}

	if key := strings.TrimSpace(viper.GetString("providers." + name + ".api_key")); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv(envVarFor(name)))
}

func envVarFor(name string) string {
	if profile, ok := translation.DefaultProfiles()[name]; ok && profile.EnvVar != "" {
		return profile.EnvVar
	}
	return strings.ToUpper(name) + "_API_KEY"
}

// Settings is the resolved application configuration
type Settings struct {
	Provider       string
	TargetLanguage string
	SourceLanguage string
	FallbackOrder  []string
	BulkRate       float64
	StorePath      string
	Addr           string
	Breaker        bool
	LogLevel       string
	LogFormat      string

	// Per provider overrides from providers.<name>.base_url and .model
	BaseURLs map[string]string
	Models   map[string]string
}

// LoadSettings reads the settings from viper, falling back to flags for
// values viper does not know about
func LoadSettings(flags *Flags) Settings {
	s := Settings{
		Provider:       stringOr(viper.GetString(KeyProvider), flags.Provider),
		TargetLanguage: stringOr(viper.GetString(KeyTargetLanguage), flags.TargetLanguage),
		SourceLanguage: stringOr(viper.GetString(KeySourceLanguage), flags.SourceLanguage),
		FallbackOrder:  splitList(viper.GetStringSlice(KeyFallbackOrder)),
		BulkRate:       flags.BulkRate,
		StorePath:      stringOr(viper.GetString(KeyStorePath), flags.StorePath),
		Addr:           stringOr(viper.GetString(KeyServerAddr), flags.Addr),
		Breaker:        flags.Breaker,
		LogLevel:       stringOr(viper.GetString(KeyLogLevel), flags.LogLevel),
		LogFormat:      stringOr(viper.GetString(KeyLogFormat), flags.LogFormat),
		BaseURLs:       make(map[string]string),
		Models:         make(map[string]string),
	}
	if len(s.FallbackOrder) == 0 {
		s.FallbackOrder = append([]string(nil), flags.FallbackOrder...)
	}
	if viper.IsSet(KeyBulkRate) {
		s.BulkRate = viper.GetFloat64(KeyBulkRate)
	}
	if viper.IsSet(KeyBreaker) {
		s.Breaker = viper.GetBool(KeyBreaker)
	}

	for name := range translation.DefaultProfiles() {
		if url := viper.GetString("providers." + name + ".base_url"); url != "" {
			s.BaseURLs[name] = url
		}
		if model := viper.GetString("providers." + name + ".model"); model != "" {
			s.Models[name] = model
		}
	}
	return s
}

func stringOr(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

// splitList accepts both YAML lists and comma separated strings
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
