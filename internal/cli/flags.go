package cli

import (
	"os"
	"path/filepath"

	"codeberg.org/snonux/itemtranslate/internal/translation"
)

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile        string
	EnvFile        string
	Provider       string
	TargetLanguage string
	SourceLanguage string
	FallbackOrder  []string
	BulkRate       float64
	StorePath      string
	LogLevel       string
	LogFormat      string
	JSON           bool

	// bulk flags
	ItemsFile string
	Invoice   string

	// invoice flags
	SkipTranslated bool
	OnlyTranslated bool
	OutputFile     string

	// serve flags
	Addr    string
	Breaker bool
}

// DefaultStorePath returns the default SQLite database location
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "itemtranslate.db"
	}
	return filepath.Join(home, ".local", "state", "itemtranslate", "items.db")
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		EnvFile:        ".env",
		Provider:       translation.DefaultProvider,
		TargetLanguage: translation.DefaultTargetLanguage,
		SourceLanguage: translation.DefaultSourceLanguage,
		FallbackOrder:  append([]string(nil), translation.DefaultFallbackOrder...),
		StorePath:      DefaultStorePath(),
		LogLevel:       "info",
		LogFormat:      "console",
		Addr:           ":8080",
		Breaker:        true,
	}
}
