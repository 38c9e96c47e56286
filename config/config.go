package config

import (
	"path/filepath"
	"strings"
	"time"

	"autoexec/models"
	"autoexec/scanner"
	"autoexec/storage"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. AUTOEXEC_DEST
const EnvPrefix = "AUTOEXEC"

// Keys shared by flags, environment variables and defaults
const (
	KeyDestination = "dest"
	KeyExtension   = "ext"
	KeyMode        = "mode"
	KeySettings    = "settings"
	KeyLogLevel    = "log-level"
	KeyNoWatch     = "no-watch"
	KeyDebounce    = "debounce"
)

// Config holds the runtime configuration
type Config struct {
	Destination  string
	Extension    string
	Mode         models.Mode
	SettingsFile string
	LogLevel     string
	Watch        bool
	Debounce     time.Duration
}

// DefaultDestination returns the autoexec folder of the host.
// On Windows xdg.DataHome is %LOCALAPPDATA%, giving %LOCALAPPDATA%\Wave\autoexec.
func DefaultDestination() string {
	return filepath.Join(xdg.DataHome, "Wave", "autoexec")
}

// SetDefaults registers default values and environment lookups on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDestination, DefaultDestination())
	v.SetDefault(KeyExtension, scanner.DefaultExtension)
	v.SetDefault(KeyMode, models.ModeMulti.String())
	v.SetDefault(KeySettings, storage.DefaultSettingsFile)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyNoWatch, false)
	v.SetDefault(KeyDebounce, 100*time.Millisecond)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from v
func Load(v *viper.Viper) (*Config, error) {
	mode, err := models.ParseMode(v.GetString(KeyMode))
	if err != nil {
		return nil, err
	}

	ext := v.GetString(KeyExtension)
	if ext == "" {
		return nil, errors.New("tracked extension must not be empty")
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	dest := v.GetString(KeyDestination)
	if dest == "" {
		return nil, errors.New("destination folder must not be empty")
	}

	return &Config{
		Destination:  filepath.Clean(dest),
		Extension:    ext,
		Mode:         mode,
		SettingsFile: v.GetString(KeySettings),
		LogLevel:     v.GetString(KeyLogLevel),
		Watch:        !v.GetBool(KeyNoWatch),
		Debounce:     v.GetDuration(KeyDebounce),
	}, nil
}
