package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// ConfigName is the settings file looked up in the working directory
	ConfigName = "drive-cleanup"
	envPrefix  = "DRIVE_CLEANUP"

	maxPageSize = 1000
)

// Settings keys
const (
	KeyCredentialsFile = "credentials_file"
	KeyOutputDir       = "output_dir"
	KeySessionDB       = "session_db"
	KeySecretsFile     = "secrets_file"
	KeySaltFile        = "salt_file"
	KeyPageSize        = "page_size"
	KeyRetries         = "retries"
	KeyHTTPTimeout     = "http_timeout"
	KeyVerifyDeletes   = "verify_deletes"
)

// Settings holds the non-secret runtime configuration
type Settings struct {
	CredentialsFile string
	OutputDir       string
	SessionDB       string
	SecretsFile     string
	SaltFile        string
	PageSize        int64
	Retries         int
	HTTPTimeout     time.Duration
	VerifyDeletes   bool
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyCredentialsFile, "client_secrets.json")
	v.SetDefault(KeyOutputDir, ".")
	v.SetDefault(KeySessionDB, "session.db")
	v.SetDefault(KeySecretsFile, "config.json.enc")
	v.SetDefault(KeySaltFile, "config.salt")
	v.SetDefault(KeyPageSize, maxPageSize)
	v.SetDefault(KeyRetries, 3)
	v.SetDefault(KeyHTTPTimeout, 60*time.Second)
	v.SetDefault(KeyVerifyDeletes, true)
}

// LoadSettings resolves defaults, the optional settings file, and DRIVE_CLEANUP_* env vars.
// Flags bound to v with BindPFlag take precedence over all three.
// An explicit configFile must exist; the implicit one is optional.
func LoadSettings(v *viper.Viper, configFile string) (*Settings, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading settings: %w", err)
		}
	}

	s := &Settings{
		CredentialsFile: v.GetString(KeyCredentialsFile),
		OutputDir:       v.GetString(KeyOutputDir),
		SessionDB:       v.GetString(KeySessionDB),
		SecretsFile:     v.GetString(KeySecretsFile),
		SaltFile:        v.GetString(KeySaltFile),
		PageSize:        v.GetInt64(KeyPageSize),
		Retries:         v.GetInt(KeyRetries),
		HTTPTimeout:     v.GetDuration(KeyHTTPTimeout),
		VerifyDeletes:   v.GetBool(KeyVerifyDeletes),
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// Validate checks value ranges
func (s *Settings) Validate() error {
	var errs []error
	if s.PageSize < 1 || s.PageSize > maxPageSize {
		errs = append(errs, fmt.Errorf("%s must be between 1 and %d, got %d", KeyPageSize, maxPageSize, s.PageSize))
	}
	if s.Retries < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", KeyRetries, s.Retries))
	}
	if s.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyHTTPTimeout))
	}
	if s.CredentialsFile == "" {
		errs = append(errs, fmt.Errorf("%s must be set", KeyCredentialsFile))
	}
	return errors.Join(errs...)
}
