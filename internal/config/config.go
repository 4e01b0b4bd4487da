package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	// Config is built once at startup and passed to every collaborator
	Config struct {
		OneNote
		WizNote
		Migration
		LogLevel string
	}

	OneNote struct {
		ClientID     string
		ClientSecret string
		RedirectURL  string
		AuthURL      string
		TokenURL     string
		Scopes       []string
		APIBase      string
		HTTPTimeout  time.Duration
	}

	WizNote struct {
		DataDir  string
		Platform string // GOOS-style layout name, empty for the host platform
	}

	Migration struct {
		OutputDir        string
		Workers          int
		CreatedOffset    time.Duration // Zone offset DT_CREATED values are read in
		MaxImagesPerPage int
		RunTimeout       time.Duration // Zero disables the run-level timeout
	}
)

const (
	keyClientID      = "ONENOTE_CLIENT_ID"
	keyClientSecret  = "ONENOTE_CLIENT_SECRET"
	keyRedirectURL   = "ONENOTE_REDIRECT_URL"
	keyAuthURL       = "ONENOTE_AUTH_URL"
	keyTokenURL      = "ONENOTE_TOKEN_URL"
	keyScopes        = "ONENOTE_SCOPES"
	keyAPIBase       = "ONENOTE_API_BASE"
	keyHTTPTimeout   = "HTTP_TIMEOUT"
	keyDataDir       = "WIZNOTE_DATA_DIR"
	keyPlatform      = "WIZNOTE_PLATFORM"
	keyLogLevel      = "LOG_LEVEL"
	keyOutputDir     = "OUTPUT_DIR"
	keyWorkers       = "UPLOAD_WORKERS"
	keyCreatedOffset = "CREATED_UTC_OFFSET"
	keyMaxImages     = "MAX_IMAGES_PER_PAGE"
	keyRunTimeout    = "RUN_TIMEOUT"
)

// SetDefaults registers the built-in values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(keyClientID, "ddbd41a5-c46d-44f2-85b2-d73bbd7bee7d")
	v.SetDefault(keyClientSecret, "")
	v.SetDefault(keyRedirectURL, "https://login.live.com/oauth20_desktop.srf")
	v.SetDefault(keyAuthURL, "https://login.live.com/oauth20_authorize.srf")
	v.SetDefault(keyTokenURL, "https://login.live.com/oauth20_token.srf")
	v.SetDefault(keyScopes, "wl.signin office.onenote_create")
	v.SetDefault(keyAPIBase, "https://www.onenote.com/api/v1.0/me/notes")
	v.SetDefault(keyHTTPTimeout, "60s")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyWorkers, 1)
	v.SetDefault(keyCreatedOffset, "-8h")
	v.SetDefault(keyMaxImages, 5)
	v.SetDefault(keyRunTimeout, "0s")
}

// Load reads an optional .env file and the process environment
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper builds and validates a Config from already-populated settings
func FromViper(v *viper.Viper) (*Config, error) {
	httpTimeout, err := parseDuration(v, keyHTTPTimeout)
	if err != nil {
		return nil, err
	}
	offset, err := parseDuration(v, keyCreatedOffset)
	if err != nil {
		return nil, err
	}
	runTimeout, err := parseDuration(v, keyRunTimeout)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OneNote: OneNote{
			ClientID:     v.GetString(keyClientID),
			ClientSecret: v.GetString(keyClientSecret),
			RedirectURL:  v.GetString(keyRedirectURL),
			AuthURL:      v.GetString(keyAuthURL),
			TokenURL:     v.GetString(keyTokenURL),
			Scopes:       strings.Fields(v.GetString(keyScopes)),
			APIBase:      strings.TrimRight(v.GetString(keyAPIBase), "/"),
			HTTPTimeout:  httpTimeout,
		},
		WizNote: WizNote{
			DataDir:  v.GetString(keyDataDir),
			Platform: v.GetString(keyPlatform),
		},
		Migration: Migration{
			OutputDir:        v.GetString(keyOutputDir),
			Workers:          v.GetInt(keyWorkers),
			CreatedOffset:    offset,
			MaxImagesPerPage: v.GetInt(keyMaxImages),
			RunTimeout:       runTimeout,
		},
		LogLevel: v.GetString(keyLogLevel),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no usable fallback
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%s is not set", keyClientID)
	}
	if c.APIBase == "" {
		return fmt.Errorf("%s is not set", keyAPIBase)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", keyWorkers, c.Workers)
	}
	if c.MaxImagesPerPage < 0 {
		return fmt.Errorf("%s must not be negative, got %d", keyMaxImages, c.MaxImagesPerPage)
	}
	if c.CreatedOffset%time.Minute != 0 {
		return fmt.Errorf("%s must be a whole number of minutes, got %s", keyCreatedOffset, c.CreatedOffset)
	}
	return nil
}

// CreatedLocation returns the fixed zone DT_CREATED values are interpreted in
func (c *Config) CreatedLocation() *time.Location {
	return time.FixedZone("", int(c.CreatedOffset/time.Second))
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
