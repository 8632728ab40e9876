package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"endurance/internal/analysis"
	"endurance/internal/store"
)

// EnvPrefix prefixes every environment override, e.g.
// ENDURANCE_STRAVA__CLIENT_ID sets strava.client_id
const EnvPrefix = "ENDURANCE_"

// envConfigPath points Load at a different config file
const envConfigPath = EnvPrefix + "CONFIG"

// Config represents the application configuration
type Config struct {
	Strava    StravaConfig    `koanf:"strava"`
	Athlete   AthleteConfig   `koanf:"athlete"`
	Display   DisplayConfig   `koanf:"display"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Analytics AnalyticsConfig `koanf:"analytics"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	// FetchStreams downloads per-sample streams during sync to set capability flags
	FetchStreams bool `koanf:"fetch_streams"`
}

// AthleteConfig holds athlete-specific settings
type AthleteConfig struct {
	UserID    string  `koanf:"user_id"`
	RestingHR float64 `koanf:"resting_hr"`
	MaxHR     float64 `koanf:"max_hr"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `koanf:"distance_unit"`
	PaceUnit     string `koanf:"pace_unit"`
}

// LogConfig controls the log file
type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"` // relative paths resolve against the config dir
}

// MetricsConfig controls the prometheus endpoint. An empty address disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// AnalyticsConfig tunes the analytics engine
type AnalyticsConfig struct {
	MergeThreshold float64 `koanf:"merge_threshold"`
	// Per-sport reference speeds (km/h) and load exponents, keyed by sport name
	ReferenceSpeeds map[string]float64 `koanf:"reference_speeds"`
	Exponents       map[string]float64 `koanf:"exponents"`
	// DerivedSpeeds uses the athlete's own median speeds as load references
	DerivedSpeeds bool `koanf:"derived_speeds"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Athlete: AthleteConfig{
			UserID:    "local",
			RestingHR: 50,
			MaxHR:     185,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
			PaceUnit:     "min/km",
		},
		Log: LogConfig{
			Level: "info",
			File:  "endurance.log",
		},
		Analytics: AnalyticsConfig{
			MergeThreshold: analysis.DefaultProfile().MergeThreshold,
		},
	}
}

// Load reads ~/.endurance/config.yaml, or the file named by ENDURANCE_CONFIG,
// layered over the defaults and under ENDURANCE_* environment variables
func Load() (*Config, error) {
	path := os.Getenv(envConfigPath)
	if path == "" {
		var err error
		if path, err = getConfigPath(); err != nil {
			return nil, err
		}
	}
	return LoadFile(path)
}

// LoadFile loads the configuration from path
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoConfig
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

const exampleConfig = `# Endurance dashboard configuration.
# Any key can be overridden from the environment, e.g.
# ENDURANCE_STRAVA__CLIENT_ID=12345

strava:
  # Create an API application at https://www.strava.com/settings/api
  client_id: "YOUR_CLIENT_ID"
  client_secret: "YOUR_CLIENT_SECRET"
  # One extra request per activity, counts against the API rate limit
  fetch_streams: false

athlete:
  user_id: "local"
  resting_hr: 50
  max_hr: 185

display:
  distance_unit: "km"   # km or mi
  pace_unit: "min/km"   # min/km or min/mi

log:
  level: "info"         # debug, info, warn, error
  file: "endurance.log"

metrics:
  # Serve prometheus metrics, e.g. "127.0.0.1:9464". Empty disables.
  addr: ""

analytics:
  # Similarity score at or above which an import merges into an existing activity
  merge_threshold: 0.7
  # Use your own median speeds (efforts of 30 min or more) as load references
  derived_speeds: false
  # Reference speeds in km/h, per sport
  # reference_speeds:
  #   Run: 10
  #   Ride: 25
  # exponents:
  #   Run: 2.6
`

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return CreateExampleAt(path)
}

// CreateExampleAt writes the example config to path unless a file is already there
func CreateExampleAt(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	if c.Athlete.UserID == "" {
		return errors.New("athlete.user_id must not be empty")
	}

	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}
	if c.Display.PaceUnit != "" && c.Display.PaceUnit != "min/km" && c.Display.PaceUnit != "min/mi" {
		return fmt.Errorf("display.pace_unit must be \"min/km\" or \"min/mi\", got %q", c.Display.PaceUnit)
	}

	if c.Athlete.RestingHR > 0 && c.Athlete.MaxHR > 0 && c.Athlete.RestingHR >= c.Athlete.MaxHR {
		return fmt.Errorf("athlete.resting_hr (%v) must be less than athlete.max_hr (%v)", c.Athlete.RestingHR, c.Athlete.MaxHR)
	}

	if t := c.Analytics.MergeThreshold; t != 0 && (t < 0 || t > 1) {
		return fmt.Errorf("analytics.merge_threshold must be in (0, 1], got %v", t)
	}
	for name := range c.Analytics.ReferenceSpeeds {
		if _, ok := parseSport(name); !ok {
			return fmt.Errorf("analytics.reference_speeds: unknown sport %q", name)
		}
	}
	for name := range c.Analytics.Exponents {
		if _, ok := parseSport(name); !ok {
			return fmt.Errorf("analytics.exponents: unknown sport %q", name)
		}
	}

	return nil
}

// Profile builds the analytics profile with the configured overrides applied
func (c *Config) Profile() analysis.Profile {
	return analysis.DefaultProfile().
		WithReferenceSpeeds(sportMap(c.Analytics.ReferenceSpeeds)).
		WithExponents(sportMap(c.Analytics.Exponents)).
		WithMergeThreshold(c.Analytics.MergeThreshold)
}

// HRZones returns the athlete's heart rate zones, defaulting unset values
func (c *Config) HRZones() analysis.HRZones {
	zones := analysis.DefaultZones()
	if c.Athlete.RestingHR > 0 {
		zones.RestingHR = c.Athlete.RestingHR
	}
	if c.Athlete.MaxHR > 0 {
		zones.MaxHR = c.Athlete.MaxHR
	}
	return zones
}

// LogPath resolves the log file location
func (c *Config) LogPath() (string, error) {
	name := c.Log.File
	if name == "" {
		name = "endurance.log"
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func sportMap(in map[string]float64) map[store.Sport]float64 {
	out := make(map[store.Sport]float64, len(in))
	for name, v := range in {
		if sport, ok := parseSport(name); ok {
			out[sport] = v
		}
	}
	return out
}

// parseSport matches sport names case-insensitively; koanf lowercases env keys
func parseSport(name string) (store.Sport, bool) {
	for _, s := range store.Sports {
		if strings.EqualFold(string(s), name) {
			return s, true
		}
	}
	return "", false
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".endurance"), nil
}
