package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"peek/internal/stats"
	"peek/internal/tracker"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned when none of the given files yielded any setting.
var ErrNoConfig = errors.New("no configuration could be loaded")

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Job           string                           `yaml:"job"`
	History       []int                            `yaml:"history"`
	SummaryFields []string                         `yaml:"summary_fields"`
	Templates     string                           `yaml:"templates"`
	Email         EmailConfig                      `yaml:"email"`
	Users         UsersConfig                      `yaml:"users"`
	AntiPatterns  []AntiPatternConfig              `yaml:"anti_patterns"`
	Backends      map[string]tracker.BackendConfig `yaml:"backends"`
}

// EmailConfig holds the report delivery settings.
type EmailConfig struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Server string `yaml:"server"`
}

// UsersConfig describes the people the report follows.
type UsersConfig struct {
	Moldy     int `yaml:"moldy"`      // days without modification before an assigned task is moldy
	ShowMoldy int `yaml:"show_moldy"` // moldy tasks listed per person

	// Map is display name -> backend -> username.
	Map        map[string]map[string]string `yaml:"map"`
	Attributes AttributesConfig             `yaml:"attributes"`
}

// AttributesConfig controls which member attributes are projected into the report.
type AttributesConfig struct {
	Show map[string]AttributeRule `yaml:"show"`
}

// AttributeRule copies member attribute <name> from Backend into the report under Key.
type AttributeRule struct {
	Backend string `yaml:"backend"`
	Key     string `yaml:"key"`
}

// AntiPatternConfig declares one anti-pattern rule.
type AntiPatternConfig struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	Column  string `yaml:"column"`
	AgeDays int    `yaml:"age_days"`
}

// Load reads the comma-separated YAML files in order. Later files replace
// earlier top-level keys. Unreadable files are logged and skipped.
func Load(paths string) (*AppConfig, error) {
	loadEnv()

	merged := make(map[string]any)
	for _, path := range strings.Split(paths, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		values, err := readFile(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to read config file")
			continue
		}
		log.Debug().Str("path", path).Int("keys", len(values)).Msg("Loaded config file")
		for k, v := range values {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		return nil, fmt.Errorf("%w from %q", ErrNoConfig, paths)
	}

	raw, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode merged config: %w", err)
	}
	cfg := &AppConfig{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return values, nil
}

// loadEnv reads .env next to the binary, then in the working directory.
// Variables already set in the environment win.
func loadEnv() {
	if exePath, err := os.Executable(); err == nil {
		envPath := filepath.Join(filepath.Dir(exePath), ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded environment from binary directory")
		}
	}
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory")
	}
}

func (c *AppConfig) applyDefaults() {
	if len(c.SummaryFields) == 0 {
		c.SummaryFields = []string{string(tracker.FieldStatus)}
	}
	if c.Users.ShowMoldy == 0 {
		c.Users.ShowMoldy = 5
	}
	if c.Job == "" {
		c.Job = "peek"
	}
}

// applyEnv lets PEEK_<BACKEND>_TOKEN override the token in the YAML files.
func (c *AppConfig) applyEnv() {
	for name, be := range c.Backends {
		key := "PEEK_" + strings.ToUpper(name) + "_TOKEN"
		if token, ok := os.LookupEnv(key); ok && token != "" {
			log.Debug().Str("backend", name).Str("env", key).Msg("Using token from environment")
			be.Token = token
			c.Backends[name] = be
		}
	}
}

// Validate reports every problem with the configuration.
func Validate(cfg *AppConfig) []error {
	var errs []error

	if len(cfg.History) == 0 {
		errs = append(errs, fmt.Errorf("history must list at least one duration"))
	}
	for _, d := range cfg.History {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("invalid history duration: %d", d))
		}
	}
	if cfg.Users.Moldy < 0 {
		errs = append(errs, fmt.Errorf("users.moldy must not be negative"))
	}

	validBackends := map[string]bool{tracker.BackendPhab: true, tracker.BackendAsana: true}
	for name, be := range cfg.Backends {
		if !be.Enabled {
			continue
		}
		if !validBackends[name] {
			errs = append(errs, fmt.Errorf("invalid backend: %s", name))
		}
		if len(be.Projects) == 0 {
			errs = append(errs, fmt.Errorf("backend %s has no projects", name))
		}
	}

	for _, ap := range cfg.AntiPatterns {
		if _, err := stats.NewPattern(ap.Name, ap.Kind, ap.Column, ap.Age()); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// Durations returns the configured history, longest first.
func (c *AppConfig) Durations() []int {
	d := slices.Clone(c.History)
	slices.Sort(d)
	slices.Reverse(d)
	return slices.Compact(d)
}

// MaxDuration returns the longest configured history window.
func (c *AppConfig) MaxDuration() int {
	if len(c.History) == 0 {
		return 0
	}
	return slices.Max(c.History)
}

// MoldyThreshold is how long an assigned task may go unmodified.
func (c *AppConfig) MoldyThreshold() time.Duration {
	return time.Duration(c.Users.Moldy) * 24 * time.Hour
}

// BackendNames returns the configured backends in reverse-alphabetical order.
func (c *AppConfig) BackendNames() []string {
	names := make([]string, 0, len(c.Backends))
	for name := range c.Backends {
		names = append(names, name)
	}
	slices.Sort(names)
	slices.Reverse(names)
	return names
}

// FieldsFor returns the summary fields of a backend, falling back to the global list.
func (c *AppConfig) FieldsFor(backend string) []string {
	if be, ok := c.Backends[backend]; ok && len(be.SummaryFields) > 0 {
		return be.SummaryFields
	}
	return c.SummaryFields
}

// UserNames returns the reported display names in alphabetical order.
func (c *AppConfig) UserNames() []string {
	names := make([]string, 0, len(c.Users.Map))
	for name := range c.Users.Map {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Patterns builds the configured anti-patterns, or the default set.
func (c *AppConfig) Patterns() ([]stats.Pattern, error) {
	if len(c.AntiPatterns) == 0 {
		return stats.DefaultPatterns(), nil
	}
	patterns := make([]stats.Pattern, 0, len(c.AntiPatterns))
	for _, ap := range c.AntiPatterns {
		p, err := stats.NewPattern(ap.Name, ap.Kind, ap.Column, ap.Age())
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// Age converts AgeDays to a duration.
func (a AntiPatternConfig) Age() time.Duration {
	return time.Duration(a.AgeDays) * 24 * time.Hour
}
