// Package config handles loading and validating poolwatch configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} placeholders in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// forbiddenPoolText matches characters and reserved vdev words that may not
// appear in the pool filter.
var forbiddenPoolText = regexp.MustCompile(`(?:[^a-zA-Z0-9_.:,\s-]|\b(?:c[0-9]\S*|log|mirror|raidz[1-3]?|spare|[0-9_.:-].*)\b)`)

// ErrConfigFileNotFound is returned by Load when the specified config file does not exist.
var ErrConfigFileNotFound = errors.New("config file not found")

// ErrInvalidPools is returned when the pool filter contains forbidden text.
var ErrInvalidPools = errors.New("invalid pool names")

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

// Config is the top-level poolwatch configuration.
type Config struct {
	WebhookURL    string     `yaml:"webhook_url"`
	MaxRetries    int        `yaml:"max_retries"`
	RetryDelay    Duration   `yaml:"retry_delay"`
	CheckDelay    Duration   `yaml:"check_delay"`
	Extra         string     `yaml:"extra"`
	Pools         string     `yaml:"pools"`
	ShowSpace     bool       `yaml:"show_space"`
	Verbose       bool       `yaml:"verbose"`
	Webserver     bool       `yaml:"webserver"`
	Host          string     `yaml:"host"`
	Port          int        `yaml:"port"`
	LogLevel      string     `yaml:"log_level"`
	LogFormat     string     `yaml:"log_format"`
	MetricsListen string     `yaml:"metrics_listen"`
	Ntfy          NtfyConfig `yaml:"ntfy"`
	ZpoolCommand  string     `yaml:"zpool_command"`
}

// NtfyConfig describes the optional ntfy mirror.
type NtfyConfig struct {
	URL   string `yaml:"url"`
	Topic string `yaml:"topic"`
}

// Duration wraps time.Duration. It accepts a Go duration string or a plain
// integer number of seconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := parseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return parsed, nil
}

// Load reads configuration from defaults, an optional YAML file, a .env
// file in the working directory and the environment, in that order. If a
// path is given and the file does not exist, ErrConfigFileNotFound is
// returned.
func Load(path string) (*Config, error) {
	return load(path, DefaultEnvFile)
}

func load(path, envFile string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(expandEnvVars(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	env, err := readEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg, env); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("webhook_url is required")
	}
	u, err := url.Parse(c.WebhookURL)
	if err != nil {
		return fmt.Errorf("invalid webhook_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("webhook_url must be an absolute http(s) URL")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0")
	}
	if c.RetryDelay.Duration < 0 {
		return fmt.Errorf("retry_delay must be >= 0")
	}
	if c.CheckDelay.Duration <= 0 {
		return fmt.Errorf("check_delay must be > 0")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if err := ValidatePools(c.Pools); err != nil {
		return err
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("log_format must be one of: text, json")
	}
	if c.MetricsListen != "" {
		if _, _, err := net.SplitHostPort(c.MetricsListen); err != nil {
			return fmt.Errorf("metrics_listen: %w", err)
		}
	}
	if c.Ntfy.URL != "" && c.Ntfy.Topic == "" {
		return fmt.Errorf("ntfy.topic is required when ntfy.url is set")
	}
	if len(c.ZpoolArgv()) == 0 {
		return fmt.Errorf("zpool_command must not be empty")
	}
	return nil
}

// ValidatePools rejects pool filters containing anything but plain pool
// names.
func ValidatePools(pools string) error {
	if cleaned := forbiddenPoolText.ReplaceAllString(pools, ""); len(cleaned) != len(pools) {
		return fmt.Errorf("%w: %q", ErrInvalidPools, pools)
	}
	return nil
}

// PoolNames returns the pool filter as separate names. Empty means all
// pools.
func (c *Config) PoolNames() []string {
	return strings.Fields(c.Pools)
}

// ListenAddr returns the projection server address.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ZpoolArgv returns the status command prefix.
func (c *Config) ZpoolArgv() []string {
	return strings.Fields(c.ZpoolCommand)
}

func defaults() *Config {
	return &Config{
		MaxRetries:   3,
		RetryDelay:   Duration{5 * time.Second},
		CheckDelay:   Duration{300 * time.Second},
		Host:         "0.0.0.0",
		Port:         8080,
		LogLevel:     "info",
		LogFormat:    "text",
		Ntfy:         NtfyConfig{Topic: "poolwatch"},
		ZpoolCommand: "zpool",
	}
}

// expandEnvVars replaces ${VAR_NAME} placeholders in raw YAML with the
// corresponding environment variable values. Unset variables are replaced
// with an empty string, which will then fail validation with a clear error.
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		key := string(match[2 : len(match)-1]) // strip ${ and }
		return []byte(os.Getenv(key))
	})
}

// readEnvFile parses a dotenv file. A missing file yields an empty map.
func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return env, nil
}

// envLookup prefers the process environment over the dotenv file, the same
// precedence godotenv.Load gives.
type envLookup map[string]string

func (e envLookup) get(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	v, ok := e[key]
	return v, ok
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *Config, file map[string]string) error {
	env := envLookup(file)

	// Set but empty clears these, so POOLS= widens a YAML filter back to all
	// pools.
	clearable := map[string]*string{
		"EXTRA": &cfg.Extra,
		"POOLS": &cfg.Pools,
	}
	for key, dst := range clearable {
		if v, ok := env.get(key); ok {
			*dst = v
		}
	}

	strs := map[string]*string{
		"DISCORD_WEBHOOK_URL": &cfg.WebhookURL,
		"HOST":                &cfg.Host,
		"LOG_LEVEL":           &cfg.LogLevel,
		"LOG_FORMAT":          &cfg.LogFormat,
		"METRICS_LISTEN":      &cfg.MetricsListen,
		"NTFY_URL":            &cfg.Ntfy.URL,
		"NTFY_TOPIC":          &cfg.Ntfy.Topic,
		"ZPOOL_COMMAND":       &cfg.ZpoolCommand,
	}
	for key, dst := range strs {
		if v, ok := env.get(key); ok && v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"SHOW_SPACE": &cfg.ShowSpace,
		"VERBOSE":    &cfg.Verbose,
		"WEBSERVER":  &cfg.Webserver,
	}
	for key, dst := range bools {
		if v, ok := env.get(key); ok && v != "" {
			*dst = parseBool(v)
		}
	}

	ints := map[string]*int{
		"DISCORD_MAX_RETRIES": &cfg.MaxRetries,
		"PORT":                &cfg.Port,
	}
	for key, dst := range ints {
		if v, ok := env.get(key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: invalid integer %q", key, v)
			}
			*dst = n
		}
	}

	durations := map[string]*Duration{
		"DISCORD_RETRY_DELAY": &cfg.RetryDelay,
		"CHECK_DELAY":         &cfg.CheckDelay,
	}
	for key, dst := range durations {
		if v, ok := env.get(key); ok && v != "" {
			d, err := parseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			dst.Duration = d
		}
	}
	return nil
}
