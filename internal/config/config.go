package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
	"github.com/Aman-CERP/ayatsearch/internal/normalize"
	"github.com/Aman-CERP/ayatsearch/internal/search"
)

// Project config file names, in lookup order.
var projectConfigNames = []string{ProjectConfigName, ".ayatsearch.yml"}

// Config represents the complete ayatsearch configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Corpus     CorpusConfig     `yaml:"corpus" json:"corpus"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Normalizer NormalizerConfig `yaml:"normalizer" json:"normalizer"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Watch      WatchConfig      `yaml:"watch" json:"watch"`

	// Sources lists the files that were layered over the defaults, in order.
	Sources []string `yaml:"-" json:"sources,omitempty"`

	// baseDir resolves relative paths in the project config.
	baseDir string
}

// CorpusConfig locates the verse collection.
type CorpusConfig struct {
	// Path is a JSON array or JSON Lines file of documents.
	Path string `yaml:"path" json:"path"`

	// Chapter restricts the engine to one chapter. 0 means the whole corpus.
	Chapter int `yaml:"chapter" json:"chapter"`
}

// SearchConfig carries the engine tuning plus CLI result limits.
//
// Precedence, lowest first:
//  1. Defaults (search.DefaultConfig)
//  2. User config (~/.config/ayatsearch/config.yaml)
//  3. Project config (.ayatsearch.yaml)
//  4. Env vars (AYATSEARCH_FUZZINESS, AYATSEARCH_ACCEPTANCE_THRESHOLD, ...)
type SearchConfig struct {
	search.Config `yaml:",inline"`

	// MaxResults is the default result limit for the CLI and MCP tools.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// NormalizerConfig selects the rewrite rules and letter unification policy.
type NormalizerConfig struct {
	// RulesFile replaces the built-in rules when set.
	RulesFile string `yaml:"rules_file" json:"rules_file"`

	UnifyAlifMaksura bool `yaml:"unify_alif_maksura" json:"unify_alif_maksura"`
	UnifyYaHamza     bool `yaml:"unify_ya_hamza" json:"unify_ya_hamza"`
	UnifyTaMarbuta   bool `yaml:"unify_ta_marbuta" json:"unify_ta_marbuta"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`

	// MetricsAddr serves Prometheus metrics when non-empty, e.g. "127.0.0.1:9464".
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
}

// WatchConfig configures live reload of the corpus and rules files.
type WatchConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Debounce string `yaml:"debounce" json:"debounce"`
}

// NewConfig returns a Config with the defaults.
func NewConfig() *Config {
	n := normalize.DefaultOptions()
	return &Config{
		Version: 1,
		Search: SearchConfig{
			Config:     search.DefaultConfig(),
			MaxResults: 20,
		},
		Normalizer: NormalizerConfig{
			UnifyAlifMaksura: n.UnifyAlifMaksura,
			UnifyYaHamza:     n.UnifyYaHamza,
			UnifyTaMarbuta:   n.UnifyTaMarbuta,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
	}
}

// GetUserConfigPath returns the user config path, honouring XDG_CONFIG_HOME.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ayatsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "ayatsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "ayatsearch", "config.yaml")
}

// GetUserConfigDir returns the directory holding the user config.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether a user config file is present.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds the configuration for dir: defaults, then the user config,
// then the project config in dir, then environment overrides. The result is
// validated.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()
	cfg.baseDir = dir

	if UserConfigExists() {
		if err := cfg.loadYAML(GetUserConfigPath()); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ProjectConfigName is the file `config init` writes.
const ProjectConfigName = ".ayatsearch.yaml"

// ProjectConfigPath returns the project config file in dir, preferring
// .yaml over .yml, or "" if there is none.
func ProjectConfigPath(dir string) string {
	for _, name := range projectConfigNames {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// loadFromFile layers the project config from dir.
func (c *Config) loadFromFile(dir string) error {
	if path := ProjectConfigPath(dir); path != "" {
		return c.loadYAML(path)
	}
	return nil
}

// loadYAML decodes path over c. Keys absent from the file keep their
// current values, so explicit zeros and false are honoured.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		code := aerrors.ErrCodeFileNotFound
		if os.IsPermission(err) {
			code = aerrors.ErrCodeFilePermission
		}
		return aerrors.New(code, "failed to read config file", err).WithDetail("path", path)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return aerrors.New(aerrors.ErrCodeConfigInvalid, "failed to parse config file", err).
			WithDetail("path", path).
			WithSuggestion("Check the YAML syntax; `ayatsearch config init` writes a commented template")
	}

	c.Sources = append(c.Sources, path)
	return nil
}

// applyEnvOverrides applies AYATSEARCH_* variables. Empty variables are
// ignored; unparseable ones are an error.
func (c *Config) applyEnvOverrides() error {
	floats := []struct {
		name string
		dst  *float64
	}{
		{"AYATSEARCH_FUZZINESS", &c.Search.Fuzziness},
		{"AYATSEARCH_MIN_SIMILARITY", &c.Search.MinSimilarity},
		{"AYATSEARCH_ACCEPTANCE_THRESHOLD", &c.Search.AcceptanceThreshold},
		{"AYATSEARCH_LEXICAL_CONFIDENCE", &c.Search.LexicalConfidence},
		{"AYATSEARCH_SEMANTIC_CONFIDENCE", &c.Search.SemanticConfidence},
	}
	for _, f := range floats {
		v := os.Getenv(f.name)
		if v == "" {
			continue
		}
		parsed, err := parseFloat64(v)
		if err != nil {
			return aerrors.New(aerrors.ErrCodeConfigInvalid, "invalid value for "+f.name, err).
				WithDetail("value", v)
		}
		*f.dst = parsed
	}

	if v := os.Getenv("AYATSEARCH_CORPUS"); v != "" {
		c.Corpus.Path = v
	}
	if v := os.Getenv("AYATSEARCH_RULES"); v != "" {
		c.Normalizer.RulesFile = v
	}
	if v := os.Getenv("AYATSEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("AYATSEARCH_VECTOR_BACKEND"); v != "" {
		c.Search.VectorBackend = v
	}
	return nil
}

func parseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return aerrors.Newf(aerrors.ErrCodeConfigInvalid, "unsupported config version %d", c.Version)
	}
	if err := c.Search.Config.Validate(); err != nil {
		return err
	}
	if c.Search.MaxResults <= 0 {
		return aerrors.Newf(aerrors.ErrCodeConfigInvalid, "search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Corpus.Chapter < 0 {
		return aerrors.Newf(aerrors.ErrCodeConfigInvalid, "corpus.chapter must not be negative, got %d", c.Corpus.Chapter)
	}
	if c.Server.Transport != "stdio" {
		return aerrors.Newf(aerrors.ErrCodeConfigInvalid, "server.transport must be stdio, got %q", c.Server.Transport)
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return aerrors.Newf(aerrors.ErrCodeConfigInvalid,
			"server.log_level must be debug, info, warn or error, got %q", c.Server.LogLevel)
	}
	if _, err := c.Watch.DebounceDuration(); err != nil {
		return aerrors.New(aerrors.ErrCodeConfigInvalid, "invalid watch.debounce", err)
	}
	return nil
}

// DebounceDuration parses Watch.Debounce. Empty means no debouncing.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	if w.Debounce == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", w.Debounce)
	}
	return d, nil
}

// SearchConfig returns the engine configuration.
func (c *Config) SearchConfig() search.Config {
	return c.Search.Config
}

// NormalizerOptions loads the configured rules (or the built-in ones) and
// returns the normalizer options.
func (c *Config) NormalizerOptions() (normalize.Options, error) {
	opts := normalize.Options{
		RuleSet:          normalize.DefaultRuleSet(),
		UnifyAlifMaksura: c.Normalizer.UnifyAlifMaksura,
		UnifyYaHamza:     c.Normalizer.UnifyYaHamza,
		UnifyTaMarbuta:   c.Normalizer.UnifyTaMarbuta,
	}
	if path := c.RulesPath(); path != "" {
		rules, err := normalize.LoadRuleSet(path)
		if err != nil {
			return normalize.Options{}, err
		}
		opts.RuleSet = rules
	}
	return opts, nil
}

// CorpusPath returns the corpus path resolved against the project directory.
func (c *Config) CorpusPath() string {
	return c.resolve(c.Corpus.Path)
}

// RulesPath returns the rules file path resolved against the project
// directory, or "" for the built-in rules.
func (c *Config) RulesPath() string {
	return c.resolve(c.Normalizer.RulesFile)
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.baseDir == "" {
		return path
	}
	return filepath.Join(c.baseDir, path)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return aerrors.New(aerrors.ErrCodeInternal, "failed to marshal config", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return aerrors.New(aerrors.ErrCodeFilePermission, "failed to write config file", err).
			WithDetail("path", path)
	}

	return nil
}

// FindProjectRoot walks up from startDir to the nearest directory holding a
// project config file. If none is found, the absolute startDir is returned.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		for _, name := range projectConfigNames {
			if fileExists(filepath.Join(currentDir, name)) {
				return currentDir, nil
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
