package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/weave/internal/errors"
)

const (
	// ConfigFileName is the name of the default configuration file.
	ConfigFileName = "weave.json"

	// DefaultAddr is the default preview server address.
	DefaultAddr = "localhost:3000"

	// DefaultCacheSize is the default compiled expression cache capacity.
	DefaultCacheSize = 1024

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "weave"

	// DefaultTemplatesDir is the default template directory.
	DefaultTemplatesDir = "templates"
)

// ConfigFileNames lists the file names Load looks for, in order.
var ConfigFileNames = []string{"weave.json", "weave.yaml", "weave.yml", "weave.toml"}

// Config represents the weave configuration file.
type Config struct {
	// ExpressionCacheSize bounds the compiled expression cache.
	ExpressionCacheSize int `json:"expressionCacheSize,omitempty" yaml:"expressionCacheSize,omitempty" toml:"expressionCacheSize,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty" toml:"logLevel,omitempty"`

	// Server contains preview server configuration.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty" toml:"server,omitempty"`

	// Metrics contains metrics configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty" toml:"metrics,omitempty"`

	// Templates contains template source configuration.
	Templates TemplatesConfig `json:"templates,omitempty" yaml:"templates,omitempty" toml:"templates,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains preview server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" toml:"addr,omitempty"`

	// AllowedOrigins are the origins accepted for websocket connections.
	// Empty means same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty" toml:"allowedOrigins,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics on the preview server.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty" toml:"enabled,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
}

// TemplatesConfig says where templates are loaded from.
type TemplatesConfig struct {
	// Dir is the local template directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty"`

	// S3 configures loading templates from a bucket.
	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty" toml:"s3,omitempty"`
}

// S3Config locates templates in S3.
type S3Config struct {
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty" toml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty" toml:"prefix,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty" toml:"region,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	enabled := true
	return &Config{
		ExpressionCacheSize: DefaultCacheSize,
		LogLevel:            DefaultLogLevel,
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		Metrics: MetricsConfig{
			Enabled:   &enabled,
			Namespace: DefaultNamespace,
		},
		Templates: TemplatesConfig{
			Dir: DefaultTemplatesDir,
		},
	}
}

// Load reads configuration from the first of ConfigFileNames present in
// dir.
func Load(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from path. The format follows the file
// extension: .yaml/.yml, .toml, or JSON for anything else.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("W121").
				WithDetail("No configuration file found at " + path).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use defaults").
				Wrap(err)
		}
		return nil, errors.New("W121").Wrap(err)
	}

	cfg := New()
	if err := decode(path, data, cfg); err != nil {
		return nil, errors.New("W120").
			WithDetail(fmt.Sprintf("Failed to parse %s: %v", filepath.Base(path), err)).
			WithSuggestion("Check that the file is valid " + formatName(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch formatName(path) {
	case "YAML":
		return yaml.Unmarshal(data, cfg)
	case "TOML":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return json.Unmarshal(data, cfg)
	}
}

func formatName(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "YAML"
	case ".toml":
		return "TOML"
	default:
		return "JSON"
	}
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format its extension
// names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch formatName(path) {
	case "YAML":
		data, err = yaml.Marshal(c)
	case "TOML":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("W120").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("W121").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.ExpressionCacheSize == 0 {
		c.ExpressionCacheSize = DefaultCacheSize
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LogLevel = strings.ToLower(c.LogLevel)

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}

	if c.Metrics.Enabled == nil {
		enabled := true
		c.Metrics.Enabled = &enabled
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}

	if c.Templates.Dir == "" {
		c.Templates.Dir = DefaultTemplatesDir
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ExpressionCacheSize < 0 {
		return errors.New("W122").
			WithDetail(fmt.Sprintf("expressionCacheSize must be positive, got %d", c.ExpressionCacheSize))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("W122").
			WithDetail(fmt.Sprintf("logLevel %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if _, port, ok := strings.Cut(c.Server.Addr, ":"); !ok || port == "" {
		return errors.New("W122").
			WithDetail(fmt.Sprintf("server.addr %q must be host:port", c.Server.Addr))
	}
	if c.Templates.S3.Bucket != "" && c.Templates.S3.Region == "" {
		return errors.New("W122").
			WithDetail("templates.s3.region is required when templates.s3.bucket is set")
	}
	return nil
}

// MetricsEnabled reports whether /metrics is served.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}

// TemplatesPath returns the absolute path to the template directory.
func (c *Config) TemplatesPath() string {
	if filepath.IsAbs(c.Templates.Dir) {
		return c.Templates.Dir
	}
	return filepath.Join(c.Dir(), c.Templates.Dir)
}

// HasS3 reports whether templates may be loaded from S3.
func (c *Config) HasS3() bool {
	return c.Templates.S3.Bucket != ""
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("W121").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the working directory or
// its nearest ancestor that has one. Without any file, defaults are
// returned.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}

	return Load(root)
}
