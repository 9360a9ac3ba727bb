package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const envPrefix = "CRYPTOLAB_"

// Config captures the cryptolab configuration resolved from defaults, optional
// files, and environment overrides.
type Config struct {
	HTTPAddr   string         `yaml:"http_addr"`
	GRPCAddr   string         `yaml:"grpc_addr"`
	AuthToken  string         `yaml:"auth_token"`
	RecipesDir string         `yaml:"recipes_dir"`
	AuditLog   string         `yaml:"audit_log"`
	Analysis   AnalysisConfig `yaml:"analysis"`
}

// AnalysisConfig bounds the work a single request may ask of the analysers.
type AnalysisConfig struct {
	// MaxInputBytes caps ciphertext accepted by the daemons. Coincidence
	// counting is quadratic in the input length.
	MaxInputBytes int `yaml:"max_input_bytes"`
	// Workers caps brute-force parallelism; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPAddr:   "127.0.0.1:8740",
		GRPCAddr:   "127.0.0.1:8741",
		AuthToken:  "",
		RecipesDir: defaultRecipesDir(),
		AuditLog:   "",
		Analysis: AnalysisConfig{
			MaxInputBytes: 32 * 1024,
			Workers:       0,
		},
	}
}

func defaultRecipesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cryptolab", "recipes")
	}
	return filepath.Join(home, ".cryptolab", "recipes")
}

// Load resolves the configuration. Files are applied in order, later ones
// overriding earlier ones:
//  1. ~/.cryptolab/config.yaml
//  2. ./cryptolab.yml
//
// Environment variables prefixed with CRYPTOLAB_ have the highest precedence.
func Load() (Config, error) {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		if err := applyFile(&cfg, filepath.Join(home, ".cryptolab", "config.yaml")); err != nil {
			return Config{}, err
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("determine working directory: %w", err)
	}
	if err := applyFile(&cfg, filepath.Join(wd, "cryptolab.yml")); err != nil {
		return Config{}, err
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadFile resolves the configuration from defaults, the file at path (which
// must exist), and environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyYAML(&cfg, data); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the daemons cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" && strings.TrimSpace(c.GRPCAddr) == "" {
		return errors.New("at least one of http_addr or grpc_addr must be set")
	}
	if c.Analysis.MaxInputBytes <= 0 {
		return fmt.Errorf("analysis.max_input_bytes must be positive, got %d", c.Analysis.MaxInputBytes)
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must not be negative, got %d", c.Analysis.Workers)
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyYAML(cfg, data); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

type fileConfig struct {
	HTTPAddr   *string             `yaml:"http_addr"`
	GRPCAddr   *string             `yaml:"grpc_addr"`
	AuthToken  *string             `yaml:"auth_token"`
	RecipesDir *string             `yaml:"recipes_dir"`
	AuditLog   *string             `yaml:"audit_log"`
	Analysis   *fileAnalysisConfig `yaml:"analysis"`
}

type fileAnalysisConfig struct {
	MaxInputBytes *int `yaml:"max_input_bytes"`
	Workers       *int `yaml:"workers"`
}

func applyYAML(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.GRPCAddr, fc.GRPCAddr)
	setString(&cfg.AuthToken, fc.AuthToken)
	setString(&cfg.RecipesDir, fc.RecipesDir)
	setString(&cfg.AuditLog, fc.AuditLog)
	if fc.Analysis != nil {
		if fc.Analysis.MaxInputBytes != nil {
			cfg.Analysis.MaxInputBytes = *fc.Analysis.MaxInputBytes
		}
		if fc.Analysis.Workers != nil {
			cfg.Analysis.Workers = *fc.Analysis.Workers
		}
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"HTTP_ADDR":   &cfg.HTTPAddr,
		"GRPC_ADDR":   &cfg.GRPCAddr,
		"AUTH_TOKEN":  &cfg.AuthToken,
		"RECIPES_DIR": &cfg.RecipesDir,
		"AUDIT_LOG":   &cfg.AuditLog,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"MAX_INPUT_BYTES": &cfg.Analysis.MaxInputBytes,
		"WORKERS":         &cfg.Analysis.Workers,
	}
	for name, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}
	return nil
}

// Marshal renders cfg as YAML with the auth token masked.
func Marshal(cfg Config) ([]byte, error) {
	if cfg.AuthToken != "" {
		cfg.AuthToken = "********"
	}
	return yaml.Marshal(cfg)
}
