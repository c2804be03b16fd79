package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Warehouse configures the local warehouse store backing task and
// execution records.
type Warehouse struct {
	Path     string `yaml:"path"`
	Database string `yaml:"database"`
	Schema   string `yaml:"schema"`
}

// Bedrock configures the AWS Bedrock model provider.
type Bedrock struct {
	Region          string `yaml:"region"`
	ModelID         string `yaml:"model_id"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Cortex configures AI model routing: the default model, ordered
// fallbacks, and provider endpoints.
type Cortex struct {
	DefaultModel   string   `yaml:"default_model"`
	FallbackModels []string `yaml:"fallback_models"`
	MaxTokens      int      `yaml:"max_tokens"`
	Temperature    float64  `yaml:"temperature"`
	APIURL         string   `yaml:"api_url"`
	APIKey         string   `yaml:"api_key"`
	Bedrock        Bedrock  `yaml:"bedrock"`
}

// RateLimit bounds how many requests one user may submit per window.
type RateLimit struct {
	Window      time.Duration `yaml:"window"`
	MaxRequests int           `yaml:"max_requests"`
}

// Security holds the corporate policy knobs enforced by the compliance
// manager.
type Security struct {
	EnableAuditLogging  bool          `yaml:"enable_audit_logging"`
	AuditRejections     bool          `yaml:"audit_rejections"`
	RequireUserApproval bool          `yaml:"require_user_approval"`
	MaxExecutionTime    time.Duration `yaml:"max_execution_time"`
	AllowedDomains      []string      `yaml:"allowed_domains"`
	RestrictedKeywords  []string      `yaml:"restricted_keywords"`
	RateLimit           RateLimit     `yaml:"rate_limit"`
}

// Containers configures the sandboxed tool services agents may reach.
type Containers struct {
	BrowserServiceURL  string `yaml:"browser_service_url"`
	DocumentServiceURL string `yaml:"document_service_url"`
	MaxConcurrent      int    `yaml:"max_concurrent"`
}

// Audit configures the tamper-evident interaction log.
type Audit struct {
	LogPath string `yaml:"log_path"`
}

// Config is the full opendelek configuration.
type Config struct {
	Warehouse  Warehouse  `yaml:"warehouse"`
	Cortex     Cortex     `yaml:"cortex"`
	Security   Security   `yaml:"security"`
	Containers Containers `yaml:"containers"`
	Audit      Audit      `yaml:"audit"`
}

// DefaultDir returns the opendelek configuration directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "opendelek")
	}
	return filepath.Join(home, ".opendelek")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	dir := DefaultDir()
	return &Config{
		Warehouse: Warehouse{
			Path:     filepath.Join(dir, "warehouse.db"),
			Database: "CORPORATE_DELEK_AI",
			Schema:   "CORE_SERVICES",
		},
		Cortex: Cortex{
			DefaultModel:   "claude-sonnet-4",
			FallbackModels: []string{"claude-opus-4", "gpt-4o", "llama3-70b"},
			MaxTokens:      4096,
			Temperature:    0,
		},
		Security: Security{
			EnableAuditLogging:  true,
			AuditRejections:     true,
			RequireUserApproval: false,
			MaxExecutionTime:    300 * time.Second,
			AllowedDomains:      []string{"*.company.com", "trusted-partner.com"},
			RestrictedKeywords:  []string{"confidential", "secret", "classified", "proprietary"},
			RateLimit: RateLimit{
				Window:      time.Minute,
				MaxRequests: 30,
			},
		},
		Containers: Containers{
			MaxConcurrent: 10,
		},
		Audit: Audit{
			LogPath: filepath.Join(dir, "audit.jsonl"),
		},
	}
}

// Load reads configuration from a YAML file. Empty path falls back to
// ~/.opendelek/config.yaml. Missing file returns defaults. Invalid YAML
// returns an error.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithHash(path)
	return cfg, err
}

// LoadWithHash loads configuration and returns the SHA-256 hash of the
// raw YAML bytes on disk. The hash is recorded into every audit entry
// so the trail pins the policy that produced each decision. When no
// file exists (defaults used), the hash is the SHA-256 of empty input.
func LoadWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256(nil)
			return Default(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		return nil, "", fmt.Errorf("config: read %s: %w", path, err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, hash, nil
}

// DefaultYAML returns a commented YAML string written by `opendelek init`.
func DefaultYAML() string {
	return `# opendelek configuration
# Generated by: opendelek init

# Local warehouse store for task and execution records.
warehouse:
  database: CORPORATE_DELEK_AI
  schema: CORE_SERVICES

# AI model routing. The default model is tried first, then each
# fallback in order. api_url points at an OpenAI-compatible endpoint;
# the bedrock section enables AWS Bedrock as an additional provider.
cortex:
  default_model: claude-sonnet-4
  fallback_models: [claude-opus-4, gpt-4o, llama3-70b]
  max_tokens: 4096
  temperature: 0
  # api_url: http://localhost:11434/v1/chat/completions
  # api_key: ""
  # bedrock:
  #   region: us-east-1
  #   model_id: anthropic.claude-sonnet-4-20250514-v1:0

# Corporate policy enforced before any request executes.
security:
  enable_audit_logging: true
  audit_rejections: true
  require_user_approval: false
  max_execution_time: 300s
  allowed_domains:
    - "*.company.com"
    - trusted-partner.com
  restricted_keywords:
    - confidential
    - secret
    - classified
    - proprietary
  rate_limit:
    window: 1m
    max_requests: 30

# Sandboxed tool services. Leave URLs empty to disable a service.
containers:
  # browser_service_url: http://localhost:8080
  # document_service_url: http://localhost:8081
  max_concurrent: 10

# Hash-chained interaction log.
audit:
  log_path: ""
`
}
