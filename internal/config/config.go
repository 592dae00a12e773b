package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SchemaVersion = 1
	EnvConfigPath = "EVENTS_CONFIG"
)

var ErrNoDefaultProfile = errors.New("profile is required and default_profile is not configured")

// Profile is the console selection a command runs against: one workspace of
// one project, and the integration whose client id is sent as x-api-key.
type Profile struct {
	OrgID         string `yaml:"org_id"`
	OrgCode       string `yaml:"org_code"`
	OrgName       string `yaml:"org_name,omitempty"`
	ProjectID     string `yaml:"project_id,omitempty"`
	ProjectName   string `yaml:"project_name,omitempty"`
	WorkspaceID   string `yaml:"workspace_id,omitempty"`
	WorkspaceName string `yaml:"workspace_name,omitempty"`
	IntegrationID string `yaml:"integration_id,omitempty"`
	ClientID      string `yaml:"client_id"`
	BaseURL       string `yaml:"base_url,omitempty"`
	TokenRef      string `yaml:"token_ref,omitempty"`
}

type Config struct {
	SchemaVersion  int                `yaml:"schema_version"`
	DefaultProfile string             `yaml:"default_profile,omitempty"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// DefaultPath honours EVENTS_CONFIG and otherwise uses ~/.events/config.yaml.
func DefaultPath() (string, error) {
	if override := strings.TrimSpace(os.Getenv(EnvConfigPath)); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home directory: %w", err)
	}
	return filepath.Join(home, ".events", "config.yaml"), nil
}

func New() *Config {
	return &Config{
		SchemaVersion: SchemaVersion,
		Profiles:      map[string]Profile{},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: config file does not exist at %s", os.ErrNotExist, path)
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := &Config{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadOrCreate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return New(), nil
}

// Save writes the config through a temp file so a crash never leaves a
// truncated file behind.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory for %s: %w", path, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported config schema_version=%d (expected %d)", c.SchemaVersion, SchemaVersion)
	}
	if c.Profiles == nil {
		return errors.New("config profiles map is required")
	}
	for name, profile := range c.Profiles {
		if err := validateProfile(name, profile); err != nil {
			return err
		}
	}
	if c.DefaultProfile != "" {
		if _, ok := c.Profiles[c.DefaultProfile]; !ok {
			return fmt.Errorf("default_profile %q does not exist", c.DefaultProfile)
		}
	}
	return nil
}

func (c *Config) ResolveProfile(name string) (string, Profile, error) {
	if c == nil {
		return "", Profile{}, errors.New("config is nil")
	}
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" {
		return "", Profile{}, ErrNoDefaultProfile
	}
	profile, ok := c.Profiles[name]
	if !ok {
		return "", Profile{}, fmt.Errorf("profile %q does not exist", name)
	}
	return name, profile, nil
}

func (c *Config) UpsertProfile(name string, profile Profile) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Profiles == nil {
		c.Profiles = map[string]Profile{}
	}
	if err := validateProfile(name, profile); err != nil {
		return err
	}

	c.Profiles[name] = profile
	if c.DefaultProfile == "" {
		c.DefaultProfile = name
	}
	return nil
}

func (c *Config) DeleteProfile(name string) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q does not exist", name)
	}
	delete(c.Profiles, name)
	if c.DefaultProfile == name {
		c.DefaultProfile = ""
	}
	return nil
}

// HasWorkspace reports whether workspace-scoped commands can run.
func (p Profile) HasWorkspace() bool {
	return p.ProjectID != "" && p.WorkspaceID != ""
}

func validateProfile(name string, profile Profile) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("profile name cannot be empty")
	}
	if profile.OrgID == "" {
		return fmt.Errorf("profile %q org_id is required", name)
	}
	if profile.OrgCode == "" {
		return fmt.Errorf("profile %q org_code is required", name)
	}
	if profile.ClientID == "" {
		return fmt.Errorf("profile %q client_id is required", name)
	}
	if (profile.ProjectID == "") != (profile.WorkspaceID == "") {
		return fmt.Errorf("profile %q must set project_id and workspace_id together", name)
	}
	return nil
}
