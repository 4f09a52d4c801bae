// Package config holds the YAML-backed runtime configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ExcelConfig bounds what query tools return to the model.
type ExcelConfig struct {
	MaxPreviewRows     int `yaml:"max_preview_rows"`
	DefaultResultLimit int `yaml:"default_result_limit"`
	MaxResultLimit     int `yaml:"max_result_limit"`
}

// LLMConfig configures the model backend. The API key is only read
// from the environment, never from the file.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTurns    int     `yaml:"max_turns"`
	APIKeyEnv   string  `yaml:"api_key_env"`
}

// SkillsConfig controls the router.
type SkillsConfig struct {
	Dir       string  `yaml:"dir"`
	TopK      int     `yaml:"top_k"`
	Threshold float64 `yaml:"threshold"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Debug bool   `yaml:"debug"`
	Dir   string `yaml:"dir"`
}

// Config is the root configuration object. Components receive it
// explicitly; there is no process-global instance.
type Config struct {
	Excel   ExcelConfig   `yaml:"excel"`
	LLM     LLMConfig     `yaml:"llm"`
	Skills  SkillsConfig  `yaml:"skills"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Excel: ExcelConfig{
			MaxPreviewRows:     10,
			DefaultResultLimit: 20,
			MaxResultLimit:     100,
		},
		LLM: LLMConfig{
			Model:       "gemini-2.0-flash",
			Temperature: 0.2,
			MaxTurns:    20,
			APIKeyEnv:   "GEMINI_API_KEY",
		},
		Skills: SkillsConfig{
			Dir:       "skills",
			TopK:      3,
			Threshold: 0.3,
		},
	}
}

// Load reads a YAML file over the defaults. A missing file is not an
// error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	d := Default()
	if c.Excel.MaxPreviewRows <= 0 {
		c.Excel.MaxPreviewRows = d.Excel.MaxPreviewRows
	}
	if c.Excel.DefaultResultLimit <= 0 {
		c.Excel.DefaultResultLimit = d.Excel.DefaultResultLimit
	}
	if c.Excel.MaxResultLimit <= 0 {
		c.Excel.MaxResultLimit = d.Excel.MaxResultLimit
	}
	if c.LLM.Model == "" {
		c.LLM.Model = d.LLM.Model
	}
	if c.LLM.MaxTurns <= 0 {
		c.LLM.MaxTurns = d.LLM.MaxTurns
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = d.LLM.APIKeyEnv
	}
	if c.Skills.Dir == "" {
		c.Skills.Dir = d.Skills.Dir
	}
	if c.Skills.TopK <= 0 {
		c.Skills.TopK = d.Skills.TopK
	}
	if c.Skills.Threshold <= 0 {
		c.Skills.Threshold = d.Skills.Threshold
	}
}

// APIKey resolves the model API key from the configured environment
// variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}
