package agents

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lexcodex/swarmcouncil/agents/pattern"
	"github.com/lexcodex/swarmcouncil/llm"
)

const configDirName = "council_cfg"

// ConfigDir returns the workspace-local configuration directory.
func ConfigDir(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, configDirName)
}

// DefaultConfigPath returns council_cfg/config.yaml within the workspace.
func DefaultConfigPath(workspace string) string {
	return filepath.Join(ConfigDir(workspace), "config.yaml")
}

// DefaultAgentPaths returns the canonical persona search paths.
func DefaultAgentPaths(workspace string) []string {
	return []string{filepath.Join(ConfigDir(workspace), "agents")}
}

// Config matches council_cfg/config.yaml. Every key can be overridden from
// the environment with the COUNCIL_ prefix (dots become underscores);
// OPENROUTER_API_KEY is accepted for api_key.
type Config struct {
	APIKey         string         `mapstructure:"api_key"`
	BaseURL        string         `mapstructure:"base_url"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	Temperature    float64        `mapstructure:"temperature"`
	SynthesisModel string         `mapstructure:"synthesis_model"`
	AgentPaths     []string       `mapstructure:"agent_paths"`
	Tokens         TokenConfig    `mapstructure:"tokens"`
	Pipeline       PipelineConfig `mapstructure:"pipeline"`
	Logging        LoggingConfig  `mapstructure:"logging"`
	Metrics        MetricsConfig  `mapstructure:"metrics"`
}

// TokenConfig caps output tokens per stage.
type TokenConfig struct {
	Exploration int `mapstructure:"exploration"`
	Review      int `mapstructure:"review"`
	Synthesis   int `mapstructure:"synthesis"`
	Proposal    int `mapstructure:"proposal"`
}

// PipelineConfig controls stage execution.
type PipelineConfig struct {
	Parallel          bool    `mapstructure:"parallel"`
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	SkipReview        bool    `mapstructure:"skip_review"`
	RankingPolicy     string  `mapstructure:"ranking_policy"`
	ProposalFallback  bool    `mapstructure:"proposal_fallback"`
}

// LoggingConfig describes log output.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	TraceFile string `mapstructure:"trace_file"`
	LLMDebug  bool   `mapstructure:"llm_debug"`
}

// MetricsConfig exposes Prometheus metrics when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper, workspace string) {
	v.SetDefault("base_url", llm.DefaultBaseURL)
	v.SetDefault("timeout", llm.DefaultTimeout)
	v.SetDefault("temperature", llm.DefaultTemperature)
	v.SetDefault("synthesis_model", pattern.DefaultSynthesisModel)
	v.SetDefault("agent_paths", DefaultAgentPaths(workspace))
	v.SetDefault("tokens.exploration", 2000)
	v.SetDefault("tokens.review", 2000)
	v.SetDefault("tokens.synthesis", 4000)
	v.SetDefault("tokens.proposal", 2000)
	v.SetDefault("pipeline.parallel", false)
	v.SetDefault("pipeline.max_concurrent", 5)
	v.SetDefault("pipeline.requests_per_second", 0)
	v.SetDefault("pipeline.skip_review", false)
	v.SetDefault("pipeline.ranking_policy", string(pattern.RankingLog))
	v.SetDefault("pipeline.proposal_fallback", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.trace_file", "")
	v.SetDefault("logging.llm_debug", false)
	v.SetDefault("metrics.addr", "")
}

// LoadConfig reads path (missing is fine), applies environment overrides and
// validates the result.
func LoadConfig(path, workspace string) (*Config, error) {
	v, err := newViper(path, workspace)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EffectiveSettings returns the merged defaults, file values and environment
// overrides as a nested map keyed like config.yaml.
func EffectiveSettings(path, workspace string) (map[string]interface{}, error) {
	v, err := newViper(path, workspace)
	if err != nil {
		return nil, err
	}
	return v.AllSettings(), nil
}

func newViper(path, workspace string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, workspace)
	v.SetEnvPrefix("COUNCIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", "COUNCIL_API_KEY", "OPENROUTER_API_KEY"); err != nil {
		return nil, err
	}
	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %v", c.Temperature)
	}
	if c.Pipeline.MaxConcurrent < 1 {
		return fmt.Errorf("pipeline.max_concurrent must be at least 1, got %d", c.Pipeline.MaxConcurrent)
	}
	if c.Pipeline.RequestsPerSecond < 0 {
		return fmt.Errorf("pipeline.requests_per_second must not be negative")
	}
	if _, err := pattern.ParseRankingPolicy(c.Pipeline.RankingPolicy); err != nil {
		return err
	}
	for name, n := range map[string]int{
		"exploration": c.Tokens.Exploration,
		"review":      c.Tokens.Review,
		"synthesis":   c.Tokens.Synthesis,
		"proposal":    c.Tokens.Proposal,
	} {
		if n <= 0 {
			return fmt.Errorf("tokens.%s must be positive, got %d", name, n)
		}
	}
	return nil
}

// AgentSearchPaths resolves agent paths for the registry.
func (c *Config) AgentSearchPaths(workspace string) []string {
	if c == nil || len(c.AgentPaths) == 0 {
		return DefaultAgentPaths(workspace)
	}
	resolved := make([]string, 0, len(c.AgentPaths))
	for _, path := range c.AgentPaths {
		resolved = append(resolved, expandPath(path, workspace))
	}
	return resolved
}

// ClientConfig derives the completion transport settings.
func (c *Config) ClientConfig() llm.ClientConfig {
	temperature := c.Temperature
	return llm.ClientConfig{
		BaseURL:           c.BaseURL,
		Timeout:           c.Timeout,
		Temperature:       &temperature,
		RequestsPerSecond: c.Pipeline.RequestsPerSecond,
		Title:             "AI Swarm Council",
	}
}

// RunnerOptions derives the stage runner settings.
func (c *Config) RunnerOptions() pattern.Options {
	policy, _ := pattern.ParseRankingPolicy(c.Pipeline.RankingPolicy)
	return pattern.Options{
		Parallel:      c.Pipeline.Parallel,
		MaxConcurrent: c.Pipeline.MaxConcurrent,
		Tokens: pattern.TokenBudgets{
			Exploration: c.Tokens.Exploration,
			Review:      c.Tokens.Review,
			Synthesis:   c.Tokens.Synthesis,
			Proposal:    c.Tokens.Proposal,
		},
		SynthesisModel:   c.SynthesisModel,
		RankingPolicy:    policy,
		ProposalFallback: c.Pipeline.ProposalFallback,
	}
}

// expandPath resolves ~ and workspace-relative paths into absolute paths while
// leaving already absolute entries untouched.
func expandPath(path, workspace string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if !filepath.IsAbs(path) && workspace != "" {
		return filepath.Join(workspace, path)
	}
	return path
}
