package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dca-backtest/internal/model"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Instrument is used by every run that does not name its own.
	Instrument string `yaml:"instrument"`
	Start      string `yaml:"start"`
	End        string `yaml:"end"`

	Data   DataConfig   `yaml:"data"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`

	// Defaults is merged under every entry of Runs.
	Defaults RunConfig   `yaml:"defaults"`
	Runs     []RunConfig `yaml:"runs"`
}

type DataConfig struct {
	Provider string `yaml:"provider"` // csv, json, nav or yahoo
	Dir      string `yaml:"dir"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	// RateLimit is requests per second against the NAV service; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	CacheTTL  string  `yaml:"cache_ttl"`
}

type OutputConfig struct {
	CSVDir     string `yaml:"csv_dir"`
	SQLite     string `yaml:"sqlite"`
	Table      bool   `yaml:"table"`
	TradesOnly bool   `yaml:"trades_only"`
	// Currency is an ISO 4217 code used to format amounts in console output.
	Currency string `yaml:"currency"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RunConfig is one named strategy run. Zero fields inherit from Defaults.
type RunConfig struct {
	Name          string                `yaml:"name" json:"name"`
	Instrument    string                `yaml:"instrument" json:"instrument,omitempty"`
	Start         string                `yaml:"start" json:"start,omitempty"`
	End           string                `yaml:"end" json:"end,omitempty"`
	Frequency     string                `yaml:"frequency" json:"frequency,omitempty"`
	Funding       string                `yaml:"funding" json:"funding,omitempty"`
	TotalBudget   float64               `yaml:"total_budget" json:"total_budget,omitempty"`
	BaseAmount    float64               `yaml:"base_amount" json:"base_amount,omitempty"`
	DailyCashRate float64               `yaml:"daily_cash_rate" json:"daily_cash_rate,omitempty"`
	Sizing        model.SizingSpec      `yaml:"sizing" json:"sizing"`
	Liquidation   model.LiquidationSpec `yaml:"liquidation" json:"liquidation"`
}

// Providers accepted in data.provider.
var Providers = []string{"csv", "json", "nav", "yahoo"}

// LoadEnv reads a .env file from the working directory when present.
func LoadEnv() {
	_ = godotenv.Load()
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads the file, applies defaults and environment overrides,
// but does not validate it. Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse is LoadUnchecked on in-memory YAML.
func Parse(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	c.setDefaults()
	c.applyEnv()
	return &c, nil
}

func (c *Config) setDefaults() {
	if c.Data.Provider == "" {
		c.Data.Provider = "csv"
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "./data"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Defaults.Frequency == "" {
		c.Defaults.Frequency = "D"
	}
	if c.Defaults.Funding == "" {
		c.Defaults.Funding = string(model.FundingBudget)
	}
	if c.Defaults.Sizing.Name == "" {
		c.Defaults.Sizing.Name = "fixed"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("NAV_API_KEY"); v != "" {
		c.Data.APIKey = v
	}
	if v := os.Getenv("NAV_BASE_URL"); v != "" {
		c.Data.BaseURL = v
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if !contains(Providers, c.Data.Provider) {
		return fmt.Errorf("data.provider %q is not one of %s", c.Data.Provider, strings.Join(Providers, ", "))
	}
	if c.Data.Provider == "nav" && c.Data.BaseURL == "" {
		return errors.New("data.base_url is required for the nav provider")
	}
	if _, err := c.Data.TTL(); err != nil {
		return err
	}
	if c.Data.RateLimit < 0 {
		return errors.New("data.rate_limit must be >= 0")
	}
	seen := map[string]bool{}
	for _, r := range c.Runs {
		if seen[r.Name] {
			return fmt.Errorf("duplicate run name %q", r.Name)
		}
		seen[r.Name] = true
	}
	if _, err := c.StrategyConfigs(); err != nil {
		return err
	}
	return nil
}

// TTL parses data.cache_ttl. Empty means no cache.
func (d DataConfig) TTL() (time.Duration, error) {
	if d.CacheTTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(d.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("data.cache_ttl: %w", err)
	}
	if ttl < 0 {
		return 0, errors.New("data.cache_ttl must be >= 0")
	}
	return ttl, nil
}

// RunList returns Runs, or a single run named "default" built from Defaults
// when none are configured.
func (c *Config) RunList() []RunConfig {
	if len(c.Runs) > 0 {
		return c.Runs
	}
	return []RunConfig{{Name: "default"}}
}

// StrategyConfigs resolves every run into an engine configuration.
func (c *Config) StrategyConfigs() ([]model.StrategyConfig, error) {
	runs := c.RunList()
	out := make([]model.StrategyConfig, 0, len(runs))
	for i, r := range runs {
		sc, err := c.Resolve(r)
		if err != nil {
			name := r.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("run %s: %w", name, err)
		}
		out = append(out, sc)
	}
	return out, nil
}

// StrategyConfig resolves the run with the given name.
func (c *Config) StrategyConfig(name string) (model.StrategyConfig, error) {
	for _, r := range c.RunList() {
		if r.Name == name {
			return c.Resolve(r)
		}
	}
	return model.StrategyConfig{}, fmt.Errorf("unknown run %q", name)
}

// Resolve merges run over the top-level defaults and validates the result.
func (c *Config) Resolve(run RunConfig) (model.StrategyConfig, error) {
	base := c.Defaults
	if base.Instrument == "" {
		base.Instrument = c.Instrument
	}
	if base.Start == "" {
		base.Start = c.Start
	}
	if base.End == "" {
		base.End = c.End
	}
	return MergeRun(base, run).ToStrategyConfig()
}

// ToStrategyConfig converts a fully merged run into the engine's input.
func (r RunConfig) ToStrategyConfig() (model.StrategyConfig, error) {
	if r.Name == "" {
		return model.StrategyConfig{}, errors.New("name is required")
	}
	if r.Instrument == "" {
		return model.StrategyConfig{}, errors.New("instrument is required")
	}
	start, err := parseDay("start", r.Start)
	if err != nil {
		return model.StrategyConfig{}, err
	}
	end, err := parseDay("end", r.End)
	if err != nil {
		return model.StrategyConfig{}, err
	}
	sc := model.StrategyConfig{
		Name:          r.Name,
		InstrumentID:  r.Instrument,
		Start:         start,
		End:           end,
		Frequency:     r.Frequency,
		Funding:       model.Funding(strings.ToLower(r.Funding)),
		TotalBudget:   r.TotalBudget,
		BaseAmount:    r.BaseAmount,
		DailyCashRate: r.DailyCashRate,
		Sizing:        r.Sizing,
		Liquidation:   r.Liquidation,
	}
	if err := sc.Validate(); err != nil {
		return model.StrategyConfig{}, err
	}
	return sc, nil
}

func parseDay(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected YYYY-MM-DD, got %q", field, s)
	}
	return t, nil
}

// MergeRun overlays non-zero fields from override onto base.
// Sizing params are merged key by key when both name the same policy.
func MergeRun(base, override RunConfig) RunConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Instrument != "" {
		out.Instrument = override.Instrument
	}
	if override.Start != "" {
		out.Start = override.Start
	}
	if override.End != "" {
		out.End = override.End
	}
	if override.Frequency != "" {
		out.Frequency = override.Frequency
	}
	if override.Funding != "" {
		out.Funding = override.Funding
	}
	if override.TotalBudget != 0 {
		out.TotalBudget = override.TotalBudget
	}
	if override.BaseAmount != 0 {
		out.BaseAmount = override.BaseAmount
	}
	// Note: a zero daily rate cannot override a non-zero default.
	if override.DailyCashRate != 0 {
		out.DailyCashRate = override.DailyCashRate
	}
	if override.Sizing.Name != "" {
		params := map[string]float64{}
		if strings.EqualFold(override.Sizing.Name, base.Sizing.Name) {
			for k, v := range base.Sizing.Params {
				params[k] = v
			}
		}
		for k, v := range override.Sizing.Params {
			params[k] = v
		}
		out.Sizing = model.SizingSpec{Name: override.Sizing.Name, Params: params}
	}
	if override.Liquidation.Preset != "" || len(override.Liquidation.Tiers) > 0 {
		out.Liquidation.Preset = override.Liquidation.Preset
		out.Liquidation.Tiers = override.Liquidation.Tiers
	}
	if override.Liquidation.OncePerMonth {
		out.Liquidation.OncePerMonth = true
	}
	if override.Liquidation.KeepSizing {
		out.Liquidation.KeepSizing = true
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
