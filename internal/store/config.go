package store

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Credentials are loaded once at startup from the environment and never
// logged. Every field is required; a missing one is fatal before any request
// is served.
type Credentials struct {
	AccessKey string `envconfig:"UPBIT_OPEN_API_ACCESS_KEY" required:"true"`
	SecretKey string `envconfig:"UPBIT_OPEN_API_SECRET_KEY" required:"true"`
	ServerURL string `envconfig:"UPBIT_OPEN_API_SERVER_URL" required:"true"`
	OpenAIKey string `envconfig:"CHATGPT_KEY" required:"true"`
}

// LoadCredentials reads the exchange and advisory credentials from the
// environment.
func LoadCredentials() (*Credentials, error) {
	var creds Credentials
	if err := envconfig.Process("", &creds); err != nil {
		return nil, fmt.Errorf("credential processing failed: %w", err)
	}
	return &creds, nil
}

// Duration decodes yaml values like "30s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Listen       string   `yaml:"listen"`
	PublicAPIURL string   `yaml:"public_api_url"`
	HTTPTimeout  Duration `yaml:"http_timeout"`
	CandleCount  int      `yaml:"candle_count"`
	DepthLevel   int      `yaml:"depth_level"`
	LLM          struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"llm"`
}

func (c *Config) Validate() error {
	if c.LLM.Provider != "OPENAI" && c.LLM.Provider != "NOOP" {
		return fmt.Errorf("invalid llm.provider '%s': must be 'OPENAI' or 'NOOP'", c.LLM.Provider)
	}
	if c.CandleCount <= 0 || c.CandleCount > 200 {
		return fmt.Errorf("candle_count must be between 1-200, got %d", c.CandleCount)
	}
	if c.DepthLevel <= 0 {
		return fmt.Errorf("depth_level must be positive, got %d", c.DepthLevel)
	}
	return nil
}

// DefaultConfig returns the configuration used when no config file is
// present.
func DefaultConfig() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.PublicAPIURL == "" {
		c.PublicAPIURL = "https://api.upbit.com"
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = Duration(30 * time.Second)
	}
	if c.CandleCount == 0 {
		c.CandleCount = 10
	}
	if c.DepthLevel == 0 {
		c.DepthLevel = 10
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "OPENAI"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-3.5-turbo"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2000
	}
}
