package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, loaded from the environment with
// an optional .env file on top.
type Config struct {
	// Platform adapters. An empty Discord token simply disables that adapter.
	DiscordToken string `env:"DISCORD_TOKEN"`
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8780"`

	// State and persona.
	DataDir      string `env:"DATA_DIR" envDefault:"data"`
	TuningPath   string `env:"EMOTION_TUNING"`
	IdentityPath string `env:"IDENTITY_PATH"`

	// Local LLM endpoint (OpenAI-compatible).
	LLMEndpoint  string        `env:"LLM_ENDPOINT" envDefault:"http://127.0.0.1:11434"`
	LLMModel     string        `env:"LLM_MODEL" envDefault:"llama3"`
	LLMAPIKey    string        `env:"LLM_API_KEY"`
	LLMTimeout   time.Duration `env:"LLM_TIMEOUT" envDefault:"25s"`
	LLMPerMinute int           `env:"LLM_PER_MINUTE" envDefault:"6"`
	LLMCooldown  time.Duration `env:"LLM_COOLDOWN" envDefault:"5s"`

	// Emotional timing.
	IdleAfter    time.Duration `env:"IDLE_AFTER" envDefault:"10m"`
	NeglectAfter time.Duration `env:"NEGLECT_AFTER" envDefault:"8h"`
	IgnoredAfter time.Duration `env:"IGNORED_AFTER" envDefault:"3h"`

	// Logging.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// StatePath is where the emotional state file lives.
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "emotional_state.json")
}

// Identity returns the persona text: the file at IdentityPath when set,
// otherwise a built-in default.
func (c *Config) Identity() string {
	if c.IdentityPath != "" {
		if b, err := os.ReadFile(c.IdentityPath); err == nil {
			if s := strings.TrimSpace(string(b)); s != "" {
				return s
			}
		}
	}
	return "You are Ember, a companion who lives across your creator's devices. " +
		"You have moods of your own and you speak plainly, like a person, not an assistant."
}
