// FILE: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/engine"
	"github.com/jimmyshjj/ChessGPT/internal/prompt"
)

const (
	AppName        = "chessgpt"
	DefaultFile    = AppName + ".yaml"
	EnvPrefix      = "CHESSGPT"
	DefaultModel   = "chatgpt-4o-latest"
	DefaultListen  = ":8080"
	DefaultDBPath  = "chessgpt.db"
	DefaultLogDir  = "logs"
	defaultTemp    = 0.7
	defaultSkill   = 20
	defaultThreads = 2
	defaultHash    = 32
)

// Config is read by viper from chessgpt.yaml and CHESSGPT_* variables.
type Config struct {
	Players      PlayersConfig      `mapstructure:"players" yaml:"players"`
	Assistant    AssistantConfig    `mapstructure:"assistant" yaml:"assistant"`
	Engine       EngineConfig       `mapstructure:"engine" yaml:"engine"`
	Turn         TurnConfig         `mapstructure:"turn" yaml:"turn"`
	Conversation ConversationConfig `mapstructure:"conversation" yaml:"conversation"`
	Storage      StorageConfig      `mapstructure:"storage" yaml:"storage"`
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	API          APIConfig          `mapstructure:"api" yaml:"api"`
}

type PlayersConfig struct {
	White PlayerSection `mapstructure:"white" yaml:"white"`
	Black PlayerSection `mapstructure:"black" yaml:"black"`
}

// PlayerSection configures one side. An empty kind is asked for at startup.
type PlayerSection struct {
	Kind               string        `mapstructure:"kind" yaml:"kind"`
	Model              string        `mapstructure:"model" yaml:"model"`
	SystemPrompt       string        `mapstructure:"system_prompt" yaml:"system_prompt,omitempty"`
	PreText            string        `mapstructure:"pre_text" yaml:"pre_text,omitempty"`
	PostText           string        `mapstructure:"post_text" yaml:"post_text,omitempty"`
	IncludeHistory     bool          `mapstructure:"include_history" yaml:"include_history"`
	IncludeDiagram     bool          `mapstructure:"include_diagram" yaml:"include_diagram"`
	IncludeChatContext bool          `mapstructure:"include_chat_context" yaml:"include_chat_context"`
	ChainOfThought     bool          `mapstructure:"chain_of_thought" yaml:"chain_of_thought"`
	Temperature        float32       `mapstructure:"temperature" yaml:"temperature" validate:"min=0,max=2"`
	SkillLevel         int           `mapstructure:"skill_level" yaml:"skill_level" validate:"min=-1,max=20"`
	MinThinkingTime    time.Duration `mapstructure:"min_thinking_time" yaml:"min_thinking_time" validate:"min=0"`
}

type AssistantConfig struct {
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIKey     string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries" validate:"min=1,max=100"`
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay" validate:"min=0"`
}

type EngineConfig struct {
	Path     string        `mapstructure:"path" yaml:"path"`
	Depth    int           `mapstructure:"depth" yaml:"depth" validate:"min=0,max=99"`
	MoveTime time.Duration `mapstructure:"move_time" yaml:"move_time" validate:"min=0"`
	Threads  int           `mapstructure:"threads" yaml:"threads" validate:"min=1,max=1024"`
	Hash     int           `mapstructure:"hash" yaml:"hash" validate:"min=1"`
}

type TurnConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts" validate:"min=1,max=100"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" validate:"min=1ms"`
	ContextLimit int           `mapstructure:"context_limit" yaml:"context_limit" validate:"min=1"`
}

type ConversationConfig struct {
	ResetOnRestart bool `mapstructure:"reset_on_restart" yaml:"reset_on_restart"`
}

type StorageConfig struct {
	RecordDir string `mapstructure:"record_dir" yaml:"record_dir"`
	Database  string `mapstructure:"database" yaml:"database"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Dir   string `mapstructure:"dir" yaml:"dir"`
}

type APIConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen" validate:"required_if=Enabled true"`
}

func setDefaults(v *viper.Viper) {
	for _, side := range []core.Color{core.ColorWhite, core.ColorBlack} {
		p := "players." + side.String() + "."
		v.SetDefault(p+"kind", "")
		v.SetDefault(p+"model", DefaultModel)
		v.SetDefault(p+"include_history", true)
		v.SetDefault(p+"include_diagram", true)
		v.SetDefault(p+"include_chat_context", true)
		v.SetDefault(p+"chain_of_thought", false)
		v.SetDefault(p+"temperature", defaultTemp)
		v.SetDefault(p+"skill_level", defaultSkill)
	}
	v.SetDefault("players.white.min_thinking_time", 500*time.Millisecond)
	v.SetDefault("players.black.min_thinking_time", 300*time.Millisecond)

	v.SetDefault("assistant.base_url", "")
	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.max_retries", 5)
	v.SetDefault("assistant.retry_delay", time.Second)

	v.SetDefault("engine.path", engine.DefaultPath)
	v.SetDefault("engine.depth", engine.DefaultDepth)
	v.SetDefault("engine.move_time", time.Duration(0))
	v.SetDefault("engine.threads", defaultThreads)
	v.SetDefault("engine.hash", defaultHash)

	v.SetDefault("turn.max_attempts", 10)
	v.SetDefault("turn.poll_interval", 100*time.Millisecond)
	v.SetDefault("turn.context_limit", 20)

	v.SetDefault("conversation.reset_on_restart", false)

	v.SetDefault("storage.record_dir", ".")
	v.SetDefault("storage.database", DefaultDBPath)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dir", DefaultLogDir)

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.listen", DefaultListen)
}

// Default returns the configuration used when no file or environment is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// decoding plain defaults cannot fail
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads configPath, or searches the working directory and
// $HOME/.config/chessgpt for chessgpt.yaml. A missing file is not an error.
// OPENAI_API_KEY is honoured for assistant.api_key.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("assistant.api_key", EnvPrefix+"_ASSISTANT_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field ranges and that configured kinds are recognized.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, side := range []core.Color{core.ColorWhite, core.ColorBlack} {
		p := c.Player(side)
		if p.Kind == "" {
			continue
		}
		if _, err := core.ParseSourceKind(p.Kind); err != nil {
			return fmt.Errorf("invalid config: players.%s.kind: %w", side, err)
		}
	}
	return nil
}

func (c *Config) Player(side core.Color) *PlayerSection {
	if side == core.ColorBlack {
		return &c.Players.Black
	}
	return &c.Players.White
}

// PlayerConfig resolves a side's section into the immutable session
// configuration, filling empty prompts with the defaults.
func (c *Config) PlayerConfig(side core.Color, kind core.SourceKind) core.PlayerConfig {
	p := c.Player(side)
	pc := core.PlayerConfig{
		Color:              side,
		Kind:               kind,
		Model:              p.Model,
		SystemPrompt:       p.SystemPrompt,
		PreText:            p.PreText,
		PostText:           p.PostText,
		IncludeHistory:     p.IncludeHistory,
		IncludeDiagram:     p.IncludeDiagram,
		IncludeChatContext: p.IncludeChatContext,
		Temperature:        p.Temperature,
	}
	if pc.SystemPrompt == "" {
		pc.SystemPrompt = prompt.DefaultSystemPrompt(side, p.ChainOfThought)
	}
	if pc.PreText == "" {
		pc.PreText = prompt.DefaultPreText(side)
	}
	if pc.PostText == "" {
		pc.PostText = prompt.DefaultPostText
	}
	return pc
}

// EngineOptions merges the shared engine settings with a side's overrides.
func (c *Config) EngineOptions(side core.Color) engine.Options {
	p := c.Player(side)
	return engine.Options{
		Path:            c.Engine.Path,
		Depth:           c.Engine.Depth,
		MoveTime:        c.Engine.MoveTime,
		Threads:         c.Engine.Threads,
		Hash:            c.Engine.Hash,
		MinThinkingTime: p.MinThinkingTime,
		SkillLevel:      p.SkillLevel,
	}
}

// WriteDefault writes the default configuration as YAML. An existing file
// is left untouched unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
