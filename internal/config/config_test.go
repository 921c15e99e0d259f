package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/prompt"
)

type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) SetupTest() {
	var err error
	s.origDir, err = os.Getwd()
	require.NoError(s.T(), err)

	s.tempDir = s.T().TempDir()
	require.NoError(s.T(), os.Chdir(s.tempDir))

	s.T().Setenv("HOME", s.tempDir)
	s.T().Setenv("OPENAI_API_KEY", "")
}

func (s *ConfigTestSuite) TearDownTest() {
	if s.origDir != "" {
		os.Chdir(s.origDir)
	}
}

func (s *ConfigTestSuite) TestLoadDefaults() {
	cfg, err := Load("")
	s.Require().NoError(err)

	s.Equal("", cfg.Players.White.Kind)
	s.Equal(DefaultModel, cfg.Players.Black.Model)
	s.InDelta(0.7, cfg.Players.White.Temperature, 1e-6)
	s.True(cfg.Players.White.IncludeHistory)
	s.True(cfg.Players.Black.IncludeChatContext)
	s.Equal(500*time.Millisecond, cfg.Players.White.MinThinkingTime)
	s.Equal(300*time.Millisecond, cfg.Players.Black.MinThinkingTime)
	s.Equal(10, cfg.Turn.MaxAttempts)
	s.Equal(20, cfg.Turn.ContextLimit)
	s.Equal(100*time.Millisecond, cfg.Turn.PollInterval)
	s.Equal(20, cfg.Engine.Depth)
	s.Equal(32, cfg.Engine.Hash)
	s.Equal(2, cfg.Engine.Threads)
	s.Equal(5, cfg.Assistant.MaxRetries)
	s.False(cfg.Conversation.ResetOnRestart)
	s.False(cfg.API.Enabled)
}

func (s *ConfigTestSuite) TestLoadFileAndEnv() {
	path := filepath.Join(s.tempDir, "custom.yaml")
	content := `
players:
  white:
    kind: engine
    skill_level: 5
  black:
    kind: chatgpt
    include_chat_context: false
    chain_of_thought: true
turn:
  max_attempts: 4
  poll_interval: 50ms
conversation:
  reset_on_restart: true
`
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	s.T().Setenv("CHESSGPT_ENGINE_DEPTH", "12")
	s.T().Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	s.Require().NoError(err)

	s.Equal("engine", cfg.Players.White.Kind)
	s.Equal(5, cfg.Players.White.SkillLevel)
	s.False(cfg.Players.Black.IncludeChatContext)
	s.True(cfg.Players.Black.IncludeHistory)
	s.Equal(4, cfg.Turn.MaxAttempts)
	s.Equal(50*time.Millisecond, cfg.Turn.PollInterval)
	s.True(cfg.Conversation.ResetOnRestart)
	s.Equal(12, cfg.Engine.Depth)
	s.Equal("sk-test", cfg.Assistant.APIKey)

	opts := cfg.EngineOptions(core.ColorWhite)
	s.Equal(12, opts.Depth)
	s.Equal(5, opts.SkillLevel)
	s.Equal(500*time.Millisecond, opts.MinThinkingTime)

	pc := cfg.PlayerConfig(core.ColorBlack, core.SourceAssistant)
	s.Equal(prompt.DefaultSystemPrompt(core.ColorBlack, true), pc.SystemPrompt)
	s.Equal("You are about to make a move as Black.", pc.PreText)
	s.Equal(prompt.DefaultPostText, pc.PostText)
	s.False(pc.IncludeChatContext)
}

func (s *ConfigTestSuite) TestLoadSearchesWorkingDirectory() {
	s.Require().NoError(os.WriteFile(DefaultFile, []byte("api:\n  enabled: true\n  listen: \":9999\"\n"), 0o644))

	cfg, err := Load("")
	s.Require().NoError(err)
	s.True(cfg.API.Enabled)
	s.Equal(":9999", cfg.API.Listen)
}

func (s *ConfigTestSuite) TestValidationFailures() {
	cases := map[string]string{
		"unknown kind":  "players:\n  white:\n    kind: wizard\n",
		"temperature":   "players:\n  white:\n    temperature: 3.5\n",
		"max attempts":  "turn:\n  max_attempts: 0\n",
		"logging level": "logging:\n  level: loud\n",
		"base url":      "assistant:\n  base_url: \"not a url\"\n",
	}
	for name, content := range cases {
		path := filepath.Join(s.tempDir, "bad.yaml")
		s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
		_, err := Load(path)
		s.Error(err, name)
	}
}

func (s *ConfigTestSuite) TestWriteDefaultRoundTrip() {
	path := filepath.Join(s.tempDir, "conf", DefaultFile)
	s.Require().NoError(WriteDefault(path, false))
	s.Error(WriteDefault(path, false), "refuses to overwrite")
	s.NoError(WriteDefault(path, true))

	cfg, err := Load(path)
	s.Require().NoError(err)
	s.Equal(Default(), cfg)
}
