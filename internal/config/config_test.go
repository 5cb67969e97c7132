package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()

	cfg := &Config{}
	require.NoError(t, env.Parse(cfg))
	cfg.EnableMocks = true
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENABLE_MOCKS", "true")
	t.Setenv("INTRODUCTION_SCRIPT_PATH", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := Load("unit-test")
	require.NoError(t, err)

	assert.Equal(t, "unit-test", cfg.Environment)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, SessionStoreMemory, cfg.SessionStore)
	assert.Equal(t, 24*time.Hour, cfg.SessionRetention)
	assert.Equal(t, 1, cfg.InterviewCfg.MaxFollowups)
	assert.Equal(t, 90*time.Second, cfg.InterviewCfg.GenerateTimeout)
	assert.Equal(t, "/interview/rounds", cfg.LLMConnectorCfg.GenerateRoundsEndpoint)
	assert.Equal(t, uint(3), cfg.LLMConnectorCfg.Retry.Attempts)
	assert.Equal(t, uint(5), cfg.DBConnectAttempts)
	assert.Equal(t, "ffmpeg", cfg.TelegramCfg.FFmpegPath)
	assert.Equal(t, 10<<20, cfg.TelegramCfg.MaxVoiceFileSize)
	assert.Empty(t, cfg.CallbackConnectorCfg.SigningSecret)
	assert.False(t, cfg.TTSConnectorCfg.Enabled())
	assert.Empty(t, cfg.IntroductionScript.FirstTime)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENABLE_MOCKS", "false")
	t.Setenv("LLM_SERVICE_URL", "http://llm:8000")
	t.Setenv("ASR_SERVICE_URL", "http://asr:8000")
	t.Setenv("TTS_SERVICE_URL", "http://tts:8000")
	t.Setenv("LLM_RETRY_ATTEMPTS", "5")
	t.Setenv("INTERVIEW_MAX_FOLLOWUPS", "2")
	t.Setenv("INTERVIEW_LOCK_WAIT", "250ms")
	t.Setenv("INTRODUCTION_SCRIPT_PATH", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := Load("unit-test")
	require.NoError(t, err)

	assert.Equal(t, "http://llm:8000", cfg.LLMConnectorCfg.Url)
	assert.Equal(t, uint(5), cfg.LLMConnectorCfg.Retry.Attempts)
	assert.Equal(t, uint(3), cfg.ASRConnectorCfg.Retry.Attempts)
	assert.Equal(t, 2, cfg.InterviewCfg.MaxFollowups)
	assert.Equal(t, 250*time.Millisecond, cfg.InterviewCfg.LockWait)
	assert.True(t, cfg.TTSConnectorCfg.Enabled())
}

func TestLoad_ValidationError(t *testing.T) {
	t.Setenv("ENABLE_MOCKS", "false")
	t.Setenv("LLM_SERVICE_URL", "")
	t.Setenv("ASR_SERVICE_URL", "")

	_, err := Load("unit-test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_SERVICE_URL is required")
	assert.Contains(t, err.Error(), "ASR_SERVICE_URL is required")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{name: "defaults with mocks", mutate: func(*Config) {}},
		{
			name:    "unknown store",
			mutate:  func(cfg *Config) { cfg.SessionStore = "redis" },
			wantErr: "SESSION_STORE must be",
		},
		{
			name:    "postgres without url",
			mutate:  func(cfg *Config) { cfg.SessionStore = SessionStorePostgres },
			wantErr: "DATABASE_URL is required",
		},
		{
			name: "postgres min above max",
			mutate: func(cfg *Config) {
				cfg.SessionStore = SessionStorePostgres
				cfg.DatabaseURL = "postgres://localhost/interview"
				cfg.DBMinConns = 30
			},
			wantErr: "DB_MIN_CONNS must be between",
		},
		{
			name:    "negative retention",
			mutate:  func(cfg *Config) { cfg.SessionRetention = -time.Hour },
			wantErr: "SESSION_RETENTION must not be negative",
		},
		{
			name:    "retention without cleanup interval",
			mutate:  func(cfg *Config) { cfg.SessionCleanupInterval = 0 },
			wantErr: "SESSION_CLEANUP_INTERVAL must be positive",
		},
		{
			name:    "too many followups",
			mutate:  func(cfg *Config) { cfg.InterviewCfg.MaxFollowups = 6 },
			wantErr: "INTERVIEW_MAX_FOLLOWUPS must be between 0 and 5",
		},
		{
			name:    "zero analyze timeout",
			mutate:  func(cfg *Config) { cfg.InterviewCfg.AnalyzeTimeout = 0 },
			wantErr: "INTERVIEW_ANALYZE_TIMEOUT must be positive",
		},
		{
			name:    "negative lock wait",
			mutate:  func(cfg *Config) { cfg.InterviewCfg.LockWait = -time.Second },
			wantErr: "INTERVIEW_LOCK_WAIT must not be negative",
		},
		{
			name:    "bad log level",
			mutate:  func(cfg *Config) { cfg.LogLevel = "loud" },
			wantErr: "LOG_LEVEL is invalid",
		},
		{
			name:    "upload smaller than audio",
			mutate:  func(cfg *Config) { cfg.FileUploadCfg.MaxUploadSize = 1 },
			wantErr: "FILE_UPLOAD_MAX_UPLOAD_SIZE must not be smaller",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateTelegram(t *testing.T) {
	cfg := defaultConfig(t)
	require.Error(t, cfg.ValidateTelegram())

	cfg.TelegramCfg.BotToken = "123:abc"
	require.NoError(t, cfg.ValidateTelegram())

	cfg.TelegramCfg.RateLimitPerMinute = 0
	cfg.TelegramCfg.ShutdownTimeout = 0
	err := cfg.ValidateTelegram()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_RATE_LIMIT_PER_MINUTE")
	assert.Contains(t, err.Error(), "TELEGRAM_SHUTDOWN_TIMEOUT")
}

func TestLoadIntroductionScript(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("missing file keeps built-in script", func(t *testing.T) {
		cfg := &Config{IntroductionScriptPath: filepath.Join(dir, "none.json")}
		require.NoError(t, loadIntroductionScript(cfg))
		assert.Empty(t, cfg.IntroductionScript.FirstTime)
	})

	t.Run("valid file", func(t *testing.T) {
		cfg := &Config{IntroductionScriptPath: write("ok.json", `{"first_time":["Hi","Welcome"],"returning":["Welcome back"]}`)}
		require.NoError(t, loadIntroductionScript(cfg))
		assert.Equal(t, []string{"Hi", "Welcome"}, cfg.IntroductionScript.FirstTime)
		assert.Equal(t, []string{"Welcome back"}, cfg.IntroductionScript.Returning)
	})

	t.Run("shipped script", func(t *testing.T) {
		cfg := &Config{IntroductionScriptPath: "introduction_script.json"}
		require.NoError(t, loadIntroductionScript(cfg))
		assert.NotEmpty(t, cfg.IntroductionScript.FirstTime)
	})

	for name, content := range map[string]string{
		"empty.json":   "",
		"broken.json":  "{",
		"partial.json": `{"first_time":["Hi"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			cfg := &Config{IntroductionScriptPath: write(name, content)}
			assert.Error(t, loadIntroductionScript(cfg))
		})
	}
}

func TestGetEnvFile(t *testing.T) {
	assert.Equal(t, ".env.prod", getEnvFile("production"))
	assert.Equal(t, ".env.local", getEnvFile("dev"))
	assert.Equal(t, ".env.staging", getEnvFile("staging"))
}
