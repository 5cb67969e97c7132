package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/interview-flow/internal/pkg/retry"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`

	// Session storage
	SessionStore           string        `env:"SESSION_STORE" envDefault:"memory"`
	SessionRetention       time.Duration `env:"SESSION_RETENTION" envDefault:"24h"`
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`

	// Database configuration (SESSION_STORE=postgres)
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
	// postgres may come up after the service in compose setups
	DBConnectAttempts uint          `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`
	DBConnectDelay    time.Duration `env:"DB_CONNECT_DELAY" envDefault:"1s"`

	// Interview flow policy
	InterviewCfg InterviewConfig `envPrefix:"INTERVIEW_"`

	// External service configurations
	LLMConnectorCfg      LLMConnectorConfig      `envPrefix:"LLM_"`
	TTSConnectorCfg      TTSConnectorConfig      `envPrefix:"TTS_"`
	ASRConnectorCfg      ASRConnectorConfig      `envPrefix:"ASR_"`
	CallbackConnectorCfg CallbackConnectorConfig `envPrefix:"CALLBACK_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Report export configuration
	ReportCfg ReportConfig `envPrefix:"REPORT_"`

	// Introduction script (loaded from JSON file)
	IntroductionScriptPath string `env:"INTRODUCTION_SCRIPT_PATH" envDefault:"internal/config/introduction_script.json"`
	IntroductionScript     IntroductionScript

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// InterviewConfig holds the interview engine policy
type InterviewConfig struct {
	MaxFollowups    int           `env:"MAX_FOLLOWUPS" envDefault:"1"`
	GenerateTimeout time.Duration `env:"GENERATE_TIMEOUT" envDefault:"90s"`
	AnalyzeTimeout  time.Duration `env:"ANALYZE_TIMEOUT" envDefault:"30s"`
	SummaryTimeout  time.Duration `env:"SUMMARY_TIMEOUT" envDefault:"30s"`
	LockWait        time.Duration `env:"LOCK_WAIT" envDefault:"0s"`
	// QuestionBankPath overrides the built-in question bank of the mock generator
	QuestionBankPath string `env:"QUESTION_BANK_PATH"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"` // seconds
	// voice answers are transcoded to 16 kHz mono WAV before recognition
	FFmpegPath       string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	MaxVoiceFileSize int    `env:"MAX_VOICE_FILE_SIZE" envDefault:"10485760"`
}

type LLMConnectorConfig struct {
	HTTPClientConfig
	GenerateRoundsEndpoint  string               `env:"GENERATE_ROUNDS_ENDPOINT" envDefault:"/interview/rounds"`
	AnalyzeResponseEndpoint string               `env:"ANALYZE_RESPONSE_ENDPOINT" envDefault:"/interview/analyze"`
	ComposeSummaryEndpoint  string               `env:"COMPOSE_SUMMARY_ENDPOINT" envDefault:"/interview/summary"`
	Retry                   pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type TTSConnectorConfig struct {
	HTTPClientConfig
	SynthesizeEndpoint string               `env:"SYNTHESIZE_ENDPOINT" envDefault:"/tts/synthesize"`
	Voice              string               `env:"VOICE"`
	APIKeyHeader       string               `env:"API_KEY_HEADER"`
	Retry              pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// Enabled reports whether question voicing is configured.
func (c TTSConnectorConfig) Enabled() bool {
	return c.Url != ""
}

type ASRConnectorConfig struct {
	HTTPClientConfig
	TranscribeEndpoint string `env:"TRANSCRIBE_ENDPOINT" envDefault:"/asr/transcribe"`
	// BCP 47 hint passed to the recognizer, empty lets it detect
	Language string               `env:"LANGUAGE"`
	Retry    pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type CallbackConnectorConfig struct {
	HTTPClientConfig
	// SigningSecret enables the X-Interview-Signature header
	SigningSecret string               `env:"SIGNING_SECRET"`
	Retry         pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"5s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"30s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxAudioFileSize int64 `env:"MAX_AUDIO_FILE_SIZE" envDefault:"26214400"` // 25 MiB
	MaxUploadSize    int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"`     // 32 MiB
}

// ReportConfig holds interview report rendering settings
type ReportConfig struct {
	FontDir string `env:"FONT_DIR" envDefault:"/usr/share/fonts/truetype/dejavu"`
}

// IntroductionScript is the interviewer's opening text
type IntroductionScript struct {
	FirstTime []string `json:"first_time"`
	Returning []string `json:"returning"`
}

// LoadConfig reads the -env flag and loads the configuration of that environment.
func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	return Load(*envFlag)
}

// Load loads .env.<environment> if present, then parses and validates the environment.
func Load(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = environment

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := loadIntroductionScript(cfg); err != nil {
		return nil, fmt.Errorf("load introduction script: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []string

	switch cfg.SessionStore {
	case SessionStoreMemory:
	case SessionStorePostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when SESSION_STORE=postgres")
		}

		if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
		}

		if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
		}
	default:
		errs = append(errs, fmt.Sprintf("SESSION_STORE must be %q or %q, got %q", SessionStoreMemory, SessionStorePostgres, cfg.SessionStore))
	}

	if cfg.SessionRetention < 0 {
		errs = append(errs, fmt.Sprintf("SESSION_RETENTION must not be negative, got %s", cfg.SessionRetention))
	}

	if cfg.SessionRetention > 0 && cfg.SessionCleanupInterval <= 0 {
		errs = append(errs, "SESSION_CLEANUP_INTERVAL must be positive when SESSION_RETENTION is set")
	}

	if cfg.InterviewCfg.MaxFollowups < 0 || cfg.InterviewCfg.MaxFollowups > 5 {
		errs = append(errs, fmt.Sprintf("INTERVIEW_MAX_FOLLOWUPS must be between 0 and 5, got %d", cfg.InterviewCfg.MaxFollowups))
	}

	for name, d := range map[string]time.Duration{
		"INTERVIEW_GENERATE_TIMEOUT": cfg.InterviewCfg.GenerateTimeout,
		"INTERVIEW_ANALYZE_TIMEOUT":  cfg.InterviewCfg.AnalyzeTimeout,
		"INTERVIEW_SUMMARY_TIMEOUT":  cfg.InterviewCfg.SummaryTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got %s", name, d))
		}
	}

	if cfg.InterviewCfg.LockWait < 0 {
		errs = append(errs, fmt.Sprintf("INTERVIEW_LOCK_WAIT must not be negative, got %s", cfg.InterviewCfg.LockWait))
	}

	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL is invalid: %v", err))
	}

	if cfg.FileUploadCfg.MaxAudioFileSize <= 0 {
		errs = append(errs, fmt.Sprintf("FILE_UPLOAD_MAX_AUDIO_FILE_SIZE must be positive, got %d", cfg.FileUploadCfg.MaxAudioFileSize))
	}

	if cfg.FileUploadCfg.MaxUploadSize < cfg.FileUploadCfg.MaxAudioFileSize {
		errs = append(errs, "FILE_UPLOAD_MAX_UPLOAD_SIZE must not be smaller than FILE_UPLOAD_MAX_AUDIO_FILE_SIZE")
	}

	// Real connectors need somewhere to connect to
	if !cfg.EnableMocks {
		if cfg.LLMConnectorCfg.Url == "" {
			errs = append(errs, "LLM_SERVICE_URL is required when ENABLE_MOCKS=false")
		}

		if cfg.ASRConnectorCfg.Url == "" {
			errs = append(errs, "ASR_SERVICE_URL is required when ENABLE_MOCKS=false")
		}
	}

	if len(errs) > 0 {
		slices.Sort(errs)
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ValidateTelegram checks the settings only the Telegram bot needs.
func (cfg *Config) ValidateTelegram() error {
	var errs []error

	if cfg.TelegramCfg.BotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}

	if cfg.TelegramCfg.RateLimitPerMinute < 1 || cfg.TelegramCfg.RateLimitPerMinute > 60 {
		errs = append(errs, fmt.Errorf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.TelegramCfg.RateLimitPerMinute))
	}

	if cfg.TelegramCfg.RateLimitBurst < 1 || cfg.TelegramCfg.RateLimitBurst > 20 {
		errs = append(errs, fmt.Errorf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", cfg.TelegramCfg.RateLimitBurst))
	}

	if cfg.TelegramCfg.ShutdownTimeout < 1 || cfg.TelegramCfg.ShutdownTimeout > 300 {
		errs = append(errs, fmt.Errorf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", cfg.TelegramCfg.ShutdownTimeout))
	}

	return errors.Join(errs...)
}

// loadIntroductionScript replaces the built-in script when a script file exists.
// An empty script means the engine's built-in text is used.
func loadIntroductionScript(cfg *Config) error {
	path := cfg.IntroductionScriptPath

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.IntroductionScript = IntroductionScript{}
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read introduction script file: %w", err)
	}

	if len(data) == 0 {
		return fmt.Errorf("introduction script file is empty: %s", path)
	}

	var script IntroductionScript
	if err := json.Unmarshal(data, &script); err != nil {
		return fmt.Errorf("parse introduction script JSON: %w", err)
	}

	if len(script.FirstTime) == 0 || len(script.Returning) == 0 {
		return fmt.Errorf("introduction script needs both first_time and returning lines: %s", path)
	}

	cfg.IntroductionScript = script

	fmt.Printf("Loaded introduction script from %s\n", path)
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
