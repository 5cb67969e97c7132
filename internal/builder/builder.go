package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/interview-flow/internal/api"
	sessionapi "github.com/futig/interview-flow/internal/api/session"
	"github.com/futig/interview-flow/internal/config"
	"github.com/futig/interview-flow/internal/integration/asr"
	"github.com/futig/interview-flow/internal/integration/callback"
	"github.com/futig/interview-flow/internal/integration/llm"
	"github.com/futig/interview-flow/internal/integration/tts"
	"github.com/futig/interview-flow/internal/pkg/formatter"
	"github.com/futig/interview-flow/internal/pkg/validator"
	"github.com/futig/interview-flow/internal/repository"
	"github.com/futig/interview-flow/internal/telegram"
	"github.com/futig/interview-flow/internal/telegram/state"
	"github.com/futig/interview-flow/internal/usecase/interview"
	"github.com/futig/interview-flow/internal/usecase/session"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// core holds what both binaries share: storage, the engine and the session usecase
type core struct {
	db        *pgxpool.Pool
	engine    *interview.Engine
	sessionUC *session.SessionUsecase
}

func (c *core) close() {
	if c.db != nil {
		c.db.Close()
	}
}

func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.String("session_store", cfg.SessionStore),
	)

	c, err := buildCore(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}

	callbackConnector := callback.NewConnector(cfg.CallbackConnectorCfg, logger)

	sessionHandler := sessionapi.NewHandler(c.sessionUC, callbackConnector, cfg.FileUploadCfg.MaxUploadSize)
	logger.Info("API handlers initialized")

	router := api.SetupRouter(sessionHandler, logger)
	logger.Info("HTTP router configured")

	// WriteTimeout covers synchronous question generation
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.InterviewCfg.GenerateTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:   server,
		db:       c.db,
		inflight: sessionHandler,
		janitor:  newJanitor(c.engine, cfg.SessionRetention, cfg.SessionCleanupInterval, logger),
		logger:   logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (telegram.Bot, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.ValidateTelegram(); err != nil {
		return nil, nil, fmt.Errorf("invalid telegram configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
		zap.String("session_store", cfg.SessionStore),
	)

	c, err := buildCore(context.Background(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	// Chat bindings live next to the sessions they point at
	var storage state.Storage
	if c.db != nil {
		storage = repository.NewTelegramStateRepository(c.db)
	} else {
		storage = state.NewMemoryStorage(cfg.SessionRetention, cfg.SessionCleanupInterval)
	}

	bot, err := telegram.NewBot(&cfg.TelegramCfg, storage, c.sessionUC, logger)
	if err != nil {
		c.close()
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &botApp{
		Bot:     bot,
		core:    c,
		janitor: newJanitor(c.engine, cfg.SessionRetention, cfg.SessionCleanupInterval, logger),
	}, logger, nil
}

func buildCore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*core, error) {
	c := &core{}

	var store repository.SessionRepository
	switch cfg.SessionStore {
	case config.SessionStorePostgres:
		db, err := setupDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("setup database: %w", err)
		}

		logger.Info("Running database migrations")
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("Database migrations completed successfully")

		c.db = db
		store = repository.NewSessionPostgres(db)
	default:
		store = repository.NewSessionMemory()
	}
	logger.Info("Session store initialized", zap.String("store", cfg.SessionStore))

	var (
		generator    interview.QuestionGenerator
		analyzer     interview.ResponseAnalyzer
		composer     interview.SummaryComposer
		synthesizer  tts.Synthesizer
		asrConnector session.ASRConnector
	)

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")

		bank, err := llm.LoadQuestionBank(cfg.InterviewCfg.QuestionBankPath)
		if err != nil {
			c.close()
			return nil, fmt.Errorf("load question bank: %w", err)
		}

		mock := llm.NewMockConnector(bank, logger)
		generator, analyzer, composer = mock, mock, mock
		synthesizer = tts.NewMockConnector(logger)
		asrConnector = asr.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services")

		conn := llm.NewConnector(cfg.LLMConnectorCfg, logger)
		generator, analyzer, composer = conn, conn, conn
		asrConnector = asr.NewConnector(cfg.ASRConnectorCfg, logger)
	}

	if cfg.TTSConnectorCfg.Enabled() {
		synthesizer = tts.NewConnector(cfg.TTSConnectorCfg, logger)
	}
	if synthesizer != nil {
		generator = tts.NewVoicedGenerator(generator, synthesizer)
		logger.Info("Questions will be voiced")
	}

	policy := interview.Policy{
		MaxFollowupsPerRound: cfg.InterviewCfg.MaxFollowups,
		GenerateTimeout:      cfg.InterviewCfg.GenerateTimeout,
		AnalyzeTimeout:       cfg.InterviewCfg.AnalyzeTimeout,
		SummaryTimeout:       cfg.InterviewCfg.SummaryTimeout,
		LockWait:             cfg.InterviewCfg.LockWait,
	}

	script := interview.DefaultIntroductionScript()
	if len(cfg.IntroductionScript.FirstTime) > 0 {
		script = interview.IntroductionScript{
			FirstTime: cfg.IntroductionScript.FirstTime,
			Returning: cfg.IntroductionScript.Returning,
		}
	}

	c.engine = interview.NewEngine(store, generator, analyzer, composer, policy, script, logger)
	logger.Info("Interview engine initialized",
		zap.Int("max_followups", policy.MaxFollowupsPerRound),
		zap.Duration("lock_wait", policy.LockWait),
	)

	c.sessionUC = session.NewUsecase(
		c.engine,
		validator.NewValidator(cfg.FileUploadCfg),
		asrConnector,
		formatter.NewFactory(cfg.ReportCfg.FontDir),
		logger,
	)
	logger.Info("Use cases initialized")

	return c, nil
}
